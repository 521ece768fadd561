package service

import (
	"context"
	"log/slog"
	"strings"
)

// LogNotificationSink implements eventhandler.NotificationSink by writing
// structured log records. Delivery to an actual notification channel is owned
// by a separate service; until the engine is wired to it, checkpoint events
// are surfaced here so operators can observe them.
type LogNotificationSink struct {
	logger *slog.Logger
}

func NewLogNotificationSink(logger *slog.Logger) *LogNotificationSink {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogNotificationSink{
		logger: logger,
	}
}

func (s *LogNotificationSink) NotifyMilestone(ctx context.Context, userID, title, reward string) error {
	s.logger.Info("milestone notification",
		"user_id", userID,
		"title", title,
		"reward", reward,
	)
	return nil
}

func (s *LogNotificationSink) NotifyReview(ctx context.Context, userID, reviewType string, focusAreas []string) error {
	s.logger.Info("review notification",
		"user_id", userID,
		"review_type", reviewType,
		"focus_areas", strings.Join(focusAreas, ","),
	)
	return nil
}
