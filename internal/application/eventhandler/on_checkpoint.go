// Package eventhandler содержит обработчики доменных событий.
package eventhandler

import (
	"context"
	"log/slog"

	"github.com/Shatzii/Go4it-V2-sub020/internal/domain/shared"
)

// ═══════════════════════════════════════════════════════════════════════════
// ON CHECKPOINT HANDLER
// Пересылает активации вех и точек повторения во внешний notification sink.
// Движок сам ничего не отправляет ученику - он только публикует события,
// а sink (бот, push-сервис, дашборд) решает, как их доставить.
// ═══════════════════════════════════════════════════════════════════════════

// NotificationSink - внешний приёмник уведомлений о вехах и повторениях.
type NotificationSink interface {
	// NotifyMilestone сообщает о достигнутой вехе с наградой.
	NotifyMilestone(ctx context.Context, userID, title, reward string) error

	// NotifyReview сообщает об активированной точке повторения.
	NotifyReview(ctx context.Context, userID, reviewType string, focusAreas []string) error
}

// OnCheckpointHandler пересылает checkpoint-события в sink.
type OnCheckpointHandler struct {
	sink   NotificationSink
	logger *slog.Logger
}

// NewOnCheckpointHandler создаёт обработчик.
func NewOnCheckpointHandler(sink NotificationSink, logger *slog.Logger) *OnCheckpointHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &OnCheckpointHandler{sink: sink, logger: logger}
}

// Register подписывает обработчик на события шины.
func (h *OnCheckpointHandler) Register(bus shared.EventSubscriber) error {
	if err := bus.Subscribe(shared.EventMilestoneAchieved, h.handleMilestone); err != nil {
		return err
	}
	return bus.Subscribe(shared.EventReviewActivated, h.handleReview)
}

// handleMilestone обрабатывает milestone.achieved.
func (h *OnCheckpointHandler) handleMilestone(event shared.Event) error {
	e, ok := event.(shared.MilestoneAchievedEvent)
	if !ok {
		h.logger.Warn("unexpected event payload", "type", event.EventType())
		return nil
	}

	if err := h.sink.NotifyMilestone(context.Background(), e.UserID, e.Title, e.Reward); err != nil {
		h.logger.Error("milestone notification failed", "user_id", e.UserID, "title", e.Title, "error", err)
		return err
	}
	return nil
}

// handleReview обрабатывает review.activated.
func (h *OnCheckpointHandler) handleReview(event shared.Event) error {
	e, ok := event.(shared.ReviewActivatedEvent)
	if !ok {
		h.logger.Warn("unexpected event payload", "type", event.EventType())
		return nil
	}

	if err := h.sink.NotifyReview(context.Background(), e.UserID, e.ReviewType, e.FocusAreas); err != nil {
		h.logger.Error("review notification failed", "user_id", e.UserID, "after_item", e.AfterItem, "error", err)
		return err
	}
	return nil
}
