// Package jobs contains implementations of scheduled jobs for the learning
// path engine.
package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/Shatzii/Go4it-V2-sub020/internal/application/eventhandler"
	"github.com/Shatzii/Go4it-V2-sub020/internal/domain/path"
)

// ══════════════════════════════════════════════════════════════════════════════
// REVIEW REMINDER JOB
// ══════════════════════════════════════════════════════════════════════════════

// ReviewReminderJob finds review points that were activated some time ago
// and sends a follow-up reminder through the notification sink. Activation
// publishes an immediate notification from the update pipeline; this sweep
// nudges learners who have let an activated review sit.
//
// The job is strictly advisory and never mutates a path.
type ReviewReminderJob struct {
	reviews path.ReviewBrowser
	sink    eventhandler.NotificationSink
	logger  *slog.Logger

	config ReviewReminderConfig

	// Cooldown state, keyed by "userID|domain|afterItem".
	mu       sync.Mutex
	notified map[string]time.Time
}

// ReviewReminderConfig contains configuration for the review reminder job.
type ReviewReminderConfig struct {
	// MinAge is how long a review must have been activated before the sweep
	// reminds about it.
	MinAge time.Duration

	// Cooldown is the minimum time between reminders for the same review
	// point. Stops a daily sweep from nagging about the same overdue review.
	Cooldown time.Duration

	// MaxPerRun caps how many reminders one sweep sends.
	MaxPerRun int

	// Timeout is the maximum duration for the job.
	Timeout time.Duration
}

// DefaultReviewReminderConfig returns sensible defaults.
func DefaultReviewReminderConfig() ReviewReminderConfig {
	return ReviewReminderConfig{
		MinAge:    24 * time.Hour,
		Cooldown:  72 * time.Hour,
		MaxPerRun: 500,
		Timeout:   2 * time.Minute,
	}
}

// ReviewReminderStats contains statistics from a reminder run.
type ReviewReminderStats struct {
	StartedAt         time.Time
	Duration          time.Duration
	DueReviewsFound   int
	RemindersSent     int
	SkippedByCooldown int
	Errors            int
}

// NewReviewReminderJob creates a new review reminder job.
func NewReviewReminderJob(
	reviews path.ReviewBrowser,
	sink eventhandler.NotificationSink,
	logger *slog.Logger,
	config ReviewReminderConfig,
) *ReviewReminderJob {
	if logger == nil {
		logger = slog.Default()
	}

	return &ReviewReminderJob{
		reviews:  reviews,
		sink:     sink,
		logger:   logger,
		config:   config,
		notified: make(map[string]time.Time),
	}
}

// Name returns the job name.
func (j *ReviewReminderJob) Name() string {
	return "review_reminder"
}

// Description returns a human-readable description.
func (j *ReviewReminderJob) Description() string {
	return "Sends reminders for scheduled review points that have come due"
}

// Run executes the reminder sweep.
func (j *ReviewReminderJob) Run(ctx context.Context) error {
	startedAt := time.Now()
	stats := ReviewReminderStats{StartedAt: startedAt}

	if j.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, j.config.Timeout)
		defer cancel()
	}

	due, err := j.reviews.ListDueReviews(ctx, startedAt.Add(-j.config.MinAge))
	if err != nil {
		return fmt.Errorf("failed to list due reviews: %w", err)
	}
	stats.DueReviewsFound = len(due)

	for _, review := range due {
		if j.config.MaxPerRun > 0 && stats.RemindersSent >= j.config.MaxPerRun {
			break
		}

		key := fmt.Sprintf("%s|%s|%d", review.UserID, review.ContentDomain, review.AfterItem)
		if !j.shouldNotify(key, startedAt) {
			stats.SkippedByCooldown++
			continue
		}

		err := j.sink.NotifyReview(ctx, review.UserID, string(review.ReviewType), review.FocusAreas.Strings())
		if err != nil {
			stats.Errors++
			j.logger.Warn("review reminder failed",
				"user_id", review.UserID,
				"domain", review.ContentDomain,
				"after_item", review.AfterItem,
				"error", err,
			)
			continue
		}

		j.markNotified(key, startedAt)
		stats.RemindersSent++
	}

	stats.Duration = time.Since(startedAt)
	j.logger.Info("review reminder sweep completed",
		"due_found", stats.DueReviewsFound,
		"sent", stats.RemindersSent,
		"skipped_cooldown", stats.SkippedByCooldown,
		"errors", stats.Errors,
		"duration", stats.Duration.String(),
	)

	if stats.Errors > 0 && stats.RemindersSent == 0 && stats.DueReviewsFound > 0 {
		return fmt.Errorf("all %d reminders failed", stats.Errors)
	}

	return nil
}

// shouldNotify reports whether the review point is past its cooldown.
func (j *ReviewReminderJob) shouldNotify(key string, now time.Time) bool {
	j.mu.Lock()
	defer j.mu.Unlock()

	last, ok := j.notified[key]
	if !ok {
		return true
	}
	return now.Sub(last) >= j.config.Cooldown
}

// markNotified records a sent reminder and prunes stale entries.
func (j *ReviewReminderJob) markNotified(key string, now time.Time) {
	j.mu.Lock()
	defer j.mu.Unlock()

	j.notified[key] = now

	// Entries older than two cooldowns can never block again.
	cutoff := now.Add(-2 * j.config.Cooldown)
	for k, t := range j.notified {
		if t.Before(cutoff) {
			delete(j.notified, k)
		}
	}
}
