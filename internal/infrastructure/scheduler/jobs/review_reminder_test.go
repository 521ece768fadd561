package jobs

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Shatzii/Go4it-V2-sub020/internal/domain/path"
	"github.com/Shatzii/Go4it-V2-sub020/internal/domain/shared"
)

type fakeReviewBrowser struct {
	due        []path.DueReview
	err        error
	lastBefore time.Time
}

func (f *fakeReviewBrowser) ListDueReviews(ctx context.Context, before time.Time) ([]path.DueReview, error) {
	f.lastBefore = before
	return f.due, f.err
}

type sentReminder struct {
	userID     string
	reviewType string
	focusAreas []string
}

type fakeSink struct {
	sent []sentReminder
	err  error
}

func (f *fakeSink) NotifyMilestone(ctx context.Context, userID, title, reward string) error {
	return nil
}

func (f *fakeSink) NotifyReview(ctx context.Context, userID, reviewType string, focusAreas []string) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, sentReminder{userID: userID, reviewType: reviewType, focusAreas: focusAreas})
	return nil
}

func dueReview(userID string, afterItem int) path.DueReview {
	return path.DueReview{
		UserID:        userID,
		ContentDomain: "math",
		AfterItem:     afterItem,
		ReviewType:    path.ReviewQuick,
		FocusAreas:    shared.Tags{"fluency"},
		ScheduledDate: time.Now().Add(-48 * time.Hour),
	}
}

func testJob(browser *fakeReviewBrowser, sink *fakeSink, config ReviewReminderConfig) *ReviewReminderJob {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewReviewReminderJob(browser, sink, logger, config)
}

func TestReviewReminderJob_SendsReminders(t *testing.T) {
	browser := &fakeReviewBrowser{due: []path.DueReview{
		dueReview("u1", 3),
		dueReview("u2", 6),
	}}
	sink := &fakeSink{}
	job := testJob(browser, sink, DefaultReviewReminderConfig())

	require.NoError(t, job.Run(context.Background()))

	require.Len(t, sink.sent, 2)
	assert.Equal(t, "u1", sink.sent[0].userID)
	assert.Equal(t, "quick", sink.sent[0].reviewType)
	assert.Equal(t, []string{"fluency"}, sink.sent[0].focusAreas)
}

func TestReviewReminderJob_MinAgeCutoff(t *testing.T) {
	browser := &fakeReviewBrowser{}
	job := testJob(browser, &fakeSink{}, DefaultReviewReminderConfig())

	before := time.Now()
	require.NoError(t, job.Run(context.Background()))

	// The sweep only asks for reviews activated at least MinAge ago.
	want := before.Add(-24 * time.Hour)
	assert.WithinDuration(t, want, browser.lastBefore, 5*time.Second)
}

func TestReviewReminderJob_Cooldown(t *testing.T) {
	browser := &fakeReviewBrowser{due: []path.DueReview{dueReview("u1", 3)}}
	sink := &fakeSink{}
	job := testJob(browser, sink, DefaultReviewReminderConfig())

	require.NoError(t, job.Run(context.Background()))
	require.NoError(t, job.Run(context.Background()))

	// Second sweep within the cooldown window does not repeat the reminder.
	assert.Len(t, sink.sent, 1)
}

func TestReviewReminderJob_CooldownKeyIsPerReviewPoint(t *testing.T) {
	first := dueReview("u1", 3)
	second := dueReview("u1", 6)
	browser := &fakeReviewBrowser{due: []path.DueReview{first}}
	sink := &fakeSink{}
	job := testJob(browser, sink, DefaultReviewReminderConfig())

	require.NoError(t, job.Run(context.Background()))

	// A different review point for the same learner is not suppressed.
	browser.due = []path.DueReview{first, second}
	require.NoError(t, job.Run(context.Background()))

	assert.Len(t, sink.sent, 2)
	assert.Equal(t, "u1", sink.sent[1].userID)
}

func TestReviewReminderJob_MaxPerRun(t *testing.T) {
	browser := &fakeReviewBrowser{due: []path.DueReview{
		dueReview("u1", 3),
		dueReview("u2", 3),
		dueReview("u3", 3),
	}}
	sink := &fakeSink{}

	config := DefaultReviewReminderConfig()
	config.MaxPerRun = 2
	job := testJob(browser, sink, config)

	require.NoError(t, job.Run(context.Background()))
	assert.Len(t, sink.sent, 2)
}

func TestReviewReminderJob_BrowserFailure(t *testing.T) {
	browserErr := errors.New("db down")
	browser := &fakeReviewBrowser{err: browserErr}
	job := testJob(browser, &fakeSink{}, DefaultReviewReminderConfig())

	assert.ErrorIs(t, job.Run(context.Background()), browserErr)
}

func TestReviewReminderJob_AllDeliveriesFailed(t *testing.T) {
	browser := &fakeReviewBrowser{due: []path.DueReview{dueReview("u1", 3)}}
	sink := &fakeSink{err: errors.New("smtp down")}
	job := testJob(browser, sink, DefaultReviewReminderConfig())

	err := job.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "all 1 reminders failed")

	// Failed deliveries do not consume the cooldown.
	sink.err = nil
	require.NoError(t, job.Run(context.Background()))
	assert.Len(t, sink.sent, 1)
}

func TestReviewReminderJob_NothingDue(t *testing.T) {
	job := testJob(&fakeReviewBrowser{}, &fakeSink{}, DefaultReviewReminderConfig())

	require.NoError(t, job.Run(context.Background()))
}
