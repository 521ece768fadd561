package path

import (
	"fmt"
	"time"

	"github.com/Shatzii/Go4it-V2-sub020/internal/domain/content"
	"github.com/Shatzii/Go4it-V2-sub020/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// PATH UPDATER - STATE MACHINE
// Consumes PerformanceEvents and produces a new LearningPath value. The
// input path is never mutated: the updater clones, applies every step, and
// either returns the fully updated copy or rejects the whole event. No
// half-applied update is ever observable.
// ══════════════════════════════════════════════════════════════════════════════

// Branching thresholds on the event score.
const (
	// StruggleThreshold - below this a support item is synthesized.
	StruggleThreshold = 0.7

	// ExcelScoreThreshold - above this (with high confidence) a
	// skip-forward advisory is attached.
	ExcelScoreThreshold = 0.9

	// ExcelConfidenceThreshold - minimum confidence for the advisory.
	ExcelConfidenceThreshold = 0.8
)

// SupportItemSuffix is appended to a content ID to derive its support item ID.
const SupportItemSuffix = "_support"

// UpdaterOptions gate the structural branches. Both default to enabled;
// feature flags in the application layer may switch them off.
type UpdaterOptions struct {
	// AllowSupportInsertion enables support-item synthesis on struggle.
	AllowSupportInsertion bool

	// AllowSkipForward enables the skip-forward advisory on excellence.
	AllowSkipForward bool
}

// DefaultUpdaterOptions returns the reference behavior: both branches on.
func DefaultUpdaterOptions() UpdaterOptions {
	return UpdaterOptions{
		AllowSupportInsertion: true,
		AllowSkipForward:      true,
	}
}

// UpdateResult describes what a single applied event changed. The caller
// publishes the corresponding domain events.
type UpdateResult struct {
	// Path is the new path value.
	Path *LearningPath

	// ItemIndex is the 0-based index of the completed item.
	ItemIndex int

	// Struggled reports whether the item ended in the struggled state.
	Struggled bool

	// SupportInsertedID is the ID of the inserted support item, if any.
	SupportInsertedID string

	// SkipSuggested is the advisory attached by this update, if any.
	SkipSuggested *SkipSuggestion

	// MilestonesAchieved lists milestones stamped by this update.
	MilestonesAchieved []Milestone

	// ReviewsActivated lists review points activated by this update.
	ReviewsActivated []ReviewPoint
}

// Updater applies performance events to learning paths.
type Updater struct {
	opts UpdaterOptions
	now  func() time.Time
}

// NewUpdater creates an Updater with the given options.
func NewUpdater(opts UpdaterOptions) *Updater {
	return &Updater{opts: opts, now: time.Now}
}

// WithClock overrides the updater clock. Test hook.
func (u *Updater) WithClock(now func() time.Time) *Updater {
	u.now = now
	return u
}

// Update applies one performance event and returns the new path value.
// Returns shared.ErrContentNotFound when the event references an item that
// is not in the sequence; the input path is left untouched on any error.
func (u *Updater) Update(p *LearningPath, event PerformanceEvent) (*UpdateResult, error) {
	if p == nil {
		return nil, shared.ErrPathNotFound
	}
	if err := event.Validate(); err != nil {
		return nil, err
	}

	idx := p.IndexOf(event.ContentID)
	if idx < 0 {
		return nil, shared.WrapError("path", "Update", shared.ErrNotFound,
			fmt.Sprintf("content %s is not part of path %s", event.ContentID, p.ID),
			shared.ErrContentNotFound)
	}

	now := u.now().UTC()
	clone := p.Clone()
	item := clone.ContentSequence[idx]

	passed := event.Score.Float64() >= StruggleThreshold
	item.Complete(content.PerformanceSnapshot{
		Score:          event.Score,
		CompletionTime: event.CompletionTime,
		AttemptCount:   event.AttemptCount,
		Timestamp:      event.Timestamp,
	}, passed)

	result := &UpdateResult{
		Path:      clone,
		ItemIndex: idx,
		Struggled: !passed,
	}

	switch {
	case event.Score.Float64() < StruggleThreshold:
		if u.opts.AllowSupportInsertion {
			result.SupportInsertedID = u.insertSupportItem(clone, idx)
		}

	case event.Score.Float64() > ExcelScoreThreshold &&
		event.Engagement.ConfidenceLevel.Float64() > ExcelConfidenceThreshold:
		if u.opts.AllowSkipForward {
			result.SkipSuggested = u.suggestSkipForward(clone, idx)
		}
	}

	u.activateReviews(clone, idx+1, now, result)
	u.stampMilestones(clone, item, event, now, result)
	clone.UpdatedAt = now

	if err := clone.VerifyPrerequisites(); err != nil {
		return nil, err
	}

	return result, nil
}

// insertSupportItem synthesizes a remedial item immediately after the
// struggled item and patches the prerequisites of every later item that
// required the struggled one. Idempotent: a second struggle on the same
// item does not insert a duplicate.
func (u *Updater) insertSupportItem(p *LearningPath, idx int) string {
	source := p.ContentSequence[idx]
	supportID := source.ID + SupportItemSuffix

	if p.IndexOf(supportID) >= 0 {
		return ""
	}

	support := &content.Item{
		ID:                supportID,
		Title:             "Support: " + source.Title,
		Body:              source.Body,
		Type:              content.TypeSupport,
		Level:             source.Level,
		EstimatedDuration: defaultDurations[content.TypeSupport],
		Adaptations:       source.Adaptations.Clone(),
		Prerequisites:     []string{source.ID},
		Rules: content.AdaptivityRules{
			OnSuccess:        source.Rules.OnSuccess,
			OnStruggle:       content.SignalAdaptiveHelp,
			OnFailure:        source.ID,
			HelpAttemptLimit: content.DefaultHelpAttemptLimit,
		},
		State: content.StatePending,
	}

	seq := make([]*content.Item, 0, len(p.ContentSequence)+1)
	seq = append(seq, p.ContentSequence[:idx+1]...)
	seq = append(seq, support)
	seq = append(seq, p.ContentSequence[idx+1:]...)
	p.ContentSequence = seq

	// Transitive patch: anything later that required the struggled item now
	// also requires its support item, preserving prerequisite ordering.
	for _, later := range p.ContentSequence[idx+2:] {
		if later.RequiresPrerequisite(source.ID) {
			later.Prerequisites = append(later.Prerequisites, supportID)
		}
	}

	return supportID
}

// suggestSkipForward scans forward for the next assessment-type item and
// attaches an advisory. The sequence itself is never changed: the delivery
// layer may or may not act on the suggestion.
func (u *Updater) suggestSkipForward(p *LearningPath, idx int) *SkipSuggestion {
	for j := idx + 1; j < len(p.ContentSequence); j++ {
		if p.ContentSequence[j].Type == content.TypeAssessment {
			p.SkipForward = &SkipSuggestion{
				FromIndex: idx,
				ToIndex:   j,
				Reason:    ReasonHighPerformance,
				Suggested: true,
			}
			return p.SkipForward
		}
	}
	return nil
}

// activateReviews marks every not-yet-activated review point whose AfterItem
// equals the 1-based position of the completed item.
func (u *Updater) activateReviews(p *LearningPath, position int, now time.Time, result *UpdateResult) {
	for i := range p.ReviewPoints {
		rp := &p.ReviewPoints[i]
		if rp.AfterItem == position && !rp.Activated {
			rp.Activated = true
			scheduled := now
			rp.ScheduledDate = &scheduled
			result.ReviewsActivated = append(result.ReviewsActivated, *rp)
		}
	}
}

// stampMilestones achieves milestones anchored to the completed item.
// Stamping is idempotent: an already-achieved milestone keeps its original
// AchievedDate. A milestone anchored to an assessment additionally requires
// the mastery score threshold.
func (u *Updater) stampMilestones(p *LearningPath, item *content.Item, event PerformanceEvent, now time.Time, result *UpdateResult) {
	for i := range p.Milestones {
		m := &p.Milestones[i]
		if m.ContentID != event.ContentID || m.Achieved {
			continue
		}
		if item.Type == content.TypeAssessment && event.Score.Float64() < MasteryScoreThreshold {
			continue
		}

		m.Achieved = true
		achieved := now
		m.AchievedDate = &achieved
		result.MilestonesAchieved = append(result.MilestonesAchieved, *m)
	}
}
