package path

import (
	"fmt"

	"github.com/Shatzii/Go4it-V2-sub020/internal/domain/content"
	"github.com/Shatzii/Go4it-V2-sub020/internal/domain/learner"
)

// ══════════════════════════════════════════════════════════════════════════════
// MILESTONE TRACKER
// Produces the four reward milestones of a path. Milestones are anchored to
// content IDs, not raw indices, so that later support-item insertions do not
// shift them. Positions are recorded for display only.
// ══════════════════════════════════════════════════════════════════════════════

// MasteryScoreThreshold is the minimum score on the anchored assessment for
// the mastery milestone to count as demonstrated.
const MasteryScoreThreshold = 0.8

// Tracker generates milestones for a learning path.
type Tracker struct{}

// NewTracker returns a milestone Tracker.
func NewTracker() Tracker {
	return Tracker{}
}

// GenerateMilestones produces four milestones scaled to the sequence length:
// first item, ~1/3, ~2/3 (snapped to the next assessment item when one
// exists), and the last item. Rewards are tags consumed by the external
// rewards sink.
func (Tracker) GenerateMilestones(domain string, level learner.Level, seq []*content.Item) []Milestone {
	n := len(seq)
	if n == 0 {
		return nil
	}

	anchor := func(pos int) (string, int) {
		if pos < 1 {
			pos = 1
		}
		if pos > n {
			pos = n
		}
		return seq[pos-1].ID, pos
	}

	// The mastery milestone prefers the first assessment at or after the
	// two-thirds point: it is tied to passing an assessment at 80%+.
	masteryPos := (2*n + 2) / 3
	for i := masteryPos - 1; i < n; i++ {
		if seq[i].Type == content.TypeAssessment {
			masteryPos = i + 1
			break
		}
	}

	firstID, firstPos := anchor(1)
	skillsID, skillsPos := anchor((n + 2) / 3)
	masteryID, masteryAt := anchor(masteryPos)
	lastID, lastPos := anchor(n)

	return []Milestone{
		{
			ContentID: firstID,
			Position:  firstPos,
			Title:     "Getting Started",
			Reward:    fmt.Sprintf("%s_starter_badge", domain),
		},
		{
			ContentID: skillsID,
			Position:  skillsPos,
			Title:     "Building Skills",
			Reward:    fmt.Sprintf("%s_skill_builder_badge", domain),
		},
		{
			ContentID: masteryID,
			Position:  masteryAt,
			Title:     "Demonstrating Mastery",
			Reward:    fmt.Sprintf("%s_%s_mastery_certificate", domain, level),
		},
		{
			ContentID: lastID,
			Position:  lastPos,
			Title:     "Path Completion",
			Reward:    fmt.Sprintf("%s_completion_trophy", domain),
		},
	}
}
