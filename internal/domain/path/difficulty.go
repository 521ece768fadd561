package path

import (
	"github.com/Shatzii/Go4it-V2-sub020/internal/domain/learner"
)

// ══════════════════════════════════════════════════════════════════════════════
// DIFFICULTY ADJUSTER
// Pure level-transition rule. A single call moves the level by at most one
// position; the multi-step bounds exist for callers that request larger
// jumps explicitly and are never exceeded.
// ══════════════════════════════════════════════════════════════════════════════

// Score thresholds for level transitions.
const (
	// AdvanceThreshold - average recent score above this advances the level.
	AdvanceThreshold = 0.9

	// RegressThreshold - average recent score below this regresses the level.
	RegressThreshold = 0.4
)

// RecentScoreWindow is the number of trailing history entries averaged when
// deciding a level transition.
const RecentScoreWindow = 5

// Adjuster applies bounded difficulty transitions over the ordered level enum.
type Adjuster struct {
	// MaxAdvance bounds how many levels any single adjustment may advance.
	MaxAdvance int

	// MaxRegress bounds how many levels any single adjustment may regress.
	MaxRegress int
}

// NewAdjuster returns an Adjuster with the reference single-step bounds.
func NewAdjuster() Adjuster {
	return Adjuster{MaxAdvance: 1, MaxRegress: 1}
}

// Step applies the transition rule to the current level given the average
// recent score. Exactly one step in either direction per call, clamped to
// the [beginner, expert] range. The score average must come from
// RecentScoreWindow trailing history entries; callers with an empty history
// pass ok=false to RecentAverageScore and skip the call entirely.
func (a Adjuster) Step(current learner.Level, avgRecentScore float64) learner.Level {
	switch {
	case avgRecentScore > AdvanceThreshold:
		return a.Advance(current, 1)
	case avgRecentScore < RegressThreshold:
		return a.Regress(current, 1)
	default:
		return current
	}
}

// StepFromHistory picks the starting level for a profile: the transition rule
// applied to the average of the last RecentScoreWindow scores. With an empty
// history the current level is returned unchanged.
func (a Adjuster) StepFromHistory(profile *learner.Profile) learner.Level {
	avg, ok := profile.RecentAverageScore(RecentScoreWindow)
	if !ok {
		return profile.CurrentLevel
	}
	return a.Step(profile.CurrentLevel, avg)
}

// Advance moves the level up by n positions, clamped to MaxAdvance and to
// the top of the level range.
func (a Adjuster) Advance(current learner.Level, n int) learner.Level {
	if n > a.MaxAdvance {
		n = a.MaxAdvance
	}
	for ; n > 0; n-- {
		current = current.Next()
	}
	return current
}

// Regress moves the level down by n positions, clamped to MaxRegress and to
// the bottom of the level range.
func (a Adjuster) Regress(current learner.Level, n int) learner.Level {
	if n > a.MaxRegress {
		n = a.MaxRegress
	}
	for ; n > 0; n-- {
		current = current.Prev()
	}
	return current
}
