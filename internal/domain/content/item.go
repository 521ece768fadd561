// Package content contains domain entities and business logic for
// instructional content items and the read-only content catalog contract.
// This is a pure domain layer with zero external dependencies.
package content

import (
	"time"

	"github.com/Shatzii/Go4it-V2-sub020/internal/domain/learner"
	"github.com/Shatzii/Go4it-V2-sub020/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// ENUMS
// ══════════════════════════════════════════════════════════════════════════════

// Type defines the kind of instructional content.
type Type string

const (
	// TypeLesson - expository instruction.
	TypeLesson Type = "lesson"
	// TypeExercise - practice task.
	TypeExercise Type = "exercise"
	// TypeAssessment - graded check, gates milestones.
	TypeAssessment Type = "assessment"
	// TypeProject - multi-step applied work.
	TypeProject Type = "project"
	// TypeGame - gamified practice.
	TypeGame Type = "game"
	// TypeSupport - remedial item synthesized after a struggling result.
	TypeSupport Type = "support"
)

// IsValid checks that the content type is known.
func (t Type) IsValid() bool {
	switch t {
	case TypeLesson, TypeExercise, TypeAssessment, TypeProject, TypeGame, TypeSupport:
		return true
	default:
		return false
	}
}

// State is the observable completion state of an item within a path.
// Struggled items are never removed, only supplemented with support items.
type State string

const (
	// StatePending - not yet completed.
	StatePending State = "pending"
	// StateCompletedPass - completed with a passing score.
	StateCompletedPass State = "completed_pass"
	// StateCompletedStruggled - completed below the passing threshold.
	StateCompletedStruggled State = "completed_struggled"
)

// IsCompleted reports whether the item has been completed in either state.
func (s State) IsCompleted() bool {
	return s == StateCompletedPass || s == StateCompletedStruggled
}

// ══════════════════════════════════════════════════════════════════════════════
// ADAPTIVITY RULES
// ══════════════════════════════════════════════════════════════════════════════

// Terminal signals used in adaptivity rules in place of a target item ID.
const (
	// SignalPathComplete marks the end of the path (onSuccess of the last item).
	SignalPathComplete = "signal:path_complete"

	// SignalAdaptiveHelp routes a struggling learner into bounded adaptive help.
	SignalAdaptiveHelp = "signal:adaptive_help"
)

// DefaultHelpAttemptLimit bounds adaptive help before escalation.
const DefaultHelpAttemptLimit = 3

// AdaptivityRules define per-item branching consumed by the delivery layer.
// Each rule names a target item ID or one of the terminal signals above.
type AdaptivityRules struct {
	// OnSuccess is followed after a passing result. Next item ID, or
	// SignalPathComplete for the last item.
	OnSuccess string

	// OnStruggle is followed after repeated difficulty. Always
	// SignalAdaptiveHelp, bounded by HelpAttemptLimit attempts.
	OnStruggle string

	// OnFailure is followed after a failing result. Previous item ID,
	// floored at the first item.
	OnFailure string

	// HelpAttemptLimit is the maximum number of adaptive-help attempts.
	HelpAttemptLimit int
}

// ══════════════════════════════════════════════════════════════════════════════
// ADAPTATION SET
// ══════════════════════════════════════════════════════════════════════════════

// AdaptationSet is the {content, presentation, pacing, support} tag bundle
// recommended for a neurotype. It is attached to every generated item and is
// a pure function of the learner's neurotype.
type AdaptationSet struct {
	Content      shared.Tags
	Presentation shared.Tags
	Pacing       shared.Tags
	Support      shared.Tags
}

// Clone returns a deep copy of the adaptation set.
func (a AdaptationSet) Clone() AdaptationSet {
	return AdaptationSet{
		Content:      append(shared.Tags(nil), a.Content...),
		Presentation: append(shared.Tags(nil), a.Presentation...),
		Pacing:       append(shared.Tags(nil), a.Pacing...),
		Support:      append(shared.Tags(nil), a.Support...),
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// MAIN ENTITY: ITEM
// ══════════════════════════════════════════════════════════════════════════════

// PerformanceSnapshot records how an item was completed.
type PerformanceSnapshot struct {
	Score          shared.Score
	CompletionTime time.Duration
	AttemptCount   int
	Timestamp      time.Time
}

// Item is an atomic instructional unit placed into a learning path.
// Catalog-sourced items start in StatePending; only the path update
// pipeline moves them to a completed state.
type Item struct {
	// ID is deterministic within a path: {domain}_{level}_{index} for
	// generated items, {sourceID}_support for synthesized support items.
	ID string

	// Title is the display title.
	Title string

	// Body is the raw instructional text, adapted at render time.
	Body string

	// Type is the kind of content.
	Type Type

	// Level is the proficiency level the item targets.
	Level learner.Level

	// EstimatedDuration is the unadapted base duration.
	EstimatedDuration shared.Minutes

	// Adaptations is the neurotype tag bundle attached at generation time.
	Adaptations AdaptationSet

	// Prerequisites reference only items that appear earlier in the path.
	Prerequisites []string

	// Rules define the per-item branching decisions.
	Rules AdaptivityRules

	// State is the observable completion state.
	State State

	// Performance holds the completion snapshot once the item is done.
	Performance *PerformanceSnapshot
}

// RequiresPrerequisite reports whether the item lists the given ID as a prerequisite.
func (it *Item) RequiresPrerequisite(id string) bool {
	for _, p := range it.Prerequisites {
		if p == id {
			return true
		}
	}
	return false
}

// Complete moves the item into a completed state based on the passing
// threshold and records the performance snapshot.
func (it *Item) Complete(snapshot PerformanceSnapshot, passed bool) {
	if passed {
		it.State = StateCompletedPass
	} else {
		it.State = StateCompletedStruggled
	}
	it.Performance = &snapshot
}

// Clone returns a deep copy of the item.
func (it *Item) Clone() *Item {
	if it == nil {
		return nil
	}

	clone := *it
	clone.Adaptations = it.Adaptations.Clone()
	clone.Prerequisites = append([]string(nil), it.Prerequisites...)
	if it.Performance != nil {
		snap := *it.Performance
		clone.Performance = &snap
	}
	return &clone
}
