package path

import (
	"github.com/Shatzii/Go4it-V2-sub020/internal/domain/learner"
	"github.com/Shatzii/Go4it-V2-sub020/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// REVIEW SCHEDULER
// Computes review checkpoints and their focus tags from the learner profile.
// Checkpoints land on multiples of a profile-derived frequency; every second
// checkpoint is comprehensive.
// ══════════════════════════════════════════════════════════════════════════════

// Review frequencies by profile. Dyslexia takes precedence over learning speed.
const (
	reviewFreqDyslexia    = 3
	reviewFreqAccelerated = 7
	reviewFreqDefault     = 5
)

// challengeFocus maps learner challenge tags to review focus areas.
var challengeFocus = map[shared.Tag]shared.Tag{
	"reading_speed": "fluency",
	"comprehension": "understanding",
	"attention":     "focus_techniques",
	"memory":        "retention_strategies",
	"organization":  "structure_methods",
}

// domainFocus maps content domains to one domain-specific focus area.
var domainFocus = map[string]shared.Tag{
	"math":     "calculation_accuracy",
	"language": "grammar_application",
	"science":  "concept_relations",
}

// fallbackFocus is used when a profile yields no focus areas at all.
const fallbackFocus shared.Tag = "key_concepts"

// Scheduler computes review checkpoints for a learning path.
type Scheduler struct{}

// NewScheduler returns a review Scheduler.
func NewScheduler() Scheduler {
	return Scheduler{}
}

// Frequency selects the review interval for a profile: every 3 items for
// dyslexia, every 7 for accelerated learners, every 5 otherwise.
func (Scheduler) Frequency(profile *learner.Profile) int {
	if profile.Neurotype.Canonical() == learner.NeurotypeDyslexia {
		return reviewFreqDyslexia
	}
	if profile.LearningSpeed == learner.SpeedAccelerated {
		return reviewFreqAccelerated
	}
	return reviewFreqDefault
}

// CalculateReviewPoints generates one review point at every multiple of the
// profile frequency up to pathLength. Points at multiples of twice the
// frequency are comprehensive, the rest are quick.
func (s Scheduler) CalculateReviewPoints(profile *learner.Profile, domain string, pathLength int) []ReviewPoint {
	freq := s.Frequency(profile)
	focus := s.ReviewFocusAreas(profile, domain)

	var points []ReviewPoint
	for after := freq; after <= pathLength; after += freq {
		rt := ReviewQuick
		if after%(2*freq) == 0 {
			rt = ReviewComprehensive
		}
		points = append(points, ReviewPoint{
			AfterItem:  after,
			Type:       rt,
			FocusAreas: append(shared.Tags(nil), focus...),
		})
	}
	return points
}

// ReviewFocusAreas maps each challenge tag through the focus dictionary,
// appends the domain-specific area, and falls back to key_concepts when the
// result would be empty.
func (Scheduler) ReviewFocusAreas(profile *learner.Profile, domain string) shared.Tags {
	var areas shared.Tags
	for _, ch := range profile.Challenges {
		if focus, ok := challengeFocus[ch.Normalize()]; ok {
			areas = areas.Append(focus)
		}
	}

	if focus, ok := domainFocus[domain]; ok {
		areas = areas.Append(focus)
	}

	if len(areas) == 0 {
		areas = shared.Tags{fallbackFocus}
	}
	return areas
}
