package path

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Shatzii/Go4it-V2-sub020/internal/domain/learner"
	"github.com/Shatzii/Go4it-V2-sub020/internal/domain/shared"
)

func TestScheduler_Frequency(t *testing.T) {
	s := NewScheduler()

	dyslexia := &learner.Profile{Neurotype: learner.NeurotypeDyslexia, LearningSpeed: learner.SpeedStandard}
	accelerated := &learner.Profile{Neurotype: learner.NeurotypeADHD, LearningSpeed: learner.SpeedAccelerated}
	standard := &learner.Profile{Neurotype: learner.NeurotypeOther, LearningSpeed: learner.SpeedStandard}

	assert.Equal(t, 3, s.Frequency(dyslexia))
	assert.Equal(t, 7, s.Frequency(accelerated))
	assert.Equal(t, 5, s.Frequency(standard))

	// Dyslexia takes precedence over accelerated speed.
	both := &learner.Profile{Neurotype: learner.NeurotypeDyslexia, LearningSpeed: learner.SpeedAccelerated}
	assert.Equal(t, 3, s.Frequency(both))
}

func TestScheduler_CalculateReviewPoints(t *testing.T) {
	s := NewScheduler()
	profile := &learner.Profile{Neurotype: learner.NeurotypeOther, LearningSpeed: learner.SpeedStandard}

	points := s.CalculateReviewPoints(profile, "math", 15)

	// Frequency 5 over 15 items: points after 5, 10 and 15.
	assert.Len(t, points, 3)
	assert.Equal(t, 5, points[0].AfterItem)
	assert.Equal(t, 10, points[1].AfterItem)
	assert.Equal(t, 15, points[2].AfterItem)

	// Every second point is comprehensive.
	assert.Equal(t, ReviewQuick, points[0].Type)
	assert.Equal(t, ReviewComprehensive, points[1].Type)
	assert.Equal(t, ReviewQuick, points[2].Type)

	for _, p := range points {
		assert.False(t, p.Activated)
		assert.Nil(t, p.ScheduledDate)
	}
}

func TestScheduler_CalculateReviewPoints_Dyslexia(t *testing.T) {
	s := NewScheduler()
	profile := &learner.Profile{Neurotype: learner.NeurotypeDyslexia, LearningSpeed: learner.SpeedStandard}

	points := s.CalculateReviewPoints(profile, "language", 15)

	assert.Len(t, points, 5)
	assert.Equal(t, []int{3, 6, 9, 12, 15}, []int{
		points[0].AfterItem, points[1].AfterItem, points[2].AfterItem,
		points[3].AfterItem, points[4].AfterItem,
	})
	assert.Equal(t, ReviewComprehensive, points[1].Type)
	assert.Equal(t, ReviewComprehensive, points[3].Type)
}

func TestScheduler_ReviewFocusAreas(t *testing.T) {
	s := NewScheduler()

	profile := &learner.Profile{
		Challenges: shared.Tags{"reading_speed", "attention", "unmapped_challenge"},
	}

	areas := s.ReviewFocusAreas(profile, "math")

	// Mapped challenges plus the domain area; unmapped tags are dropped.
	assert.Equal(t, shared.Tags{"fluency", "focus_techniques", "calculation_accuracy"}, areas)
}

func TestScheduler_ReviewFocusAreas_Fallback(t *testing.T) {
	s := NewScheduler()

	// No mapped challenges and an unknown domain fall back to key_concepts.
	profile := &learner.Profile{Challenges: shared.Tags{"something_else"}}
	areas := s.ReviewFocusAreas(profile, "history")

	assert.Equal(t, shared.Tags{"key_concepts"}, areas)
}

func TestScheduler_FocusAreasAreNotShared(t *testing.T) {
	s := NewScheduler()
	profile := &learner.Profile{
		Neurotype:     learner.NeurotypeOther,
		LearningSpeed: learner.SpeedStandard,
		Challenges:    shared.Tags{"memory"},
	}

	points := s.CalculateReviewPoints(profile, "science", 10)
	assert.Len(t, points, 2)

	// Mutating one point's focus slice must not leak into the other.
	points[0].FocusAreas[0] = "mutated"
	assert.Equal(t, shared.Tag("retention_strategies"), points[1].FocusAreas[0])
}
