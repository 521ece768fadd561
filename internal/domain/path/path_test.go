package path

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Shatzii/Go4it-V2-sub020/internal/domain/content"
	"github.com/Shatzii/Go4it-V2-sub020/internal/domain/shared"
)

func TestLearningPath_Key(t *testing.T) {
	p := &LearningPath{UserID: "u1", ContentDomain: "math"}
	assert.Equal(t, shared.NewPathKey("u1", "math"), p.Key())

	user, domain := p.Key().Parts()
	assert.Equal(t, "u1", user)
	assert.Equal(t, "math", domain)
}

func TestLearningPath_NextPending(t *testing.T) {
	p := &LearningPath{ContentSequence: []*content.Item{
		{ID: "a", State: content.StateCompletedPass},
		{ID: "b", State: content.StateCompletedStruggled},
		{ID: "c", State: content.StatePending},
		{ID: "d", State: content.StatePending},
	}}

	next := p.NextPending()
	require.NotNil(t, next)
	assert.Equal(t, "c", next.ID)
	assert.Equal(t, 2, p.CompletedCount())

	p.ContentSequence[2].State = content.StateCompletedPass
	p.ContentSequence[3].State = content.StateCompletedPass
	assert.Nil(t, p.NextPending())
}

func TestLearningPath_VerifyPrerequisites(t *testing.T) {
	good := &LearningPath{ContentSequence: []*content.Item{
		{ID: "a"},
		{ID: "b", Prerequisites: []string{"a"}},
		{ID: "c", Prerequisites: []string{"a", "b"}},
	}}
	assert.NoError(t, good.VerifyPrerequisites())

	// A forward reference breaks the invariant.
	bad := &LearningPath{ContentSequence: []*content.Item{
		{ID: "a", Prerequisites: []string{"b"}},
		{ID: "b"},
	}}
	err := bad.VerifyPrerequisites()
	assert.ErrorIs(t, err, shared.ErrBrokenPrerequisite)
}

func TestLearningPath_CloneIsDeep(t *testing.T) {
	scheduled := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	p := &LearningPath{
		ID: "p1",
		ContentSequence: []*content.Item{
			{ID: "a", State: content.StatePending, Prerequisites: []string{}, Adaptations: content.AdaptationSet{Pacing: shared.Tags{"breaks"}}},
		},
		ReviewPoints: []ReviewPoint{
			{AfterItem: 5, Type: ReviewQuick, FocusAreas: shared.Tags{"fluency"}, Activated: true, ScheduledDate: &scheduled},
		},
		Milestones:  []Milestone{{ContentID: "a", Position: 1}},
		SkipForward: &SkipSuggestion{FromIndex: 0, ToIndex: 4},
	}

	clone := p.Clone()
	require.NotNil(t, clone)

	clone.ContentSequence[0].State = content.StateCompletedPass
	clone.ContentSequence[0].Adaptations.Pacing[0] = "mutated"
	clone.ReviewPoints[0].FocusAreas[0] = "mutated"
	*clone.ReviewPoints[0].ScheduledDate = scheduled.Add(time.Hour)
	clone.Milestones[0].Achieved = true
	clone.SkipForward.ToIndex = 9

	assert.Equal(t, content.StatePending, p.ContentSequence[0].State)
	assert.Equal(t, shared.Tag("breaks"), p.ContentSequence[0].Adaptations.Pacing[0])
	assert.Equal(t, shared.Tag("fluency"), p.ReviewPoints[0].FocusAreas[0])
	assert.Equal(t, scheduled, *p.ReviewPoints[0].ScheduledDate)
	assert.False(t, p.Milestones[0].Achieved)
	assert.Equal(t, 4, p.SkipForward.ToIndex)
}

func TestPerformanceEvent_Validate(t *testing.T) {
	valid := PerformanceEvent{ContentID: "a", Score: 0.8, AttemptCount: 2}
	assert.NoError(t, valid.Validate())

	assert.Error(t, PerformanceEvent{Score: 0.8}.Validate())
	assert.Error(t, PerformanceEvent{ContentID: "a", Score: -0.1}.Validate())
	assert.Error(t, PerformanceEvent{ContentID: "a", Score: 0.8, Engagement: Engagement{ConfidenceLevel: 1.2}}.Validate())
	assert.Error(t, PerformanceEvent{ContentID: "a", Score: 0.8, AttemptCount: -1}.Validate())
}
