package path

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Shatzii/Go4it-V2-sub020/internal/domain/content"
	"github.com/Shatzii/Go4it-V2-sub020/internal/domain/learner"
)

// makeSequence builds a plain sequence with an assessment at every 5th
// position, mirroring the generated path shape.
func makeSequence(n int) []*content.Item {
	seq := make([]*content.Item, n)
	for i := 0; i < n; i++ {
		itemType := content.TypeLesson
		if (i+1)%5 == 0 {
			itemType = content.TypeAssessment
		}
		seq[i] = &content.Item{
			ID:   fmt.Sprintf("math_beginner_%d", i+1),
			Type: itemType,
		}
	}
	return seq
}

func TestTracker_GenerateMilestones(t *testing.T) {
	tracker := NewTracker()
	seq := makeSequence(15)

	ms := tracker.GenerateMilestones("math", learner.LevelBeginner, seq)
	require.Len(t, ms, 4)

	assert.Equal(t, "math_beginner_1", ms[0].ContentID)
	assert.Equal(t, 1, ms[0].Position)
	assert.Equal(t, "Getting Started", ms[0].Title)
	assert.Equal(t, "math_starter_badge", ms[0].Reward)

	// Skills milestone lands at roughly one third of the path.
	assert.Equal(t, "math_beginner_5", ms[1].ContentID)
	assert.Equal(t, 5, ms[1].Position)
	assert.Equal(t, "math_skill_builder_badge", ms[1].Reward)

	// Mastery snaps from position 10 (already an assessment) and carries a
	// level-qualified certificate.
	assert.Equal(t, "math_beginner_10", ms[2].ContentID)
	assert.Equal(t, 10, ms[2].Position)
	assert.Equal(t, "math_beginner_mastery_certificate", ms[2].Reward)

	assert.Equal(t, "math_beginner_15", ms[3].ContentID)
	assert.Equal(t, 15, ms[3].Position)
	assert.Equal(t, "math_completion_trophy", ms[3].Reward)

	for _, m := range ms {
		assert.False(t, m.Achieved)
		assert.Nil(t, m.AchievedDate)
	}
}

func TestTracker_MasterySnapsToNextAssessment(t *testing.T) {
	tracker := NewTracker()

	// 12 items: the two-thirds point is position 8, the next assessment is
	// at position 10.
	seq := makeSequence(12)
	ms := tracker.GenerateMilestones("science", learner.LevelIntermediate, seq)
	require.Len(t, ms, 4)

	assert.Equal(t, "math_beginner_10", ms[2].ContentID)
	assert.Equal(t, 10, ms[2].Position)
}

func TestTracker_MasteryWithoutLaterAssessment(t *testing.T) {
	tracker := NewTracker()

	// No assessments at all: mastery stays at the raw two-thirds position.
	seq := make([]*content.Item, 9)
	for i := range seq {
		seq[i] = &content.Item{ID: fmt.Sprintf("item_%d", i+1), Type: content.TypeLesson}
	}

	ms := tracker.GenerateMilestones("language", learner.LevelAdvanced, seq)
	require.Len(t, ms, 4)
	assert.Equal(t, "item_6", ms[2].ContentID)
	assert.Equal(t, 6, ms[2].Position)
}

func TestTracker_EmptySequence(t *testing.T) {
	tracker := NewTracker()
	assert.Nil(t, tracker.GenerateMilestones("math", learner.LevelBeginner, nil))
}

func TestTracker_SingleItemSequence(t *testing.T) {
	tracker := NewTracker()
	seq := []*content.Item{{ID: "only", Type: content.TypeLesson}}

	ms := tracker.GenerateMilestones("math", learner.LevelBeginner, seq)
	require.Len(t, ms, 4)

	// Every anchor collapses onto the single item.
	for _, m := range ms {
		assert.Equal(t, "only", m.ContentID)
		assert.Equal(t, 1, m.Position)
	}
}
