package command

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Shatzii/Go4it-V2-sub020/config"
	"github.com/Shatzii/Go4it-V2-sub020/internal/domain/path"
	"github.com/Shatzii/Go4it-V2-sub020/internal/domain/shared"
)

// seedPath generates and stores a fresh path for u1/math.
func seedPath(t *testing.T, paths *fakePaths) *path.LearningPath {
	t.Helper()
	p, err := newTestGenerator(&stubCatalog{}).Generate(context.Background(), stubProfile("u1"), "math", "school-1")
	require.NoError(t, err)
	require.NoError(t, paths.Create(context.Background(), p))
	return p
}

func perfCommand(contentID string, score float64) RecordPerformanceCommand {
	return RecordPerformanceCommand{
		UserID:        "u1",
		ContentDomain: "math",
		ContentID:     contentID,
		Score:         score,
		AttemptCount:  1,
	}
}

func TestRecordPerformanceHandler_Handle(t *testing.T) {
	paths := newFakePaths()
	seedPath(t, paths)
	bus := &recordingBus{}
	h := NewRecordPerformanceHandler(paths, nil, bus, nil)

	res, err := h.Handle(context.Background(), perfCommand("math_beginner_1", 0.85))
	require.NoError(t, err)

	assert.False(t, res.Struggled)
	assert.Empty(t, res.SupportInsertedID)

	// The new value was persisted with a bumped version.
	stored, err := paths.GetByKey(context.Background(), shared.NewPathKey("u1", "math"))
	require.NoError(t, err)
	assert.Equal(t, 2, stored.Version)
	assert.Equal(t, 1, stored.CompletedCount())

	require.Len(t, bus.byType(shared.EventPathUpdated), 1)
	// First item is a milestone anchor.
	assert.Len(t, bus.byType(shared.EventMilestoneAchieved), 1)
}

func TestRecordPerformanceHandler_StrugglePublishesSupportEvent(t *testing.T) {
	paths := newFakePaths()
	seedPath(t, paths)
	bus := &recordingBus{}
	h := NewRecordPerformanceHandler(paths, nil, bus, nil)

	res, err := h.Handle(context.Background(), perfCommand("math_beginner_2", 0.4))
	require.NoError(t, err)

	assert.True(t, res.Struggled)
	assert.Equal(t, "math_beginner_2_support", res.SupportInsertedID)
	assert.Len(t, bus.byType(shared.EventSupportInserted), 1)

	stored, _ := paths.GetByKey(context.Background(), shared.NewPathKey("u1", "math"))
	assert.Len(t, stored.ContentSequence, 16)
}

func TestRecordPerformanceHandler_RetriesOnVersionConflict(t *testing.T) {
	paths := newFakePaths()
	seedPath(t, paths)
	paths.staleFailures = 2
	h := NewRecordPerformanceHandler(paths, nil, &recordingBus{}, nil)

	// Two simulated cross-instance conflicts, then success.
	_, err := h.Handle(context.Background(), perfCommand("math_beginner_1", 0.8))
	require.NoError(t, err)
	assert.Equal(t, 3, paths.updateCalls)
}

func TestRecordPerformanceHandler_PermanentErrors(t *testing.T) {
	paths := newFakePaths()
	seedPath(t, paths)
	h := NewRecordPerformanceHandler(paths, nil, &recordingBus{}, nil)

	// Unknown path: no retries, immediate rejection.
	_, err := h.Handle(context.Background(), RecordPerformanceCommand{
		UserID: "ghost", ContentDomain: "math", ContentID: "x", Score: 0.5,
	})
	assert.ErrorIs(t, err, shared.ErrPathNotFound)

	// Unknown content inside a known path.
	_, err = h.Handle(context.Background(), perfCommand("not_in_path", 0.5))
	assert.ErrorIs(t, err, shared.ErrContentNotFound)

	// The stored path is untouched after rejections.
	stored, _ := paths.GetByKey(context.Background(), shared.NewPathKey("u1", "math"))
	assert.Equal(t, 1, stored.Version)
	assert.Equal(t, 0, stored.CompletedCount())
}

func TestRecordPerformanceHandler_InvalidCommand(t *testing.T) {
	h := NewRecordPerformanceHandler(newFakePaths(), nil, &recordingBus{}, nil)
	ctx := context.Background()

	cases := []RecordPerformanceCommand{
		{ContentDomain: "math", ContentID: "c", Score: 0.5},
		{UserID: "u1", ContentID: "c", Score: 0.5},
		{UserID: "u1", ContentDomain: "math", Score: 0.5},
		{UserID: "u1", ContentDomain: "math", ContentID: "c", Score: 1.5},
		{UserID: "u1", ContentDomain: "math", ContentID: "c", Score: 0.5, ConfidenceLevel: -0.1},
	}
	for _, cmd := range cases {
		_, err := h.Handle(ctx, cmd)
		assert.ErrorIs(t, err, shared.ErrInvalidInput)
	}
}

func TestRecordPerformanceHandler_FeatureFlagsGateBranches(t *testing.T) {
	paths := newFakePaths()
	seedPath(t, paths)

	flags := config.LoadFeatureFlags()
	flags.SetUserOverride("u1", config.FeaturePathSupportInsertion, false)

	h := NewRecordPerformanceHandler(paths, flags, &recordingBus{}, nil)

	res, err := h.Handle(context.Background(), perfCommand("math_beginner_2", 0.4))
	require.NoError(t, err)

	// Struggle recorded but no support item synthesized.
	assert.True(t, res.Struggled)
	assert.Empty(t, res.SupportInsertedID)
	assert.Len(t, res.Path.ContentSequence, 15)
}

func TestRecordPerformanceHandler_SerializesSamePath(t *testing.T) {
	paths := newFakePaths()
	seedPath(t, paths)
	h := NewRecordPerformanceHandler(paths, nil, &recordingBus{}, nil)

	// Concurrent events against the same path must all apply exactly once.
	ids := []string{"math_beginner_1", "math_beginner_2", "math_beginner_3", "math_beginner_4", "math_beginner_5"}
	var wg sync.WaitGroup
	for _, id := range ids {
		wg.Add(1)
		go func(contentID string) {
			defer wg.Done()
			_, err := h.Handle(context.Background(), perfCommand(contentID, 0.8))
			assert.NoError(t, err)
		}(id)
	}
	wg.Wait()

	stored, err := paths.GetByKey(context.Background(), shared.NewPathKey("u1", "math"))
	require.NoError(t, err)
	assert.Equal(t, 5, stored.CompletedCount())
	assert.Equal(t, 6, stored.Version)
}

func TestRecordPerformanceHandler_DistinctPathsDoNotInterfere(t *testing.T) {
	paths := newFakePaths()
	seedPath(t, paths)

	other, err := newTestGenerator(&stubCatalog{}).Generate(context.Background(), stubProfile("u2"), "science", "school-1")
	require.NoError(t, err)
	require.NoError(t, paths.Create(context.Background(), other))

	h := NewRecordPerformanceHandler(paths, nil, &recordingBus{}, nil)

	// Events against different paths run concurrently; each path sees only
	// its own updates.
	var wg sync.WaitGroup
	for i := 1; i <= 3; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			_, err := h.Handle(context.Background(), perfCommand(fmt.Sprintf("math_beginner_%d", n), 0.8))
			assert.NoError(t, err)
		}(i)
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			_, err := h.Handle(context.Background(), RecordPerformanceCommand{
				UserID:        "u2",
				ContentDomain: "science",
				ContentID:     fmt.Sprintf("science_beginner_%d", n),
				Score:         0.8,
				AttemptCount:  1,
			})
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	math, err := paths.GetByKey(context.Background(), shared.NewPathKey("u1", "math"))
	require.NoError(t, err)
	assert.Equal(t, 3, math.CompletedCount())
	assert.Equal(t, 4, math.Version)

	science, err := paths.GetByKey(context.Background(), shared.NewPathKey("u2", "science"))
	require.NoError(t, err)
	assert.Equal(t, 3, science.CompletedCount())
	assert.Equal(t, 4, science.Version)
}
