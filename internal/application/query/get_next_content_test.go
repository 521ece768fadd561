package query

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Shatzii/Go4it-V2-sub020/internal/domain/content"
	"github.com/Shatzii/Go4it-V2-sub020/internal/domain/learner"
	"github.com/Shatzii/Go4it-V2-sub020/internal/domain/path"
	"github.com/Shatzii/Go4it-V2-sub020/internal/domain/shared"
)

// ─── fakes ───────────────────────────────────────────────────────────────────

type fakePaths struct {
	mu    sync.Mutex
	store map[shared.PathKey]*path.LearningPath
}

func newFakePaths() *fakePaths {
	return &fakePaths{store: make(map[shared.PathKey]*path.LearningPath)}
}

func (f *fakePaths) Create(_ context.Context, p *path.LearningPath) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.store[p.Key()]; ok {
		return shared.ErrPathAlreadyExists
	}
	f.store[p.Key()] = p
	return nil
}

func (f *fakePaths) GetByKey(_ context.Context, key shared.PathKey) (*path.LearningPath, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.store[key]
	if !ok {
		return nil, shared.ErrPathNotFound
	}
	return p, nil
}

func (f *fakePaths) Update(_ context.Context, p *path.LearningPath, _ int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.store[p.Key()] = p
	return nil
}

type fakeProfiles struct {
	profiles map[string]*learner.Profile
}

func (f *fakeProfiles) GetByID(_ context.Context, id string) (*learner.Profile, error) {
	p, ok := f.profiles[id]
	if !ok {
		return nil, shared.ErrProfileNotFound
	}
	return p, nil
}

type stubCatalog struct{}

func (stubCatalog) FetchTemplates(context.Context, string, learner.Level) ([]content.Template, error) {
	return []content.Template{{Title: "T", Body: "Body text.", BaseDuration: 20}}, nil
}

type stubAdaptations struct{}

func (stubAdaptations) RecommendedAdaptations(learner.Neurotype) content.AdaptationSet {
	return content.AdaptationSet{}
}

func queryProfile() *learner.Profile {
	return &learner.Profile{
		ID:            "u1",
		Neurotype:     learner.NeurotypeDyslexia,
		CurrentLevel:  learner.LevelBeginner,
		LearningSpeed: learner.SpeedStandard,
	}
}

// seededPath builds a generated path for u1/math and stores it.
func seededPath(t *testing.T, paths *fakePaths) *path.LearningPath {
	t.Helper()
	n := 0
	g := path.NewGenerator(stubCatalog{}, stubAdaptations{}, path.DefaultGeneratorConfig(), func() string {
		n++
		return fmt.Sprintf("path-%d", n)
	})
	p, err := g.Generate(context.Background(), queryProfile(), "math", "school-1")
	require.NoError(t, err)
	require.NoError(t, paths.Create(context.Background(), p))
	return p
}

// ─── tests ───────────────────────────────────────────────────────────────────

func TestGetNextContentHandler_FirstItem(t *testing.T) {
	paths := newFakePaths()
	p := seededPath(t, paths)
	h := NewGetNextContentHandler(paths, nil)

	view, err := h.Handle(context.Background(), GetNextContentQuery{UserID: "u1", ContentDomain: "math"})
	require.NoError(t, err)

	assert.Equal(t, p.ID, view.PathID)
	require.NotNil(t, view.Item)
	assert.Equal(t, "math_beginner_1", view.Item.ID)
	assert.Equal(t, 1, view.Position)
	assert.False(t, view.PathCompleted)
	assert.Nil(t, view.SkipForward)
	assert.Nil(t, view.PendingReview)
}

func TestGetNextContentHandler_SkipsCompleted(t *testing.T) {
	paths := newFakePaths()
	p := seededPath(t, paths)

	// First two items done, one of them struggled.
	p.ContentSequence[0].State = content.StateCompletedPass
	p.ContentSequence[1].State = content.StateCompletedStruggled

	h := NewGetNextContentHandler(paths, nil)
	view, err := h.Handle(context.Background(), GetNextContentQuery{UserID: "u1", ContentDomain: "math"})
	require.NoError(t, err)

	assert.Equal(t, "math_beginner_3", view.Item.ID)
	assert.Equal(t, 3, view.Position)
}

func TestGetNextContentHandler_PendingReview(t *testing.T) {
	paths := newFakePaths()
	p := seededPath(t, paths)

	// Dyslexia profile: first review after item 3. Complete the first
	// three items and activate the point.
	for i := 0; i < 3; i++ {
		p.ContentSequence[i].State = content.StateCompletedPass
	}
	p.ReviewPoints[0].Activated = true

	h := NewGetNextContentHandler(paths, nil)
	view, err := h.Handle(context.Background(), GetNextContentQuery{UserID: "u1", ContentDomain: "math"})
	require.NoError(t, err)

	require.NotNil(t, view.PendingReview)
	assert.Equal(t, 3, view.PendingReview.AfterItem)
}

func TestGetNextContentHandler_SurfacesSkipSuggestion(t *testing.T) {
	paths := newFakePaths()
	p := seededPath(t, paths)
	p.SkipForward = &path.SkipSuggestion{FromIndex: 1, ToIndex: 4, Reason: path.ReasonHighPerformance, Suggested: true}

	h := NewGetNextContentHandler(paths, nil)
	view, err := h.Handle(context.Background(), GetNextContentQuery{UserID: "u1", ContentDomain: "math"})
	require.NoError(t, err)

	require.NotNil(t, view.SkipForward)
	assert.Equal(t, 4, view.SkipForward.ToIndex)
}

func TestGetNextContentHandler_CompletedPath(t *testing.T) {
	paths := newFakePaths()
	p := seededPath(t, paths)
	for _, it := range p.ContentSequence {
		it.State = content.StateCompletedPass
	}

	h := NewGetNextContentHandler(paths, nil)
	view, err := h.Handle(context.Background(), GetNextContentQuery{UserID: "u1", ContentDomain: "math"})
	require.NoError(t, err)

	assert.True(t, view.PathCompleted)
	assert.Nil(t, view.Item)
	assert.Equal(t, 0, view.Position)
}

func TestGetNextContentHandler_Errors(t *testing.T) {
	h := NewGetNextContentHandler(newFakePaths(), nil)
	ctx := context.Background()

	_, err := h.Handle(ctx, GetNextContentQuery{ContentDomain: "math"})
	assert.ErrorIs(t, err, shared.ErrInvalidInput)

	_, err = h.Handle(ctx, GetNextContentQuery{UserID: "u1"})
	assert.ErrorIs(t, err, shared.ErrInvalidInput)

	_, err = h.Handle(ctx, GetNextContentQuery{UserID: "u1", ContentDomain: "math"})
	assert.ErrorIs(t, err, shared.ErrPathNotFound)
}
