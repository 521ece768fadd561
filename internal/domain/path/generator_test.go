package path

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Shatzii/Go4it-V2-sub020/internal/domain/content"
	"github.com/Shatzii/Go4it-V2-sub020/internal/domain/learner"
	"github.com/Shatzii/Go4it-V2-sub020/internal/domain/shared"
)

// fakeCatalog returns canned templates or a canned error.
type fakeCatalog struct {
	templates []content.Template
	err       error

	lastDomain string
	lastLevel  learner.Level
}

func (f *fakeCatalog) FetchTemplates(_ context.Context, domain string, level learner.Level) ([]content.Template, error) {
	f.lastDomain = domain
	f.lastLevel = level
	if f.err != nil {
		return nil, f.err
	}
	return f.templates, nil
}

// fakeAdaptations returns a fixed bundle regardless of neurotype.
type fakeAdaptations struct {
	bundle content.AdaptationSet
}

func (f *fakeAdaptations) RecommendedAdaptations(learner.Neurotype) content.AdaptationSet {
	return f.bundle
}

func testProfile() *learner.Profile {
	return &learner.Profile{
		ID:            "user-1",
		Neurotype:     learner.NeurotypeADHD,
		CurrentLevel:  learner.LevelBeginner,
		LearningSpeed: learner.SpeedStandard,
	}
}

func testGenerator(catalog content.Catalog) *Generator {
	n := 0
	newID := func() string {
		n++
		return fmt.Sprintf("path-%d", n)
	}
	adaptations := &fakeAdaptations{bundle: content.AdaptationSet{
		Pacing: shared.Tags{"frequent_breaks"},
	}}
	g := NewGenerator(catalog, adaptations, DefaultGeneratorConfig(), newID)
	return g.WithClock(func() time.Time {
		return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	})
}

func templates(n int) []content.Template {
	out := make([]content.Template, n)
	for i := range out {
		out[i] = content.Template{
			Title:        fmt.Sprintf("Template %d", i+1),
			Body:         "body",
			BaseDuration: 20,
		}
	}
	return out
}

func TestGenerator_Generate(t *testing.T) {
	catalog := &fakeCatalog{templates: templates(4)}
	g := testGenerator(catalog)

	p, err := g.Generate(context.Background(), testProfile(), "math", "school-1")
	require.NoError(t, err)

	assert.Equal(t, "path-1", p.ID)
	assert.Equal(t, "user-1", p.UserID)
	assert.Equal(t, "math", p.ContentDomain)
	assert.Equal(t, "school-1", p.SchoolID)
	assert.Equal(t, learner.LevelBeginner, p.StartingLevel)
	assert.Equal(t, 1, p.Version)
	assert.Len(t, p.ContentSequence, 15)

	// Assessments at every 5th position, the type pool cycled elsewhere.
	assert.Equal(t, content.TypeAssessment, p.ContentSequence[4].Type)
	assert.Equal(t, content.TypeAssessment, p.ContentSequence[9].Type)
	assert.Equal(t, content.TypeAssessment, p.ContentSequence[14].Type)
	assert.Equal(t, content.TypeLesson, p.ContentSequence[0].Type)
	assert.Equal(t, content.TypeExercise, p.ContentSequence[1].Type)
	assert.Equal(t, content.TypeProject, p.ContentSequence[2].Type)
	assert.Equal(t, content.TypeGame, p.ContentSequence[3].Type)
	assert.Equal(t, content.TypeLesson, p.ContentSequence[5].Type)

	// Deterministic IDs and chained prerequisites.
	assert.Equal(t, "math_beginner_1", p.ContentSequence[0].ID)
	assert.Equal(t, "math_beginner_15", p.ContentSequence[14].ID)
	assert.Empty(t, p.ContentSequence[0].Prerequisites)
	for i := 1; i < 15; i++ {
		require.Equal(t, []string{p.ContentSequence[i-1].ID}, p.ContentSequence[i].Prerequisites)
	}

	// The neurotype bundle is attached to every item.
	for _, it := range p.ContentSequence {
		assert.Equal(t, shared.Tags{"frequent_breaks"}, it.Adaptations.Pacing)
		assert.Equal(t, content.StatePending, it.State)
	}

	assert.NoError(t, p.VerifyPrerequisites())
	assert.Len(t, p.ReviewPoints, 3)
	assert.Len(t, p.Milestones, 4)
}

func TestGenerator_BranchingRules(t *testing.T) {
	catalog := &fakeCatalog{templates: templates(3)}
	g := testGenerator(catalog)

	p, err := g.Generate(context.Background(), testProfile(), "math", "")
	require.NoError(t, err)

	seq := p.ContentSequence

	first := seq[0].Rules
	assert.Equal(t, seq[1].ID, first.OnSuccess)
	assert.Equal(t, seq[0].ID, first.OnFailure) // floored at the first item
	assert.Equal(t, content.SignalAdaptiveHelp, first.OnStruggle)
	assert.Equal(t, content.DefaultHelpAttemptLimit, first.HelpAttemptLimit)

	mid := seq[7].Rules
	assert.Equal(t, seq[8].ID, mid.OnSuccess)
	assert.Equal(t, seq[6].ID, mid.OnFailure)

	last := seq[14].Rules
	assert.Equal(t, content.SignalPathComplete, last.OnSuccess)
	assert.Equal(t, seq[13].ID, last.OnFailure)
}

func TestGenerator_StartingLevelFromHistory(t *testing.T) {
	catalog := &fakeCatalog{templates: templates(2)}
	g := testGenerator(catalog)

	profile := testProfile()
	profile.CurrentLevel = learner.LevelIntermediate
	for i := 0; i < 5; i++ {
		profile.PerformanceHistory = append(profile.PerformanceHistory, learner.PerformanceRecord{Score: 0.95})
	}

	p, err := g.Generate(context.Background(), profile, "science", "")
	require.NoError(t, err)

	// The catalog is queried with the already-adjusted level.
	assert.Equal(t, learner.LevelAdvanced, p.StartingLevel)
	assert.Equal(t, learner.LevelAdvanced, catalog.lastLevel)
	assert.Equal(t, "science_advanced_1", p.ContentSequence[0].ID)
}

func TestGenerator_ExpectedCompletionDate(t *testing.T) {
	catalog := &fakeCatalog{templates: templates(1)}
	g := testGenerator(catalog)

	p, err := g.Generate(context.Background(), testProfile(), "math", "")
	require.NoError(t, err)

	// 15 items of 20 minutes at standard speed against the 300-minute
	// default weekly budget: one week.
	assert.Equal(t, time.Date(2026, 3, 8, 12, 0, 0, 0, time.UTC), p.ExpectedCompletionDate)
}

func TestGenerator_InvalidInput(t *testing.T) {
	catalog := &fakeCatalog{templates: templates(1)}
	g := testGenerator(catalog)
	ctx := context.Background()

	_, err := g.Generate(ctx, nil, "math", "")
	assert.ErrorIs(t, err, shared.ErrInvalidProfile)

	_, err = g.Generate(ctx, testProfile(), "", "")
	assert.ErrorIs(t, err, shared.ErrInvalidDomain)

	bad := testProfile()
	bad.CurrentLevel = "galactic"
	_, err = g.Generate(ctx, bad, "math", "")
	assert.Error(t, err)
}

func TestGenerator_CatalogFailures(t *testing.T) {
	ctx := context.Background()

	down := &fakeCatalog{err: shared.ErrCatalogUnavailable}
	_, err := testGenerator(down).Generate(ctx, testProfile(), "math", "")
	require.Error(t, err)
	assert.True(t, errors.Is(err, shared.ErrCatalogUnavailable))

	empty := &fakeCatalog{}
	_, err = testGenerator(empty).Generate(ctx, testProfile(), "math", "")
	assert.ErrorIs(t, err, shared.ErrCatalogEmpty)
}

func TestGenerator_TemplateDurationFallback(t *testing.T) {
	// Templates without a duration fall back to the per-type defaults.
	catalog := &fakeCatalog{templates: []content.Template{{Title: "T", Body: "b"}}}
	g := testGenerator(catalog)

	p, err := g.Generate(context.Background(), testProfile(), "math", "")
	require.NoError(t, err)

	assert.Equal(t, shared.Minutes(15), p.ContentSequence[0].EstimatedDuration) // lesson
	assert.Equal(t, shared.Minutes(20), p.ContentSequence[1].EstimatedDuration) // exercise
	assert.Equal(t, shared.Minutes(30), p.ContentSequence[4].EstimatedDuration) // assessment
}
