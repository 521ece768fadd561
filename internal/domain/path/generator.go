package path

import (
	"context"
	"fmt"
	"time"

	"github.com/Shatzii/Go4it-V2-sub020/internal/domain/content"
	"github.com/Shatzii/Go4it-V2-sub020/internal/domain/learner"
	"github.com/Shatzii/Go4it-V2-sub020/internal/domain/shared"
	"github.com/Shatzii/Go4it-V2-sub020/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// PATH GENERATOR
// Composes the difficulty adjuster, review scheduler and milestone tracker
// to build a new LearningPath from a learner profile and the read-only
// content catalog.
// ══════════════════════════════════════════════════════════════════════════════

// AdaptationSource supplies the neurotype tag bundle attached to every
// generated item. Implemented by the adaptation engine.
type AdaptationSource interface {
	// RecommendedAdaptations returns the bundle for a neurotype.
	// Unrecognized neurotypes yield the bundle for "other".
	RecommendedAdaptations(neurotype learner.Neurotype) content.AdaptationSet
}

// GeneratorConfig holds the shape parameters of generated paths.
type GeneratorConfig struct {
	// PathLength is the number of items in a generated sequence.
	PathLength int

	// AssessmentInterval places an assessment at every Nth position.
	AssessmentInterval int

	// WeeklyStudyMinutes is the fallback study budget used for the expected
	// completion date when the profile does not state one.
	WeeklyStudyMinutes int
}

// DefaultGeneratorConfig returns the reference path shape: 15 items with an
// assessment at every 5th position and a 5-hour weekly study budget.
func DefaultGeneratorConfig() GeneratorConfig {
	return GeneratorConfig{
		PathLength:         15,
		AssessmentInterval: 5,
		WeeklyStudyMinutes: 300,
	}
}

// typeCycle is the pool cycled over non-assessment positions, in order.
var typeCycle = []content.Type{
	content.TypeLesson,
	content.TypeExercise,
	content.TypeProject,
	content.TypeGame,
}

// defaultDurations are base time estimates used when the catalog template
// does not state one.
var defaultDurations = map[content.Type]shared.Minutes{
	content.TypeLesson:     15,
	content.TypeExercise:   20,
	content.TypeAssessment: 30,
	content.TypeProject:    45,
	content.TypeGame:       10,
	content.TypeSupport:    10,
}

// Generator builds new learning paths.
type Generator struct {
	adjuster    Adjuster
	reviews     Scheduler
	milestones  Tracker
	catalog     content.Catalog
	adaptations AdaptationSource
	cfg         GeneratorConfig

	// newID mints path IDs; now supplies the clock. Injected so generation
	// stays deterministic under test.
	newID func() string
	now   func() time.Time
}

// NewGenerator creates a path Generator.
func NewGenerator(catalog content.Catalog, adaptations AdaptationSource, cfg GeneratorConfig, newID func() string) *Generator {
	if cfg.PathLength <= 0 {
		cfg.PathLength = DefaultGeneratorConfig().PathLength
	}
	if cfg.AssessmentInterval <= 0 {
		cfg.AssessmentInterval = DefaultGeneratorConfig().AssessmentInterval
	}
	if cfg.WeeklyStudyMinutes <= 0 {
		cfg.WeeklyStudyMinutes = DefaultGeneratorConfig().WeeklyStudyMinutes
	}

	return &Generator{
		adjuster:    NewAdjuster(),
		reviews:     NewScheduler(),
		milestones:  NewTracker(),
		catalog:     catalog,
		adaptations: adaptations,
		cfg:         cfg,
		newID:       newID,
		now:         time.Now,
	}
}

// WithClock overrides the generator clock. Test hook.
func (g *Generator) WithClock(now func() time.Time) *Generator {
	g.now = now
	return g
}

// Generate builds a LearningPath for the profile in the given content domain.
// Returns shared.ErrInvalidProfile when the profile or domain is missing and
// shared.ErrCatalogUnavailable (not retried here) when the catalog cannot be
// reached.
func (g *Generator) Generate(ctx context.Context, profile *learner.Profile, domain, schoolID string) (*LearningPath, error) {
	if profile == nil {
		return nil, shared.ErrInvalidProfile
	}
	if err := profile.Validate(); err != nil {
		return nil, shared.WrapError("path", "Generate", shared.ErrInvalidInput, "profile failed validation", err)
	}
	if domain == "" {
		return nil, shared.ErrInvalidDomain
	}

	startingLevel := g.adjuster.StepFromHistory(profile)

	templates, err := g.catalog.FetchTemplates(ctx, domain, startingLevel)
	if err != nil {
		return nil, shared.WrapError("path", "Generate", shared.ErrServiceUnavailable, "content catalog fetch failed", err)
	}
	if len(templates) == 0 {
		return nil, shared.ErrCatalogEmpty
	}

	bundle := g.adaptations.RecommendedAdaptations(profile.Neurotype)
	seq := g.buildSequence(profile, domain, startingLevel, templates, bundle)

	now := g.now().UTC()
	path := &LearningPath{
		ID:              g.newID(),
		UserID:          profile.ID,
		ContentDomain:   domain,
		SchoolID:        schoolID,
		StartingLevel:   startingLevel,
		ContentSequence: seq,
		ReviewPoints:    g.reviews.CalculateReviewPoints(profile, domain, len(seq)),
		Milestones:      g.milestones.GenerateMilestones(domain, startingLevel, seq),
		CreatedAt:       now,
		UpdatedAt:       now,
		Version:         1,
	}
	path.ExpectedCompletionDate = g.expectedCompletion(now, profile, seq)

	return path, nil
}

// buildSequence lays out the content sequence: an assessment at every Nth
// position, the type pool cycled elsewhere, deterministic IDs, chained
// prerequisites and per-item branching rules.
func (g *Generator) buildSequence(profile *learner.Profile, domain string, level learner.Level, templates []content.Template, bundle content.AdaptationSet) []*content.Item {
	seq := make([]*content.Item, 0, g.cfg.PathLength)

	cycle := 0
	for pos := 1; pos <= g.cfg.PathLength; pos++ {
		itemType := content.TypeAssessment
		if pos%g.cfg.AssessmentInterval != 0 {
			itemType = typeCycle[cycle%len(typeCycle)]
			cycle++
		}

		tpl := templates[(pos-1)%len(templates)]
		duration := tpl.BaseDuration
		if duration <= 0 {
			duration = defaultDurations[itemType]
		}

		item := &content.Item{
			ID:                fmt.Sprintf("%s_%s_%d", domain, level, pos),
			Title:             tpl.Title,
			Body:              tpl.Body,
			Type:              itemType,
			Level:             level,
			EstimatedDuration: duration,
			Adaptations:       bundle.Clone(),
			State:             content.StatePending,
		}
		if pos > 1 {
			item.Prerequisites = []string{seq[pos-2].ID}
		}
		seq = append(seq, item)
	}

	// Branching rules need the full sequence for forward references.
	for i, item := range seq {
		rules := content.AdaptivityRules{
			OnStruggle:       content.SignalAdaptiveHelp,
			HelpAttemptLimit: content.DefaultHelpAttemptLimit,
		}
		if i == len(seq)-1 {
			rules.OnSuccess = content.SignalPathComplete
		} else {
			rules.OnSuccess = seq[i+1].ID
		}
		if i == 0 {
			rules.OnFailure = item.ID
		} else {
			rules.OnFailure = seq[i-1].ID
		}
		item.Rules = rules
	}

	return seq
}

// expectedCompletion estimates the completion date from summed durations
// adjusted by learning speed against the learner's weekly study budget.
func (g *Generator) expectedCompletion(start time.Time, profile *learner.Profile, seq []*content.Item) time.Time {
	total := 0
	for _, it := range seq {
		total += it.EstimatedDuration.Int()
	}
	adjusted := int(float64(total) * profile.LearningSpeed.Factor())

	weekly := profile.Preferences.AvailableTimePerWeek
	if weekly <= 0 {
		weekly = g.cfg.WeeklyStudyMinutes
	}

	return timeutil.CompletionDate(start, adjusted, weekly)
}
