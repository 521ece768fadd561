package adaptation

import (
	"context"
	"log/slog"

	"github.com/Shatzii/Go4it-V2-sub020/internal/domain/content"
	"github.com/Shatzii/Go4it-V2-sub020/internal/domain/learner"
	"github.com/Shatzii/Go4it-V2-sub020/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// ADAPTATION ENGINE
// ══════════════════════════════════════════════════════════════════════════════

// Engine adapts content items to learner profiles. The worker pool is an
// injected, lifecycle-managed dependency; without one every request takes
// the synchronous path, which produces identical output.
type Engine struct {
	pool   *WorkerPool
	bus    shared.EventPublisher
	logger *slog.Logger
}

// EngineConfig contains configuration for the Engine.
type EngineConfig struct {
	// Pool is the optional offload pool. Nil means always-synchronous.
	Pool *WorkerPool

	// EventBus receives adaptation completion and fallback events (optional).
	EventBus shared.EventPublisher

	// Logger for structured logging.
	Logger *slog.Logger
}

// NewEngine creates an adaptation Engine.
func NewEngine(cfg EngineConfig) *Engine {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Engine{
		pool:   cfg.Pool,
		bus:    cfg.EventBus,
		logger: cfg.Logger,
	}
}

// RecommendedAdaptations implements path.AdaptationSource.
func (e *Engine) RecommendedAdaptations(neurotype learner.Neurotype) content.AdaptationSet {
	return RecommendedAdaptations(neurotype)
}

// AdaptContent adapts one content item for one learner. With a pool the
// transform is offloaded; a worker failure triggers exactly one synchronous
// retry in the caller's context before surfacing, so adaptation degrades to
// base content rather than blocking progress.
func (e *Engine) AdaptContent(ctx context.Context, item *content.Item, profile *learner.Profile) (*AdaptedContent, error) {
	if item == nil {
		return nil, shared.ErrNilContent
	}
	if profile == nil {
		return nil, shared.ErrInvalidProfile
	}

	if e.pool == nil {
		adapted := adaptSync(item, profile)
		e.publishCompleted(item, profile)
		return adapted, nil
	}

	correlationID, err := e.pool.Submit(item, profile)
	if err != nil {
		return e.fallback(item, profile, err)
	}

	adapted, err := e.pool.Await(ctx, correlationID)
	if err != nil {
		return e.fallback(item, profile, err)
	}
	e.publishCompleted(item, profile)
	return adapted, nil
}

// publishCompleted announces a finished adaptation to downstream consumers.
func (e *Engine) publishCompleted(item *content.Item, profile *learner.Profile) {
	if e.bus == nil {
		return
	}
	event := shared.NewAdaptationCompletedEvent(item.ID, profile.ID, string(profile.Neurotype.Canonical()))
	if err := e.bus.Publish(event); err != nil {
		e.logger.Error("failed to publish adaptation.completed", "content_id", item.ID, "error", err)
	}
}

// fallback recomputes the pure transform synchronously after an offload
// failure. Never silently dropped: the failure is logged and published.
func (e *Engine) fallback(item *content.Item, profile *learner.Profile, cause error) (*AdaptedContent, error) {
	e.logger.Warn("adaptation offload failed, retrying synchronously",
		"content_id", item.ID,
		"error", cause,
	)

	if e.bus != nil {
		event := shared.NewAdaptationFallbackEvent(item.ID, cause.Error())
		if err := e.bus.Publish(event); err != nil {
			e.logger.Error("failed to publish fallback event", "content_id", item.ID, "error", err)
		}
	}

	return adaptSync(item, profile), nil
}

// Close releases the worker pool, if any.
func (e *Engine) Close() {
	if e.pool != nil {
		e.pool.Close()
	}
}
