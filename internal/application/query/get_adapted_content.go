package query

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"log/slog"

	"github.com/Shatzii/Go4it-V2-sub020/internal/adaptation"
	"github.com/Shatzii/Go4it-V2-sub020/internal/domain/learner"
	"github.com/Shatzii/Go4it-V2-sub020/internal/domain/path"
	"github.com/Shatzii/Go4it-V2-sub020/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// GET ADAPTED CONTENT QUERY
// Отдаёт элемент контента, адаптированный под профиль ученика. Трансформа
// детерминирована, поэтому результат кешируется по (контент, нейротип,
// настройки). Сбой адаптации деградирует до базового контента и не
// блокирует прогресс ученика.
// ══════════════════════════════════════════════════════════════════════════════

// ErrCacheMiss возвращается кешем, когда ключ не найден.
var ErrCacheMiss = errors.New("adaptation cache: key not found")

// AdaptationCache - кеш результатов адаптации. Реализация в
// infrastructure/persistence/redis.
type AdaptationCache interface {
	// Get возвращает закешированный результат или ErrCacheMiss.
	Get(ctx context.Context, key string) (*adaptation.AdaptedContent, error)

	// Set сохраняет результат адаптации.
	Set(ctx context.Context, key string, adapted *adaptation.AdaptedContent) error
}

// GetAdaptedContentQuery содержит параметры запроса.
type GetAdaptedContentQuery struct {
	// UserID - идентификатор ученика.
	UserID string

	// ContentDomain - учебный домен пути.
	ContentDomain string

	// ContentID - идентификатор элемента в пути.
	ContentID string
}

// Validate проверяет корректность параметров.
func (q GetAdaptedContentQuery) Validate() error {
	if q.UserID == "" {
		return errors.New("get_adapted_content: user_id is required")
	}
	if q.ContentDomain == "" {
		return errors.New("get_adapted_content: content_domain is required")
	}
	if q.ContentID == "" {
		return errors.New("get_adapted_content: content_id is required")
	}
	return nil
}

// GetAdaptedContentHandler обрабатывает запрос.
type GetAdaptedContentHandler struct {
	paths    path.Repository
	profiles learner.Repository
	engine   *adaptation.Engine
	cache    AdaptationCache
	logger   *slog.Logger
}

// NewGetAdaptedContentHandler создаёт обработчик. Кеш необязателен.
func NewGetAdaptedContentHandler(
	paths path.Repository,
	profiles learner.Repository,
	engine *adaptation.Engine,
	cache AdaptationCache,
	logger *slog.Logger,
) *GetAdaptedContentHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &GetAdaptedContentHandler{
		paths:    paths,
		profiles: profiles,
		engine:   engine,
		cache:    cache,
		logger:   logger,
	}
}

// Handle выполняет запрос по схеме cache-aside.
func (h *GetAdaptedContentHandler) Handle(ctx context.Context, q GetAdaptedContentQuery) (*adaptation.AdaptedContent, error) {
	if err := q.Validate(); err != nil {
		return nil, shared.WrapError("adaptation", "GetAdapted", shared.ErrInvalidInput, "invalid query", err)
	}

	profile, err := h.profiles.GetByID(ctx, q.UserID)
	if err != nil {
		return nil, err
	}

	p, err := h.paths.GetByKey(ctx, shared.NewPathKey(q.UserID, q.ContentDomain))
	if err != nil {
		return nil, err
	}

	item := p.ItemByID(q.ContentID)
	if item == nil {
		return nil, shared.ErrContentNotFound
	}

	key := cacheKey(q.ContentID, profile)
	if h.cache != nil {
		if adapted, err := h.cache.Get(ctx, key); err == nil {
			return adapted, nil
		} else if !errors.Is(err, ErrCacheMiss) {
			h.logger.Warn("adaptation cache read failed", "key", key, "error", err)
		}
	}

	adapted, err := h.engine.AdaptContent(ctx, item, profile)
	if err != nil {
		return nil, err
	}

	if h.cache != nil {
		if err := h.cache.Set(ctx, key, adapted); err != nil {
			h.logger.Warn("adaptation cache write failed", "key", key, "error", err)
		}
	}

	return adapted, nil
}

// cacheKey строит ключ кеша: трансформа зависит от контента, нейротипа,
// темпа, опыта и явных настроек отображения - всё это входит в ключ.
func cacheKey(contentID string, profile *learner.Profile) string {
	h := fnv.New64a()
	fmt.Fprintf(h, "%s|%d|%s|%.2f|%t|%t",
		profile.Preferences.FontFamily,
		profile.Preferences.FontSize,
		profile.LearningSpeed,
		profile.Preferences.LineSpacing,
		profile.Preferences.HighContrast,
		profile.Preferences.ReducedAnimations,
	)
	fmt.Fprintf(h, "|%t", profile.IsExperienced())

	return fmt.Sprintf("adapt:%s:%s:%x", contentID, profile.Neurotype.Canonical(), h.Sum64())
}
