package redis

import (
	"context"
	"errors"
	"time"

	"github.com/Shatzii/Go4it-V2-sub020/internal/adaptation"
	"github.com/Shatzii/Go4it-V2-sub020/internal/application/query"
)

// ══════════════════════════════════════════════════════════════════════════════
// ADAPTATION CACHE
// ══════════════════════════════════════════════════════════════════════════════

// AdaptationCache caches adapted content keyed by (content, neurotype,
// preferences). It implements query.AdaptationCache. Keys are built by the
// query layer; this type only handles storage and TTL.
type AdaptationCache struct {
	cache *Cache
	ttl   time.Duration
}

// NewAdaptationCache creates an AdaptationCache backed by the given Cache.
// A non-positive ttl falls back to TTLAdaptedContent.
func NewAdaptationCache(cache *Cache, ttl time.Duration) *AdaptationCache {
	if ttl <= 0 {
		ttl = TTLAdaptedContent
	}

	return &AdaptationCache{
		cache: cache,
		ttl:   ttl,
	}
}

// Get returns the cached adaptation result for key, or query.ErrCacheMiss.
func (a *AdaptationCache) Get(ctx context.Context, key string) (*adaptation.AdaptedContent, error) {
	var adapted adaptation.AdaptedContent

	if err := a.cache.Get(ctx, key, &adapted); err != nil {
		if errors.Is(err, ErrCacheMiss) {
			return nil, query.ErrCacheMiss
		}
		return nil, err
	}

	return &adapted, nil
}

// Set stores an adaptation result under key.
func (a *AdaptationCache) Set(ctx context.Context, key string, adapted *adaptation.AdaptedContent) error {
	return a.cache.Set(ctx, key, adapted, a.ttl)
}

// InvalidateContent removes all cached adaptations of a content item,
// regardless of neurotype or preferences. Called when catalog templates
// change.
func (a *AdaptationCache) InvalidateContent(ctx context.Context, contentID string) error {
	return a.cache.DeleteByPattern(ctx, PrefixAdaptation+contentID+":*")
}
