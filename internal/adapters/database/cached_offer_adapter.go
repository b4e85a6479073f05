package database

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/careatlas/medtravel/backend/internal/domain/entities"
	"github.com/careatlas/medtravel/backend/internal/domain/providers"
	"github.com/careatlas/medtravel/backend/internal/domain/repositories"
	"github.com/careatlas/medtravel/backend/internal/infrastructure/observability"
)

// offerListTTL bounds staleness for polled offer listings; writes through
// this adapter drop the entry immediately, the TTL only covers writes made
// by other service instances that failed to publish an invalidation event.
const offerListTTL = 120

// CachedOfferAdapter wraps an OfferRepository with read caching for the
// offer polling endpoint. The cache key is deterministic per request so
// both local writes and cross-instance invalidation events can drop it.
type CachedOfferAdapter struct {
	adapter repositories.OfferRepository
	cache   providers.CacheProvider
	metrics *observability.Metrics
}

// NewCachedOfferAdapter creates a new cached offer adapter
func NewCachedOfferAdapter(adapter repositories.OfferRepository, cache providers.CacheProvider) *CachedOfferAdapter {
	return &CachedOfferAdapter{
		adapter: adapter,
		cache:   cache,
	}
}

// SetMetrics enables cache hit/miss counters
func (a *CachedOfferAdapter) SetMetrics(metrics *observability.Metrics) {
	a.metrics = metrics
}

// OfferListCacheKey returns the cache key for a request's offer listing.
func OfferListCacheKey(requestID string) string {
	return fmt.Sprintf("offers:request:%s", requestID)
}

// UpsertBatch delegates to the underlying adapter and invalidates the
// cached listings of every affected request.
func (a *CachedOfferAdapter) UpsertBatch(ctx context.Context, offers []*entities.Offer) error {
	if err := a.adapter.UpsertBatch(ctx, offers); err != nil {
		return err
	}

	invalidated := make(map[string]struct{})
	for _, offer := range offers {
		if _, done := invalidated[offer.RequestID]; done {
			continue
		}
		invalidated[offer.RequestID] = struct{}{}
		if err := a.cache.Delete(ctx, OfferListCacheKey(offer.RequestID)); err != nil {
			log.Warn().Err(err).Str("request_id", offer.RequestID).Msg("failed to invalidate offer listing cache")
		}
	}
	return nil
}

// ListByRequest returns the offers for a request, serving from cache when
// possible.
func (a *CachedOfferAdapter) ListByRequest(ctx context.Context, requestID string) ([]*entities.Offer, error) {
	cacheKey := OfferListCacheKey(requestID)

	if cached, err := a.cache.Get(ctx, cacheKey); err == nil && len(cached) > 0 {
		var offers []*entities.Offer
		if err := json.Unmarshal(cached, &offers); err == nil {
			observability.RecordCacheHit(ctx, a.metrics, cacheKey)
			return offers, nil
		}
		log.Warn().Str("request_id", requestID).Msg("failed to unmarshal cached offer listing")
	}
	observability.RecordCacheMiss(ctx, a.metrics, cacheKey)

	offers, err := a.adapter.ListByRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}

	// Update cache asynchronously to avoid blocking the response
	go func() {
		bgCtx := context.Background()
		if data, err := json.Marshal(offers); err == nil {
			if err := a.cache.Set(bgCtx, cacheKey, data, offerListTTL); err != nil {
				log.Warn().Err(err).Str("request_id", requestID).Msg("failed to cache offer listing")
			}
		}
	}()

	return offers, nil
}
