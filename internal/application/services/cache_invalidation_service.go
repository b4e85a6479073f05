package services

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/careatlas/medtravel/backend/internal/adapters/database"
	"github.com/careatlas/medtravel/backend/internal/domain/entities"
	"github.com/careatlas/medtravel/backend/internal/domain/providers"
)

// CacheInvalidationService drops cached offer listings when another
// service instance publishes an offer event, so polling clients never see
// a stale cached listing after matching ran elsewhere.
type CacheInvalidationService struct {
	cache    providers.CacheProvider
	eventBus providers.EventBus
	ctx      context.Context
	cancel   context.CancelFunc
}

// NewCacheInvalidationService creates a new cache invalidation service
func NewCacheInvalidationService(cache providers.CacheProvider, eventBus providers.EventBus) *CacheInvalidationService {
	ctx, cancel := context.WithCancel(context.Background())
	return &CacheInvalidationService{
		cache:    cache,
		eventBus: eventBus,
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Start begins listening for offer events and invalidating cache
func (s *CacheInvalidationService) Start() error {
	eventChan, err := s.eventBus.Subscribe(s.ctx, providers.EventChannelOfferUpdates)
	if err != nil {
		return fmt.Errorf("failed to subscribe to offer updates: %w", err)
	}

	go s.processEvents(eventChan)
	return nil
}

// Stop stops the cache invalidation service
func (s *CacheInvalidationService) Stop() {
	s.cancel()
}

func (s *CacheInvalidationService) processEvents(eventChan <-chan *entities.OfferEvent) {
	for {
		select {
		case <-s.ctx.Done():
			return
		case event := <-eventChan:
			if event == nil {
				continue
			}
			s.handleEvent(event)
		}
	}
}

func (s *CacheInvalidationService) handleEvent(event *entities.OfferEvent) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	key := database.OfferListCacheKey(event.RequestID)
	if err := s.cache.Delete(ctx, key); err != nil {
		log.Warn().Err(err).Str("request_id", event.RequestID).Msg("failed to invalidate offer listing cache")
		return
	}
	log.Debug().Str("request_id", event.RequestID).Str("event_id", event.ID).Msg("invalidated offer listing cache")
}
