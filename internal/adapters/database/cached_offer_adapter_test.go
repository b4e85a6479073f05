package database_test

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/careatlas/medtravel/backend/internal/adapters/database"
	"github.com/careatlas/medtravel/backend/internal/domain/entities"
)

type fakeCache struct {
	mu      sync.Mutex
	data    map[string][]byte
	deleted []string
}

func newFakeCache() *fakeCache {
	return &fakeCache{data: make(map[string][]byte)}
}

func (c *fakeCache) Get(ctx context.Context, key string) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	val, ok := c.data[key]
	if !ok {
		return nil, errors.New("cache miss")
	}
	return val, nil
}

func (c *fakeCache) Set(ctx context.Context, key string, value []byte, expirationSeconds int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = value
	return nil
}

func (c *fakeCache) Delete(ctx context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.data, key)
	c.deleted = append(c.deleted, key)
	return nil
}

func (c *fakeCache) Exists(ctx context.Context, key string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.data[key]
	return ok, nil
}

type fakeOfferRepo struct {
	offers    []*entities.Offer
	listCalls int
	upserted  []*entities.Offer
}

func (r *fakeOfferRepo) UpsertBatch(ctx context.Context, offers []*entities.Offer) error {
	r.upserted = append(r.upserted, offers...)
	return nil
}

func (r *fakeOfferRepo) ListByRequest(ctx context.Context, requestID string) ([]*entities.Offer, error) {
	r.listCalls++
	return r.offers, nil
}

func TestCachedOfferAdapter_ListServesFromCache(t *testing.T) {
	cache := newFakeCache()
	repo := &fakeOfferRepo{offers: []*entities.Offer{newOffer("offer-1", cityPtr("Istanbul"))}}
	adapter := database.NewCachedOfferAdapter(repo, cache)

	cached, err := json.Marshal(repo.offers)
	require.NoError(t, err)
	require.NoError(t, cache.Set(context.Background(), database.OfferListCacheKey("req-1"), cached, 120))

	offers, err := adapter.ListByRequest(context.Background(), "req-1")

	require.NoError(t, err)
	require.Len(t, offers, 1)
	assert.Equal(t, "offer-1", offers[0].ID)
	assert.Equal(t, 0, repo.listCalls)
}

func TestCachedOfferAdapter_ListFallsThroughOnMiss(t *testing.T) {
	cache := newFakeCache()
	repo := &fakeOfferRepo{offers: []*entities.Offer{newOffer("offer-1", nil)}}
	adapter := database.NewCachedOfferAdapter(repo, cache)

	offers, err := adapter.ListByRequest(context.Background(), "req-1")

	require.NoError(t, err)
	assert.Len(t, offers, 1)
	assert.Equal(t, 1, repo.listCalls)

	// The listing is cached in the background for the next poll.
	assert.Eventually(t, func() bool {
		ok, _ := cache.Exists(context.Background(), database.OfferListCacheKey("req-1"))
		return ok
	}, time.Second, 10*time.Millisecond)
}

func TestCachedOfferAdapter_UpsertInvalidatesAffectedRequests(t *testing.T) {
	cache := newFakeCache()
	repo := &fakeOfferRepo{}
	adapter := database.NewCachedOfferAdapter(repo, cache)

	require.NoError(t, cache.Set(context.Background(), database.OfferListCacheKey("req-1"), []byte("[]"), 120))

	err := adapter.UpsertBatch(context.Background(), []*entities.Offer{
		newOffer("offer-1", cityPtr("Istanbul")),
		newOffer("offer-2", nil),
	})

	require.NoError(t, err)
	assert.Len(t, repo.upserted, 2)

	// One delete per affected request, not per offer.
	cache.mu.Lock()
	deleted := append([]string(nil), cache.deleted...)
	cache.mu.Unlock()
	assert.Equal(t, []string{database.OfferListCacheKey("req-1")}, deleted)
}
