package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/careatlas/medtravel/backend/internal/domain/entities"
	apperrors "github.com/careatlas/medtravel/backend/pkg/errors"
)

// Store is an in-memory implementation of the request, price rule and
// offer repositories, used for tests and offline development. It honors
// the same offer idempotency key as the PostgreSQL adapters, so pipeline
// behavior is identical regardless of which store is injected.
type Store struct {
	mu       sync.RWMutex
	requests map[string]entities.TreatmentRequest
	rules    map[string]entities.PriceRule
	offers   map[string]entities.Offer // keyed by the offer identity tuple

	// FailRuleLookup / FailOfferUpsert force the corresponding operation
	// to fail, used to exercise the pipeline's partial-failure paths.
	FailRuleLookup  bool
	FailOfferUpsert bool
}

// NewStore creates an empty in-memory store
func NewStore() *Store {
	return &Store{
		requests: make(map[string]entities.TreatmentRequest),
		rules:    make(map[string]entities.PriceRule),
		offers:   make(map[string]entities.Offer),
	}
}

// Create inserts a new treatment request
func (s *Store) Create(ctx context.Context, request *entities.TreatmentRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.requests[request.ID]; exists {
		return apperrors.NewConflictError(fmt.Sprintf("treatment request %s already exists", request.ID))
	}
	s.requests[request.ID] = *request
	return nil
}

// GetByID retrieves a treatment request by ID
func (s *Store) GetByID(ctx context.Context, id string) (*entities.TreatmentRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	request, ok := s.requests[id]
	if !ok {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("treatment request with id %s not found", id))
	}
	return &request, nil
}

// AddRule seeds a price rule into the store
func (s *Store) AddRule(rule *entities.PriceRule) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rules[rule.ID] = *rule
}

// ListActiveForMatch returns active rules matching procedure and countries
func (s *Store) ListActiveForMatch(ctx context.Context, procedureName string, countries []string) ([]*entities.PriceRule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.FailRuleLookup {
		return nil, apperrors.NewInternalError("rule lookup failed", fmt.Errorf("forced failure"))
	}

	countrySet := make(map[string]struct{}, len(countries))
	for _, country := range countries {
		countrySet[country] = struct{}{}
	}

	var rules []*entities.PriceRule
	for _, rule := range s.rules {
		if !rule.IsActive || rule.ProcedureName != procedureName {
			continue
		}
		if _, ok := countrySet[rule.Country]; !ok {
			continue
		}
		r := rule
		rules = append(rules, &r)
	}

	sort.Slice(rules, func(i, j int) bool { return rules[i].ID < rules[j].ID })
	return rules, nil
}

// UpsertBatch writes offers keyed on (request, clinic, country, city, source)
func (s *Store) UpsertBatch(ctx context.Context, offers []*entities.Offer) error {
	if len(offers) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.FailOfferUpsert {
		return apperrors.NewInternalError("offer upsert failed", fmt.Errorf("forced failure"))
	}

	for _, offer := range offers {
		key := offerKey(offer)
		if existing, ok := s.offers[key]; ok {
			existing.Currency = offer.Currency
			existing.Price = offer.Price
			existing.PriceMin = offer.PriceMin
			existing.PriceMax = offer.PriceMax
			existing.Status = offer.Status
			existing.UpdatedAt = offer.UpdatedAt
			s.offers[key] = existing
			continue
		}
		s.offers[key] = *offer
	}
	return nil
}

// ListByRequest returns all offers for a request
func (s *Store) ListByRequest(ctx context.Context, requestID string) ([]*entities.Offer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var offers []*entities.Offer
	for _, offer := range s.offers {
		if offer.RequestID != requestID {
			continue
		}
		o := offer
		offers = append(offers, &o)
	}

	sort.Slice(offers, func(i, j int) bool {
		return offerKey(offers[i]) < offerKey(offers[j])
	})
	return offers, nil
}

func offerKey(offer *entities.Offer) string {
	return fmt.Sprintf("%s|%s|%s|%s|%s",
		offer.RequestID, offer.ClinicID, offer.Country, offer.CityName(), offer.Source)
}
