package services

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/careatlas/medtravel/backend/internal/domain/entities"
	"github.com/careatlas/medtravel/backend/internal/domain/providers"
	"github.com/careatlas/medtravel/backend/internal/domain/repositories"
	"github.com/careatlas/medtravel/backend/internal/infrastructure/observability"
	apperrors "github.com/careatlas/medtravel/backend/pkg/errors"
)

// CreateRequestInput is the canonical shape of a request submission. The
// HTTP layer normalizes historical field aliases into this struct before
// the pipeline sees it.
type CreateRequestInput struct {
	ProcedureName     string
	ProcedureCategory string
	Region            string
	Sessions          int
	SelectedCountries []string
	CitiesByCountry   map[string][]string
	Gender            string
	Notes             string
}

// Validate checks the payload for structural validity.
func (in *CreateRequestInput) Validate() error {
	if strings.TrimSpace(in.ProcedureName) == "" {
		return apperrors.NewValidationError("procedure_name is required")
	}
	if len(in.SelectedCountries) == 0 {
		return apperrors.NewValidationError("selected_countries must contain at least one country")
	}
	for _, country := range in.SelectedCountries {
		if strings.TrimSpace(country) == "" {
			return apperrors.NewValidationError("selected_countries must not contain empty entries")
		}
	}
	if in.Sessions < 0 {
		return apperrors.NewValidationError("sessions must be a positive integer")
	}
	return nil
}

// MatchResult is the pipeline outcome: the durably persisted request plus
// the persisted offers for it. OffersError is populated when the
// matching/offer suffix of the pipeline failed; the request itself is
// still durable in that case.
type MatchResult struct {
	Request     *entities.TreatmentRequest `json:"request"`
	Offers      []*entities.Offer          `json:"offers"`
	OffersError string                     `json:"offers_error,omitempty"`
}

// RequestService runs the request-to-offer matching pipeline: validate,
// persist the request, look up candidate rules, match, upsert offers,
// re-query persisted offers.
type RequestService struct {
	requests repositories.RequestRepository
	rules    repositories.PriceRuleRepository
	offers   repositories.OfferRepository
	eventBus providers.EventBus
	metrics  *observability.Metrics
}

// NewRequestService creates a new request service
func NewRequestService(
	requests repositories.RequestRepository,
	rules repositories.PriceRuleRepository,
	offers repositories.OfferRepository,
) *RequestService {
	return &RequestService{
		requests: requests,
		rules:    rules,
		offers:   offers,
	}
}

// SetEventBus attaches an event bus for offer update notifications
func (s *RequestService) SetEventBus(eventBus providers.EventBus) {
	s.eventBus = eventBus
}

// SetMetrics attaches application metrics
func (s *RequestService) SetMetrics(metrics *observability.Metrics) {
	s.metrics = metrics
}

// SubmitRequest persists a new treatment request and generates offers for
// it. The returned error is non-nil only for validation failures or when
// the request itself could not be persisted; failures after that point
// degrade to an empty offer list with OffersError set, because a persisted
// request is a stronger guarantee than generated offers.
func (s *RequestService) SubmitRequest(ctx context.Context, ownerID string, input CreateRequestInput) (*MatchResult, error) {
	start := time.Now()
	logger := observability.LoggerFromContext(ctx)

	if err := input.Validate(); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	request := &entities.TreatmentRequest{
		ID:                uuid.New().String(),
		OwnerID:           ownerID,
		ProcedureName:     strings.TrimSpace(input.ProcedureName),
		ProcedureCategory: strings.TrimSpace(input.ProcedureCategory),
		Region:            strings.TrimSpace(input.Region),
		Sessions:          input.Sessions,
		SelectedCountries: input.SelectedCountries,
		CitiesByCountry:   input.CitiesByCountry,
		Gender:            strings.TrimSpace(input.Gender),
		Notes:             strings.TrimSpace(input.Notes),
		Status:            entities.RequestStatusOpen,
		CreatedAt:         now,
		UpdatedAt:         now,
	}

	if err := s.requests.Create(ctx, request); err != nil {
		return nil, err
	}

	result := &MatchResult{
		Request: request,
		Offers:  []*entities.Offer{},
	}

	rules, err := s.rules.ListActiveForMatch(ctx, request.ProcedureName, request.SelectedCountries)
	if err != nil {
		logger.Warn().Err(err).Str("request_id", request.ID).Msg("rule lookup failed, request persisted without offers")
		result.OffersError = "rule lookup failed: " + err.Error()
		return result, nil
	}

	drafts := MatchRules(request, rules)
	if len(drafts) > 0 {
		if err := s.offers.UpsertBatch(ctx, drafts); err != nil {
			logger.Warn().Err(err).Str("request_id", request.ID).Msg("offer upsert failed, request persisted without offers")
			result.OffersError = "offer generation failed: " + err.Error()
			return result, nil
		}
	}

	// Re-query rather than returning drafts so the response reflects
	// exactly what was durably persisted.
	offers, err := s.offers.ListByRequest(ctx, request.ID)
	if err != nil {
		logger.Warn().Err(err).Str("request_id", request.ID).Msg("offer listing failed after upsert")
		result.OffersError = "offer listing failed: " + err.Error()
		return result, nil
	}
	result.Offers = offers

	s.publishOffersGenerated(ctx, request.ID, len(offers))
	observability.RecordMatchingMetric(ctx, s.metrics, request.ProcedureName, len(drafts), time.Since(start))

	logger.Info().
		Str("request_id", request.ID).
		Str("procedure", request.ProcedureName).
		Int("rules_evaluated", len(rules)).
		Int("offers", len(offers)).
		Msg("treatment request matched")

	return result, nil
}

// GetRequest returns the caller's request. A request owned by someone else
// is reported as not found.
func (s *RequestService) GetRequest(ctx context.Context, id, callerID string) (*entities.TreatmentRequest, error) {
	request, err := s.requests.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if request.OwnerID != callerID {
		return nil, apperrors.NewNotFoundError("treatment request not found")
	}
	return request, nil
}

// ListOffers returns the persisted offers for the caller's request. This
// is the polling surface clients hit after submitting a request.
func (s *RequestService) ListOffers(ctx context.Context, requestID, callerID string) ([]*entities.Offer, error) {
	if _, err := s.GetRequest(ctx, requestID, callerID); err != nil {
		return nil, err
	}

	offers, err := s.offers.ListByRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if offers == nil {
		offers = []*entities.Offer{}
	}
	return offers, nil
}

func (s *RequestService) publishOffersGenerated(ctx context.Context, requestID string, offerCount int) {
	if s.eventBus == nil {
		return
	}

	event := entities.NewOfferEvent(requestID, entities.OfferEventTypeGenerated, offerCount)
	if err := s.eventBus.Publish(ctx, providers.EventChannelOfferUpdates, event); err != nil {
		observability.LoggerFromContext(ctx).Warn().Err(err).Str("request_id", requestID).Msg("failed to publish offer event")
	}
}
