package services

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/careatlas/medtravel/backend/internal/domain/entities"
	"github.com/careatlas/medtravel/backend/pkg/utils"
)

// MatchRules evaluates candidate price rules against a treatment request
// and expands every matching rule into offer drafts. It is a pure
// function: no state, no side effects, safe to re-run. Duplicate
// suppression across runs is the upsert's job, not the matcher's.
//
// A rule matches when:
//   - its region constraint, if set, equals the request's region
//     (normalized comparison; a request without a region cannot satisfy a
//     region-constrained rule),
//   - its session constraint, if set, equals the request's session count,
//   - its country is one the request selected (guaranteed by rule lookup).
//
// A matching rule expands to one country-wide draft when the rule has no
// city restriction or the request placed no city filter for that country;
// otherwise one draft per requested city that appears in the rule's city
// list.
func MatchRules(request *entities.TreatmentRequest, rules []*entities.PriceRule) []*entities.Offer {
	var drafts []*entities.Offer

	for _, rule := range rules {
		if rule.Region != "" {
			if request.Region == "" || !utils.MatchTermsEqual(rule.Region, request.Region) {
				continue
			}
		}

		if rule.Sessions > 0 {
			if request.Sessions == 0 || request.Sessions != rule.Sessions {
				continue
			}
		}

		requestedCities := request.RequestedCities(rule.Country)

		if len(rule.Cities) == 0 || len(requestedCities) == 0 {
			drafts = append(drafts, newDraft(request, rule, nil))
			continue
		}

		for _, city := range requestedCities {
			if utils.ContainsMatchTerm(rule.Cities, city) {
				name := strings.TrimSpace(city)
				drafts = append(drafts, newDraft(request, rule, &name))
			}
		}
	}

	return drafts
}

func newDraft(request *entities.TreatmentRequest, rule *entities.PriceRule, city *string) *entities.Offer {
	now := time.Now().UTC()
	return &entities.Offer{
		ID:        uuid.New().String(),
		RequestID: request.ID,
		ClinicID:  rule.ClinicID,
		Source:    entities.OfferSourceAuto,
		Country:   rule.Country,
		City:      city,
		Currency:  rule.Currency,
		Price:     rule.AnchorPrice(),
		PriceMin:  rule.PriceMin,
		PriceMax:  rule.PriceMax,
		Status:    entities.OfferStatusSent,
		CreatedAt: now,
		UpdatedAt: now,
	}
}
