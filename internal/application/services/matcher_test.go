package services_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/careatlas/medtravel/backend/internal/application/services"
	"github.com/careatlas/medtravel/backend/internal/domain/entities"
)

func newRequest() *entities.TreatmentRequest {
	return &entities.TreatmentRequest{
		ID:                "req-1",
		OwnerID:           "user-1",
		ProcedureName:     "Rhinoplasty",
		SelectedCountries: []string{"turkey"},
		Status:            entities.RequestStatusOpen,
	}
}

func newRule() *entities.PriceRule {
	return &entities.PriceRule{
		ID:            "rule-1",
		ClinicID:      "clinic-x",
		ProcedureName: "Rhinoplasty",
		Country:       "turkey",
		Currency:      "USD",
		Price:         2800,
		IsActive:      true,
	}
}

func TestMatchRules_UnrestrictedRuleProducesCountryWideOffer(t *testing.T) {
	request := newRequest()
	request.CitiesByCountry = map[string][]string{"turkey": {"Istanbul"}}

	rule := newRule()

	offers := services.MatchRules(request, []*entities.PriceRule{rule})

	require.Len(t, offers, 1)
	assert.Nil(t, offers[0].City)
	assert.Equal(t, "turkey", offers[0].Country)
}

func TestMatchRules_NoCityFilterProducesCountryWideOffer(t *testing.T) {
	// The request placed no city filter, so even a city-restricted rule
	// quotes country-wide.
	request := newRequest()

	rule := newRule()
	rule.Cities = []string{"Istanbul", "Ankara"}

	offers := services.MatchRules(request, []*entities.PriceRule{rule})

	require.Len(t, offers, 1)
	assert.Nil(t, offers[0].City)
}

func TestMatchRules_CityPrecision(t *testing.T) {
	// Rule covers {A, B}, request asks for {A, C}: exactly one draft for
	// A. Neither B (not requested) nor C (not covered) appears.
	request := newRequest()
	request.CitiesByCountry = map[string][]string{"turkey": {"Istanbul", "Izmir"}}

	rule := newRule()
	rule.Cities = []string{"Istanbul", "Ankara"}

	offers := services.MatchRules(request, []*entities.PriceRule{rule})

	require.Len(t, offers, 1)
	require.NotNil(t, offers[0].City)
	assert.Equal(t, "Istanbul", *offers[0].City)
}

func TestMatchRules_CityMatchingIsCaseInsensitiveAndTrimmed(t *testing.T) {
	request := newRequest()
	request.CitiesByCountry = map[string][]string{"turkey": {"  istanbul  "}}

	rule := newRule()
	rule.Cities = []string{"Istanbul"}

	offers := services.MatchRules(request, []*entities.PriceRule{rule})

	require.Len(t, offers, 1)
	require.NotNil(t, offers[0].City)
	assert.Equal(t, "istanbul", *offers[0].City)
}

func TestMatchRules_RegionGating(t *testing.T) {
	rule := newRule()
	rule.Region = "face"

	tests := []struct {
		name          string
		requestRegion string
		wantOffers    int
	}{
		{"request has no region", "", 0},
		{"request has different region", "body", 0},
		{"request has matching region", "face", 1},
		{"region comparison is normalized", "  FACE ", 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			request := newRequest()
			request.Region = tt.requestRegion

			offers := services.MatchRules(request, []*entities.PriceRule{rule})
			assert.Len(t, offers, tt.wantOffers)
		})
	}
}

func TestMatchRules_SessionGating(t *testing.T) {
	rule := newRule()
	rule.Sessions = 3

	tests := []struct {
		name       string
		sessions   int
		wantOffers int
	}{
		{"request has no sessions", 0, 0},
		{"request has different sessions", 2, 0},
		{"request has matching sessions", 3, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			request := newRequest()
			request.Sessions = tt.sessions

			offers := services.MatchRules(request, []*entities.PriceRule{rule})
			assert.Len(t, offers, tt.wantOffers)
		})
	}
}

func TestMatchRules_CountryCompleteness(t *testing.T) {
	// Every unrestricted rule matching a selected country yields exactly
	// one country-wide draft.
	request := newRequest()
	request.SelectedCountries = []string{"turkey", "hungary"}

	ruleTR := newRule()
	ruleHU := newRule()
	ruleHU.ID = "rule-2"
	ruleHU.ClinicID = "clinic-y"
	ruleHU.Country = "hungary"
	ruleHU.Currency = "EUR"
	ruleHU.Price = 2100

	offers := services.MatchRules(request, []*entities.PriceRule{ruleTR, ruleHU})

	require.Len(t, offers, 2)
	countries := []string{offers[0].Country, offers[1].Country}
	assert.ElementsMatch(t, []string{"turkey", "hungary"}, countries)
	for _, offer := range offers {
		assert.Nil(t, offer.City)
	}
}

func TestMatchRules_Determinism(t *testing.T) {
	// Re-running the matcher on the same inputs produces the same offer
	// identity set. Draft IDs differ per run; the upsert key does not.
	request := newRequest()
	request.CitiesByCountry = map[string][]string{"turkey": {"Istanbul", "Ankara"}}

	rule := newRule()
	rule.Cities = []string{"Istanbul", "Ankara", "Antalya"}

	identity := func(offers []*entities.Offer) []string {
		keys := make([]string, 0, len(offers))
		for _, o := range offers {
			keys = append(keys, o.RequestID+"|"+o.ClinicID+"|"+o.Country+"|"+o.CityName()+"|"+string(o.Source))
		}
		return keys
	}

	first := services.MatchRules(request, []*entities.PriceRule{rule})
	second := services.MatchRules(request, []*entities.PriceRule{rule})

	require.Len(t, first, 2)
	assert.Equal(t, identity(first), identity(second))
}

func TestMatchRules_AnchorPriceFallsBackToPriceMin(t *testing.T) {
	request := newRequest()

	rule := newRule()
	rule.Price = 0
	rule.PriceMin = 1800
	rule.PriceMax = 2600

	offers := services.MatchRules(request, []*entities.PriceRule{rule})

	require.Len(t, offers, 1)
	assert.Equal(t, 1800.0, offers[0].Price)
	assert.Equal(t, 1800.0, offers[0].PriceMin)
	assert.Equal(t, 2600.0, offers[0].PriceMax)
}

func TestMatchRules_OrphanedCityKeysAreIgnored(t *testing.T) {
	// Cities listed for a country the patient never selected have no
	// effect because rule lookup never fetches rules for that country.
	request := newRequest()
	request.CitiesByCountry = map[string][]string{"mexico": {"Cancun"}}

	rule := newRule()
	rule.Cities = []string{"Istanbul"}

	offers := services.MatchRules(request, []*entities.PriceRule{rule})

	// No turkey city filter was requested, so the rule quotes country-wide.
	require.Len(t, offers, 1)
	assert.Nil(t, offers[0].City)
}

func TestMatchRules_NoRulesNoOffers(t *testing.T) {
	offers := services.MatchRules(newRequest(), nil)
	assert.Empty(t, offers)
}

func TestMatchRules_ScenarioA(t *testing.T) {
	request := newRequest()
	request.CitiesByCountry = map[string][]string{"turkey": {"Istanbul"}}

	rule := newRule()
	rule.Cities = []string{"Istanbul", "Ankara"}

	offers := services.MatchRules(request, []*entities.PriceRule{rule})

	require.Len(t, offers, 1)
	assert.Equal(t, "clinic-x", offers[0].ClinicID)
	assert.Equal(t, "turkey", offers[0].Country)
	require.NotNil(t, offers[0].City)
	assert.Equal(t, "Istanbul", *offers[0].City)
	assert.Equal(t, 2800.0, offers[0].Price)
	assert.Equal(t, "USD", offers[0].Currency)
	assert.Equal(t, entities.OfferSourceAuto, offers[0].Source)
	assert.Equal(t, entities.OfferStatusSent, offers[0].Status)
}

func TestMatchRules_ScenarioB(t *testing.T) {
	request := newRequest()
	request.CitiesByCountry = map[string][]string{"turkey": {"Istanbul"}}

	offers := services.MatchRules(request, []*entities.PriceRule{newRule()})

	require.Len(t, offers, 1)
	assert.Nil(t, offers[0].City)
}

func TestMatchRules_ScenarioC(t *testing.T) {
	request := newRequest()
	request.CitiesByCountry = map[string][]string{"turkey": {"Istanbul"}}

	rule := newRule()
	rule.Cities = []string{"Istanbul", "Ankara"}
	rule.Sessions = 2

	offers := services.MatchRules(request, []*entities.PriceRule{rule})

	assert.Empty(t, offers)
}
