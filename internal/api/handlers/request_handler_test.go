package handlers_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/careatlas/medtravel/backend/internal/adapters/memory"
	"github.com/careatlas/medtravel/backend/internal/api/handlers"
	"github.com/careatlas/medtravel/backend/internal/api/middleware"
	"github.com/careatlas/medtravel/backend/internal/application/services"
	"github.com/careatlas/medtravel/backend/internal/domain/entities"
)

func setupHandler(store *memory.Store) *handlers.RequestHandler {
	service := services.NewRequestService(store, store, store)
	return handlers.NewRequestHandler(service)
}

func authedRequest(method, target string, body []byte, userID string) *http.Request {
	req := httptest.NewRequest(method, target, bytes.NewReader(body))
	if userID != "" {
		req = req.WithContext(middleware.ContextWithUserID(req.Context(), userID))
	}
	return req
}

func TestCreateRequest_ReturnsRequestAndOffers(t *testing.T) {
	store := memory.NewStore()
	store.AddRule(&entities.PriceRule{
		ID: "rule-1", ClinicID: "clinic-x",
		ProcedureName: "Rhinoplasty", Country: "turkey",
		Cities: []string{"Istanbul", "Ankara"},
		Currency: "USD", Price: 2800, IsActive: true,
	})
	handler := setupHandler(store)

	body := []byte(`{
		"procedure_name": "Rhinoplasty",
		"selected_countries": ["turkey"],
		"cities_by_country": {"turkey": ["Istanbul"]}
	}`)

	rec := httptest.NewRecorder()
	handler.CreateRequest(rec, authedRequest(http.MethodPost, "/api/requests", body, "user-1"))

	assert.Equal(t, http.StatusOK, rec.Code)

	var result services.MatchResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	require.NotNil(t, result.Request)
	assert.Equal(t, "Rhinoplasty", result.Request.ProcedureName)
	require.Len(t, result.Offers, 1)
	require.NotNil(t, result.Offers[0].City)
	assert.Equal(t, "Istanbul", *result.Offers[0].City)
	assert.Empty(t, result.OffersError)
}

func TestCreateRequest_CountryWideOfferRendersNullCity(t *testing.T) {
	store := memory.NewStore()
	store.AddRule(&entities.PriceRule{
		ID: "rule-1", ClinicID: "clinic-x",
		ProcedureName: "Rhinoplasty", Country: "turkey",
		Currency: "USD", Price: 2450, IsActive: true,
	})
	handler := setupHandler(store)

	body := []byte(`{"procedure_name": "Rhinoplasty", "selected_countries": ["turkey"]}`)

	rec := httptest.NewRecorder()
	handler.CreateRequest(rec, authedRequest(http.MethodPost, "/api/requests", body, "user-1"))

	assert.Equal(t, http.StatusOK, rec.Code)

	var raw map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &raw))

	var offers []map[string]interface{}
	require.NoError(t, json.Unmarshal(raw["offers"], &offers))
	require.Len(t, offers, 1)

	city, present := offers[0]["city"]
	assert.True(t, present)
	assert.Nil(t, city)
}

func TestCreateRequest_InvalidPayload(t *testing.T) {
	handler := setupHandler(memory.NewStore())

	tests := []struct {
		name string
		body string
	}{
		{"malformed JSON", `{"procedure_name":`},
		{"missing procedure name", `{"selected_countries": ["turkey"]}`},
		{"empty countries", `{"procedure_name": "Rhinoplasty", "selected_countries": []}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			handler.CreateRequest(rec, authedRequest(http.MethodPost, "/api/requests", []byte(tt.body), "user-1"))

			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestCreateRequest_RequiresIdentity(t *testing.T) {
	handler := setupHandler(memory.NewStore())

	body := []byte(`{"procedure_name": "Rhinoplasty", "selected_countries": ["turkey"]}`)

	rec := httptest.NewRecorder()
	handler.CreateRequest(rec, authedRequest(http.MethodPost, "/api/requests", body, ""))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestCreateRequest_PartialFailureStillSucceeds(t *testing.T) {
	store := memory.NewStore()
	store.FailRuleLookup = true
	handler := setupHandler(store)

	body := []byte(`{"procedure_name": "Rhinoplasty", "selected_countries": ["turkey"]}`)

	rec := httptest.NewRecorder()
	handler.CreateRequest(rec, authedRequest(http.MethodPost, "/api/requests", body, "user-1"))

	assert.Equal(t, http.StatusOK, rec.Code)

	var result services.MatchResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	require.NotNil(t, result.Request)
	assert.Empty(t, result.Offers)
	assert.Contains(t, result.OffersError, "rule lookup failed")
}

func TestGetRequest(t *testing.T) {
	store := memory.NewStore()
	handler := setupHandler(store)

	createBody := []byte(`{"procedure_name": "Rhinoplasty", "selected_countries": ["turkey"]}`)
	rec := httptest.NewRecorder()
	handler.CreateRequest(rec, authedRequest(http.MethodPost, "/api/requests", createBody, "user-1"))
	require.Equal(t, http.StatusOK, rec.Code)

	var result services.MatchResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	requestID := result.Request.ID

	t.Run("owner can read", func(t *testing.T) {
		req := authedRequest(http.MethodGet, "/api/requests/"+requestID, nil, "user-1")
		req.SetPathValue("id", requestID)
		rec := httptest.NewRecorder()

		handler.GetRequest(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("other caller gets 404", func(t *testing.T) {
		req := authedRequest(http.MethodGet, "/api/requests/"+requestID, nil, "user-2")
		req.SetPathValue("id", requestID)
		rec := httptest.NewRecorder()

		handler.GetRequest(rec, req)

		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("unknown id gets 404", func(t *testing.T) {
		req := authedRequest(http.MethodGet, "/api/requests/missing", nil, "user-1")
		req.SetPathValue("id", "missing")
		rec := httptest.NewRecorder()

		handler.GetRequest(rec, req)

		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestListOffers(t *testing.T) {
	store := memory.NewStore()
	store.AddRule(&entities.PriceRule{
		ID: "rule-1", ClinicID: "clinic-x",
		ProcedureName: "Rhinoplasty", Country: "turkey",
		Currency: "USD", Price: 2800, IsActive: true,
	})
	handler := setupHandler(store)

	createBody := []byte(`{"procedure_name": "Rhinoplasty", "selected_countries": ["turkey"]}`)
	rec := httptest.NewRecorder()
	handler.CreateRequest(rec, authedRequest(http.MethodPost, "/api/requests", createBody, "user-1"))
	require.Equal(t, http.StatusOK, rec.Code)

	var result services.MatchResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	requestID := result.Request.ID

	req := authedRequest(http.MethodGet, "/api/requests/"+requestID+"/offers", nil, "user-1")
	req.SetPathValue("id", requestID)
	rec = httptest.NewRecorder()

	handler.ListOffers(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var payload struct {
		Offers []*entities.Offer `json:"offers"`
		Count  int               `json:"count"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	assert.Equal(t, 1, payload.Count)
	require.Len(t, payload.Offers, 1)
	assert.Equal(t, "clinic-x", payload.Offers[0].ClinicID)
}
