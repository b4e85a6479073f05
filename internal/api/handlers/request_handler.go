package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/careatlas/medtravel/backend/internal/api/middleware"
	"github.com/careatlas/medtravel/backend/internal/application/services"
)

// RequestHandler handles treatment request HTTP endpoints
type RequestHandler struct {
	requestService *services.RequestService
}

// NewRequestHandler creates a new request handler
func NewRequestHandler(requestService *services.RequestService) *RequestHandler {
	return &RequestHandler{
		requestService: requestService,
	}
}

type createRequestPayload struct {
	ProcedureName     string              `json:"procedure_name"`
	ProcedureCategory string              `json:"procedure_category"`
	Region            string              `json:"region"`
	Sessions          int                 `json:"sessions"`
	SelectedCountries []string            `json:"selected_countries"`
	CitiesByCountry   map[string][]string `json:"cities_by_country"`
	Gender            string              `json:"gender"`
	Notes             string              `json:"notes"`
}

// CreateRequest handles POST /api/requests. It persists the request and
// runs the matching pipeline in the same call; a matching failure after
// the request is durable still returns 200 with an offers_error field.
func (h *RequestHandler) CreateRequest(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	var payload createRequestPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid JSON payload")
		return
	}

	input := services.CreateRequestInput{
		ProcedureName:     payload.ProcedureName,
		ProcedureCategory: payload.ProcedureCategory,
		Region:            payload.Region,
		Sessions:          payload.Sessions,
		SelectedCountries: payload.SelectedCountries,
		CitiesByCountry:   payload.CitiesByCountry,
		Gender:            payload.Gender,
		Notes:             payload.Notes,
	}

	result, err := h.requestService.SubmitRequest(r.Context(), ownerID, input)
	if err != nil {
		respondWithAppError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, result)
}

// GetRequest handles GET /api/requests/{id}
func (h *RequestHandler) GetRequest(w http.ResponseWriter, r *http.Request) {
	requestID := r.PathValue("id")
	if requestID == "" {
		respondWithError(w, http.StatusBadRequest, "request ID is required")
		return
	}

	callerID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	request, err := h.requestService.GetRequest(r.Context(), requestID, callerID)
	if err != nil {
		respondWithAppError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, request)
}

// ListOffers handles GET /api/requests/{id}/offers. Clients poll this
// endpoint for offers that arrive after the initial match, e.g. manual
// quotes from clinic staff.
func (h *RequestHandler) ListOffers(w http.ResponseWriter, r *http.Request) {
	requestID := r.PathValue("id")
	if requestID == "" {
		respondWithError(w, http.StatusBadRequest, "request ID is required")
		return
	}

	callerID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	offers, err := h.requestService.ListOffers(r.Context(), requestID, callerID)
	if err != nil {
		respondWithAppError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"offers": offers,
		"count":  len(offers),
	})
}
