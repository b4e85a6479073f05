package entities

import (
	"time"
)

// RequestStatus represents the lifecycle state of a treatment request
type RequestStatus string

const (
	// RequestStatusOpen is the initial state of every submitted request
	RequestStatusOpen RequestStatus = "open"

	// RequestStatusClosed is set by downstream workflows once the patient
	// accepts an offer or withdraws the request
	RequestStatusClosed RequestStatus = "closed"
)

// TreatmentRequest represents a patient's standing ask for a procedure
// across one or more countries and cities. ProcedureName and
// SelectedCountries are immutable inputs to matching once the request is
// created.
type TreatmentRequest struct {
	ID                string              `json:"id" db:"id"`
	OwnerID           string              `json:"owner_id" db:"owner_id"`
	ProcedureName     string              `json:"procedure_name" db:"procedure_name"`
	ProcedureCategory string              `json:"procedure_category,omitempty" db:"procedure_category"`
	Region            string              `json:"region,omitempty" db:"region"`
	Sessions          int                 `json:"sessions,omitempty" db:"sessions"` // 0 means unspecified
	SelectedCountries []string            `json:"selected_countries" db:"selected_countries"`
	CitiesByCountry   map[string][]string `json:"cities_by_country,omitempty" db:"cities_by_country"`
	Gender            string              `json:"gender,omitempty" db:"gender"`
	Notes             string              `json:"notes,omitempty" db:"notes"`
	Status            RequestStatus       `json:"status" db:"status"`
	CreatedAt         time.Time           `json:"created_at" db:"created_at"`
	UpdatedAt         time.Time           `json:"updated_at" db:"updated_at"`
}

// RequestedCities returns the cities the patient asked about for the given
// country. An empty result means the patient placed no city filter for
// that country.
func (r *TreatmentRequest) RequestedCities(country string) []string {
	if r.CitiesByCountry == nil {
		return nil
	}
	return r.CitiesByCountry[country]
}
