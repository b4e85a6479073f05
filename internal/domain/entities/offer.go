package entities

import (
	"time"
)

// OfferSource tags the provenance of an offer
type OfferSource string

const (
	// OfferSourceAuto marks offers generated by the matching engine
	OfferSourceAuto OfferSource = "auto"

	// OfferSourceManual marks offers created by clinic staff
	OfferSourceManual OfferSource = "manual"
)

// OfferStatus represents the lifecycle state of an offer
type OfferStatus string

const (
	// OfferStatusSent is set on every engine-generated offer
	OfferStatusSent OfferStatus = "sent"

	// OfferStatusAccepted and OfferStatusRejected are set by downstream
	// patient workflows
	OfferStatusAccepted OfferStatus = "accepted"
	OfferStatusRejected OfferStatus = "rejected"
)

// Offer is a quote linking one request to one clinic. The tuple
// (RequestID, ClinicID, Country, City, Source) is unique and acts as the
// idempotency key for repeated matcher runs: an offer is overwritten,
// never duplicated.
type Offer struct {
	ID        string      `json:"id" db:"id"`
	RequestID string      `json:"request_id" db:"request_id"`
	ClinicID  string      `json:"clinic_id" db:"clinic_id"`
	Source    OfferSource `json:"source" db:"source"`
	Country   string      `json:"country" db:"country"`
	City      *string     `json:"city" db:"city"` // nil means country-wide
	Currency  string      `json:"currency" db:"currency"`
	Price     float64     `json:"price" db:"price"`
	PriceMin  float64     `json:"price_min,omitempty" db:"price_min"`
	PriceMax  float64     `json:"price_max,omitempty" db:"price_max"`
	Status    OfferStatus `json:"status" db:"status"`
	Note      string      `json:"note,omitempty" db:"note"`
	CreatedAt time.Time   `json:"created_at" db:"created_at"`
	UpdatedAt time.Time   `json:"updated_at" db:"updated_at"`
}

// CityName returns the offer's city, or "" for a country-wide offer.
func (o *Offer) CityName() string {
	if o.City == nil {
		return ""
	}
	return *o.City
}
