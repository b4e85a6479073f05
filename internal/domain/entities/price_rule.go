package entities

import (
	"time"
)

// PriceRule is a clinic's standing offer template for one procedure in one
// country. Region and Sessions are opt-in specificity constraints: a rule
// that declares them narrows its own applicability and can only match
// requests carrying a compatible value.
type PriceRule struct {
	ID            string    `json:"id" db:"id"`
	ClinicID      string    `json:"clinic_id" db:"clinic_id"`
	ProcedureName string    `json:"procedure_name" db:"procedure_name"`
	Country       string    `json:"country" db:"country"`
	Cities        []string  `json:"cities,omitempty" db:"cities"` // empty means the rule covers the whole country
	Region        string    `json:"region,omitempty" db:"region"`
	Sessions      int       `json:"sessions,omitempty" db:"sessions"` // 0 means no session constraint
	Currency      string    `json:"currency" db:"currency"`
	Price         float64   `json:"price" db:"price"`
	PriceMin      float64   `json:"price_min,omitempty" db:"price_min"`
	PriceMax      float64   `json:"price_max,omitempty" db:"price_max"`
	IsActive      bool      `json:"is_active" db:"is_active"`
	CreatedAt     time.Time `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time `json:"updated_at" db:"updated_at"`
}

// AnchorPrice returns the rule's point price, falling back to the range
// minimum when no point price is set.
func (r *PriceRule) AnchorPrice() float64 {
	if r.Price > 0 {
		return r.Price
	}
	return r.PriceMin
}
