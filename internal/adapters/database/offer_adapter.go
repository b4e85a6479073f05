package database

import (
	"context"
	"database/sql"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"

	"github.com/careatlas/medtravel/backend/internal/domain/entities"
	"github.com/careatlas/medtravel/backend/internal/domain/repositories"
	"github.com/careatlas/medtravel/backend/internal/infrastructure/clients/postgres"
	apperrors "github.com/careatlas/medtravel/backend/pkg/errors"
)

const offersTable = "offers"

// offerConflictTarget is the idempotency key: repeated matcher runs over
// the same request overwrite rather than duplicate. City is stored as ''
// for country-wide offers so the key stays a plain unique index.
const offerConflictTarget = "request_id, clinic_id, country, city, source"

// OfferAdapter implements OfferRepository
type OfferAdapter struct {
	client *postgres.Client
	db     *goqu.Database
}

// NewOfferAdapter creates a new offer adapter
func NewOfferAdapter(client *postgres.Client) repositories.OfferRepository {
	return &OfferAdapter{
		client: client,
		db:     goqu.New("postgres", client.DB()),
	}
}

// UpsertBatch writes all offer drafts in one idempotent statement.
func (a *OfferAdapter) UpsertBatch(ctx context.Context, offers []*entities.Offer) error {
	if len(offers) == 0 {
		return nil
	}

	// Postgres rejects a statement whose ON CONFLICT clause would touch
	// the same row twice, so collapse drafts sharing an identity key
	// before building the insert (last draft wins, matching the
	// overwrite semantics of the key itself).
	deduped := make([]*entities.Offer, 0, len(offers))
	seen := make(map[string]int, len(offers))
	for _, offer := range offers {
		key := offer.RequestID + "|" + offer.ClinicID + "|" + offer.Country + "|" + offer.CityName() + "|" + string(offer.Source)
		if idx, ok := seen[key]; ok {
			deduped[idx] = offer
			continue
		}
		seen[key] = len(deduped)
		deduped = append(deduped, offer)
	}

	records := make([]interface{}, 0, len(deduped))
	for _, offer := range deduped {
		records = append(records, goqu.Record{
			"id":         offer.ID,
			"request_id": offer.RequestID,
			"clinic_id":  offer.ClinicID,
			"source":     string(offer.Source),
			"country":    offer.Country,
			"city":       offer.CityName(),
			"currency":   offer.Currency,
			"price":      offer.Price,
			"price_min":  sql.NullFloat64{Float64: offer.PriceMin, Valid: offer.PriceMin > 0},
			"price_max":  sql.NullFloat64{Float64: offer.PriceMax, Valid: offer.PriceMax > 0},
			"status":     string(offer.Status),
			"note":       sql.NullString{String: offer.Note, Valid: offer.Note != ""},
			"created_at": offer.CreatedAt,
			"updated_at": offer.UpdatedAt,
		})
	}

	query, args, err := a.db.Insert(offersTable).
		Rows(records...).
		OnConflict(goqu.DoUpdate(offerConflictTarget, goqu.Record{
			"currency":   goqu.L("excluded.currency"),
			"price":      goqu.L("excluded.price"),
			"price_min":  goqu.L("excluded.price_min"),
			"price_max":  goqu.L("excluded.price_max"),
			"status":     goqu.L("excluded.status"),
			"updated_at": goqu.L("excluded.updated_at"),
		})).
		ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build upsert query", err)
	}

	_, err = a.client.DB().ExecContext(ctx, query, args...)
	if err != nil {
		return apperrors.NewInternalError("failed to upsert offers", err)
	}

	return nil
}

// ListByRequest returns all offers for a request, oldest first.
func (a *OfferAdapter) ListByRequest(ctx context.Context, requestID string) ([]*entities.Offer, error) {
	query, args, err := a.db.Select(
		"id", "request_id", "clinic_id", "source", "country", "city",
		"currency", "price", "price_min", "price_max", "status", "note",
		"created_at", "updated_at",
	).From(offersTable).
		Where(goqu.Ex{"request_id": requestID}).
		Order(goqu.I("created_at").Asc()).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	rows, err := a.client.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to list offers", err)
	}
	defer rows.Close()

	var offers []*entities.Offer
	for rows.Next() {
		offer := &entities.Offer{}
		var city string
		var note sql.NullString
		var priceMin, priceMax sql.NullFloat64

		err := rows.Scan(
			&offer.ID,
			&offer.RequestID,
			&offer.ClinicID,
			&offer.Source,
			&offer.Country,
			&city,
			&offer.Currency,
			&offer.Price,
			&priceMin,
			&priceMax,
			&offer.Status,
			&note,
			&offer.CreatedAt,
			&offer.UpdatedAt,
		)
		if err != nil {
			return nil, apperrors.NewInternalError("failed to scan offer", err)
		}

		if city != "" {
			offer.City = &city
		}
		offer.PriceMin = priceMin.Float64
		offer.PriceMax = priceMax.Float64
		offer.Note = note.String

		offers = append(offers, offer)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewInternalError("failed to iterate offers", err)
	}

	return offers, nil
}
