package database

import (
	"context"
	"database/sql"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"
	"github.com/lib/pq"

	"github.com/careatlas/medtravel/backend/internal/domain/entities"
	"github.com/careatlas/medtravel/backend/internal/domain/repositories"
	"github.com/careatlas/medtravel/backend/internal/infrastructure/clients/postgres"
	apperrors "github.com/careatlas/medtravel/backend/pkg/errors"
)

const priceRulesTable = "clinic_price_rules"

// PriceRuleAdapter implements PriceRuleRepository
type PriceRuleAdapter struct {
	client *postgres.Client
	db     *goqu.Database
}

// NewPriceRuleAdapter creates a new clinic price rule adapter
func NewPriceRuleAdapter(client *postgres.Client) repositories.PriceRuleRepository {
	return &PriceRuleAdapter{
		client: client,
		db:     goqu.New("postgres", client.DB()),
	}
}

// ListActiveForMatch returns all active rules quoting the given procedure
// in any of the given countries.
func (a *PriceRuleAdapter) ListActiveForMatch(ctx context.Context, procedureName string, countries []string) ([]*entities.PriceRule, error) {
	if len(countries) == 0 {
		return []*entities.PriceRule{}, nil
	}

	query, args, err := a.db.Select(
		"id", "clinic_id", "procedure_name", "country", "cities", "region",
		"sessions", "currency", "price", "price_min", "price_max",
		"is_active", "created_at", "updated_at",
	).From(priceRulesTable).
		Where(goqu.Ex{
			"is_active":      true,
			"procedure_name": procedureName,
			"country":        countries,
		}).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	rows, err := a.client.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to list price rules", err)
	}
	defer rows.Close()

	var rules []*entities.PriceRule
	for rows.Next() {
		rule := &entities.PriceRule{}
		var region sql.NullString
		var sessions sql.NullInt64
		var price, priceMin, priceMax sql.NullFloat64

		err := rows.Scan(
			&rule.ID,
			&rule.ClinicID,
			&rule.ProcedureName,
			&rule.Country,
			pq.Array(&rule.Cities),
			&region,
			&sessions,
			&rule.Currency,
			&price,
			&priceMin,
			&priceMax,
			&rule.IsActive,
			&rule.CreatedAt,
			&rule.UpdatedAt,
		)
		if err != nil {
			return nil, apperrors.NewInternalError("failed to scan price rule", err)
		}

		rule.Region = region.String
		rule.Sessions = int(sessions.Int64)
		rule.Price = price.Float64
		rule.PriceMin = priceMin.Float64
		rule.PriceMax = priceMax.Float64

		rules = append(rules, rule)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewInternalError("failed to iterate price rules", err)
	}

	return rules, nil
}
