package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"
	"github.com/lib/pq"

	"github.com/careatlas/medtravel/backend/internal/domain/entities"
	"github.com/careatlas/medtravel/backend/internal/domain/repositories"
	"github.com/careatlas/medtravel/backend/internal/infrastructure/clients/postgres"
	apperrors "github.com/careatlas/medtravel/backend/pkg/errors"
)

const requestsTable = "treatment_requests"

var requestColumns = []interface{}{
	"id", "owner_id", "procedure_name", "procedure_category", "region",
	"sessions", "selected_countries", "cities_by_country", "gender",
	"notes", "status", "created_at", "updated_at",
}

// RequestAdapter implements RequestRepository
type RequestAdapter struct {
	client *postgres.Client
	db     *goqu.Database
}

// NewRequestAdapter creates a new treatment request adapter
func NewRequestAdapter(client *postgres.Client) repositories.RequestRepository {
	return &RequestAdapter{
		client: client,
		db:     goqu.New("postgres", client.DB()),
	}
}

// Create inserts a new treatment request
func (a *RequestAdapter) Create(ctx context.Context, request *entities.TreatmentRequest) error {
	citiesJSON, err := json.Marshal(request.CitiesByCountry)
	if err != nil {
		return apperrors.NewInternalError("failed to encode cities_by_country", err)
	}

	record := goqu.Record{
		"id":                 request.ID,
		"owner_id":           request.OwnerID,
		"procedure_name":     request.ProcedureName,
		"procedure_category": sql.NullString{String: request.ProcedureCategory, Valid: request.ProcedureCategory != ""},
		"region":             sql.NullString{String: request.Region, Valid: request.Region != ""},
		"sessions":           sql.NullInt64{Int64: int64(request.Sessions), Valid: request.Sessions > 0},
		"selected_countries": pq.Array(request.SelectedCountries),
		"cities_by_country":  citiesJSON,
		"gender":             sql.NullString{String: request.Gender, Valid: request.Gender != ""},
		"notes":              sql.NullString{String: request.Notes, Valid: request.Notes != ""},
		"status":             string(request.Status),
		"created_at":         request.CreatedAt,
		"updated_at":         request.UpdatedAt,
	}

	query, args, err := a.db.Insert(requestsTable).Rows(record).ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build insert query", err)
	}

	_, err = a.client.DB().ExecContext(ctx, query, args...)
	if err != nil {
		return apperrors.NewInternalError("failed to create treatment request", err)
	}

	return nil
}

// GetByID retrieves a treatment request by ID
func (a *RequestAdapter) GetByID(ctx context.Context, id string) (*entities.TreatmentRequest, error) {
	query, args, err := a.db.Select(requestColumns...).
		From(requestsTable).
		Where(goqu.Ex{"id": id}).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	request := &entities.TreatmentRequest{}
	var category, region, gender, notes sql.NullString
	var sessions sql.NullInt64
	var citiesJSON []byte

	err = a.client.DB().QueryRowContext(ctx, query, args...).Scan(
		&request.ID,
		&request.OwnerID,
		&request.ProcedureName,
		&category,
		&region,
		&sessions,
		pq.Array(&request.SelectedCountries),
		&citiesJSON,
		&gender,
		&notes,
		&request.Status,
		&request.CreatedAt,
		&request.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("treatment request with id %s not found", id))
	}
	if err != nil {
		return nil, apperrors.NewInternalError("failed to get treatment request", err)
	}

	request.ProcedureCategory = category.String
	request.Region = region.String
	request.Sessions = int(sessions.Int64)
	request.Gender = gender.String
	request.Notes = notes.String

	if len(citiesJSON) > 0 {
		if err := json.Unmarshal(citiesJSON, &request.CitiesByCountry); err != nil {
			return nil, apperrors.NewInternalError("failed to decode cities_by_country", err)
		}
	}

	return request, nil
}
