package repositories

import (
	"context"

	"github.com/careatlas/medtravel/backend/internal/domain/entities"
)

// RequestRepository defines the interface for treatment request persistence.
type RequestRepository interface {
	// Create inserts a new request. Requests are immutable once created;
	// the matching pipeline never mutates them.
	Create(ctx context.Context, request *entities.TreatmentRequest) error

	// GetByID retrieves a request by its identity.
	GetByID(ctx context.Context, id string) (*entities.TreatmentRequest, error)
}
