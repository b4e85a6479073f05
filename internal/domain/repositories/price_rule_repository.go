package repositories

import (
	"context"

	"github.com/careatlas/medtravel/backend/internal/domain/entities"
)

// PriceRuleRepository defines the read-only view of clinic price rules the
// matching engine consumes. Rule creation and editing belong to the clinic
// management surface, not to this service.
type PriceRuleRepository interface {
	// ListActiveForMatch returns every active rule whose procedure name
	// equals procedureName and whose country is in countries. The full
	// candidate set is returned, unpaginated.
	ListActiveForMatch(ctx context.Context, procedureName string, countries []string) ([]*entities.PriceRule, error)
}
