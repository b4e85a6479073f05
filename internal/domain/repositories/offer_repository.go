package repositories

import (
	"context"

	"github.com/careatlas/medtravel/backend/internal/domain/entities"
)

// OfferRepository defines the interface for offer persistence. Offers are
// write-owned by the matching pipeline until downstream accept/reject
// workflows take over.
type OfferRepository interface {
	// UpsertBatch writes a batch of offer drafts keyed on
	// (request_id, clinic_id, country, city, source). Rows with a matching
	// key are overwritten with the draft's price, currency and status;
	// the rest are inserted. An empty batch is a no-op.
	UpsertBatch(ctx context.Context, offers []*entities.Offer) error

	// ListByRequest returns all offers for a request.
	ListByRequest(ctx context.Context, requestID string) ([]*entities.Offer, error)
}
