package database_test

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/careatlas/medtravel/backend/internal/adapters/database"
	"github.com/careatlas/medtravel/backend/internal/domain/entities"
)

func cityPtr(name string) *string {
	return &name
}

func newOffer(id string, city *string) *entities.Offer {
	now := time.Now().UTC()
	return &entities.Offer{
		ID:        id,
		RequestID: "req-1",
		ClinicID:  "clinic-x",
		Source:    entities.OfferSourceAuto,
		Country:   "turkey",
		City:      city,
		Currency:  "USD",
		Price:     2800,
		Status:    entities.OfferStatusSent,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func TestOfferAdapter_UpsertBatch_UsesIdentityKey(t *testing.T) {
	client, mock := setupMockClient(t)
	adapter := database.NewOfferAdapter(client)

	mock.ExpectExec(`INSERT INTO "offers" .* ON CONFLICT \(request_id, clinic_id, country, city, source\) DO UPDATE`).
		WillReturnResult(sqlmock.NewResult(0, 2))

	offers := []*entities.Offer{
		newOffer("offer-1", cityPtr("Istanbul")),
		newOffer("offer-2", nil),
	}

	err := adapter.UpsertBatch(context.Background(), offers)

	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOfferAdapter_UpsertBatch_CollapsesInBatchDuplicates(t *testing.T) {
	// Two rules from the same clinic can yield drafts with the same
	// identity key in one batch. Postgres rejects a statement whose ON
	// CONFLICT clause touches a row twice, so the adapter collapses them
	// before building the insert.
	client, mock := setupMockClient(t)
	adapter := database.NewOfferAdapter(client)

	mock.ExpectExec(`INSERT INTO "offers"`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	first := newOffer("offer-1", cityPtr("Istanbul"))
	second := newOffer("offer-2", cityPtr("Istanbul"))
	second.Price = 2450

	err := adapter.UpsertBatch(context.Background(), []*entities.Offer{first, second})

	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOfferAdapter_UpsertBatch_EmptyBatchIsNoop(t *testing.T) {
	client, mock := setupMockClient(t)
	adapter := database.NewOfferAdapter(client)

	err := adapter.UpsertBatch(context.Background(), nil)

	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOfferAdapter_ListByRequest(t *testing.T) {
	client, mock := setupMockClient(t)
	adapter := database.NewOfferAdapter(client)

	now := time.Now().UTC()
	rows := sqlmock.NewRows([]string{
		"id", "request_id", "clinic_id", "source", "country", "city",
		"currency", "price", "price_min", "price_max", "status", "note",
		"created_at", "updated_at",
	}).AddRow(
		"offer-1", "req-1", "clinic-x", "auto", "turkey", "Istanbul",
		"USD", 2800.0, nil, nil, "sent", nil,
		now, now,
	).AddRow(
		"offer-2", "req-1", "clinic-y", "auto", "turkey", "",
		"USD", 2450.0, nil, nil, "sent", nil,
		now, now,
	)

	mock.ExpectQuery(`SELECT .* FROM "offers" WHERE .* ORDER BY "created_at" ASC`).
		WillReturnRows(rows)

	offers, err := adapter.ListByRequest(context.Background(), "req-1")

	require.NoError(t, err)
	require.Len(t, offers, 2)

	// city '' in storage round-trips to a nil pointer, rendered as JSON
	// null for country-wide offers.
	require.NotNil(t, offers[0].City)
	assert.Equal(t, "Istanbul", *offers[0].City)
	assert.Nil(t, offers[1].City)
	assert.NoError(t, mock.ExpectationsWereMet())
}
