package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/careatlas/medtravel/backend/internal/domain/entities"
	"github.com/careatlas/medtravel/backend/internal/infrastructure/clients/postgres"
	"github.com/careatlas/medtravel/backend/pkg/config"
)

// schema creates the marketplace tables. The composite unique index on
// offers is the idempotency key for the matching pipeline: retried
// submissions collapse to one row per (request, clinic, country, city,
// source). city is stored as '' for country-wide offers so the plain
// unique index applies.
const schema = `
CREATE TABLE IF NOT EXISTS treatment_requests (
	id                 TEXT PRIMARY KEY,
	owner_id           TEXT NOT NULL,
	procedure_name     TEXT NOT NULL,
	procedure_category TEXT,
	region             TEXT,
	sessions           INTEGER NOT NULL DEFAULT 0,
	selected_countries TEXT[] NOT NULL,
	cities_by_country  JSONB,
	gender             TEXT,
	notes              TEXT,
	status             TEXT NOT NULL DEFAULT 'open',
	created_at         TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at         TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS clinic_price_rules (
	id             TEXT PRIMARY KEY,
	clinic_id      TEXT NOT NULL,
	procedure_name TEXT NOT NULL,
	country        TEXT NOT NULL,
	cities         TEXT[],
	region         TEXT,
	sessions       INTEGER NOT NULL DEFAULT 0,
	currency       TEXT NOT NULL,
	price          DOUBLE PRECISION NOT NULL DEFAULT 0,
	price_min      DOUBLE PRECISION,
	price_max      DOUBLE PRECISION,
	is_active      BOOLEAN NOT NULL DEFAULT true,
	created_at     TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at     TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_price_rules_match
	ON clinic_price_rules (procedure_name, country)
	WHERE is_active;

CREATE TABLE IF NOT EXISTS offers (
	id         TEXT PRIMARY KEY,
	request_id TEXT NOT NULL REFERENCES treatment_requests (id),
	clinic_id  TEXT NOT NULL,
	source     TEXT NOT NULL,
	country    TEXT NOT NULL,
	city       TEXT NOT NULL DEFAULT '',
	currency   TEXT NOT NULL,
	price      DOUBLE PRECISION NOT NULL DEFAULT 0,
	price_min  DOUBLE PRECISION,
	price_max  DOUBLE PRECISION,
	status     TEXT NOT NULL DEFAULT 'sent',
	note       TEXT,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	CONSTRAINT offers_identity_key UNIQUE (request_id, clinic_id, country, city, source)
);

CREATE INDEX IF NOT EXISTS idx_offers_request ON offers (request_id);
`

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	pgClient, err := postgres.NewClient(&cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to DB: %v", err)
	}
	defer pgClient.Close()

	ctx := context.Background()

	if os.Getenv("RESET_DB") == "true" {
		log.Println("RESET_DB=true detected, dropping tables before seeding")
		_, err := pgClient.DB().ExecContext(ctx, `
			DROP TABLE IF EXISTS
				offers,
				clinic_price_rules,
				treatment_requests
			CASCADE
		`)
		if err != nil {
			log.Fatalf("Failed to reset tables: %v", err)
		}
	}

	if _, err := pgClient.DB().ExecContext(ctx, schema); err != nil {
		log.Fatalf("Failed to create schema: %v", err)
	}
	log.Println("Schema ensured")

	// Seed clinic price rules across a few typical destinations
	clinicArslan := uuid.New().String()
	clinicSmileTR := uuid.New().String()
	clinicBudapestDent := uuid.New().String()
	clinicBangkokAesth := uuid.New().String()

	rules := []entities.PriceRule{
		{
			ID: uuid.New().String(), ClinicID: clinicArslan,
			ProcedureName: "Rhinoplasty", Country: "turkey",
			Cities:   []string{"Istanbul", "Ankara"},
			Currency: "USD", Price: 2800, IsActive: true,
		},
		{
			ID: uuid.New().String(), ClinicID: clinicSmileTR,
			ProcedureName: "Rhinoplasty", Country: "turkey",
			Currency: "USD", Price: 2450, IsActive: true,
		},
		{
			ID: uuid.New().String(), ClinicID: clinicSmileTR,
			ProcedureName: "Hair Transplant", Country: "turkey",
			Cities: []string{"Istanbul"}, Sessions: 2,
			Currency: "USD", PriceMin: 1800, PriceMax: 2600, IsActive: true,
		},
		{
			ID: uuid.New().String(), ClinicID: clinicBudapestDent,
			ProcedureName: "Dental Implant", Country: "hungary",
			Cities:   []string{"Budapest"},
			Currency: "EUR", Price: 950, IsActive: true,
		},
		{
			ID: uuid.New().String(), ClinicID: clinicBangkokAesth,
			ProcedureName: "Liposuction", Country: "thailand",
			Region:   "abdomen",
			Currency: "USD", PriceMin: 3200, PriceMax: 4500, IsActive: true,
		},
		{
			ID: uuid.New().String(), ClinicID: clinicBangkokAesth,
			ProcedureName: "Liposuction", Country: "thailand",
			Region: "thighs", Currency: "USD", Price: 3900, IsActive: false,
		},
	}

	for _, r := range rules {
		now := time.Now().UTC()
		_, err := pgClient.DB().ExecContext(ctx, `
			INSERT INTO clinic_price_rules
				(id, clinic_id, procedure_name, country, cities, region,
				 sessions, currency, price, price_min, price_max, is_active,
				 created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
			ON CONFLICT (id) DO NOTHING
		`, r.ID, r.ClinicID, r.ProcedureName, r.Country, pq.Array(r.Cities),
			r.Region, r.Sessions, r.Currency, r.Price, r.PriceMin, r.PriceMax,
			r.IsActive, now, now)
		if err != nil {
			log.Printf("Failed to seed rule for %s/%s: %v", r.ProcedureName, r.Country, err)
		}
	}

	log.Printf("Seeded %d clinic price rules", len(rules))
}
