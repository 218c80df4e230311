package repositories

import (
	"context"
	"database/sql"
	"eld-trip-service/internal/domain"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Initialize the Postgres database schema.
func InitSchema(ctx context.Context, db *sql.DB) error {
	if db == nil {
		return errors.New("init schema: DB is nil")
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("init schema: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	createTripsQuery := `
	CREATE TABLE IF NOT EXISTS trips (
		id UUID PRIMARY KEY,
		current_location TEXT NOT NULL,
		pickup_location TEXT NOT NULL,
		dropoff_location TEXT NOT NULL,
		current_cycle_used DOUBLE PRECISION NOT NULL,
		status TEXT NOT NULL DEFAULT 'pending',
		progress INTEGER NOT NULL DEFAULT 0,
		total_distance DOUBLE PRECISION,
		total_driving_time DOUBLE PRECISION,
		total_trip_time DOUBLE PRECISION,
		coordinates JSONB,
		segments JSONB,
		summary JSONB,
		geometry JSONB,
		logs JSONB,
		error_message TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL
	);
	`

	createGeocodeCacheQuery := `
	CREATE TABLE IF NOT EXISTS geocode_cache (
        address TEXT PRIMARY KEY,
        lon DOUBLE PRECISION NOT NULL,
        lat DOUBLE PRECISION NOT NULL,
        name TEXT NOT NULL DEFAULT ''
    );
	`

	createRouteCacheQuery := `
	CREATE TABLE IF NOT EXISTS route_cache (
        route_key TEXT PRIMARY KEY,
        legs JSONB NOT NULL,
        geometry JSONB
    );
	`

	createIndexQuery := `
	CREATE INDEX IF NOT EXISTS idx_trips_created_at
    ON trips(created_at DESC);
	`

	statements := []string{
		createTripsQuery,
		createGeocodeCacheQuery,
		createRouteCacheQuery,
		createIndexQuery,
	}

	for i, stmt := range statements {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("init schema: exec statement #%d: %w", i+1, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("init schema: commit tx: %w", err)
	}

	return nil
}

type TripSeed struct {
	ID               string  `json:"id"`
	CurrentLocation  string  `json:"current_location"`
	PickupLocation   string  `json:"pickup_location"`
	DropoffLocation  string  `json:"dropoff_location"`
	CurrentCycleUsed float64 `json:"current_cycle_used"`
}

// LoadSeeds reads and validates pending trips from a JSON file.
// Seeds without an id get a fresh UUID.
func LoadSeeds(jsonPath string, now time.Time) ([]*domain.Trip, error) {
	bytes, err := os.ReadFile(jsonPath)
	if err != nil {
		return nil, fmt.Errorf("seed trips: read %q: %w", jsonPath, err)
	}

	var data []TripSeed
	if err := json.Unmarshal(bytes, &data); err != nil {
		return nil, fmt.Errorf("seed trips: parse json: %w", err)
	}

	trips := make([]*domain.Trip, 0, len(data))
	for i, item := range data {
		id := strings.TrimSpace(item.ID)
		if id == "" {
			id = uuid.NewString()
		} else if _, err := uuid.Parse(id); err != nil {
			return nil, fmt.Errorf("seed trips: invalid id at index %d: %w", i+1, err)
		}

		trip, err := domain.NewTrip(
			id,
			strings.TrimSpace(item.CurrentLocation),
			strings.TrimSpace(item.PickupLocation),
			strings.TrimSpace(item.DropoffLocation),
			item.CurrentCycleUsed,
			now,
		)
		if err != nil {
			return nil, fmt.Errorf("seed trips: item at index %d: %w", i+1, err)
		}
		trips = append(trips, trip)
	}

	return trips, nil
}

// Populate the database with pending trips from a JSON file.
func SeedFromJSON(ctx context.Context, db *sql.DB, jsonPath string) error {
	trips, err := LoadSeeds(jsonPath, time.Now().UTC())
	if err != nil {
		return err
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("seed trips: begin tx: %w", err)
	}
	defer tx.Rollback()

	query := `
	INSERT INTO trips (
		id,
		current_location,
		pickup_location,
		dropoff_location,
		current_cycle_used,
		status,
		created_at,
		updated_at
	)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	ON CONFLICT (id) DO NOTHING;
	`
	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		return fmt.Errorf("seed trips: prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, t := range trips {
		if _, err := stmt.ExecContext(
			ctx, t.ID, t.CurrentLocation, t.PickupLocation, t.DropoffLocation,
			t.CurrentCycleUsed, string(t.Status), t.CreatedAt, t.UpdatedAt,
		); err != nil {
			return fmt.Errorf("seed trips: insert id=%s: %w", t.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("seed trips: commit tx: %w", err)
	}

	return nil
}
