package repositories

import (
	"context"
	"database/sql"
	"eld-trip-service/internal/domain"
	"eld-trip-service/internal/platform/obs"
	"encoding/json"
	"errors"
	"fmt"
)

// Postgres-backed implementation of the TripRepository port.
// Plan results are stored as JSONB documents next to the scalar trip columns.
type PostgresTripRepository struct{ DB *sql.DB }

func NewPostgresTripRepository(db *sql.DB) *PostgresTripRepository {
	return &PostgresTripRepository{DB: db}
}

const tripColumns = `
	id,
	current_location,
	pickup_location,
	dropoff_location,
	current_cycle_used,
	status,
	progress,
	total_distance,
	total_driving_time,
	total_trip_time,
	coordinates,
	segments,
	summary,
	geometry,
	logs,
	error_message,
	created_at,
	updated_at
`

func (s *PostgresTripRepository) Create(ctx context.Context, trip *domain.Trip) (err error) {
	defer obs.Time(ctx, "trips.Create")(&err)

	if s.DB == nil {
		return errors.New("postgres trip repository: DB is nil")
	}

	docs, err := encodeTripDocs(trip)
	if err != nil {
		return fmt.Errorf("create trip %s: %w", trip.ID, err)
	}

	query := `INSERT INTO trips (` + tripColumns + `)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18);`

	_, err = s.DB.ExecContext(ctx, query,
		trip.ID,
		trip.CurrentLocation,
		trip.PickupLocation,
		trip.DropoffLocation,
		trip.CurrentCycleUsed,
		string(trip.Status),
		trip.Progress,
		trip.TotalDistance,
		trip.TotalDrivingTime,
		trip.TotalTripTime,
		docs.coordinates,
		docs.segments,
		docs.summary,
		docs.geometry,
		docs.logs,
		trip.ErrorMessage,
		trip.CreatedAt,
		trip.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("create trip %s: insert: %w", trip.ID, err)
	}

	return nil
}

func (s *PostgresTripRepository) Get(ctx context.Context, id string) (_ *domain.Trip, err error) {
	defer obs.Time(ctx, "trips.Get")(&err)

	if s.DB == nil {
		return nil, errors.New("postgres trip repository: DB is nil")
	}

	query := `SELECT ` + tripColumns + ` FROM trips WHERE id = $1;`

	trip, err := scanTrip(s.DB.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get trip %s: %w", id, domain.ErrTripNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get trip %s: %w", id, err)
	}

	return trip, nil
}

func (s *PostgresTripRepository) List(ctx context.Context, limit int) (_ []*domain.Trip, err error) {
	defer obs.Time(ctx, "trips.List")(&err)

	if s.DB == nil {
		return nil, errors.New("postgres trip repository: DB is nil")
	}
	if limit <= 0 {
		limit = 50
	}

	query := `SELECT ` + tripColumns + ` FROM trips ORDER BY created_at DESC LIMIT $1;`

	rows, err := s.DB.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("list trips: query trips table: %w", err)
	}
	defer rows.Close()

	trips := make([]*domain.Trip, 0, limit)
	for rows.Next() {
		trip, err := scanTrip(rows)
		if err != nil {
			return nil, fmt.Errorf("list trips: scan row: %w", err)
		}
		trips = append(trips, trip)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list trips: row iteration: %w", err)
	}

	return trips, nil
}

func (s *PostgresTripRepository) Update(ctx context.Context, trip *domain.Trip) (err error) {
	defer obs.Time(ctx, "trips.Update")(&err)

	if s.DB == nil {
		return errors.New("postgres trip repository: DB is nil")
	}

	docs, err := encodeTripDocs(trip)
	if err != nil {
		return fmt.Errorf("update trip %s: %w", trip.ID, err)
	}

	query := `
	UPDATE trips SET
		status = $2,
		progress = $3,
		total_distance = $4,
		total_driving_time = $5,
		total_trip_time = $6,
		coordinates = $7,
		segments = $8,
		summary = $9,
		geometry = $10,
		logs = $11,
		error_message = $12,
		updated_at = $13
	WHERE id = $1;
	`

	res, err := s.DB.ExecContext(ctx, query,
		trip.ID,
		string(trip.Status),
		trip.Progress,
		trip.TotalDistance,
		trip.TotalDrivingTime,
		trip.TotalTripTime,
		docs.coordinates,
		docs.segments,
		docs.summary,
		docs.geometry,
		docs.logs,
		trip.ErrorMessage,
		trip.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update trip %s: %w", trip.ID, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update trip %s: rows affected: %w", trip.ID, err)
	}
	if n == 0 {
		return fmt.Errorf("update trip %s: %w", trip.ID, domain.ErrTripNotFound)
	}

	return nil
}

// tripDocs holds the JSONB columns; nil means SQL NULL.
type tripDocs struct {
	coordinates any
	segments    any
	summary     any
	geometry    any
	logs        any
}

func encodeTripDocs(t *domain.Trip) (tripDocs, error) {
	var docs tripDocs
	var err error

	if t.Coordinates != nil {
		if docs.coordinates, err = json.Marshal(t.Coordinates); err != nil {
			return tripDocs{}, fmt.Errorf("encode coordinates: %w", err)
		}
	}
	if t.Segments != nil {
		if docs.segments, err = json.Marshal(t.Segments); err != nil {
			return tripDocs{}, fmt.Errorf("encode segments: %w", err)
		}
	}
	if t.Summary != nil {
		if docs.summary, err = json.Marshal(t.Summary); err != nil {
			return tripDocs{}, fmt.Errorf("encode summary: %w", err)
		}
	}
	if len(t.Geometry) > 0 {
		docs.geometry = []byte(t.Geometry)
	}
	if t.Logs != nil {
		if docs.logs, err = json.Marshal(t.Logs); err != nil {
			return tripDocs{}, fmt.Errorf("encode logs: %w", err)
		}
	}

	return docs, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTrip(row rowScanner) (*domain.Trip, error) {
	var (
		t                                                  domain.Trip
		status                                             string
		distance, driving, total                           sql.NullFloat64
		coordinates, segments, summary, geometry, logsJSON []byte
	)

	err := row.Scan(
		&t.ID,
		&t.CurrentLocation,
		&t.PickupLocation,
		&t.DropoffLocation,
		&t.CurrentCycleUsed,
		&status,
		&t.Progress,
		&distance,
		&driving,
		&total,
		&coordinates,
		&segments,
		&summary,
		&geometry,
		&logsJSON,
		&t.ErrorMessage,
		&t.CreatedAt,
		&t.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	t.Status = domain.TripStatus(status)
	t.TotalDistance = nullFloat(distance)
	t.TotalDrivingTime = nullFloat(driving)
	t.TotalTripTime = nullFloat(total)

	if len(coordinates) > 0 {
		t.Coordinates = &domain.TripCoordinates{}
		if err := json.Unmarshal(coordinates, t.Coordinates); err != nil {
			return nil, fmt.Errorf("decode coordinates: %w", err)
		}
	}
	if len(segments) > 0 {
		if err := json.Unmarshal(segments, &t.Segments); err != nil {
			return nil, fmt.Errorf("decode segments: %w", err)
		}
	}
	if len(summary) > 0 {
		t.Summary = &domain.TripSummary{}
		if err := json.Unmarshal(summary, t.Summary); err != nil {
			return nil, fmt.Errorf("decode summary: %w", err)
		}
	}
	if len(geometry) > 0 {
		t.Geometry = json.RawMessage(geometry)
	}
	if len(logsJSON) > 0 {
		if err := json.Unmarshal(logsJSON, &t.Logs); err != nil {
			return nil, fmt.Errorf("decode logs: %w", err)
		}
	}

	return &t, nil
}

func nullFloat(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}
