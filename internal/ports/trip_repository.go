package ports

import (
	"context"
	"eld-trip-service/internal/domain"
)

// Port: a boundary for storing and retrieving Trip aggregates.
type TripRepository interface {
	Create(ctx context.Context, trip *domain.Trip) error
	// Return domain.ErrTripNotFound when no trip has the id.
	Get(ctx context.Context, id string) (*domain.Trip, error)
	// Return the most recently created trips first.
	List(ctx context.Context, limit int) ([]*domain.Trip, error)
	Update(ctx context.Context, trip *domain.Trip) error
}
