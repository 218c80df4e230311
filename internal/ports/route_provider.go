package ports

import (
	"context"
	"eld-trip-service/internal/domain"
)

// Contract for turning place names into coordinates and coordinates into a drivable route.
type RouteProvider interface {
	// Resolve a free-form location ("Dallas, TX") to coordinates.
	Geocode(ctx context.Context, location string) (domain.Location, error)
	// Return the truck route visiting the waypoints in order.
	Route(ctx context.Context, waypoints []domain.Coordinates) (domain.Route, error)
}
