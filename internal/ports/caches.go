package ports

import (
	"context"
	"eld-trip-service/internal/domain"
)

// Persistent address -> location cache consulted before calling the geocoder.
type GeocodeCache interface {
	GetMany(ctx context.Context, addresses []string) (map[string]domain.Location, error)
	PutMany(ctx context.Context, results map[string]domain.Location) error
}

// Persistent cache of routes keyed by their waypoint list.
type RouteCache interface {
	// Return the cached route and whether it was found.
	Get(ctx context.Context, key string) (domain.Route, bool, error)
	Put(ctx context.Context, key string, route domain.Route) error
}
