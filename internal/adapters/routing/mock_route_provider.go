package routing

import (
	"context"
	"eld-trip-service/internal/domain"
	"fmt"
	"strings"
	"sync"
)

// MockRouteProvider serves fixed geocodes and a fixed route; used by tests.
type MockRouteProvider struct {
	mu        sync.Mutex
	locations map[string]domain.Location
	route     domain.Route
	routeErr  error

	GeocodeCalls int
	RouteCalls   int
}

func NewMockRouteProvider(route domain.Route) *MockRouteProvider {
	return &MockRouteProvider{locations: map[string]domain.Location{}, route: route}
}

// WithLocation registers a geocode answer for name.
func (m *MockRouteProvider) WithLocation(name string, lon, lat float64) *MockRouteProvider {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.locations[strings.ToLower(strings.TrimSpace(name))] = domain.Location{
		Coordinates: domain.Coordinates{Lon: lon, Lat: lat},
		Name:        name,
	}
	return m
}

// FailRoute makes every Route call return err.
func (m *MockRouteProvider) FailRoute(err error) *MockRouteProvider {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.routeErr = err
	return m
}

// Geocode returns the registered location, or a deterministic synthetic one
// derived from the name when none was registered.
func (m *MockRouteProvider) Geocode(ctx context.Context, location string) (domain.Location, error) {
	if err := ctx.Err(); err != nil {
		return domain.Location{}, err
	}

	key := strings.ToLower(strings.TrimSpace(location))
	if key == "" {
		return domain.Location{}, fmt.Errorf("mock geocode: %w for empty location", domain.ErrGeocodeNotFound)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.GeocodeCalls++

	if loc, ok := m.locations[key]; ok {
		return loc, nil
	}

	var h uint32 = 2166136261
	for i := 0; i < len(key); i++ {
		h = (h ^ uint32(key[i])) * 16777619
	}
	return domain.Location{
		Coordinates: domain.Coordinates{
			Lon: -125 + float64(h%5800)/100,
			Lat: 25 + float64((h/5800)%2400)/100,
		},
		Name: location,
	}, nil
}

func (m *MockRouteProvider) Route(ctx context.Context, waypoints []domain.Coordinates) (domain.Route, error) {
	if err := ctx.Err(); err != nil {
		return domain.Route{}, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.RouteCalls++

	if m.routeErr != nil {
		return domain.Route{}, m.routeErr
	}
	if len(waypoints) < 2 {
		return domain.Route{}, fmt.Errorf("mock route: need at least 2 waypoints, got %d", len(waypoints))
	}

	legs := make([]domain.RouteLeg, len(m.route.Legs))
	copy(legs, m.route.Legs)
	return domain.Route{Legs: legs, Geometry: m.route.Geometry}, nil
}
