package cache

import (
	"context"
	"database/sql"
	"eld-trip-service/internal/domain"
	"eld-trip-service/internal/platform/obs"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// SQLRouteCache is a Postgres-backed cache of routed legs keyed by waypoint list.
type SQLRouteCache struct {
	DB *sql.DB
}

func NewSQLRouteCache(db *sql.DB) *SQLRouteCache {
	return &SQLRouteCache{DB: db}
}

// Fetch a cached route.
func (s *SQLRouteCache) Get(ctx context.Context, key string) (_ domain.Route, _ bool, err error) {
	defer obs.Time(ctx, "route.cache.Get")(&err)

	if s.DB == nil {
		return domain.Route{}, false, errors.New("route cache: db is nil")
	}
	if strings.TrimSpace(key) == "" {
		return domain.Route{}, false, errors.New("get route cache: key must not be empty")
	}

	q := `
	SELECT legs, geometry
    FROM route_cache
    WHERE route_key = $1;
	`

	var legsJSON []byte
	var geometry []byte
	err = s.DB.QueryRowContext(ctx, q, key).Scan(&legsJSON, &geometry)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Route{}, false, nil
	}
	if err != nil {
		return domain.Route{}, false, fmt.Errorf("get route cache: query route_cache table: %w", err)
	}

	var legs []domain.RouteLeg
	if err := json.Unmarshal(legsJSON, &legs); err != nil {
		return domain.Route{}, false, fmt.Errorf("get route cache: decode legs: %w", err)
	}

	return domain.Route{Legs: legs, Geometry: geometry}, true, nil
}

// Store a route, replacing any previous entry for the key.
func (s *SQLRouteCache) Put(ctx context.Context, key string, route domain.Route) error {
	if s.DB == nil {
		return errors.New("route cache: db is nil")
	}
	if strings.TrimSpace(key) == "" {
		return errors.New("insert route cache: key must not be empty")
	}

	legsJSON, err := json.Marshal(route.Legs)
	if err != nil {
		return fmt.Errorf("insert route cache: encode legs: %w", err)
	}

	var geometry any
	if len(route.Geometry) > 0 {
		geometry = []byte(route.Geometry)
	}

	_, err = s.DB.ExecContext(ctx, `
	INSERT INTO route_cache (route_key, legs, geometry)
    VALUES ($1, $2, $3)
	ON CONFLICT (route_key) DO UPDATE
	SET legs = EXCLUDED.legs,
		geometry = EXCLUDED.geometry;
	`, key, legsJSON, geometry)
	if err != nil {
		return fmt.Errorf("insert route cache key=%q: %w", key, err)
	}

	return nil
}
