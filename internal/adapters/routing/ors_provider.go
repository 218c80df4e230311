package routing

import (
	"context"
	"eld-trip-service/internal/domain"
	"eld-trip-service/internal/ports"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const DefaultBaseURL = "https://api.openrouteservice.org"

// ORSRouteProvider implements RouteProvider using OpenRouteService.
//
// It coordinates:
//   - Address normalization
//   - Persistent geocode caching
//   - Persistent route caching keyed by waypoints
//   - External API calls with retry/backoff
//
// The provider is safe for concurrent use.
type ORSRouteProvider struct {
	session        *http.Client
	apiKey         string
	baseURL        string
	profile        string
	maxAttempts    int
	initialBackoff time.Duration
	geocodeCache   ports.GeocodeCache
	routeCache     ports.RouteCache
}

type Option func(*ORSRouteProvider)

func WithBaseURL(u string) Option {
	return func(o *ORSRouteProvider) { o.baseURL = strings.TrimRight(u, "/") }
}

func WithHTTPClient(c *http.Client) Option {
	return func(o *ORSRouteProvider) { o.session = c }
}

func WithRetry(maxAttempts int, initialBackoff time.Duration) Option {
	return func(o *ORSRouteProvider) {
		o.maxAttempts = maxAttempts
		o.initialBackoff = initialBackoff
	}
}

func WithGeocodeCache(c ports.GeocodeCache) Option {
	return func(o *ORSRouteProvider) { o.geocodeCache = c }
}

func WithRouteCache(c ports.RouteCache) Option {
	return func(o *ORSRouteProvider) { o.routeCache = c }
}

func NewORSRouteProvider(apiKey string, opts ...Option) (*ORSRouteProvider, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, errors.New("ORS api key is empty")
	}

	provider := &ORSRouteProvider{
		session:        &http.Client{Timeout: 15 * time.Second},
		apiKey:         apiKey,
		baseURL:        DefaultBaseURL,
		profile:        "driving-hgv",
		maxAttempts:    4,
		initialBackoff: 200 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(provider)
	}
	if provider.maxAttempts < 1 {
		provider.maxAttempts = 1
	}

	return provider, nil
}

// normalize ensures consistent cache keys by collapsing whitespace.
func (o *ORSRouteProvider) normalize(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// Geocode resolves a location, consulting the geocode cache first.
func (o *ORSRouteProvider) Geocode(ctx context.Context, location string) (domain.Location, error) {
	norm := o.normalize(location)
	if norm == "" {
		return domain.Location{}, errors.New("geocode: location must be non-empty")
	}

	if o.geocodeCache != nil {
		hits, err := o.geocodeCache.GetMany(ctx, []string{norm})
		if err != nil {
			return domain.Location{}, fmt.Errorf("ORS get geocode cache: %w", err)
		}
		if loc, ok := hits[norm]; ok {
			return loc, nil
		}
	}

	loc, err := o.geocodeOne(ctx, norm)
	if err != nil {
		return domain.Location{}, fmt.Errorf("geocode %q: %w", norm, err)
	}

	if o.geocodeCache != nil {
		if err := o.geocodeCache.PutMany(ctx, map[string]domain.Location{norm: loc}); err != nil {
			log.Printf("geocode cache write failed: %v", err)
		}
	}

	return loc, nil
}

// Route returns the truck route through the waypoints, consulting the route cache first.
func (o *ORSRouteProvider) Route(ctx context.Context, waypoints []domain.Coordinates) (domain.Route, error) {
	if len(waypoints) < 2 {
		return domain.Route{}, fmt.Errorf("route: need at least 2 waypoints, got %d", len(waypoints))
	}

	key := RouteKey(o.profile, waypoints)

	if o.routeCache != nil {
		cached, ok, err := o.routeCache.Get(ctx, key)
		if err != nil {
			return domain.Route{}, fmt.Errorf("ORS get route cache: %w", err)
		}
		if ok {
			return cached, nil
		}
	}

	route, err := o.fetchDirections(ctx, waypoints)
	if err != nil {
		return domain.Route{}, fmt.Errorf("route: %w", err)
	}

	if o.routeCache != nil {
		if err := o.routeCache.Put(ctx, key, route); err != nil {
			log.Printf("route cache write failed: %v", err)
		}
	}

	return route, nil
}

// RouteKey identifies a route by profile and waypoints at ~1m precision.
func RouteKey(profile string, waypoints []domain.Coordinates) string {
	parts := make([]string, 0, len(waypoints))
	for _, c := range waypoints {
		parts = append(parts,
			strconv.FormatFloat(c.Lon, 'f', 5, 64)+","+strconv.FormatFloat(c.Lat, 'f', 5, 64))
	}
	return profile + ":" + strings.Join(parts, ";")
}

func roundTo2(v float64) float64 { return decimal.NewFromFloat(v).Round(2).InexactFloat64() }
