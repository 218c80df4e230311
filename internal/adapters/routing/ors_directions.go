package routing

import (
	"bytes"
	"context"
	"eld-trip-service/internal/domain"
	"eld-trip-service/internal/platform/obs"
	"encoding/json"
	"fmt"
	"net/http"
)

type directionsRequest struct {
	Coordinates [][]float64 `json:"coordinates"`
	Preference  string      `json:"preference"`
	Units       string      `json:"units"`
}

type directionsSummary struct {
	Distance float64 `json:"distance"`
	Duration float64 `json:"duration"`
}

type directionsResponse struct {
	Features []struct {
		Geometry   json.RawMessage `json:"geometry"`
		Properties struct {
			Summary  directionsSummary   `json:"summary"`
			Segments []directionsSummary `json:"segments"`
		} `json:"properties"`
	} `json:"features"`
}

// fetchDirections retrieves the truck route through the waypoints from the
// OpenRouteService directions endpoint. Distances come back in miles, durations in seconds.
func (o *ORSRouteProvider) fetchDirections(
	ctx context.Context,
	waypoints []domain.Coordinates,
) (_ domain.Route, err error) {
	defer obs.Time(ctx, "ors.directions")(&err)

	endpoint := fmt.Sprintf("%s/v2/directions/%s/geojson", o.baseURL, o.profile)

	coordinates := make([][]float64, 0, len(waypoints))
	for _, c := range waypoints {
		coordinates = append(coordinates, c.CoordsToList())
	}

	payload, err := json.Marshal(directionsRequest{
		Coordinates: coordinates,
		Preference:  "recommended",
		Units:       "mi",
	})
	if err != nil {
		return domain.Route{}, fmt.Errorf("marshal directions request: %w", err)
	}

	resp, err := o.doWithRetry(ctx, func() (*http.Request, error) {
		return o.newRequest(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	})
	if err != nil {
		return domain.Route{}, fmt.Errorf("directions request failed: %w", err)
	}
	defer resp.Body.Close()

	var dr directionsResponse
	if err := json.NewDecoder(resp.Body).Decode(&dr); err != nil {
		return domain.Route{}, fmt.Errorf("decode directions response: %w", err)
	}

	if len(dr.Features) == 0 {
		return domain.Route{}, fmt.Errorf("%w: directions returned no features", domain.ErrNoRoute)
	}
	feature := dr.Features[0]

	// Per-waypoint segments give one leg each; fall back to the route summary.
	parts := feature.Properties.Segments
	if len(parts) == 0 {
		parts = []directionsSummary{feature.Properties.Summary}
	}

	legs := make([]domain.RouteLeg, 0, len(parts))
	for i, p := range parts {
		leg := domain.RouteLeg{
			DistanceMiles: roundTo2(p.Distance),
			DurationHours: roundTo2(p.Duration / 3600.0),
		}
		if err := leg.Validate(); err != nil {
			return domain.Route{}, fmt.Errorf("directions leg %d: %w", i+1, err)
		}
		legs = append(legs, leg)
	}

	return domain.Route{Legs: legs, Geometry: feature.Geometry}, nil
}
