package services

import (
	"context"
	"eld-trip-service/internal/domain"
	"eld-trip-service/internal/platform/obs"
	"eld-trip-service/internal/ports"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"
)

type PlanTripRequest struct {
	TripID          string
	CurrentLocation string
	PickupLocation  string
	DropoffLocation string
	CycleUsed       float64
	// Log sheet header; StartDate labels the first log day.
	Sheet LogSheetInfo
	// Optional regulatory profile; property-carrying rules when nil.
	Rules *HOSRules
}

// PlanTrip runs the full pipeline: geocode the three stops, route between them,
// plan HOS-compliant segments and lay them onto daily logs.
//
// It holds no state between calls, so a failed run is simply run again from the start.
func PlanTrip(
	ctx context.Context,
	req PlanTripRequest,
	provider ports.RouteProvider,
	notifier ports.ProgressNotifier,
) (_ domain.TripResult, err error) {
	defer obs.Time(ctx, "services.PlanTrip")(&err)

	if provider == nil {
		return domain.TripResult{}, errors.New("plan trip: route provider must be non-nil")
	}

	rules := PropertyCarrying()
	if req.Rules != nil {
		rules = *req.Rules
	}

	// Validate cycle hours before any external call is made.
	engine, err := NewHOSEngineWithRules(req.CycleUsed, rules)
	if err != nil {
		return domain.TripResult{}, fmt.Errorf("plan trip: %w", err)
	}

	report := func(stage string, progress int, message string) {
		if notifier == nil {
			return
		}
		notifier.Publish(ctx, domain.ProgressUpdate{
			TripID:    req.TripID,
			Stage:     stage,
			Status:    domain.TripProcessing,
			Progress:  progress,
			Message:   message,
			Timestamp: time.Now(),
		})
	}

	report(domain.StageGeocoding, 10, "Geocoding locations...")

	coords, err := geocodeStops(ctx, provider, req)
	if err != nil {
		return domain.TripResult{}, fmt.Errorf("plan trip: %w", err)
	}

	report(domain.StageRouting, 25, "Calculating optimal route...")

	route, err := provider.Route(ctx, []domain.Coordinates{
		coords.Current.Coordinates,
		coords.Pickup.Coordinates,
		coords.Dropoff.Coordinates,
	})
	if err != nil {
		return domain.TripResult{}, fmt.Errorf("plan trip: route: %w", err)
	}
	if len(route.Legs) == 0 {
		return domain.TripResult{}, fmt.Errorf("plan trip: %w: no route legs", domain.ErrNoRoute)
	}

	legMiles := make([]float64, 0, len(route.Legs))
	for _, leg := range route.Legs {
		legMiles = append(legMiles, leg.DistanceMiles)
	}
	totalDistance := sum(legMiles...)

	report(domain.StageHOSCalculation, 50, "Calculating HOS compliance...")

	segments, summary, err := engine.CalculateTripSegments(
		totalDistance,
		req.CurrentLocation,
		req.PickupLocation,
		req.DropoffLocation,
		route.Legs,
	)
	if err != nil {
		return domain.TripResult{}, fmt.Errorf("plan trip: %w", err)
	}

	report(domain.StageLogGeneration, 70, "Generating FMCSA-compliant logs...")

	stops := TripStops{Current: req.CurrentLocation, Pickup: req.PickupLocation, Dropoff: req.DropoffLocation}
	logs, err := ConvertToDailyLogs(segments, stops, req.Sheet)
	if err != nil {
		return domain.TripResult{}, fmt.Errorf("plan trip: %w", err)
	}

	report(domain.StageLogGeneration, 90, fmt.Sprintf("Generated %d daily log(s)", len(logs)))

	return domain.TripResult{
		Coordinates:      coords,
		Route:            route,
		Segments:         segments,
		Summary:          summary,
		Logs:             logs,
		TotalDistance:    round2(totalDistance),
		TotalDrivingTime: summary.DrivingHours,
		TotalTripTime:    summary.TripHours,
	}, nil
}

// geocodeStops resolves the three stops concurrently; the first failure cancels the rest.
func geocodeStops(ctx context.Context, provider ports.RouteProvider, req PlanTripRequest) (domain.TripCoordinates, error) {
	var coords domain.TripCoordinates

	g, gctx := errgroup.WithContext(ctx)
	lookups := []struct {
		name     string
		location string
		dst      *domain.Location
	}{
		{"current", req.CurrentLocation, &coords.Current},
		{"pickup", req.PickupLocation, &coords.Pickup},
		{"dropoff", req.DropoffLocation, &coords.Dropoff},
	}

	for _, l := range lookups {
		g.Go(func() error {
			loc, err := provider.Geocode(gctx, l.location)
			if err != nil {
				return fmt.Errorf("geocode %s location %q: %w", l.name, l.location, err)
			}
			*l.dst = loc
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return domain.TripCoordinates{}, err
	}

	return coords, nil
}
