package domain

import (
	"encoding/json"
	"fmt"
	"time"
)

type TripStatus string

const (
	TripPending    TripStatus = "pending"
	TripProcessing TripStatus = "processing"
	TripCompleted  TripStatus = "completed"
	TripFailed     TripStatus = "failed"
)

// Geocoded endpoints of a trip.
type TripCoordinates struct {
	Current Location `json:"current"`
	Pickup  Location `json:"pickup"`
	Dropoff Location `json:"dropoff"`
}

// Route as returned by the routing provider: the legs the HOS engine consumes plus
// an opaque GeoJSON geometry kept for map rendering.
type Route struct {
	Legs     []RouteLeg      `json:"legs"`
	Geometry json.RawMessage `json:"geometry,omitempty"`
}

// Aggregate figures over a segment plan.
type TripSummary struct {
	TotalMiles    float64 `json:"total_miles"`
	DrivingHours  float64 `json:"driving_hours"`
	OnDutyHours   float64 `json:"on_duty_hours"`
	OffDutyHours  float64 `json:"off_duty_hours"`
	SleeperHours  float64 `json:"sleeper_hours"`
	TripHours     float64 `json:"trip_hours"`
	RestStops     int     `json:"rest_stops"`
	Breaks        int     `json:"breaks"`
	FuelStops     int     `json:"fuel_stops"`
	CycleRestarts int     `json:"cycle_restarts"`
}

// Trip is one trip-planning job and, once completed, its results.
type Trip struct {
	ID               string
	CurrentLocation  string
	PickupLocation   string
	DropoffLocation  string
	CurrentCycleUsed float64
	Status           TripStatus
	Progress         int

	TotalDistance    *float64
	TotalDrivingTime *float64
	TotalTripTime    *float64
	Coordinates      *TripCoordinates
	Segments         []Segment
	Summary          *TripSummary
	Geometry         json.RawMessage
	Logs             []LogDay
	ErrorMessage     string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewTrip builds a pending trip. Locations and cycle hours are checked here so
// an invalid request never reaches storage.
func NewTrip(id, current, pickup, dropoff string, cycleUsed float64, now time.Time) (*Trip, error) {
	if current == "" || pickup == "" || dropoff == "" {
		return nil, fmt.Errorf("new trip: current, pickup and dropoff locations are required")
	}
	if !finiteNonNegative(cycleUsed) || cycleUsed > 70 {
		return nil, fmt.Errorf("new trip: %w: %v", ErrInvalidCycleHours, cycleUsed)
	}

	return &Trip{
		ID:               id,
		CurrentLocation:  current,
		PickupLocation:   pickup,
		DropoffLocation:  dropoff,
		CurrentCycleUsed: cycleUsed,
		Status:           TripPending,
		CreatedAt:        now,
		UpdatedAt:        now,
	}, nil
}

func (t *Trip) IsCompleted() bool { return t.Status == TripCompleted }
func (t *Trip) IsFailed() bool    { return t.Status == TripFailed }

// Start marks the trip as processing.
func (t *Trip) Start(now time.Time) {
	t.Status = TripProcessing
	t.Progress = 5
	t.ErrorMessage = ""
	t.UpdatedAt = now
}

// Fail records a pipeline failure.
func (t *Trip) Fail(err error, now time.Time) {
	t.Status = TripFailed
	t.Progress = 0
	t.ErrorMessage = err.Error()
	t.UpdatedAt = now
}

// Output of one full planning pipeline run.
type TripResult struct {
	Coordinates      TripCoordinates
	Route            Route
	Segments         []Segment
	Summary          TripSummary
	Logs             []LogDay
	TotalDistance    float64
	TotalDrivingTime float64
	TotalTripTime    float64
}

// Complete stores a pipeline result on the trip.
func (t *Trip) Complete(r TripResult, now time.Time) {
	coords := r.Coordinates
	summary := r.Summary
	distance, driving, total := r.TotalDistance, r.TotalDrivingTime, r.TotalTripTime

	t.Coordinates = &coords
	t.Summary = &summary
	t.Segments = r.Segments
	t.Geometry = r.Route.Geometry
	t.Logs = r.Logs
	t.TotalDistance = &distance
	t.TotalDrivingTime = &driving
	t.TotalTripTime = &total
	t.Status = TripCompleted
	t.Progress = 100
	t.ErrorMessage = ""
	t.UpdatedAt = now
}
