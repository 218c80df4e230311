package dto

import (
	"eld-trip-service/internal/domain"
	"encoding/json"
	"time"
)

type CreateTripRequest struct {
	CurrentLocation  string   `json:"current_location"`
	PickupLocation   string   `json:"pickup_location"`
	DropoffLocation  string   `json:"dropoff_location"`
	CurrentCycleUsed *float64 `json:"current_cycle_used"`
}

type CreateTripResponse struct {
	TripID  string            `json:"trip_id"`
	Status  domain.TripStatus `json:"status"`
	Message string            `json:"message"`
}

type TripResponse struct {
	ID               string                  `json:"id"`
	CurrentLocation  string                  `json:"current_location"`
	PickupLocation   string                  `json:"pickup_location"`
	DropoffLocation  string                  `json:"dropoff_location"`
	CurrentCycleUsed float64                 `json:"current_cycle_used"`
	Status           domain.TripStatus       `json:"status"`
	Progress         int                     `json:"progress"`
	TotalDistance    *float64                `json:"total_distance"`
	TotalDrivingTime *float64                `json:"total_driving_time"`
	TotalTripTime    *float64                `json:"total_trip_time"`
	Coordinates      *domain.TripCoordinates `json:"coordinates"`
	Segments         []domain.Segment        `json:"segments"`
	Summary          *domain.TripSummary     `json:"summary"`
	RouteGeometry    json.RawMessage         `json:"route_geometry,omitempty"`
	Logs             []domain.LogDay         `json:"logs"`
	ErrorMessage     string                  `json:"error_message,omitempty"`
	CreatedAt        time.Time               `json:"created_at"`
	UpdatedAt        time.Time               `json:"updated_at"`
}

type TripListItem struct {
	ID               string            `json:"id"`
	CurrentLocation  string            `json:"current_location"`
	PickupLocation   string            `json:"pickup_location"`
	DropoffLocation  string            `json:"dropoff_location"`
	Status           domain.TripStatus `json:"status"`
	Progress         int               `json:"progress"`
	TotalDistance    *float64          `json:"total_distance"`
	TotalDrivingTime *float64          `json:"total_driving_time"`
	CreatedAt        time.Time         `json:"created_at"`
}

type ListTripsResponse struct {
	Trips []TripListItem `json:"trips"`
}

type TripLogsResponse struct {
	TripID  string          `json:"trip_id"`
	NumDays int             `json:"num_days"`
	Logs    []domain.LogDay `json:"logs"`
}

func NewTripResponse(t *domain.Trip) TripResponse {
	segments := t.Segments
	if segments == nil {
		segments = []domain.Segment{}
	}
	logs := t.Logs
	if logs == nil {
		logs = []domain.LogDay{}
	}

	return TripResponse{
		ID:               t.ID,
		CurrentLocation:  t.CurrentLocation,
		PickupLocation:   t.PickupLocation,
		DropoffLocation:  t.DropoffLocation,
		CurrentCycleUsed: t.CurrentCycleUsed,
		Status:           t.Status,
		Progress:         t.Progress,
		TotalDistance:    t.TotalDistance,
		TotalDrivingTime: t.TotalDrivingTime,
		TotalTripTime:    t.TotalTripTime,
		Coordinates:      t.Coordinates,
		Segments:         segments,
		Summary:          t.Summary,
		RouteGeometry:    t.Geometry,
		Logs:             logs,
		ErrorMessage:     t.ErrorMessage,
		CreatedAt:        t.CreatedAt,
		UpdatedAt:        t.UpdatedAt,
	}
}

func NewTripListItem(t *domain.Trip) TripListItem {
	return TripListItem{
		ID:               t.ID,
		CurrentLocation:  t.CurrentLocation,
		PickupLocation:   t.PickupLocation,
		DropoffLocation:  t.DropoffLocation,
		Status:           t.Status,
		Progress:         t.Progress,
		TotalDistance:    t.TotalDistance,
		TotalDrivingTime: t.TotalDrivingTime,
		CreatedAt:        t.CreatedAt,
	}
}
