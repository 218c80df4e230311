package domain

import "time"

// Pipeline stages reported while a trip is calculated.
const (
	StageTripCalculation = "trip_calculation"
	StageGeocoding       = "geocoding"
	StageRouting         = "routing"
	StageHOSCalculation  = "hos_calculation"
	StageLogGeneration   = "log_generation"
	StageCompleted       = "completed"
	StageFailed          = "failed"
)

// ProgressUpdate is one step of a trip calculation as pushed to subscribers.
type ProgressUpdate struct {
	TripID    string     `json:"trip_id"`
	Stage     string     `json:"stage"`
	Status    TripStatus `json:"status"`
	Progress  int        `json:"progress"`
	Message   string     `json:"message"`
	Timestamp time.Time  `json:"timestamp"`

	TotalDistance    *float64 `json:"total_distance,omitempty"`
	TotalDrivingTime *float64 `json:"total_driving_time,omitempty"`
	NumDays          *int     `json:"num_days,omitempty"`
	Error            string   `json:"error,omitempty"`
}
