package services

import (
	"errors"
	"fmt"
	"math"
)

// Comparisons against regulatory limits tolerate float drift so that a clock
// sitting at 10.999999999h counts as having reached 11h.
const epsilon = 1e-9

// HOSRules is a regulatory profile for the HOS engine. Durations are hours.
type HOSRules struct {
	MaxDrivingHours       float64
	MaxDutyWindowHours    float64
	MaxDrivingBeforeBreak float64
	BreakHours            float64
	CycleLimitHours       float64
	RestHours             float64
	RestartHours          float64
	FuelIntervalMiles     float64
	FuelStopHours         float64
	FuelMinRemainingMiles float64
	PickupHours           float64
	DropoffHours          float64
	AverageSpeedMPH       float64
}

// PropertyCarrying returns the FMCSA limits for property-carrying drivers on the 70-hour/8-day cycle.
func PropertyCarrying() HOSRules {
	return HOSRules{
		MaxDrivingHours:       11.0,
		MaxDutyWindowHours:    14.0,
		MaxDrivingBeforeBreak: 8.0,
		BreakHours:            0.5,
		CycleLimitHours:       70.0,
		RestHours:             10.0,
		RestartHours:          34.0,
		FuelIntervalMiles:     1000.0,
		FuelStopHours:         0.5,
		FuelMinRemainingMiles: 100.0,
		PickupHours:           1.0,
		DropoffHours:          1.0,
		AverageSpeedMPH:       55.0,
	}
}

func (r HOSRules) Validate() error {
	positive := []struct {
		name  string
		value float64
	}{
		{"max driving hours", r.MaxDrivingHours},
		{"max duty window hours", r.MaxDutyWindowHours},
		{"max driving before break", r.MaxDrivingBeforeBreak},
		{"break hours", r.BreakHours},
		{"cycle limit hours", r.CycleLimitHours},
		{"rest hours", r.RestHours},
		{"restart hours", r.RestartHours},
		{"fuel interval miles", r.FuelIntervalMiles},
		{"fuel stop hours", r.FuelStopHours},
		{"pickup hours", r.PickupHours},
		{"dropoff hours", r.DropoffHours},
		{"average speed", r.AverageSpeedMPH},
	}
	for _, p := range positive {
		if math.IsNaN(p.value) || math.IsInf(p.value, 0) || p.value <= 0 {
			return fmt.Errorf("hos rules: %s must be positive, got %v", p.name, p.value)
		}
	}

	if math.IsNaN(r.FuelMinRemainingMiles) || r.FuelMinRemainingMiles < 0 {
		return errors.New("hos rules: fuel min remaining miles must not be negative")
	}

	return nil
}

// dutyClock is the engine's working state while walking the route.
type dutyClock struct {
	driveToday        float64
	dutyToday         float64
	driveSinceBreak   float64
	cycleHoursUsed    float64
	milesSinceFuel    float64
	remainingDistance float64
}

// action is the outcome of one evaluation of the rule table.
type action int

const (
	actionDrive action = iota
	actionRest
	actionBreak
	actionFuel
	actionRestart
)

func (a action) String() string {
	switch a {
	case actionDrive:
		return "drive"
	case actionRest:
		return "rest"
	case actionBreak:
		return "break"
	case actionFuel:
		return "fuel"
	case actionRestart:
		return "restart"
	}
	return fmt.Sprintf("action(%d)", int(a))
}

func reached(value, limit float64) bool { return value >= limit-epsilon }

// nextAction evaluates the rules in priority order; the first match wins.
func (r HOSRules) nextAction(c dutyClock) action {
	switch {
	case reached(c.driveToday, r.MaxDrivingHours) || reached(c.dutyToday, r.MaxDutyWindowHours):
		return actionRest
	case reached(c.driveSinceBreak, r.MaxDrivingBeforeBreak):
		return actionBreak
	case reached(c.milesSinceFuel, r.FuelIntervalMiles) && c.remainingDistance > r.FuelMinRemainingMiles:
		return actionFuel
	case reached(c.cycleHoursUsed, r.CycleLimitHours):
		return actionRestart
	default:
		return actionDrive
	}
}

// driveAvailable is the driving time left before any clock hits its limit.
func (r HOSRules) driveAvailable(c dutyClock) float64 {
	return min(
		r.MaxDrivingHours-c.driveToday,
		r.MaxDutyWindowHours-c.dutyToday,
		r.MaxDrivingBeforeBreak-c.driveSinceBreak,
		r.CycleLimitHours-c.cycleHoursUsed,
	)
}

// iterationBudget bounds the rule evaluations needed to drive the given hours.
// Every drive ends on a limit or on the leg itself and every stop clears the
// limit that triggered it, so the count grows with hours over the shortest limit.
func (r HOSRules) iterationBudget(drivingHours float64) float64 {
	shortest := min(r.MaxDrivingHours, r.MaxDrivingBeforeBreak, r.MaxDutyWindowHours, r.CycleLimitHours)
	return 16 + 8*math.Ceil(drivingHours*(1+1/shortest))
}
