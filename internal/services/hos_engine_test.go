package services

import (
	"eld-trip-service/internal/domain"
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	dallas = "Dallas, TX"
	tulsa  = "Tulsa, OK"
	denver = "Denver, CO"
)

func start() domain.Segment {
	return domain.Segment{Type: domain.SegmentStart, Location: dallas}
}

func pickup() domain.Segment {
	return domain.Segment{Type: domain.SegmentPickup, DurationHours: 1, Location: tulsa}
}

func dropoff() domain.Segment {
	return domain.Segment{Type: domain.SegmentDropoff, DurationHours: 1, Location: denver}
}

func drive(hours, miles float64) domain.Segment {
	return domain.Segment{Type: domain.SegmentDrive, DurationHours: hours, DistanceMiles: miles, Location: EnRouteLocation}
}

func rest() domain.Segment {
	return domain.Segment{Type: domain.SegmentRest, DurationHours: 10, Location: RestAreaLocation}
}

func brk() domain.Segment {
	return domain.Segment{Type: domain.SegmentBreak, DurationHours: 0.5, Location: RestAreaLocation}
}

func fuel() domain.Segment {
	return domain.Segment{Type: domain.SegmentFuel, DurationHours: 0.5, Location: FuelLocation}
}

func restart() domain.Segment {
	return domain.Segment{Type: domain.SegmentRest, DurationHours: 34, Location: RestartLocation}
}

func planTrip(t *testing.T, cycle float64, legs ...domain.RouteLeg) ([]domain.Segment, domain.TripSummary) {
	t.Helper()

	engine, err := NewHOSEngine(cycle)
	require.NoError(t, err)

	total := 0.0
	for _, l := range legs {
		total += l.DistanceMiles
	}

	segments, summary, err := engine.CalculateTripSegments(total, dallas, tulsa, denver, legs)
	require.NoError(t, err)
	return segments, summary
}

func TestShortTripNeedsNoStops(t *testing.T) {
	segments, summary := planTrip(t, 10, domain.RouteLeg{DistanceMiles: 275, DurationHours: 5})

	assert.Equal(t, []domain.Segment{start(), pickup(), drive(5, 275), dropoff()}, segments)
	assert.Equal(t, domain.TripSummary{
		TotalMiles:   275,
		DrivingHours: 5,
		OnDutyHours:  2,
		TripHours:    7,
	}, summary)
}

func TestBreakThenRestOnLongDay(t *testing.T) {
	segments, summary := planTrip(t, 0, domain.RouteLeg{DistanceMiles: 770, DurationHours: 14})

	assert.Equal(t, []domain.Segment{
		start(), pickup(),
		drive(8, 440), brk(), drive(3, 165),
		rest(),
		drive(3, 165),
		dropoff(),
	}, segments)

	assert.Equal(t, 1, summary.RestStops)
	assert.Equal(t, 1, summary.Breaks)
	assert.Equal(t, 14.0, summary.DrivingHours)
	assert.Equal(t, 26.5, summary.TripHours)
}

func TestBreakLeavesDailyDrivingClockAlone(t *testing.T) {
	engine, err := NewHOSEngine(0)
	require.NoError(t, err)

	var afterBreak []dutyClock
	_, err = engine.plan(770, dallas, tulsa, denver,
		[]domain.RouteLeg{{DistanceMiles: 770, DurationHours: 14}},
		func(seg domain.Segment, c dutyClock) {
			if seg.Type == domain.SegmentBreak {
				afterBreak = append(afterBreak, c)
			}
		})
	require.NoError(t, err)
	require.Len(t, afterBreak, 1)

	c := afterBreak[0]
	assert.Equal(t, 8.0, c.driveToday)
	assert.Equal(t, 0.0, c.driveSinceBreak)
	assert.Equal(t, 9.5, c.dutyToday)
	assert.Equal(t, 9.0, c.cycleHoursUsed, "breaks are off duty and do not count toward the cycle")
}

func TestCycleRestartResetsAllClocks(t *testing.T) {
	engine, err := NewHOSEngine(68)
	require.NoError(t, err)

	var afterRestart []dutyClock
	segments, err := engine.plan(110, dallas, tulsa, denver,
		[]domain.RouteLeg{{DistanceMiles: 110, DurationHours: 2}},
		func(seg domain.Segment, c dutyClock) {
			if seg.Location == RestartLocation {
				afterRestart = append(afterRestart, c)
			}
		})
	require.NoError(t, err)

	assert.Equal(t, []domain.Segment{
		start(), pickup(), drive(1, 55), restart(), drive(1, 55), dropoff(),
	}, segments)

	require.Len(t, afterRestart, 1)
	c := afterRestart[0]
	assert.Zero(t, c.driveToday)
	assert.Zero(t, c.dutyToday)
	assert.Zero(t, c.driveSinceBreak)
	assert.Zero(t, c.cycleHoursUsed)

	summary := Summarize(segments)
	assert.Equal(t, 1, summary.CycleRestarts)
	assert.Equal(t, 0, summary.RestStops)
	assert.Equal(t, 34.0, summary.SleeperHours)
	assert.Equal(t, 38.0, summary.TripHours)
}

func TestFuelStopOnLongHaul(t *testing.T) {
	segments, summary := planTrip(t, 0, domain.RouteLeg{DistanceMiles: 1650, DurationHours: 30})

	assert.Equal(t, []domain.Segment{
		start(), pickup(),
		drive(8, 440), brk(), drive(3, 165), rest(),
		drive(8, 440), brk(), fuel(), drive(3, 165), rest(),
		drive(8, 440),
		dropoff(),
	}, segments)

	assert.Equal(t, domain.TripSummary{
		TotalMiles:    1650,
		DrivingHours:  30,
		OnDutyHours:   2.5,
		OffDutyHours:  1,
		SleeperHours:  20,
		TripHours:     53.5,
		RestStops:     2,
		Breaks:        2,
		FuelStops:     1,
		CycleRestarts: 0,
	}, summary)
}

func TestNoFuelStopNearDropoff(t *testing.T) {
	// 1045 miles driven when the fuel rule first applies, with only 55 left.
	segments, summary := planTrip(t, 0, domain.RouteLeg{DistanceMiles: 1100, DurationHours: 20})
	assert.Equal(t, 0, summary.FuelStops)
	assert.Equal(t, 1100.0, summary.TotalMiles)
	assert.Equal(t, dropoff(), segments[len(segments)-1])
}

func TestTailLegCoversRemainingDistance(t *testing.T) {
	segments, summary := planTrip(t, 0, domain.RouteLeg{DistanceMiles: 110, DurationHours: 1})

	assert.Equal(t, []domain.Segment{start(), pickup(), drive(1, 55), drive(1, 55), dropoff()}, segments)
	assert.Equal(t, 110.0, summary.TotalMiles)
}

func TestZeroDistanceTrip(t *testing.T) {
	segments, summary := planTrip(t, 0)
	assert.Equal(t, []domain.Segment{start(), pickup(), dropoff()}, segments)
	assert.Equal(t, 2.0, summary.TripHours)
}

func TestCalculateTripSegmentsIsDeterministic(t *testing.T) {
	legs := []domain.RouteLeg{{DistanceMiles: 412.3, DurationHours: 7.6}, {DistanceMiles: 988.1, DurationHours: 18.2}}
	a, sa := planTrip(t, 37.25, legs...)
	b, sb := planTrip(t, 37.25, legs...)
	assert.Equal(t, a, b)
	assert.Equal(t, sa, sb)
}

func TestHOSEngineRejectsInvalidInput(t *testing.T) {
	for _, cycle := range []float64{-1, 70.01, math.NaN()} {
		_, err := NewHOSEngine(cycle)
		assert.ErrorIs(t, err, domain.ErrInvalidCycleHours, "cycle %v", cycle)
	}

	engine, err := NewHOSEngine(70)
	require.NoError(t, err)
	assert.Zero(t, engine.RemainingCycle())

	_, _, err = engine.CalculateTripSegments(100, dallas, tulsa, denver, []domain.RouteLeg{{DistanceMiles: -5, DurationHours: 1}})
	assert.ErrorIs(t, err, domain.ErrInvalidRouteLeg)

	_, _, err = engine.CalculateTripSegments(math.NaN(), dallas, tulsa, denver, nil)
	assert.ErrorIs(t, err, domain.ErrInvalidRouteLeg)

	bad := PropertyCarrying()
	bad.AverageSpeedMPH = 0
	_, err = NewHOSEngineWithRules(0, bad)
	assert.Error(t, err)
}

func TestFullCycleStartsWithRestart(t *testing.T) {
	segments, summary := planTrip(t, 70, domain.RouteLeg{DistanceMiles: 55, DurationHours: 1})
	assert.Equal(t, []domain.Segment{start(), pickup(), restart(), drive(1, 55), dropoff()}, segments)
	assert.Equal(t, 1, summary.CycleRestarts)
}

// Fuel stops never shorten a drive, so a short interval yields at most one stop per drive.
func TestShortFuelIntervalStopsAfterEachDrive(t *testing.T) {
	rules := PropertyCarrying()
	rules.FuelIntervalMiles = 20
	rules.FuelMinRemainingMiles = 0

	engine, err := NewHOSEngineWithRules(0, rules)
	require.NoError(t, err)

	segments, summary, err := engine.CalculateTripSegments(550, dallas, tulsa, denver,
		[]domain.RouteLeg{{DistanceMiles: 550, DurationHours: 10}})
	require.NoError(t, err)

	assert.Equal(t, []domain.Segment{
		start(), pickup(), drive(8, 440), brk(), fuel(), drive(2, 110), dropoff(),
	}, segments)
	assert.Equal(t, 1, summary.FuelStops)
}

// Random itineraries must keep every clock inside its limit after each drive
// and cover the full distance.
func TestRandomTripsRespectLimits(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	rules := PropertyCarrying()
	const tol = 1e-6

	for i := 0; i < 200; i++ {
		cycle := math.Round(rng.Float64()*7000) / 100
		n := 1 + rng.Intn(3)
		legs := make([]domain.RouteLeg, n)
		total := 0.0
		for j := range legs {
			miles := math.Round(rng.Float64()*150000) / 100
			speed := 40 + rng.Float64()*25
			legs[j] = domain.RouteLeg{DistanceMiles: miles, DurationHours: math.Round(miles/speed*100) / 100}
			total += miles
		}

		engine, err := NewHOSEngine(cycle)
		require.NoError(t, err)

		drives := 0
		segments, err := engine.plan(total, dallas, tulsa, denver, legs, func(seg domain.Segment, c dutyClock) {
			if seg.Type != domain.SegmentDrive {
				return
			}
			drives++
			assert.LessOrEqual(t, c.driveToday, rules.MaxDrivingHours+tol)
			assert.LessOrEqual(t, c.dutyToday, rules.MaxDutyWindowHours+tol)
			assert.LessOrEqual(t, c.driveSinceBreak, rules.MaxDrivingBeforeBreak+tol)
			assert.LessOrEqual(t, c.cycleHoursUsed, rules.CycleLimitHours+tol)
		})
		require.NoError(t, err, "trip %d: cycle=%v legs=%+v", i, cycle, legs)

		summary := Summarize(segments)
		assert.InDelta(t, total, summary.TotalMiles, 0.005*float64(drives+1)+tol, "trip %d", i)
		assert.Equal(t, domain.SegmentStart, segments[0].Type)
		assert.Equal(t, domain.SegmentDropoff, segments[len(segments)-1].Type)
	}
}
