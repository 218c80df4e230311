package services

import (
	"eld-trip-service/internal/domain"
	"fmt"
	"math"
)

// Locations the engine assigns to the stops it inserts.
const (
	EnRouteLocation  = "En route"
	RestAreaLocation = "Rest Area"
	FuelLocation     = "Fuel Station"
	RestartLocation  = "34hr Restart"
)

// HOSEngine turns a routed itinerary into a chronological plan of duty segments
// that respects the driving, duty-window, break, fuel and cycle rules.
//
// The engine is immutable after construction; each call works on its own clock,
// so one engine may serve concurrent callers.
type HOSEngine struct {
	rules     HOSRules
	cycleUsed float64
}

// NewHOSEngine builds an engine for a property-carrying driver who has already
// used cycleUsed hours of the 70-hour cycle.
func NewHOSEngine(cycleUsed float64) (*HOSEngine, error) {
	return NewHOSEngineWithRules(cycleUsed, PropertyCarrying())
}

func NewHOSEngineWithRules(cycleUsed float64, rules HOSRules) (*HOSEngine, error) {
	if err := rules.Validate(); err != nil {
		return nil, fmt.Errorf("new hos engine: %w", err)
	}

	if math.IsNaN(cycleUsed) || cycleUsed < 0 || cycleUsed > rules.CycleLimitHours {
		return nil, fmt.Errorf(
			"new hos engine: %w: %v must be between 0 and %v",
			domain.ErrInvalidCycleHours, cycleUsed, rules.CycleLimitHours,
		)
	}

	return &HOSEngine{rules: rules, cycleUsed: cycleUsed}, nil
}

func (e *HOSEngine) Rules() HOSRules { return e.rules }

// RemainingCycle is the cycle budget left when the trip starts.
func (e *HOSEngine) RemainingCycle() float64 { return e.rules.CycleLimitHours - e.cycleUsed }

// CalculateTripSegments plans the trip start -> pickup -> legs -> dropoff.
//
// Drive segments are rounded to two decimals. If the legs run out before
// totalDistance is covered, the rest is driven at the average speed.
func (e *HOSEngine) CalculateTripSegments(
	totalDistance float64,
	startLocation string,
	pickupLocation string,
	dropoffLocation string,
	routeLegs []domain.RouteLeg,
) ([]domain.Segment, domain.TripSummary, error) {
	segments, err := e.plan(totalDistance, startLocation, pickupLocation, dropoffLocation, routeLegs, nil)
	if err != nil {
		return nil, domain.TripSummary{}, fmt.Errorf("calculate trip segments: %w", err)
	}

	return segments, Summarize(segments), nil
}

// clockObserver sees every emitted segment together with the clock right after it.
type clockObserver func(seg domain.Segment, clock dutyClock)

type planner struct {
	rules    HOSRules
	clock    dutyClock
	segments []domain.Segment
	observe  clockObserver
}

func (e *HOSEngine) plan(
	totalDistance float64,
	startLocation string,
	pickupLocation string,
	dropoffLocation string,
	routeLegs []domain.RouteLeg,
	observe clockObserver,
) ([]domain.Segment, error) {
	if math.IsNaN(totalDistance) || math.IsInf(totalDistance, 0) || totalDistance < 0 {
		return nil, fmt.Errorf("%w: total distance %v", domain.ErrInvalidRouteLeg, totalDistance)
	}
	for i, leg := range routeLegs {
		if err := leg.Validate(); err != nil {
			return nil, fmt.Errorf("leg %d: %w", i+1, err)
		}
	}

	p := &planner{
		rules: e.rules,
		clock: dutyClock{
			cycleHoursUsed:    e.cycleUsed,
			remainingDistance: totalDistance,
		},
		segments: make([]domain.Segment, 0, 4+2*len(routeLegs)),
		observe:  observe,
	}

	p.emit(domain.Segment{Type: domain.SegmentStart, Location: startLocation})
	p.onDuty(domain.SegmentPickup, e.rules.PickupHours, pickupLocation)

	for i, leg := range routeLegs {
		if err := p.driveLeg(leg.DurationHours); err != nil {
			return nil, fmt.Errorf("leg %d: %w", i+1, err)
		}
	}

	if p.clock.remainingDistance > epsilon {
		tail := p.clock.remainingDistance / e.rules.AverageSpeedMPH
		if err := p.driveLeg(tail); err != nil {
			return nil, fmt.Errorf("tail leg: %w", err)
		}
	}

	p.onDuty(domain.SegmentDropoff, e.rules.DropoffHours, dropoffLocation)

	return p.segments, nil
}

func (p *planner) emit(seg domain.Segment) {
	p.segments = append(p.segments, seg)
	if p.observe != nil {
		p.observe(seg, p.clock)
	}
}

// onDuty records on-duty, not-driving time (pickup, dropoff).
func (p *planner) onDuty(kind domain.SegmentType, hours float64, location string) {
	p.clock.dutyToday += hours
	p.clock.cycleHoursUsed += hours
	p.emit(domain.Segment{Type: kind, DurationHours: hours, Location: location})
}

// driveLeg consumes one leg, inserting rests, breaks, fuel stops and restarts as the rules demand.
func (p *planner) driveLeg(legHours float64) error {
	maxIterations := p.rules.iterationBudget(min(legHours, p.clock.remainingDistance/p.rules.AverageSpeedMPH))

	for iter := 0; legHours > epsilon && p.clock.remainingDistance > epsilon; iter++ {
		if float64(iter) >= maxIterations {
			return fmt.Errorf("%w: leg not finished after %d iterations", domain.ErrInvariantViolation, iter)
		}

		switch next := p.rules.nextAction(p.clock); next {
		case actionRest:
			p.rest()
		case actionBreak:
			p.takeBreak()
		case actionFuel:
			p.fuel()
		case actionRestart:
			p.restart()
		case actionDrive:
			available := p.rules.driveAvailable(p.clock)
			if available <= epsilon {
				return fmt.Errorf(
					"%w: drive selected with %.9fh available (drive=%.4f duty=%.4f since_break=%.4f cycle=%.4f)",
					domain.ErrInvariantViolation, available,
					p.clock.driveToday, p.clock.dutyToday, p.clock.driveSinceBreak, p.clock.cycleHoursUsed,
				)
			}
			legHours -= p.drive(available, legHours)
		default:
			return fmt.Errorf("%w: unknown action %v", domain.ErrInvariantViolation, next)
		}
	}

	return nil
}

// drive emits one drive segment and returns the hours driven.
func (p *planner) drive(available, legHours float64) float64 {
	speed := p.rules.AverageSpeedMPH
	hours := min(available, legHours, p.clock.remainingDistance/speed)
	miles := min(hours*speed, p.clock.remainingDistance)

	p.clock.remainingDistance -= miles
	p.clock.driveToday += hours
	p.clock.dutyToday += hours
	p.clock.driveSinceBreak += hours
	p.clock.cycleHoursUsed += hours
	p.clock.milesSinceFuel += miles

	p.emit(domain.Segment{
		Type:          domain.SegmentDrive,
		DurationHours: round2(hours),
		DistanceMiles: round2(miles),
		Location:      EnRouteLocation,
	})

	return hours
}

// rest is the 10-hour off-duty period that restores the 11- and 14-hour clocks.
func (p *planner) rest() {
	p.clock.driveToday = 0
	p.clock.dutyToday = 0
	p.clock.driveSinceBreak = 0
	p.emit(domain.Segment{Type: domain.SegmentRest, DurationHours: p.rules.RestHours, Location: RestAreaLocation})
}

// takeBreak counts against the duty window but clears only the 8-hour driving clock.
func (p *planner) takeBreak() {
	p.clock.dutyToday += p.rules.BreakHours
	p.clock.driveSinceBreak = 0
	p.emit(domain.Segment{Type: domain.SegmentBreak, DurationHours: p.rules.BreakHours, Location: RestAreaLocation})
}

func (p *planner) fuel() {
	p.clock.dutyToday += p.rules.FuelStopHours
	p.clock.cycleHoursUsed += p.rules.FuelStopHours
	p.clock.milesSinceFuel = 0
	p.emit(domain.Segment{Type: domain.SegmentFuel, DurationHours: p.rules.FuelStopHours, Location: FuelLocation})
}

// restart is the 34-hour off-duty period that also resets the 70-hour cycle.
func (p *planner) restart() {
	p.clock.driveToday = 0
	p.clock.dutyToday = 0
	p.clock.driveSinceBreak = 0
	p.clock.cycleHoursUsed = 0
	p.emit(domain.Segment{Type: domain.SegmentRest, DurationHours: p.rules.RestartHours, Location: RestartLocation})
}

// Summarize totals a segment plan by duty status and stop kind.
func Summarize(segments []domain.Segment) domain.TripSummary {
	var (
		s                                  domain.TripSummary
		miles, driving, onDuty, off, sleep []float64
		all                                []float64
	)

	for _, seg := range segments {
		all = append(all, seg.DurationHours)

		switch seg.Type {
		case domain.SegmentStart:
		case domain.SegmentDrive:
			miles = append(miles, seg.DistanceMiles)
			driving = append(driving, seg.DurationHours)
		case domain.SegmentPickup, domain.SegmentDropoff:
			onDuty = append(onDuty, seg.DurationHours)
		case domain.SegmentFuel:
			onDuty = append(onDuty, seg.DurationHours)
			s.FuelStops++
		case domain.SegmentBreak:
			off = append(off, seg.DurationHours)
			s.Breaks++
		case domain.SegmentRest:
			sleep = append(sleep, seg.DurationHours)
			if seg.Location == RestartLocation {
				s.CycleRestarts++
			} else {
				s.RestStops++
			}
		}
	}

	s.TotalMiles = round2(sum(miles...))
	s.DrivingHours = round2(sum(driving...))
	s.OnDutyHours = round2(sum(onDuty...))
	s.OffDutyHours = round2(sum(off...))
	s.SleeperHours = round2(sum(sleep...))
	s.TripHours = round2(sum(all...))

	return s
}
