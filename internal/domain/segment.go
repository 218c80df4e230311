package domain

import (
	"fmt"
	"math"
)

// SegmentType classifies one span of a planned trip.
type SegmentType int

const (
	SegmentStart SegmentType = iota
	SegmentPickup
	SegmentDropoff
	SegmentDrive
	SegmentRest
	SegmentBreak
	SegmentFuel
)

var segmentTypeNames = [...]string{
	SegmentStart:   "start",
	SegmentPickup:  "pickup",
	SegmentDropoff: "dropoff",
	SegmentDrive:   "drive",
	SegmentRest:    "rest",
	SegmentBreak:   "break",
	SegmentFuel:    "fuel",
}

func (t SegmentType) String() string {
	if t < 0 || int(t) >= len(segmentTypeNames) {
		return fmt.Sprintf("SegmentType(%d)", int(t))
	}
	return segmentTypeNames[t]
}

func (t SegmentType) MarshalText() ([]byte, error) {
	if t < 0 || int(t) >= len(segmentTypeNames) {
		return nil, fmt.Errorf("marshal segment type: unknown value %d", int(t))
	}
	return []byte(segmentTypeNames[t]), nil
}

func (t *SegmentType) UnmarshalText(b []byte) error {
	parsed, err := ParseSegmentType(string(b))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// ParseSegmentType maps the wire name ("drive", "rest", ...) back to a SegmentType.
func ParseSegmentType(s string) (SegmentType, error) {
	for i, name := range segmentTypeNames {
		if name == s {
			return SegmentType(i), nil
		}
	}
	return 0, fmt.Errorf("parse segment type: unknown value %q", s)
}

// Segment is one entry of the chronological duty plan produced by the HOS engine.
// Only drive segments carry distance.
type Segment struct {
	Type          SegmentType `json:"type"`
	DurationHours float64     `json:"duration"`
	DistanceMiles float64     `json:"distance"`
	Location      string      `json:"location"`
}

// RouteLeg is one geographic leg of the planned route as reported by the router.
type RouteLeg struct {
	DistanceMiles float64 `json:"distance"`
	DurationHours float64 `json:"duration"`
}

// Validate rejects negative or non-finite legs.
func (l RouteLeg) Validate() error {
	if !finiteNonNegative(l.DistanceMiles) {
		return fmt.Errorf("%w: distance %v", ErrInvalidRouteLeg, l.DistanceMiles)
	}
	if !finiteNonNegative(l.DurationHours) {
		return fmt.Errorf("%w: duration %v", ErrInvalidRouteLeg, l.DurationHours)
	}
	return nil
}

func finiteNonNegative(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0) && v >= 0
}
