package domain

import "errors"

var (
	// Cycle hours already used must lie in [0, 70].
	ErrInvalidCycleHours = errors.New("invalid cycle hours")

	// A route leg carried a negative (or non-finite) distance or duration.
	ErrInvalidRouteLeg = errors.New("invalid route leg")

	// The HOS engine or log builder reached a state its rules should make impossible.
	ErrInvariantViolation = errors.New("hos engine invariant violation")

	ErrTripNotFound    = errors.New("trip not found")
	ErrGeocodeNotFound = errors.New("no geocode result")
	ErrNoRoute         = errors.New("no route found")
)
