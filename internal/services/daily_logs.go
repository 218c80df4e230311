package services

import (
	"eld-trip-service/internal/domain"
	"fmt"
	"math"
	"time"

	"github.com/shopspring/decimal"
)

const logDateLayout = "01/02/2006"

var hoursPerDay = decimal.NewFromInt(24)

// TripStops names the three user-supplied endpoints of a trip.
type TripStops struct {
	Current string
	Pickup  string
	Dropoff string
}

// LogSheetInfo carries the header fields printed on every daily log sheet.
// StartDate labels day one; later days follow on consecutive calendar dates.
type LogSheetInfo struct {
	StartDate    time.Time
	DriverName   string
	CoDriver     string
	CarrierName  string
	MainOffice   string
	HomeTerminal string
	TruckNumber  string
	ShippingDoc  string
}

// daySlice is the part of one segment that falls inside a single log day.
type daySlice struct {
	seg   domain.Segment
	start decimal.Decimal
	end   decimal.Decimal
	miles decimal.Decimal
}

// ConvertToDailyLogs lays the segment plan onto consecutive 24-hour log sheets.
//
// A segment that crosses midnight is split, as many times as needed, and its miles
// are divided in proportion to the time on each side. Every returned day's events
// tile [0, 24]; time after the last activity of the final day is off duty.
func ConvertToDailyLogs(segments []domain.Segment, stops TripStops, info LogSheetInfo) ([]domain.LogDay, error) {
	days, err := splitIntoDays(segments)
	if err != nil {
		return nil, fmt.Errorf("convert to daily logs: %w", err)
	}

	logs := make([]domain.LogDay, 0, len(days))
	for i, slices := range days {
		day := buildLogDay(i, len(days), slices, stops, info)
		if err := day.ValidateEvents(); err != nil {
			return nil, fmt.Errorf("convert to daily logs: %w: %v", domain.ErrInvariantViolation, err)
		}
		logs = append(logs, day)
	}

	return logs, nil
}

func splitIntoDays(segments []domain.Segment) ([][]daySlice, error) {
	var (
		days       [][]daySlice
		current    []daySlice
		cumulative = decimal.Zero
	)

	closeDay := func() {
		days = append(days, current)
		current = nil
		cumulative = decimal.Zero
	}

	for i, seg := range segments {
		if !nonNegative(seg.DurationHours) || !nonNegative(seg.DistanceMiles) {
			return nil, fmt.Errorf(
				"segment %d (%s): duration %v and distance %v must be finite and non-negative",
				i, seg.Type, seg.DurationHours, seg.DistanceMiles,
			)
		}

		duration := decimal.NewFromFloat(seg.DurationHours)
		miles := decimal.NewFromFloat(seg.DistanceMiles)

		if duration.IsZero() {
			current = append(current, daySlice{seg: seg, start: cumulative, end: cumulative, miles: miles})
			continue
		}

		remaining := duration
		milesLeft := miles
		for remaining.IsPositive() {
			part := decimal.Min(hoursPerDay.Sub(cumulative), remaining)

			partMiles := milesLeft
			if part.LessThan(remaining) {
				partMiles = miles.Mul(part).Div(duration)
			}

			current = append(current, daySlice{
				seg:   seg,
				start: cumulative,
				end:   cumulative.Add(part),
				miles: partMiles,
			})

			cumulative = cumulative.Add(part)
			remaining = remaining.Sub(part)
			milesLeft = milesLeft.Sub(partMiles)

			if cumulative.Equal(hoursPerDay) {
				closeDay()
			}
		}
	}

	if len(current) > 0 {
		if hasTime(current) || len(days) == 0 {
			days = append(days, current)
		} else {
			// Only zero-length slices spill past the last midnight; keep their miles on the last day.
			days[len(days)-1] = append(days[len(days)-1], current...)
		}
	}

	return days, nil
}

func hasTime(slices []daySlice) bool {
	for _, s := range slices {
		if s.end.GreaterThan(s.start) {
			return true
		}
	}
	return false
}

func nonNegative(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) && v >= 0 }

func buildLogDay(index, dayCount int, slices []daySlice, stops TripStops, info LogSheetInfo) domain.LogDay {
	day := domain.LogDay{
		DayIndex:            index + 1,
		Date:                info.StartDate.AddDate(0, 0, index).Format(logDateLayout),
		Events:              make([]domain.Event, 0, len(slices)+1),
		Remarks:             []domain.Remark{},
		DriverName:          info.DriverName,
		CoDriver:            info.CoDriver,
		CarrierName:         info.CarrierName,
		MainOffice:          info.MainOffice,
		HomeTerminalAddress: info.HomeTerminal,
		TruckNumber:         info.TruckNumber,
		ShippingDoc:         info.ShippingDoc,
		FromAddress:         EnRouteLocation,
		ToAddress:           EnRouteLocation,
	}
	if index == 0 {
		day.FromAddress = stops.Current
	}
	if index == dayCount-1 {
		day.ToAddress = stops.Dropoff
	}

	miles := decimal.Zero
	cursor := decimal.Zero

	for _, s := range slices {
		status, logged := dutyStatusFor(s.seg.Type)
		if !logged {
			continue
		}

		if s.seg.Type == domain.SegmentDrive {
			miles = miles.Add(s.miles)
		}

		if s.end.GreaterThan(s.start) {
			day.Events = append(day.Events, domain.Event{
				StartHour: s.start.InexactFloat64(),
				EndHour:   s.end.InexactFloat64(),
				Status:    status,
			})
			cursor = s.end
		}

		if isRemarkable(s.seg.Location) {
			day.Remarks = append(day.Remarks, domain.Remark{
				TimeHour: s.start.InexactFloat64(),
				Location: s.seg.Location,
			})
		}
	}

	if cursor.LessThan(hoursPerDay) {
		day.Events = append(day.Events, domain.Event{
			StartHour: cursor.InexactFloat64(),
			EndHour:   24,
			Status:    domain.StatusOffDuty,
		})
	}

	day.TotalMiles = miles.Round(1).InexactFloat64()
	day.Totals = statusTotals(day.Events)

	return day
}

// dutyStatusFor maps a segment to its log-grid row. Start segments mark the
// trip origin only and are not logged.
func dutyStatusFor(t domain.SegmentType) (domain.DutyStatus, bool) {
	switch t {
	case domain.SegmentStart:
		return 0, false
	case domain.SegmentDrive:
		return domain.StatusDriving, true
	case domain.SegmentPickup, domain.SegmentDropoff, domain.SegmentFuel:
		return domain.StatusOnDuty, true
	case domain.SegmentRest:
		return domain.StatusSleeper, true
	case domain.SegmentBreak:
		return domain.StatusOffDuty, true
	}
	return domain.StatusOnDuty, true
}

func isRemarkable(location string) bool {
	return location != "" && location != EnRouteLocation && location != "Highway"
}

func statusTotals(events []domain.Event) domain.StatusTotals {
	var offDuty, sleeper, driving, onDuty []float64
	for _, e := range events {
		d := decimal.NewFromFloat(e.EndHour).Sub(decimal.NewFromFloat(e.StartHour)).InexactFloat64()
		switch e.Status {
		case domain.StatusOffDuty:
			offDuty = append(offDuty, d)
		case domain.StatusSleeper:
			sleeper = append(sleeper, d)
		case domain.StatusDriving:
			driving = append(driving, d)
		case domain.StatusOnDuty:
			onDuty = append(onDuty, d)
		}
	}

	return domain.StatusTotals{
		OffDuty: round2(sum(offDuty...)),
		Sleeper: round2(sum(sleeper...)),
		Driving: round2(sum(driving...)),
		OnDuty:  round2(sum(onDuty...)),
	}
}
