package domain

import (
	"fmt"
	"math"
)

// DutyStatus is one of the four rows of the FMCSA log grid.
type DutyStatus int

const (
	StatusOffDuty DutyStatus = iota
	StatusSleeper
	StatusDriving
	StatusOnDuty
)

var dutyStatusNames = [...]string{
	StatusOffDuty: "offDuty",
	StatusSleeper: "sleeper",
	StatusDriving: "driving",
	StatusOnDuty:  "onDuty",
}

func (s DutyStatus) String() string {
	if s < 0 || int(s) >= len(dutyStatusNames) {
		return fmt.Sprintf("DutyStatus(%d)", int(s))
	}
	return dutyStatusNames[s]
}

func (s DutyStatus) MarshalText() ([]byte, error) {
	if s < 0 || int(s) >= len(dutyStatusNames) {
		return nil, fmt.Errorf("marshal duty status: unknown value %d", int(s))
	}
	return []byte(dutyStatusNames[s]), nil
}

func (s *DutyStatus) UnmarshalText(b []byte) error {
	for i, name := range dutyStatusNames {
		if name == string(b) {
			*s = DutyStatus(i)
			return nil
		}
	}
	return fmt.Errorf("parse duty status: unknown value %q", string(b))
}

// Event is a contiguous span of one duty status inside a single log day, in hours since midnight.
type Event struct {
	StartHour float64    `json:"start"`
	EndHour   float64    `json:"end"`
	Status    DutyStatus `json:"status"`
}

// Remark records where the driver was when a non-driving activity began.
type Remark struct {
	TimeHour float64 `json:"time"`
	Location string  `json:"location"`
}

// Hours per duty status for one day; the four values add up to 24.
type StatusTotals struct {
	OffDuty float64 `json:"off_duty"`
	Sleeper float64 `json:"sleeper"`
	Driving float64 `json:"driving"`
	OnDuty  float64 `json:"on_duty"`
}

func (t StatusTotals) Total() float64 { return t.OffDuty + t.Sleeper + t.Driving + t.OnDuty }

// LogDay is one driver's daily log sheet.
type LogDay struct {
	DayIndex            int          `json:"day"`
	Date                string       `json:"date"`
	Events              []Event      `json:"events"`
	TotalMiles          float64      `json:"total_miles"`
	Totals              StatusTotals `json:"totals"`
	Remarks             []Remark     `json:"remarks"`
	DriverName          string       `json:"driver_name"`
	CoDriver            string       `json:"co_driver"`
	CarrierName         string       `json:"carrier_name"`
	MainOffice          string       `json:"main_office"`
	HomeTerminalAddress string       `json:"home_terminal_address"`
	TruckNumber         string       `json:"truck_number"`
	ShippingDoc         string       `json:"shipping_doc"`
	FromAddress         string       `json:"from_address"`
	ToAddress           string       `json:"to_address"`
}

const tilingTolerance = 1e-6

// ValidateEvents checks that the events tile [0, 24] in order with no gap or overlap.
func (d LogDay) ValidateEvents() error {
	if len(d.Events) == 0 {
		return fmt.Errorf("day %d: no events", d.DayIndex)
	}

	cursor := 0.0
	for i, e := range d.Events {
		if math.Abs(e.StartHour-cursor) > tilingTolerance {
			return fmt.Errorf("day %d: event %d starts at %.4f, want %.4f", d.DayIndex, i, e.StartHour, cursor)
		}
		if e.EndHour <= e.StartHour {
			return fmt.Errorf("day %d: event %d is empty or reversed (%.4f-%.4f)", d.DayIndex, i, e.StartHour, e.EndHour)
		}
		cursor = e.EndHour
	}

	if math.Abs(cursor-24) > tilingTolerance {
		return fmt.Errorf("day %d: events end at %.4f, want 24", d.DayIndex, cursor)
	}

	return nil
}
