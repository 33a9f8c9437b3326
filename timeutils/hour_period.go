package timeutils

import "fmt"

// HourPeriod represents a period of the optimization horizon defined by
// hour-of-horizon indexes, e.g. "hour 2160 to hour 6552" for the summer
// months of an hourly full-year run.
//
// The period is inclusive of Start and exclusive of End. Periods may wrap
// around the end of the horizon (End < Start), e.g. a winter period running
// from November into February.
type HourPeriod struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Contains returns true if hour h falls inside the period on an n-hour
// horizon.
func (p HourPeriod) Contains(h, n int) bool {
	if p.Start == p.End {
		return false
	}
	if p.Start < p.End {
		return h >= p.Start && h < p.End
	}
	// wrap-around period
	return h >= p.Start || h < p.End
}

// Validate checks the period against an n-hour horizon.
func (p HourPeriod) Validate(n int) error {
	if p.Start < 0 || p.Start >= n {
		return fmt.Errorf("period start %d outside horizon [0,%d)", p.Start, n)
	}
	if p.End < 0 || p.End > n {
		return fmt.Errorf("period end %d outside horizon [0,%d]", p.End, n)
	}
	return nil
}
