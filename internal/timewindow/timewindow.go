// Package timewindow maps the dashboard's lookback periods to time bounds.
package timewindow

import "time"

// Period is one of the dashboard lookback periods.
type Period string

const (
	LastWeek    Period = "lastweek"
	LastMonth   Period = "lastmonth"
	Last3Months Period = "last3months"
	All         Period = "all"
)

var known = []Period{LastWeek, LastMonth, Last3Months, All}

// Epoch is the lower bound used for the all-time period.
var Epoch = time.Unix(0, 0).UTC()

// Parse returns the period for name. Unrecognized names fall back to All.
func Parse(name string) Period {
	for _, p := range known {
		if string(p) == name {
			return p
		}
	}
	return All
}

// IsKnown reports whether name is one of the enumerated periods.
func IsKnown(name string) bool {
	for _, p := range known {
		if string(p) == name {
			return true
		}
	}
	return false
}

// Names lists the enumerated period names.
func Names() []string {
	names := make([]string, 0, len(known))
	for _, p := range known {
		names = append(names, string(p))
	}
	return names
}

// Start returns the inclusive lower bound of the window ending at now.
func (p Period) Start(now time.Time) time.Time {
	now = now.UTC()
	switch p {
	case LastWeek:
		return now.Add(-7 * 24 * time.Hour)
	case LastMonth:
		return now.AddDate(0, -1, 0)
	case Last3Months:
		return now.AddDate(0, -3, 0)
	default:
		return Epoch
	}
}

// PreviousStart returns the start of the window of equal length that
// precedes the current one. ok is false for All.
func (p Period) PreviousStart(now time.Time) (start time.Time, ok bool) {
	now = now.UTC()
	switch p {
	case LastWeek:
		return now.Add(-14 * 24 * time.Hour), true
	case LastMonth:
		return now.AddDate(0, -2, 0), true
	case Last3Months:
		return now.AddDate(0, -6, 0), true
	default:
		return time.Time{}, false
	}
}

// Bounded reports whether the period has a finite lookback.
func (p Period) Bounded() bool {
	return p != All
}
