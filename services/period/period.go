// Package period maps the fixed daily period grid onto wall-clock time.
//
// Period p spans [08:00 + p*1h, 08:00 + (p+1)*1h) on its calendar date. Reservations and
// timetable blocks use inclusive period ranges.
package period

import (
	"fmt"
	"time"
)

const (
	// FirstHour is the wall-clock hour at which period 0 starts.
	FirstHour = 8
	// PerDay is the number of periods in the daily grid (08:00-22:00).
	PerDay = 14
	// DateLayout is the calendar date format stored on reservations.
	DateLayout = "2006-01-02"
)

// Range is an inclusive period range.
type Range struct {
	Start int
	End   int
}

// Overlaps reports whether two inclusive ranges share at least one period.
func (r Range) Overlaps(o Range) bool {
	return !(r.End < o.Start || r.Start > o.End)
}

// Slots is the number of periods covered by the range.
func (r Range) Slots() int {
	return r.End - r.Start + 1
}

// Valid reports whether the range is ordered and lies inside the grid.
func (r Range) Valid() bool {
	return r.Start >= 0 && r.End < PerDay && r.Start <= r.End
}

// ParseError is returned for malformed date or period data on a stored record.
type ParseError struct {
	Value string
	Err   error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("time parsing error for %q: %v", e.Value, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// ParseDate parses a "2006-01-02" calendar date at midnight in loc.
func ParseDate(date string, loc *time.Location) (time.Time, error) {
	d, err := time.ParseInLocation(DateLayout, date, loc)
	if err != nil {
		return time.Time{}, &ParseError{Value: date, Err: err}
	}
	return d, nil
}

// FormatDate renders t as a calendar date in its own location.
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

// StartHour is the wall-clock hour at which period p starts.
func StartHour(p int) int { return FirstHour + p }

// EndHour is the wall-clock hour at which period p ends.
func EndHour(p int) int { return FirstHour + p + 1 }

// StartInstant is the instant period p starts on date.
func StartInstant(date string, p int, loc *time.Location) (time.Time, error) {
	return instant(date, p, StartHour(p), loc)
}

// EndInstant is the instant period p ends on date.
func EndInstant(date string, p int, loc *time.Location) (time.Time, error) {
	return instant(date, p, EndHour(p), loc)
}

func instant(date string, p, hour int, loc *time.Location) (time.Time, error) {
	if p < 0 || p >= PerDay {
		return time.Time{}, &ParseError{Value: fmt.Sprintf("%s#%d", date, p), Err: fmt.Errorf("period %d outside grid [0,%d)", p, PerDay)}
	}
	d, err := ParseDate(date, loc)
	if err != nil {
		return time.Time{}, err
	}
	return time.Date(d.Year(), d.Month(), d.Day(), hour, 0, 0, 0, loc), nil
}

// StartClock renders the start of period p as "HH:00".
func StartClock(p int) string {
	return fmt.Sprintf("%02d:00", StartHour(p))
}

// EndClock renders the end of period p as "HH:00".
func EndClock(p int) string {
	return fmt.Sprintf("%02d:00", EndHour(p))
}

// WeekdayLabel returns the English three-letter weekday of t ("Mon".."Sun").
func WeekdayLabel(t time.Time) string {
	return t.Weekday().String()[:3]
}
