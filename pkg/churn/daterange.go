package churn

import (
	"fmt"
	"strings"
	"time"
)

// DateRange is an inclusive range of calendar dates.
// Start and End are stored as midnight UTC of their dates.
type DateRange struct {
	Start time.Time
	End   time.Time
}

// NewDateRange truncates start and end to their calendar dates and fails with
// ErrInvalidRange when start is after end.
func NewDateRange(start, end time.Time) (DateRange, error) {
	rng := DateRange{Start: calendarDate(start), End: calendarDate(end)}

	err := rng.Validate()
	if err != nil {
		return DateRange{}, err
	}

	return rng, nil
}

// ParseDateRange parses two ISO-8601 dates (YYYY-MM-DD).
func ParseDateRange(start, end string) (DateRange, error) {
	startDate, err := ParseDate(start)
	if err != nil {
		return DateRange{}, err
	}

	endDate, err := ParseDate(end)
	if err != nil {
		return DateRange{}, err
	}

	return NewDateRange(startDate, endDate)
}

// ParseDate parses YYYY-MM-DD, also accepting a full RFC 3339 timestamp
// whose local date is used.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)

	parsed, err := time.Parse(time.DateOnly, s)
	if err == nil {
		return parsed, nil
	}

	parsed, rfcErr := time.Parse(time.RFC3339, s)
	if rfcErr == nil {
		return calendarDate(parsed), nil
	}

	return time.Time{}, fmt.Errorf("%w: invalid date %q, use YYYY-MM-DD", ErrInvalidRange, s)
}

// Validate reports ErrInvalidRange when Start is after End.
func (r DateRange) Validate() error {
	if r.Start.After(r.End) {
		return fmt.Errorf("%w: start %s is after end %s", ErrInvalidRange,
			r.Start.Format(time.DateOnly), r.End.Format(time.DateOnly))
	}

	return nil
}

// Contains reports whether the calendar date of t, read in t's own location,
// lies within the range.
func (r DateRange) Contains(t time.Time) bool {
	d := calendarDate(t)

	return !d.Before(r.Start) && !d.After(r.End)
}

func (r DateRange) String() string {
	return r.Start.Format(time.DateOnly) + ".." + r.End.Format(time.DateOnly)
}

// calendarDate maps t to midnight UTC of its date in t's location.
func calendarDate(t time.Time) time.Time {
	y, m, d := t.Date()

	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// commitDate is midnight of the commit's date in the commit's own offset.
func commitDate(t time.Time) time.Time {
	y, m, d := t.Date()

	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
