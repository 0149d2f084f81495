package analytics

import "time"

// Week is a seven day bucket starting on a Monday. Every weekly view in the
// package buckets through WeekOf so charts and flags share boundaries.
type Week struct {
	Start time.Time
}

// WeekOf returns the Monday-anchored week containing d.
func WeekOf(d time.Time) Week {
	d = DateOnly(d)
	daysToMonday := (int(d.Weekday()) + 6) % 7
	return Week{Start: d.AddDate(0, 0, -daysToMonday)}
}

// End is the last day (Sunday) of the week.
func (w Week) End() time.Time {
	return w.Start.AddDate(0, 0, 6)
}

// Next returns the following week.
func (w Week) Next() Week {
	return Week{Start: w.Start.AddDate(0, 0, 7)}
}

// Contains reports whether d falls on one of the week's days.
func (w Week) Contains(d time.Time) bool {
	return WeekOf(d).Start.Equal(w.Start)
}

// Before orders weeks chronologically.
func (w Week) Before(o Week) bool {
	return w.Start.Before(o.Start)
}

// AdjacentTo reports whether o starts exactly seven days after w.
func (w Week) AdjacentTo(o Week) bool {
	return w.Next().Start.Equal(o.Start)
}

func (w Week) String() string {
	return w.Start.Format(DateLayout)
}

// MarshalText renders the week as its start date.
func (w Week) MarshalText() ([]byte, error) {
	return []byte(w.String()), nil
}
