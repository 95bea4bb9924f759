package schedule

import (
	"fmt"
	"time"
)

// UnknownKey is returned for instants that cannot be resolved to a local
// date or time. Callers treat it as matching no grid cell.
const UnknownKey = "unknown"

const (
	dateKeyLayout = "2006-01-02"
	timeKeyLayout = "15:04"
)

// Clock is the single source of truth for "now" and local-day boundaries.
// The clinic runs in one fixed zone per deployment; every stored instant
// is UTC and only crosses into wall-clock terms through this type.
type Clock struct {
	loc   *time.Location
	nowFn func() time.Time
}

func NewClock(loc *time.Location) *Clock {
	if loc == nil {
		loc = time.UTC
	}
	return &Clock{loc: loc, nowFn: time.Now}
}

func (c *Clock) Location() *time.Location { return c.loc }

func (c *Clock) Now() time.Time {
	return c.nowFn().UTC()
}

// StartOfToday is 00:00:00 of the current local day, as a UTC instant.
func (c *Clock) StartOfToday() time.Time {
	now := c.nowFn().In(c.loc)
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, c.loc).UTC()
}

// EndOfToday is the start of the next local day.
func (c *Clock) EndOfToday() time.Time {
	now := c.nowFn().In(c.loc)
	return time.Date(now.Year(), now.Month(), now.Day()+1, 0, 0, 0, 0, c.loc).UTC()
}

// LocalDateKey renders an instant as "YYYY-MM-DD" in the clinic zone.
func (c *Clock) LocalDateKey(t time.Time) string {
	if t.IsZero() {
		return UnknownKey
	}
	return t.In(c.loc).Format(dateKeyLayout)
}

// LocalTimeKey renders an instant as "HH:MM" in the clinic zone.
func (c *Clock) LocalTimeKey(t time.Time) string {
	if t.IsZero() {
		return UnknownKey
	}
	return t.In(c.loc).Format(timeKeyLayout)
}

// SlotInstant resolves a local (date, time) pair to the UTC instant the
// store keeps. This is the only place wall-clock strings are parsed.
func (c *Clock) SlotInstant(date, hhmm string) (time.Time, error) {
	t, err := time.ParseInLocation(dateKeyLayout+" "+timeKeyLayout, date+" "+hhmm, c.loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse slot %s %s: %w", date, hhmm, err)
	}
	return t.UTC(), nil
}

// LocalDate resolves a "YYYY-MM-DD" string to local midnight of that day.
func (c *Clock) LocalDate(date string) (time.Time, error) {
	t, err := time.ParseInLocation(dateKeyLayout, date, c.loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse date %s: %w", date, err)
	}
	return t, nil
}
