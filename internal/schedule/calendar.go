package schedule

import "time"

// TemporalStatus is the presentational classification of an appointment
// relative to the current local day. It never filters what is fetched.
type TemporalStatus string

const (
	StatusToday   TemporalStatus = "today"
	StatusOverdue TemporalStatus = "overdue"
	StatusFuture  TemporalStatus = "future"
)

// Direction moves the calendar anchor by whole weeks.
type Direction string

const (
	DirectionPrevious Direction = "previous"
	DirectionNext     Direction = "next"
	DirectionToday    Direction = "today"
)

// WeekGrid is the renderable 7x27 projection of one week's appointments.
// Cells maps slot keys to the appointments occupying that cell; a cell can
// legitimately hold more than one entry (legacy collisions must render).
type WeekGrid struct {
	Days  []time.Time
	Slots []string
	Cells map[string][]Appointment
}

// At looks up the occupants of one grid cell.
func (g *WeekGrid) At(day time.Time, slot string) []Appointment {
	return g.Cells[SlotKey(day.Format(dateKeyLayout), slot)]
}

// Calendar builds week grids and classifies appointments. The grid is a
// pure projection recomputed from the authoritative list on every call;
// nothing here is cached or patched in place.
type Calendar struct {
	clock *Clock
}

func NewCalendar(clock *Clock) *Calendar {
	return &Calendar{clock: clock}
}

// BuildWeek buckets appointments into the week containing anchor. Anchor
// is interpreted in the clinic zone. Appointments whose instant cannot be
// keyed are skipped rather than breaking the render.
func (c *Calendar) BuildWeek(anchor time.Time, appts []Appointment) *WeekGrid {
	grid := &WeekGrid{
		Days:  WeekDays(anchor.In(c.clock.loc)),
		Slots: TimeSlots(),
		Cells: make(map[string][]Appointment),
	}

	for _, a := range appts {
		date := c.clock.LocalDateKey(a.ScheduledAt)
		hhmm := c.clock.LocalTimeKey(a.ScheduledAt)
		if date == UnknownKey || hhmm == UnknownKey {
			continue
		}
		key := SlotKey(date, hhmm)
		grid.Cells[key] = append(grid.Cells[key], a)
	}

	return grid
}

// Classify maps an appointment to exactly one temporal status: today when
// it falls on the current local day, overdue when it precedes the start of
// today, future otherwise.
func (c *Calendar) Classify(a Appointment, now time.Time) TemporalStatus {
	if c.clock.LocalDateKey(a.ScheduledAt) == c.clock.LocalDateKey(now) {
		return StatusToday
	}
	if a.ScheduledAt.Before(c.clock.StartOfToday()) {
		return StatusOverdue
	}
	return StatusFuture
}

// Navigate shifts the anchor a whole week back or forward, or resets it to
// the current date. The caller re-runs BuildWeek after navigating.
func (c *Calendar) Navigate(anchor time.Time, dir Direction) time.Time {
	switch dir {
	case DirectionPrevious:
		return anchor.AddDate(0, 0, -7)
	case DirectionNext:
		return anchor.AddDate(0, 0, 7)
	default:
		now := c.Now().In(c.clock.loc)
		return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, c.clock.loc)
	}
}

// Now exposes the calendar's clock reading for callers that classify.
func (c *Calendar) Now() time.Time {
	return c.clock.Now()
}
