package schedule

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustInstant(t *testing.T, clock *Clock, date, hhmm string) time.Time {
	t.Helper()
	at, err := clock.SlotInstant(date, hhmm)
	require.NoError(t, err)
	return at
}

func TestClassify(t *testing.T) {
	clock := newTestClock(time.Date(2026, 3, 9, 12, 0, 0, 0, testZone))
	cal := NewCalendar(clock)
	now := clock.Now()

	cases := []struct {
		date, hhmm string
		want       TemporalStatus
	}{
		{"2026-03-09", "08:00", StatusToday}, // earlier today is still today
		{"2026-03-09", "20:30", StatusToday},
		{"2026-03-08", "10:00", StatusOverdue},
		{"2025-12-31", "09:00", StatusOverdue},
		{"2026-03-10", "08:00", StatusFuture},
		{"2026-07-01", "21:00", StatusFuture},
	}

	for _, tc := range cases {
		a := Appointment{ScheduledAt: mustInstant(t, clock, tc.date, tc.hhmm)}
		got := cal.Classify(a, now)
		assert.Equal(t, tc.want, got, "%s %s", tc.date, tc.hhmm)

		// Total and mutually exclusive: exactly one of the three.
		statuses := map[TemporalStatus]bool{StatusToday: false, StatusOverdue: false, StatusFuture: false}
		_, known := statuses[got]
		assert.True(t, known)
	}
}

func TestBuildWeekBuckets(t *testing.T) {
	clock := newTestClock(time.Date(2026, 3, 9, 12, 0, 0, 0, testZone))
	cal := NewCalendar(clock)

	appts := []Appointment{
		{ID: 1, ScheduledAt: mustInstant(t, clock, "2026-03-10", "10:00")},
		{ID: 2, ScheduledAt: mustInstant(t, clock, "2026-03-10", "10:30")},
		{ID: 3, ScheduledAt: mustInstant(t, clock, "2026-03-13", "21:00")},
	}

	anchor := time.Date(2026, 3, 11, 0, 0, 0, 0, testZone)
	grid := cal.BuildWeek(anchor, appts)

	require.Len(t, grid.Days, 7)
	assert.Equal(t, "2026-03-09", grid.Days[0].Format("2006-01-02"))
	require.Len(t, grid.Slots, 27)

	cell := grid.Cells[SlotKey("2026-03-10", "10:00")]
	require.Len(t, cell, 1)
	assert.Equal(t, int64(1), cell[0].ID)

	assert.Len(t, grid.Cells[SlotKey("2026-03-10", "10:30")], 1)
	assert.Len(t, grid.Cells[SlotKey("2026-03-13", "21:00")], 1)
	assert.Empty(t, grid.Cells[SlotKey("2026-03-10", "11:00")])
}

func TestBuildWeekKeepsCollisions(t *testing.T) {
	clock := newTestClock(time.Date(2026, 3, 9, 12, 0, 0, 0, testZone))
	cal := NewCalendar(clock)

	at := mustInstant(t, clock, "2026-03-10", "10:00")
	grid := cal.BuildWeek(at, []Appointment{{ID: 1, ScheduledAt: at}, {ID: 2, ScheduledAt: at}})

	// Legacy data can hold two occupants; both must survive the projection.
	assert.Len(t, grid.Cells[SlotKey("2026-03-10", "10:00")], 2)
}

func TestBuildWeekSkipsUnkeyableInstants(t *testing.T) {
	clock := newTestClock(time.Date(2026, 3, 9, 12, 0, 0, 0, testZone))
	cal := NewCalendar(clock)

	grid := cal.BuildWeek(clock.Now(), []Appointment{{ID: 1}}) // zero ScheduledAt
	assert.Empty(t, grid.Cells)
}

func TestNavigate(t *testing.T) {
	clock := newTestClock(time.Date(2026, 3, 9, 12, 0, 0, 0, testZone))
	cal := NewCalendar(clock)

	anchor := time.Date(2026, 3, 11, 0, 0, 0, 0, testZone)

	prev := cal.Navigate(anchor, DirectionPrevious)
	next := cal.Navigate(anchor, DirectionNext)
	today := cal.Navigate(anchor, DirectionToday)

	assert.Equal(t, anchor.AddDate(0, 0, -7), prev)
	assert.Equal(t, anchor.AddDate(0, 0, 7), next)
	assert.Equal(t, "2026-03-09", today.Format("2006-01-02"))
}

func TestWeekGridAt(t *testing.T) {
	clock := newTestClock(time.Date(2026, 3, 9, 12, 0, 0, 0, testZone))
	cal := NewCalendar(clock)

	at := mustInstant(t, clock, "2026-03-10", "10:00")
	grid := cal.BuildWeek(at, []Appointment{{ID: 7, ScheduledAt: at}})

	day := time.Date(2026, 3, 10, 0, 0, 0, 0, testZone)
	require.Len(t, grid.At(day, "10:00"), 1)
	assert.Empty(t, grid.At(day, "10:30"))
}
