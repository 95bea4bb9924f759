package schedule

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTimeSlotsGrid(t *testing.T) {
	slots := TimeSlots()

	require.Len(t, slots, 27)
	assert.Equal(t, "08:00", slots[0])
	assert.Equal(t, "20:30", slots[25])
	assert.Equal(t, "21:00", slots[26])
	assert.NotContains(t, slots, "21:30")
	assert.NotContains(t, slots, "07:30")

	// Same order on every call.
	assert.Equal(t, slots, TimeSlots())
}

func TestValidSlotTime(t *testing.T) {
	cases := map[string]bool{
		"08:00": true,
		"08:30": true,
		"14:30": true,
		"21:00": true,
		"07:30": false,
		"21:30": false,
		"22:00": false,
		"08:15": false,
		"8:00":  false,
		"":      false,
		"ab:cd": false,
	}
	for in, want := range cases {
		assert.Equal(t, want, ValidSlotTime(in), "slot %q", in)
	}
}

func TestWeekDaysStartsOnMonday(t *testing.T) {
	cases := []struct {
		anchor string
		monday string
	}{
		{"2026-03-09", "2026-03-09"}, // a Monday anchors its own week
		{"2026-03-11", "2026-03-09"}, // mid-week
		{"2026-01-04", "2025-12-29"}, // Sunday crosses the year boundary
		{"2026-03-01", "2026-02-23"}, // Sunday at a month boundary
	}

	for _, tc := range cases {
		anchor, err := time.Parse("2006-01-02", tc.anchor)
		require.NoError(t, err)

		days := WeekDays(anchor)
		require.Len(t, days, 7, "anchor %s", tc.anchor)

		assert.Equal(t, tc.monday, days[0].Format("2006-01-02"), "anchor %s", tc.anchor)
		assert.Equal(t, time.Monday, days[0].Weekday())
		assert.False(t, days[0].After(anchor))

		for i := 1; i < 7; i++ {
			assert.Equal(t, days[i-1].AddDate(0, 0, 1), days[i], "days must be consecutive")
		}
		assert.Equal(t, time.Sunday, days[6].Weekday())
	}
}

func TestSlotKeyInjective(t *testing.T) {
	anchor, err := time.Parse("2006-01-02", "2026-03-11")
	require.NoError(t, err)

	seen := make(map[string]struct{})
	for _, day := range WeekDays(anchor) {
		date := day.Format("2006-01-02")
		for _, slot := range TimeSlots() {
			key := SlotKey(date, slot)
			_, dup := seen[key]
			require.False(t, dup, "duplicate key %q", key)
			seen[key] = struct{}{}
		}
	}
	assert.Len(t, seen, 7*27)
}

func TestSlotKeyDeterministic(t *testing.T) {
	a := Slot{Date: "2026-03-10", Time: "10:00"}
	b := Slot{Date: "2026-03-10", Time: "10:00"}
	assert.Equal(t, a.Key(), b.Key())
	assert.NotEqual(t, a.Key(), Slot{Date: "2026-03-10", Time: "10:30"}.Key())
}
