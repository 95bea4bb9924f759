package schedule

import (
	"fmt"
	"time"
)

// The booking grid runs 08:00 through 21:00 inclusive in half-hour steps,
// 27 slots per day.
const (
	gridOpenHour  = 8
	gridCloseHour = 21
)

// Slot addresses one (day, time) cell of the weekly grid in local terms.
type Slot struct {
	Date string // "YYYY-MM-DD"
	Time string // "HH:MM"
}

func (s Slot) Key() string { return SlotKey(s.Date, s.Time) }

// SlotKey is the composite bucket key for a grid cell. Equal (date, time)
// pairs always produce equal keys.
func SlotKey(date, hhmm string) string {
	return date + "-" + hhmm
}

// TimeSlots returns the 27 valid slot times in grid order, a fresh slice
// on every call.
func TimeSlots() []string {
	slots := make([]string, 0, 27)
	for hour := gridOpenHour; hour <= gridCloseHour; hour++ {
		slots = append(slots, fmt.Sprintf("%02d:00", hour))
		if hour != gridCloseHour {
			slots = append(slots, fmt.Sprintf("%02d:30", hour))
		}
	}
	return slots
}

// ValidSlotTime reports whether hhmm is one of the grid's slot times.
func ValidSlotTime(hhmm string) bool {
	if len(hhmm) != 5 || hhmm[2] != ':' {
		return false
	}
	var hour, min int
	if _, err := fmt.Sscanf(hhmm, "%02d:%02d", &hour, &min); err != nil {
		return false
	}
	if hour < gridOpenHour || hour > gridCloseHour {
		return false
	}
	if min != 0 && min != 30 {
		return false
	}
	// The last slot of the day is 21:00, not 21:30.
	if hour == gridCloseHour && min == 30 {
		return false
	}
	return true
}

// StartOfWeek returns the Monday on or before anchor, at local midnight.
func StartOfWeek(anchor time.Time) time.Time {
	y, m, d := anchor.Date()
	day := time.Date(y, m, d, 0, 0, 0, 0, anchor.Location())
	diff := int(day.Weekday()) - int(time.Monday)
	if diff < 0 { // Sunday belongs to the week that started six days earlier
		diff += 7
	}
	return day.AddDate(0, 0, -diff)
}

// WeekDays returns the 7 consecutive days, Monday first, of the ISO week
// containing anchor.
func WeekDays(anchor time.Time) []time.Time {
	monday := StartOfWeek(anchor)
	days := make([]time.Time, 7)
	for i := range days {
		days[i] = monday.AddDate(0, 0, i)
	}
	return days
}
