package jobsettings

import (
	"fmt"
	"time"
)

// Job windows are stored as wall-clock minutes since midnight in the storage
// time domain, which sits a fixed offset ahead of the operator's display
// timezone. All conversion between the two domains happens here. Stored
// window ends may wrap past midnight; openness is therefore always evaluated
// back in the display domain, where start < end holds.

const minutesPerDay = 24 * 60

// DisplayToStorage converts a displayed minutes-of-day value to the storage domain.
func DisplayToStorage(displayMinutes int, offset time.Duration) int {
	return wrapMinutes(displayMinutes + int(offset.Minutes()))
}

// StorageToDisplay converts a stored minutes-of-day value to the display domain.
func StorageToDisplay(storageMinutes int, offset time.Duration) int {
	return wrapMinutes(storageMinutes - int(offset.Minutes()))
}

func wrapMinutes(m int) int {
	m %= minutesPerDay
	if m < 0 {
		m += minutesPerDay
	}
	return m
}

// MinutesOfDay returns the wall-clock minutes since midnight of t in UTC,
// which is the storage time domain.
func MinutesOfDay(t time.Time) int {
	utc := t.UTC()
	return utc.Hour()*60 + utc.Minute()
}

// WindowContains reports whether nowMinutes falls inside [start, end).
// A nil end means the window stays open until midnight.
// All arguments must be in the display domain, where start < end holds.
func WindowContains(startMinutes int, endMinutes *int, nowMinutes int) bool {
	if nowMinutes < startMinutes {
		return false
	}
	if endMinutes == nil {
		return true
	}
	return nowMinutes < *endMinutes
}

// WeekdayEligible reports whether the display-domain weekday of asOf is
// allowed. An empty weekday list allows every day.
func WeekdayEligible(weekdays []int16, asOf time.Time, offset time.Duration) bool {
	if len(weekdays) == 0 {
		return true
	}
	displayDay := asOf.UTC().Add(-offset).Weekday()
	for _, wd := range weekdays {
		if time.Weekday(wd) == displayDay {
			return true
		}
	}
	return false
}

// DisplayDayBounds returns the absolute UTC instants that bound the current
// day as seen in the display timezone. The daily call cap is counted over
// this interval.
func DisplayDayBounds(asOf time.Time, offset time.Duration) (time.Time, time.Time) {
	display := asOf.UTC().Add(-offset)
	dayStart := time.Date(display.Year(), display.Month(), display.Day(), 0, 0, 0, 0, time.UTC)
	return dayStart.Add(offset), dayStart.Add(offset).Add(24 * time.Hour)
}

// ParseClock parses an "HH:MM" wall-clock string to minutes since midnight.
func ParseClock(s string) (int, error) {
	var h, m int
	if _, err := fmt.Sscanf(s, "%d:%d", &h, &m); err != nil {
		return 0, fmt.Errorf("invalid time %q: expected HH:MM", s)
	}
	if h < 0 || h > 23 || m < 0 || m > 59 {
		return 0, fmt.Errorf("invalid time %q: out of range", s)
	}
	return h*60 + m, nil
}

// FormatClock renders minutes since midnight as "HH:MM".
func FormatClock(minutes int) string {
	minutes = wrapMinutes(minutes)
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}
