package jobsettings

import (
	"testing"
	"time"
)

func TestDisplayStorageRoundTrip(t *testing.T) {
	offset := 240 * time.Minute

	cases := []struct {
		display int
		storage int
	}{
		{0, 240},
		{9 * 60, 13 * 60},
		{22 * 60, 2 * 60},  // wraps past midnight
		{23*60 + 59, 239},  // wraps to early morning
	}

	for _, tc := range cases {
		if got := DisplayToStorage(tc.display, offset); got != tc.storage {
			t.Errorf("DisplayToStorage(%d) = %d, want %d", tc.display, got, tc.storage)
		}
		if got := StorageToDisplay(tc.storage, offset); got != tc.display {
			t.Errorf("StorageToDisplay(%d) = %d, want %d", tc.storage, got, tc.display)
		}
	}
}

func TestWindowContains(t *testing.T) {
	end := 17 * 60
	cases := []struct {
		name  string
		start int
		end   *int
		now   int
		want  bool
	}{
		{"before start", 9 * 60, &end, 8 * 60, false},
		{"at start", 9 * 60, &end, 9 * 60, true},
		{"inside", 9 * 60, &end, 12 * 60, true},
		{"at end is closed", 9 * 60, &end, 17 * 60, false},
		{"after end", 9 * 60, &end, 18 * 60, false},
		{"nil end stays open", 9 * 60, nil, 23*60 + 59, true},
		{"nil end still gated by start", 9 * 60, nil, 8 * 60, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := WindowContains(tc.start, tc.end, tc.now); got != tc.want {
				t.Fatalf("WindowContains(%d, %v, %d) = %v, want %v", tc.start, tc.end, tc.now, got, tc.want)
			}
		})
	}
}

func TestWeekdayEligible(t *testing.T) {
	offset := 240 * time.Minute

	// 01:00 UTC Tuesday is 21:00 Monday in the display domain.
	asOf := time.Date(2026, 3, 3, 1, 0, 0, 0, time.UTC)

	if !WeekdayEligible(nil, asOf, offset) {
		t.Error("empty weekday list should allow every day")
	}
	if !WeekdayEligible([]int16{int16(time.Monday)}, asOf, offset) {
		t.Error("expected Monday to be eligible in the display domain")
	}
	if WeekdayEligible([]int16{int16(time.Tuesday)}, asOf, offset) {
		t.Error("Tuesday is the storage-domain weekday, not the display one")
	}
}

func TestDisplayDayBounds(t *testing.T) {
	offset := 240 * time.Minute
	asOf := time.Date(2026, 3, 3, 1, 0, 0, 0, time.UTC) // display: Mar 2 21:00

	start, end := DisplayDayBounds(asOf, offset)

	wantStart := time.Date(2026, 3, 2, 4, 0, 0, 0, time.UTC)
	if !start.Equal(wantStart) {
		t.Errorf("day start = %v, want %v", start, wantStart)
	}
	if !end.Equal(wantStart.Add(24 * time.Hour)) {
		t.Errorf("day end = %v, want %v", end, wantStart.Add(24*time.Hour))
	}
	if !asOf.After(start) || !asOf.Before(end) {
		t.Error("asOf should fall inside its own display day bounds")
	}
}

func TestParseClock(t *testing.T) {
	got, err := ParseClock("09:30")
	if err != nil {
		t.Fatalf("ParseClock: %v", err)
	}
	if got != 9*60+30 {
		t.Errorf("ParseClock(09:30) = %d, want %d", got, 9*60+30)
	}

	for _, bad := range []string{"", "banana", "24:00", "09:60", "-1:00"} {
		if _, err := ParseClock(bad); err == nil {
			t.Errorf("ParseClock(%q) should fail", bad)
		}
	}
}

func TestFormatClock(t *testing.T) {
	if got := FormatClock(9*60 + 5); got != "09:05" {
		t.Errorf("FormatClock = %q, want 09:05", got)
	}
	if got := FormatClock(25 * 60); got != "01:00" {
		t.Errorf("FormatClock should wrap, got %q", got)
	}
}
