package timeutil

import (
	"testing"
	"time"
)

func chicago(t *testing.T) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation("America/Chicago")
	if err != nil {
		t.Fatalf("loading zone: %v", err)
	}
	return loc
}

func TestDayRange(t *testing.T) {
	loc := chicago(t)
	at := time.Date(2024, 1, 18, 14, 30, 0, 0, loc)
	start, end := DayRange(at, loc)
	if !start.Equal(time.Date(2024, 1, 18, 0, 0, 0, 0, loc)) {
		t.Errorf("start = %v", start)
	}
	if !end.Equal(time.Date(2024, 1, 18, 23, 59, 59, 0, loc)) {
		t.Errorf("end = %v", end)
	}
}

func TestDayRange_ConvertsZone(t *testing.T) {
	loc := chicago(t)
	// 03:00 UTC on the 19th is still the 18th in Chicago.
	at := time.Date(2024, 1, 19, 3, 0, 0, 0, time.UTC)
	start, _ := DayRange(at, loc)
	if start.Day() != 18 {
		t.Errorf("expected day 18, got %d", start.Day())
	}
}

func TestWeekRange(t *testing.T) {
	loc := chicago(t)
	tests := []struct {
		name string
		at   time.Time
	}{
		{"monday", time.Date(2024, 1, 15, 9, 0, 0, 0, loc)},
		{"thursday", time.Date(2024, 1, 18, 9, 0, 0, 0, loc)},
		{"sunday", time.Date(2024, 1, 21, 22, 0, 0, 0, loc)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			start, end := WeekRange(tt.at, loc)
			if !start.Equal(time.Date(2024, 1, 15, 0, 0, 0, 0, loc)) {
				t.Errorf("start = %v, want Mon Jan 15", start)
			}
			if !end.Equal(time.Date(2024, 1, 21, 23, 59, 59, 0, loc)) {
				t.Errorf("end = %v, want Sun Jan 21", end)
			}
		})
	}
}

func TestEndOfDay(t *testing.T) {
	loc := chicago(t)
	got := EndOfDay(time.Date(2024, 1, 18, 8, 0, 0, 0, loc), loc)
	if got.Hour() != 23 || got.Minute() != 59 {
		t.Errorf("got %v", got)
	}
}

func TestParseISO(t *testing.T) {
	loc := chicago(t)
	tests := []struct {
		in   string
		want time.Time
	}{
		{"2024-01-20T12:00:00-06:00", time.Date(2024, 1, 20, 18, 0, 0, 0, time.UTC)},
		{"2024-01-20T12:00:00Z", time.Date(2024, 1, 20, 12, 0, 0, 0, time.UTC)},
		{"2024-01-20T12:00:00", time.Date(2024, 1, 20, 12, 0, 0, 0, loc)},
		{"2024-01-20T12:00", time.Date(2024, 1, 20, 12, 0, 0, 0, loc)},
		{"2024-01-20 09:15", time.Date(2024, 1, 20, 9, 15, 0, 0, loc)},
		{"2024-01-20", time.Date(2024, 1, 20, 0, 0, 0, 0, loc)},
	}
	for _, tt := range tests {
		got, err := ParseISO(tt.in, loc)
		if err != nil {
			t.Errorf("ParseISO(%q): %v", tt.in, err)
			continue
		}
		if !got.Equal(tt.want) {
			t.Errorf("ParseISO(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestParseISO_Invalid(t *testing.T) {
	loc := chicago(t)
	for _, in := range []string{"", "   ", "next tuesday", "2024-13-45"} {
		if _, err := ParseISO(in, loc); err == nil {
			t.Errorf("ParseISO(%q): expected error", in)
		}
	}
}

func TestStorageRoundTrip(t *testing.T) {
	loc := chicago(t)
	in := time.Date(2024, 1, 20, 12, 0, 0, 500, loc)
	s := FormatStorage(in)
	if s != "2024-01-20T18:00:00Z" {
		t.Errorf("FormatStorage = %q", s)
	}
	out, err := ParseStorage(s)
	if err != nil {
		t.Fatalf("ParseStorage: %v", err)
	}
	if !out.Equal(in.Truncate(time.Second)) {
		t.Errorf("round trip = %v, want %v", out, in)
	}
}

func TestDisplay(t *testing.T) {
	loc := chicago(t)
	tests := []struct {
		at   time.Time
		want string
	}{
		{time.Date(2024, 1, 18, 14, 0, 0, 0, loc), "Thu Jan 18 at 2pm"},
		{time.Date(2024, 1, 18, 14, 30, 0, 0, loc), "Thu Jan 18 at 2:30pm"},
		{time.Date(2024, 1, 18, 0, 5, 0, 0, loc), "Thu Jan 18 at 12:05am"},
		{time.Date(2024, 1, 18, 12, 0, 0, 0, loc), "Thu Jan 18 at 12pm"},
		// Rendered in the user's zone, not the value's.
		{time.Date(2024, 1, 18, 20, 0, 0, 0, time.UTC), "Thu Jan 18 at 2pm"},
	}
	for _, tt := range tests {
		if got := Display(tt.at, loc); got != tt.want {
			t.Errorf("Display(%v) = %q, want %q", tt.at, got, tt.want)
		}
	}
}

func TestDisplay_Zero(t *testing.T) {
	if got := Display(time.Time{}, time.UTC); got != "" {
		t.Errorf("expected empty, got %q", got)
	}
}
