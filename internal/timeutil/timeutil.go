// Package timeutil holds the timezone-aware date helpers shared by the store,
// the prompt builder and the briefings.
package timeutil

import (
	"fmt"
	"strings"
	"time"
)

// StorageLayout is the on-disk form of every timestamp. Values are written in
// UTC so that lexical order in SQL equals chronological order.
const StorageLayout = time.RFC3339

// DayRange returns 00:00:00 and 23:59:59 of the calendar day containing t,
// in loc.
func DayRange(t time.Time, loc *time.Location) (time.Time, time.Time) {
	t = t.In(loc)
	start := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
	end := time.Date(t.Year(), t.Month(), t.Day(), 23, 59, 59, 0, loc)
	return start, end
}

// WeekRange returns Monday 00:00:00 through Sunday 23:59:59 of the week
// containing t, in loc.
func WeekRange(t time.Time, loc *time.Location) (time.Time, time.Time) {
	t = t.In(loc)
	sinceMonday := (int(t.Weekday()) + 6) % 7
	monday := t.AddDate(0, 0, -sinceMonday)
	sunday := monday.AddDate(0, 0, 6)
	start, _ := DayRange(monday, loc)
	_, end := DayRange(sunday, loc)
	return start, end
}

// EndOfDay returns 23:59 on the day of t, the default task deadline time.
func EndOfDay(t time.Time, loc *time.Location) time.Time {
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 23, 59, 0, 0, loc)
}

var parseLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	time.DateOnly,
}

// ParseISO parses an ISO 8601 timestamp. Values without an offset are taken
// to be in loc. A bare date is midnight in loc.
func ParseISO(s string, loc *time.Location) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("empty timestamp")
	}
	for i, layout := range parseLayouts {
		var t time.Time
		var err error
		if i == 0 {
			t, err = time.Parse(layout, s)
		} else {
			t, err = time.ParseInLocation(layout, s, loc)
		}
		if err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", s)
}

// FormatISO renders t as RFC 3339 in its own zone.
func FormatISO(t time.Time) string {
	return t.Format(time.RFC3339)
}

// FormatStorage renders t for the database.
func FormatStorage(t time.Time) string {
	return t.UTC().Truncate(time.Second).Format(StorageLayout)
}

// ParseStorage reads a timestamp written by FormatStorage.
func ParseStorage(s string) (time.Time, error) {
	return time.Parse(StorageLayout, s)
}

// Display formats t like "Thu Jan 18 at 2pm" or "Thu Jan 18 at 2:30pm".
func Display(t time.Time, loc *time.Location) string {
	if t.IsZero() {
		return ""
	}
	t = t.In(loc)
	return t.Format("Mon Jan 2") + " at " + Clock(t)
}

// Clock formats the time of day of t like "2pm" or "2:30pm".
func Clock(t time.Time) string {
	if t.Minute() == 0 {
		return t.Format("3pm")
	}
	return t.Format("3:04pm")
}
