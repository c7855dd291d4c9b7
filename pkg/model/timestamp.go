package model

import (
	"fmt"
	"strings"
	"time"
)

// TimestampLayout is the wire format for booking times (yyyy-MM-dd HH:mm).
const TimestampLayout = "2006-01-02 15:04"

// DayLayout is the wire format for calendar days.
const DayLayout = "2006-01-02"

// ClockLayout is the wire format for a time of day (HH:mm).
const ClockLayout = "15:04"

// ParseTimestamp parses a boundary timestamp in loc and truncates it to second precision.
func ParseTimestamp(s string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.UTC
	}
	t, err := time.ParseInLocation(TimestampLayout, strings.TrimSpace(s), loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid timestamp %q, expected %s", s, "yyyy-MM-dd HH:mm")
	}
	return t.Truncate(time.Second), nil
}

// FormatTimestamp renders t in loc using TimestampLayout.
func FormatTimestamp(t time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.UTC
	}
	return t.In(loc).Format(TimestampLayout)
}

// ParseDay returns midnight of the given yyyy-MM-dd day in loc.
func ParseDay(s string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.UTC
	}
	t, err := time.ParseInLocation(DayLayout, strings.TrimSpace(s), loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid day %q, expected yyyy-MM-dd", s)
	}
	return t, nil
}

// EndOfDay is the clock value for the midnight that closes a day.
const EndOfDay = "24:00"

// ParseClock parses HH:mm into an offset from midnight. "24:00" is accepted as
// the end of the day.
func ParseClock(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if s == EndOfDay {
		return 24 * time.Hour, nil
	}
	t, err := time.Parse(ClockLayout, s)
	if err != nil {
		return 0, fmt.Errorf("invalid time of day %q, expected HH:mm", s)
	}
	return time.Duration(t.Hour())*time.Hour + time.Duration(t.Minute())*time.Minute, nil
}

// Normalize truncates t to the second precision used by the stores.
func Normalize(t time.Time) time.Time {
	return t.Truncate(time.Second)
}
