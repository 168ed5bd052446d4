// Package datecalc holds the calendar arithmetic used by the request
// lifecycle and the attendance sweep. Every date it returns is midnight UTC of
// a calendar day, so comparisons never depend on the caller's timezone.
package datecalc

import (
	"errors"
	"strings"
	"time"
)

var ErrInvalidDate = errors.New("invalid date")

// Normalize keeps the calendar day t falls on in its own location and
// returns midnight UTC of that day.
func Normalize(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// Parse accepts RFC3339 or YYYY-MM-DD. Timestamps with an offset resolve to
// their UTC calendar day.
func Parse(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, ErrInvalidDate
	}
	if parsed, err := time.Parse(time.RFC3339, value); err == nil {
		return Normalize(parsed.UTC()), nil
	}
	parsed, err := time.Parse("2006-01-02", value)
	if err != nil {
		return time.Time{}, ErrInvalidDate
	}
	return parsed, nil
}

// Today returns the canonical date of now.
func Today(now time.Time) time.Time {
	return Normalize(now)
}

// IsRestDay reports whether t is one of the two weekly rest days, Friday and
// Saturday.
func IsRestDay(t time.Time) bool {
	switch Normalize(t).Weekday() {
	case time.Friday, time.Saturday:
		return true
	}
	return false
}

// BusinessDays counts the non-rest days in [start, end] inclusive. It returns
// 0 when end is before start.
func BusinessDays(start, end time.Time) int {
	start, end = Normalize(start), Normalize(end)
	if end.Before(start) {
		return 0
	}
	days := 0
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		if !IsRestDay(d) {
			days++
		}
	}
	return days
}

// Covers reports whether day lies within [start, end] inclusive.
func Covers(start, end, day time.Time) bool {
	day = Normalize(day)
	return !day.Before(Normalize(start)) && !day.After(Normalize(end))
}

// Overlaps reports whether two inclusive date ranges share a calendar day.
func Overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	return !Normalize(aStart).After(Normalize(bEnd)) && !Normalize(bStart).After(Normalize(aEnd))
}
