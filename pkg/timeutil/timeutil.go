// Package timeutil provides study-time arithmetic for learning path planning.
// Handles completion-date projection, study-week math, and day-level
// comparisons. No external dependencies - uses only standard library.
package timeutil

import (
	"time"
)

// MinutesPerWeek is the number of minutes in a calendar week.
const MinutesPerWeek = 7 * 24 * 60

// WeeksNeeded returns the number of whole study weeks required to cover
// totalMinutes of content at weeklyMinutes of study per week, rounded up.
// A non-positive weekly budget is treated as one minute per week so the
// projection stays finite.
func WeeksNeeded(totalMinutes, weeklyMinutes int) int {
	if totalMinutes <= 0 {
		return 0
	}
	if weeklyMinutes <= 0 {
		weeklyMinutes = 1
	}
	return (totalMinutes + weeklyMinutes - 1) / weeklyMinutes
}

// CompletionDate projects the expected completion date for totalMinutes of
// adjusted content duration given a weekly study budget.
func CompletionDate(start time.Time, totalMinutes, weeklyMinutes int) time.Time {
	return start.AddDate(0, 0, 7*WeeksNeeded(totalMinutes, weeklyMinutes))
}

// StartOfDay returns the start of the day (00:00:00) in the time's location.
func StartOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// EndOfDay returns the end of the day (23:59:59.999999999) in the time's location.
func EndOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 23, 59, 59, 999999999, t.Location())
}

// SameDay checks whether two times fall on the same calendar day.
func SameDay(a, b time.Time) bool {
	return a.Year() == b.Year() && a.Month() == b.Month() && a.Day() == b.Day()
}

// DaysBetween calculates the number of whole days between two times,
// ignoring the time-of-day component.
func DaysBetween(from, to time.Time) int {
	f := StartOfDay(from)
	t := StartOfDay(to)
	return int(t.Sub(f).Hours() / 24)
}

// FormatDate formats a time as YYYY-MM-DD.
func FormatDate(t time.Time) string {
	return t.Format("2006-01-02")
}

// ParseDate parses a YYYY-MM-DD date string in UTC.
func ParseDate(s string) (time.Time, error) {
	return time.Parse("2006-01-02", s)
}
