package emi

import "time"

// DateOnly strips the time-of-day component, keeping the location.
func DateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// DaysBetween returns the whole number of calendar days from one date to
// another (negative if to precedes from).
func DaysBetween(from, to time.Time) int {
	f := DateOnly(from).UTC()
	t := DateOnly(to).UTC()
	return int(t.Sub(f).Hours() / 24)
}

// AddMonths advances a date by the given number of calendar months, clamping
// the day-of-month to the last day of shorter months (Jan 31 + 1 month is
// Feb 28, not Mar 3).
func AddMonths(t time.Time, months int) time.Time {
	y, m, d := t.Date()
	anchor := time.Date(y, m, 1, 0, 0, 0, 0, t.Location()).AddDate(0, months, 0)
	if last := daysInMonth(anchor.Year(), anchor.Month()); d > last {
		d = last
	}
	return time.Date(anchor.Year(), anchor.Month(), d, 0, 0, 0, 0, t.Location())
}

func daysInMonth(year int, month time.Month) int {
	// Day 0 of the next month is the last day of this one
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
