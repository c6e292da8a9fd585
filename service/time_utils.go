package service

import (
	"time"
)

// NormalizeDate truncates a timestamp to the start of its day in UTC.
// All store-date keys (anomaly dates, day aggregates) use this form.
func NormalizeDate(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// DayBounds returns the half-open [start, end) interval covering the
// date's day in UTC
func DayBounds(date time.Time) (time.Time, time.Time) {
	start := NormalizeDate(date)
	return start, start.AddDate(0, 0, 1)
}
