package service

import (
	"time"

	"todo-planner/internal/model"
)

// NextOccurrence advances due by one recurrence step. It returns nil when
// either argument is missing or the pattern is not recognized.
func NextOccurrence(pattern *model.Recurrence, due *time.Time) *time.Time {
	if pattern == nil || due == nil {
		return nil
	}

	var next time.Time
	switch *pattern {
	case model.RecurDaily:
		next = due.AddDate(0, 0, 1)
	case model.RecurWeekly:
		next = due.AddDate(0, 0, 7)
	case model.RecurMonthly:
		next = addMonth(*due)
	default:
		return nil
	}
	return &next
}

// addMonth keeps the day of month when the target month has it and clamps
// to the last day otherwise (Jan 31 -> Feb 28/29).
func addMonth(t time.Time) time.Time {
	year, month, day := t.Date()
	month++
	if month > time.December {
		month = time.January
		year++
	}
	if last := daysInMonth(month, year); day > last {
		day = last
	}
	hour, min, sec := t.Clock()
	return time.Date(year, month, day, hour, min, sec, t.Nanosecond(), t.Location())
}

func daysInMonth(month time.Month, year int) int {
	// Day 0 of the next month is the last day of this one.
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
