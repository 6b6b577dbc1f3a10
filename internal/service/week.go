package service

import "time"

const dateLayout = "2006-01-02"

// startOfWeek truncates a timestamp to its Monday 00:00 UTC.
func startOfWeek(t time.Time) time.Time {
	t = t.UTC()
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	offset := (int(day.Weekday()) + 6) % 7
	return day.AddDate(0, 0, -offset)
}
