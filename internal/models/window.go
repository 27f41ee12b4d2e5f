package models

import "time"

// TimeWindow is a half-open interval: Start inclusive, End exclusive.
type TimeWindow struct {
	Start time.Time
	End   time.Time
}

// Contains reports whether t falls inside the window.
func (w TimeWindow) Contains(t time.Time) bool {
	return !t.Before(w.Start) && t.Before(w.End)
}

// Days returns the window length in whole days, rounded up.
func (w TimeWindow) Days() int {
	d := w.End.Sub(w.Start)
	days := int(d / (24 * time.Hour))
	if d%(24*time.Hour) != 0 {
		days++
	}
	return days
}

// DayWindow returns the calendar-day window containing t, in t's location.
func DayWindow(t time.Time) TimeWindow {
	start := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	return TimeWindow{Start: start, End: start.AddDate(0, 0, 1)}
}

// ISOWeekWindow returns the ISO week window (Monday 00:00 to the next
// Monday 00:00) containing t.
func ISOWeekWindow(t time.Time) TimeWindow {
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	offset := (int(day.Weekday()) + 6) % 7
	start := day.AddDate(0, 0, -offset)
	return TimeWindow{Start: start, End: start.AddDate(0, 0, 7)}
}

// MonthWindow returns the calendar-month window containing t.
func MonthWindow(t time.Time) TimeWindow {
	start := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
	return TimeWindow{Start: start, End: start.AddDate(0, 1, 0)}
}
