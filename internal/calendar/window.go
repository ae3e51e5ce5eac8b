package calendar

import (
	"fmt"
	"time"
)

const windowLayout = "2006-01"

// Window is the month currently displayed by a calendar.
type Window struct {
	Year  int
	Month time.Month
}

// WindowOf returns the month containing d.
func WindowOf(d Date) Window {
	return d.Window()
}

// ParseWindow parses a "YYYY-MM" month.
func ParseWindow(s string) (Window, error) {
	t, err := time.Parse(windowLayout, s)
	if err != nil {
		return Window{}, fmt.Errorf("parse month %q: %w", s, err)
	}
	return Window{Year: t.Year(), Month: t.Month()}, nil
}

func (w Window) String() string {
	return fmt.Sprintf("%04d-%02d", w.Year, int(w.Month))
}

// Previous returns the month before w; January rolls back to December.
func (w Window) Previous() Window {
	return w.shift(-1)
}

// Next returns the month after w; December rolls over to January.
func (w Window) Next() Window {
	return w.shift(1)
}

func (w Window) shift(months int) Window {
	t := time.Date(w.Year, w.Month+time.Month(months), 1, 0, 0, 0, 0, time.UTC)
	return Window{Year: t.Year(), Month: t.Month()}
}

func (w Window) Len() int {
	return MonthLength(w.Year, w.Month)
}

func (w Window) FirstWeekdayOffset() int {
	return FirstWeekdayOffset(w.Year, w.Month)
}

// Day returns day n of the month. n is not range checked.
func (w Window) Day(n int) Date {
	return Date{Year: w.Year, Month: w.Month, Day: n}
}

func (w Window) Contains(d Date) bool {
	return d.Year == w.Year && d.Month == w.Month
}

// MonthLength is the number of days in the month: day 0 of the following
// month is the last day of this one.
func MonthLength(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// FirstWeekdayOffset is the weekday of the 1st (Sunday = 0), i.e. the number
// of empty cells before day 1 in a Sunday-first grid.
func FirstWeekdayOffset(year int, month time.Month) int {
	return int(time.Date(year, month, 1, 0, 0, 0, 0, time.UTC).Weekday())
}
