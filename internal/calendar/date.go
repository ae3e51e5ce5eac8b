// Package calendar aggregates tasks by calendar day for a month grid.
//
// Everything here is pure: callers pass the task collection and "today" on
// every call and nothing is cached between calls.
package calendar

import (
	"fmt"
	"time"
)

const dayLayout = "2006-01-02"

// Date is a calendar day. It carries no time of day and no zone.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// RawDate is a date as it arrives from outside: a StringDate, a NativeDate
// or an already normalized Date. A nil RawDate means "no date".
type RawDate interface {
	isRawDate()
}

// StringDate is an ISO "YYYY-MM-DD" day.
type StringDate string

// NativeDate wraps a time value; only its calendar components in its own
// location are kept.
type NativeDate struct {
	time.Time
}

func (StringDate) isRawDate() {}
func (NativeDate) isRawDate() {}
func (Date) isRawDate()       {}

func NewDate(year int, month time.Month, day int) Date {
	return Date{Year: year, Month: month, Day: day}
}

// FromTime returns the day t falls on in t's own location.
func FromTime(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Year: y, Month: m, Day: d}
}

// ParseDate parses a strict "YYYY-MM-DD" day.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(dayLayout, s)
	if err != nil {
		return Date{}, fmt.Errorf("parse day %q: %w", s, err)
	}
	return FromTime(t), nil
}

// Normalize converts a raw date into its calendar day. It reports false for
// nil, malformed strings, zero times and impossible days.
func Normalize(raw RawDate) (Date, bool) {
	switch v := raw.(type) {
	case nil:
		return Date{}, false
	case StringDate:
		d, err := ParseDate(string(v))
		if err != nil {
			return Date{}, false
		}
		return d, true
	case NativeDate:
		if v.IsZero() {
			return Date{}, false
		}
		return FromTime(v.Time), true
	case Date:
		if !v.valid() {
			return Date{}, false
		}
		return v, true
	default:
		return Date{}, false
	}
}

// SameDay reports whether both inputs name the same calendar day. An absent
// or malformed date never matches anything.
func SameDay(a, b RawDate) bool {
	da, ok := Normalize(a)
	if !ok {
		return false
	}
	db, ok := Normalize(b)
	if !ok {
		return false
	}
	return da == db
}

func (d Date) IsZero() bool {
	return d == Date{}
}

func (d Date) valid() bool {
	if d.IsZero() || d.Month < time.January || d.Month > time.December || d.Day < 1 {
		return false
	}
	return d.Day <= MonthLength(d.Year, d.Month)
}

func (d Date) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, int(d.Month), d.Day)
}

// Time returns midnight of d in loc.
func (d Date) Time(loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, loc)
}

func (d Date) compare(o Date) int {
	switch {
	case d.Year != o.Year:
		return cmpInt(d.Year, o.Year)
	case d.Month != o.Month:
		return cmpInt(int(d.Month), int(o.Month))
	default:
		return cmpInt(d.Day, o.Day)
	}
}

func (d Date) Before(o Date) bool { return d.compare(o) < 0 }
func (d Date) After(o Date) bool  { return d.compare(o) > 0 }
func (d Date) Equal(o Date) bool  { return d == o }

// Weekday uses the proleptic Gregorian calendar.
func (d Date) Weekday() time.Weekday {
	return d.Time(time.UTC).Weekday()
}

// AddDays shifts d by n days, rolling months and years as needed.
func (d Date) AddDays(n int) Date {
	return FromTime(time.Date(d.Year, d.Month, d.Day+n, 0, 0, 0, 0, time.UTC))
}

func (d Date) Window() Window {
	return Window{Year: d.Year, Month: d.Month}
}

// IsPast reports whether day is strictly before today. Today is never past.
func IsPast(day, today Date) bool {
	return day.Before(today)
}

func IsToday(day, today Date) bool {
	return day == today
}

func IsWeekend(day Date) bool {
	wd := day.Weekday()
	return wd == time.Saturday || wd == time.Sunday
}

func cmpInt(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}
