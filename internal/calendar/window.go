// Package calendar computes inclusive day, week and month windows and
// derives them from periodic note file names.
package calendar

import (
	"time"
)

// Window is an inclusive range of instants at day resolution.
// Start is 00:00:00.000 of the first day and End is 23:59:59.999 of the last.
type Window struct {
	Start time.Time
	End   time.Time
	valid bool
}

// Valid reports whether the window was built from an in-range date.
func (w Window) Valid() bool {
	return w.valid && !w.End.Before(w.Start)
}

// Days returns the number of calendar days covered, 0 for an invalid window.
func (w Window) Days() int {
	if !w.Valid() {
		return 0
	}
	n := 0
	for d := w.Start; !d.After(w.End); d = d.AddDate(0, 0, 1) {
		n++
	}
	return n
}

// Calendar builds windows in a fixed location.
type Calendar struct {
	loc *time.Location
}

// New returns a calendar for loc; nil means time.Local.
func New(loc *time.Location) Calendar {
	if loc == nil {
		loc = time.Local
	}
	return Calendar{loc: loc}
}

// Location returns the calendar's location.
func (c Calendar) Location() *time.Location {
	if c.loc == nil {
		return time.Local
	}
	return c.loc
}

// Day returns the window of one calendar day. month is 0-11.
// The day is not checked against the month length: Day(2025, 1, 31)
// rolls over to March 3rd.
func (c Calendar) Day(year, month, day int) Window {
	if !validYear(year) || month < 0 || month > 11 || day < 1 || day > 31 {
		return Window{}
	}
	start := time.Date(year, time.Month(month+1), day, 0, 0, 0, 0, c.Location())
	return Window{Start: start, End: endOfDay(start), valid: true}
}

// Month returns the window from the first to the last day of month (0-11).
func (c Calendar) Month(year, month int) Window {
	if !validYear(year) || month < 0 || month > 11 {
		return Window{}
	}
	start := time.Date(year, time.Month(month+1), 1, 0, 0, 0, 0, c.Location())
	// day 0 of the next month is the last day of this one
	last := time.Date(year, time.Month(month+2), 0, 0, 0, 0, 0, c.Location())
	return Window{Start: start, End: endOfDay(last), valid: true}
}

// Week returns the Monday-first window of week (1-53) in year.
//
// Week 1 starts on the first Monday of the year. This is not ISO-8601
// numbering: there is no first-Thursday rule, so days before the first
// Monday belong to no week of the year.
func (c Calendar) Week(year, week int) Window {
	if !validYear(year) || week < 1 || week > 53 {
		return Window{}
	}
	monday := FirstMonday(year, c.Location()).AddDate(0, 0, (week-1)*7)
	sunday := monday.AddDate(0, 0, 6)
	return Window{Start: monday, End: endOfDay(sunday), valid: true}
}

// Containing returns the window of the day that holds t.
func (c Calendar) Containing(t time.Time) Window {
	t = t.In(c.Location())
	return c.Day(t.Year(), int(t.Month())-1, t.Day())
}

// Today returns the window of the current day.
func (c Calendar) Today() Window {
	return c.Containing(timeNow())
}

// FirstMonday returns midnight of the first Monday of year in loc.
func FirstMonday(year int, loc *time.Location) time.Time {
	jan1 := time.Date(year, time.January, 1, 0, 0, 0, 0, loc)
	switch wd := jan1.Weekday(); wd {
	case time.Monday:
		return jan1
	case time.Sunday:
		return jan1.AddDate(0, 0, 1)
	default:
		return jan1.AddDate(0, 0, 8-int(wd))
	}
}

func endOfDay(d time.Time) time.Time {
	return time.Date(d.Year(), d.Month(), d.Day(), 23, 59, 59, int(999*time.Millisecond), d.Location())
}

func validYear(year int) bool {
	return year >= 1 && year <= 9999
}

var timeNow = time.Now
