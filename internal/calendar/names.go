package calendar

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Period names the kind of range a periodic note covers.
type Period string

const (
	Daily   Period = "day"
	Weekly  Period = "week"
	Monthly Period = "month"
)

// DayName is the date encoded by a YYYY-MM-DD file name. Month is 0-11.
type DayName struct {
	Year, Month, Day int
}

// WeekName is the week encoded by a YYYY-Www file name.
type WeekName struct {
	Year, Week int
}

// MonthName is the month encoded by a YYYY-<MonthName> file name. Month is 0-11.
type MonthName struct {
	Year, Month int
}

var (
	dayNameRe   = regexp.MustCompile(`^(\d{4})-(\d{2})-(\d{2})(?:\.[^.]+)?$`)
	weekNameRe  = regexp.MustCompile(`^(\d{4})-W(\d{1,2})(?:\.[^.]+)?$`)
	monthNameRe = regexp.MustCompile(`^(\d{4})-([A-Za-z]+)(?:\.[^.]+)?$`)
)

// minMonthPrefix keeps prefix matches unambiguous across English month names.
const minMonthPrefix = 3

// ParseDayName parses YYYY-MM-DD with an optional extension.
// Directories are ignored. Out-of-range months or days are rejected.
func ParseDayName(name string) (DayName, bool) {
	m := dayNameRe.FindStringSubmatch(filepath.Base(name))
	if m == nil {
		return DayName{}, false
	}
	year, _ := strconv.Atoi(m[1])
	month, _ := strconv.Atoi(m[2])
	day, _ := strconv.Atoi(m[3])
	if month < 1 || month > 12 || day < 1 || day > 31 {
		return DayName{}, false
	}
	return DayName{Year: year, Month: month - 1, Day: day}, true
}

// ParseWeekName parses YYYY-Www; the week needs no zero padding.
func ParseWeekName(name string) (WeekName, bool) {
	m := weekNameRe.FindStringSubmatch(filepath.Base(name))
	if m == nil {
		return WeekName{}, false
	}
	year, _ := strconv.Atoi(m[1])
	week, _ := strconv.Atoi(m[2])
	if week < 1 || week > 53 {
		return WeekName{}, false
	}
	return WeekName{Year: year, Week: week}, true
}

// ParseMonthName parses YYYY-<MonthName>. The month matches a full English
// name case-insensitively, or failing that a prefix of at least three letters.
func ParseMonthName(name string) (MonthName, bool) {
	m := monthNameRe.FindStringSubmatch(filepath.Base(name))
	if m == nil {
		return MonthName{}, false
	}
	year, _ := strconv.Atoi(m[1])
	month, ok := lookupMonth(m[2])
	if !ok {
		return MonthName{}, false
	}
	return MonthName{Year: year, Month: month}, true
}

func lookupMonth(s string) (int, bool) {
	s = strings.ToLower(s)
	for i := 0; i < 12; i++ {
		if strings.ToLower(time.Month(i+1).String()) == s {
			return i, true
		}
	}
	if len(s) < minMonthPrefix {
		return 0, false
	}
	for i := 0; i < 12; i++ {
		if strings.HasPrefix(strings.ToLower(time.Month(i+1).String()), s) {
			return i, true
		}
	}
	return 0, false
}

// WindowForName derives the window of a periodic note from its file name,
// trying the day, week and month conventions in that order.
func (c Calendar) WindowForName(name string) (Window, Period, bool) {
	if d, ok := ParseDayName(name); ok {
		return c.Day(d.Year, d.Month, d.Day), Daily, true
	}
	if w, ok := ParseWeekName(name); ok {
		return c.Week(w.Year, w.Week), Weekly, true
	}
	if m, ok := ParseMonthName(name); ok {
		return c.Month(m.Year, m.Month), Monthly, true
	}
	return Window{}, "", false
}

// FormatDay renders t as a YYYY-MM-DD note name (without extension).
func FormatDay(t time.Time) string {
	return t.Format("2006-01-02")
}

// FormatWeek renders a YYYY-Www note name.
func FormatWeek(year, week int) string {
	return fmt.Sprintf("%04d-W%02d", year, week)
}

// FormatMonth renders a YYYY-<MonthName> note name; month is 0-11.
func FormatMonth(year, month int) string {
	return fmt.Sprintf("%04d-%s", year, time.Month(month+1).String())
}

// WeekOf returns the year and week number whose window holds t. Days
// before the first Monday of a year belong to the last week of the
// previous year.
func (c Calendar) WeekOf(t time.Time) (int, int) {
	t = t.In(c.Location())
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, c.Location())
	year := day.Year()
	first := FirstMonday(year, c.Location())
	if day.Before(first) {
		year--
		first = FirstMonday(year, c.Location())
	}
	days := int(day.Sub(first).Hours()+12) / 24
	return year, days/7 + 1
}
