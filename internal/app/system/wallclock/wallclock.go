// Package wallclock parses and compares agency-local calendar values.
//
// Dates are "YYYY-MM-DD" and times are "HH:MM". Both are wall-clock values in
// the agency's own zone; nothing here converts between time zones. Dates are
// anchored at UTC midnight only so that day arithmetic is exact.
package wallclock

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/dalemusser/carecoord/internal/app/system/apperr"
)

// DateLayout is the storage format for calendar dates.
const DateLayout = "2006-01-02"

// MinutesPerDay bounds a parsed clock value; "24:00" is accepted as end of day.
const MinutesPerDay = 24 * 60

// ParseClock converts "HH:MM" to minutes since midnight.
func ParseClock(s string) (int, error) {
	s = strings.TrimSpace(s)
	hh, mm, ok := strings.Cut(s, ":")
	if !ok || len(mm) != 2 || len(hh) == 0 || len(hh) > 2 {
		return 0, apperr.Validation("invalid time %q: expected HH:MM", s)
	}
	h, err := strconv.Atoi(hh)
	if err != nil {
		return 0, apperr.Validation("invalid time %q: expected HH:MM", s)
	}
	m, err := strconv.Atoi(mm)
	if err != nil {
		return 0, apperr.Validation("invalid time %q: expected HH:MM", s)
	}
	if h < 0 || m < 0 || m > 59 {
		return 0, apperr.Validation("invalid time %q: out of range", s)
	}
	total := h*60 + m
	if total > MinutesPerDay {
		return 0, apperr.Validation("invalid time %q: out of range", s)
	}
	return total, nil
}

// FormatClock renders minutes since midnight as "HH:MM".
func FormatClock(minutes int) string {
	h := minutes / 60
	m := minutes % 60
	return pad2(h) + ":" + pad2(m)
}

func pad2(n int) string {
	if n < 10 {
		return "0" + strconv.Itoa(n)
	}
	return strconv.Itoa(n)
}

// ParseRange parses a [start, end) window and requires end > start.
func ParseRange(start, end string) (int, int, error) {
	s, err := ParseClock(start)
	if err != nil {
		return 0, 0, err
	}
	e, err := ParseClock(end)
	if err != nil {
		return 0, 0, err
	}
	if e <= s {
		return 0, 0, apperr.Validation("end time %s must be after start time %s", end, start)
	}
	return s, e, nil
}

// ParseDate parses "YYYY-MM-DD" to midnight UTC.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, apperr.Validation("invalid date %q: expected YYYY-MM-DD", s)
	}
	return t, nil
}

// FormatDate renders t's calendar date as "YYYY-MM-DD".
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

// Weekday returns the day of week for date, 0 = Sunday.
func Weekday(date string) (int, error) {
	t, err := ParseDate(date)
	if err != nil {
		return 0, err
	}
	return int(t.Weekday()), nil
}

// AddDays shifts date by n calendar days.
func AddDays(date string, n int) (string, error) {
	t, err := ParseDate(date)
	if err != nil {
		return "", err
	}
	return FormatDate(t.AddDate(0, 0, n)), nil
}

// DaysBetween returns round((to - from) / 24h).
func DaysBetween(from, to string) (int, error) {
	f, err := ParseDate(from)
	if err != nil {
		return 0, err
	}
	t, err := ParseDate(to)
	if err != nil {
		return 0, err
	}
	return int(math.Round(t.Sub(f).Hours() / 24)), nil
}

// WeekDates returns the seven dates starting at weekStart.
func WeekDates(weekStart string) ([]string, error) {
	t, err := ParseDate(weekStart)
	if err != nil {
		return nil, err
	}
	out := make([]string, 7)
	for i := range out {
		out[i] = FormatDate(t.AddDate(0, 0, i))
	}
	return out, nil
}

// WeekEnd returns the last date of the seven-day week starting at weekStart.
func WeekEnd(weekStart string) (string, error) {
	return AddDays(weekStart, 6)
}
