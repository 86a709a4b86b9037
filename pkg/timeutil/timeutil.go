// Package timeutil formats memo timestamps in the fixed UTC+8 offset
// the store relies on. The layout is fixed-width, so comparing two
// formatted timestamps as strings gives the same answer as comparing
// the instants they encode.
package timeutil

import (
	"fmt"
	"time"
)

// Layout keeps millisecond precision and a numeric zone so every
// formatted value has identical width.
const Layout = "2006-01-02T15:04:05.000Z07:00"

// DateLayout is the calendar-date form used in URLs and stats keys.
const DateLayout = "2006-01-02"

// Offset is the fixed zone all timestamps are rendered in (UTC+8).
var Offset = time.FixedZone("UTC+8", 8*60*60)

// Format renders t in the fixed offset.
func Format(t time.Time) string {
	return t.In(Offset).Format(Layout)
}

// Now returns the current instant formatted for storage.
func Now() string {
	return Format(time.Now())
}

// Parse reads a stored timestamp back into a time.Time.
func Parse(s string) (time.Time, error) {
	return time.Parse(Layout, s)
}

// DayRange returns the half-open [start, end) bounds of one calendar
// day in the fixed offset, formatted for string comparison against
// stored timestamps. The start is inclusive, the end is the start of
// the following day and exclusive.
func DayRange(date string) (start, end string, err error) {
	d, err := time.ParseInLocation(DateLayout, date, Offset)
	if err != nil {
		return "", "", fmt.Errorf("invalid date %q: %w", date, err)
	}
	return Format(d), Format(d.AddDate(0, 0, 1)), nil
}

// MonthRange returns the half-open [start, end) bounds of one calendar
// month in the fixed offset, formatted for string comparison.
func MonthRange(year, month int) (start, end string, err error) {
	if month < 1 || month > 12 {
		return "", "", fmt.Errorf("invalid month %d", month)
	}
	first := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, Offset)
	return Format(first), Format(first.AddDate(0, 1, 0)), nil
}

// DaysInMonth returns every date of the month as "YYYY-MM-DD" keys,
// in calendar order. February of leap years has 29 entries.
func DaysInMonth(year, month int) []string {
	first := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, Offset)
	next := first.AddDate(0, 1, 0)
	var days []string
	for d := first; d.Before(next); d = d.AddDate(0, 0, 1) {
		days = append(days, d.Format(DateLayout))
	}
	return days
}
