package util

import (
	"errors"
	"time"
)

const (
	// ISODate is the date layout used on the HTTP surface and in snapshots.
	ISODate = "2006-01-02"
	// ISOMonth is the layout for monthly forecast dates.
	ISOMonth = "2006-01"
	// EVDSDate is the date layout the EVDS API expects and returns for daily data.
	EVDSDate = "02-01-2006"
	// EVDSMonth is the EVDS layout for monthly rows ("2024-1", "2024-12").
	EVDSMonth = "2006-1"
)

var ErrEmptyDate = errors.New("empty date")

// ParseDate parses an ISO-8601 calendar date. RFC3339 timestamps are accepted
// and truncated to the calendar day in their own offset.
func ParseDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, ErrEmptyDate
	}
	if t, err := time.Parse(ISODate, s); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, err
	}
	return Day(t), nil
}

// Day truncates t to midnight UTC of its calendar day.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// MonthEnd returns the last calendar day of t's month, at midnight UTC.
func MonthEnd(t time.Time) time.Time {
	y, m, _ := t.Date()
	return time.Date(y, m+1, 0, 0, 0, 0, 0, time.UTC)
}

// MonthStart returns the first calendar day of t's month, at midnight UTC.
func MonthStart(t time.Time) time.Time {
	y, m, _ := t.Date()
	return time.Date(y, m, 1, 0, 0, 0, 0, time.UTC)
}

// AddMonthEnds steps n month-ends forward from the month-end containing t.
func AddMonthEnds(t time.Time, n int) time.Time {
	y, m, _ := t.Date()
	return time.Date(y, m+time.Month(n)+1, 0, 0, 0, 0, 0, time.UTC)
}

// DaysBetween returns the number of whole calendar days from a to b.
func DaysBetween(a, b time.Time) int {
	return int(Day(b).Sub(Day(a)).Hours() / 24)
}

// MonthsBetween returns the number of month boundaries from a to b.
func MonthsBetween(a, b time.Time) int {
	ya, ma, _ := a.Date()
	yb, mb, _ := b.Date()
	return (yb-ya)*12 + int(mb-ma)
}

// DateRange returns every calendar day from start to end inclusive.
// An empty slice is returned when end is before start.
func DateRange(start, end time.Time) []time.Time {
	start, end = Day(start), Day(end)
	if end.Before(start) {
		return nil
	}
	out := make([]time.Time, 0, DaysBetween(start, end)+1)
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		out = append(out, d)
	}
	return out
}
