package util

import (
	"testing"
	"time"
)

func TestParseDateISO(t *testing.T) {
	got, err := ParseDate("2024-01-03")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Format(ISODate) != "2024-01-03" {
		t.Fatalf("unexpected date %v", got)
	}
}

func TestParseDateRFC3339(t *testing.T) {
	got, err := ParseDate("2024-10-10T23:10:10Z")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !got.Equal(time.Date(2024, 10, 10, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected date %v", got)
	}
}

func TestParseDateRFC3339KeepsLocalDay(t *testing.T) {
	for _, s := range []string{"2024-01-01T00:00:00+03:00", "2024-01-01T23:30:00-05:00"} {
		got, err := ParseDate(s)
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", s, err)
		}
		if got.Format(ISODate) != "2024-01-01" || got.Location() != time.UTC {
			t.Fatalf("%s: unexpected date %v", s, got)
		}
	}
}

func TestParseDateRejectsGarbage(t *testing.T) {
	for _, s := range []string{"", "03-01-2024", "2024/01/03", "tomorrow"} {
		if _, err := ParseDate(s); err == nil {
			t.Fatalf("expected error for %q", s)
		}
	}
}

func TestMonthEnd(t *testing.T) {
	got := MonthEnd(time.Date(2024, 2, 10, 0, 0, 0, 0, time.UTC))
	if got.Format(ISODate) != "2024-02-29" {
		t.Fatalf("unexpected month end %v", got)
	}
	next := AddMonthEnds(got, 1)
	if next.Format(ISODate) != "2024-03-31" {
		t.Fatalf("unexpected next month end %v", next)
	}
	if n := MonthsBetween(got, AddMonthEnds(got, 12)); n != 12 {
		t.Fatalf("expected 12 months, got %d", n)
	}
	if s := MonthStart(got); s.Format(ISODate) != "2024-02-01" {
		t.Fatalf("unexpected month start %v", s)
	}
}

func TestDateRangeInclusive(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC)
	days := DateRange(start, end)
	if len(days) != 3 {
		t.Fatalf("expected 3 days, got %d", len(days))
	}
	if days[2].Format(ISODate) != "2024-01-03" {
		t.Fatalf("unexpected last day %v", days[2])
	}
	if DateRange(end, start) != nil {
		t.Fatalf("expected empty range for reversed bounds")
	}
}
