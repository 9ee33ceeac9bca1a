package models

import (
	"math"
	"time"
)

// Frequency is the regular grid a Series is laid out on.
type Frequency string

const (
	Daily   Frequency = "daily"
	Monthly Frequency = "monthly"
)

// ParseFrequency maps the HTTP frequency selector to a Frequency:
// "1" is daily, anything else is monthly.
func ParseFrequency(s string) Frequency {
	if s == "1" {
		return Daily
	}
	return Monthly
}

// Observation is one cleaned row from the upstream provider.
type Observation struct {
	Date  time.Time
	Value float64
}

// Series is a date-indexed sequence on a regular grid. Dates are strictly
// increasing and contiguous at Freq; Values holds NaN for slots the provider
// did not report.
type Series struct {
	Name   string
	Freq   Frequency
	Dates  []time.Time
	Values []float64
}

// Len returns the number of grid slots, observed or not.
func (s *Series) Len() int {
	return len(s.Values)
}

// Observed returns only the slots that carry a value.
func (s *Series) Observed() []Observation {
	out := make([]Observation, 0, len(s.Values))
	for i, v := range s.Values {
		if !math.IsNaN(v) {
			out = append(out, Observation{Date: s.Dates[i], Value: v})
		}
	}
	return out
}

// ObservedCount returns the number of non-missing slots.
func (s *Series) ObservedCount() int {
	n := 0
	for _, v := range s.Values {
		if !math.IsNaN(v) {
			n++
		}
	}
	return n
}

// First returns the first grid date.
func (s *Series) First() time.Time {
	return s.Dates[0]
}

// Last returns the last grid date.
func (s *Series) Last() time.Time {
	return s.Dates[len(s.Dates)-1]
}

// Clone returns a deep copy so later mutation of s cannot reach the copy.
func (s *Series) Clone() *Series {
	dates := make([]time.Time, len(s.Dates))
	copy(dates, s.Dates)
	values := make([]float64, len(s.Values))
	copy(values, s.Values)
	return &Series{Name: s.Name, Freq: s.Freq, Dates: dates, Values: values}
}
