package evds

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"FxForecast/internal/domain/models"
	"FxForecast/pkg/util"
)

const (
	dateColumn = "Tarih"
	unixColumn = "UNIXTIME"
)

var rowDateLayouts = []string{util.EVDSDate, util.EVDSMonth, util.ISODate}

// parseCSV extracts (date, value) rows for code. Rows whose date or value
// cannot be parsed are skipped and counted in dropped.
func parseCSV(body []byte, code string) (obs []models.Observation, dropped int, err error) {
	body = bytes.TrimPrefix(body, []byte("\ufeff"))
	r := csv.NewReader(bytes.NewReader(body))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	r.TrimLeadingSpace = true

	header, err := r.Read()
	if errors.Is(err, io.EOF) {
		return nil, 0, nil
	}
	if err != nil {
		return nil, 0, fmt.Errorf("read header: %w", err)
	}

	dateIdx, valueIdx := -1, -1
	want := strings.ReplaceAll(code, ".", "_")
	for i, h := range header {
		h = strings.TrimSpace(h)
		switch {
		case h == dateColumn:
			dateIdx = i
		case h == unixColumn:
		case h == want || h == code:
			valueIdx = i
		case valueIdx < 0:
			valueIdx = i
		}
	}
	if dateIdx < 0 || valueIdx < 0 {
		return nil, 0, fmt.Errorf("unexpected header %v", header)
	}

	for {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var pe *csv.ParseError
			if errors.As(err, &pe) {
				dropped++
				continue
			}
			return nil, dropped, err
		}
		if dateIdx >= len(rec) || valueIdx >= len(rec) {
			dropped++
			continue
		}
		d, ok := parseRowDate(rec[dateIdx])
		if !ok {
			dropped++
			continue
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(rec[valueIdx]), 64)
		if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
			dropped++
			continue
		}
		obs = append(obs, models.Observation{Date: d, Value: v})
	}
	return obs, dropped, nil
}

func parseRowDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range rowDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// regularize snaps observations onto the freq grid, keeps the last value for
// duplicate slots and fills the span between the first and last observation
// with NaN where nothing was reported.
func regularize(name string, obs []models.Observation, freq models.Frequency) *models.Series {
	snap := util.Day
	if freq == models.Monthly {
		snap = util.MonthEnd
	}

	byDate := make(map[time.Time]float64, len(obs))
	for _, o := range obs {
		byDate[snap(o.Date)] = o.Value
	}
	dates := make([]time.Time, 0, len(byDate))
	for d := range byDate {
		dates = append(dates, d)
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })

	first, last := dates[0], dates[len(dates)-1]
	var n int
	if freq == models.Monthly {
		n = util.MonthsBetween(first, last) + 1
	} else {
		n = util.DaysBetween(first, last) + 1
	}

	s := &models.Series{
		Name:   name,
		Freq:   freq,
		Dates:  make([]time.Time, n),
		Values: make([]float64, n),
	}
	for i := 0; i < n; i++ {
		d := first.AddDate(0, 0, i)
		if freq == models.Monthly {
			d = util.AddMonthEnds(first, i)
		}
		s.Dates[i] = d
		v, ok := byDate[d]
		if !ok {
			v = math.NaN()
		}
		s.Values[i] = v
	}
	return s
}
