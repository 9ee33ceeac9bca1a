package usecase

import (
	"context"
	"math"
	"math/rand"
	"sync"
	"sync/atomic"
	"time"

	"FxForecast/internal/domain/models"
	domrepo "FxForecast/internal/domain/repository"
	dservice "FxForecast/internal/domain/service"
	"FxForecast/pkg/util"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func fixedClock(t time.Time) domrepo.Clock {
	return domrepo.ClockFunc(func() time.Time { return t })
}

// fakeFetcher serves synthetic series and counts calls per series code.
type fakeFetcher struct {
	mu     sync.Mutex
	calls  map[string]int
	errs   []error // consumed one per call before serving data
	delay  time.Duration
	starts []time.Time
}

func newFakeFetcher() *fakeFetcher {
	return &fakeFetcher{calls: make(map[string]int)}
}

func (f *fakeFetcher) Fetch(_ context.Context, code string, start, end time.Time, freq models.Frequency) (*models.Series, error) {
	f.mu.Lock()
	f.calls[code]++
	f.starts = append(f.starts, start)
	var err error
	if len(f.errs) > 0 {
		err, f.errs = f.errs[0], f.errs[1:]
	}
	f.mu.Unlock()

	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	if err != nil {
		return nil, err
	}
	return synthetic(code, start, end, freq), nil
}

func (f *fakeFetcher) count(code string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[code]
}

// synthetic builds a trending seasonal random walk between start and end.
func synthetic(name string, start, end time.Time, freq models.Frequency) *models.Series {
	rng := rand.New(rand.NewSource(int64(len(name))))
	s := &models.Series{Name: name, Freq: freq}
	level := 30.0
	var n int
	if freq == models.Monthly {
		start = util.MonthEnd(start)
		n = util.MonthsBetween(start, end) + 1
	} else {
		start = util.Day(start)
		n = util.DaysBetween(start, end) + 1
	}
	for i := 0; i < n; i++ {
		d := start.AddDate(0, 0, i)
		if freq == models.Monthly {
			d = util.AddMonthEnds(start, i)
		}
		level += 0.02 + rng.NormFloat64()*0.05
		s.Dates = append(s.Dates, d)
		s.Values = append(s.Values, level+0.3*math.Sin(float64(i)/5))
	}
	return s
}

// stubFitter returns flat models and counts fits.
type stubFitter struct {
	fits int32
	err  error
}

func (f *stubFitter) Fit(s *models.Series) (dservice.FittedModel, error) {
	atomic.AddInt32(&f.fits, 1)
	if f.err != nil {
		return nil, f.err
	}
	return &stubModel{first: s.First(), last: s.Last(), freq: s.Freq, value: s.Values[len(s.Values)-1]}, nil
}

type stubModel struct {
	first, last time.Time
	freq        models.Frequency
	value       float64
}

func (m *stubModel) at(d time.Time) models.ForecastPoint {
	return models.ForecastPoint{Date: d, Predicted: m.value, Lower: m.value - 1, Upper: m.value + 1}
}

func (m *stubModel) PredictRange(from, to time.Time) ([]models.ForecastPoint, error) {
	if from.Before(m.first) {
		return nil, models.ErrInvalidRange
	}
	var out []models.ForecastPoint
	for _, d := range util.DateRange(from, to) {
		out = append(out, m.at(d))
	}
	return out, nil
}

func (m *stubModel) Forecast(steps int) ([]models.ForecastPoint, error) {
	out := make([]models.ForecastPoint, steps)
	for i := range out {
		d := m.last.AddDate(0, 0, i+1)
		if m.freq == models.Monthly {
			d = util.AddMonthEnds(m.last, i+1)
		}
		out[i] = m.at(d)
	}
	return out, nil
}

func (m *stubModel) LastDate() time.Time { return m.last }

var testInstruments = []models.Instrument{
	{Key: "USD", Series: "TP.DK.USD.S.YTL", Column: "USD_Kuru", Kind: models.KindCurrency},
	{Key: "EUR", Series: "TP.DK.EUR.S.YTL", Column: "EUR_Kuru", Kind: models.KindCurrency},
	{Key: "TUFE", Series: "TP.FG.J0", Column: "TUFE", Kind: models.KindInflation},
}
