package sarima

import (
	"math"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"FxForecast/internal/domain/models"
	"FxForecast/pkg/util"
)

func monthlySeries(n int, f func(i int) float64) *models.Series {
	s := &models.Series{Name: "TUFE", Freq: models.Monthly}
	start := time.Date(2010, 1, 31, 0, 0, 0, 0, time.UTC)
	for i := 0; i < n; i++ {
		s.Dates = append(s.Dates, util.AddMonthEnds(start, i))
		s.Values = append(s.Values, f(i))
	}
	return s
}

func dailySeries(n int, f func(i int) float64) *models.Series {
	s := &models.Series{Name: "USD_Kuru", Freq: models.Daily}
	start := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < n; i++ {
		s.Dates = append(s.Dates, start.AddDate(0, 0, i))
		s.Values = append(s.Values, f(i))
	}
	return s
}

func noisySeasonal(period int, seed int64) func(int) float64 {
	rng := rand.New(rand.NewSource(seed))
	level := 100.0
	return func(i int) float64 {
		level += 0.3 + rng.NormFloat64()*0.5
		return level + 5*math.Sin(2*math.Pi*float64(i)/float64(period))
	}
}

func assertOrdered(t *testing.T, pts []models.ForecastPoint) {
	t.Helper()
	for _, p := range pts {
		require.False(t, math.IsNaN(p.Predicted), "prediction at %s is NaN", p.Date)
		assert.LessOrEqual(t, p.Lower, p.Predicted, "lower bound at %s", p.Date)
		assert.LessOrEqual(t, p.Predicted, p.Upper, "upper bound at %s", p.Date)
	}
}

func TestOrderMinObservations(t *testing.T) {
	assert.Equal(t, 59, Seasonal(12).MinObservations())
	assert.Equal(t, 113, Seasonal(30).MinObservations())
}

func TestFitInsufficientData(t *testing.T) {
	s := monthlySeries(40, noisySeasonal(12, 1))

	_, err := Fit(s, Seasonal(12), 0.95)
	require.ErrorIs(t, err, models.ErrInsufficientData)
}

func TestFitEmptySeries(t *testing.T) {
	s := monthlySeries(80, func(int) float64 { return math.NaN() })

	_, err := Fit(s, Seasonal(12), 0.95)
	require.ErrorIs(t, err, models.ErrEmptySeries)
}

func TestForecastMonthlyTwelveFuturePeriods(t *testing.T) {
	s := monthlySeries(120, noisySeasonal(12, 7))
	m, err := Fit(s, Seasonal(12), 0.95)
	require.NoError(t, err)
	require.True(t, m.Sigma2() > 0)

	pts, err := m.Forecast(12)
	require.NoError(t, err)
	require.Len(t, pts, 12)

	last := s.Last()
	for i, p := range pts {
		assert.True(t, p.Date.After(last))
		assert.Equal(t, util.AddMonthEnds(last, i+1), p.Date)
	}
	assertOrdered(t, pts)

	// Intervals widen with the horizon.
	assert.Greater(t, pts[11].Upper-pts[11].Lower, pts[0].Upper-pts[0].Lower)
}

func TestForecastRejectsNonPositiveSteps(t *testing.T) {
	m, err := Fit(monthlySeries(80, noisySeasonal(12, 3)), Seasonal(12), 0.95)
	require.NoError(t, err)

	_, err = m.Forecast(0)
	require.ErrorIs(t, err, models.ErrInvalidRange)
}

func TestLinearTrendIsReproducedExactly(t *testing.T) {
	s := dailySeries(60, func(i int) float64 { return float64(i) })
	m, err := Fit(s, Seasonal(7), 0.95)
	require.NoError(t, err)

	pts, err := m.Forecast(5)
	require.NoError(t, err)
	for h, p := range pts {
		assert.InDelta(t, float64(60+h), p.Predicted, 1e-9)
		assert.InDelta(t, p.Predicted, p.Lower, 1e-9)
		assert.InDelta(t, p.Predicted, p.Upper, 1e-9)
	}

	in, err := m.PredictRange(s.Dates[40], s.Dates[45])
	require.NoError(t, err)
	for i, p := range in {
		assert.InDelta(t, float64(40+i), p.Predicted, 1e-9)
	}
}

func TestPredictRangeSpansTrainingEnd(t *testing.T) {
	s := dailySeries(200, noisySeasonal(7, 11))
	m, err := Fit(s, Seasonal(7), 0.95)
	require.NoError(t, err)

	from := s.Last().AddDate(0, 0, -2)
	to := s.Last().AddDate(0, 0, 3)
	pts, err := m.PredictRange(from, to)
	require.NoError(t, err)
	require.Len(t, pts, 6)

	for i, p := range pts {
		assert.Equal(t, from.AddDate(0, 0, i), p.Date)
	}
	assertOrdered(t, pts)
	assert.Equal(t, s.Last(), m.LastDate())
}

func TestPredictRangeBeforeFirstObservation(t *testing.T) {
	s := dailySeries(200, noisySeasonal(7, 5))
	m, err := Fit(s, Seasonal(7), 0.95)
	require.NoError(t, err)

	_, err = m.PredictRange(s.First().AddDate(0, 0, -1), s.First())
	require.ErrorIs(t, err, models.ErrInvalidRange)
}

func TestFitForwardFillsGaps(t *testing.T) {
	base := noisySeasonal(7, 9)
	s := dailySeries(150, func(i int) float64 {
		v := base(i)
		if i%6 == 5 {
			return math.NaN()
		}
		return v
	})
	m, err := Fit(s, Seasonal(7), 0.95)
	require.NoError(t, err)
	assert.Equal(t, 150, m.Len())

	pts, err := m.PredictRange(s.First(), s.Last())
	require.NoError(t, err)
	require.Len(t, pts, 150)
	assertOrdered(t, pts)
}

func TestModelOwnsTrainingData(t *testing.T) {
	s := monthlySeries(80, noisySeasonal(12, 13))
	m, err := Fit(s, Seasonal(12), 0.95)
	require.NoError(t, err)

	before, err := m.Forecast(3)
	require.NoError(t, err)
	for i := range s.Values {
		s.Values[i] = 0
	}
	after, err := m.Forecast(3)
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestFitterPicksOrderByFrequency(t *testing.T) {
	f := NewFitter(7, 12, 0.95)
	fm, err := f.Fit(monthlySeries(80, noisySeasonal(12, 17)))
	require.NoError(t, err)
	assert.Equal(t, 12, fm.(*Model).Order().S)

	fm, err = f.Fit(dailySeries(100, noisySeasonal(7, 19)))
	require.NoError(t, err)
	assert.Equal(t, 7, fm.(*Model).Order().S)
}

func TestPsiWeightsRandomWalk(t *testing.T) {
	// (1-B) y = e has psi_j = 1 for all j.
	psi := psiWeights([]float64{1, -1}, []float64{1}, 5)
	assert.Equal(t, []float64{1, 1, 1, 1, 1}, psi)
}
