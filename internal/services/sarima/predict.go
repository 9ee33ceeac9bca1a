package sarima

import (
	"fmt"
	"math"
	"time"

	"FxForecast/internal/domain/models"
	"FxForecast/pkg/util"
)

// LastDate is the last period of the training series.
func (m *Model) LastDate() time.Time {
	return m.dateAt(len(m.y) - 1)
}

// FirstDate is the first period of the training series.
func (m *Model) FirstDate() time.Time {
	return m.first
}

// Forecast returns steps periods strictly after LastDate.
func (m *Model) Forecast(steps int) ([]models.ForecastPoint, error) {
	if steps <= 0 {
		return nil, fmt.Errorf("%w: steps must be positive, got %d", models.ErrInvalidRange, steps)
	}
	pred, se := m.extend(steps)
	out := make([]models.ForecastPoint, steps)
	n := len(m.y)
	for h := 0; h < steps; h++ {
		out[h] = m.point(n+h, pred[h], se[h])
	}
	return out, nil
}

// PredictRange returns one point per period from from to to inclusive.
// Periods up to LastDate are one-step in-sample predictions, later ones are
// out-of-sample forecasts.
func (m *Model) PredictRange(from, to time.Time) ([]models.ForecastPoint, error) {
	i0, i1 := m.index(from), m.index(to)
	if i0 < 0 {
		return nil, fmt.Errorf("%w: %s is before the first observation %s",
			models.ErrInvalidRange, from.Format(util.ISODate), m.first.Format(util.ISODate))
	}
	if i1 < i0 {
		return nil, fmt.Errorf("%w: end before start", models.ErrInvalidRange)
	}

	n := len(m.y)
	var pred, se []float64
	if i1 >= n {
		pred, se = m.extend(i1 - n + 1)
	}

	sigma := math.Sqrt(m.sigma2)
	out := make([]models.ForecastPoint, 0, i1-i0+1)
	for i := i0; i <= i1; i++ {
		if i >= n {
			out = append(out, m.point(i, pred[i-n], se[i-n]))
			continue
		}
		out = append(out, m.point(i, m.inSample(i), sigma))
	}
	return out, nil
}

// inSample is the one-step-ahead prediction for training index t. Periods
// inside the differencing and AR burn-in fall back to the previous value.
func (m *Model) inSample(t int) float64 {
	L := len(m.diff) - 1
	j := t - L
	if j >= m.burn {
		return m.y[t] - m.resid[j]
	}
	if t == 0 {
		return m.y[0]
	}
	return m.y[t-1]
}

// extend forecasts steps periods past the training data, returning the
// predictions and their standard errors.
func (m *Model) extend(steps int) ([]float64, []float64) {
	n, nw := len(m.y), len(m.w)
	L := len(m.diff) - 1

	y := make([]float64, n+steps)
	copy(y, m.y)
	w := make([]float64, nw+steps)
	copy(w, m.w)
	e := make([]float64, nw+steps)
	copy(e, m.resid)

	pred := make([]float64, steps)
	for h := 0; h < steps; h++ {
		t := nw + h
		v := 0.0
		for k := 1; k < len(m.ar) && k <= t; k++ {
			v -= m.ar[k] * w[t-k]
		}
		for k := 1; k < len(m.ma) && k <= t; k++ {
			v += m.ma[k] * e[t-k]
		}
		w[t] = v

		ty := n + h
		for k := 1; k <= L; k++ {
			v -= m.diff[k] * y[ty-k]
		}
		y[ty] = v
		pred[h] = v
	}

	psi := psiWeights(m.arDiff, m.ma, steps)
	se := make([]float64, steps)
	acc := 0.0
	for h := 0; h < steps; h++ {
		acc += psi[h] * psi[h]
		se[h] = math.Sqrt(m.sigma2 * acc)
	}
	return pred, se
}

func (m *Model) point(i int, pred, se float64) models.ForecastPoint {
	half := m.z * se
	return models.ForecastPoint{
		Date:      m.dateAt(i),
		Predicted: pred,
		Lower:     pred - half,
		Upper:     pred + half,
	}
}

func (m *Model) dateAt(i int) time.Time {
	if m.freq == models.Monthly {
		return util.AddMonthEnds(m.first, i)
	}
	return m.first.AddDate(0, 0, i)
}

// index maps a date onto the training grid; negative means before the start.
func (m *Model) index(d time.Time) int {
	if m.freq == models.Monthly {
		return util.MonthsBetween(m.first, d)
	}
	return util.DaysBetween(m.first, d)
}
