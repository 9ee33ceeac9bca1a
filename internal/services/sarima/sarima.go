// Package sarima fits multiplicative seasonal ARIMA models by conditional sum
// of squares and produces point forecasts with normal confidence intervals.
package sarima

import (
	"fmt"
	"math"
	"time"

	"gonum.org/v1/gonum/optimize"
	"gonum.org/v1/gonum/stat/distuv"

	"FxForecast/internal/domain/models"
)

// Order is a SARIMA order (p, d, q) x (P, D, Q, s).
type Order struct {
	P, D, Q    int
	SP, SD, SQ int
	S          int // seasonal period
}

// Seasonal returns the fixed (1,1,1)(1,1,1,s) order used for every instrument.
func Seasonal(s int) Order {
	return Order{P: 1, D: 1, Q: 1, SP: 1, SD: 1, SQ: 1, S: s}
}

// MinObservations is the shortest series the order can be fitted on.
func (o Order) MinObservations() int {
	return o.P + o.Q + o.D + (o.SP+o.SD+o.SQ)*o.S + 20
}

func (o Order) numParams() int {
	return o.P + o.Q + o.SP + o.SQ
}

func (o Order) validate() error {
	if o.P < 0 || o.D < 0 || o.Q < 0 || o.SP < 0 || o.SD < 0 || o.SQ < 0 {
		return fmt.Errorf("negative order %+v", o)
	}
	if o.SP+o.SD+o.SQ > 0 && o.S < 2 {
		return fmt.Errorf("seasonal period must be at least 2, got %d", o.S)
	}
	return nil
}

func (o Order) String() string {
	return fmt.Sprintf("(%d,%d,%d)(%d,%d,%d,%d)", o.P, o.D, o.Q, o.SP, o.SD, o.SQ, o.S)
}

// Coefficients are the estimated lag coefficients.
type Coefficients struct {
	AR, MA, SAR, SMA []float64
}

// Model is a fitted SARIMA model. It owns a copy of the training data and is
// safe for concurrent use once returned by Fit.
type Model struct {
	order  Order
	coef   Coefficients
	freq   models.Frequency
	first  time.Time
	y      []float64 // forward-filled training values
	ar     []float64 // expanded AR polynomial (non-seasonal x seasonal)
	ma     []float64 // expanded MA polynomial
	diff   []float64 // differencing polynomial
	arDiff []float64 // ar x diff, drives the psi weights
	w      []float64 // differenced training values
	resid  []float64 // residuals on the differenced scale
	burn   int       // leading residuals fixed at zero
	sigma2 float64
	z      float64

	LogLik float64
	AIC    float64
}

// Fit estimates order on series. Missing grid slots are forward-filled first.
// confidence is the two-sided interval coverage, e.g. 0.95.
func Fit(series *models.Series, order Order, confidence float64) (*Model, error) {
	if err := order.validate(); err != nil {
		return nil, err
	}
	if confidence <= 0 || confidence >= 1 {
		return nil, fmt.Errorf("confidence must be in (0,1), got %v", confidence)
	}
	if series == nil || series.ObservedCount() == 0 {
		return nil, models.ErrEmptySeries
	}

	y := forwardFill(series.Values)
	if len(y) < order.MinObservations() {
		return nil, fmt.Errorf("%w: have %d, need %d for %s",
			models.ErrInsufficientData, len(y), order.MinObservations(), order)
	}

	m := &Model{
		order: order,
		freq:  series.Freq,
		first: series.Observed()[0].Date,
		y:     y,
		diff:  diffPoly(order.D, order.SD, order.S),
		z:     distuv.UnitNormal.Quantile(1 - (1-confidence)/2),
	}
	m.w = applyPoly(m.diff, y)

	k := order.numParams()
	burn := order.P + order.SP*order.S
	nEff := len(m.w) - burn
	if nEff <= k {
		return nil, fmt.Errorf("%w: %d usable differenced points for %d parameters",
			models.ErrInsufficientData, nEff, k)
	}

	x0 := m.initialParams()
	objective := func(x []float64) float64 {
		c := m.unpack(x)
		ar, ma := expand(order, c)
		sse, _ := css(m.w, ar, ma, burn)
		v := sse / float64(nEff)
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return math.MaxFloat64
		}
		return v
	}

	best := x0
	if k > 0 {
		res, err := optimize.Minimize(optimize.Problem{Func: objective}, x0, &optimize.Settings{
			MajorIterations: 500,
			FuncEvaluations: 5000,
		}, &optimize.NelderMead{})
		// Hitting an iteration cap still leaves a usable best point.
		if res == nil || len(res.X) != k {
			return nil, fmt.Errorf("%w: %v", models.ErrFitFailed, err)
		}
		best = res.X
	}

	m.coef = m.unpack(best)
	m.ar, m.ma = expand(order, m.coef)
	m.arDiff = polyMul(m.ar, m.diff)
	m.burn = burn

	sse, resid := css(m.w, m.ar, m.ma, burn)
	m.resid = resid
	m.sigma2 = sse / float64(nEff-k)
	if math.IsNaN(m.sigma2) || math.IsInf(m.sigma2, 0) || m.sigma2 < 0 {
		return nil, fmt.Errorf("%w: residual variance %v", models.ErrFitFailed, m.sigma2)
	}

	n := float64(nEff)
	if m.sigma2 > 0 {
		m.LogLik = -0.5 * n * (math.Log(2*math.Pi) + math.Log(sse/n) + 1)
		m.AIC = -2*m.LogLik + 2*float64(k+1)
	}
	return m, nil
}

// initialParams seeds AR terms from the sample autocorrelation of the
// differenced data and MA terms with a small positive value, in the
// unconstrained (atanh) space.
func (m *Model) initialParams() []float64 {
	o := m.order
	x := make([]float64, 0, o.numParams())
	r1 := clamp(acf(m.w, 1)*0.5, 0.9)
	rs := clamp(acf(m.w, o.S)*0.5, 0.9)
	for i := 0; i < o.P; i++ {
		x = append(x, math.Atanh(r1))
	}
	for i := 0; i < o.Q; i++ {
		x = append(x, math.Atanh(0.1))
	}
	for i := 0; i < o.SP; i++ {
		x = append(x, math.Atanh(rs))
	}
	for i := 0; i < o.SQ; i++ {
		x = append(x, math.Atanh(0.1))
	}
	return x
}

// unpack maps unconstrained optimizer parameters to coefficients in (-1, 1).
func (m *Model) unpack(x []float64) Coefficients {
	o := m.order
	take := func(n int) []float64 {
		out := make([]float64, n)
		for i := range out {
			out[i] = math.Tanh(x[i])
		}
		x = x[n:]
		return out
	}
	return Coefficients{
		AR:  take(o.P),
		MA:  take(o.Q),
		SAR: take(o.SP),
		SMA: take(o.SQ),
	}
}

func expand(o Order, c Coefficients) (ar, ma []float64) {
	ar = polyMul(arPoly(c.AR, 1), arPoly(c.SAR, max(o.S, 1)))
	ma = polyMul(maPoly(c.MA, 1), maPoly(c.SMA, max(o.S, 1)))
	return ar, ma
}

// css computes conditional residuals of ar(B) w = ma(B) e with the first burn
// residuals and all pre-sample terms set to zero.
func css(w, ar, ma []float64, burn int) (float64, []float64) {
	e := make([]float64, len(w))
	sse := 0.0
	for t := burn; t < len(w); t++ {
		v := w[t]
		for k := 1; k < len(ar) && k <= t; k++ {
			v += ar[k] * w[t-k]
		}
		for k := 1; k < len(ma) && k <= t; k++ {
			v -= ma[k] * e[t-k]
		}
		e[t] = v
		sse += v * v
	}
	return sse, e
}

func acf(x []float64, lag int) float64 {
	if lag <= 0 || lag >= len(x) {
		return 0
	}
	mean := 0.0
	for _, v := range x {
		mean += v
	}
	mean /= float64(len(x))
	var num, den float64
	for i, v := range x {
		d := v - mean
		den += d * d
		if i >= lag {
			num += d * (x[i-lag] - mean)
		}
	}
	if den == 0 {
		return 0
	}
	return num / den
}

func clamp(v, limit float64) float64 {
	return math.Max(-limit, math.Min(limit, v))
}

func forwardFill(values []float64) []float64 {
	out := make([]float64, 0, len(values))
	last := math.NaN()
	for _, v := range values {
		if math.IsNaN(v) {
			if math.IsNaN(last) {
				continue
			}
			v = last
		}
		out = append(out, v)
		last = v
	}
	return out
}

// Order returns the fitted order.
func (m *Model) Order() Order { return m.order }

// Coefficients returns the estimated coefficients.
func (m *Model) Coefficients() Coefficients { return m.coef }

// Sigma2 returns the residual variance.
func (m *Model) Sigma2() float64 { return m.sigma2 }

// Len returns the number of training periods.
func (m *Model) Len() int { return len(m.y) }
