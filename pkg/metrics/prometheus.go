package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	fetches      *prometheus.CounterVec
	cacheLookups *prometheus.CounterVec
	fitDuration  *prometheus.HistogramVec
	fitFailures  *prometheus.CounterVec
	snapshotRuns *prometheus.CounterVec
	lastSnapshot *prometheus.GaugeVec
	errorsTotal  *prometheus.CounterVec
}

// New creates a Prometheus recorder registered on reg. A nil reg uses the
// default registry.
func New(reg prometheus.Registerer) *Recorder {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)
	return &Recorder{
		fetches: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fxforecast_upstream_fetches_total",
				Help: "EVDS series requests by series code and result",
			},
			[]string{"series", "result"},
		),
		cacheLookups: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fxforecast_cache_lookups_total",
				Help: "Series and model cache lookups by outcome",
			},
			[]string{"cache", "result"},
		),
		fitDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "fxforecast_model_fit_duration_seconds",
				Help:    "Time spent fitting a seasonal model",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
			},
			[]string{"instrument"},
		),
		fitFailures: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fxforecast_model_fit_failures_total",
				Help: "Model fits that returned an error",
			},
			[]string{"instrument"},
		),
		snapshotRuns: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fxforecast_snapshot_runs_total",
				Help: "Batch snapshot runs by result",
			},
			[]string{"name", "result"},
		),
		lastSnapshot: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "fxforecast_snapshot_last_success_timestamp_seconds",
				Help: "Unix time of the last persisted snapshot",
			},
			[]string{"name"},
		),
		errorsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fxforecast_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"type"},
		),
	}
}

func (r *Recorder) RecordFetch(series, result string) {
	r.fetches.WithLabelValues(series, result).Inc()
}

func (r *Recorder) RecordCache(cache, result string) {
	r.cacheLookups.WithLabelValues(cache, result).Inc()
}

// RecordFit records fit latency, counting failures separately.
func (r *Recorder) RecordFit(instrument string, seconds float64, err error) {
	r.fitDuration.WithLabelValues(instrument).Observe(seconds)
	if err != nil {
		r.fitFailures.WithLabelValues(instrument).Inc()
	}
}

// RecordSnapshot counts a run; successful runs also move the last-success gauge.
func (r *Recorder) RecordSnapshot(name, result string, at time.Time) {
	r.snapshotRuns.WithLabelValues(name, result).Inc()
	if result == "ok" {
		r.lastSnapshot.WithLabelValues(name).Set(float64(at.Unix()))
	}
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

// Nop discards everything.
type Nop struct{}

func (Nop) RecordFetch(string, string)               {}
func (Nop) RecordCache(string, string)               {}
func (Nop) RecordFit(string, float64, error)         {}
func (Nop) RecordSnapshot(string, string, time.Time) {}
func (Nop) RecordError(string)                       {}
