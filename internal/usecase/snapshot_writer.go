package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"FxForecast/internal/domain/models"
	domrepo "FxForecast/internal/domain/repository"
	dservice "FxForecast/internal/domain/service"
	"FxForecast/pkg/logger"
	"FxForecast/pkg/util"
)

const snapshotDecimals = 4

// SnapshotOptions tunes batch runs.
type SnapshotOptions struct {
	Concurrency int            // instruments processed in parallel
	Location    *time.Location // timezone of generated_at
}

// SnapshotWriter produces forecast snapshot documents. It never touches the
// request-path caches: every run fetches and fits afresh.
type SnapshotWriter struct {
	fetcher     domrepo.SeriesFetcher
	fitter      dservice.ModelFitter
	instruments map[string]models.Instrument
	store       domrepo.SnapshotStore
	sinks       []domrepo.SnapshotSink
	opts        SnapshotOptions
	clock       domrepo.Clock
	metrics     domrepo.Metrics
	log         *logger.Logger
}

func NewSnapshotWriter(
	fetcher domrepo.SeriesFetcher,
	fitter dservice.ModelFitter,
	instruments []models.Instrument,
	store domrepo.SnapshotStore,
	sinks []domrepo.SnapshotSink,
	opts SnapshotOptions,
	clock domrepo.Clock,
	metrics domrepo.Metrics,
	l *logger.Logger,
) *SnapshotWriter {
	if opts.Concurrency <= 0 {
		opts.Concurrency = 1
	}
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if clock == nil {
		clock = domrepo.SystemClock
	}
	if l == nil {
		l = logger.Nop()
	}
	byKey := make(map[string]models.Instrument, len(instruments))
	for _, inst := range instruments {
		byKey[strings.ToUpper(inst.Key)] = inst
	}
	return &SnapshotWriter{
		fetcher:     fetcher,
		fitter:      fitter,
		instruments: byKey,
		store:       store,
		sinks:       sinks,
		opts:        opts,
		clock:       clock,
		metrics:     metrics,
		log:         l.With(logger.String("component", "snapshot_writer")),
	}
}

// Run builds and persists one snapshot. If any instrument fails nothing is
// written and the previously persisted document stays in place.
func (w *SnapshotWriter) Run(ctx context.Context, spec models.SnapshotSpec) (*models.Snapshot, error) {
	runID := uuid.NewString()
	started := w.clock.Now()
	log := w.log.With(logger.String("snapshot", spec.Name), logger.String("run_id", runID))

	snap, err := w.build(ctx, spec)
	if err == nil {
		err = w.persist(ctx, spec, snap)
	}
	if err != nil {
		w.recordRun(spec.Name, "error", started)
		log.Error("snapshot run failed", logger.Error(err))
		return nil, err
	}
	w.recordRun(spec.Name, "ok", started)
	log.Info("snapshot written",
		logger.String("file", spec.File),
		logger.Strings("instruments", spec.Instruments),
		logger.Duration("duration_ms", w.clock.Now().Sub(started)),
	)

	for _, sink := range w.sinks {
		if err := sink.Publish(ctx, spec, runID, snap); err != nil {
			log.Warn("snapshot sink failed", logger.String("sink", sink.Name()), logger.Error(err))
			if w.metrics != nil {
				w.metrics.RecordError("snapshot_sink_" + sink.Name())
			}
		}
	}
	return snap, nil
}

// RunAll runs every spec in order and joins their errors.
func (w *SnapshotWriter) RunAll(ctx context.Context, specs []models.SnapshotSpec) error {
	var errs []error
	for _, spec := range specs {
		if _, err := w.Run(ctx, spec); err != nil {
			errs = append(errs, fmt.Errorf("snapshot %s: %w", spec.Name, err))
		}
	}
	return errors.Join(errs...)
}

func (w *SnapshotWriter) build(ctx context.Context, spec models.SnapshotSpec) (*models.Snapshot, error) {
	if spec.Horizon <= 0 {
		return nil, fmt.Errorf("%w: horizon must be positive", models.ErrInvalidRange)
	}
	insts := make([]models.Instrument, 0, len(spec.Instruments))
	for _, key := range spec.Instruments {
		inst, ok := w.instruments[strings.ToUpper(key)]
		if !ok {
			return nil, fmt.Errorf("%w: %q", models.ErrUnknownInstrument, key)
		}
		insts = append(insts, inst)
	}

	var (
		mu        sync.Mutex
		forecasts = make(map[string]models.InstrumentSnapshot, len(insts))
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(w.opts.Concurrency)
	for _, inst := range insts {
		g.Go(func() error {
			is, err := w.instrument(gctx, spec, inst)
			if err != nil {
				return fmt.Errorf("%s: %w", inst.Key, err)
			}
			mu.Lock()
			forecasts[inst.DisplayLabel()] = *is
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	snap := &models.Snapshot{
		GeneratedAt: w.clock.Now().In(w.opts.Location).Format(models.GeneratedAtLayout),
		Forecasts:   forecasts,
	}
	horizon := spec.Horizon
	if spec.Freq == models.Monthly {
		snap.ForecastMonths = &horizon
	} else {
		snap.ForecastDays = &horizon
	}
	return snap, nil
}

func (w *SnapshotWriter) instrument(ctx context.Context, spec models.SnapshotSpec, inst models.Instrument) (*models.InstrumentSnapshot, error) {
	series, err := w.fetcher.Fetch(ctx, inst.Series, spec.Start, w.clock.Now(), spec.Freq)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	started := time.Now()
	model, err := w.fitter.Fit(series)
	if w.metrics != nil {
		w.metrics.RecordFit(inst.CacheKey(spec.Freq), time.Since(started).Seconds(), err)
	}
	if err != nil {
		return nil, err
	}
	pts, err := model.Forecast(spec.Horizon)
	if err != nil {
		return nil, err
	}

	out := &models.InstrumentSnapshot{
		Real:     make([]models.ActualPoint, 0, series.Len()),
		Forecast: make([]models.PredictionPoint, 0, len(pts)),
	}
	// Monthly history is labelled by the first of the month, forecasts by month-end.
	for _, o := range series.Observed() {
		d := o.Date
		if spec.Freq == models.Monthly {
			d = util.MonthStart(d)
		}
		out.Real = append(out.Real, models.ActualPoint{
			Date:   d.Format(util.ISODate),
			Actual: round(o.Value),
		})
	}
	for _, p := range pts {
		if !finite(p.Predicted, p.Lower, p.Upper) {
			return nil, fmt.Errorf("%w: non-finite forecast at %s", models.ErrFitFailed, p.Date.Format(util.ISODate))
		}
		out.Forecast = append(out.Forecast, models.PredictionPoint{
			Date:       p.Date.Format(util.ISODate),
			Prediction: round(p.Predicted),
			ConfLow:    round(p.Lower),
			ConfHigh:   round(p.Upper),
		})
	}
	return out, nil
}

func (w *SnapshotWriter) persist(ctx context.Context, spec models.SnapshotSpec, snap *models.Snapshot) error {
	doc, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	if err := w.store.Save(ctx, spec.File, doc); err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}
	return nil
}

func (w *SnapshotWriter) recordRun(name, result string, at time.Time) {
	if w.metrics != nil {
		w.metrics.RecordSnapshot(name, result, at)
	}
}

func round(v float64) float64 {
	return decimal.NewFromFloat(v).Round(snapshotDecimals).InexactFloat64()
}

func finite(vs ...float64) bool {
	for _, v := range vs {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// SnapshotReader serves persisted snapshot documents verbatim.
type SnapshotReader struct {
	store domrepo.SnapshotStore
}

func NewSnapshotReader(store domrepo.SnapshotStore) *SnapshotReader {
	return &SnapshotReader{store: store}
}

// Load returns the stored bytes for name, or models.ErrSnapshotUnavailable.
func (r *SnapshotReader) Load(ctx context.Context, name string) ([]byte, error) {
	return r.store.Load(ctx, name)
}
