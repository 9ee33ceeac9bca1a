package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/sync/semaphore"

	"FxForecast/internal/domain/models"
	domrepo "FxForecast/internal/domain/repository"
	dservice "FxForecast/internal/domain/service"
	"FxForecast/pkg/cache"
	"FxForecast/pkg/logger"
	"FxForecast/pkg/util"
)

// ForecastOptions tunes the request path.
type ForecastOptions struct {
	HistoryStart   time.Time // first date requested from upstream
	MonthlyHorizon int       // periods returned for monthly requests
	FitWorkers     int64     // concurrent model fits
}

// ForecastUseCase answers forecast requests from cached series and models.
// Each (instrument, frequency) pair is fetched and fitted at most once per
// process; later requests reuse the cached model even as new data arrives
// upstream.
type ForecastUseCase struct {
	fetcher     domrepo.SeriesFetcher
	fitter      dservice.ModelFitter
	instruments map[string]models.Instrument
	opts        ForecastOptions
	clock       domrepo.Clock
	metrics     domrepo.Metrics
	log         *logger.Logger

	series *cache.Keyed[*models.Series]
	fitted *cache.Keyed[dservice.FittedModel]
	fitSem *semaphore.Weighted
}

func NewForecastUseCase(
	fetcher domrepo.SeriesFetcher,
	fitter dservice.ModelFitter,
	instruments []models.Instrument,
	opts ForecastOptions,
	clock domrepo.Clock,
	metrics domrepo.Metrics,
	l *logger.Logger,
) *ForecastUseCase {
	if opts.MonthlyHorizon <= 0 {
		opts.MonthlyHorizon = 12
	}
	if opts.FitWorkers <= 0 {
		opts.FitWorkers = 1
	}
	if clock == nil {
		clock = domrepo.SystemClock
	}
	if l == nil {
		l = logger.Nop()
	}

	byKey := make(map[string]models.Instrument, len(instruments))
	for _, inst := range instruments {
		inst.Key = strings.ToUpper(inst.Key)
		if inst.Kind == "" {
			inst.Kind = models.KindCurrency
		}
		byKey[inst.Key] = inst
	}

	uc := &ForecastUseCase{
		fetcher:     fetcher,
		fitter:      fitter,
		instruments: byKey,
		opts:        opts,
		clock:       clock,
		metrics:     metrics,
		log:         l.With(logger.String("component", "forecaster")),
		fitSem:      semaphore.NewWeighted(opts.FitWorkers),
	}
	uc.series = cache.NewKeyed[*models.Series](cache.WithObserver(uc.observer("series")))
	uc.fitted = cache.NewKeyed[dservice.FittedModel](cache.WithObserver(uc.observer("model")))
	return uc
}

// dailyRange is a validated daily request window.
type dailyRange struct {
	start, end time.Time
}

// Forecast validates req, resolves the series and model for the instrument and
// returns one point per requested period.
func (uc *ForecastUseCase) Forecast(ctx context.Context, req models.ForecastRequest) (*models.ForecastResponse, error) {
	inst, err := uc.Instrument(req.Currency)
	if err != nil {
		return nil, err
	}
	freq := models.ParseFrequency(req.Frequency)

	var window dailyRange
	if freq == models.Daily {
		if window, err = parseDailyRange(req.StartDate, req.EndDate); err != nil {
			return nil, err
		}
	}

	if _, err := uc.Series(ctx, inst, freq); err != nil {
		return nil, err
	}
	model, err := uc.Model(ctx, inst, freq)
	if err != nil {
		return nil, err
	}

	var (
		pts    []models.ForecastPoint
		layout string
	)
	if freq == models.Daily {
		pts, err = model.PredictRange(window.start, window.end)
		layout = util.ISODate
	} else {
		pts, err = model.Forecast(uc.opts.MonthlyHorizon)
		layout = util.ISOMonth
	}
	if err != nil {
		return nil, fmt.Errorf("predict %s: %w", inst.Key, err)
	}

	resp := &models.ForecastResponse{
		Dates:         make([]string, len(pts)),
		Forecast:      make([]float64, len(pts)),
		ConfIntervals: make([][2]float64, len(pts)),
		Type:          inst.Kind,
	}
	for i, p := range pts {
		resp.Dates[i] = p.Date.Format(layout)
		resp.Forecast[i] = p.Predicted
		resp.ConfIntervals[i] = [2]float64{p.Lower, p.Upper}
	}
	return resp, nil
}

// Instrument looks up a configured instrument by key, case-insensitively.
func (uc *ForecastUseCase) Instrument(key string) (models.Instrument, error) {
	inst, ok := uc.instruments[strings.ToUpper(strings.TrimSpace(key))]
	if !ok {
		return models.Instrument{}, fmt.Errorf("%w: %q", models.ErrUnknownInstrument, key)
	}
	return inst, nil
}

// Series returns the cached series for inst at freq, fetching history_start
// through now on first use.
func (uc *ForecastUseCase) Series(ctx context.Context, inst models.Instrument, freq models.Frequency) (*models.Series, error) {
	return uc.series.GetOrCompute(ctx, inst.CacheKey(freq), func(ctx context.Context) (*models.Series, error) {
		s, err := uc.fetcher.Fetch(ctx, inst.Series, uc.opts.HistoryStart, uc.clock.Now(), freq)
		if err != nil {
			uc.log.Error("series fetch failed",
				logger.String("instrument", inst.Key),
				logger.String("frequency", string(freq)),
				logger.Error(err),
			)
			return nil, fmt.Errorf("fetch %s: %w", inst.Key, err)
		}
		return s, nil
	})
}

// Model returns the cached model for inst at freq, fitting it from the cached
// series on first use.
func (uc *ForecastUseCase) Model(ctx context.Context, inst models.Instrument, freq models.Frequency) (dservice.FittedModel, error) {
	key := inst.CacheKey(freq)
	return uc.fitted.GetOrCompute(ctx, key, func(ctx context.Context) (dservice.FittedModel, error) {
		s, err := uc.Series(ctx, inst, freq)
		if err != nil {
			return nil, err
		}
		if err := uc.fitSem.Acquire(ctx, 1); err != nil {
			return nil, err
		}
		defer uc.fitSem.Release(1)

		started := time.Now()
		m, err := uc.fitter.Fit(s)
		elapsed := time.Since(started)
		if uc.metrics != nil {
			uc.metrics.RecordFit(key, elapsed.Seconds(), err)
		}
		if err != nil {
			uc.log.Error("model fit failed",
				logger.String("instrument", key),
				logger.Int("observations", s.Len()),
				logger.Error(err),
			)
			return nil, fmt.Errorf("fit %s: %w", key, err)
		}
		uc.log.Info("model fitted",
			logger.String("instrument", key),
			logger.Int("observations", s.Len()),
			logger.Time("last_date", m.LastDate()),
			logger.Duration("duration_ms", elapsed),
		)
		return m, nil
	})
}

// Warm preloads series and models for every configured instrument at freq.
// Failures are logged and left for the request path to retry.
func (uc *ForecastUseCase) Warm(ctx context.Context, freq models.Frequency) {
	for _, inst := range uc.instruments {
		if _, err := uc.Model(ctx, inst, freq); err != nil && !errors.Is(err, context.Canceled) {
			uc.log.Warn("warmup failed",
				logger.String("instrument", inst.CacheKey(freq)),
				logger.Error(err),
			)
		}
	}
}

func (uc *ForecastUseCase) observer(name string) cache.Observer {
	return func(result string) {
		if uc.metrics != nil {
			uc.metrics.RecordCache(name, result)
		}
	}
}

func parseDailyRange(start, end string) (dailyRange, error) {
	if strings.TrimSpace(start) == "" || strings.TrimSpace(end) == "" {
		return dailyRange{}, models.ErrMissingBounds
	}
	s, err := util.ParseDate(strings.TrimSpace(start))
	if err != nil {
		return dailyRange{}, fmt.Errorf("%w: start_date %q", models.ErrInvalidDateFormat, start)
	}
	e, err := util.ParseDate(strings.TrimSpace(end))
	if err != nil {
		return dailyRange{}, fmt.Errorf("%w: end_date %q", models.ErrInvalidDateFormat, end)
	}
	if e.Before(s) {
		return dailyRange{}, fmt.Errorf("%w: end_date %s is before start_date %s",
			models.ErrInvalidRange, end, start)
	}
	return dailyRange{start: s, end: e}, nil
}
