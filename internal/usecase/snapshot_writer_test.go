package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"FxForecast/internal/domain/models"
	domrepo "FxForecast/internal/domain/repository"
	"FxForecast/internal/repository"
	"FxForecast/pkg/logger"
)

var currencySpec = models.SnapshotSpec{
	Name:        "currency",
	File:        "tahmin.json",
	Freq:        models.Daily,
	Horizon:     90,
	Start:       day(2024, 1, 1),
	Instruments: []string{"USD", "EUR"},
}

type recordingSink struct {
	runs []string
	err  error
}

func (s *recordingSink) Name() string { return "recording" }

func (s *recordingSink) Publish(_ context.Context, _ models.SnapshotSpec, runID string, _ *models.Snapshot) error {
	s.runs = append(s.runs, runID)
	return s.err
}

func newWriter(t *testing.T, f *fakeFetcher, store domrepo.SnapshotStore, sinks ...domrepo.SnapshotSink) *SnapshotWriter {
	t.Helper()
	loc, err := time.LoadLocation("Europe/Istanbul")
	require.NoError(t, err)
	now := time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC)
	return NewSnapshotWriter(f, &stubFitter{}, testInstruments, store, sinks,
		SnapshotOptions{Concurrency: 2, Location: loc}, fixedClock(now), nil, logger.Nop())
}

func TestSnapshotWriterTwoRunsProduceValidDocuments(t *testing.T) {
	store := repository.NewFileStore(t.TempDir())
	w := newWriter(t, newFakeFetcher(), store)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		_, err := w.Run(ctx, currencySpec)
		require.NoError(t, err)

		raw, err := store.Load(ctx, "tahmin.json")
		require.NoError(t, err)

		var doc map[string]json.RawMessage
		require.NoError(t, json.Unmarshal(raw, &doc))
		assert.Contains(t, doc, "forecasts")
		assert.Contains(t, doc, "forecast_days")
		assert.NotContains(t, doc, "forecast_months")
	}
}

func TestSnapshotWriterDocumentShape(t *testing.T) {
	store := repository.NewFileStore(t.TempDir())
	f := newFakeFetcher()
	w := newWriter(t, f, store)

	snap, err := w.Run(context.Background(), currencySpec)
	require.NoError(t, err)

	assert.Equal(t, "2024-03-01 12:30:00", snap.GeneratedAt)
	require.NotNil(t, snap.ForecastDays)
	assert.Equal(t, 90, *snap.ForecastDays)
	require.Contains(t, snap.Forecasts, "USD")
	require.Contains(t, snap.Forecasts, "EUR")

	usd := snap.Forecasts["USD"]
	require.Len(t, usd.Forecast, 90)
	assert.Equal(t, "2024-03-02", usd.Forecast[0].Date)
	assert.Equal(t, "2024-05-30", usd.Forecast[89].Date)
	assert.Equal(t, "2024-01-01", usd.Real[0].Date)
	assert.Len(t, usd.Real, 61)

	for _, p := range usd.Real {
		assert.Equal(t, p.Actual, math.Round(p.Actual*1e4)/1e4)
	}
	for _, p := range usd.Forecast {
		assert.Equal(t, p.Prediction, math.Round(p.Prediction*1e4)/1e4)
		assert.LessOrEqual(t, p.ConfLow, p.Prediction)
		assert.LessOrEqual(t, p.Prediction, p.ConfHigh)
	}
}

func TestSnapshotWriterMonthlyUsesLabels(t *testing.T) {
	store := repository.NewFileStore(t.TempDir())
	instruments := append([]models.Instrument(nil), testInstruments...)
	instruments[2].Label = "TÜFE"
	w := NewSnapshotWriter(newFakeFetcher(), &stubFitter{}, instruments, store, nil,
		SnapshotOptions{}, fixedClock(day(2024, 6, 15)), nil, logger.Nop())

	snap, err := w.Run(context.Background(), models.SnapshotSpec{
		Name: "inflation", File: "enflasyon_tahmin.json", Freq: models.Monthly,
		Horizon: 12, Start: day(2010, 1, 1), Instruments: []string{"TUFE"},
	})
	require.NoError(t, err)

	require.NotNil(t, snap.ForecastMonths)
	assert.Nil(t, snap.ForecastDays)
	tufe, ok := snap.Forecasts["TÜFE"]
	require.True(t, ok)
	require.Len(t, tufe.Forecast, 12)
	assert.Equal(t, "2024-07-31", tufe.Forecast[0].Date)

	require.NotEmpty(t, tufe.Real)
	assert.Equal(t, "2010-01-01", tufe.Real[0].Date)
	for _, p := range tufe.Real {
		assert.True(t, strings.HasSuffix(p.Date, "-01"), p.Date)
	}
}

func TestSnapshotWriterFailureKeepsPreviousDocument(t *testing.T) {
	store := repository.NewFileStore(t.TempDir())
	f := newFakeFetcher()
	w := newWriter(t, f, store)
	ctx := context.Background()

	_, err := w.Run(ctx, currencySpec)
	require.NoError(t, err)
	before, err := store.Load(ctx, "tahmin.json")
	require.NoError(t, err)

	f.errs = []error{&models.FetchError{Series: "TP.DK.USD.S.YTL", StatusCode: http.StatusBadGateway}}
	_, err = w.Run(ctx, currencySpec)
	var fe *models.FetchError
	require.True(t, errors.As(err, &fe))

	after, err := store.Load(ctx, "tahmin.json")
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestSnapshotWriterFirstFailureLeavesNothing(t *testing.T) {
	store := repository.NewFileStore(t.TempDir())
	f := newFakeFetcher()
	f.errs = []error{errors.New("timeout")}
	w := newWriter(t, f, store)

	_, err := w.Run(context.Background(), currencySpec)
	require.Error(t, err)

	_, err = store.Load(context.Background(), "tahmin.json")
	require.ErrorIs(t, err, models.ErrSnapshotUnavailable)
}

func TestSnapshotWriterSinksRunAfterPersistence(t *testing.T) {
	store := repository.NewFileStore(t.TempDir())
	ok := &recordingSink{}
	failing := &recordingSink{err: errors.New("broker down")}
	w := newWriter(t, newFakeFetcher(), store, failing, ok)

	_, err := w.Run(context.Background(), currencySpec)
	require.NoError(t, err, "sink failures are not fatal")
	require.Len(t, ok.runs, 1)
	require.Len(t, failing.runs, 1)
	assert.Equal(t, ok.runs[0], failing.runs[0])
}

func TestSnapshotWriterUnknownInstrument(t *testing.T) {
	w := newWriter(t, newFakeFetcher(), repository.NewFileStore(t.TempDir()))
	spec := currencySpec
	spec.Instruments = []string{"GBP"}

	_, err := w.Run(context.Background(), spec)
	require.ErrorIs(t, err, models.ErrUnknownInstrument)
}

func TestSnapshotWriterRunAllJoinsErrors(t *testing.T) {
	w := newWriter(t, newFakeFetcher(), repository.NewFileStore(t.TempDir()))
	bad := currencySpec
	bad.Name, bad.Instruments = "bad", []string{"GBP"}

	err := w.RunAll(context.Background(), []models.SnapshotSpec{currencySpec, bad})
	require.ErrorIs(t, err, models.ErrUnknownInstrument)
	assert.Contains(t, err.Error(), "snapshot bad")
}
