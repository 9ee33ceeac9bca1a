package repository

import (
	"context"
	"time"

	"FxForecast/internal/domain/models"
)

// SeriesFetcher retrieves a cleaned, regularized series from the upstream provider.
type SeriesFetcher interface {
	Fetch(ctx context.Context, code string, start, end time.Time, freq models.Frequency) (*models.Series, error)
}

// SnapshotStore persists snapshot documents under a well-known name.
// Save must be atomic: readers see either the previous or the new document.
type SnapshotStore interface {
	Save(ctx context.Context, name string, doc []byte) error
	Load(ctx context.Context, name string) ([]byte, error)
}

// SnapshotSink receives a snapshot after it has been persisted.
type SnapshotSink interface {
	Name() string
	Publish(ctx context.Context, spec models.SnapshotSpec, runID string, snap *models.Snapshot) error
}

// Clock supplies the current time.
type Clock interface {
	Now() time.Time
}

// ClockFunc adapts a function to Clock.
type ClockFunc func() time.Time

func (f ClockFunc) Now() time.Time { return f() }

// SystemClock is the wall clock.
var SystemClock Clock = ClockFunc(time.Now)

type Metrics interface {
	RecordFetch(instrument, result string)
	RecordCache(cache, result string)
	RecordFit(instrument string, seconds float64, err error)
	RecordSnapshot(name, result string, at time.Time)
	RecordError(kind string)
}
