package usecase

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"FxForecast/internal/domain/models"
)

type countingRunner struct {
	runs atomic.Int32
	err  error
}

func (r *countingRunner) RunAll(context.Context, []models.SnapshotSpec) error {
	r.runs.Add(1)
	return r.err
}

func TestSchedulerRunsImmediatelyAndRepeats(t *testing.T) {
	r := &countingRunner{err: errors.New("upstream down")}
	s := NewScheduler(r, []models.SnapshotSpec{{Name: "currency"}}, 10*time.Millisecond, nil)

	require.NoError(t, s.Start(context.Background()))
	require.Eventually(t, func() bool { return r.runs.Load() >= 3 }, time.Second, 5*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, s.Stop(ctx))

	after := r.runs.Load()
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, after, r.runs.Load())
}

func TestSchedulerDisabled(t *testing.T) {
	r := &countingRunner{}
	for _, s := range []*Scheduler{
		NewScheduler(r, []models.SnapshotSpec{{Name: "currency"}}, 0, nil),
		NewScheduler(r, nil, time.Millisecond, nil),
	} {
		require.NoError(t, s.Start(context.Background()))
		require.NoError(t, s.Stop(context.Background()))
	}
	assert.Zero(t, r.runs.Load())
}
