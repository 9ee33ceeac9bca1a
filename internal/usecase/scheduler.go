package usecase

import (
	"context"
	"sync"
	"time"

	"FxForecast/internal/domain/models"
	"FxForecast/pkg/logger"
)

// SnapshotRunner is satisfied by SnapshotWriter.
type SnapshotRunner interface {
	RunAll(ctx context.Context, specs []models.SnapshotSpec) error
}

// Scheduler regenerates snapshots on a fixed interval, starting immediately.
type Scheduler struct {
	runner   SnapshotRunner
	specs    []models.SnapshotSpec
	interval time.Duration
	log      *logger.Logger

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewScheduler(runner SnapshotRunner, specs []models.SnapshotSpec, interval time.Duration, l *logger.Logger) *Scheduler {
	if l == nil {
		l = logger.Nop()
	}
	return &Scheduler{
		runner:   runner,
		specs:    specs,
		interval: interval,
		log:      l.With(logger.String("component", "scheduler")),
	}
}

// Start launches the loop. A non-positive interval or no specs is a no-op.
func (s *Scheduler) Start(ctx context.Context) error {
	if s.interval <= 0 || len(s.specs) == 0 {
		s.log.Info("snapshot scheduler disabled")
		return nil
	}
	ctx, s.cancel = context.WithCancel(ctx)

	s.wg.Add(1)
	go s.run(ctx)

	s.log.Info("snapshot scheduler started",
		logger.Duration("interval_ms", s.interval),
		logger.Int("jobs", len(s.specs)),
	)
	return nil
}

// Stop cancels the loop and waits for an in-progress run, bounded by ctx.
func (s *Scheduler) Stop(ctx context.Context) error {
	if s.cancel == nil {
		return nil
	}
	s.cancel()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.log.Info("snapshot scheduler stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Scheduler) run(ctx context.Context) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.tick(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.tick(ctx)
		}
	}
}

func (s *Scheduler) tick(ctx context.Context) {
	if err := s.runner.RunAll(ctx, s.specs); err != nil {
		s.log.Error("scheduled snapshot run failed", logger.Error(err))
	}
}
