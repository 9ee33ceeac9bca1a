package server

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"FxForecast/internal/domain/models"
	"FxForecast/internal/usecase"
	xhttp "FxForecast/pkg/http"
	applogger "FxForecast/pkg/logger"
)

// Warmer preloads forecast models before traffic arrives.
type Warmer interface {
	Warm(ctx context.Context, freq models.Frequency)
}

// App encapsulates the application lifecycle of the HTTP server and the
// snapshot scheduler. Infrastructure clients are released by the injector's
// cleanup func.
type App struct {
	log        *applogger.Logger
	httpServer *xhttp.Server
	scheduler  *usecase.Scheduler
	snapshots  *usecase.SnapshotWriter
	specs      []models.SnapshotSpec
	warmer     Warmer
}

// New creates a new App instance with all dependencies.
func New(
	l *applogger.Logger,
	httpServer *xhttp.Server,
	scheduler *usecase.Scheduler,
	snapshots *usecase.SnapshotWriter,
	specs []models.SnapshotSpec,
) *App {
	if l == nil {
		l = applogger.Nop()
	}
	return &App{
		log:        l,
		httpServer: httpServer,
		scheduler:  scheduler,
		snapshots:  snapshots,
		specs:      specs,
	}
}

// SetWarmer enables model warmup at startup.
func (a *App) SetWarmer(w Warmer) { a.warmer = w }

// Serve runs the HTTP server and snapshot scheduler until ctx is cancelled
// or SIGINT/SIGTERM arrives.
func (a *App) Serve(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if a.warmer != nil {
		go func() {
			a.warmer.Warm(ctx, models.Daily)
			a.warmer.Warm(ctx, models.Monthly)
			a.log.Info("model warmup finished")
		}()
	}

	if a.scheduler != nil {
		if err := a.scheduler.Start(ctx); err != nil {
			return fmt.Errorf("start scheduler: %w", err)
		}
	}

	errCh := a.httpServer.Start()

	var runErr error
	select {
	case <-ctx.Done():
		a.log.Info("shutdown signal received")
	case err, ok := <-errCh:
		if ok && err != nil {
			runErr = fmt.Errorf("http server: %w", err)
		}
	}

	return errors.Join(runErr, a.shutdown())
}

// RunSnapshots performs one batch run of every configured snapshot.
func (a *App) RunSnapshots(ctx context.Context) error {
	if len(a.specs) == 0 {
		a.log.Warn("no snapshot jobs configured")
		return nil
	}
	return a.snapshots.RunAll(ctx, a.specs)
}

// shutdown gracefully stops all services.
func (a *App) shutdown() error {
	a.log.Info("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), a.httpServer.ShutdownTimeout())
	defer cancel()

	var errs []error
	if err := a.httpServer.Stop(ctx); err != nil {
		a.log.Error("http shutdown error", applogger.Error(err))
		errs = append(errs, err)
	}
	if a.scheduler != nil {
		if err := a.scheduler.Stop(ctx); err != nil {
			a.log.Warn("scheduler stop error", applogger.Error(err))
			errs = append(errs, err)
		}
	}
	a.log.Info("shutdown complete")
	return errors.Join(errs...)
}
