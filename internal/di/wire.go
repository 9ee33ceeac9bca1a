//go:build wireinject
// +build wireinject

package di

import (
	"github.com/google/wire"

	"FxForecast/pkg/config"
	"FxForecast/pkg/server"
)

// InitializeApp wires up all dependencies and returns the application with
// a cleanup func that closes the infrastructure clients.
func InitializeApp(cfg *config.Config) (*server.App, func(), error) {
	wire.Build(
		ProvideLogger,
		ProvideMetrics,
		ProvideClock,

		// Configuration views
		ProvideInstruments,
		ProvideSnapshotSpecs,

		// Infrastructure clients
		ProvideRedisClient,
		ProvideClickHouseClient,
		ProvideKafkaProducer,

		// Repositories
		ProvideSeriesFetcher,
		ProvideRedisSnapshotStore,
		ProvideSnapshotStore,
		ProvideSnapshotSinks,

		// Use cases
		ProvideFitter,
		ProvideForecastUseCase,
		ProvideSnapshotWriter,
		ProvideSnapshotReader,
		ProvideScheduler,

		// HTTP
		ProvideRateLimiter,
		ProvideForecastHandler,
		ProvideHTTPServer,

		// Application server
		ProvideApp,
	)
	return nil, nil, nil
}
