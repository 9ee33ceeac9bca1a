package di

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"

	"FxForecast/internal/domain/models"
	"FxForecast/internal/domain/repository"
	"FxForecast/internal/handler/api"
	internalrepo "FxForecast/internal/repository"
	"FxForecast/internal/service/evds"
	"FxForecast/internal/service/ratelimit"
	"FxForecast/internal/services/sarima"
	"FxForecast/internal/usecase"
	pkgch "FxForecast/pkg/clickhouse"
	"FxForecast/pkg/config"
	xhttp "FxForecast/pkg/http"
	pkgkafka "FxForecast/pkg/kafka"
	applogger "FxForecast/pkg/logger"
	"FxForecast/pkg/metrics"
	"FxForecast/pkg/server"
	"FxForecast/pkg/util"
)

// ProvideLogger creates the application logger from config.
func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	l, err := applogger.New(&applogger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	return l.With(applogger.String("env", cfg.Environment)), nil
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() *metrics.Recorder {
	return metrics.New(prometheus.DefaultRegisterer)
}

// ProvideClock returns the wall clock.
func ProvideClock() repository.Clock {
	return repository.SystemClock
}

// ProvideInstruments converts configured instruments, sorted by key.
func ProvideInstruments(cfg *config.Config) []models.Instrument {
	out := make([]models.Instrument, 0, len(cfg.Instruments))
	for key, inst := range cfg.Instruments {
		kind := inst.Kind
		if kind == "" {
			kind = models.KindCurrency
		}
		out = append(out, models.Instrument{
			Key:    strings.ToUpper(key),
			Series: inst.Series,
			Column: inst.Column,
			Kind:   kind,
			Label:  inst.Label,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}

// ProvideSnapshotSpecs converts configured snapshot jobs.
func ProvideSnapshotSpecs(cfg *config.Config) ([]models.SnapshotSpec, error) {
	specs := make([]models.SnapshotSpec, 0, len(cfg.Snapshot.Jobs))
	for _, job := range cfg.Snapshot.Jobs {
		start, err := util.ParseDate(job.Start)
		if err != nil {
			return nil, fmt.Errorf("snapshot %s start: %w", job.Name, err)
		}
		freq := models.Monthly
		if job.Frequency == "daily" {
			freq = models.Daily
		}
		specs = append(specs, models.SnapshotSpec{
			Name:        job.Name,
			File:        job.File,
			Freq:        freq,
			Horizon:     job.Horizon,
			Start:       start,
			Instruments: job.Instruments,
		})
	}
	return specs, nil
}

// ProvideSeriesFetcher creates the EVDS client.
func ProvideSeriesFetcher(cfg *config.Config, instruments []models.Instrument, clock repository.Clock, m *metrics.Recorder, l *applogger.Logger) repository.SeriesFetcher {
	columns := make(map[string]string, len(instruments))
	for _, inst := range instruments {
		if inst.Column != "" {
			columns[inst.Series] = inst.Column
		}
	}
	return evds.NewClient(evds.Config{
		BaseURL: cfg.EVDS.BaseURL,
		APIKey:  cfg.EVDS.APIKey,
		Timeout: cfg.EVDS.Timeout,
	}, l,
		evds.WithClock(clock),
		evds.WithColumns(columns),
		evds.WithMetrics(m),
	)
}

// ProvideFitter creates the SARIMA fitter with the configured seasonal periods.
func ProvideFitter(cfg *config.Config) *sarima.Fitter {
	return sarima.NewFitter(cfg.Forecast.DailySeason, cfg.Forecast.MonthlySeason, cfg.Forecast.Confidence)
}

// ProvideForecastUseCase creates the request-path orchestrator.
func ProvideForecastUseCase(
	cfg *config.Config,
	fetcher repository.SeriesFetcher,
	fitter *sarima.Fitter,
	instruments []models.Instrument,
	clock repository.Clock,
	m *metrics.Recorder,
	l *applogger.Logger,
) (*usecase.ForecastUseCase, error) {
	start, err := util.ParseDate(cfg.Forecast.HistoryStart)
	if err != nil {
		return nil, fmt.Errorf("forecast.history_start: %w", err)
	}
	return usecase.NewForecastUseCase(fetcher, fitter, instruments, usecase.ForecastOptions{
		HistoryStart:   start,
		MonthlyHorizon: cfg.Forecast.MonthlyHorizon,
		FitWorkers:     cfg.Forecast.FitWorkers,
	}, clock, m, l), nil
}

// closer logs close failures; the returned func is a Wire cleanup.
func closer(l *applogger.Logger, name string, close func() error) func() {
	return func() {
		if err := close(); err != nil {
			l.Warn("close error", applogger.String("resource", name), applogger.Error(err))
		}
	}
}

func noCleanup() {}

// ProvideRedisClient connects to Redis when enabled. Returns nil otherwise.
func ProvideRedisClient(cfg *config.Config, l *applogger.Logger) (redis.UniversalClient, func(), error) {
	if !cfg.Redis.Enabled {
		return nil, noCleanup, nil
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, nil, fmt.Errorf("redis ping: %w", err)
	}
	return client, closer(l, "redis", client.Close), nil
}

// ProvideClickHouseClient creates a ClickHouse client and the archive schema
// when enabled. Returns nil otherwise.
func ProvideClickHouseClient(cfg *config.Config, l *applogger.Logger) (*pkgch.Client, func(), error) {
	if !cfg.ClickHouse.Enabled {
		return nil, noCleanup, nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := pkgch.NewClient(ctx,
		pkgch.WithAddress(cfg.ClickHouse.Host, cfg.ClickHouse.Port),
		pkgch.WithDatabase(cfg.ClickHouse.Database),
		pkgch.WithCredentials(cfg.ClickHouse.User, cfg.ClickHouse.Password),
		pkgch.WithHTTP(cfg.ClickHouse.UseHTTP),
		pkgch.WithAsyncInsert(cfg.ClickHouse.AsyncInsert, cfg.ClickHouse.WaitForAsync),
		pkgch.WithTimeouts(cfg.ClickHouse.DialTimeout, cfg.ClickHouse.ReadTimeout, cfg.ClickHouse.WriteTimeout),
		pkgch.WithMaxExecutionTime(cfg.ClickHouse.MaxExecutionTime),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("clickhouse client: %w", err)
	}

	if err := client.InitSchema(ctx, internalrepo.ArchiveSchema(client.Database(), cfg.ClickHouse.Table)); err != nil {
		_ = client.Close()
		return nil, nil, fmt.Errorf("clickhouse schema: %w", err)
	}
	return client, closer(l, "clickhouse", client.Close), nil
}

// ProvideKafkaProducer creates a Kafka producer when enabled. Returns nil otherwise.
func ProvideKafkaProducer(cfg *config.Config, l *applogger.Logger) (*pkgkafka.Producer, func(), error) {
	if !cfg.Kafka.Enabled {
		return nil, noCleanup, nil
	}
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithTopic(cfg.Kafka.Topic),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
		pkgkafka.WithMaxAttempts(cfg.Kafka.MaxAttempts),
		pkgkafka.WithWriteTimeout(cfg.Kafka.WriteTimeout),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("kafka producer: %w", err)
	}
	return producer, closer(l, "kafka", producer.Close), nil
}

// ProvideRedisSnapshotStore returns the Redis snapshot mirror, nil when Redis is disabled.
func ProvideRedisSnapshotStore(cfg *config.Config, rdb redis.UniversalClient) *internalrepo.RedisStore {
	if rdb == nil {
		return nil
	}
	return internalrepo.NewRedisStore(rdb, cfg.Redis.Prefix)
}

// ProvideSnapshotStore returns the file store, mirrored to Redis when enabled.
func ProvideSnapshotStore(cfg *config.Config, mirror *internalrepo.RedisStore, l *applogger.Logger) repository.SnapshotStore {
	files := internalrepo.NewFileStore(cfg.Snapshot.Dir)
	if mirror == nil {
		return files
	}
	return internalrepo.NewMirroredStore(files, l, mirror)
}

// ProvideSnapshotSinks collects the optional post-persistence publishers.
func ProvideSnapshotSinks(cfg *config.Config, ch *pkgch.Client, producer *pkgkafka.Producer, clock repository.Clock, l *applogger.Logger) []repository.SnapshotSink {
	var sinks []repository.SnapshotSink
	if ch != nil {
		sinks = append(sinks, internalrepo.NewCHArchive(ch, cfg.ClickHouse.Table, cfg.Location(), l))
	}
	if producer != nil {
		sinks = append(sinks, internalrepo.NewKafkaNotifier(producer, clock))
	}
	return sinks
}

// ProvideSnapshotWriter creates the batch snapshot writer.
func ProvideSnapshotWriter(
	cfg *config.Config,
	fetcher repository.SeriesFetcher,
	fitter *sarima.Fitter,
	instruments []models.Instrument,
	store repository.SnapshotStore,
	sinks []repository.SnapshotSink,
	clock repository.Clock,
	m *metrics.Recorder,
	l *applogger.Logger,
) *usecase.SnapshotWriter {
	return usecase.NewSnapshotWriter(fetcher, fitter, instruments, store, sinks, usecase.SnapshotOptions{
		Concurrency: cfg.Snapshot.Concurrency,
		Location:    cfg.Location(),
	}, clock, m, l)
}

// ProvideSnapshotReader serves persisted snapshots.
func ProvideSnapshotReader(store repository.SnapshotStore) *usecase.SnapshotReader {
	return usecase.NewSnapshotReader(store)
}

// ProvideScheduler creates the in-process snapshot scheduler.
func ProvideScheduler(cfg *config.Config, writer *usecase.SnapshotWriter, specs []models.SnapshotSpec, l *applogger.Logger) *usecase.Scheduler {
	return usecase.NewScheduler(writer, specs, cfg.Snapshot.Interval, l)
}

// ProvideRateLimiter creates the per-client limiter for POST /forecast.
func ProvideRateLimiter(cfg *config.Config, l *applogger.Logger) *ratelimit.Limiter {
	rl := cfg.Server.RateLimit
	l.Info("forecast rate limit",
		applogger.Bool("enabled", rl.RPS > 0),
		applogger.Float64("rps", rl.RPS),
		applogger.Int("burst", rl.Burst),
	)
	return ratelimit.New(rl.RPS, rl.Burst)
}

// ProvideForecastHandler creates the Echo handler.
func ProvideForecastHandler(
	l *applogger.Logger,
	uc *usecase.ForecastUseCase,
	reader *usecase.SnapshotReader,
	specs []models.SnapshotSpec,
	limiter *ratelimit.Limiter,
	mirror *internalrepo.RedisStore,
	ch *pkgch.Client,
) *api.ForecastEchoHandler {
	h := api.NewForecastEchoHandler(l, uc, reader, staticFiles(specs), limiter)
	if mirror != nil {
		h.WithHealthCheck("redis", mirror)
	}
	if ch != nil {
		h.WithHealthCheck("clickhouse", ch)
	}
	return h
}

// staticFiles picks the documents served by /forecast_static from the jobs
// named currency and inflation.
func staticFiles(specs []models.SnapshotSpec) api.StaticFiles {
	files := api.StaticFiles{Currency: "tahmin.json", Inflation: "enflasyon_tahmin.json"}
	for _, s := range specs {
		switch s.Name {
		case "currency":
			files.Currency = s.File
		case "inflation":
			files.Inflation = s.File
		}
	}
	return files
}

// ProvideHTTPServer creates the Echo server.
func ProvideHTTPServer(cfg *config.Config, l *applogger.Logger, h *api.ForecastEchoHandler) *xhttp.Server {
	opts := []xhttp.ServerOption{
		xhttp.WithPort(cfg.Server.Port),
		xhttp.WithTimeouts(cfg.Server.ReadTimeout, cfg.Server.WriteTimeout, cfg.Server.ShutdownTimeout),
		xhttp.WithCORSOrigins(cfg.Server.CORSOrigins),
	}
	if cfg.Metrics.Enabled {
		opts = append(opts, xhttp.WithMetrics(cfg.Metrics.Path, prometheus.DefaultRegisterer, prometheus.DefaultGatherer))
	}
	return xhttp.NewServer(l, []xhttp.Handler{h}, opts...)
}

// ProvideApp creates the application server.
func ProvideApp(
	cfg *config.Config,
	l *applogger.Logger,
	srv *xhttp.Server,
	scheduler *usecase.Scheduler,
	writer *usecase.SnapshotWriter,
	specs []models.SnapshotSpec,
	uc *usecase.ForecastUseCase,
) *server.App {
	app := server.New(l, srv, scheduler, writer, specs)
	if cfg.Forecast.WarmOnStart {
		app.SetWarmer(uc)
	}
	return app
}
