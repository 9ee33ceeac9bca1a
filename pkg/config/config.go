package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Instrument describes one forecastable EVDS series.
type Instrument struct {
	Series string `yaml:"series"` // EVDS series code, e.g. TP.DK.USD.S.YTL
	Column string `yaml:"column"` // stable value column name after cleaning
	Kind   string `yaml:"kind"`   // currency or inflation
	Label  string `yaml:"label"`  // key used in snapshot documents, defaults to the instrument key
}

// SnapshotJob describes one precomputed snapshot document.
type SnapshotJob struct {
	Name        string   `yaml:"name"`
	File        string   `yaml:"file"`
	Frequency   string   `yaml:"frequency"` // daily or monthly
	Horizon     int      `yaml:"horizon"`
	Start       string   `yaml:"start"` // YYYY-MM-DD
	Instruments []string `yaml:"instruments"`
}

type Config struct {
	Environment string `yaml:"environment"`
	Timezone    string `yaml:"timezone"`
	Log         struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
		Output string `yaml:"output"`
	} `yaml:"log"`
	Server struct {
		Port            int           `yaml:"port"`
		ReadTimeout     time.Duration `yaml:"read_timeout"`
		WriteTimeout    time.Duration `yaml:"write_timeout"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
		CORSOrigins     []string      `yaml:"cors_origins"`
		RateLimit       struct {
			RPS   float64 `yaml:"rps"`
			Burst int     `yaml:"burst"`
		} `yaml:"rate_limit"`
	} `yaml:"server"`
	Metrics struct {
		Enabled bool   `yaml:"enabled"`
		Path    string `yaml:"path"`
	} `yaml:"metrics"`
	EVDS struct {
		BaseURL string        `yaml:"base_url"`
		APIKey  string        `yaml:"api_key"`
		Timeout time.Duration `yaml:"timeout"`
	} `yaml:"evds"`
	Instruments map[string]Instrument `yaml:"instruments"`
	Forecast    struct {
		HistoryStart   string  `yaml:"history_start"` // YYYY-MM-DD
		DailySeason    int     `yaml:"daily_season"`
		MonthlySeason  int     `yaml:"monthly_season"`
		MonthlyHorizon int     `yaml:"monthly_horizon"`
		Confidence     float64 `yaml:"confidence"`
		FitWorkers     int64   `yaml:"fit_workers"`
		WarmOnStart    bool    `yaml:"warm_on_start"` // fit every instrument before serving
	} `yaml:"forecast"`
	Snapshot struct {
		Dir         string        `yaml:"dir"`
		Concurrency int           `yaml:"concurrency"`
		Interval    time.Duration `yaml:"interval"` // 0 disables the in-process scheduler
		Jobs        []SnapshotJob `yaml:"jobs"`
	} `yaml:"snapshot"`
	Redis struct {
		Enabled  bool   `yaml:"enabled"`
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		Prefix   string `yaml:"prefix"`
	} `yaml:"redis"`
	Kafka struct {
		Enabled      bool          `yaml:"enabled"`
		Brokers      []string      `yaml:"brokers"`
		Topic        string        `yaml:"topic"`
		RequiredAcks int           `yaml:"required_acks"`
		Compression  string        `yaml:"compression"`
		MaxAttempts  int           `yaml:"max_attempts"`
		WriteTimeout time.Duration `yaml:"write_timeout"`
	} `yaml:"kafka"`
	ClickHouse struct {
		Enabled          bool          `yaml:"enabled"`
		Host             string        `yaml:"host"`
		Port             int           `yaml:"port"`
		Database         string        `yaml:"database"`
		Table            string        `yaml:"table"`
		User             string        `yaml:"user"`
		Password         string        `yaml:"password"`
		UseHTTP          bool          `yaml:"use_http"`
		AsyncInsert      bool          `yaml:"async_insert"`
		WaitForAsync     bool          `yaml:"wait_for_async_insert"`
		DialTimeout      time.Duration `yaml:"dial_timeout"`
		ReadTimeout      time.Duration `yaml:"read_timeout"`
		WriteTimeout     time.Duration `yaml:"write_timeout"`
		MaxExecutionTime time.Duration `yaml:"max_execution_time"`
	} `yaml:"clickhouse"`
}

// Load reads and parses a YAML configuration file.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(b)
}

// Parse decodes YAML bytes, applies defaults and validates.
func Parse(b []byte) (*Config, error) {
	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	c.applyDefaults()

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return &c, nil
}

// LoadWithEnv loads .env (if present), the YAML file, and applies environment overrides.
func LoadWithEnv(path string) (*Config, error) {
	// A missing .env is normal outside local development.
	_ = godotenv.Load()

	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	c.applyDefaults()
	c.applyEnv()

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return &c, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("EVDS_API_KEY"); v != "" {
		c.EVDS.APIKey = v
	}
	if v := os.Getenv("SERVER_PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			c.Server.Port = p
		}
	}
	if v := os.Getenv("SNAPSHOT_DIR"); v != "" {
		c.Snapshot.Dir = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		c.Redis.Addr = v
		c.Redis.Enabled = true
	}
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = strings.Split(v, ",")
		c.Kafka.Enabled = true
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
}

func (c *Config) applyDefaults() {
	if c.Environment == "" {
		c.Environment = "development"
	}
	if c.Timezone == "" {
		c.Timezone = "Europe/Istanbul"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "json"
	}
	if c.Server.Port == 0 {
		c.Server.Port = 5000
	}
	if c.Server.ReadTimeout == 0 {
		c.Server.ReadTimeout = 10 * time.Second
	}
	if c.Server.WriteTimeout == 0 {
		c.Server.WriteTimeout = 2 * time.Minute
	}
	if c.Server.ShutdownTimeout == 0 {
		c.Server.ShutdownTimeout = 10 * time.Second
	}
	if c.Metrics.Path == "" {
		c.Metrics.Path = "/metrics"
	}
	if c.EVDS.BaseURL == "" {
		c.EVDS.BaseURL = "https://evds2.tcmb.gov.tr/service/evds"
	}
	if c.EVDS.Timeout == 0 {
		c.EVDS.Timeout = 30 * time.Second
	}
	if c.Forecast.HistoryStart == "" {
		c.Forecast.HistoryStart = "2019-01-01"
	}
	if c.Forecast.DailySeason == 0 {
		c.Forecast.DailySeason = 30
	}
	if c.Forecast.MonthlySeason == 0 {
		c.Forecast.MonthlySeason = 12
	}
	if c.Forecast.MonthlyHorizon == 0 {
		c.Forecast.MonthlyHorizon = 12
	}
	if c.Forecast.Confidence == 0 {
		c.Forecast.Confidence = 0.95
	}
	if c.Forecast.FitWorkers == 0 {
		c.Forecast.FitWorkers = 2
	}
	if c.Snapshot.Dir == "" {
		c.Snapshot.Dir = "."
	}
	if c.Snapshot.Concurrency == 0 {
		c.Snapshot.Concurrency = 2
	}
	if c.Redis.Prefix == "" {
		c.Redis.Prefix = "fxforecast"
	}
	if c.Kafka.Topic == "" {
		c.Kafka.Topic = "fxforecast.snapshots"
	}
	if c.ClickHouse.Table == "" {
		c.ClickHouse.Table = "forecast_points"
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		return fmt.Errorf("timezone %q: %w", c.Timezone, err)
	}
	if len(c.Instruments) == 0 {
		return errors.New("instruments cannot be empty")
	}
	for key, inst := range c.Instruments {
		if inst.Series == "" {
			return fmt.Errorf("instruments.%s.series is required", key)
		}
	}
	if _, err := time.Parse("2006-01-02", c.Forecast.HistoryStart); err != nil {
		return fmt.Errorf("forecast.history_start: %w", err)
	}
	if c.Forecast.Confidence <= 0 || c.Forecast.Confidence >= 1 {
		return fmt.Errorf("forecast.confidence must be in (0,1), got %v", c.Forecast.Confidence)
	}
	for i, job := range c.Snapshot.Jobs {
		if job.Name == "" || job.File == "" {
			return fmt.Errorf("snapshot.jobs[%d]: name and file are required", i)
		}
		if job.Frequency != "daily" && job.Frequency != "monthly" {
			return fmt.Errorf("snapshot.jobs[%d].frequency must be 'daily' or 'monthly', got '%s'", i, job.Frequency)
		}
		if job.Horizon <= 0 {
			return fmt.Errorf("snapshot.jobs[%d].horizon must be positive", i)
		}
		if _, err := time.Parse("2006-01-02", job.Start); err != nil {
			return fmt.Errorf("snapshot.jobs[%d].start: %w", i, err)
		}
		for _, key := range job.Instruments {
			if _, ok := c.Instruments[key]; !ok {
				return fmt.Errorf("snapshot.jobs[%d]: unknown instrument %q", i, key)
			}
		}
	}
	if c.Redis.Enabled && c.Redis.Addr == "" {
		return errors.New("redis.addr is required when redis is enabled")
	}
	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		return errors.New("kafka.brokers cannot be empty when kafka is enabled")
	}
	if c.ClickHouse.Enabled && c.ClickHouse.Host == "" {
		return errors.New("clickhouse.host is required when clickhouse is enabled")
	}
	return nil
}

// Location returns the configured timezone. Validate guarantees it loads.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}
