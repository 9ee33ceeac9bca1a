package evds

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"FxForecast/internal/domain/models"
	drepo "FxForecast/internal/domain/repository"
	xhttp "FxForecast/pkg/http"
	"FxForecast/pkg/logger"
	"FxForecast/pkg/util"
)

const (
	DefaultBaseURL = "https://evds2.tcmb.gov.tr/service/evds"

	// EVDS frequency selectors.
	frequencyDaily   = "1"
	frequencyMonthly = "5"

	userAgent = "Mozilla/5.0"
)

// Config holds EVDS connection settings.
type Config struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

type Option func(*Client)

// WithClock replaces the wall clock used when the caller passes a zero end date.
func WithClock(clock drepo.Clock) Option {
	return func(c *Client) {
		c.clock = clock
	}
}

// WithColumns maps EVDS series codes to the value column name used downstream
// (e.g. TP.DK.USD.S.YTL -> USD_Kuru).
func WithColumns(columns map[string]string) Option {
	return func(c *Client) {
		for k, v := range columns {
			c.columns[k] = v
		}
	}
}

// WithHTTPClient replaces the outbound HTTP client.
func WithHTTPClient(hc *xhttp.Client) Option {
	return func(c *Client) {
		c.http = hc
	}
}

// WithMetrics records one fetch outcome per call.
func WithMetrics(m drepo.Metrics) Option {
	return func(c *Client) {
		c.metrics = m
	}
}

// Client implements SeriesFetcher against the CBRT EVDS CSV endpoint.
type Client struct {
	baseURL string
	apiKey  string
	http    *xhttp.Client
	clock   drepo.Clock
	columns map[string]string
	metrics drepo.Metrics
	log     *logger.Logger
}

// NewClient creates an EVDS fetcher.
func NewClient(cfg Config, l *logger.Logger, opts ...Option) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if l == nil {
		l = logger.Nop()
	}
	c := &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		http:    xhttp.NewClient(xhttp.WithTimeout(cfg.Timeout)),
		clock:   drepo.SystemClock,
		columns: make(map[string]string),
		log:     l.With(logger.String("component", "evds")),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Fetch downloads code between start and end (end defaults to now), cleans the
// rows and lays them out on the freq grid.
func (c *Client) Fetch(ctx context.Context, code string, start, end time.Time, freq models.Frequency) (*models.Series, error) {
	if end.IsZero() {
		end = c.clock.Now()
	}
	started := time.Now()

	var body []byte
	err := c.http.SendAndParse(ctx, &xhttp.RequestOptions{
		Method: xhttp.MethodGet,
		URL:    c.seriesURL(code, start, end, freq),
		Headers: map[string]string{
			"User-Agent": userAgent,
			"key":        c.apiKey,
		},
	}, &body)
	if err != nil {
		var se *xhttp.StatusError
		if errors.As(err, &se) {
			c.record(code, "http_error")
			c.log.Warn("evds request rejected",
				logger.String("series", code),
				logger.Int("status", se.StatusCode),
			)
			return nil, &models.FetchError{Series: code, StatusCode: se.StatusCode}
		}
		c.record(code, "transport_error")
		return nil, fmt.Errorf("fetch %s: %w", code, err)
	}

	obs, dropped, err := parseCSV(body, code)
	if err != nil {
		c.record(code, "parse_error")
		return nil, fmt.Errorf("parse %s: %w", code, err)
	}
	if len(obs) == 0 {
		c.record(code, "empty")
		return nil, fmt.Errorf("%s: %w", code, models.ErrEmptySeries)
	}

	series := regularize(c.columnName(code), obs, freq)
	c.record(code, "ok")
	c.log.Debug("evds series fetched",
		logger.String("series", code),
		logger.String("frequency", string(freq)),
		logger.Int64("bytes", int64(len(body))),
		logger.Int("rows", len(obs)),
		logger.Int("dropped", dropped),
		logger.Int("slots", series.Len()),
		logger.Duration("duration_ms", time.Since(started)),
	)
	return series, nil
}

func (c *Client) seriesURL(code string, start, end time.Time, freq models.Frequency) string {
	f := frequencyMonthly
	if freq == models.Daily {
		f = frequencyDaily
	}
	return fmt.Sprintf("%s/series=%s&startDate=%s&endDate=%s&type=csv&aggregationTypes=avg&formulas=0&frequency=%s",
		c.baseURL, code, start.Format(util.EVDSDate), end.Format(util.EVDSDate), f)
}

func (c *Client) columnName(code string) string {
	if name, ok := c.columns[code]; ok && name != "" {
		return name
	}
	return strings.ReplaceAll(code, ".", "_")
}

func (c *Client) record(code, result string) {
	if c.metrics != nil {
		c.metrics.RecordFetch(code, result)
	}
}

var _ drepo.SeriesFetcher = (*Client)(nil)
