package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"FxForecast/internal/domain/models"
	xhttp "FxForecast/pkg/http"
	"FxForecast/pkg/http/middleware"
	xlogger "FxForecast/pkg/logger"
)

// Forecaster answers POST /forecast.
type Forecaster interface {
	Forecast(ctx context.Context, req models.ForecastRequest) (*models.ForecastResponse, error)
}

// SnapshotLoader returns persisted snapshot documents.
type SnapshotLoader interface {
	Load(ctx context.Context, name string) ([]byte, error)
}

// HealthChecker reports whether a backing dependency is reachable.
type HealthChecker interface {
	Health(ctx context.Context) error
}

type namedCheck struct {
	name  string
	check HealthChecker
}

const healthTimeout = 2 * time.Second

// StaticFiles names the snapshot documents served by the static routes.
type StaticFiles struct {
	Currency  string
	Inflation string
}

// ForecastEchoHandler exposes forecasts and snapshot documents over HTTP.
type ForecastEchoHandler struct {
	logger    *xlogger.Logger
	forecast  Forecaster
	snapshots SnapshotLoader
	files     StaticFiles
	limiter   middleware.Allower
	checks    []namedCheck
}

func NewForecastEchoHandler(
	logger *xlogger.Logger,
	forecast Forecaster,
	snapshots SnapshotLoader,
	files StaticFiles,
	limiter middleware.Allower,
) *ForecastEchoHandler {
	if logger == nil {
		logger = xlogger.Nop()
	}
	return &ForecastEchoHandler{
		logger:    logger,
		forecast:  forecast,
		snapshots: snapshots,
		files:     files,
		limiter:   limiter,
	}
}

// WithHealthCheck reports the named dependency on /healthz.
func (h *ForecastEchoHandler) WithHealthCheck(name string, hc HealthChecker) *ForecastEchoHandler {
	h.checks = append(h.checks, namedCheck{name: name, check: hc})
	return h
}

func (h *ForecastEchoHandler) RegisterRoutes(e *echo.Echo) {
	var mw []echo.MiddlewareFunc
	if h.limiter != nil {
		mw = append(mw, middleware.RateLimit(h.limiter))
	}
	e.POST("/forecast", h.Forecast, mw...)
	e.GET("/forecast_static", h.CurrencySnapshot)
	e.GET("/forecast_static/inflation", h.InflationSnapshot)
	e.GET("/healthz", h.Health)
}

func (h *ForecastEchoHandler) Forecast(c echo.Context) error {
	req := &models.ForecastRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	res, err := h.forecast.Forecast(c.Request().Context(), *req)
	if err != nil {
		appErr := toAppError(err)
		if appErr.Status >= http.StatusInternalServerError {
			h.logger.Error("forecast failed",
				xlogger.String("currency", req.Currency),
				xlogger.String("frequency", req.Frequency),
				xlogger.Error(err),
			)
		}
		return xhttp.AppErrorResponse(c, appErr)
	}
	return xhttp.SuccessResponse(c, res)
}

func (h *ForecastEchoHandler) CurrencySnapshot(c echo.Context) error {
	return h.serveSnapshot(c, h.files.Currency)
}

func (h *ForecastEchoHandler) InflationSnapshot(c echo.Context) error {
	return h.serveSnapshot(c, h.files.Inflation)
}

func (h *ForecastEchoHandler) serveSnapshot(c echo.Context, name string) error {
	doc, err := h.snapshots.Load(c.Request().Context(), name)
	if err != nil {
		if !errors.Is(err, models.ErrSnapshotUnavailable) {
			h.logger.Error("snapshot load failed", xlogger.String("file", name), xlogger.Error(err))
		}
		return xhttp.AppErrorResponse(c, toAppError(err))
	}
	c.Response().Header().Set(echo.HeaderCacheControl, "public, max-age=300")
	return xhttp.BlobResponse(c, doc)
}

// Health answers 200 while every registered dependency responds, 503 otherwise.
func (h *ForecastEchoHandler) Health(c echo.Context) error {
	if len(h.checks) == 0 {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), healthTimeout)
	defer cancel()

	status, code := "ok", http.StatusOK
	results := make(map[string]string, len(h.checks))
	for _, nc := range h.checks {
		if err := nc.check.Health(ctx); err != nil {
			h.logger.Warn("health check failed", xlogger.String("dependency", nc.name), xlogger.Error(err))
			results[nc.name] = err.Error()
			status, code = "degraded", http.StatusServiceUnavailable
			continue
		}
		results[nc.name] = "ok"
	}
	return c.JSON(code, map[string]interface{}{"status": status, "checks": results})
}

// toAppError maps domain failures onto HTTP statuses. Caller faults are 400,
// upstream failures 502, data shortfalls 422.
func toAppError(err error) *xhttp.AppError {
	var fe *models.FetchError
	switch {
	case errors.As(err, &fe):
		return xhttp.BadGatewayError(err.Error()).
			WithParam("upstream_status", fe.StatusCode).
			WithError(err)
	case errors.Is(err, models.ErrUnknownInstrument):
		return xhttp.BadRequestError("ERR_UNKNOWN_INSTRUMENT", err.Error()).WithError(err)
	case errors.Is(err, models.ErrMissingBounds):
		return xhttp.BadRequestError("ERR_MISSING_BOUNDS", err.Error()).WithError(err)
	case errors.Is(err, models.ErrInvalidDateFormat):
		return xhttp.BadRequestError("ERR_INVALID_DATE_FORMAT", err.Error()).WithError(err)
	case errors.Is(err, models.ErrInvalidRange):
		return xhttp.BadRequestError("ERR_INVALID_RANGE", err.Error()).WithError(err)
	case errors.Is(err, models.ErrEmptySeries):
		return xhttp.UnprocessableError("ERR_EMPTY_SERIES", err.Error()).WithError(err)
	case errors.Is(err, models.ErrInsufficientData):
		return xhttp.UnprocessableError("ERR_INSUFFICIENT_DATA", err.Error()).WithError(err)
	case errors.Is(err, models.ErrSnapshotUnavailable):
		return xhttp.ServiceUnavailableError("ERR_SNAPSHOT_UNAVAILABLE", err.Error()).WithError(err)
	case errors.Is(err, models.ErrFitFailed):
		return xhttp.InternalError(err.Error()).WithError(err)
	default:
		return xhttp.InternalError("Something went wrong").WithError(err)
	}
}
