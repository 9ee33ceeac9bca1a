package service

import (
	"time"

	"FxForecast/internal/domain/models"
)

// FittedModel is a seasonal model trained on exactly one series.
type FittedModel interface {
	// PredictRange returns one point per period between from and to inclusive,
	// mixing in-sample and out-of-sample periods as needed.
	PredictRange(from, to time.Time) ([]models.ForecastPoint, error)
	// Forecast returns steps strictly-future periods after the training series.
	Forecast(steps int) ([]models.ForecastPoint, error)
	// LastDate is the last period of the training series.
	LastDate() time.Time
}

// ModelFitter builds a FittedModel from a series.
type ModelFitter interface {
	Fit(series *models.Series) (FittedModel, error)
}
