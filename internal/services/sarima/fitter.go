package sarima

import (
	"FxForecast/internal/domain/models"
	"FxForecast/internal/domain/service"
)

// Fitter picks the seasonal order from the series frequency.
type Fitter struct {
	Daily      Order
	Monthly    Order
	Confidence float64
}

// NewFitter returns a Fitter using (1,1,1)(1,1,1,s) for both frequencies.
func NewFitter(dailySeason, monthlySeason int, confidence float64) *Fitter {
	return &Fitter{
		Daily:      Seasonal(dailySeason),
		Monthly:    Seasonal(monthlySeason),
		Confidence: confidence,
	}
}

func (f *Fitter) Fit(series *models.Series) (service.FittedModel, error) {
	order := f.Daily
	if series != nil && series.Freq == models.Monthly {
		order = f.Monthly
	}
	m, err := Fit(series, order, f.Confidence)
	if err != nil {
		return nil, err
	}
	return m, nil
}

var _ service.ModelFitter = (*Fitter)(nil)
var _ service.FittedModel = (*Model)(nil)
