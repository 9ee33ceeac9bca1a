package models

import "time"

// GeneratedAtLayout is the generated_at format of snapshot documents, written
// as wall time in the configured timezone.
const GeneratedAtLayout = "2006-01-02 15:04:05"

// SnapshotSpec selects what one batch run produces.
type SnapshotSpec struct {
	Name        string
	File        string
	Freq        Frequency
	Horizon     int
	Start       time.Time
	Instruments []string
}

// ActualPoint is one observed historical value.
type ActualPoint struct {
	Date   string  `json:"date"`
	Actual float64 `json:"actual"`
}

// PredictionPoint is one forecast row in a snapshot.
type PredictionPoint struct {
	Date       string  `json:"date"`
	Prediction float64 `json:"prediction"`
	ConfLow    float64 `json:"conf_low"`
	ConfHigh   float64 `json:"conf_high"`
}

// InstrumentSnapshot holds the history and forecast for one instrument.
type InstrumentSnapshot struct {
	Real     []ActualPoint     `json:"real"`
	Forecast []PredictionPoint `json:"forecast"`
}

// Snapshot is the persisted document. Exactly one of ForecastDays and
// ForecastMonths is set, depending on the job frequency.
type Snapshot struct {
	GeneratedAt    string                        `json:"generated_at"`
	ForecastDays   *int                          `json:"forecast_days,omitempty"`
	ForecastMonths *int                          `json:"forecast_months,omitempty"`
	Forecasts      map[string]InstrumentSnapshot `json:"forecasts"`
}

// SnapshotEvent announces a freshly persisted snapshot to downstream consumers.
type SnapshotEvent struct {
	RunID       string    `json:"run_id"`
	Name        string    `json:"name"`
	File        string    `json:"file"`
	GeneratedAt string    `json:"generated_at"`
	Horizon     int       `json:"horizon"`
	Instruments []string  `json:"instruments"`
	WrittenAt   time.Time `json:"written_at"`
}
