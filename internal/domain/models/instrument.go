package models

import "fmt"

// Instrument kinds, echoed as the "type" of a forecast response.
const (
	KindCurrency  = "currency"
	KindInflation = "inflation"
)

// Instrument is one forecastable upstream series.
type Instrument struct {
	Key    string // public identifier, e.g. USD
	Series string // upstream series code, e.g. TP.DK.USD.S.YTL
	Column string // value column name after cleaning, e.g. USD_Kuru
	Kind   string
	Label  string // key in snapshot documents, e.g. TÜFE
}

// DisplayLabel returns Label, falling back to Key.
func (i Instrument) DisplayLabel() string {
	if i.Label != "" {
		return i.Label
	}
	return i.Key
}

// CacheKey identifies the series (and its model) for one instrument at one frequency.
func (i Instrument) CacheKey(freq Frequency) string {
	return fmt.Sprintf("%s@%s", i.Key, freq)
}
