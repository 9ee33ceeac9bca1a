package models

import (
	"errors"
	"fmt"
)

var (
	ErrEmptySeries         = errors.New("no usable observations after cleaning")
	ErrInsufficientData    = errors.New("not enough observations for the configured seasonal order")
	ErrFitFailed           = errors.New("model fit failed")
	ErrMissingBounds       = errors.New("start_date and end_date are required for daily forecasts")
	ErrInvalidDateFormat   = errors.New("invalid date format, expected YYYY-MM-DD")
	ErrInvalidRange        = errors.New("requested date range is not valid for this series")
	ErrUnknownInstrument   = errors.New("unknown instrument")
	ErrSnapshotUnavailable = errors.New("snapshot not generated yet")
)

// FetchError reports a non-success response from the upstream provider.
type FetchError struct {
	Series     string
	StatusCode int
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("upstream request for %s failed with status %d", e.Series, e.StatusCode)
}

// IsClientFault reports whether err was caused by caller input.
func IsClientFault(err error) bool {
	return errors.Is(err, ErrMissingBounds) ||
		errors.Is(err, ErrInvalidDateFormat) ||
		errors.Is(err, ErrInvalidRange) ||
		errors.Is(err, ErrUnknownInstrument)
}
