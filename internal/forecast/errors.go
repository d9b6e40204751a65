package forecast

import (
	"errors"
	"fmt"
)

var (
	// ErrModelUnavailable is returned by Predict when no model has been
	// trained or loaded. Callers fall back to the heuristic estimate.
	ErrModelUnavailable = errors.New("forecast: model not trained")

	// ErrInsufficientData is returned by Fit when fewer than MinSamples
	// valid samples remain after filtering.
	ErrInsufficientData = errors.New("forecast: not enough valid training samples")
)

// DataError marks malformed input history (bad timestamps, non-positive
// quantities). It propagates to the caller instead of being coerced.
type DataError struct {
	Reason string
}

func (e *DataError) Error() string {
	return fmt.Sprintf("forecast: bad order data: %s", e.Reason)
}
