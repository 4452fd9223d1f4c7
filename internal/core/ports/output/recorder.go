package ports

import (
	"time"
)

// PredictionRecorder observes prediction outcomes.
type PredictionRecorder interface {
	ObservePrediction(source string, value float64, elapsed time.Duration)
	ObservePredictionError(source, reason string)
	ObserveUpstream(elapsed time.Duration, err error)
	ObserveCache(hit bool)
}
