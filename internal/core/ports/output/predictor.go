package ports

import (
	"aqi-prediction-service/internal/core/domain"
)

// Predictor is a loaded, immutable model.
type Predictor interface {
	Describe() domain.ModelInfo
	Predict(vec []float64) (float64, error)
}
