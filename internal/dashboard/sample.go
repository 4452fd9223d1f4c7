package dashboard

import (
	"aqi-prediction-service/internal/adapters/primary/http/dto"
)

const sampleLocation = "Delhi, India"

// samplePrediction is shown in sample mode when the API cannot be reached.
func samplePrediction() *dto.PredictionResponse {
	return &dto.PredictionResponse{
		Prediction: 45.5,
		Category:   "Good",
		Target:     "aqi",
		Model:      "sample",
		Source:     "sample",
		Inputs: map[string]float64{
			"pm2_5": 25.0,
			"pm10":  45.0,
			"no2":   12.0,
			"so2":   5.0,
			"co":    0.5,
			"o3":    45.0,
			"nh3":   0.0,
		},
		Location: &dto.LocationResponse{Name: sampleLocation},
	}
}
