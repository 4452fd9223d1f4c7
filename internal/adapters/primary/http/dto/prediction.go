package dto

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"time"

	"aqi-prediction-service/internal/core/domain"
)

type PredictionResponse struct {
	Prediction float64            `json:"prediction"`
	Category   string             `json:"category,omitempty"`
	Target     string             `json:"target"`
	Model      string             `json:"model"`
	Inputs     map[string]float64 `json:"inputs"`
	Source     string             `json:"source"`
	Location   *LocationResponse  `json:"location,omitempty"`
	ObservedAt *time.Time         `json:"observed_at,omitempty"`
	Timestamp  time.Time          `json:"timestamp"`
}

type LocationResponse struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Name      string  `json:"name,omitempty"`
}

func ToPredictionResponse(r *domain.PredictionResult) PredictionResponse {
	resp := PredictionResponse{
		Prediction: r.Prediction,
		Category:   r.Category,
		Target:     r.Target,
		Model:      r.Model,
		Inputs:     r.Inputs,
		Source:     string(r.Source),
		ObservedAt: r.ObservedAt,
		Timestamp:  r.Timestamp,
	}
	if r.Location != nil {
		resp.Location = &LocationResponse{
			Latitude:  r.Location.Latitude,
			Longitude: r.Location.Longitude,
			Name:      r.Location.Name,
		}
	}
	return resp
}

// DecodeFeatures reads a flat JSON object of named numbers. Anything else
// (arrays, nested objects, strings, booleans, null) is rejected.
func DecodeFeatures(r io.Reader) (map[string]float64, error) {
	body, err := io.ReadAll(io.LimitReader(r, 1<<20))
	if err != nil {
		return nil, domain.ErrInvalidRequestBody
	}

	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()

	var raw map[string]any
	if err := dec.Decode(&raw); err != nil || raw == nil {
		return nil, domain.ErrInvalidRequestBody
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, domain.ErrInvalidRequestBody
	}

	values := make(map[string]float64, len(raw))
	for name, v := range raw {
		n, ok := v.(json.Number)
		if !ok {
			return nil, fmt.Errorf("%w: %s", domain.ErrNonNumericFeature, name)
		}
		f, err := n.Float64()
		if err != nil || math.IsInf(f, 0) {
			return nil, fmt.Errorf("%w: %s", domain.ErrNonNumericFeature, name)
		}
		values[name] = f
	}
	return values, nil
}
