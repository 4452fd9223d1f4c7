package dto

import (
	"time"

	"aqi-prediction-service/internal/core/domain"
)

type HealthResponse struct {
	Status      string `json:"status"`
	ModelLoaded bool   `json:"model_loaded"`
	Model       string `json:"model,omitempty"`
}

type IndexResponse struct {
	Service   string            `json:"service"`
	Model     string            `json:"model,omitempty"`
	Endpoints map[string]string `json:"endpoints"`
}

type ModelResponse struct {
	Name      string            `json:"name"`
	Kind      string            `json:"kind"`
	TrainedAt *time.Time        `json:"trained_at,omitempty"`
	Features  []FeatureResponse `json:"features"`
	Output    OutputResponse    `json:"output"`
}

type FeatureResponse struct {
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Required    bool     `json:"required"`
	Default     *float64 `json:"default,omitempty"`
}

type OutputResponse struct {
	Target     string             `json:"target"`
	Unit       string             `json:"unit,omitempty"`
	Min        float64            `json:"min"`
	Max        float64            `json:"max"`
	Categories []CategoryResponse `json:"categories,omitempty"`
}

type CategoryResponse struct {
	Max   float64 `json:"max"`
	Label string  `json:"label"`
}

func ToModelResponse(info domain.ModelInfo) ModelResponse {
	resp := ModelResponse{
		Name:     info.Name,
		Kind:     info.Kind,
		Features: make([]FeatureResponse, 0, len(info.Features)),
		Output: OutputResponse{
			Target: info.Output.Target,
			Unit:   info.Output.Unit,
			Min:    info.Output.Min,
			Max:    info.Output.Max,
		},
	}
	if !info.TrainedAt.IsZero() {
		t := info.TrainedAt
		resp.TrainedAt = &t
	}
	for _, f := range info.Features {
		resp.Features = append(resp.Features, FeatureResponse{
			Name:        f.Name,
			Description: f.Description,
			Required:    f.Required(),
			Default:     f.Default,
		})
	}
	for _, c := range info.Output.Categories {
		resp.Output.Categories = append(resp.Output.Categories, CategoryResponse{Max: c.Max, Label: c.Label})
	}
	return resp
}
