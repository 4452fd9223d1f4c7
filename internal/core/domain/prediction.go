package domain

import (
	"fmt"
	"math"
	"time"
)

// Category is an ordered output band, e.g. AQI "Good" up to 50.
type Category struct {
	Max   float64 `json:"max"`
	Label string  `json:"label"`
}

// OutputSpec describes what the model predicts.
type OutputSpec struct {
	Target     string     `json:"target"`
	Unit       string     `json:"unit,omitempty"`
	Min        float64    `json:"min"`
	Max        float64    `json:"max"`
	Categories []Category `json:"categories,omitempty"`
}

// Validate checks the range and that category bands ascend.
func (o OutputSpec) Validate() error {
	if o.Target == "" {
		return fmt.Errorf("%w: output target is required", ErrInvalidArtifact)
	}
	if !isFinite(o.Min) || !isFinite(o.Max) || o.Min > o.Max {
		return fmt.Errorf("%w: output range [%v, %v] is invalid", ErrInvalidArtifact, o.Min, o.Max)
	}
	for i := 1; i < len(o.Categories); i++ {
		if o.Categories[i].Max <= o.Categories[i-1].Max {
			return fmt.Errorf("%w: category %q does not ascend", ErrInvalidArtifact, o.Categories[i].Label)
		}
	}
	return nil
}

// Categorize returns the label of the first band containing v. Values above
// every band get the last label; no bands yields "".
func (o OutputSpec) Categorize(v float64) string {
	if len(o.Categories) == 0 {
		return ""
	}
	for _, c := range o.Categories {
		if v <= c.Max {
			return c.Label
		}
	}
	return o.Categories[len(o.Categories)-1].Label
}

// Clamp bounds v to the declared output range.
func (o OutputSpec) Clamp(v float64) float64 {
	return math.Min(math.Max(v, o.Min), o.Max)
}

// AQICategories are the US EPA index bands.
func AQICategories() []Category {
	return []Category{
		{Max: 50, Label: "Good"},
		{Max: 100, Label: "Moderate"},
		{Max: 150, Label: "Unhealthy for Sensitive Groups"},
		{Max: 200, Label: "Unhealthy"},
		{Max: 300, Label: "Very Unhealthy"},
		{Max: 500, Label: "Hazardous"},
	}
}

// PredictionSource tells callers where the feature values came from.
type PredictionSource string

const (
	SourceRequest PredictionSource = "request"
	SourceQuery   PredictionSource = "query"
	SourceLive    PredictionSource = "live"
)

// PredictionResult is created per request and never persisted.
type PredictionResult struct {
	Prediction float64
	Category   string
	Target     string
	Model      string
	Inputs     map[string]float64
	Source     PredictionSource
	Location   *Location
	ObservedAt *time.Time
	Timestamp  time.Time
}

// Round2 rounds to two decimals.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// ModelInfo is the read-only description of a loaded model.
type ModelInfo struct {
	Name      string
	Kind      string
	TrainedAt time.Time
	Features  FeatureSchema
	Output    OutputSpec
}
