package domain

import (
	"fmt"
	"math"
	"sort"
	"strconv"
)

// FeatureSpec describes one model input. A feature with a Default is
// optional in requests; all others are required.
type FeatureSpec struct {
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Default     *float64 `json:"default,omitempty"`
}

// Required reports whether callers must supply the feature.
func (f FeatureSpec) Required() bool {
	return f.Default == nil
}

// FeatureSchema is the ordered list of inputs a model was trained on.
type FeatureSchema []FeatureSpec

// Names returns feature names in model order.
func (s FeatureSchema) Names() []string {
	names := make([]string, len(s))
	for i, f := range s {
		names[i] = f.Name
	}
	return names
}

// Index returns the position of name in the schema, or -1.
func (s FeatureSchema) Index(name string) int {
	for i, f := range s {
		if f.Name == name {
			return i
		}
	}
	return -1
}

// Validate checks that names are present and unique.
func (s FeatureSchema) Validate() error {
	if len(s) == 0 {
		return fmt.Errorf("%w: feature schema is empty", ErrInvalidArtifact)
	}
	seen := make(map[string]struct{}, len(s))
	for i, f := range s {
		if f.Name == "" {
			return fmt.Errorf("%w: feature %d has no name", ErrInvalidArtifact, i)
		}
		if _, dup := seen[f.Name]; dup {
			return fmt.Errorf("%w: duplicate feature %q", ErrInvalidArtifact, f.Name)
		}
		if f.Default != nil && !isFinite(*f.Default) {
			return fmt.Errorf("%w: feature %q has a non-finite default", ErrInvalidArtifact, f.Name)
		}
		seen[f.Name] = struct{}{}
	}
	return nil
}

// Vector orders values into a FeatureVector. Every required feature must be
// present, every value finite, and no name outside the schema is accepted.
// Optional features fall back to their declared default.
func (s FeatureSchema) Vector(values map[string]float64) ([]float64, error) {
	unknown := make([]string, 0)
	for name := range values {
		if s.Index(name) < 0 {
			unknown = append(unknown, name)
		}
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return nil, fmt.Errorf("%w: %s", ErrUnknownFeature, unknown[0])
	}

	vec := make([]float64, len(s))
	for i, f := range s {
		v, ok := values[f.Name]
		if !ok {
			if f.Default == nil {
				return nil, fmt.Errorf("%w: %s", ErrMissingFeature, f.Name)
			}
			vec[i] = *f.Default
			continue
		}
		if !isFinite(v) {
			return nil, fmt.Errorf("%w: %s", ErrNonNumericFeature, f.Name)
		}
		vec[i] = v
	}
	return vec, nil
}

// Inputs maps a vector back to named values, used to echo what the model saw.
func (s FeatureSchema) Inputs(vec []float64) map[string]float64 {
	out := make(map[string]float64, len(s))
	for i, f := range s {
		if i < len(vec) {
			out[f.Name] = vec[i]
		}
	}
	return out
}

// ParseFeatureValues converts raw string values (query parameters) into
// numeric feature values.
func ParseFeatureValues(raw map[string]string) (map[string]float64, error) {
	out := make(map[string]float64, len(raw))
	for name, s := range raw {
		v, err := strconv.ParseFloat(s, 64)
		if err != nil || !isFinite(v) {
			return nil, fmt.Errorf("%w: %s", ErrNonNumericFeature, name)
		}
		out[name] = v
	}
	return out, nil
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
