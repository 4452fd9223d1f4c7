// Package model defines the on-disk Model Artifact and evaluates it.
//
// An artifact is a JSON document carrying the feature schema the model was
// trained on, the output spec, and the fitted parameters. Once loaded it is
// never mutated, so a single *Artifact is shared by every request.
package model

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"time"

	"aqi-prediction-service/internal/core/domain"
)

// FormatVersion is the artifact layout this package reads and writes.
const FormatVersion = 1

// Kind selects how parameters are evaluated.
type Kind string

const (
	KindRandomForest Kind = "random_forest"
	KindDecisionTree Kind = "decision_tree"
	KindLinear       Kind = "linear"
)

// Artifact is the serialized, pre-trained predictor.
type Artifact struct {
	FormatVersion int                  `json:"format_version"`
	Kind          Kind                 `json:"kind"`
	Name          string               `json:"name"`
	TrainedAt     time.Time            `json:"trained_at"`
	Features      domain.FeatureSchema `json:"features"`
	Output        domain.OutputSpec    `json:"output"`
	Trees         []Tree               `json:"trees,omitempty"`
	Linear        *Linear              `json:"linear,omitempty"`
	Evaluation    *Evaluation          `json:"evaluation,omitempty"`
}

// Evaluation records hold-out scores computed at training time.
type Evaluation struct {
	TrainRows int     `json:"train_rows"`
	TestRows  int     `json:"test_rows"`
	MAE       float64 `json:"mae"`
	RMSE      float64 `json:"rmse"`
	R2        float64 `json:"r2"`
}

// Load reads and validates an artifact from disk.
func Load(path string) (*Artifact, error) {
	payload, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read artifact %s: %w", path, err)
	}
	return Parse(payload)
}

// Parse decodes and validates an artifact.
func Parse(payload []byte) (*Artifact, error) {
	var a Artifact
	if err := json.Unmarshal(payload, &a); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidArtifact, err)
	}
	if err := a.Validate(); err != nil {
		return nil, err
	}
	return &a, nil
}

// Save writes the artifact atomically (temp file + rename).
func (a *Artifact) Save(path string) error {
	if err := a.Validate(); err != nil {
		return err
	}
	payload, err := json.MarshalIndent(a, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal artifact: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".artifact-*.json")
	if err != nil {
		return fmt.Errorf("create temp artifact: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(payload); err != nil {
		tmp.Close()
		return fmt.Errorf("write artifact: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close artifact: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("rename artifact: %w", err)
	}
	return nil
}

// Validate checks structural integrity so Predict never indexes out of bounds.
func (a *Artifact) Validate() error {
	if a.FormatVersion != FormatVersion {
		return fmt.Errorf("%w: format_version %d (want %d)", domain.ErrInvalidArtifact, a.FormatVersion, FormatVersion)
	}
	if err := a.Features.Validate(); err != nil {
		return err
	}
	if err := a.Output.Validate(); err != nil {
		return err
	}

	width := len(a.Features)
	switch a.Kind {
	case KindRandomForest:
		if len(a.Trees) == 0 {
			return fmt.Errorf("%w: random_forest has no trees", domain.ErrInvalidArtifact)
		}
	case KindDecisionTree:
		if len(a.Trees) != 1 {
			return fmt.Errorf("%w: decision_tree needs exactly one tree, got %d", domain.ErrInvalidArtifact, len(a.Trees))
		}
	case KindLinear:
		if a.Linear == nil {
			return fmt.Errorf("%w: linear parameters missing", domain.ErrInvalidArtifact)
		}
		return a.Linear.validate(width)
	default:
		return fmt.Errorf("%w: %q", domain.ErrUnsupportedKind, a.Kind)
	}

	for i, t := range a.Trees {
		if err := t.validate(width); err != nil {
			return fmt.Errorf("tree %d: %w", i, err)
		}
	}
	return nil
}

// Predict evaluates the artifact on a vector in schema order.
func (a *Artifact) Predict(vec []float64) (float64, error) {
	if len(vec) != len(a.Features) {
		return 0, fmt.Errorf("%w: got %d, want %d", domain.ErrVectorSizeInvalid, len(vec), len(a.Features))
	}

	var out float64
	switch a.Kind {
	case KindLinear:
		out = a.Linear.eval(vec)
	default:
		var sum float64
		for _, t := range a.Trees {
			sum += t.eval(vec)
		}
		out = sum / float64(len(a.Trees))
	}

	if math.IsNaN(out) || math.IsInf(out, 0) {
		return 0, fmt.Errorf("%w: non-finite output", domain.ErrPredictionFailed)
	}
	return out, nil
}

// Describe returns metadata with copies of the schema and output bands.
func (a *Artifact) Describe() domain.ModelInfo {
	features := make(domain.FeatureSchema, len(a.Features))
	copy(features, a.Features)
	output := a.Output
	output.Categories = append([]domain.Category(nil), a.Output.Categories...)

	return domain.ModelInfo{
		Name:      a.Name,
		Kind:      string(a.Kind),
		TrainedAt: a.TrainedAt,
		Features:  features,
		Output:    output,
	}
}
