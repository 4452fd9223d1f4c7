package model

import (
	"fmt"
	"math"

	"aqi-prediction-service/internal/core/domain"
)

// Node is one regression tree node. Feature < 0 marks a leaf. Nodes are
// stored in preorder, so children always sit after their parent.
type Node struct {
	Feature   int     `json:"feature"`
	Threshold float64 `json:"threshold"`
	Left      int     `json:"left"`
	Right     int     `json:"right"`
	Value     float64 `json:"value"`
}

func (n Node) leaf() bool { return n.Feature < 0 }

// Tree is a flattened binary regression tree.
type Tree struct {
	Nodes []Node `json:"nodes"`
}

func (t Tree) validate(width int) error {
	if len(t.Nodes) == 0 {
		return fmt.Errorf("%w: empty tree", domain.ErrInvalidArtifact)
	}
	for i, n := range t.Nodes {
		if math.IsNaN(n.Value) || math.IsInf(n.Value, 0) {
			return fmt.Errorf("%w: node %d has non-finite value", domain.ErrInvalidArtifact, i)
		}
		if n.leaf() {
			continue
		}
		if n.Feature >= width {
			return fmt.Errorf("%w: node %d splits on feature %d outside schema of %d", domain.ErrInvalidArtifact, i, n.Feature, width)
		}
		if n.Left <= i || n.Left >= len(t.Nodes) || n.Right <= i || n.Right >= len(t.Nodes) {
			return fmt.Errorf("%w: node %d has child index out of range", domain.ErrInvalidArtifact, i)
		}
	}
	return nil
}

// eval walks from the root. validate guarantees children only move forward,
// so the walk terminates.
func (t Tree) eval(vec []float64) float64 {
	idx := 0
	for {
		n := t.Nodes[idx]
		if n.leaf() {
			return n.Value
		}
		if vec[n.Feature] <= n.Threshold {
			idx = n.Left
		} else {
			idx = n.Right
		}
	}
}

// Linear is intercept + dot(coefficients, x).
type Linear struct {
	Intercept    float64   `json:"intercept"`
	Coefficients []float64 `json:"coefficients"`
}

func (l *Linear) validate(width int) error {
	if len(l.Coefficients) != width {
		return fmt.Errorf("%w: %d coefficients for %d features", domain.ErrInvalidArtifact, len(l.Coefficients), width)
	}
	return nil
}

func (l *Linear) eval(vec []float64) float64 {
	out := l.Intercept
	for i, c := range l.Coefficients {
		out += c * vec[i]
	}
	return out
}
