package model

import (
	"fmt"
	"time"

	"aqi-prediction-service/internal/core/domain"
)

// TrainOptions describes the artifact a training run produces.
type TrainOptions struct {
	Name         string
	Features     domain.FeatureSchema
	Target       string
	Unit         string
	Categories   []domain.Category
	TestFraction float64
	Forest       ForestParams
	TrainedAt    time.Time
}

// Train fits a forest on a seeded split of ds, scores it on the hold-out
// rows, and returns a validated artifact.
func Train(ds *Dataset, opts TrainOptions) (*Artifact, error) {
	if len(ds.X) > 0 && len(ds.X[0]) != len(opts.Features) {
		return nil, fmt.Errorf("dataset has %d columns, schema has %d features", len(ds.X[0]), len(opts.Features))
	}

	train, test := ds.Split(opts.TestFraction, opts.Forest.Seed)
	trees, err := FitForest(train.X, train.Y, opts.Forest)
	if err != nil {
		return nil, fmt.Errorf("fit forest: %w", err)
	}

	lo, hi := ds.TargetRange()
	kind := KindRandomForest
	if len(trees) == 1 {
		kind = KindDecisionTree
	}

	a := &Artifact{
		FormatVersion: FormatVersion,
		Kind:          kind,
		Name:          opts.Name,
		TrainedAt:     opts.TrainedAt.UTC(),
		Features:      opts.Features,
		Output: domain.OutputSpec{
			Target:     opts.Target,
			Unit:       opts.Unit,
			Min:        lo,
			Max:        hi,
			Categories: opts.Categories,
		},
		Trees: trees,
	}

	if len(test.X) > 0 {
		ev, err := Evaluate(a.Predict, test.X, test.Y)
		if err != nil {
			return nil, fmt.Errorf("evaluate: %w", err)
		}
		ev.TrainRows = len(train.X)
		a.Evaluation = &ev
	}

	if err := a.Validate(); err != nil {
		return nil, err
	}
	return a, nil
}
