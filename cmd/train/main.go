package main

import (
	"os"
	"time"

	"aqi-prediction-service/internal/config"
	"aqi-prediction-service/internal/core/domain"
	"aqi-prediction-service/internal/logging"
	"aqi-prediction-service/internal/model"

	log "github.com/sirupsen/logrus"
)

func main() {
	cfg, err := config.LoadTrain(os.Args[1:])
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logCloser := logging.Init(cfg.Logger)
	defer logCloser.Close()

	f, err := os.Open(cfg.DataPath)
	if err != nil {
		log.Fatalf("open training data: %v", err)
	}
	defer f.Close()

	columns := make([]model.Column, 0, len(cfg.Features))
	schema := make(domain.FeatureSchema, 0, len(cfg.Features))
	for _, p := range cfg.Features {
		columns = append(columns, model.Column{Feature: p.Key, Header: p.Value})

		spec := domain.FeatureSpec{Name: p.Key, Description: "column " + p.Value}
		if d, ok := cfg.Defaults[p.Key]; ok {
			spec.Default = &d
		}
		schema = append(schema, spec)
	}

	ds, err := model.ReadCSV(f, columns, cfg.TargetColumn)
	if err != nil {
		log.Fatalf("read training data: %v", err)
	}
	log.WithFields(log.Fields{
		"path":    cfg.DataPath,
		"rows":    len(ds.Y),
		"skipped": ds.Skipped,
	}).Info("training data loaded")

	var categories []domain.Category
	if cfg.AQICategories {
		categories = domain.AQICategories()
	}

	start := time.Now()
	artifact, err := model.Train(ds, model.TrainOptions{
		Name:         cfg.Name,
		Features:     schema,
		Target:       cfg.Target,
		Unit:         cfg.Unit,
		Categories:   categories,
		TestFraction: cfg.TestFraction,
		Forest: model.ForestParams{
			Trees:           cfg.Trees,
			MaxDepth:        cfg.MaxDepth,
			MinLeaf:         cfg.MinLeaf,
			FeatureFraction: cfg.FeatureFraction,
			Seed:            cfg.Seed,
		},
		TrainedAt: time.Now(),
	})
	if err != nil {
		log.Fatalf("train model: %v", err)
	}

	fields := log.Fields{
		"kind":     artifact.Kind,
		"trees":    len(artifact.Trees),
		"duration": time.Since(start).String(),
		"min":      artifact.Output.Min,
		"max":      artifact.Output.Max,
	}
	if ev := artifact.Evaluation; ev != nil {
		fields["train_rows"] = ev.TrainRows
		fields["test_rows"] = ev.TestRows
		fields["mae"] = ev.MAE
		fields["rmse"] = ev.RMSE
		fields["r2"] = ev.R2
	}
	log.WithFields(fields).Info("model trained")

	if err := artifact.Save(cfg.OutputPath); err != nil {
		log.Fatalf("save artifact: %v", err)
	}
	log.WithField("path", cfg.OutputPath).Info("artifact written")
}
