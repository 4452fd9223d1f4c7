package config

import (
	"fmt"

	"github.com/spf13/pflag"
)

type TrainConfig struct {
	DataPath        string
	OutputPath      string
	Name            string
	TargetColumn    string
	Target          string
	Unit            string
	Features        []Pair
	Defaults        map[string]float64
	Trees           int
	MaxDepth        int
	MinLeaf         int
	FeatureFraction float64
	TestFraction    float64
	Seed            int64
	AQICategories   bool
	Logger          LoggerConfig
}

// LoadTrain reads the trainer configuration. TRAIN_FEATURES lists
// feature=column pairs in model order.
func LoadTrain(args []string) (*TrainConfig, error) {
	v, err := newViper()
	if err != nil {
		return nil, err
	}

	v.SetDefault("TRAIN_DATA", "data/city_day.csv")
	v.SetDefault("TRAIN_OUTPUT", "model.json")
	v.SetDefault("TRAIN_NAME", "aqi-random-forest")
	v.SetDefault("TRAIN_TARGET_COLUMN", "AQI")
	v.SetDefault("TRAIN_TARGET", "aqi")
	v.SetDefault("TRAIN_UNIT", "")
	v.SetDefault("TRAIN_FEATURES", "pm2_5=PM2.5,pm10=PM10,no=NO,no2=NO2,nh3=NH3,co=CO,so2=SO2,o3=O3")
	v.SetDefault("TRAIN_FEATURE_DEFAULTS", "no=0,nh3=0")
	v.SetDefault("TRAIN_TREES", 50)
	v.SetDefault("TRAIN_MAX_DEPTH", 10)
	v.SetDefault("TRAIN_MIN_LEAF", 2)
	v.SetDefault("TRAIN_FEATURE_FRACTION", 0.6)
	v.SetDefault("TRAIN_TEST_FRACTION", 0.2)
	v.SetDefault("TRAIN_SEED", 42)
	v.SetDefault("TRAIN_AQI_CATEGORIES", true)
	setLoggerDefaults(v)
	v.SetDefault("LOGGER_FORMAT", "text")

	fs := pflag.NewFlagSet("train", pflag.ContinueOnError)
	fs.String("data", "", "training CSV path")
	fs.String("out", "", "artifact output path")
	fs.Int("trees", 0, "number of trees")
	fs.Int64("seed", 0, "random seed")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	for key, flag := range map[string]string{
		"TRAIN_DATA":   "data",
		"TRAIN_OUTPUT": "out",
		"TRAIN_TREES":  "trees",
		"TRAIN_SEED":   "seed",
	} {
		if f := fs.Lookup(flag); f != nil && f.Changed {
			if err := v.BindPFlag(key, f); err != nil {
				return nil, fmt.Errorf("bind flag %s: %w", flag, err)
			}
		}
	}

	features, err := parsePairs(v.GetString("TRAIN_FEATURES"))
	if err != nil {
		return nil, fmt.Errorf("TRAIN_FEATURES: %w", err)
	}
	if len(features) == 0 {
		return nil, fmt.Errorf("TRAIN_FEATURES is empty")
	}
	defaults, err := parseFloatPairs(v.GetString("TRAIN_FEATURE_DEFAULTS"))
	if err != nil {
		return nil, fmt.Errorf("TRAIN_FEATURE_DEFAULTS: %w", err)
	}
	known := toMap(features)
	for name := range defaults {
		if _, ok := known[name]; !ok {
			return nil, fmt.Errorf("TRAIN_FEATURE_DEFAULTS names unknown feature %q", name)
		}
	}

	cfg := &TrainConfig{
		DataPath:        v.GetString("TRAIN_DATA"),
		OutputPath:      v.GetString("TRAIN_OUTPUT"),
		Name:            v.GetString("TRAIN_NAME"),
		TargetColumn:    v.GetString("TRAIN_TARGET_COLUMN"),
		Target:          v.GetString("TRAIN_TARGET"),
		Unit:            v.GetString("TRAIN_UNIT"),
		Features:        features,
		Defaults:        defaults,
		Trees:           v.GetInt("TRAIN_TREES"),
		MaxDepth:        v.GetInt("TRAIN_MAX_DEPTH"),
		MinLeaf:         v.GetInt("TRAIN_MIN_LEAF"),
		FeatureFraction: v.GetFloat64("TRAIN_FEATURE_FRACTION"),
		TestFraction:    v.GetFloat64("TRAIN_TEST_FRACTION"),
		Seed:            v.GetInt64("TRAIN_SEED"),
		AQICategories:   v.GetBool("TRAIN_AQI_CATEGORIES"),
		Logger:          loggerConfig(v),
	}

	if cfg.TestFraction < 0 || cfg.TestFraction >= 1 {
		return nil, fmt.Errorf("TRAIN_TEST_FRACTION must be in [0, 1)")
	}
	if cfg.Trees <= 0 {
		return nil, fmt.Errorf("TRAIN_TREES must be > 0")
	}
	return cfg, nil
}
