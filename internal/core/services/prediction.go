package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	log "github.com/sirupsen/logrus"

	"aqi-prediction-service/internal/core/domain"
	ports "aqi-prediction-service/internal/core/ports/output"
)

// PredictionService validates feature vectors and evaluates the loaded model.
// The predictor is set once at construction and never replaced.
type PredictionService struct {
	predictor       ports.Predictor
	info            domain.ModelInfo
	source          ports.AirQualitySource
	cache           ports.ReadingCache
	recorder        ports.PredictionRecorder
	defaultLocation domain.Location
	now             func() time.Time
}

// NewPredictionService creates a new prediction service. source, cache and
// recorder may be nil; without a source live predictions are unavailable.
func NewPredictionService(
	predictor ports.Predictor,
	source ports.AirQualitySource,
	cache ports.ReadingCache,
	recorder ports.PredictionRecorder,
	defaultLocation domain.Location,
) *PredictionService {
	s := &PredictionService{
		predictor:       predictor,
		source:          source,
		cache:           cache,
		recorder:        recorder,
		defaultLocation: defaultLocation,
		now:             time.Now,
	}
	if predictor != nil {
		s.info = predictor.Describe()
	}
	if s.recorder == nil {
		s.recorder = noopRecorder{}
	}
	return s
}

// ModelLoaded reports whether a predictor is wired.
func (s *PredictionService) ModelLoaded() bool {
	return s.predictor != nil
}

// Model returns the loaded model description.
func (s *PredictionService) Model() (domain.ModelInfo, error) {
	if s.predictor == nil {
		return domain.ModelInfo{}, domain.ErrModelNotLoaded
	}
	return s.info, nil
}

// DefaultLocation is used by live predictions when the caller gives none.
func (s *PredictionService) DefaultLocation() domain.Location {
	return s.defaultLocation
}

// Predict validates values against the schema and evaluates the model.
func (s *PredictionService) Predict(ctx context.Context, values map[string]float64, source domain.PredictionSource) (*domain.PredictionResult, error) {
	if s.predictor == nil {
		s.recorder.ObservePredictionError(string(source), "model_not_loaded")
		return nil, domain.ErrModelNotLoaded
	}

	vec, err := s.info.Features.Vector(values)
	if err != nil {
		s.recorder.ObservePredictionError(string(source), "validation")
		return nil, err
	}

	return s.evaluate(ctx, vec, source)
}

// PredictLive predicts from the latest upstream readings at loc, or at the
// default location when loc is nil.
func (s *PredictionService) PredictLive(ctx context.Context, loc *domain.Location) (*domain.PredictionResult, error) {
	if s.predictor == nil {
		s.recorder.ObservePredictionError(string(domain.SourceLive), "model_not_loaded")
		return nil, domain.ErrModelNotLoaded
	}

	target := s.defaultLocation
	if loc != nil {
		target = *loc
	}
	if err := target.Validate(); err != nil {
		s.recorder.ObservePredictionError(string(domain.SourceLive), "validation")
		return nil, err
	}

	reading, err := s.latestReading(ctx, target)
	if err != nil {
		s.recorder.ObservePredictionError(string(domain.SourceLive), "upstream")
		return nil, err
	}

	values := make(map[string]float64, len(s.info.Features))
	for _, f := range s.info.Features {
		v, ok := reading.Values[f.Name]
		if ok {
			values[f.Name] = v
			continue
		}
		if f.Required() {
			s.recorder.ObservePredictionError(string(domain.SourceLive), "upstream")
			return nil, fmt.Errorf("%w: %s", domain.ErrReadingIncomplete, f.Name)
		}
	}

	vec, err := s.info.Features.Vector(values)
	if err != nil {
		s.recorder.ObservePredictionError(string(domain.SourceLive), "upstream")
		return nil, fmt.Errorf("%w: %v", domain.ErrReadingIncomplete, err)
	}

	result, err := s.evaluate(ctx, vec, domain.SourceLive)
	if err != nil {
		return nil, err
	}
	result.Location = &reading.Location
	observed := reading.ObservedAt
	result.ObservedAt = &observed
	return result, nil
}

func (s *PredictionService) evaluate(ctx context.Context, vec []float64, source domain.PredictionSource) (*domain.PredictionResult, error) {
	start := time.Now()
	raw, err := s.predictor.Predict(vec)
	if err != nil {
		s.recorder.ObservePredictionError(string(source), "model")
		if errors.Is(err, domain.ErrPredictionFailed) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", domain.ErrPredictionFailed, err)
	}
	if math.IsNaN(raw) || math.IsInf(raw, 0) {
		s.recorder.ObservePredictionError(string(source), "model")
		return nil, fmt.Errorf("%w: non-finite output", domain.ErrPredictionFailed)
	}

	rounded := domain.Round2(raw)
	value := s.info.Output.Clamp(rounded)
	if value != rounded {
		log.WithContext(ctx).WithFields(log.Fields{
			"raw":    raw,
			"min":    s.info.Output.Min,
			"max":    s.info.Output.Max,
			"source": source,
		}).Warn("prediction outside declared output range, clamped")
	}

	s.recorder.ObservePrediction(string(source), value, time.Since(start))

	return &domain.PredictionResult{
		Prediction: value,
		Category:   s.info.Output.Categorize(value),
		Target:     s.info.Output.Target,
		Model:      s.info.Name,
		Inputs:     s.info.Features.Inputs(vec),
		Source:     source,
		Timestamp:  s.now().UTC(),
	}, nil
}

func (s *PredictionService) latestReading(ctx context.Context, loc domain.Location) (*domain.Reading, error) {
	if s.source == nil {
		return nil, fmt.Errorf("%w: no source configured", domain.ErrUpstreamUnavailable)
	}

	key := loc.Key()
	if s.cache != nil {
		reading, ok, err := s.cache.Get(ctx, key)
		if err != nil {
			log.WithError(err).WithField("key", key).Warn("reading cache get failed")
		}
		s.recorder.ObserveCache(ok && err == nil)
		if ok && err == nil {
			return reading, nil
		}
	}

	start := time.Now()
	reading, err := s.source.Latest(ctx, loc)
	s.recorder.ObserveUpstream(time.Since(start), err)
	if err != nil {
		log.WithError(err).WithField("location", key).Error("fetch live readings failed")
		if errors.Is(err, domain.ErrUpstreamUnavailable) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", domain.ErrUpstreamUnavailable, err)
	}
	if reading.Location.Name == "" {
		reading.Location.Name = loc.Name
	}

	if s.cache != nil {
		if err := s.cache.Put(ctx, key, reading); err != nil {
			log.WithError(err).WithField("key", key).Warn("reading cache put failed")
		}
	}
	return reading, nil
}

type noopRecorder struct{}

func (noopRecorder) ObservePrediction(string, float64, time.Duration) {}
func (noopRecorder) ObservePredictionError(string, string)            {}
func (noopRecorder) ObserveUpstream(time.Duration, error)             {}
func (noopRecorder) ObserveCache(bool)                                {}
