package services

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"aqi-prediction-service/internal/core/domain"
	"aqi-prediction-service/internal/testutil"
)

func newTestService(predictor *testutil.MockPredictor, source *testutil.MockAirQualitySource, cache *testutil.MockReadingCache) *PredictionService {
	predictor.On("Describe").Return(testutil.AQIInfo())

	var svc *PredictionService
	switch {
	case source != nil && cache != nil:
		svc = NewPredictionService(predictor, source, cache, nil, domain.Location{Latitude: 28.6139, Longitude: 77.209, Name: "Delhi, India"})
	case source != nil:
		svc = NewPredictionService(predictor, source, nil, nil, domain.Location{Latitude: 28.6139, Longitude: 77.209, Name: "Delhi, India"})
	default:
		svc = NewPredictionService(predictor, nil, nil, nil, domain.Location{})
	}
	svc.now = func() time.Time { return time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC) }
	return svc
}

// ============================================================================
// Predict Tests
// ============================================================================

func TestPredictionService_Predict_Success(t *testing.T) {
	predictor := new(testutil.MockPredictor)
	svc := newTestService(predictor, nil, nil)

	predictor.On("Predict", []float64{35.2, 50.1, 12.3, 0}).Return(42.6789, nil)

	result, err := svc.Predict(context.Background(), map[string]float64{
		"pm2_5": 35.2, "pm10": 50.1, "no2": 12.3,
	}, domain.SourceRequest)

	require.NoError(t, err)
	assert.Equal(t, 42.68, result.Prediction)
	assert.Equal(t, "Good", result.Category)
	assert.Equal(t, "aqi", result.Target)
	assert.Equal(t, "aqi-test", result.Model)
	assert.Equal(t, domain.SourceRequest, result.Source)
	assert.Equal(t, 0.0, result.Inputs["nh3"])
	assert.Nil(t, result.Location)
	predictor.AssertExpectations(t)
}

func TestPredictionService_Predict_ValidationErrors(t *testing.T) {
	tests := []struct {
		name     string
		values   map[string]float64
		expected error
	}{
		{
			name:     "missing required feature",
			values:   map[string]float64{"pm2_5": 1, "pm10": 2},
			expected: domain.ErrMissingFeature,
		},
		{
			name:     "unknown feature",
			values:   map[string]float64{"pm2_5": 1, "pm10": 2, "no2": 3, "so2": 4},
			expected: domain.ErrUnknownFeature,
		},
		{
			name:     "non-finite value",
			values:   map[string]float64{"pm2_5": math.NaN(), "pm10": 2, "no2": 3},
			expected: domain.ErrNonNumericFeature,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			predictor := new(testutil.MockPredictor)
			svc := newTestService(predictor, nil, nil)

			_, err := svc.Predict(context.Background(), tt.values, domain.SourceRequest)
			assert.ErrorIs(t, err, tt.expected)
			predictor.AssertNotCalled(t, "Predict", mock.Anything)
		})
	}
}

func TestPredictionService_Predict_ModelNotLoaded(t *testing.T) {
	svc := NewPredictionService(nil, nil, nil, nil, domain.Location{})

	assert.False(t, svc.ModelLoaded())
	_, err := svc.Predict(context.Background(), map[string]float64{"pm2_5": 1}, domain.SourceRequest)
	assert.ErrorIs(t, err, domain.ErrModelNotLoaded)

	_, err = svc.Model()
	assert.ErrorIs(t, err, domain.ErrModelNotLoaded)
}

func TestPredictionService_Predict_ModelError(t *testing.T) {
	predictor := new(testutil.MockPredictor)
	svc := newTestService(predictor, nil, nil)

	predictor.On("Predict", mock.Anything).Return(0.0, errors.New("boom"))

	_, err := svc.Predict(context.Background(), map[string]float64{"pm2_5": 1, "pm10": 2, "no2": 3}, domain.SourceRequest)
	assert.ErrorIs(t, err, domain.ErrPredictionFailed)
}

func TestPredictionService_Predict_NonFiniteOutput(t *testing.T) {
	predictor := new(testutil.MockPredictor)
	svc := newTestService(predictor, nil, nil)

	predictor.On("Predict", mock.Anything).Return(math.Inf(1), nil)

	_, err := svc.Predict(context.Background(), map[string]float64{"pm2_5": 1, "pm10": 2, "no2": 3}, domain.SourceRequest)
	assert.ErrorIs(t, err, domain.ErrPredictionFailed)
}

func TestPredictionService_Predict_ClampsToOutputRange(t *testing.T) {
	predictor := new(testutil.MockPredictor)
	svc := newTestService(predictor, nil, nil)

	predictor.On("Predict", mock.Anything).Return(612.0, nil)

	result, err := svc.Predict(context.Background(), map[string]float64{"pm2_5": 1, "pm10": 2, "no2": 3}, domain.SourceQuery)
	require.NoError(t, err)
	assert.Equal(t, 500.0, result.Prediction)
	assert.Equal(t, "Hazardous", result.Category)
}

func TestPredictionService_Predict_RoundedValueStaysInRange(t *testing.T) {
	info := testutil.AQIInfo()
	info.Output.Min = 0.004
	info.Output.Max = 10.006

	tests := []struct {
		name string
		raw  float64
		want float64
	}{
		{name: "above max", raw: 50, want: 10.006},
		{name: "rounds up past max", raw: 10.009, want: 10.006},
		{name: "below min", raw: -3, want: 0.004},
		{name: "rounds down past min", raw: 0.0041, want: 0.004},
		{name: "inside range", raw: 7.456, want: 7.46},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			predictor := new(testutil.MockPredictor)
			predictor.On("Describe").Return(info)
			predictor.On("Predict", mock.Anything).Return(tt.raw, nil)
			svc := NewPredictionService(predictor, nil, nil, nil, domain.Location{})

			result, err := svc.Predict(context.Background(), map[string]float64{"pm2_5": 1, "pm10": 2, "no2": 3}, domain.SourceRequest)
			require.NoError(t, err)
			assert.Equal(t, tt.want, result.Prediction)
			assert.GreaterOrEqual(t, result.Prediction, info.Output.Min)
			assert.LessOrEqual(t, result.Prediction, info.Output.Max)
		})
	}
}

func TestPredictionService_Predict_RecordsMetrics(t *testing.T) {
	predictor := new(testutil.MockPredictor)
	predictor.On("Describe").Return(testutil.AQIInfo())
	predictor.On("Predict", mock.Anything).Return(80.0, nil)

	recorder := new(testutil.MockRecorder)
	recorder.On("ObservePrediction", "request", 80.0, mock.AnythingOfType("time.Duration")).Return()
	recorder.On("ObservePredictionError", "request", "validation").Return()

	svc := NewPredictionService(predictor, nil, nil, recorder, domain.Location{})

	_, err := svc.Predict(context.Background(), map[string]float64{"pm2_5": 1, "pm10": 2, "no2": 3}, domain.SourceRequest)
	require.NoError(t, err)
	_, err = svc.Predict(context.Background(), map[string]float64{}, domain.SourceRequest)
	require.Error(t, err)

	recorder.AssertExpectations(t)
}

// ============================================================================
// PredictLive Tests
// ============================================================================

func liveReading() *domain.Reading {
	return &domain.Reading{
		Location:   domain.Location{Latitude: 28.6139, Longitude: 77.209},
		Values:     map[string]float64{"pm2_5": 25, "pm10": 45, "no2": 12, "so2": 5},
		ObservedAt: time.Date(2025, 6, 1, 11, 0, 0, 0, time.UTC),
	}
}

func TestPredictionService_PredictLive_CacheMiss(t *testing.T) {
	predictor := new(testutil.MockPredictor)
	source := new(testutil.MockAirQualitySource)
	cache := new(testutil.MockReadingCache)
	svc := newTestService(predictor, source, cache)

	loc := svc.DefaultLocation()
	reading := liveReading()

	cache.On("Get", mock.Anything, loc.Key()).Return(nil, false, nil)
	source.On("Latest", mock.Anything, loc).Return(reading, nil)
	cache.On("Put", mock.Anything, loc.Key(), reading).Return(nil)
	predictor.On("Predict", []float64{25, 45, 12, 0}).Return(61.0, nil)

	result, err := svc.PredictLive(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, 61.0, result.Prediction)
	assert.Equal(t, "Moderate", result.Category)
	assert.Equal(t, domain.SourceLive, result.Source)
	require.NotNil(t, result.Location)
	assert.Equal(t, "Delhi, India", result.Location.Name)
	require.NotNil(t, result.ObservedAt)
	assert.NotContains(t, result.Inputs, "so2")

	source.AssertExpectations(t)
	cache.AssertExpectations(t)
}

func TestPredictionService_PredictLive_CacheHit(t *testing.T) {
	predictor := new(testutil.MockPredictor)
	source := new(testutil.MockAirQualitySource)
	cache := new(testutil.MockReadingCache)
	svc := newTestService(predictor, source, cache)

	loc := domain.Location{Latitude: 51.5, Longitude: -0.12}
	cache.On("Get", mock.Anything, loc.Key()).Return(liveReading(), true, nil)
	predictor.On("Predict", mock.Anything).Return(20.0, nil)

	result, err := svc.PredictLive(context.Background(), &loc)
	require.NoError(t, err)
	assert.Equal(t, 20.0, result.Prediction)
	source.AssertNotCalled(t, "Latest", mock.Anything, mock.Anything)
}

func TestPredictionService_PredictLive_CacheErrorFallsThrough(t *testing.T) {
	predictor := new(testutil.MockPredictor)
	source := new(testutil.MockAirQualitySource)
	cache := new(testutil.MockReadingCache)
	svc := newTestService(predictor, source, cache)

	loc := svc.DefaultLocation()
	cache.On("Get", mock.Anything, loc.Key()).Return(nil, false, errors.New("redis down"))
	source.On("Latest", mock.Anything, loc).Return(liveReading(), nil)
	cache.On("Put", mock.Anything, loc.Key(), mock.Anything).Return(errors.New("redis down"))
	predictor.On("Predict", mock.Anything).Return(30.0, nil)

	result, err := svc.PredictLive(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, 30.0, result.Prediction)
}

func TestPredictionService_PredictLive_UpstreamUnavailable(t *testing.T) {
	predictor := new(testutil.MockPredictor)
	source := new(testutil.MockAirQualitySource)
	svc := newTestService(predictor, source, nil)

	source.On("Latest", mock.Anything, mock.Anything).Return(nil, errors.New("connection refused"))

	_, err := svc.PredictLive(context.Background(), nil)
	assert.ErrorIs(t, err, domain.ErrUpstreamUnavailable)
}

func TestPredictionService_PredictLive_NoSource(t *testing.T) {
	predictor := new(testutil.MockPredictor)
	svc := newTestService(predictor, nil, nil)

	_, err := svc.PredictLive(context.Background(), &domain.Location{Latitude: 1, Longitude: 1})
	assert.ErrorIs(t, err, domain.ErrUpstreamUnavailable)
}

func TestPredictionService_PredictLive_IncompleteReading(t *testing.T) {
	predictor := new(testutil.MockPredictor)
	source := new(testutil.MockAirQualitySource)
	svc := newTestService(predictor, source, nil)

	reading := liveReading()
	delete(reading.Values, "no2")
	source.On("Latest", mock.Anything, mock.Anything).Return(reading, nil)

	_, err := svc.PredictLive(context.Background(), nil)
	assert.ErrorIs(t, err, domain.ErrReadingIncomplete)
	predictor.AssertNotCalled(t, "Predict", mock.Anything)
}

func TestPredictionService_PredictLive_InvalidLocation(t *testing.T) {
	predictor := new(testutil.MockPredictor)
	source := new(testutil.MockAirQualitySource)
	svc := newTestService(predictor, source, nil)

	_, err := svc.PredictLive(context.Background(), &domain.Location{Latitude: 91, Longitude: 0})
	assert.ErrorIs(t, err, domain.ErrInvalidLocation)
	source.AssertNotCalled(t, "Latest", mock.Anything, mock.Anything)
}
