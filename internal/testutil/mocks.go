package testutil

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"aqi-prediction-service/internal/core/domain"
)

// MockPredictor is a mock of ports.Predictor.
type MockPredictor struct {
	mock.Mock
}

func (m *MockPredictor) Describe() domain.ModelInfo {
	args := m.Called()
	return args.Get(0).(domain.ModelInfo)
}

func (m *MockPredictor) Predict(vec []float64) (float64, error) {
	args := m.Called(vec)
	return args.Get(0).(float64), args.Error(1)
}

// MockAirQualitySource is a mock of ports.AirQualitySource.
type MockAirQualitySource struct {
	mock.Mock
}

func (m *MockAirQualitySource) Latest(ctx context.Context, loc domain.Location) (*domain.Reading, error) {
	args := m.Called(ctx, loc)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Reading), args.Error(1)
}

// MockReadingCache is a mock of ports.ReadingCache.
type MockReadingCache struct {
	mock.Mock
}

func (m *MockReadingCache) Get(ctx context.Context, key string) (*domain.Reading, bool, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Bool(1), args.Error(2)
	}
	return args.Get(0).(*domain.Reading), args.Bool(1), args.Error(2)
}

func (m *MockReadingCache) Put(ctx context.Context, key string, reading *domain.Reading) error {
	args := m.Called(ctx, key, reading)
	return args.Error(0)
}

// MockRecorder is a mock of ports.PredictionRecorder.
type MockRecorder struct {
	mock.Mock
}

func (m *MockRecorder) ObservePrediction(source string, value float64, elapsed time.Duration) {
	m.Called(source, value, elapsed)
}

func (m *MockRecorder) ObservePredictionError(source, reason string) {
	m.Called(source, reason)
}

func (m *MockRecorder) ObserveUpstream(elapsed time.Duration, err error) {
	m.Called(elapsed, err)
}

func (m *MockRecorder) ObserveCache(hit bool) {
	m.Called(hit)
}

// Float64 returns a pointer to v, for schema defaults in tests.
func Float64(v float64) *float64 {
	return &v
}

// AQIInfo is a three-feature model description used across tests.
func AQIInfo() domain.ModelInfo {
	return domain.ModelInfo{
		Name:      "aqi-test",
		Kind:      "random_forest",
		TrainedAt: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		Features: domain.FeatureSchema{
			{Name: "pm2_5"},
			{Name: "pm10"},
			{Name: "no2"},
			{Name: "nh3", Default: Float64(0)},
		},
		Output: domain.OutputSpec{
			Target:     "aqi",
			Min:        0,
			Max:        500,
			Categories: domain.AQICategories(),
		},
	}
}
