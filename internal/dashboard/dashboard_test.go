package dashboard

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"aqi-prediction-service/internal/adapters/primary/http/dto"
	"aqi-prediction-service/internal/apiclient"
	"aqi-prediction-service/internal/core/domain"
)

type mockAPI struct {
	mock.Mock
}

func (m *mockAPI) Model(ctx context.Context) (*dto.ModelResponse, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.ModelResponse), args.Error(1)
}

func (m *mockAPI) Predict(ctx context.Context, values map[string]float64) (*dto.PredictionResponse, error) {
	args := m.Called(ctx, values)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.PredictionResponse), args.Error(1)
}

func (m *mockAPI) PredictLive(ctx context.Context, loc *domain.Location) (*dto.PredictionResponse, error) {
	args := m.Called(ctx, loc)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.PredictionResponse), args.Error(1)
}

func testModel() *dto.ModelResponse {
	return &dto.ModelResponse{
		Name: "aqi-rf",
		Kind: "random_forest",
		Features: []dto.FeatureResponse{
			{Name: "pm2_5", Required: true},
			{Name: "pm10", Required: true},
			{Name: "no2", Required: true},
		},
	}
}

func livePrediction() *dto.PredictionResponse {
	observed := time.Date(2025, 6, 1, 11, 0, 0, 0, time.UTC)
	return &dto.PredictionResponse{
		Prediction: 162.4,
		Category:   "Unhealthy",
		Target:     "aqi",
		Model:      "aqi-rf",
		Source:     "live",
		Inputs:     map[string]float64{"pm2_5": 80.1, "pm10": 140.2, "no2": 30.5},
		Location:   &dto.LocationResponse{Latitude: 28.6139, Longitude: 77.209, Name: "Delhi, India"},
		ObservedAt: &observed,
	}
}

func setupRouter(t *testing.T, api API, opts Options) (*gin.Engine, *Dashboard) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	router := gin.New()
	d := New(api, opts)
	require.NoError(t, d.RegisterRoutes(router))
	return router, d
}

func defaultOptions() Options {
	return Options{APIURL: "http://api:8000", RefreshInterval: 30 * time.Second, HistorySize: 3}
}

func TestTemplate_Parses(t *testing.T) {
	_, err := Template()
	require.NoError(t, err)
}

func TestIndex_LivePrediction(t *testing.T) {
	api := new(mockAPI)
	api.On("Model", mock.Anything).Return(testModel(), nil)
	api.On("PredictLive", mock.Anything, (*domain.Location)(nil)).Return(livePrediction(), nil)
	router, d := setupRouter(t, api, defaultOptions())

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, `id="current-prediction">162.4<`)
	assert.Contains(t, body, `class="value unhealthy"`)
	assert.Contains(t, body, "Delhi, India")
	assert.Contains(t, body, `<meta http-equiv="refresh" content="30">`)
	assert.Contains(t, body, `name="pm2_5"`)
	assert.NotContains(t, body, "sample-banner")
	assert.Equal(t, 1, d.history.Len())
}

func TestIndex_APIDown_NoSampleMode(t *testing.T) {
	api := new(mockAPI)
	api.On("Model", mock.Anything).Return(nil, errors.New("connection refused"))
	api.On("PredictLive", mock.Anything, (*domain.Location)(nil)).Return(nil, errors.New("connection refused"))
	router, d := setupRouter(t, api, defaultOptions())

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, `id="live-error"`)
	assert.Contains(t, body, "prediction API unreachable")
	assert.NotContains(t, body, "sample-banner")
	assert.Equal(t, 0, d.history.Len())
}

func TestIndex_APIDown_SampleMode(t *testing.T) {
	api := new(mockAPI)
	api.On("Model", mock.Anything).Return(nil, errors.New("connection refused"))
	api.On("PredictLive", mock.Anything, (*domain.Location)(nil)).Return(nil, errors.New("connection refused"))
	opts := defaultOptions()
	opts.SampleMode = true
	router, d := setupRouter(t, api, opts)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	body := w.Body.String()
	assert.Contains(t, body, `id="sample-banner"`)
	assert.Contains(t, body, `id="current-prediction">45.5<`)
	require.Equal(t, 1, d.history.Len())
	assert.True(t, d.history.Recent()[0].Sample)
}

func TestCustom_SubmitsThroughAPI(t *testing.T) {
	api := new(mockAPI)
	api.On("Model", mock.Anything).Return(testModel(), nil)
	api.On("PredictLive", mock.Anything, (*domain.Location)(nil)).Return(livePrediction(), nil)
	api.On("Predict", mock.Anything, map[string]float64{"pm2_5": 35.2, "pm10": 50.1, "no2": 12.3}).
		Return(&dto.PredictionResponse{Prediction: 67.71, Category: "Moderate", Source: "request"}, nil)
	router, d := setupRouter(t, api, defaultOptions())

	form := url.Values{"pm2_5": {"35.2"}, "pm10": {"50.1"}, "no2": {" 12.3 "}}
	req := httptest.NewRequest(http.MethodPost, "/custom", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `id="custom-result"`)
	assert.Contains(t, w.Body.String(), "67.71 Moderate")
	assert.Equal(t, 2, d.history.Len())
	api.AssertExpectations(t)
}

func TestCustom_NonNumericStaysLocal(t *testing.T) {
	api := new(mockAPI)
	api.On("Model", mock.Anything).Return(testModel(), nil)
	api.On("PredictLive", mock.Anything, (*domain.Location)(nil)).Return(livePrediction(), nil)
	router, _ := setupRouter(t, api, defaultOptions())

	form := url.Values{"pm2_5": {"lots"}}
	req := httptest.NewRequest(http.MethodPost, "/custom", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Contains(t, w.Body.String(), "pm2_5 must be a number")
	api.AssertNotCalled(t, "Predict", mock.Anything, mock.Anything)
}

func TestCustom_APIValidationError(t *testing.T) {
	api := new(mockAPI)
	api.On("Model", mock.Anything).Return(testModel(), nil)
	api.On("PredictLive", mock.Anything, (*domain.Location)(nil)).Return(livePrediction(), nil)
	api.On("Predict", mock.Anything, map[string]float64{"pm2_5": 35.2}).
		Return(nil, &apiclient.APIError{StatusCode: http.StatusBadRequest, Message: "missing required feature: pm10"})
	router, _ := setupRouter(t, api, defaultOptions())

	form := url.Values{"pm2_5": {"35.2"}}
	req := httptest.NewRequest(http.MethodPost, "/custom", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Contains(t, w.Body.String(), "missing required feature: pm10")
}

func TestHistory_Endpoint(t *testing.T) {
	api := new(mockAPI)
	api.On("Model", mock.Anything).Return(testModel(), nil)
	for i := 0; i < 5; i++ {
		live := livePrediction()
		observed := live.ObservedAt.Add(time.Duration(i) * time.Hour)
		live.ObservedAt = &observed
		live.Prediction = float64(100 + i)
		api.On("PredictLive", mock.Anything, (*domain.Location)(nil)).Return(live, nil).Once()
	}
	router, _ := setupRouter(t, api, defaultOptions())

	for i := 0; i < 5; i++ {
		router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	}

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/history", nil))

	var entries []Entry
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &entries))
	assert.Len(t, entries, 3)
	assert.Equal(t, "live", entries[0].Source)
	assert.Equal(t, 104.0, entries[0].Prediction)
}

func TestIndex_RefreshDoesNotRepeatLiveEntry(t *testing.T) {
	api := new(mockAPI)
	api.On("Model", mock.Anything).Return(testModel(), nil)
	api.On("PredictLive", mock.Anything, (*domain.Location)(nil)).Return(livePrediction(), nil)
	api.On("Predict", mock.Anything, map[string]float64{"pm2_5": 35.2, "pm10": 50.1, "no2": 12.3}).
		Return(&dto.PredictionResponse{Prediction: 67.71, Category: "Moderate", Source: "request"}, nil)
	router, d := setupRouter(t, api, defaultOptions())

	form := url.Values{"pm2_5": {"35.2"}, "pm10": {"50.1"}, "no2": {"12.3"}}
	req := httptest.NewRequest(http.MethodPost, "/custom", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	router.ServeHTTP(httptest.NewRecorder(), req)
	require.Equal(t, 2, d.history.Len())

	for i := 0; i < 10; i++ {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
		require.Equal(t, http.StatusOK, w.Code)
	}

	recent := d.history.Recent()
	require.Len(t, recent, 2)
	assert.Equal(t, "live", recent[0].Source)
	assert.Equal(t, "request", recent[1].Source)
}

func TestCategoryClass(t *testing.T) {
	assert.Equal(t, "good", categoryClass("Good"))
	assert.Equal(t, "sensitive", categoryClass("Unhealthy for Sensitive Groups"))
	assert.Equal(t, "very-unhealthy", categoryClass("Very Unhealthy"))
	assert.Equal(t, "unknown", categoryClass(""))
}
