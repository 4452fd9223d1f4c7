package openmeteo

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"aqi-prediction-service/internal/config"
	"aqi-prediction-service/internal/core/domain"
)

const sampleResponse = `{
  "latitude": 28.625,
  "longitude": 77.25,
  "hourly_units": {"time": "iso8601", "pm2_5": "μg/m³"},
  "hourly": {
    "time": ["2025-06-01T09:00", "2025-06-01T10:00", "2025-06-01T11:00", "2025-06-01T12:00"],
    "pm2_5": [30.1, 31.2, 32.3, 99.9],
    "pm10": [50.0, 51.0, null, 99.9],
    "nitrogen_dioxide": [null, null, null, null]
  }
}`

func newTestClient(t *testing.T, handler http.HandlerFunc) (*client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c := NewClient(&config.LiveConfig{
		URL:     srv.URL,
		Timeout: time.Second,
		Variables: map[string]string{
			"pm2_5": "pm2_5",
			"pm10":  "pm10",
			"no2":   "nitrogen_dioxide",
		},
	}).(*client)
	c.now = func() time.Time { return time.Date(2025, 6, 1, 11, 30, 0, 0, time.UTC) }
	return c, srv
}

func TestClient_Latest_Success(t *testing.T) {
	var gotQuery map[string][]string
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/air-quality", r.URL.Path)
		gotQuery = r.URL.Query()
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(sampleResponse))
	})

	loc := domain.Location{Latitude: 28.6139, Longitude: 77.209, Name: "Delhi, India"}
	reading, err := c.Latest(context.Background(), loc)
	require.NoError(t, err)

	assert.Equal(t, []string{"nitrogen_dioxide,pm10,pm2_5"}, gotQuery["hourly"])
	assert.Equal(t, []string{"28.6139"}, gotQuery["latitude"])
	assert.Equal(t, []string{"GMT"}, gotQuery["timezone"])

	// 12:00 is in the future, so 11:00 is the reference hour.
	assert.Equal(t, time.Date(2025, 6, 1, 11, 0, 0, 0, time.UTC), reading.ObservedAt)
	assert.Equal(t, 32.3, reading.Values["pm2_5"])
	// pm10 is null at 11:00, fall back to the previous hour.
	assert.Equal(t, 51.0, reading.Values["pm10"])
	// no2 has no values at all and is left out.
	assert.NotContains(t, reading.Values, "no2")
	assert.Equal(t, "Delhi, India", reading.Location.Name)
}

func TestClient_Latest_UpstreamError(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error": true, "reason": "Latitude must be in range of -90 to 90°."}`))
	})

	_, err := c.Latest(context.Background(), domain.Location{})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrUpstreamUnavailable)
	assert.Contains(t, err.Error(), "Latitude must be in range")
}

func TestClient_Latest_InvalidJSON(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"hourly": `))
	})

	_, err := c.Latest(context.Background(), domain.Location{})
	assert.ErrorIs(t, err, domain.ErrUpstreamUnavailable)
}

func TestClient_Latest_OnlyFutureHours(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"hourly": {"time": ["2025-06-02T00:00"], "pm2_5": [1]}}`))
	})

	_, err := c.Latest(context.Background(), domain.Location{})
	assert.ErrorIs(t, err, domain.ErrUpstreamUnavailable)
}

func TestClient_Latest_ConnectionRefused(t *testing.T) {
	c, srv := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {})
	srv.Close()

	_, err := c.Latest(context.Background(), domain.Location{})
	assert.ErrorIs(t, err, domain.ErrUpstreamUnavailable)
}
