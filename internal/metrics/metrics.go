// Package metrics provides Prometheus instrumentation for the prediction service.
//
// Metrics exposed:
//   - aqi_http_requests_total: Counter of HTTP requests by method, route and status
//   - aqi_http_request_duration_seconds: Histogram of HTTP request latency by route
//   - aqi_predictions_total: Counter of successful predictions by source
//   - aqi_prediction_errors_total: Counter of failed predictions by source and reason
//   - aqi_model_predict_seconds: Histogram of model evaluation time
//   - aqi_predicted_value: Gauge of the last predicted value by source
//   - aqi_upstream_fetch_seconds: Histogram of upstream reading fetch time
//   - aqi_upstream_errors_total: Counter of failed upstream fetches
//   - aqi_reading_cache_total: Counter of reading cache lookups by result
//   - aqi_model_info: Gauge set to 1, labelled with model name and kind
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus collectors for the service.
type Metrics struct {
	registry *prometheus.Registry

	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
	PredictionsTotal    *prometheus.CounterVec
	PredictionErrors    *prometheus.CounterVec
	ModelPredictSeconds prometheus.Histogram
	PredictedValue      *prometheus.GaugeVec
	UpstreamSeconds     prometheus.Histogram
	UpstreamErrors      prometheus.Counter
	CacheLookups        *prometheus.CounterVec
	ModelInfo           *prometheus.GaugeVec
}

// New creates all collectors on a dedicated registry, plus the Go and
// process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	f := promauto.With(reg)

	return &Metrics{
		registry: reg,

		HTTPRequestsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "aqi_http_requests_total",
			Help: "Total HTTP requests by method, route and status",
		}, []string{"method", "route", "status"}),

		HTTPRequestDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "aqi_http_request_duration_seconds",
			Help:    "HTTP request latency by route",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),

		PredictionsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "aqi_predictions_total",
			Help: "Successful predictions by feature source",
		}, []string{"source"}),

		PredictionErrors: f.NewCounterVec(prometheus.CounterOpts{
			Name: "aqi_prediction_errors_total",
			Help: "Failed predictions by feature source and reason",
		}, []string{"source", "reason"}),

		ModelPredictSeconds: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "aqi_model_predict_seconds",
			Help:    "Time spent evaluating the model",
			Buckets: []float64{.00001, .00005, .0001, .0005, .001, .005, .01, .05},
		}),

		PredictedValue: f.NewGaugeVec(prometheus.GaugeOpts{
			Name: "aqi_predicted_value",
			Help: "Last predicted value by feature source",
		}, []string{"source"}),

		UpstreamSeconds: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "aqi_upstream_fetch_seconds",
			Help:    "Time spent fetching live readings from the upstream",
			Buckets: prometheus.DefBuckets,
		}),

		UpstreamErrors: f.NewCounter(prometheus.CounterOpts{
			Name: "aqi_upstream_errors_total",
			Help: "Failed upstream reading fetches",
		}),

		CacheLookups: f.NewCounterVec(prometheus.CounterOpts{
			Name: "aqi_reading_cache_total",
			Help: "Reading cache lookups by result",
		}, []string{"result"}),

		ModelInfo: f.NewGaugeVec(prometheus.GaugeOpts{
			Name: "aqi_model_info",
			Help: "Loaded model, value is always 1",
		}, []string{"name", "kind"}),
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Registry exposes the underlying registry, mainly for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// SetModel publishes the loaded model identity.
func (m *Metrics) SetModel(name, kind string) {
	m.ModelInfo.WithLabelValues(name, kind).Set(1)
}

// ObserveRequest records one completed HTTP request.
func (m *Metrics) ObserveRequest(method, route, status string, elapsed time.Duration) {
	m.HTTPRequestsTotal.WithLabelValues(method, route, status).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

// ObservePrediction records a successful prediction.
func (m *Metrics) ObservePrediction(source string, value float64, elapsed time.Duration) {
	m.PredictionsTotal.WithLabelValues(source).Inc()
	m.PredictedValue.WithLabelValues(source).Set(value)
	m.ModelPredictSeconds.Observe(elapsed.Seconds())
}

// ObservePredictionError records a failed prediction.
func (m *Metrics) ObservePredictionError(source, reason string) {
	m.PredictionErrors.WithLabelValues(source, reason).Inc()
}

// ObserveUpstream records an upstream fetch.
func (m *Metrics) ObserveUpstream(elapsed time.Duration, err error) {
	m.UpstreamSeconds.Observe(elapsed.Seconds())
	if err != nil {
		m.UpstreamErrors.Inc()
	}
}

// ObserveCache records a cache lookup.
func (m *Metrics) ObserveCache(hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	m.CacheLookups.WithLabelValues(result).Inc()
}
