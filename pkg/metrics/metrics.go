// Package metrics defines the Prometheus metric collectors used across the
// vectorizer platform and exposes an HTTP handler for scraping.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus collectors for the platform.
type Metrics struct {
	HTTPRequestsTotal    *prometheus.CounterVec
	HTTPRequestDuration  *prometheus.HistogramVec
	HTTPRequestsInFlight prometheus.Gauge
	VectorizeTotal       *prometheus.CounterVec
	VectorizeLatency     *prometheus.HistogramVec
	VectorizeTokens      *prometheus.HistogramVec
	PatternPoolSize      *prometheus.GaugeVec
	ModelsLoaded         prometheus.Gauge
	CacheHitsTotal       prometheus.Counter
	CacheMissesTotal     prometheus.Counter
	StreamMessagesTotal  *prometheus.CounterVec
}

// New creates and registers all Prometheus metrics.
func New() *Metrics {
	m := &Metrics{
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests by method, path, and status.",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request latency in seconds.",
				Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
			},
			[]string{"method", "path"},
		),
		HTTPRequestsInFlight: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "http_requests_in_flight",
				Help: "Number of HTTP requests currently being processed.",
			},
		),
		VectorizeTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "vectorize_requests_total",
				Help: "Total vectorize invocations by model and outcome (ok, invalid_input, unknown_model).",
			},
			[]string{"model", "outcome"},
		),
		VectorizeLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "vectorize_duration_seconds",
				Help:    "Feature extraction latency in seconds by model.",
				Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
			},
			[]string{"model"},
		),
		VectorizeTokens: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "vectorize_input_tokens",
				Help:    "Input sequence length per vectorize invocation.",
				Buckets: prometheus.ExponentialBuckets(1, 4, 10),
			},
			[]string{"model"},
		),
		PatternPoolSize: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "pattern_pool_entries",
				Help: "Number of active vocabulary patterns per loaded model.",
			},
			[]string{"model", "kind"},
		),
		ModelsLoaded: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "models_loaded",
				Help: "Number of models currently loaded in the store.",
			},
		),
		CacheHitsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "vector_cache_hits_total",
				Help: "Total vector cache hits.",
			},
		),
		CacheMissesTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "vector_cache_misses_total",
				Help: "Total vector cache misses.",
			},
		),
		StreamMessagesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "stream_messages_total",
				Help: "Streaming worker messages by outcome (ok, decode_error, vectorize_error, publish_error).",
			},
			[]string{"outcome"},
		),
	}

	prometheus.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.HTTPRequestsInFlight,
		m.VectorizeTotal,
		m.VectorizeLatency,
		m.VectorizeTokens,
		m.PatternPoolSize,
		m.ModelsLoaded,
		m.CacheHitsTotal,
		m.CacheMissesTotal,
		m.StreamMessagesTotal,
	)
	return m
}

// Handler returns the Prometheus scrape handler.
func Handler() http.Handler {
	return promhttp.Handler()
}
