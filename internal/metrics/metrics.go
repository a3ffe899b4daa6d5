// Package metrics provides the centralized Prometheus metrics registry for the pipeline.
package metrics

import (
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Global registry instance
var (
	registry *prometheus.Registry
	once     sync.Once
)

// Counter metrics
var (
	ProviderRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "diamond_edge",
		Name:      "provider_requests_total",
		Help:      "Total number of upstream API requests by provider",
	}, []string{"provider"})
	ProviderErrorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "diamond_edge",
		Name:      "provider_errors_total",
		Help:      "Total number of failed upstream API requests by provider and code",
	}, []string{"provider", "code"})
	GamesProcessedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "diamond_edge",
		Name:      "games_processed_total",
		Help:      "Total number of games assembled into feature rows",
	})
	FeatureRowsWrittenTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "diamond_edge",
		Name:      "feature_rows_written_total",
		Help:      "Total number of feature rows written to CSV artifacts",
	})
	PredictionsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "diamond_edge",
		Name:      "predictions_total",
		Help:      "Total number of bet suggestions generated",
	})
	OutcomesLoggedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "diamond_edge",
		Name:      "outcomes_logged_total",
		Help:      "Total number of realized outcomes appended to the calibration log",
	})
)

// Gauge metrics
var (
	LastRunTimestamp = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "diamond_edge",
		Name:      "last_run_timestamp_seconds",
		Help:      "Unix timestamp of the last completed run per job",
	}, []string{"job"})
	ConfiguredBankroll = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "diamond_edge",
		Name:      "configured_bankroll",
		Help:      "Configured bankroll in currency units",
	})
	CalibrationBrierScore = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "diamond_edge",
		Name:      "calibration_brier_score",
		Help:      "Brier score of the active calibrator on the latest calibration log",
	})
)

// Histogram metrics
var (
	ProviderRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "diamond_edge",
		Name:      "provider_request_duration_seconds",
		Help:      "Latency of upstream API requests in seconds",
		Buckets:   prometheus.DefBuckets,
	}, []string{"provider"})
)

// Registry returns the global metrics registry, initializing it on first use
func Registry() *prometheus.Registry {
	once.Do(func() {
		registry = prometheus.NewRegistry()
		registry.MustRegister(
			ProviderRequestsTotal,
			ProviderErrorsTotal,
			GamesProcessedTotal,
			FeatureRowsWrittenTotal,
			PredictionsTotal,
			OutcomesLoggedTotal,
			LastRunTimestamp,
			ConfiguredBankroll,
			CalibrationBrierScore,
			ProviderRequestDuration,
		)
	})
	return registry
}

// Handler returns an HTTP handler serving the registry
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry(), promhttp.HandlerOpts{})
}

// NewServer creates an HTTP server exposing metrics at the given path
func NewServer(port int, path string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle(path, Handler())
	return &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
}

// ObserveProviderRequest records a completed provider request
func ObserveProviderRequest(provider string, elapsed time.Duration) {
	ProviderRequestsTotal.WithLabelValues(provider).Inc()
	ProviderRequestDuration.WithLabelValues(provider).Observe(elapsed.Seconds())
}

// ObserveProviderError records a failed provider request
func ObserveProviderError(provider, code string) {
	ProviderErrorsTotal.WithLabelValues(provider, code).Inc()
}

// MarkRunComplete records the completion time of a job
func MarkRunComplete(job string) {
	LastRunTimestamp.WithLabelValues(job).SetToCurrentTime()
}
