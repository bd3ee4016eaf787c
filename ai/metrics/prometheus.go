// Package metrics exports Prometheus metrics for the search pipeline.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	namespace = "vouch"
	subsystem = "search"
)

// Request statuses recorded by RecordSearch.
const (
	StatusOK              = "ok"
	StatusValidationError = "validation_error"
	StatusProviderError   = "provider_error"
	StatusInternalError   = "internal_error"
)

// Pipeline stages recorded by RecordStageCandidates. Each stage counts
// the candidates that survived it.
const (
	StageANN       = "ann"
	StageGate      = "gate"
	StageAggregate = "aggregate"
	StageAssemble  = "assemble"
)

// Provider call outcomes.
const (
	OutcomeOK      = "ok"
	OutcomeError   = "error"
	OutcomeSkipped = "skipped"
	OutcomeCached  = "cached"
)

// PrometheusExporter collects and serves search pipeline metrics.
type PrometheusExporter struct {
	registry *prometheus.Registry

	searchRequests  *prometheus.CounterVec
	searchLatency   *prometheus.HistogramVec
	stageCandidates *prometheus.HistogramVec
	activeSearches  prometheus.Gauge
	skippedMembers  prometheus.Counter
	embedRequests   *prometheus.CounterVec
	embedLatency    prometheus.Histogram
	summaryRequests *prometheus.CounterVec
	summaryLatency  prometheus.Histogram
}

// Config configures the Prometheus exporter.
type Config struct {
	// Registry to use (if nil, creates a new one)
	Registry *prometheus.Registry

	// Buckets for latency histograms (in seconds)
	LatencyBuckets []float64

	// Buckets for per-stage candidate counts
	CandidateBuckets []float64
}

// NewPrometheusExporter creates an exporter on a fresh private registry.
func NewPrometheusExporter() *PrometheusExporter {
	return NewPrometheusExporterWithConfig(Config{})
}

// NewPrometheusExporterWithConfig creates an exporter with custom configuration.
func NewPrometheusExporterWithConfig(config Config) *PrometheusExporter {
	registry := config.Registry
	if registry == nil {
		registry = prometheus.NewRegistry()
	}

	latencyBuckets := config.LatencyBuckets
	if latencyBuckets == nil {
		latencyBuckets = []float64{0.01, 0.05, 0.1, 0.5, 1, 2, 5, 10, 30, 60}
	}
	candidateBuckets := config.CandidateBuckets
	if candidateBuckets == nil {
		candidateBuckets = []float64{0, 1, 2, 5, 10, 25, 50, 100, 250, 500, 1000}
	}

	e := &PrometheusExporter{
		registry: registry,
		searchRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "requests_total",
				Help:      "Total search requests by outcome status",
			},
			[]string{"status"},
		),
		searchLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "latency_seconds",
				Help:      "End-to-end search latency by outcome status",
				Buckets:   latencyBuckets,
			},
			[]string{"status"},
		),
		stageCandidates: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "stage_candidates",
				Help:      "Candidates surviving each pipeline stage",
				Buckets:   candidateBuckets,
			},
			[]string{"stage"},
		),
		activeSearches: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "active",
				Help:      "Search requests currently in flight",
			},
		),
		skippedMembers: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "skipped_members_total",
				Help:      "Matched recommendations dropped because their referenced row is missing",
			},
		),
		embedRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "embed",
				Name:      "requests_total",
				Help:      "Query embedding calls by outcome",
			},
			[]string{"status"},
		),
		embedLatency: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "embed",
				Name:      "latency_seconds",
				Help:      "Query embedding latency",
				Buckets:   latencyBuckets,
			},
		),
		summaryRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "summary",
				Name:      "requests_total",
				Help:      "Result summary generations by outcome",
			},
			[]string{"status"},
		),
		summaryLatency: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "summary",
				Name:      "latency_seconds",
				Help:      "Result summary generation latency",
				Buckets:   latencyBuckets,
			},
		),
	}

	registry.MustRegister(
		e.searchRequests,
		e.searchLatency,
		e.stageCandidates,
		e.activeSearches,
		e.skippedMembers,
		e.embedRequests,
		e.embedLatency,
		e.summaryRequests,
		e.summaryLatency,
	)

	return e
}

// RecordSearch records one finished search request.
func (e *PrometheusExporter) RecordSearch(status string, latency time.Duration) {
	e.searchRequests.WithLabelValues(status).Inc()
	e.searchLatency.WithLabelValues(status).Observe(latency.Seconds())
}

// RecordStageCandidates records how many candidates survived a stage.
func (e *PrometheusExporter) RecordStageCandidates(stage string, count int) {
	e.stageCandidates.WithLabelValues(stage).Observe(float64(count))
}

// SearchStarted marks a search as in flight. The returned function
// marks it finished and is safe to defer.
func (e *PrometheusExporter) SearchStarted() func() {
	e.activeSearches.Inc()
	return e.activeSearches.Dec
}

// RecordSkippedMembers counts members dropped for referential integrity.
func (e *PrometheusExporter) RecordSkippedMembers(count int) {
	if count > 0 {
		e.skippedMembers.Add(float64(count))
	}
}

// RecordEmbed records one query embedding call.
func (e *PrometheusExporter) RecordEmbed(status string, latency time.Duration) {
	e.embedRequests.WithLabelValues(status).Inc()
	if status == OutcomeOK {
		e.embedLatency.Observe(latency.Seconds())
	}
}

// RecordSummary records one summary generation attempt.
func (e *PrometheusExporter) RecordSummary(status string, latency time.Duration) {
	e.summaryRequests.WithLabelValues(status).Inc()
	if status == OutcomeOK {
		e.summaryLatency.Observe(latency.Seconds())
	}
}

// GetHandler returns an HTTP handler serving the metrics endpoint.
func (e *PrometheusExporter) GetHandler() http.Handler {
	return promhttp.HandlerFor(e.registry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
	})
}

// ServeHTTP implements http.Handler.
func (e *PrometheusExporter) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	e.GetHandler().ServeHTTP(w, r)
}

// GetRegistry returns the underlying registry, for callers that
// register their own collectors next to the search metrics.
func (e *PrometheusExporter) GetRegistry() *prometheus.Registry {
	return e.registry
}
