// Package middleware provides cross-cutting concerns for the benchmark
// driver.
package middleware

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/ahrav/go-livebench/internal/ports"
)

// PrometheusMetrics implements ports.MetricsCollector with Prometheus,
// exposing request volume, per-question latency, and token consumption
// for a running batch.
type PrometheusMetrics struct {
	requestsTotal      *prometheus.CounterVec
	questionsProcessed *prometheus.CounterVec
	outputTokens       *prometheus.CounterVec
	latencySeconds     *prometheus.HistogramVec
	operationLatency   *prometheus.HistogramVec
	systemGauges       *prometheus.GaugeVec
}

// NewPrometheusMetrics creates a PrometheusMetrics instance registered
// with the given registerer. Pass prometheus.DefaultRegisterer for the
// process-wide registry; tests pass a fresh one to avoid duplicate
// registration.
func NewPrometheusMetrics(reg prometheus.Registerer) *PrometheusMetrics {
	factory := promauto.With(reg)
	return &PrometheusMetrics{
		requestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "livebench_llm_requests_total",
				Help: "Total number of model API requests.",
			},
			[]string{"model", "status"},
		),
		questionsProcessed: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "livebench_questions_processed_total",
				Help: "Questions completed, successfully or not.",
			},
			[]string{"task", "status"},
		),
		outputTokens: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "livebench_output_tokens_total",
				Help: "Output tokens generated across all model calls.",
			},
			[]string{"model", "status"},
		),
		latencySeconds: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "livebench_latency_seconds",
				Help:    "Latency of model calls and question builds.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"metric", "status"},
		),
		operationLatency: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "livebench_operation_duration_seconds",
				Help:    "Execution time of named pipeline operations.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		systemGauges: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "livebench_system_state",
				Help: "Current pipeline state values.",
			},
			[]string{"metric"},
		),
	}
}

// RecordLatency records the execution time of a named operation.
func (pm *PrometheusMetrics) RecordLatency(operation string, duration time.Duration, labels map[string]string) {
	pm.operationLatency.WithLabelValues(operation).Observe(duration.Seconds())
}

// RecordCounter routes counter metrics onto their Prometheus vectors.
func (pm *PrometheusMetrics) RecordCounter(metric string, value float64, labels map[string]string) {
	status := labelOr(labels, "status", "unknown")
	switch metric {
	case "llm_requests_total":
		pm.requestsTotal.WithLabelValues(labelOr(labels, "model", "unknown"), status).Add(value)
	case "llm_output_tokens_total":
		pm.outputTokens.WithLabelValues(labelOr(labels, "model", "unknown"), status).Add(value)
	case "questions_processed_total":
		pm.questionsProcessed.WithLabelValues(labelOr(labels, "task", "unknown"), status).Add(value)
	}
}

// RecordGauge sets a named pipeline state value.
func (pm *PrometheusMetrics) RecordGauge(metric string, value float64, labels map[string]string) {
	pm.systemGauges.WithLabelValues(metric).Set(value)
}

// RecordHistogram records a value in the shared latency histogram.
func (pm *PrometheusMetrics) RecordHistogram(metric string, value float64, labels map[string]string) {
	pm.latencySeconds.WithLabelValues(metric, labelOr(labels, "status", "unknown")).Observe(value)
}

func labelOr(labels map[string]string, key, fallback string) string {
	if v, ok := labels[key]; ok && v != "" {
		return v
	}
	return fallback
}

var _ ports.MetricsCollector = (*PrometheusMetrics)(nil)
