// Package metrics provides internal metrics collection.
// This package is internal and should not be imported by external projects.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"
)

// Collector registers and updates the engine's Prometheus metrics.
type Collector struct {
	runsTotal          *prometheus.CounterVec
	runDuration        *prometheus.HistogramVec
	validationFailures *prometheus.CounterVec
	toolCallsTotal     *prometheus.CounterVec

	logger *zap.Logger
}

// NewCollector creates a collector registered on reg. A nil reg falls
// back to the default registerer; tests pass their own registry so
// repeated construction never collides.
func NewCollector(namespace string, reg prometheus.Registerer, logger *zap.Logger) *Collector {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	factory := promauto.With(reg)

	c := &Collector{
		logger: logger.With(zap.String("component", "metrics")),
	}

	c.runsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_total",
			Help:      "Total number of script runs",
		},
		[]string{"status"},
	)

	c.runDuration = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Script run duration in seconds",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5, 30},
		},
		[]string{"status"},
	)

	c.validationFailures = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "validation_failures_total",
			Help:      "Scripts rejected before execution, by fault code",
		},
		[]string{"code"},
	)

	c.toolCallsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tool_calls_total",
			Help:      "Tool invocations made by scripts",
		},
		[]string{"tool", "status"},
	)

	return c
}

// RecordRun records one completed run.
func (c *Collector) RecordRun(status string, duration time.Duration) {
	c.runsTotal.WithLabelValues(status).Inc()
	c.runDuration.WithLabelValues(status).Observe(duration.Seconds())
}

// RecordValidationFailure records a pre-execution rejection.
func (c *Collector) RecordValidationFailure(code string) {
	c.validationFailures.WithLabelValues(code).Inc()
}

// RecordToolCall records one tool invocation.
func (c *Collector) RecordToolCall(tool, status string) {
	c.toolCallsTotal.WithLabelValues(tool, status).Inc()
}
