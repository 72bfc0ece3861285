/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

package coalesce

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// MetricsCollector represents a collector of throttle statistics.
type MetricsCollector interface {
	// ObserveExecution records a settled execution of the wrapped operation.
	ObserveExecution(name string, kind ExecutionKind, success bool, duration time.Duration)

	// IncBuffered increments the number of calls stored in the pending slot.
	IncBuffered(name string)

	// IncDropped increments the number of buffered calls replaced by a newer one.
	IncDropped(name string)
}

// PrometheusMetricsOpts represents options for PrometheusMetrics.
type PrometheusMetricsOpts struct {
	// Namespace is a namespace for metrics. It will be prepended to all metric names.
	Namespace string

	// ConstLabels is a set of labels that will be applied to all metrics.
	ConstLabels prometheus.Labels
}

// PrometheusMetrics represents Prometheus metrics for throttles.
type PrometheusMetrics struct {
	ExecutionsTotal   *prometheus.CounterVec
	ExecutionDuration *prometheus.HistogramVec
	BufferedTotal     *prometheus.CounterVec
	DroppedTotal      *prometheus.CounterVec
}

var _ MetricsCollector = (*PrometheusMetrics)(nil)

// NewPrometheusMetrics creates a new instance of PrometheusMetrics with default options.
func NewPrometheusMetrics() *PrometheusMetrics {
	return NewPrometheusMetricsWithOpts(PrometheusMetricsOpts{})
}

// NewPrometheusMetricsWithOpts creates a new instance of PrometheusMetrics with the provided options.
func NewPrometheusMetricsWithOpts(opts PrometheusMetricsOpts) *PrometheusMetrics {
	return &PrometheusMetrics{
		ExecutionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   opts.Namespace,
			Name:        "coalesce_executions_total",
			Help:        "Number of settled executions of throttled operations.",
			ConstLabels: opts.ConstLabels,
		}, []string{"name", "kind", "outcome"}),
		ExecutionDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace:   opts.Namespace,
			Name:        "coalesce_execution_duration_seconds",
			Help:        "A histogram of throttled operations durations.",
			Buckets:     []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
			ConstLabels: opts.ConstLabels,
		}, []string{"name"}),
		BufferedTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   opts.Namespace,
			Name:        "coalesce_calls_buffered_total",
			Help:        "Number of calls stored in the pending slot while an execution was in flight.",
			ConstLabels: opts.ConstLabels,
		}, []string{"name"}),
		DroppedTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   opts.Namespace,
			Name:        "coalesce_calls_dropped_total",
			Help:        "Number of buffered calls superseded by a newer call.",
			ConstLabels: opts.ConstLabels,
		}, []string{"name"}),
	}
}

// MustRegister does registration of metrics collector in Prometheus and panics if any error occurs.
func (pm *PrometheusMetrics) MustRegister() {
	pm.MustRegisterWith(prometheus.DefaultRegisterer)
}

// MustRegisterWith registers metrics in the given registerer and panics if any error occurs.
func (pm *PrometheusMetrics) MustRegisterWith(reg prometheus.Registerer) {
	reg.MustRegister(pm.ExecutionsTotal, pm.ExecutionDuration, pm.BufferedTotal, pm.DroppedTotal)
}

// Unregister cancels registration of metrics collector in Prometheus.
func (pm *PrometheusMetrics) Unregister() {
	prometheus.Unregister(pm.ExecutionsTotal)
	prometheus.Unregister(pm.ExecutionDuration)
	prometheus.Unregister(pm.BufferedTotal)
	prometheus.Unregister(pm.DroppedTotal)
}

// ObserveExecution records a settled execution of the wrapped operation.
func (pm *PrometheusMetrics) ObserveExecution(name string, kind ExecutionKind, success bool, duration time.Duration) {
	outcome := "success"
	if !success {
		outcome = "failure"
	}
	pm.ExecutionsTotal.WithLabelValues(name, string(kind), outcome).Inc()
	pm.ExecutionDuration.WithLabelValues(name).Observe(duration.Seconds())
}

// IncBuffered increments the number of calls stored in the pending slot.
func (pm *PrometheusMetrics) IncBuffered(name string) {
	pm.BufferedTotal.WithLabelValues(name).Inc()
}

// IncDropped increments the number of buffered calls replaced by a newer one.
func (pm *PrometheusMetrics) IncDropped(name string) {
	pm.DroppedTotal.WithLabelValues(name).Inc()
}

type disabledMetrics struct{}

func (disabledMetrics) ObserveExecution(string, ExecutionKind, bool, time.Duration) {}
func (disabledMetrics) IncBuffered(string)                                         {}
func (disabledMetrics) IncDropped(string)                                          {}
