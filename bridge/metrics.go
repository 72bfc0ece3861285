/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

package bridge

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// MetricsCollector is an interface for collecting metrics of bridge calls.
type MetricsCollector interface {
	CallDuration(command, status string, duration time.Duration)
}

// PrometheusMetricsCollector is a Prometheus metrics collector.
type PrometheusMetricsCollector struct {
	Durations *prometheus.HistogramVec
}

// NewPrometheusMetricsCollector creates a new Prometheus metrics collector.
func NewPrometheusMetricsCollector(namespace string) *PrometheusMetricsCollector {
	return &PrometheusMetricsCollector{
		Durations: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "bridge_call_duration_seconds",
			Help:      "A histogram of the backend bridge calls durations.",
			Buckets:   []float64{0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}, []string{"command", "status"}),
	}
}

// MustRegisterWith registers the Prometheus metrics in the given registerer.
func (p *PrometheusMetricsCollector) MustRegisterWith(reg prometheus.Registerer) {
	reg.MustRegister(p.Durations)
}

// CallDuration observes the duration of the call and its status code.
func (p *PrometheusMetricsCollector) CallDuration(command, status string, duration time.Duration) {
	p.Durations.WithLabelValues(command, status).Observe(duration.Seconds())
}
