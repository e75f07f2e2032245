// Package observer provides metrics hooks for the compile pipeline.
package observer

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// MetricsRecorder records the outcome of one compile request.
type MetricsRecorder interface {
	ObserveCompile(ctx context.Context, disposition string, duration time.Duration)
}

// NoopMetricsRecorder discards all observations.
type NoopMetricsRecorder struct{}

func (NoopMetricsRecorder) ObserveCompile(ctx context.Context, disposition string, duration time.Duration) {
}

// PrometheusRecorder exports compile metrics to a Prometheus registry.
type PrometheusRecorder struct {
	outcomes *prometheus.CounterVec
	duration prometheus.Histogram
}

// NewPrometheusRecorder registers the compile metrics on reg.
func NewPrometheusRecorder(reg prometheus.Registerer) *PrometheusRecorder {
	r := &PrometheusRecorder{
		outcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "texforge_compile_total",
			Help: "Compile requests by final disposition.",
		}, []string{"disposition"}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "texforge_compile_duration_seconds",
			Help:    "Wall-clock duration of compile requests.",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 12),
		}),
	}
	reg.MustRegister(r.outcomes, r.duration)
	return r
}

func (r *PrometheusRecorder) ObserveCompile(ctx context.Context, disposition string, duration time.Duration) {
	r.outcomes.WithLabelValues(disposition).Inc()
	r.duration.Observe(duration.Seconds())
}
