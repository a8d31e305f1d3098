// Package prom implements metrics.Backend with client_golang collectors. The
// same registry serves the dashboard's /metrics endpoint and can be pushed to
// a Pushgateway at the end of a batch run.
package prom

import (
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/prometheus/client_golang/prometheus/push"

	"sustaindash/internal/metrics"
)

// Backend holds the collectors and the registry they live in.
type Backend struct {
	reg *prometheus.Registry

	steps    *prometheus.CounterVec
	duration *prometheus.HistogramVec
	rows     *prometheus.CounterVec

	// gatewayURL is optional; Flush is a no-op without it.
	gatewayURL string
	jobName    string
}

// Option configures a Backend.
type Option func(*Backend)

// WithPushgateway makes Flush push the registry to url under job.
func WithPushgateway(url, job string) Option {
	return func(b *Backend) {
		b.gatewayURL = url
		b.jobName = job
	}
}

// NewBackend registers the collectors on a fresh registry.
func NewBackend(opts ...Option) (*Backend, error) {
	b := &Backend{
		reg: prometheus.NewRegistry(),
		steps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: metrics.StepTotal,
			Help: "Pipeline step executions by job, step and status.",
		}, []string{"job", "step", "status"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    metrics.StepDuration,
			Help:    "Pipeline step latency in seconds.",
			Buckets: prometheus.ExponentialBuckets(0.0005, 4, 10),
		}, []string{"job", "step", "status"}),
		rows: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: metrics.RowsTotal,
			Help: "Rows seen per job and kind (loaded, in_range, dropped_year, selected, written).",
		}, []string{"job", "kind"}),
		jobName: "sustaindash",
	}
	for _, opt := range opts {
		opt(b)
	}

	for _, c := range []prometheus.Collector{b.steps, b.duration, b.rows} {
		if err := b.reg.Register(c); err != nil {
			return nil, fmt.Errorf("prom: register: %w", err)
		}
	}
	return b, nil
}

func (b *Backend) IncCounter(name string, delta float64, labels metrics.Labels) {
	switch name {
	case metrics.StepTotal:
		b.steps.WithLabelValues(labels["job"], labels["step"], labels["status"]).Add(delta)
	case metrics.RowsTotal:
		b.rows.WithLabelValues(labels["job"], labels["kind"]).Add(delta)
	}
}

func (b *Backend) ObserveHistogram(name string, value float64, labels metrics.Labels) {
	if name != metrics.StepDuration {
		return
	}
	b.duration.WithLabelValues(labels["job"], labels["step"], labels["status"]).Observe(value)
}

// Flush pushes to the Pushgateway when one is configured.
func (b *Backend) Flush() error {
	if b.gatewayURL == "" {
		return nil
	}
	if err := push.New(b.gatewayURL, b.jobName).Gatherer(b.reg).Push(); err != nil {
		return fmt.Errorf("prom: push %s: %w", b.gatewayURL, err)
	}
	return nil
}

// Registry exposes the underlying registry, mainly for tests.
func (b *Backend) Registry() *prometheus.Registry { return b.reg }

// Handler serves the registry in the Prometheus exposition format.
func (b *Backend) Handler() http.Handler {
	return promhttp.HandlerFor(b.reg, promhttp.HandlerOpts{})
}
