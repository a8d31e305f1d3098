// Package metrics records pipeline step outcomes and row counts behind a
// small backend interface, so the pipelines stay independent of Prometheus.
//
// A Backend is passed in explicitly; Nop is used when none is configured.
package metrics

import "time"

// Labels are string key/value pairs attached to a metric.
type Labels map[string]string

const (
	StepTotal    = "sustaindash_step_total"
	StepDuration = "sustaindash_step_duration_seconds"
	RowsTotal    = "sustaindash_rows_total"
)

// Backend is the minimal interface for metrics backends.
type Backend interface {
	// IncCounter increments a counter by delta.
	IncCounter(name string, delta float64, labels Labels)
	// ObserveHistogram records a duration-style value.
	ObserveHistogram(name string, value float64, labels Labels)
	// Flush pushes buffered metrics, if the backend needs it.
	Flush() error
}

// Nop discards everything.
type Nop struct{}

func (Nop) IncCounter(string, float64, Labels)       {}
func (Nop) ObserveHistogram(string, float64, Labels) {}
func (Nop) Flush() error                             { return nil }

// OrNop returns b, or Nop when b is nil.
func OrNop(b Backend) Backend {
	if b == nil {
		return Nop{}
	}
	return b
}

// RecordStep counts one execution of a pipeline step and its latency.
func RecordStep(b Backend, job, step string, err error, d time.Duration) {
	status := "success"
	if err != nil {
		status = "failure"
	}
	lbls := Labels{"job": job, "step": step, "status": status}
	b.IncCounter(StepTotal, 1, lbls)
	b.ObserveHistogram(StepDuration, d.Seconds(), lbls)
}

// RecordRows adds delta rows of the given kind, e.g. "loaded",
// "in_range", "dropped_year", "selected", "written".
func RecordRows(b Backend, job, kind string, delta int) {
	if delta <= 0 {
		return
	}
	b.IncCounter(RowsTotal, float64(delta), Labels{"job": job, "kind": kind})
}
