// Package pipeline wires loader, validator, ranker, projector and sinks into
// the two runs the commands expose: the batch top-emitters filter and the
// dashboard chart.
package pipeline

import (
	"time"

	"sustaindash/internal/metrics"
)

// step runs fn and records its outcome under job/name.
func step(b metrics.Backend, job, name string, fn func() error) error {
	start := time.Now()
	err := fn()
	metrics.RecordStep(b, job, name, err, time.Since(start))
	return err
}
