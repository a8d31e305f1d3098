// Package sink turns a finished Table into an output artifact: a chart
// figure for the dashboard, or a file on disk for batch runs.
package sink

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"sustaindash/internal/engine"
)

// ErrIO wraps every failure to write an output file.
var ErrIO = errors.New("write failed")

// Sink consumes a table and produces an artifact of type A.
type Sink[A any] interface {
	Consume(t *engine.Table) (A, error)
}

// writeAtomic writes to a temp file next to path and renames it into place,
// so readers never see a partial file and an existing one is replaced whole.
func writeAtomic(path string, write func(w io.Writer) error) (err error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("%w: create %s: %v", ErrIO, dir, err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("%w: %v", ErrIO, err)
	}
	defer func() {
		if err != nil {
			tmp.Close()
			os.Remove(tmp.Name())
		}
	}()

	if err := write(tmp); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrIO, path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrIO, path, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("%w: %v", ErrIO, err)
	}
	return nil
}
