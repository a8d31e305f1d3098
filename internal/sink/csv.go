package sink

import (
	"encoding/csv"
	"io"

	"sustaindash/internal/engine"
)

// FileSink writes a table as comma-separated text, header first. Cells keep
// their source text; missing cells are written empty.
type FileSink struct {
	Path string
}

var _ Sink[string] = (*FileSink)(nil)

// Consume writes t to s.Path, replacing any existing file, and returns the
// path written.
func (s *FileSink) Consume(t *engine.Table) (string, error) {
	err := writeAtomic(s.Path, func(w io.Writer) error {
		return WriteCSV(w, t)
	})
	if err != nil {
		return "", err
	}
	return s.Path, nil
}

// WriteCSV encodes t to w.
func WriteCSV(w io.Writer, t *engine.Table) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(t.Columns()); err != nil {
		return err
	}

	rec := make([]string, len(t.Columns()))
	for i := 0; i < t.Len(); i++ {
		for j, v := range t.Row(i) {
			if v.Null() {
				rec[j] = ""
				continue
			}
			rec[j] = v.Raw
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
