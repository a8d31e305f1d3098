package sink

import (
	"io"

	"github.com/apache/arrow/go/v18/arrow"
	"github.com/apache/arrow/go/v18/arrow/array"
	"github.com/apache/arrow/go/v18/arrow/ipc"
	"github.com/apache/arrow/go/v18/arrow/memory"

	"sustaindash/internal/engine"
)

// ArrowSink writes a table as a single-record Arrow IPC file. Number columns
// become nullable float64, everything else nullable utf8.
type ArrowSink struct {
	Path string
	// Mem defaults to the Go allocator.
	Mem memory.Allocator
}

var _ Sink[string] = (*ArrowSink)(nil)

func (s *ArrowSink) Consume(t *engine.Table) (string, error) {
	mem := s.Mem
	if mem == nil {
		mem = memory.NewGoAllocator()
	}

	rec := Record(mem, t)
	defer rec.Release()

	err := writeAtomic(s.Path, func(w io.Writer) error {
		fw, err := ipc.NewFileWriter(w, ipc.WithSchema(rec.Schema()), ipc.WithAllocator(mem))
		if err != nil {
			return err
		}
		if err := fw.Write(rec); err != nil {
			fw.Close()
			return err
		}
		return fw.Close()
	})
	if err != nil {
		return "", err
	}
	return s.Path, nil
}

// Schema maps the table's inferred column types to an Arrow schema.
func Schema(t *engine.Table) *arrow.Schema {
	cols := t.Columns()
	fields := make([]arrow.Field, len(cols))
	for i, c := range cols {
		typ, _ := t.ColumnType(c)
		fields[i] = arrow.Field{Name: c, Type: arrow.BinaryTypes.String, Nullable: true}
		if typ == engine.ColumnNumber {
			fields[i].Type = arrow.PrimitiveTypes.Float64
		}
	}
	return arrow.NewSchema(fields, nil)
}

// Record builds one Arrow record holding every row of t. The caller releases it.
func Record(mem memory.Allocator, t *engine.Table) arrow.Record {
	b := array.NewRecordBuilder(mem, Schema(t))
	defer b.Release()

	for r := 0; r < t.Len(); r++ {
		for i, v := range t.Row(r) {
			switch fb := b.Field(i).(type) {
			case *array.Float64Builder:
				if f, ok := v.Float(); ok {
					fb.Append(f)
				} else {
					fb.AppendNull()
				}
			case *array.StringBuilder:
				if v.Null() {
					fb.AppendNull()
				} else {
					fb.Append(v.Raw)
				}
			}
		}
	}
	return b.NewRecord()
}
