package engine

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-logr/logr"
	"github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// Format is a decoder family chosen from the file name.
type Format int

const (
	FormatUnknown Format = iota
	FormatCSV
	FormatXLSX
)

func (f Format) String() string {
	switch f {
	case FormatCSV:
		return "csv"
	case FormatXLSX:
		return "xlsx"
	}
	return "unknown"
}

// DetectFormat maps a file name to a decoder by extension.
func DetectFormat(name string) Format {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".csv", ".txt":
		return FormatCSV
	case ".xlsx", ".xlsm":
		return FormatXLSX
	}
	return FormatUnknown
}

// Loader turns files and upload buffers into Tables.
type Loader struct {
	Log logr.Logger
}

// NewLoader returns a Loader logging to log.
func NewLoader(log logr.Logger) *Loader {
	return &Loader{Log: log}
}

// Load reads the file at path.
func Load(path string) (*Table, error) {
	return NewLoader(logr.Discard()).Load(path)
}

// LoadBytes decodes an in-memory buffer; name only selects the format.
func LoadBytes(name string, data []byte) (*Table, error) {
	return NewLoader(logr.Discard()).LoadBytes(name, data)
}

// Load reads the file at path. The file is closed before returning.
func (l *Loader) Load(path string) (*Table, error) {
	format := DetectFormat(path)
	if format == FormatUnknown {
		return nil, unsupported(path)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, &LoadError{Name: path, Err: err}
	}
	defer f.Close()

	return l.decode(path, format, f)
}

// LoadBytes decodes data using the decoder chosen by name.
func (l *Loader) LoadBytes(name string, data []byte) (*Table, error) {
	format := DetectFormat(name)
	if format == FormatUnknown {
		return nil, unsupported(name)
	}
	return l.decode(name, format, bytes.NewReader(data))
}

func unsupported(name string) error {
	ext := filepath.Ext(name)
	if ext == "" {
		ext = "(none)"
	}
	return &LoadError{Name: name, Err: fmt.Errorf("%w: extension %s", ErrUnsupportedFormat, ext)}
}

func (l *Loader) decode(name string, format Format, r io.Reader) (*Table, error) {
	start := time.Now()
	l.Log.V(1).Info("loading table", "name", name, "format", format.String())

	var (
		t   *Table
		err error
	)
	switch format {
	case FormatCSV:
		t, err = decodeCSV(r)
	case FormatXLSX:
		t, err = decodeXLSX(r)
	}
	if err != nil {
		return nil, &LoadError{Name: name, Err: err}
	}

	l.Log.V(1).Info("load complete", "name", name, "rows", t.Len(), "columns", len(t.columns), "elapsed", time.Since(start))
	return t, nil
}

// --- CSV ---

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// textReader drops a UTF-8 BOM, transcodes UTF-16 input that starts with a
// BOM, and fails on any byte sequence that is not valid UTF-8.
func textReader(r io.Reader) io.Reader {
	br := bufio.NewReader(r)
	if head, _ := br.Peek(len(utf8BOM)); bytes.Equal(head, utf8BOM) {
		_, _ = br.Discard(len(utf8BOM))
	}
	return transform.NewReader(br, transform.Chain(unicode.BOMOverride(transform.Nop), encoding.UTF8Validator))
}

func decodeCSV(r io.Reader) (*Table, error) {
	r = textReader(r)

	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("%w: no columns to parse from file", ErrDecode)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: header: %v", ErrDecode, err)
	}
	columns := normalizeHeaders(header)

	var rows [][]Value
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrDecode, err)
		}
		if len(rec) > len(columns) {
			line, _ := cr.FieldPos(0)
			return nil, fmt.Errorf("%w: expected %d fields in line %d, saw %d", ErrDecode, len(columns), line, len(rec))
		}
		rows = append(rows, parseRecord(rec))
	}
	return NewTable(columns, rows), nil
}

// --- XLSX ---

func decodeXLSX(r io.Reader) (*Table, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("%w: workbook has no sheets", ErrDecode)
	}
	records, err := f.GetRows(sheets[0], excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("%w: sheet %q: %v", ErrDecode, sheets[0], err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%w: no columns to parse from sheet %q", ErrDecode, sheets[0])
	}

	// Cells past the header get unnamed columns of their own.
	header := records[0]
	width := len(header)
	for _, rec := range records[1:] {
		width = max(width, len(rec))
	}
	if width > len(header) {
		header = append(append(make([]string, 0, width), header...), make([]string, width-len(header))...)
	}

	columns := normalizeHeaders(header)
	rows := make([][]Value, 0, len(records)-1)
	for _, rec := range records[1:] {
		if isBlank(rec) {
			continue
		}
		rows = append(rows, parseRecord(rec))
	}
	return NewTable(columns, rows), nil
}

// --- HELPERS ---

func parseRecord(rec []string) []Value {
	row := make([]Value, len(rec))
	for i, field := range rec {
		row[i] = ParseValue(field)
	}
	return row
}

func isBlank(rec []string) bool {
	for _, f := range rec {
		if f != "" {
			return false
		}
	}
	return true
}

// normalizeHeaders names empty headers "Unnamed: i" and suffixes repeats
// with ".1", ".2", ... so every column name is unique.
func normalizeHeaders(h []string) []string {
	out := make([]string, len(h))
	used := make(map[string]bool, len(h))
	next := make(map[string]int)
	for i, name := range h {
		if name == "" {
			name = "Unnamed: " + strconv.Itoa(i)
		}
		candidate := name
		for used[candidate] {
			next[name]++
			candidate = name + "." + strconv.Itoa(next[name])
		}
		used[candidate] = true
		out[i] = candidate
	}
	return out
}
