package engine

import (
	"math"
	"strconv"
	"strings"
)

// Kind tags the scalar held by a Value.
type Kind uint8

const (
	KindNull Kind = iota
	KindNumber
	KindString
)

// ColumnType is the per-column type inferred at load time.
type ColumnType uint8

const (
	ColumnString ColumnType = iota
	ColumnNumber
)

func (c ColumnType) String() string {
	if c == ColumnNumber {
		return "number"
	}
	return "string"
}

// Value is one cell. Raw keeps the source text so writers can reproduce it.
type Value struct {
	Kind Kind
	Num  float64
	Str  string
	Raw  string
}

// Null reports whether the cell was missing in the source.
func (v Value) Null() bool { return v.Kind == KindNull }

// Float returns the numeric value of the cell, if it has one.
func (v Value) Float() (float64, bool) {
	if v.Kind != KindNumber {
		return 0, false
	}
	return v.Num, true
}

// Text returns the cell as a grouping key. Null cells have no key.
func (v Value) Text() (string, bool) {
	switch v.Kind {
	case KindString:
		return v.Str, true
	case KindNumber:
		return v.Raw, true
	}
	return "", false
}

// naTokens are read as missing values, mirroring common dataframe defaults.
var naTokens = map[string]struct{}{
	"": {}, "NA": {}, "N/A": {}, "n/a": {}, "NaN": {}, "nan": {}, "-NaN": {}, "-nan": {},
	"NULL": {}, "null": {}, "#N/A": {}, "#N/A N/A": {}, "<NA>": {}, "None": {}, "#NA": {},
	"1.#IND": {}, "1.#QNAN": {}, "-1.#IND": {}, "-1.#QNAN": {},
}

// ParseValue classifies raw cell text as null, number or string.
func ParseValue(raw string) Value {
	if _, ok := naTokens[strings.TrimSpace(raw)]; ok {
		return Value{Kind: KindNull, Raw: raw}
	}
	if f, err := strconv.ParseFloat(strings.TrimSpace(raw), 64); err == nil {
		if math.IsNaN(f) {
			return Value{Kind: KindNull, Raw: raw}
		}
		return Value{Kind: KindNumber, Num: f, Raw: raw}
	}
	return Value{Kind: KindString, Str: raw, Raw: raw}
}

// NumberValue builds a numeric cell with a canonical raw form.
func NumberValue(f float64) Value {
	return Value{Kind: KindNumber, Num: f, Raw: strconv.FormatFloat(f, 'f', -1, 64)}
}

// StringValue builds a text cell.
func StringValue(s string) Value {
	return Value{Kind: KindString, Str: s, Raw: s}
}

// Table holds rows in insertion order. Every row is aligned with Columns.
// The column set is fixed after construction; Drop is the only narrowing
// of columns and always returns a new Table.
type Table struct {
	columns []string
	types   []ColumnType
	index   map[string]int
	rows    [][]Value
}

// NewTable builds a table and infers column types from the cells.
// Rows shorter than the header are padded with nulls.
func NewTable(columns []string, rows [][]Value) *Table {
	t := &Table{
		columns: append([]string(nil), columns...),
		index:   make(map[string]int, len(columns)),
		rows:    make([][]Value, len(rows)),
	}
	for i, c := range t.columns {
		t.index[c] = i
	}
	for i, r := range rows {
		if len(r) < len(columns) {
			padded := make([]Value, len(columns))
			copy(padded, r)
			r = padded
		}
		t.rows[i] = r[:len(columns)]
	}
	t.types = inferTypes(len(columns), t.rows)
	return t
}

// inferTypes marks a column numeric when every non-null cell is a number.
func inferTypes(width int, rows [][]Value) []ColumnType {
	types := make([]ColumnType, width)
	for c := 0; c < width; c++ {
		seen := false
		numeric := true
		for _, r := range rows {
			switch r[c].Kind {
			case KindNumber:
				seen = true
			case KindString:
				numeric = false
			}
			if !numeric {
				break
			}
		}
		if seen && numeric {
			types[c] = ColumnNumber
		}
	}
	return types
}

// Columns returns a copy of the column names in order.
func (t *Table) Columns() []string {
	return append([]string(nil), t.columns...)
}

// ColumnType reports the inferred type of a column.
func (t *Table) ColumnType(name string) (ColumnType, bool) {
	i, ok := t.index[name]
	if !ok {
		return ColumnString, false
	}
	return t.types[i], true
}

// ColumnIndex returns the position of a column or -1.
func (t *Table) ColumnIndex(name string) int {
	if i, ok := t.index[name]; ok {
		return i
	}
	return -1
}

// HasColumn reports whether the column exists.
func (t *Table) HasColumn(name string) bool {
	_, ok := t.index[name]
	return ok
}

// Len is the number of rows.
func (t *Table) Len() int { return len(t.rows) }

// Row returns row i. Callers must not modify it.
func (t *Table) Row(i int) []Value { return t.rows[i] }

// Cell returns the value of column name in row i.
func (t *Table) Cell(i int, name string) (Value, bool) {
	c, ok := t.index[name]
	if !ok {
		return Value{}, false
	}
	return t.rows[i][c], true
}

// selectRows returns a table sharing this table's schema with only the rows
// at the given positions, in the order given.
func (t *Table) selectRows(keep []int) *Table {
	out := &Table{
		columns: t.columns,
		types:   t.types,
		index:   t.index,
		rows:    make([][]Value, len(keep)),
	}
	for i, r := range keep {
		out.rows[i] = t.rows[r]
	}
	return out
}

// Drop returns a new table without the named columns. Unknown names are
// ignored and row order is unchanged.
func (t *Table) Drop(cols ...string) *Table {
	drop := make(map[string]struct{}, len(cols))
	for _, c := range cols {
		drop[c] = struct{}{}
	}

	// 1. Surviving column positions
	keep := make([]int, 0, len(t.columns))
	for i, c := range t.columns {
		if _, gone := drop[c]; !gone {
			keep = append(keep, i)
		}
	}

	// 2. Rebuild schema
	out := &Table{
		columns: make([]string, len(keep)),
		types:   make([]ColumnType, len(keep)),
		index:   make(map[string]int, len(keep)),
		rows:    make([][]Value, len(t.rows)),
	}
	for j, i := range keep {
		out.columns[j] = t.columns[i]
		out.types[j] = t.types[i]
		out.index[t.columns[i]] = j
	}

	// 3. Copy cells
	for r, row := range t.rows {
		nr := make([]Value, len(keep))
		for j, i := range keep {
			nr[j] = row[i]
		}
		out.rows[r] = nr
	}
	return out
}
