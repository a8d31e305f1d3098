package engine

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrUnsupportedFormat = errors.New("unsupported file type")
	ErrDecode            = errors.New("decode failed")
	ErrSchema            = errors.New("missing required column")
	ErrRange             = errors.New("invalid year range")
	ErrInvalidArgument   = errors.New("invalid argument")
)

// LoadError is returned by the loader for any input it could not turn into a
// Table.
type LoadError struct {
	Name string
	Err  error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("load %s: %v", e.Name, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// SchemaError lists required columns absent from a table.
type SchemaError struct {
	Missing []string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("%v: %s", ErrSchema, strings.Join(e.Missing, ", "))
}

func (e *SchemaError) Is(target error) bool { return target == ErrSchema }

// RangeError reports reversed year bounds.
type RangeError struct {
	Min, Max int
}

func (e *RangeError) Error() string {
	return fmt.Sprintf("%v: %d > %d", ErrRange, e.Min, e.Max)
}

func (e *RangeError) Is(target error) bool { return target == ErrRange }
