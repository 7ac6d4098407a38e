package dataset

import (
	"fmt"
	"strings"
)

// FormatError indicates an upload whose extension is neither CSV nor spreadsheet.
type FormatError struct {
	Filename string
	Ext      string
}

func (e *FormatError) Error() string {
	ext := e.Ext
	if ext == "" {
		ext = "(none)"
	}
	return fmt.Sprintf("unsupported file format %s for %q: upload a .csv or .xlsx file", ext, e.Filename)
}

// ParseError indicates malformed file content. Line is 1-based, 0 when unknown.
type ParseError struct {
	Filename string
	Line     int
	Err      error
}

func (e *ParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("parse %s: line %d: %v", e.Filename, e.Line, e.Err)
	}
	return fmt.Sprintf("parse %s: %v", e.Filename, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// TypeMismatchError indicates an operation requested on a column of the wrong kind.
type TypeMismatchError struct {
	Op     string
	Column string
	Got    Kind
	Want   []Kind
}

func (e *TypeMismatchError) Error() string {
	want := make([]string, len(e.Want))
	for i, k := range e.Want {
		want[i] = k.String()
	}
	return fmt.Sprintf("%s: column %q is %s, need %s", e.Op, e.Column, e.Got, strings.Join(want, " or "))
}

// NoEligibleColumnsError indicates the dataset has no column of a required kind.
type NoEligibleColumnsError struct {
	Op   string
	Want []Kind
}

func (e *NoEligibleColumnsError) Error() string {
	want := make([]string, len(e.Want))
	for i, k := range e.Want {
		want[i] = k.String()
	}
	return fmt.Sprintf("%s needs at least one %s column, dataset has none", e.Op, strings.Join(want, " or "))
}

// ColumnNotFoundError indicates a selection naming a column the dataset lacks.
type ColumnNotFoundError struct {
	Column string
}

func (e *ColumnNotFoundError) Error() string {
	return fmt.Sprintf("column %q not found", e.Column)
}

// Require resolves name to a column of one of the wanted kinds.
// An empty name picks the first eligible column, like a select box default.
func (d *Dataset) Require(op, name string, want ...Kind) (*Column, error) {
	eligible := d.ColumnsOfKind(want...)
	if len(eligible) == 0 {
		return nil, &NoEligibleColumnsError{Op: op, Want: want}
	}
	if name == "" {
		return eligible[0], nil
	}
	c, err := d.Column(name)
	if err != nil {
		return nil, err
	}
	for _, k := range want {
		if c.Kind == k {
			return c, nil
		}
	}
	return nil, &TypeMismatchError{Op: op, Column: name, Got: c.Kind, Want: want}
}
