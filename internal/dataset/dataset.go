// Package dataset holds the in-memory tabular model produced by the loaders.
//
// A Dataset is built once per uploaded file and is never mutated afterwards;
// derived views such as Head allocate new columns.
package dataset

import (
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
)

// Kind is the declared scalar type of a column.
type Kind int

const (
	KindNumeric Kind = iota
	KindText
	KindBool
	KindDatetime
)

func (k Kind) String() string {
	switch k {
	case KindNumeric:
		return "numeric"
	case KindText:
		return "text"
	case KindBool:
		return "bool"
	case KindDatetime:
		return "datetime"
	default:
		return "unknown"
	}
}

func (k Kind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

// Value is a single nullable cell.
type Value struct {
	Null bool
	Num  float64
	Int  int64  // exact value for cells of Integer columns
	Str  string // original text for text and datetime cells
	Bool bool
	Time time.Time
}

// Column is a named, typed sequence of values.
type Column struct {
	Name string
	Kind Kind
	// Integer marks numeric columns whose every value was an integer literal.
	Integer bool
	Values  []Value
}

// Len returns the number of values.
func (c *Column) Len() int { return len(c.Values) }

// NullCount returns the number of missing values.
func (c *Column) NullCount() int {
	n := 0
	for _, v := range c.Values {
		if v.Null {
			n++
		}
	}
	return n
}

// Floats returns the numeric values with NaN in place of nulls.
// Non-numeric columns yield all NaN.
func (c *Column) Floats() []float64 {
	out := make([]float64, len(c.Values))
	for i, v := range c.Values {
		if v.Null || c.Kind != KindNumeric {
			out[i] = nan
			continue
		}
		out[i] = v.Num
	}
	return out
}

// Key renders cell i as a grouping key. ok is false for nulls.
func (c *Column) Key(i int) (key string, ok bool) {
	v := c.Values[i]
	if v.Null {
		return "", false
	}
	switch c.Kind {
	case KindNumeric:
		if c.Integer {
			return strconv.FormatInt(v.Int, 10), true
		}
		return strconv.FormatFloat(v.Num, 'g', -1, 64), true
	case KindBool:
		return strconv.FormatBool(v.Bool), true
	default:
		return v.Str, true
	}
}

// Cell returns cell i as a JSON-friendly Go value: nil, int64, float64, bool or string.
func (c *Column) Cell(i int) any {
	v := c.Values[i]
	if v.Null {
		return nil
	}
	switch c.Kind {
	case KindNumeric:
		if c.Integer {
			return v.Int
		}
		return v.Num
	case KindBool:
		return v.Bool
	default:
		return v.Str
	}
}

// Dataset is an ordered set of equal-length, uniquely named columns.
type Dataset struct {
	ID       string
	Name     string
	LoadedAt time.Time

	columns []*Column
	index   map[string]int
	rows    int
}

// New assembles a Dataset, enforcing equal column lengths and unique names.
func New(name string, cols []*Column) (*Dataset, error) {
	d := &Dataset{
		ID:       uuid.NewString(),
		Name:     name,
		LoadedAt: time.Now(),
		columns:  cols,
		index:    make(map[string]int, len(cols)),
	}
	for i, c := range cols {
		if _, dup := d.index[c.Name]; dup {
			return nil, fmt.Errorf("duplicate column name %q", c.Name)
		}
		d.index[c.Name] = i
		if i == 0 {
			d.rows = c.Len()
			continue
		}
		if c.Len() != d.rows {
			return nil, fmt.Errorf("column %q has %d values, want %d", c.Name, c.Len(), d.rows)
		}
	}
	return d, nil
}

// Rows returns the row count.
func (d *Dataset) Rows() int { return d.rows }

// Width returns the column count.
func (d *Dataset) Width() int { return len(d.columns) }

// Columns returns the columns in order. The slice is a copy; columns are shared.
func (d *Dataset) Columns() []*Column {
	out := make([]*Column, len(d.columns))
	copy(out, d.columns)
	return out
}

// Names returns the column names in order.
func (d *Dataset) Names() []string {
	out := make([]string, len(d.columns))
	for i, c := range d.columns {
		out[i] = c.Name
	}
	return out
}

// Column looks up a column by name.
func (d *Dataset) Column(name string) (*Column, error) {
	i, ok := d.index[name]
	if !ok {
		return nil, &ColumnNotFoundError{Column: name}
	}
	return d.columns[i], nil
}

// ColumnsOfKind returns the columns whose kind is any of kinds, in order.
func (d *Dataset) ColumnsOfKind(kinds ...Kind) []*Column {
	var out []*Column
	for _, c := range d.columns {
		for _, k := range kinds {
			if c.Kind == k {
				out = append(out, c)
				break
			}
		}
	}
	return out
}

// Head returns a new Dataset holding the first n rows.
func (d *Dataset) Head(n int) *Dataset {
	if n < 0 {
		n = 0
	}
	if n > d.rows {
		n = d.rows
	}
	cols := make([]*Column, len(d.columns))
	for i, c := range d.columns {
		vals := make([]Value, n)
		copy(vals, c.Values[:n])
		cols[i] = &Column{Name: c.Name, Kind: c.Kind, Integer: c.Integer, Values: vals}
	}
	return &Dataset{
		ID:       d.ID,
		Name:     d.Name,
		LoadedAt: d.LoadedAt,
		columns:  cols,
		index:    d.index,
		rows:     n,
	}
}
