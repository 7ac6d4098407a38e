// Package profile computes read-only summaries of a loaded dataset: shape,
// column types, descriptive statistics, missing values, correlations and
// categorical value counts.
package profile

import "github.com/KaramelBytes/tablelens/internal/dataset"

// Profiler computes summaries over one Dataset. All methods are pure.
type Profiler struct {
	ds *dataset.Dataset
}

// New returns a Profiler for ds.
func New(ds *dataset.Dataset) *Profiler {
	return &Profiler{ds: ds}
}

// Dataset returns the profiled dataset.
func (p *Profiler) Dataset() *dataset.Dataset { return p.ds }

// Shape returns the row and column counts.
func (p *Profiler) Shape() (rows, cols int) {
	return p.ds.Rows(), p.ds.Width()
}

// ColumnType is one entry of the dtypes listing.
type ColumnType struct {
	Name    string       `json:"name"`
	Kind    dataset.Kind `json:"kind"`
	Integer bool         `json:"integer,omitempty"`
}

// Types lists the declared kind of every column in order.
func (p *Profiler) Types() []ColumnType {
	cols := p.ds.Columns()
	out := make([]ColumnType, len(cols))
	for i, c := range cols {
		out[i] = ColumnType{Name: c.Name, Kind: c.Kind, Integer: c.Kind == dataset.KindNumeric && c.Integer}
	}
	return out
}

// Head returns the first n rows as a new dataset.
func (p *Profiler) Head(n int) *dataset.Dataset {
	return p.ds.Head(n)
}
