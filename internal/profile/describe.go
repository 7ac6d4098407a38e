package profile

import (
	"github.com/KaramelBytes/tablelens/internal/dataset"
	"github.com/KaramelBytes/tablelens/internal/utils"
)

// ColumnStats is one column of the describe table. Numeric columns fill the
// moment and quantile fields; other columns fill Unique, Top and Freq.
type ColumnStats struct {
	Column string       `json:"column"`
	Kind   dataset.Kind `json:"kind"`
	Count  int          `json:"count"`
	Nulls  int          `json:"nulls"`

	Mean   *utils.Float `json:"mean,omitempty"`
	Std    *utils.Float `json:"std,omitempty"`
	Min    *utils.Float `json:"min,omitempty"`
	Q1     *utils.Float `json:"25%,omitempty"`
	Median *utils.Float `json:"50%,omitempty"`
	Q3     *utils.Float `json:"75%,omitempty"`
	Max    *utils.Float `json:"max,omitempty"`

	Unique *int    `json:"unique,omitempty"`
	Top    *string `json:"top,omitempty"`
	Freq   *int    `json:"freq,omitempty"`
}

// Description is the describe table, one entry per column in dataset order.
type Description []ColumnStats

// Get returns the stats for a column by name.
func (d Description) Get(name string) (ColumnStats, bool) {
	for _, s := range d {
		if s.Column == name {
			return s, true
		}
	}
	return ColumnStats{}, false
}

// Describe computes per-column descriptive statistics. Counts exclude nulls.
func (p *Profiler) Describe() Description {
	cols := p.ds.Columns()
	out := make(Description, 0, len(cols))
	for _, c := range cols {
		nulls := c.NullCount()
		s := ColumnStats{Column: c.Name, Kind: c.Kind, Count: c.Len() - nulls, Nulls: nulls}
		if c.Kind == dataset.KindNumeric {
			vals := c.Floats()
			sorted := Sorted(vals)
			s.Mean = utils.Ptr(Mean(vals))
			s.Std = utils.Ptr(StdDev(vals))
			s.Min = utils.Ptr(Quantile(sorted, 0))
			s.Q1 = utils.Ptr(Quantile(sorted, 0.25))
			s.Median = utils.Ptr(Quantile(sorted, 0.5))
			s.Q3 = utils.Ptr(Quantile(sorted, 0.75))
			s.Max = utils.Ptr(Quantile(sorted, 1))
		} else {
			counts := CountValues(c)
			unique := len(counts)
			s.Unique = &unique
			if unique > 0 {
				top, freq := counts[0].Value, counts[0].Count
				s.Top = &top
				s.Freq = &freq
			}
		}
		out = append(out, s)
	}
	return out
}
