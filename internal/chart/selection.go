package chart

import (
	"fmt"
	"strconv"
	"strings"
)

// Selection is the column binding for one chart kind. The concrete types are
// BarSelection, PieSelection, HistogramSelection, BoxSelection, LineSelection
// and ScatterSelection.
type Selection interface {
	Kind() Kind
	isSelection()
}

// BarSelection groups a text column, optionally reducing a numeric value column.
type BarSelection struct {
	Category string      `json:"category"`
	Value    string      `json:"value,omitempty"`
	Agg      Aggregation `json:"agg,omitempty"`
}

// PieSelection has the same bindings as BarSelection.
type PieSelection struct {
	Category string      `json:"category"`
	Value    string      `json:"value,omitempty"`
	Agg      Aggregation `json:"agg,omitempty"`
}

// HistogramSelection bins one numeric column. Bins <= 0 means DefaultBins.
type HistogramSelection struct {
	Column string `json:"column"`
	Bins   int    `json:"bins,omitempty"`
}

// BoxSelection plots Value grouped by Group.
type BoxSelection struct {
	Group string `json:"group"`
	Value string `json:"value"`
}

// LineSelection connects Y over X in row order.
type LineSelection struct {
	X string `json:"x"`
	Y string `json:"y"`
}

// ScatterSelection plots Y against X, optionally coloured by a third column.
type ScatterSelection struct {
	X     string `json:"x"`
	Y     string `json:"y"`
	Color string `json:"color,omitempty"`
}

func (BarSelection) Kind() Kind       { return KindBar }
func (PieSelection) Kind() Kind       { return KindPie }
func (HistogramSelection) Kind() Kind { return KindHistogram }
func (BoxSelection) Kind() Kind       { return KindBox }
func (LineSelection) Kind() Kind      { return KindLine }
func (ScatterSelection) Kind() Kind   { return KindScatter }

func (BarSelection) isSelection()       {}
func (PieSelection) isSelection()       {}
func (HistogramSelection) isSelection() {}
func (BoxSelection) isSelection()       {}
func (LineSelection) isSelection()      {}
func (ScatterSelection) isSelection()   {}

// SelectionFromParams builds a selection from string parameters such as query
// values or CLI flags. Keys: category, value, agg, column, bins, group, x, y, color.
// Missing column names stay empty and resolve to the first eligible column.
func SelectionFromParams(kind Kind, get func(key string) string) (Selection, error) {
	p := func(key string) string { return strings.TrimSpace(get(key)) }
	switch kind {
	case KindBar, KindPie:
		agg, err := ParseAggregation(p("agg"))
		if err != nil {
			return nil, err
		}
		if kind == KindBar {
			return BarSelection{Category: p("category"), Value: p("value"), Agg: agg}, nil
		}
		return PieSelection{Category: p("category"), Value: p("value"), Agg: agg}, nil
	case KindHistogram:
		bins := 0
		if s := p("bins"); s != "" {
			n, err := strconv.Atoi(s)
			if err != nil || n < 0 {
				return nil, fmt.Errorf("%w: bins %q must be a non-negative integer", ErrInvalidOption, s)
			}
			if n > MaxBins {
				return nil, fmt.Errorf("%w: bins %d exceeds the limit of %d", ErrInvalidOption, n, MaxBins)
			}
			bins = n
		}
		return HistogramSelection{Column: p("column"), Bins: bins}, nil
	case KindBox:
		return BoxSelection{Group: p("group"), Value: p("value")}, nil
	case KindLine:
		return LineSelection{X: p("x"), Y: p("y")}, nil
	case KindScatter:
		return ScatterSelection{X: p("x"), Y: p("y"), Color: p("color")}, nil
	}
	return nil, fmt.Errorf("%w: chart kind %q has no selection", ErrInvalidOption, kind)
}
