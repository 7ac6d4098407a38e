// Package chart turns chart selections into declarative chart specs.
//
// A Selection names the columns and options for one chart kind; Configure
// validates it against a dataset and returns the matching Spec. Specs carry
// data and style parameters only and are drawn by an external engine.
package chart

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidOption marks an unknown chart kind, aggregation or parameter value.
var ErrInvalidOption = errors.New("invalid chart option")

// Kind enumerates the chart kinds.
type Kind string

const (
	KindBar       Kind = "bar"
	KindLine      Kind = "line"
	KindPie       Kind = "pie"
	KindHistogram Kind = "histogram"
	KindBox       Kind = "box"
	KindScatter   Kind = "scatter"

	KindCorrelationHeatmap Kind = "correlation_heatmap"
	KindMissingHeatmap     Kind = "missing_heatmap"
)

// Kinds lists the user-selectable kinds in menu order.
func Kinds() []Kind {
	return []Kind{KindBar, KindLine, KindPie, KindHistogram, KindBox, KindScatter}
}

// Label is the menu caption of a kind.
func (k Kind) Label() string {
	switch k {
	case KindBar:
		return "Bar Chart"
	case KindLine:
		return "Line Chart"
	case KindPie:
		return "Pie Chart"
	case KindHistogram:
		return "Histogram"
	case KindBox:
		return "Box Plot"
	case KindScatter:
		return "Scatter Plot"
	case KindCorrelationHeatmap:
		return "Correlation Heatmap"
	case KindMissingHeatmap:
		return "Missing Values Heatmap"
	}
	return string(k)
}

// ParseKind accepts a kind id ("bar") or menu caption ("Bar Chart"), any case.
func ParseKind(s string) (Kind, error) {
	v := strings.ToLower(strings.TrimSpace(s))
	for _, k := range Kinds() {
		if v == string(k) || v == strings.ToLower(k.Label()) {
			return k, nil
		}
	}
	names := make([]string, 0, len(Kinds()))
	for _, k := range Kinds() {
		names = append(names, string(k))
	}
	return "", fmt.Errorf("%w: chart kind %q, want one of %s", ErrInvalidOption, s, strings.Join(names, ", "))
}

// Aggregation reduces the values of one group.
type Aggregation string

const (
	AggCount  Aggregation = "count"
	AggSum    Aggregation = "sum"
	AggMean   Aggregation = "mean"
	AggMedian Aggregation = "median"
)

// Aggregations lists the supported reductions.
func Aggregations() []Aggregation {
	return []Aggregation{AggCount, AggSum, AggMean, AggMedian}
}

// ParseAggregation accepts an aggregation name in any case. Empty means count.
func ParseAggregation(s string) (Aggregation, error) {
	v := strings.ToLower(strings.TrimSpace(s))
	if v == "" {
		return AggCount, nil
	}
	for _, a := range Aggregations() {
		if v == string(a) {
			return a, nil
		}
	}
	return "", fmt.Errorf("%w: aggregation %q, want count, sum, mean or median", ErrInvalidOption, s)
}

// Title returns the aggregation name with an upper-case first letter.
func (a Aggregation) Title() string {
	if a == "" {
		return "Count"
	}
	return strings.ToUpper(string(a[:1])) + string(a[1:])
}
