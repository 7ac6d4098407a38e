package chart

import (
	"fmt"
	"math"
	"sort"

	"github.com/KaramelBytes/tablelens/internal/dataset"
	"github.com/KaramelBytes/tablelens/internal/profile"
	"github.com/KaramelBytes/tablelens/internal/utils"
)

// DefaultBins is the histogram bin count when a selection leaves it unset.
const DefaultBins = 30

// MaxBins caps the histogram bin count.
const MaxBins = 1000

var anyKind = []dataset.Kind{dataset.KindNumeric, dataset.KindText, dataset.KindBool, dataset.KindDatetime}

// Configure validates sel against ds and builds its chart spec.
// Empty column names resolve to the first eligible column.
func Configure(ds *dataset.Dataset, sel Selection) (Spec, error) {
	switch s := sel.(type) {
	case BarSelection:
		agg, err := aggregate(ds, "bar chart", s.Category, s.Value, s.Agg)
		if err != nil {
			return nil, err
		}
		return &BarSpec{Header: aggregateHeader(KindBar, agg), Aggregated: agg}, nil
	case PieSelection:
		agg, err := aggregate(ds, "pie chart", s.Category, s.Value, s.Agg)
		if err != nil {
			return nil, err
		}
		return &PieSpec{Header: aggregateHeader(KindPie, agg), Aggregated: agg}, nil
	case HistogramSelection:
		return histogram(ds, s)
	case BoxSelection:
		return box(ds, s)
	case LineSelection:
		return line(ds, s)
	case ScatterSelection:
		return scatter(ds, s)
	case nil:
		return nil, fmt.Errorf("%w: no chart selected", ErrInvalidOption)
	default:
		return nil, fmt.Errorf("%w: unsupported selection %T", ErrInvalidOption, sel)
	}
}

func aggregateHeader(kind Kind, a Aggregated) Header {
	y := a.Value
	if y == "" {
		y = "count"
	}
	return Header{
		Type:   kind,
		Title:  fmt.Sprintf("%s by %s", a.Agg.Title(), a.Category),
		XLabel: a.Category,
		YLabel: y,
	}
}

// aggregate groups rows by a text column. With a value column the groups are
// sorted by key and reduced with agg; without one the result is the value
// frequencies, most frequent first.
func aggregate(ds *dataset.Dataset, op, category, value string, agg Aggregation) (Aggregated, error) {
	cat, err := ds.Require(op, category, dataset.KindText)
	if err != nil {
		return Aggregated{}, err
	}
	if value == "" {
		counts := profile.CountValues(cat)
		out := Aggregated{Category: cat.Name, Agg: AggCount, Labels: make([]string, len(counts)), Values: make([]utils.Float, len(counts))}
		for i, c := range counts {
			out.Labels[i] = c.Value
			out.Values[i] = utils.Float(c.Count)
		}
		return out, nil
	}
	if agg == "" {
		agg = AggCount
	}
	val, err := ds.Require(op, value, dataset.KindNumeric)
	if err != nil {
		return Aggregated{}, err
	}
	groups := map[string][]float64{}
	nums := val.Floats()
	for i := range cat.Values {
		key, ok := cat.Key(i)
		if !ok {
			continue
		}
		groups[key] = append(groups[key], nums[i])
	}
	keys := make([]string, 0, len(groups))
	for k := range groups {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := Aggregated{Category: cat.Name, Value: val.Name, Agg: agg, Labels: keys, Values: make([]utils.Float, len(keys))}
	for i, k := range keys {
		r, err := reduce(agg, groups[k])
		if err != nil {
			return Aggregated{}, err
		}
		out.Values[i] = utils.Float(r)
	}
	return out, nil
}

func reduce(agg Aggregation, vals []float64) (float64, error) {
	switch agg {
	case AggCount:
		return float64(len(profile.Finite(vals))), nil
	case AggSum:
		return profile.Sum(vals), nil
	case AggMean:
		return profile.Mean(vals), nil
	case AggMedian:
		return profile.Median(vals), nil
	}
	return 0, fmt.Errorf("%w: aggregation %q", ErrInvalidOption, agg)
}

func histogram(ds *dataset.Dataset, s HistogramSelection) (Spec, error) {
	col, err := ds.Require("histogram", s.Column, dataset.KindNumeric)
	if err != nil {
		return nil, err
	}
	nbins := s.Bins
	if nbins > MaxBins {
		return nil, fmt.Errorf("%w: bins %d exceeds the limit of %d", ErrInvalidOption, nbins, MaxBins)
	}
	if nbins <= 0 {
		nbins = DefaultBins
	}
	vals := col.Floats()
	return &HistogramSpec{
		Header: Header{
			Type:   KindHistogram,
			Title:  "Histogram + Box for " + col.Name,
			XLabel: col.Name,
			YLabel: "count",
			Style:  Style{Color: "#003262", Opacity: 0.75, Marginal: "box"},
		},
		Column:   col.Name,
		Bins:     binEqualWidth(profile.Finite(vals), nbins),
		Marginal: summarize("", vals, false),
	}, nil
}

// binEqualWidth splits [min, max] into n equal bins. A zero-width range gets
// one bin; no values give no bins.
func binEqualWidth(vals []float64, n int) []Bin {
	if len(vals) == 0 {
		return []Bin{}
	}
	lo, hi := vals[0], vals[0]
	for _, v := range vals {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	if lo == hi {
		return []Bin{{Lo: utils.Float(lo), Hi: utils.Float(hi), Count: len(vals)}}
	}
	width := (hi - lo) / float64(n)
	bins := make([]Bin, n)
	for i := range bins {
		bins[i].Lo = utils.Float(lo + float64(i)*width)
		bins[i].Hi = utils.Float(lo + float64(i+1)*width)
	}
	bins[n-1].Hi = utils.Float(hi)
	for _, v := range vals {
		i := int((v - lo) / width)
		if i >= n {
			i = n - 1
		}
		bins[i].Count++
	}
	return bins
}

// summarize computes a box summary over the finite values. Points keeps every
// value when withPoints is set.
func summarize(name string, vals []float64, withPoints bool) BoxSummary {
	sorted := profile.Sorted(vals)
	n := len(sorted)
	b := BoxSummary{
		Name:     name,
		N:        n,
		Q1:       utils.Float(profile.Quantile(sorted, 0.25)),
		Median:   utils.Float(profile.Quantile(sorted, 0.5)),
		Q3:       utils.Float(profile.Quantile(sorted, 0.75)),
		Mean:     utils.Float(profile.Mean(sorted)),
		SD:       utils.Float(profile.StdDev(sorted)),
		Outliers: []utils.Float{},
	}
	if n == 0 {
		b.LowerWhisker, b.UpperWhisker = utils.NaN(), utils.NaN()
		b.NotchLow, b.NotchHigh = utils.NaN(), utils.NaN()
		return b
	}
	q1, q3 := float64(b.Q1), float64(b.Q3)
	iqr := q3 - q1
	lowFence, highFence := q1-1.5*iqr, q3+1.5*iqr
	b.LowerWhisker, b.UpperWhisker = utils.Float(q1), utils.Float(q3)
	for _, v := range sorted {
		if v < lowFence || v > highFence {
			b.Outliers = append(b.Outliers, utils.Float(v))
			continue
		}
		if v < float64(b.LowerWhisker) {
			b.LowerWhisker = utils.Float(v)
		}
		if v > float64(b.UpperWhisker) {
			b.UpperWhisker = utils.Float(v)
		}
	}
	half := 1.57 * iqr / math.Sqrt(float64(n))
	b.NotchLow = utils.Float(float64(b.Median) - half)
	b.NotchHigh = utils.Float(float64(b.Median) + half)
	if withPoints {
		b.Points = utils.Floats(profile.Finite(vals))
	}
	return b
}

func box(ds *dataset.Dataset, s BoxSelection) (Spec, error) {
	group, err := ds.Require("box plot", s.Group, anyKind...)
	if err != nil {
		return nil, err
	}
	val, err := ds.Require("box plot", s.Value, dataset.KindNumeric)
	if err != nil {
		return nil, err
	}
	nums := val.Floats()
	var order []string
	groups := map[string][]float64{}
	for i := range group.Values {
		key, ok := group.Key(i)
		if !ok {
			continue
		}
		if _, seen := groups[key]; !seen {
			order = append(order, key)
		}
		groups[key] = append(groups[key], nums[i])
	}
	boxes := make([]BoxSummary, len(order))
	for i, key := range order {
		boxes[i] = summarize(key, groups[key], true)
	}
	return &BoxSpec{
		Header: Header{
			Type:   KindBox,
			Title:  fmt.Sprintf("Box Plot of %s grouped by %s", val.Name, group.Name),
			XLabel: group.Name + " Category",
			YLabel: val.Name + " Value Distribution",
			Style: Style{
				Color:         "#1f77b4",
				MarkerColor:   "#FF5733",
				MarkerSize:    6,
				Points:        "all",
				Notched:       true,
				BoxMean:       "sd",
				Jitter:        0.05,
				TickAngle:     -45,
				TitleX:        0.5,
				TitleFontSize: 18,
				ShowLegend:    boolPtr(false),
			},
		},
		Group: group.Name,
		Value: val.Name,
		Boxes: boxes,
	}, nil
}

func line(ds *dataset.Dataset, s LineSelection) (Spec, error) {
	x, err := ds.Require("line chart", s.X, anyKind...)
	if err != nil {
		return nil, err
	}
	y, err := ds.Require("line chart", s.Y, dataset.KindNumeric)
	if err != nil {
		return nil, err
	}
	ys := y.Floats()
	points := make([]Point, ds.Rows())
	for i := range points {
		points[i] = Point{X: x.Cell(i), Y: utils.Float(ys[i])}
	}
	return &LineSpec{
		Header: Header{
			Type:   KindLine,
			Title:  fmt.Sprintf("Line Chart of %s over %s", y.Name, x.Name),
			XLabel: x.Name,
			YLabel: y.Name,
			Style:  Style{Color: "#2e86de", Markers: true},
		},
		X:      x.Name,
		Y:      y.Name,
		Points: points,
	}, nil
}

func scatter(ds *dataset.Dataset, s ScatterSelection) (Spec, error) {
	x, err := ds.Require("scatter plot", s.X, dataset.KindNumeric)
	if err != nil {
		return nil, err
	}
	yName := s.Y
	if yName == "" {
		// default to the second numeric column when there is one
		if nums := ds.ColumnsOfKind(dataset.KindNumeric); len(nums) > 1 {
			yName = nums[1].Name
		}
	}
	y, err := ds.Require("scatter plot", yName, dataset.KindNumeric)
	if err != nil {
		return nil, err
	}
	var color *dataset.Column
	if s.Color != "" {
		if color, err = ds.Require("scatter plot", s.Color, anyKind...); err != nil {
			return nil, err
		}
	}

	xs, ys := x.Floats(), y.Floats()
	spec := &ScatterSpec{
		Header: Header{
			Type:   KindScatter,
			Title:  fmt.Sprintf("Scatter Plot of %s vs %s with Trendline", y.Name, x.Name),
			XLabel: x.Name,
			YLabel: y.Name,
			Style:  Style{Opacity: 0.8, Trendline: "ols"},
		},
		X:      x.Name,
		Y:      y.Name,
		Points: []ScatterPoint{},
	}
	var px, py []float64
	byGroup := map[string][2][]float64{}
	for i := range xs {
		if math.IsNaN(xs[i]) || math.IsNaN(ys[i]) {
			continue
		}
		pt := ScatterPoint{X: utils.Float(xs[i]), Y: utils.Float(ys[i])}
		px, py = append(px, xs[i]), append(py, ys[i])
		if color != nil {
			if key, ok := color.Key(i); ok {
				pt.Group = key
				g, seen := byGroup[key]
				if !seen {
					spec.Groups = append(spec.Groups, key)
				}
				g[0], g[1] = append(g[0], xs[i]), append(g[1], ys[i])
				byGroup[key] = g
			}
		}
		spec.Points = append(spec.Points, pt)
	}
	if color != nil {
		spec.Color = color.Name
		for _, key := range spec.Groups {
			g := byGroup[key]
			if t, ok := fitOLS(g[0], g[1]); ok {
				t.Group = key
				spec.GroupTrends = append(spec.GroupTrends, t)
			}
		}
	}
	if t, ok := fitOLS(px, py); ok {
		spec.Trend = &t
	}
	return spec, nil
}

// fitOLS fits y on x by least squares. It fails with fewer than two points or
// no spread in x.
func fitOLS(xs, ys []float64) (Trendline, bool) {
	n := len(xs)
	if n < 2 {
		return Trendline{}, false
	}
	mx, my := profile.Mean(xs), profile.Mean(ys)
	var sxx, sxy, syy float64
	lo, hi := xs[0], xs[0]
	for i := range xs {
		dx, dy := xs[i]-mx, ys[i]-my
		sxx += dx * dx
		sxy += dx * dy
		syy += dy * dy
		lo = math.Min(lo, xs[i])
		hi = math.Max(hi, xs[i])
	}
	if sxx == 0 {
		return Trendline{}, false
	}
	slope := sxy / sxx
	intercept := my - slope*mx
	r2 := math.NaN()
	if syy > 0 {
		r2 = sxy * sxy / (sxx * syy)
	}
	return Trendline{
		N:         n,
		Slope:     utils.Float(slope),
		Intercept: utils.Float(intercept),
		R2:        utils.Float(r2),
		X0:        utils.Float(lo),
		Y0:        utils.Float(slope*lo + intercept),
		X1:        utils.Float(hi),
		Y1:        utils.Float(slope*hi + intercept),
	}, true
}
