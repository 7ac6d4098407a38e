// Package render draws chart specifications as static PNG images for the
// CLI and the /api/chart.png endpoint.
package render

import (
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"

	chart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	spec "github.com/KaramelBytes/tablelens/internal/chart"
	"github.com/KaramelBytes/tablelens/internal/utils"
)

// Default image size in pixels.
const (
	DefaultWidth  = 1024
	DefaultHeight = 576
)

// MaxSide is the largest accepted width or height in pixels.
const MaxSide = 4096

var (
	// ErrUnsupported is returned for specs that have no static rendering.
	ErrUnsupported = errors.New("chart kind cannot be rendered as an image")
	// ErrNoData is returned when a spec has nothing to draw.
	ErrNoData = errors.New("chart has no data to draw")
)

// Size is the output image size. Zero fields take the defaults.
type Size struct {
	Width  int
	Height int
}

func (s Size) normalize() Size {
	if s.Width <= 0 {
		s.Width = DefaultWidth
	}
	if s.Height <= 0 {
		s.Height = DefaultHeight
	}
	return s
}

// Validate rejects negative sides and sides above MaxSide.
func (s Size) Validate() error {
	if s.Width < 0 || s.Height < 0 {
		return fmt.Errorf("%w: image size %dx%d must not be negative", spec.ErrInvalidOption, s.Width, s.Height)
	}
	if s.Width > MaxSide || s.Height > MaxSide {
		return fmt.Errorf("%w: image size %dx%d exceeds %d pixels per side", spec.ErrInvalidOption, s.Width, s.Height, MaxSide)
	}
	return nil
}

// PNG writes sp to w as a PNG image.
func PNG(w io.Writer, sp spec.Spec, size Size) error {
	if err := size.Validate(); err != nil {
		return err
	}
	size = size.normalize()
	var err error
	switch s := sp.(type) {
	case *spec.BarSpec:
		var bc *chart.BarChart
		if bc, err = barChart(s.Header, s.Aggregated, size); err == nil {
			err = bc.Render(chart.PNG, w)
		}
	case *spec.PieSpec:
		var pc *chart.PieChart
		if pc, err = pieChart(s, size); err == nil {
			err = pc.Render(chart.PNG, w)
		}
	case *spec.HistogramSpec:
		var bc *chart.BarChart
		if bc, err = histogramChart(s, size); err == nil {
			err = bc.Render(chart.PNG, w)
		}
	case *spec.BoxSpec:
		var c *chart.Chart
		if c, err = boxChart(s, size); err == nil {
			err = c.Render(chart.PNG, w)
		}
	case *spec.LineSpec:
		var c *chart.Chart
		if c, err = lineChart(s, size); err == nil {
			err = c.Render(chart.PNG, w)
		}
	case *spec.ScatterSpec:
		var c *chart.Chart
		if c, err = scatterChart(s, size); err == nil {
			err = c.Render(chart.PNG, w)
		}
	default:
		return fmt.Errorf("%w: %T", ErrUnsupported, sp)
	}
	if err != nil {
		return fmt.Errorf("render %s: %w", sp.Kind(), err)
	}
	return nil
}

func color(hex string, fallback drawing.Color) drawing.Color {
	if hex == "" {
		return fallback
	}
	if hex[0] == '#' {
		hex = hex[1:]
	}
	return drawing.ColorFromHex(hex)
}

// paddedRange widens [lo, hi] so the chart never sees a zero-width range.
func paddedRange(lo, hi float64) *chart.ContinuousRange {
	if math.IsInf(lo, 0) || math.IsInf(hi, 0) || math.IsNaN(lo) || math.IsNaN(hi) {
		return &chart.ContinuousRange{Min: 0, Max: 1}
	}
	if hi-lo == 0 {
		pad := math.Abs(lo) * 0.1
		if pad == 0 {
			pad = 1
		}
		return &chart.ContinuousRange{Min: lo - pad, Max: hi + pad}
	}
	pad := (hi - lo) * 0.05
	return &chart.ContinuousRange{Min: lo - pad, Max: hi + pad}
}

func barWidth(n, width int) int {
	if n <= 0 {
		return 50
	}
	bw := (width - 120) / (n + n/2 + 1)
	if bw > 50 {
		bw = 50
	}
	if bw < 2 {
		bw = 2
	}
	return bw
}

func barChart(h spec.Header, a spec.Aggregated, size Size) (*chart.BarChart, error) {
	if len(a.Labels) == 0 {
		return nil, ErrNoData
	}
	fill := color(h.Style.Color, chart.GetDefaultColor(0))
	bars := make([]chart.Value, 0, len(a.Labels))
	lo, hi := 0.0, 0.0
	for i, label := range a.Labels {
		v := float64(a.Values[i])
		if !a.Values[i].Valid() {
			v = 0
		}
		lo, hi = math.Min(lo, v), math.Max(hi, v)
		bars = append(bars, chart.Value{
			Label: label,
			Value: v,
			Style: chart.Style{FillColor: fill, StrokeColor: fill},
		})
	}
	if hi == lo {
		hi = lo + 1
	}
	return &chart.BarChart{
		Title:      h.Title,
		Width:      size.Width,
		Height:     size.Height,
		Background: chart.Style{Padding: chart.Box{Top: 40, Left: 16, Right: 16, Bottom: 16}},
		XAxis:      chart.Style{TextRotationDegrees: float64(h.Style.TickAngle)},
		YAxis: chart.YAxis{
			Name:  h.YLabel,
			Range: &chart.ContinuousRange{Min: lo, Max: hi},
		},
		BarWidth: barWidth(len(bars), size.Width),
		Bars:     bars,
	}, nil
}

func pieChart(s *spec.PieSpec, size Size) (*chart.PieChart, error) {
	values := make([]chart.Value, 0, len(s.Labels))
	for i, label := range s.Labels {
		v := float64(s.Values[i])
		if !s.Values[i].Valid() || v <= 0 {
			continue
		}
		values = append(values, chart.Value{Label: label, Value: v})
	}
	if len(values) == 0 {
		return nil, ErrNoData
	}
	return &chart.PieChart{
		Title:  s.Title,
		Width:  size.Width,
		Height: size.Height,
		Values: values,
	}, nil
}

func histogramChart(s *spec.HistogramSpec, size Size) (*chart.BarChart, error) {
	a := spec.Aggregated{Labels: make([]string, len(s.Bins)), Values: make([]utils.Float, len(s.Bins))}
	for i, b := range s.Bins {
		a.Labels[i] = strconv.FormatFloat(float64(b.Lo), 'g', 4, 64)
		a.Values[i] = utils.Float(b.Count)
	}
	h := s.Header
	if h.YLabel == "" {
		h.YLabel = "count"
	}
	bc, err := barChart(h, a, size)
	if err != nil {
		return nil, err
	}
	bc.BarSpacing = 1
	return bc, nil
}

func lineChart(s *spec.LineSpec, size Size) (*chart.Chart, error) {
	xs := make([]float64, 0, len(s.Points))
	ys := make([]float64, 0, len(s.Points))
	var ticks []chart.Tick
	numericX := true
	for _, p := range s.Points {
		if _, ok := numeric(p.X); !ok {
			numericX = false
			break
		}
	}
	for i, p := range s.Points {
		if !p.Y.Valid() {
			continue
		}
		x := float64(i)
		if numericX {
			x, _ = numeric(p.X)
		} else {
			ticks = append(ticks, chart.Tick{Value: x, Label: fmt.Sprint(p.X)})
		}
		xs = append(xs, x)
		ys = append(ys, float64(p.Y))
	}
	if len(xs) == 0 {
		return nil, ErrNoData
	}
	ticks = thinTicks(ticks, 12)

	stroke := color(s.Style.Color, chart.GetDefaultColor(0))
	st := chart.Style{StrokeColor: stroke, StrokeWidth: 2}
	if s.Style.Markers {
		st.DotColor = stroke
		st.DotWidth = 3
	}
	xlo, xhi := bounds(xs)
	ylo, yhi := bounds(ys)
	return &chart.Chart{
		Title:      s.Title,
		Width:      size.Width,
		Height:     size.Height,
		Background: chart.Style{Padding: chart.Box{Top: 40, Left: 16, Right: 16, Bottom: 16}},
		XAxis:      chart.XAxis{Name: s.XLabel, Range: paddedRange(xlo, xhi), Ticks: ticks},
		YAxis:      chart.YAxis{Name: s.YLabel, Range: paddedRange(ylo, yhi)},
		Series:     []chart.Series{chart.ContinuousSeries{Name: s.Y, XValues: xs, YValues: ys, Style: st}},
	}, nil
}

func scatterChart(s *spec.ScatterSpec, size Size) (*chart.Chart, error) {
	if len(s.Points) == 0 {
		return nil, ErrNoData
	}
	groups := s.Groups
	if len(groups) == 0 {
		groups = []string{""}
	}
	slot := make(map[string]int, len(groups))
	for i, g := range groups {
		slot[g] = i
	}
	xs := make([][]float64, len(groups)+1)
	ys := make([][]float64, len(groups)+1)
	var all []float64
	var allY []float64
	for _, p := range s.Points {
		i, ok := slot[p.Group]
		if !ok {
			// uncoloured rows of a coloured plot
			i = len(groups)
		}
		xs[i] = append(xs[i], float64(p.X))
		ys[i] = append(ys[i], float64(p.Y))
		all = append(all, float64(p.X))
		allY = append(allY, float64(p.Y))
	}

	var series []chart.Series
	for i := range xs {
		if len(xs[i]) == 0 {
			continue
		}
		name := s.Y
		if i < len(groups) && groups[i] != "" {
			name = groups[i]
		}
		dot := chart.GetDefaultColor(i)
		if len(s.Groups) == 0 {
			dot = color(s.Style.MarkerColor, dot)
		}
		series = append(series, chart.ContinuousSeries{
			Name:    name,
			XValues: xs[i],
			YValues: ys[i],
			Style: chart.Style{
				StrokeWidth: chart.Disabled,
				DotWidth:    dotWidth(s.Style.MarkerSize),
				DotColor:    dot.WithAlpha(alpha(s.Style.Opacity)),
			},
		})
	}
	if s.Trend != nil {
		series = append(series, trendSeries(*s.Trend, "OLS trend", drawing.ColorBlack))
	}
	for _, t := range s.GroupTrends {
		series = append(series, trendSeries(t, "OLS "+t.Group, chart.GetDefaultColor(slot[t.Group])))
	}

	xlo, xhi := bounds(all)
	ylo, yhi := bounds(allY)
	c := &chart.Chart{
		Title:      s.Title,
		Width:      size.Width,
		Height:     size.Height,
		Background: chart.Style{Padding: chart.Box{Top: 40, Left: 16, Right: 16, Bottom: 16}},
		XAxis:      chart.XAxis{Name: s.XLabel, Range: paddedRange(xlo, xhi)},
		YAxis:      chart.YAxis{Name: s.YLabel, Range: paddedRange(ylo, yhi)},
		Series:     series,
	}
	if len(s.Groups) > 0 {
		c.Elements = []chart.Renderable{chart.Legend(c)}
	}
	return c, nil
}

func trendSeries(t spec.Trendline, name string, col drawing.Color) chart.ContinuousSeries {
	return chart.ContinuousSeries{
		Name:    name,
		XValues: []float64{float64(t.X0), float64(t.X1)},
		YValues: []float64{float64(t.Y0), float64(t.Y1)},
		Style:   chart.Style{StrokeColor: col, StrokeWidth: 2, StrokeDashArray: []float64{5, 3}},
	}
}

func boxChart(s *spec.BoxSpec, size Size) (*chart.Chart, error) {
	if len(s.Boxes) == 0 {
		return nil, ErrNoData
	}
	stroke := color(s.Style.Color, chart.GetDefaultColor(0))
	line := chart.Style{StrokeColor: stroke, StrokeWidth: 1.5}
	var (
		series []chart.Series
		ticks  []chart.Tick
		ylo    = math.Inf(1)
		yhi    = math.Inf(-1)
	)
	for i, b := range s.Boxes {
		if b.N == 0 {
			continue
		}
		x := float64(i + 1)
		name := b.Name
		if name == "" {
			name = s.Value
		}
		ticks = append(ticks, chart.Tick{Value: x, Label: name})
		q1, med, q3 := float64(b.Q1), float64(b.Median), float64(b.Q3)
		lw, uw := float64(b.LowerWhisker), float64(b.UpperWhisker)
		const half = 0.3
		series = append(series,
			chart.ContinuousSeries{
				XValues: []float64{x - half, x + half, x + half, x - half, x - half},
				YValues: []float64{q1, q1, q3, q3, q1},
				Style:   line,
			},
			chart.ContinuousSeries{XValues: []float64{x - half, x + half}, YValues: []float64{med, med}, Style: line},
			chart.ContinuousSeries{XValues: []float64{x, x}, YValues: []float64{q3, uw}, Style: line},
			chart.ContinuousSeries{XValues: []float64{x, x}, YValues: []float64{lw, q1}, Style: line},
		)
		ylo, yhi = math.Min(ylo, lw), math.Max(yhi, uw)
		if len(b.Outliers) > 0 {
			ox := make([]float64, len(b.Outliers))
			oy := make([]float64, len(b.Outliers))
			for j, o := range b.Outliers {
				ox[j], oy[j] = x, float64(o)
				ylo, yhi = math.Min(ylo, oy[j]), math.Max(yhi, oy[j])
			}
			series = append(series, chart.ContinuousSeries{
				XValues: ox,
				YValues: oy,
				Style:   chart.Style{StrokeWidth: chart.Disabled, DotWidth: 3, DotColor: stroke},
			})
		}
	}
	if len(series) == 0 {
		return nil, ErrNoData
	}
	return &chart.Chart{
		Title:      s.Title,
		Width:      size.Width,
		Height:     size.Height,
		Background: chart.Style{Padding: chart.Box{Top: 40, Left: 16, Right: 16, Bottom: 16}},
		XAxis:      chart.XAxis{Name: s.XLabel, Range: &chart.ContinuousRange{Min: 0.5, Max: float64(len(s.Boxes)) + 0.5}, Ticks: ticks},
		YAxis:      chart.YAxis{Name: s.YLabel, Range: paddedRange(ylo, yhi)},
		Series:     series,
	}, nil
}

func numeric(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case int64:
		return float64(x), true
	case int:
		return float64(x), true
	}
	return 0, false
}

func bounds(vals []float64) (lo, hi float64) {
	lo, hi = math.Inf(1), math.Inf(-1)
	for _, v := range vals {
		lo, hi = math.Min(lo, v), math.Max(hi, v)
	}
	return lo, hi
}

// thinTicks keeps at most limit evenly spaced ticks.
func thinTicks(ticks []chart.Tick, limit int) []chart.Tick {
	if len(ticks) <= limit {
		return ticks
	}
	step := (len(ticks) + limit - 1) / limit
	out := make([]chart.Tick, 0, limit)
	for i := 0; i < len(ticks); i += step {
		out = append(out, ticks[i])
	}
	return out
}

func dotWidth(size int) float64 {
	if size <= 0 {
		return 4
	}
	return float64(size) / 2
}

func alpha(opacity float64) uint8 {
	if opacity <= 0 || opacity > 1 {
		return 255
	}
	return uint8(math.Round(opacity * 255))
}
