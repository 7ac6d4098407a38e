package chart

import (
	"github.com/KaramelBytes/tablelens/internal/utils"
)

// Spec is a declarative chart description. The concrete types are BarSpec,
// PieSpec, HistogramSpec, BoxSpec, LineSpec, ScatterSpec and HeatmapSpec.
type Spec interface {
	Kind() Kind
	spec()
}

// Header holds the fields shared by every spec. Type is the JSON discriminator.
type Header struct {
	Type   Kind   `json:"kind"`
	Title  string `json:"title"`
	XLabel string `json:"x_label,omitempty"`
	YLabel string `json:"y_label,omitempty"`
	Style  Style  `json:"style"`
}

func (h Header) Kind() Kind { return h.Type }
func (Header) spec()        {}

// Style carries rendering parameters for the external engine. Zero fields are
// left to the engine's defaults.
type Style struct {
	Color       string  `json:"color,omitempty"`
	MarkerColor string  `json:"marker_color,omitempty"`
	MarkerSize  int     `json:"marker_size,omitempty"`
	Opacity     float64 `json:"opacity,omitempty"`
	Markers     bool    `json:"markers,omitempty"`

	// box plots
	Points  string  `json:"points,omitempty"`
	Notched bool    `json:"notched,omitempty"`
	BoxMean string  `json:"boxmean,omitempty"`
	Jitter  float64 `json:"jitter,omitempty"`

	Marginal  string `json:"marginal,omitempty"`
	Trendline string `json:"trendline,omitempty"`

	// layout
	TickAngle     int     `json:"tick_angle,omitempty"`
	TitleX        float64 `json:"title_x,omitempty"`
	TitleFontSize int     `json:"title_font_size,omitempty"`
	ShowLegend    *bool   `json:"show_legend,omitempty"`

	// heatmaps
	ColorScale      string `json:"color_scale,omitempty"`
	TextAuto        bool   `json:"text_auto,omitempty"`
	ShowColorBar    *bool  `json:"show_color_bar,omitempty"`
	ShowYTickLabels *bool  `json:"show_y_tick_labels,omitempty"`
}

func boolPtr(b bool) *bool { return &b }

// Aggregated is the grouped series behind bar and pie charts.
type Aggregated struct {
	Category string        `json:"category"`
	Value    string        `json:"value,omitempty"`
	Agg      Aggregation   `json:"agg"`
	Labels   []string      `json:"labels"`
	Values   []utils.Float `json:"values"`
}

// Lookup returns the aggregated value for a label.
func (a Aggregated) Lookup(label string) (float64, bool) {
	for i, l := range a.Labels {
		if l == label {
			return float64(a.Values[i]), true
		}
	}
	return 0, false
}

// BarSpec plots Values per label with x = Category.
type BarSpec struct {
	Header
	Aggregated
}

// PieSpec plots Values as slices named by Category.
type PieSpec struct {
	Header
	Aggregated
}

// Bin is one equal-width histogram interval [Lo, Hi). The last bin is closed.
type Bin struct {
	Lo    utils.Float `json:"lo"`
	Hi    utils.Float `json:"hi"`
	Count int         `json:"count"`
}

// BoxSummary is the five-number summary of one group plus mean, sd and notch.
// Whiskers reach the furthest points within 1.5 IQR of the quartiles.
type BoxSummary struct {
	Name         string        `json:"name,omitempty"`
	N            int           `json:"n"`
	Q1           utils.Float   `json:"q1"`
	Median       utils.Float   `json:"median"`
	Q3           utils.Float   `json:"q3"`
	Mean         utils.Float   `json:"mean"`
	SD           utils.Float   `json:"sd"`
	LowerWhisker utils.Float   `json:"lower_whisker"`
	UpperWhisker utils.Float   `json:"upper_whisker"`
	NotchLow     utils.Float   `json:"notch_low"`
	NotchHigh    utils.Float   `json:"notch_high"`
	Outliers     []utils.Float `json:"outliers"`
	Points       []utils.Float `json:"points,omitempty"`
}

// HistogramSpec bins one numeric column and adds a marginal box summary.
type HistogramSpec struct {
	Header
	Column   string     `json:"column"`
	Bins     []Bin      `json:"bins"`
	Marginal BoxSummary `json:"marginal_box"`
}

// BoxSpec holds one box per group, in first-occurrence order.
type BoxSpec struct {
	Header
	Group string       `json:"group"`
	Value string       `json:"value"`
	Boxes []BoxSummary `json:"boxes"`
}

// Point is one line vertex. X holds the original cell value.
type Point struct {
	X any         `json:"x"`
	Y utils.Float `json:"y"`
}

// LineSpec connects Points in row order.
type LineSpec struct {
	Header
	X      string  `json:"x"`
	Y      string  `json:"y"`
	Points []Point `json:"points"`
}

// ScatterPoint is one marker. Group is the colour key, empty when uncoloured.
type ScatterPoint struct {
	X     utils.Float `json:"x"`
	Y     utils.Float `json:"y"`
	Group string      `json:"group,omitempty"`
}

// Trendline is an ordinary least squares fit y = Slope*x + Intercept drawn
// from (X0, Y0) to (X1, Y1) over the observed x range.
type Trendline struct {
	Group     string      `json:"group,omitempty"`
	N         int         `json:"n"`
	Slope     utils.Float `json:"slope"`
	Intercept utils.Float `json:"intercept"`
	R2        utils.Float `json:"r2"`
	X0        utils.Float `json:"x0"`
	Y0        utils.Float `json:"y0"`
	X1        utils.Float `json:"x1"`
	Y1        utils.Float `json:"y1"`
}

// ScatterSpec plots Y against X with an overall trend line and, when a colour
// column is bound, one trend line per colour group.
type ScatterSpec struct {
	Header
	X           string         `json:"x"`
	Y           string         `json:"y"`
	Color       string         `json:"color,omitempty"`
	Points      []ScatterPoint `json:"points"`
	Groups      []string       `json:"groups,omitempty"`
	Trend       *Trendline     `json:"trend,omitempty"`
	GroupTrends []Trendline    `json:"group_trends,omitempty"`
}

// HeatmapSpec is a labelled matrix. Z is indexed [y][x].
type HeatmapSpec struct {
	Header
	X []string        `json:"x"`
	Y []string        `json:"y"`
	Z [][]utils.Float `json:"z"`
}
