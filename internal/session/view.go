package session

import (
	"errors"
	"fmt"
	"strings"

	"github.com/KaramelBytes/tablelens/internal/chart"
	"github.com/KaramelBytes/tablelens/internal/dataset"
	"github.com/KaramelBytes/tablelens/internal/export"
	"github.com/KaramelBytes/tablelens/internal/profile"
)

// User-facing messages.
const (
	EmptyMessage     = "Upload a CSV or Excel file to begin."
	LoadedMessage    = "File loaded successfully!"
	NoMissingMessage = "No missing values detected."
)

// DatasetInfo identifies the held dataset.
type DatasetInfo struct {
	ID      string   `json:"id"`
	Name    string   `json:"name"`
	Rows    int      `json:"rows"`
	Cols    int      `json:"cols"`
	Columns []string `json:"columns"`
}

// MissingView is the missing-values section.
type MissingView struct {
	Report  profile.MissingReport `json:"report"`
	Message string                `json:"message,omitempty"`
	Heatmap *chart.HeatmapSpec    `json:"heatmap,omitempty"`
}

// CorrelationView is the correlation section. Error is set when no heatmap can be drawn.
type CorrelationView struct {
	Matrix  profile.CorrMatrix `json:"matrix"`
	Heatmap *chart.HeatmapSpec `json:"heatmap,omitempty"`
	Error   string             `json:"error,omitempty"`
}

// CategoricalView is the value-counts section.
type CategoricalView struct {
	Columns []string            `json:"columns"`
	Column  string              `json:"column,omitempty"`
	Counts  profile.ValueCounts `json:"counts,omitempty"`
	Error   string              `json:"error,omitempty"`
}

// ChartView is the visualization section.
type ChartView struct {
	Kind  chart.Kind `json:"kind"`
	Spec  chart.Spec `json:"spec,omitempty"`
	Error string     `json:"error,omitempty"`
}

// View is one full recomputation of the dashboard. Before upload only
// Empty and Message are set.
type View struct {
	Empty       bool                 `json:"empty"`
	Message     string               `json:"message,omitempty"`
	Dataset     *DatasetInfo         `json:"dataset,omitempty"`
	Head        []export.Row         `json:"head,omitempty"`
	Types       []profile.ColumnType `json:"types,omitempty"`
	Describe    profile.Description  `json:"describe,omitempty"`
	Missing     *MissingView         `json:"missing,omitempty"`
	Correlation *CorrelationView     `json:"correlation,omitempty"`
	Categorical *CategoricalView     `json:"categorical,omitempty"`
	Chart       *ChartView           `json:"chart,omitempty"`
}

// Render runs every visible component against the state. A failing section
// carries a message and the others are still computed.
func Render(st State) View {
	if !st.Loaded() {
		return View{Empty: true, Message: EmptyMessage}
	}
	ds := st.Dataset
	p := profile.New(ds)
	rows, cols := p.Shape()
	headRows := st.HeadRows
	if headRows <= 0 {
		headRows = DefaultHeadRows
	}
	v := View{
		Message:  LoadedMessage,
		Dataset:  &DatasetInfo{ID: ds.ID, Name: ds.Name, Rows: rows, Cols: cols, Columns: ds.Names()},
		Head:     export.Rows(p.Head(headRows)),
		Types:    p.Types(),
		Describe: p.Describe(),
	}

	mv := &MissingView{Report: p.MissingReport()}
	if len(mv.Report) == 0 {
		mv.Message = NoMissingMessage
	} else {
		mv.Heatmap = chart.MissingHeatmap(p.MissingMask())
	}
	v.Missing = mv

	cv := &CorrelationView{Matrix: p.CorrelationMatrix()}
	if hm, err := chart.CorrelationHeatmap(cv.Matrix); err != nil {
		cv.Error = Message(err)
	} else {
		cv.Heatmap = hm
	}
	v.Correlation = cv

	if cats := profile.CategoricalColumns(ds); len(cats) > 0 {
		cat := &CategoricalView{Columns: cats, Column: st.CategoricalColumn}
		if cat.Column == "" {
			cat.Column = cats[0]
		}
		counts, err := profile.TopValues(ds, cat.Column, st.TopN)
		if err != nil {
			cat.Error = Message(err)
		} else {
			cat.Counts = counts
		}
		v.Categorical = cat
	}

	sel := st.ChartSelection()
	chv := &ChartView{Kind: sel.Kind()}
	if spec, err := chart.Configure(ds, sel); err != nil {
		chv.Error = Message(err)
	} else {
		chv.Spec = spec
	}
	v.Chart = chv
	return v
}

// Message turns a component error into text for the user.
func Message(err error) string {
	var (
		fe *dataset.FormatError
		pe *dataset.ParseError
		tm *dataset.TypeMismatchError
		ne *dataset.NoEligibleColumnsError
		nf *dataset.ColumnNotFoundError
	)
	switch {
	case errors.As(err, &fe):
		return fmt.Sprintf("Unsupported file %q. Upload a CSV or Excel (.xlsx) file.", fe.Filename)
	case errors.As(err, &pe):
		return fmt.Sprintf("Could not read %s: %v", pe.Filename, pe.Err)
	case errors.As(err, &ne):
		return fmt.Sprintf("No %s columns available for the %s.", kindWords(ne.Want), ne.Op)
	case errors.As(err, &tm):
		return fmt.Sprintf("Column %q is %s; the %s needs a %s column.", tm.Column, tm.Got, tm.Op, kindWords(tm.Want))
	case errors.As(err, &nf):
		return fmt.Sprintf("Column %q does not exist in this dataset.", nf.Column)
	case errors.Is(err, chart.ErrInvalidOption):
		return err.Error()
	}
	return "Something went wrong: " + err.Error()
}

func kindWords(kinds []dataset.Kind) string {
	words := make([]string, len(kinds))
	for i, k := range kinds {
		if k == dataset.KindText {
			words[i] = "categorical"
			continue
		}
		words[i] = k.String()
	}
	return strings.Join(words, " or ")
}
