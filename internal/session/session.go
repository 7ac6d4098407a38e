// Package session holds the explicit state of one interactive analysis
// session and recomputes the visible components from it.
package session

import (
	"io"
	"sync"

	"go.uber.org/zap"

	"github.com/KaramelBytes/tablelens/internal/chart"
	"github.com/KaramelBytes/tablelens/internal/dataset"
	"github.com/KaramelBytes/tablelens/internal/profile"
)

// Defaults for widget values.
const (
	DefaultHeadRows = 5
	DefaultTopN     = profile.DefaultTopN
)

// State is the complete widget state of a session. The Dataset is nil until
// the first successful upload and is never mutated.
type State struct {
	Dataset           *dataset.Dataset
	CategoricalColumn string
	Chart             chart.Selection
	HeadRows          int
	TopN              int
	HistogramBins     int
}

// NewState returns the empty state with default widget values.
func NewState() State {
	return State{
		Chart:    chart.BarSelection{Agg: chart.AggCount},
		HeadRows: DefaultHeadRows,
		TopN:     DefaultTopN,
	}
}

// Loaded reports whether a dataset is held.
func (s State) Loaded() bool { return s.Dataset != nil }

// ChartSelection returns the chart selection with widget defaults applied.
func (s State) ChartSelection() chart.Selection {
	sel := s.Chart
	if sel == nil {
		sel = chart.BarSelection{Agg: chart.AggCount}
	}
	if h, ok := sel.(chart.HistogramSelection); ok && h.Bins <= 0 && s.HistogramBins > 0 {
		h.Bins = s.HistogramBins
		sel = h
	}
	return sel
}

// Session owns the current State. Readers always observe a whole dataset.
type Session struct {
	mu      sync.RWMutex
	state   State
	initial State
	opt     dataset.LoadOptions
	log     *zap.Logger
}

// New creates a session starting from initial.
func New(initial State, opt dataset.LoadOptions, log *zap.Logger) *Session {
	if log == nil {
		log = zap.NewNop()
	}
	initial.Dataset = nil
	return &Session{state: initial, initial: initial, opt: opt, log: log}
}

// Upload parses r and replaces the held dataset. On failure the previous
// state is kept and the error is returned.
func (s *Session) Upload(name string, r io.Reader) (*dataset.Dataset, error) {
	ds, err := dataset.Load(r, name, s.opt)
	if err != nil {
		s.log.Warn("upload rejected", zap.String("file", name), zap.Error(err))
		return nil, err
	}
	s.mu.Lock()
	s.state.Dataset = ds
	// column bindings of the previous dataset no longer apply
	s.state.CategoricalColumn = ""
	if s.state.Chart != nil {
		if sel, err := chart.SelectionFromParams(s.state.Chart.Kind(), func(string) string { return "" }); err == nil {
			s.state.Chart = sel
		}
	}
	s.mu.Unlock()
	s.log.Info("dataset loaded",
		zap.String("dataset_id", ds.ID),
		zap.String("file", ds.Name),
		zap.Int("rows", ds.Rows()),
		zap.Int("cols", ds.Width()))
	return ds, nil
}

// Select applies a widget change. The dataset can only change through Upload.
func (s *Session) Select(fn func(*State)) State {
	s.mu.Lock()
	defer s.mu.Unlock()
	next := s.state
	fn(&next)
	next.Dataset = s.state.Dataset
	s.state = next
	return next
}

// Snapshot returns a copy of the current state.
func (s *Session) Snapshot() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Reset drops the dataset and restores the initial widget values.
func (s *Session) Reset() {
	s.mu.Lock()
	s.state = s.initial
	s.mu.Unlock()
}
