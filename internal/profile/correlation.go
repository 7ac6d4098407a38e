package profile

import (
	"encoding/json"
	"math"

	"github.com/KaramelBytes/tablelens/internal/dataset"
	"github.com/KaramelBytes/tablelens/internal/utils"
)

// CorrMatrix holds a symmetric Pearson correlation matrix across numeric columns.
// Undefined coefficients are NaN.
type CorrMatrix struct {
	Columns []string
	Values  [][]float64 // row-major, Values[i][j]
}

// Empty reports whether the dataset had no numeric columns.
func (m CorrMatrix) Empty() bool { return len(m.Columns) == 0 }

// At returns the coefficient for a pair of column names.
func (m CorrMatrix) At(a, b string) (float64, bool) {
	i, j := -1, -1
	for k, name := range m.Columns {
		if name == a {
			i = k
		}
		if name == b {
			j = k
		}
	}
	if i < 0 || j < 0 {
		return 0, false
	}
	return m.Values[i][j], true
}

func (m CorrMatrix) MarshalJSON() ([]byte, error) {
	vals := make([][]utils.Float, len(m.Values))
	for i, row := range m.Values {
		vals[i] = utils.Floats(row)
	}
	cols := m.Columns
	if cols == nil {
		cols = []string{}
	}
	return json.Marshal(struct {
		Columns []string        `json:"columns"`
		Values  [][]utils.Float `json:"values"`
	}{cols, vals})
}

func (m *CorrMatrix) UnmarshalJSON(b []byte) error {
	var raw struct {
		Columns []string        `json:"columns"`
		Values  [][]utils.Float `json:"values"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	m.Columns = raw.Columns
	m.Values = make([][]float64, len(raw.Values))
	for i, row := range raw.Values {
		m.Values[i] = make([]float64, len(row))
		for j, v := range row {
			m.Values[i][j] = float64(v)
		}
	}
	return nil
}

// CorrelationMatrix computes pairwise Pearson correlations over numeric columns.
// Each pair uses the rows where both values are present.
func (p *Profiler) CorrelationMatrix() CorrMatrix {
	cols := p.ds.ColumnsOfKind(dataset.KindNumeric)
	n := len(cols)
	m := CorrMatrix{Columns: make([]string, n), Values: make([][]float64, n)}
	vals := make([][]float64, n)
	for i, c := range cols {
		m.Columns[i] = c.Name
		m.Values[i] = make([]float64, n)
		vals[i] = c.Floats()
	}
	for a := 0; a < n; a++ {
		if StdDev(vals[a]) > 0 {
			m.Values[a][a] = 1
		} else {
			m.Values[a][a] = math.NaN()
		}
		for b := 0; b < a; b++ {
			r := Pearson(vals[a], vals[b])
			m.Values[a][b] = r
			m.Values[b][a] = r
		}
	}
	return m
}

// Pearson computes the correlation of x and y over indices where both are finite.
// It is NaN with fewer than two pairs or zero variance on either side.
func Pearson(x, y []float64) float64 {
	n := len(x)
	if len(y) < n {
		n = len(y)
	}
	var xs, ys []float64
	for i := 0; i < n; i++ {
		if finite(x[i]) && finite(y[i]) {
			xs = append(xs, x[i])
			ys = append(ys, y[i])
		}
	}
	if len(xs) < 2 {
		return math.NaN()
	}
	mx, my := Mean(xs), Mean(ys)
	var sxx, syy, sxy float64
	for i := range xs {
		dx, dy := xs[i]-mx, ys[i]-my
		sxx += dx * dx
		syy += dy * dy
		sxy += dx * dy
	}
	if sxx == 0 || syy == 0 {
		return math.NaN()
	}
	r := sxy / math.Sqrt(sxx*syy)
	if r > 1 {
		r = 1
	} else if r < -1 {
		r = -1
	}
	return r
}

func finite(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }
