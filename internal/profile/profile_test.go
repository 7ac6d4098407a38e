package profile

import (
	"encoding/json"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KaramelBytes/tablelens/internal/dataset"
)

func load(t *testing.T, content string) *dataset.Dataset {
	t.Helper()
	ds, err := dataset.Load(strings.NewReader(content), "data.csv", dataset.DefaultLoadOptions())
	require.NoError(t, err)
	return ds
}

const salesCSV = "region,sales\nA,10\nB,\nA,30\n"

func TestSalesExample(t *testing.T) {
	p := New(load(t, salesCSV))

	rows, cols := p.Shape()
	assert.Equal(t, 3, rows)
	assert.Equal(t, 2, cols)

	m := p.MissingReport()
	assert.Equal(t, MissingReport{{Column: "sales", Count: 1}}, m)
	assert.Equal(t, 1, m.Count("sales"))
	assert.Equal(t, 0, m.Count("region"))
	assert.Equal(t, 1, m.Total())

	d := p.Describe()
	sales, ok := d.Get("sales")
	require.True(t, ok)
	assert.Equal(t, 2, sales.Count)
	assert.Equal(t, 1, sales.Nulls)
	assert.InDelta(t, 20.0, float64(*sales.Mean), 1e-12)
	assert.InDelta(t, math.Sqrt(200), float64(*sales.Std), 1e-12)
	assert.Equal(t, 10.0, float64(*sales.Min))
	assert.Equal(t, 15.0, float64(*sales.Q1))
	assert.Equal(t, 20.0, float64(*sales.Median))
	assert.Equal(t, 25.0, float64(*sales.Q3))
	assert.Equal(t, 30.0, float64(*sales.Max))
	assert.Nil(t, sales.Top)

	region, _ := d.Get("region")
	require.NotNil(t, region.Top)
	assert.Equal(t, "A", *region.Top)
	assert.Equal(t, 2, *region.Freq)
	assert.Equal(t, 2, *region.Unique)
	assert.Nil(t, region.Mean)
}

func TestTypes(t *testing.T) {
	p := New(load(t, "a,b,c,d\n1,x,true,2024-01-01\n2,y,false,2024-01-02\n"))
	types := p.Types()
	require.Len(t, types, 4)
	assert.Equal(t, ColumnType{Name: "a", Kind: dataset.KindNumeric, Integer: true}, types[0])
	assert.Equal(t, dataset.KindText, types[1].Kind)
	assert.Equal(t, dataset.KindBool, types[2].Kind)
	assert.Equal(t, dataset.KindDatetime, types[3].Kind)
}

func TestDescribe_SingleValueStdIsNaN(t *testing.T) {
	p := New(load(t, "x\n5\n"))
	s, _ := p.Describe().Get("x")
	assert.True(t, math.IsNaN(float64(*s.Std)))
	b, err := json.Marshal(s)
	require.NoError(t, err)
	assert.Contains(t, string(b), `"std":null`)
	assert.Contains(t, string(b), `"50%":5`)
}

func TestDescribe_TopTiesByFirstOccurrence(t *testing.T) {
	p := New(load(t, "c\nb\na\na\nb\n"))
	s, _ := p.Describe().Get("c")
	assert.Equal(t, "b", *s.Top)
	assert.Equal(t, 2, *s.Freq)
}

func TestMissingReport_Empty(t *testing.T) {
	p := New(load(t, "a\n1\n2\n"))
	m := p.MissingReport()
	assert.Empty(t, m)
	b, err := json.Marshal(m)
	require.NoError(t, err)
	assert.Equal(t, "[]", string(b))
}

func TestMissingMask(t *testing.T) {
	p := New(load(t, "a,b\n1,\n,x\n"))
	mask := p.MissingMask()
	assert.Equal(t, []string{"a", "b"}, mask.Columns)
	assert.Equal(t, 2, mask.Rows())
	assert.Equal(t, [][]bool{{false, true}, {true, false}}, mask.Cells)
}

func TestCorrelationMatrix(t *testing.T) {
	p := New(load(t, "x,y,z,k,label\n1,2,5,7,a\n2,4,3,7,b\n3,6,,7,c\n4,8,1,7,d\n"))
	m := p.CorrelationMatrix()
	assert.Equal(t, []string{"x", "y", "z", "k"}, m.Columns)

	r, ok := m.At("x", "y")
	require.True(t, ok)
	assert.InDelta(t, 1.0, r, 1e-12)

	r, _ = m.At("x", "z")
	assert.InDelta(t, -0.98198050606, r, 1e-9)

	r, _ = m.At("x", "k")
	assert.True(t, math.IsNaN(r))
	r, _ = m.At("k", "k")
	assert.True(t, math.IsNaN(r))
	r, _ = m.At("z", "z")
	assert.Equal(t, 1.0, r)

	_, ok = m.At("x", "label")
	assert.False(t, ok)

	b, err := json.Marshal(m)
	require.NoError(t, err)
	var back CorrMatrix
	require.NoError(t, json.Unmarshal(b, &back))
	assert.Equal(t, m.Columns, back.Columns)
	assert.True(t, math.IsNaN(back.Values[0][3]))
}

func TestCorrelationMatrix_NoNumeric(t *testing.T) {
	m := New(load(t, "a\nx\n")).CorrelationMatrix()
	assert.True(t, m.Empty())
	b, err := json.Marshal(m)
	require.NoError(t, err)
	assert.JSONEq(t, `{"columns":[],"values":[]}`, string(b))
}

func TestStats(t *testing.T) {
	nan := math.NaN()
	assert.Equal(t, 6.0, Sum([]float64{1, nan, 5}))
	assert.Equal(t, 0.0, Sum(nil))
	assert.True(t, math.IsNaN(Mean([]float64{nan})))
	assert.Equal(t, 2.5, Median([]float64{4, 1, nan, 2, 3}))
	assert.True(t, math.IsNaN(Quantile(nil, 0.5)))
	assert.Equal(t, []float64{1, 2}, Sorted([]float64{2, math.Inf(1), 1}))
}

func TestReportMarkdown(t *testing.T) {
	p := New(load(t, "region,sales,units\nA,10,1\nB,,2\nA,30,3\n"))
	rep := p.Report(2)
	assert.Equal(t, 3, rep.Rows)
	assert.Len(t, rep.Head, 2)

	md := rep.Markdown()
	assert.Contains(t, md, "[DATASET SUMMARY]")
	assert.Contains(t, md, "File: data.csv")
	assert.Contains(t, md, "Rows: 3")
	assert.Contains(t, md, "- sales: numeric (non-null 2, missing 33.3%)")
	assert.Contains(t, md, "- region: text (non-null 3, missing 0.0%): unique 2, top A (2)")
	assert.Contains(t, md, "[MISSING VALUES]\n- sales: 1\n")
	assert.Contains(t, md, "- sales ~ units: r=1.000")
	assert.Contains(t, md, "| region | sales | units |")
	assert.Contains(t, md, "| B |  | 2 |")

	b, err := json.Marshal(rep)
	require.NoError(t, err)
	assert.Contains(t, string(b), `"head":[{"region":"A","sales":10,"units":1}`)
}

func TestReportMarkdown_NoMissing(t *testing.T) {
	md := New(load(t, "a\n1\n")).Report(5).Markdown()
	assert.Contains(t, md, "No missing values.")
	assert.NotContains(t, md, "[CORRELATIONS]")
}
