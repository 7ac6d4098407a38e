package profile

import (
	"sort"

	"github.com/KaramelBytes/tablelens/internal/dataset"
)

// DefaultTopN is the number of entries TopValues returns when n <= 0.
const DefaultTopN = 10

// ValueCount is one distinct value and its frequency.
type ValueCount struct {
	Value string `json:"value"`
	Count int    `json:"count"`
}

// ValueCounts is ordered by descending count, ties by first occurrence.
type ValueCounts []ValueCount

// Total sums the counts.
func (v ValueCounts) Total() int {
	n := 0
	for _, e := range v {
		n += e.Count
	}
	return n
}

// CountValues counts the non-null values of c, most frequent first.
func CountValues(c *dataset.Column) ValueCounts {
	index := map[string]int{}
	var out ValueCounts
	for i := range c.Values {
		key, ok := c.Key(i)
		if !ok {
			continue
		}
		if j, seen := index[key]; seen {
			out[j].Count++
			continue
		}
		index[key] = len(out)
		out = append(out, ValueCount{Value: key, Count: 1})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Count > out[j].Count })
	return out
}

// TopValues returns up to n most frequent values of a text column.
// An empty column name selects the first text column.
func TopValues(ds *dataset.Dataset, column string, n int) (ValueCounts, error) {
	if n <= 0 {
		n = DefaultTopN
	}
	c, err := ds.Require("value counts", column, dataset.KindText)
	if err != nil {
		return nil, err
	}
	counts := CountValues(c)
	if len(counts) > n {
		counts = counts[:n]
	}
	return counts, nil
}

// CategoricalColumns lists the text columns eligible for value counts.
func CategoricalColumns(ds *dataset.Dataset) []string {
	var out []string
	for _, c := range ds.ColumnsOfKind(dataset.KindText) {
		out = append(out, c.Name)
	}
	return out
}
