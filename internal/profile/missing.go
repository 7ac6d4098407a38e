package profile

// MissingEntry is the null count of one column.
type MissingEntry struct {
	Column string `json:"column"`
	Count  int    `json:"count"`
}

// MissingReport lists columns with at least one null, in dataset order.
// An empty report means the dataset has no missing values.
type MissingReport []MissingEntry

// Count returns the null count for a column, 0 when it is absent from the report.
func (m MissingReport) Count(column string) int {
	for _, e := range m {
		if e.Column == column {
			return e.Count
		}
	}
	return 0
}

// Total sums the null counts.
func (m MissingReport) Total() int {
	n := 0
	for _, e := range m {
		n += e.Count
	}
	return n
}

// MissingReport counts nulls per column, keeping only non-zero counts.
func (p *Profiler) MissingReport() MissingReport {
	out := MissingReport{}
	for _, c := range p.ds.Columns() {
		if n := c.NullCount(); n > 0 {
			out = append(out, MissingEntry{Column: c.Name, Count: n})
		}
	}
	return out
}

// MissingMask is the null indicator of every cell. Cells is indexed [row][column].
type MissingMask struct {
	Columns []string `json:"columns"`
	Cells   [][]bool `json:"cells"`
}

// Rows returns the number of rows in the mask.
func (m MissingMask) Rows() int { return len(m.Cells) }

// MissingMask marks every null cell of the dataset.
func (p *Profiler) MissingMask() MissingMask {
	cols := p.ds.Columns()
	mask := MissingMask{Columns: p.ds.Names(), Cells: make([][]bool, p.ds.Rows())}
	for i := range mask.Cells {
		row := make([]bool, len(cols))
		for j, c := range cols {
			row[j] = c.Values[i].Null
		}
		mask.Cells[i] = row
	}
	return mask
}
