package profile

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/KaramelBytes/tablelens/internal/dataset"
	"github.com/KaramelBytes/tablelens/internal/export"
)

// Report gathers every profile section for one dataset.
type Report struct {
	ID          string        `json:"id"`
	Name        string        `json:"name"`
	Rows        int           `json:"rows"`
	Cols        int           `json:"cols"`
	Types       []ColumnType  `json:"types"`
	Description Description   `json:"describe"`
	Missing     MissingReport `json:"missing"`
	Corr        CorrMatrix    `json:"correlation"`
	Head        []export.Row  `json:"head"`

	head *dataset.Dataset
}

// Report computes all sections with a preview of headRows rows.
func (p *Profiler) Report(headRows int) *Report {
	rows, cols := p.Shape()
	head := p.Head(headRows)
	return &Report{
		ID:          p.ds.ID,
		Name:        p.ds.Name,
		Rows:        rows,
		Cols:        cols,
		Types:       p.Types(),
		Description: p.Describe(),
		Missing:     p.MissingReport(),
		Corr:        p.CorrelationMatrix(),
		Head:        export.Rows(head),
		head:        head,
	}
}

// Markdown renders a compact report for terminals and standalone docs.
func (r *Report) Markdown() string {
	var b strings.Builder
	b.WriteString("[DATASET SUMMARY]\n")
	if r.Name != "" {
		b.WriteString(fmt.Sprintf("File: %s\n", r.Name))
	}
	b.WriteString(fmt.Sprintf("Rows: %d\n", r.Rows))
	b.WriteString(fmt.Sprintf("Columns: %d\n\n", r.Cols))

	b.WriteString("[SCHEMA]\n")
	for _, s := range r.Description {
		total := s.Count + s.Nulls
		missPct := 0.0
		if total > 0 {
			missPct = float64(s.Nulls) * 100.0 / float64(total)
		}
		b.WriteString(fmt.Sprintf("- %s: %s (non-null %d, missing %.1f%%)", safeName(s.Column), s.Kind, s.Count, missPct))
		if s.Mean != nil {
			b.WriteString(fmt.Sprintf(": mean %.4g, std %.4g, min %.4g, 25%% %.4g, 50%% %.4g, 75%% %.4g, max %.4g",
				*s.Mean, *s.Std, *s.Min, *s.Q1, *s.Median, *s.Q3, *s.Max))
		} else if s.Top != nil {
			b.WriteString(fmt.Sprintf(": unique %d, top %s (%d)", *s.Unique, safeVal(*s.Top), *s.Freq))
		}
		b.WriteString("\n")
	}

	b.WriteString("\n[MISSING VALUES]\n")
	if len(r.Missing) == 0 {
		b.WriteString("No missing values.\n")
	}
	for _, e := range r.Missing {
		b.WriteString(fmt.Sprintf("- %s: %d\n", safeName(e.Column), e.Count))
	}

	if len(r.Corr.Columns) >= 2 {
		b.WriteString("\n[CORRELATIONS]\n")
		type pr struct {
			A, B string
			R    float64
		}
		var pairs []pr
		n := len(r.Corr.Columns)
		for i := 0; i < n; i++ {
			for j := i + 1; j < n; j++ {
				if v := r.Corr.Values[i][j]; !math.IsNaN(v) {
					pairs = append(pairs, pr{A: r.Corr.Columns[i], B: r.Corr.Columns[j], R: v})
				}
			}
		}
		sort.Slice(pairs, func(i, j int) bool {
			ai := math.Abs(pairs[i].R)
			aj := math.Abs(pairs[j].R)
			if ai == aj {
				return pairs[i].A+pairs[i].B < pairs[j].A+pairs[j].B
			}
			return ai > aj
		})
		maxp := 10
		if len(pairs) < maxp {
			maxp = len(pairs)
		}
		for i := 0; i < maxp; i++ {
			b.WriteString(fmt.Sprintf("- %s ~ %s: r=%.3f\n", pairs[i].A, pairs[i].B, pairs[i].R))
		}
	}

	if r.head != nil && r.head.Rows() > 0 {
		cols := r.head.Columns()
		b.WriteString("\n[HEAD]\n| ")
		for i, c := range cols {
			if i > 0 {
				b.WriteString(" | ")
			}
			b.WriteString(safeName(c.Name))
		}
		b.WriteString(" |\n| ")
		for i := range cols {
			if i > 0 {
				b.WriteString(" | ")
			}
			b.WriteString("---")
		}
		b.WriteString(" |\n")
		for row := 0; row < r.head.Rows(); row++ {
			b.WriteString("| ")
			for i, c := range cols {
				if i > 0 {
					b.WriteString(" | ")
				}
				val, _ := c.Key(row)
				if len(val) > 80 {
					val = val[:77] + "..."
				}
				b.WriteString(safeVal(val))
			}
			b.WriteString(" |\n")
		}
	}
	return b.String()
}

func safeName(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return "(unnamed)"
	}
	return s
}

func safeVal(s string) string { return strings.ReplaceAll(strings.ReplaceAll(s, "\n", " "), "|", "/") }
