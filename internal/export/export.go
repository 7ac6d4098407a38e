// Package export serializes a dataset as a JSON array of row objects.
package export

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"github.com/KaramelBytes/tablelens/internal/dataset"
	"github.com/KaramelBytes/tablelens/internal/utils"
)

const (
	// FileName is the suggested download name.
	FileName = "data.json"
	// ContentType is the media type of the export.
	ContentType = "application/json"
)

// Row is one record whose keys marshal in column order.
type Row struct {
	names []string
	cells []any
}

// Get returns the cell for a column name.
func (r Row) Get(name string) (any, bool) {
	for i, n := range r.names {
		if n == name {
			return r.cells[i], true
		}
	}
	return nil, false
}

func (r Row) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, name := range r.names {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(name)
		if err != nil {
			return nil, err
		}
		v, err := json.Marshal(r.cells[i])
		if err != nil {
			return nil, fmt.Errorf("column %q: %w", name, err)
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Rows converts every row of ds. Nulls become nil and integral columns int64.
func Rows(ds *dataset.Dataset) []Row {
	cols := ds.Columns()
	names := ds.Names()
	out := make([]Row, ds.Rows())
	for i := range out {
		cells := make([]any, len(cols))
		for j, c := range cols {
			cells[j] = c.Cell(i)
		}
		out[i] = Row{names: names, cells: cells}
	}
	return out
}

// JSON renders ds as a pretty-printed array of row objects with 2-space indent.
func JSON(ds *dataset.Dataset) ([]byte, error) {
	b, err := utils.PrettyJSON(Rows(ds))
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", ds.Name, err)
	}
	return b, nil
}

// WriteJSON streams the export to w.
func WriteJSON(w io.Writer, ds *dataset.Dataset) error {
	b, err := JSON(ds)
	if err != nil {
		return err
	}
	if _, err := w.Write(b); err != nil {
		return fmt.Errorf("write export: %w", err)
	}
	return nil
}

// WriteFile writes the export to path atomically.
func WriteFile(path string, ds *dataset.Dataset) error {
	b, err := JSON(ds)
	if err != nil {
		return err
	}
	if err := utils.SafeWriteFile(path, b); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
