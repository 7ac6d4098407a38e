package dataset

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

type csvParser struct{}

func (csvParser) CanParse(filename string) bool {
	return strings.HasSuffix(strings.ToLower(filename), ".csv")
}

func (csvParser) Parse(filename string, data []byte, opt LoadOptions) ([]string, [][]string, error) {
	data = bytes.TrimPrefix(data, utf8BOM)
	if err := checkText(data); err != nil {
		return nil, nil, &ParseError{Filename: filename, Err: err}
	}
	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = -1
	r.Comma = opt.Delimiter

	header, err := r.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil, &ParseError{Filename: filename, Err: errNoColumns}
		}
		return nil, nil, csvError(filename, err)
	}
	header = append([]string(nil), header...)
	ncol := len(header)

	var rows [][]string
	for {
		rec, err := r.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, nil, csvError(filename, err)
		}
		if len(rec) > ncol {
			line, _ := r.FieldPos(0)
			return nil, nil, &ParseError{
				Filename: filename,
				Line:     line,
				Err:      fmt.Errorf("expected %d fields, saw %d", ncol, len(rec)),
			}
		}
		if len(rec) < ncol {
			tmp := make([]string, ncol)
			copy(tmp, rec)
			rec = tmp
		}
		rows = append(rows, rec)
	}
	return header, rows, nil
}

func csvError(filename string, err error) error {
	var pe *csv.ParseError
	if errors.As(err, &pe) {
		return &ParseError{Filename: filename, Line: pe.Line, Err: pe.Err}
	}
	return &ParseError{Filename: filename, Err: err}
}
