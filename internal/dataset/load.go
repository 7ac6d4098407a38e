package dataset

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"
)

// tableParser turns raw file bytes into a header and string rows.
type tableParser interface {
	CanParse(filename string) bool
	Parse(filename string, data []byte, opt LoadOptions) (header []string, rows [][]string, err error)
}

var registry []tableParser

// register adds a parser implementation to the registry.
func register(p tableParser) {
	registry = append(registry, p)
}

func init() {
	register(csvParser{})
	register(xlsxParser{})
}

// SupportedExtensions lists the accepted upload extensions.
func SupportedExtensions() []string { return []string{".csv", ".xlsx"} }

// Load parses an uploaded byte stream into a Dataset. The filename extension
// selects the parser. No partial Dataset is returned on failure.
func Load(r io.Reader, filename string, opt LoadOptions) (*Dataset, error) {
	p := parserFor(filename)
	if p == nil {
		return nil, &FormatError{Filename: filename, Ext: strings.ToLower(filepath.Ext(filename))}
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	if opt.Delimiter == 0 {
		opt.Delimiter = ','
	}
	header, rows, err := p.Parse(filepath.Base(filename), data, opt)
	if err != nil {
		return nil, err
	}
	names := uniqueNames(header)
	cols := make([]*Column, len(names))
	raw := make([]string, len(rows))
	for j, name := range names {
		for i, row := range rows {
			if j < len(row) {
				raw[i] = row[j]
			} else {
				raw[i] = ""
			}
		}
		cols[j] = buildColumn(name, raw, opt)
	}
	ds, err := New(filepath.Base(filename), cols)
	if err != nil {
		return nil, &ParseError{Filename: filepath.Base(filename), Err: err}
	}
	return ds, nil
}

// LoadFile opens path and loads it with Load.
func LoadFile(path string, opt LoadOptions) (*Dataset, error) {
	if parserFor(path) == nil {
		return nil, &FormatError{Filename: filepath.Base(path), Ext: strings.ToLower(filepath.Ext(path))}
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return Load(f, path, opt)
}

func parserFor(filename string) tableParser {
	for _, p := range registry {
		if p.CanParse(filename) {
			return p
		}
	}
	return nil
}

var errNoColumns = errors.New("no columns to parse from file")

// checkText rejects content that cannot be delimited text.
func checkText(data []byte) error {
	for _, b := range data {
		if b == 0 {
			return errors.New("content is binary, not delimited text")
		}
	}
	if !utf8.Valid(data) {
		return errors.New("content is not valid UTF-8 text")
	}
	return nil
}
