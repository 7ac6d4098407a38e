package dataset

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"path"
	"strconv"
	"strings"
)

type xlsxParser struct{}

func (xlsxParser) CanParse(filename string) bool {
	return strings.HasSuffix(strings.ToLower(filename), ".xlsx")
}

// Parse reads the selected worksheet. Cells are returned as their stored text;
// shared and inline strings are resolved and booleans become TRUE/FALSE.
func (xlsxParser) Parse(filename string, data []byte, opt LoadOptions) ([]string, [][]string, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, nil, &ParseError{Filename: filename, Err: fmt.Errorf("not a spreadsheet archive: %w", err)}
	}
	workbookXML, err := readZipFile(zr, "xl/workbook.xml")
	if err != nil {
		return nil, nil, &ParseError{Filename: filename, Err: err}
	}
	relsXML, _ := readZipFile(zr, "xl/_rels/workbook.xml.rels")
	sharedXML, _ := readZipFile(zr, "xl/sharedStrings.xml")
	stylesXML, _ := readZipFile(zr, "xl/styles.xml")

	sheets, date1904, err := parseWorkbook(workbookXML)
	if err != nil {
		return nil, nil, &ParseError{Filename: filename, Err: fmt.Errorf("workbook: %w", err)}
	}
	rels, err := parseRelationships(relsXML)
	if err != nil {
		return nil, nil, &ParseError{Filename: filename, Err: fmt.Errorf("workbook relationships: %w", err)}
	}
	shared, err := parseSharedStrings(sharedXML)
	if err != nil {
		return nil, nil, &ParseError{Filename: filename, Err: fmt.Errorf("shared strings: %w", err)}
	}
	dateStyles, err := parseDateStyles(stylesXML)
	if err != nil {
		return nil, nil, &ParseError{Filename: filename, Err: fmt.Errorf("styles: %w", err)}
	}

	target, err := resolveSheet(sheets, rels, opt)
	if err != nil {
		return nil, nil, &ParseError{Filename: filename, Err: err}
	}
	sheetXML, err := readZipFile(zr, target)
	if err != nil {
		return nil, nil, &ParseError{Filename: filename, Err: err}
	}

	rr := newSheetRowReader(sheetXML, shared)
	rr.dateStyles = dateStyles
	rr.date1904 = date1904
	header, _, err := rr.Next()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil, &ParseError{Filename: filename, Err: errNoColumns}
		}
		return nil, nil, &ParseError{Filename: filename, Err: err}
	}
	headerRow := rr.rowNum
	var rows [][]string
	width := len(header)
	prev := headerRow
	for {
		row, num, err := rr.Next()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, nil, &ParseError{Filename: filename, Line: prev + 1, Err: err}
		}
		// blank rows between stored rows are kept as all-null records
		for gap := prev + 1; gap < num; gap++ {
			rows = append(rows, nil)
		}
		prev = num
		if len(row) > width {
			width = len(row)
		}
		rows = append(rows, row)
	}
	if width > len(header) {
		tmp := make([]string, width)
		copy(tmp, header)
		header = tmp
	}
	for i, row := range rows {
		if len(row) < width {
			tmp := make([]string, width)
			copy(tmp, row)
			rows[i] = tmp
		}
	}
	return header, rows, nil
}

type wbSheet struct {
	Name    string
	SheetID int
	RID     string
}

// resolveSheet picks the worksheet path by name, then 1-based position, then the first sheet.
func resolveSheet(sheets []wbSheet, rels map[string]string, opt LoadOptions) (string, error) {
	if len(sheets) == 0 {
		return "", errors.New("workbook has no sheets")
	}
	if opt.SheetName != "" {
		for _, s := range sheets {
			if strings.EqualFold(s.Name, opt.SheetName) {
				return sheetTarget(s, rels), nil
			}
		}
		names := make([]string, len(sheets))
		for i, s := range sheets {
			names[i] = s.Name
		}
		return "", fmt.Errorf("sheet %q not found; available sheets: %s", opt.SheetName, strings.Join(names, ", "))
	}
	idx := opt.SheetIndex
	if idx <= 0 {
		idx = 1
	}
	if idx > len(sheets) {
		return "", fmt.Errorf("sheet index %d out of range; workbook has %d sheets", idx, len(sheets))
	}
	return sheetTarget(sheets[idx-1], rels), nil
}

func sheetTarget(s wbSheet, rels map[string]string) string {
	if rel, ok := rels[s.RID]; ok {
		return normalizeRelPath(rel)
	}
	return fmt.Sprintf("xl/worksheets/sheet%d.xml", s.SheetID)
}

// parseWorkbook lists the sheets and reports whether serial dates count from 1904.
func parseWorkbook(data []byte) ([]wbSheet, bool, error) {
	dec := xml.NewDecoder(bytes.NewReader(data))
	var sheets []wbSheet
	date1904 := false
	for {
		tok, err := dec.Token()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return sheets, date1904, nil
			}
			return nil, false, err
		}
		se, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}
		if se.Name.Local == "workbookPr" {
			for _, a := range se.Attr {
				if a.Name.Local == "date1904" {
					date1904 = a.Value == "1" || strings.EqualFold(a.Value, "true")
				}
			}
			continue
		}
		if se.Name.Local != "sheet" {
			continue
		}
		var s wbSheet
		for _, a := range se.Attr {
			switch a.Name.Local {
			case "name":
				s.Name = a.Value
			case "sheetId":
				s.SheetID, _ = strconv.Atoi(a.Value)
			case "id":
				s.RID = a.Value
			}
		}
		sheets = append(sheets, s)
	}
}

// parseRelationships maps relationship ids to targets.
func parseRelationships(data []byte) (map[string]string, error) {
	out := map[string]string{}
	if len(data) == 0 {
		return out, nil
	}
	dec := xml.NewDecoder(bytes.NewReader(data))
	for {
		tok, err := dec.Token()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return out, nil
			}
			return nil, err
		}
		se, ok := tok.(xml.StartElement)
		if !ok || se.Name.Local != "Relationship" {
			continue
		}
		var id, target string
		for _, a := range se.Attr {
			switch a.Name.Local {
			case "Id":
				id = a.Value
			case "Target":
				target = a.Value
			}
		}
		if id != "" && target != "" {
			out[id] = target
		}
	}
}

func readZipFile(zr *zip.Reader, name string) ([]byte, error) {
	for _, f := range zr.File {
		if f.Name != name {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("open %s: %w", name, err)
		}
		defer rc.Close()
		b, err := io.ReadAll(rc)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", name, err)
		}
		return b, nil
	}
	return nil, fmt.Errorf("archive entry %s missing", name)
}

func parseSharedStrings(data []byte) ([]string, error) {
	if len(data) == 0 {
		return nil, nil
	}
	dec := xml.NewDecoder(bytes.NewReader(data))
	var out []string
	var buf strings.Builder
	var inT bool
	for {
		tok, err := dec.Token()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return out, nil
			}
			return nil, err
		}
		switch se := tok.(type) {
		case xml.StartElement:
			switch se.Name.Local {
			case "si":
				buf.Reset()
			case "t":
				inT = true
			case "rPh":
				// phonetic runs are not part of the cell text
				if err := dec.Skip(); err != nil {
					return nil, err
				}
			}
		case xml.EndElement:
			switch se.Name.Local {
			case "t":
				inT = false
			case "si":
				out = append(out, buf.String())
				buf.Reset()
			}
		case xml.CharData:
			if inT {
				buf.Write(se)
			}
		}
	}
}

// Worksheet bounds of the Office Open XML format.
const (
	MaxSheetRows    = 1048576
	MaxSheetColumns = 16384
)

// sheetRowReader streams <row> elements from a worksheet.
type sheetRowReader struct {
	dec    *xml.Decoder
	shared []string
	rowNum int

	// dateStyles[i] reports whether cell style i carries a date format.
	dateStyles []bool
	date1904   bool
}

func newSheetRowReader(data []byte, shared []string) *sheetRowReader {
	return &sheetRowReader{dec: xml.NewDecoder(bytes.NewReader(data)), shared: shared}
}

// Next returns the next row and its 1-based row number. io.EOF ends the sheet.
func (r *sheetRowReader) Next() ([]string, int, error) {
	var cur []string
	inRow := false
	for {
		tok, err := r.dec.Token()
		if err != nil {
			if errors.Is(err, io.EOF) && inRow {
				return nil, 0, io.ErrUnexpectedEOF
			}
			return nil, 0, err
		}
		switch se := tok.(type) {
		case xml.StartElement:
			switch {
			case se.Name.Local == "row":
				inRow = true
				cur = nil
				num := r.rowNum + 1
				for _, a := range se.Attr {
					if a.Name.Local == "r" {
						if n, err := strconv.Atoi(a.Value); err == nil && n > r.rowNum {
							num = n
						}
					}
				}
				if num > MaxSheetRows {
					return nil, 0, fmt.Errorf("row %d exceeds the worksheet limit of %d rows", num, MaxSheetRows)
				}
				r.rowNum = num
			case inRow && se.Name.Local == "c":
				var ref, typ string
				style := -1
				for _, a := range se.Attr {
					switch a.Name.Local {
					case "r":
						ref = a.Value
					case "t":
						typ = a.Value
					case "s":
						if n, err := strconv.Atoi(a.Value); err == nil {
							style = n
						}
					}
				}
				col := len(cur)
				if ref != "" {
					col = colIndexFromRef(ref)
				}
				if col >= MaxSheetColumns {
					return nil, 0, fmt.Errorf("cell %q in row %d exceeds the worksheet limit of %d columns", ref, r.rowNum, MaxSheetColumns)
				}
				val, err := r.readCellValue(typ)
				if err != nil {
					return nil, 0, err
				}
				if (typ == "" || typ == "n") && r.isDateStyle(style) {
					val = serialToDate(val, r.date1904)
				}
				if col < 0 {
					continue
				}
				if len(cur) <= col {
					tmp := make([]string, col+1)
					copy(tmp, cur)
					cur = tmp
				}
				cur[col] = val
			}
		case xml.EndElement:
			if se.Name.Local == "row" && inRow {
				return cur, r.rowNum, nil
			}
		}
	}
}

func (r *sheetRowReader) readCellValue(typ string) (string, error) {
	var val string
	for {
		tok, err := r.dec.Token()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return "", io.ErrUnexpectedEOF
			}
			return "", err
		}
		switch se := tok.(type) {
		case xml.StartElement:
			if se.Name.Local == "v" || se.Name.Local == "t" {
				var sb strings.Builder
				for {
					tk, err := r.dec.Token()
					if err != nil {
						return "", err
					}
					if ed, ok := tk.(xml.EndElement); ok && ed.Name.Local == se.Name.Local {
						break
					}
					if ch, ok := tk.(xml.CharData); ok {
						sb.Write(ch)
					}
				}
				val += sb.String()
			}
		case xml.EndElement:
			if se.Name.Local != "c" {
				continue
			}
			switch typ {
			case "s":
				idx, err := strconv.Atoi(strings.TrimSpace(val))
				if err != nil || idx < 0 || idx >= len(r.shared) {
					return "", fmt.Errorf("shared string index %q out of range", val)
				}
				return r.shared[idx], nil
			case "b":
				if strings.TrimSpace(val) == "1" {
					return "TRUE", nil
				}
				if strings.TrimSpace(val) == "0" {
					return "FALSE", nil
				}
				return val, nil
			default:
				return val, nil
			}
		}
	}
}

// colIndexFromRef turns a cell reference like "C12" into a 0-based column index.
// Indexes past the worksheet limit are reported as MaxSheetColumns.
func colIndexFromRef(ref string) int {
	idx := 0
	for i := 0; i < len(ref); i++ {
		c := ref[i]
		switch {
		case c >= 'A' && c <= 'Z':
			idx = idx*26 + int(c-'A'+1)
		case c >= 'a' && c <= 'z':
			idx = idx*26 + int(c-'a'+1)
		default:
			return idx - 1
		}
		if idx > MaxSheetColumns {
			return MaxSheetColumns
		}
	}
	return idx - 1
}

// normalizeRelPath converts relationship targets to archive entry names.
// Targets may be absolute ("/xl/worksheets/sheet1.xml") or relative to xl/.
func normalizeRelPath(rel string) string {
	rel = strings.TrimPrefix(rel, "/")
	if strings.HasPrefix(rel, "xl/") {
		return rel
	}
	return path.Join("xl", rel)
}
