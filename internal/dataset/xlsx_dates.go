package dataset

import (
	"bytes"
	"encoding/xml"
	"errors"
	"io"
	"math"
	"strconv"
	"strings"
	"time"
)

// Built-in number formats that render a serial as a date or time.
func isBuiltinDateFormat(id int) bool {
	return (id >= 14 && id <= 22) || (id >= 45 && id <= 47)
}

// isDateFormat reports whether a custom format code displays a date or time.
// Quoted literals, escaped characters and bracketed sections such as colors
// or locales are ignored before looking for date tokens.
func isDateFormat(code string) bool {
	var sb strings.Builder
	inQuote, inBracket := false, false
	for i := 0; i < len(code); i++ {
		c := code[i]
		switch {
		case inQuote:
			if c == '"' {
				inQuote = false
			}
		case inBracket:
			if c == ']' {
				inBracket = false
			}
		case c == '"':
			inQuote = true
		case c == '[':
			inBracket = true
		case c == '\\' || c == '_' || c == '*':
			i++
		case c == ';':
			// only the positive section decides
			i = len(code)
		default:
			sb.WriteByte(c)
		}
	}
	s := strings.ToLower(sb.String())
	if strings.EqualFold(strings.TrimSpace(s), "general") {
		return false
	}
	return strings.ContainsAny(s, "ymd")
}

// parseDateStyles reads xl/styles.xml and reports, for each cellXfs entry,
// whether its number format is a date format.
func parseDateStyles(data []byte) ([]bool, error) {
	if len(data) == 0 {
		return nil, nil
	}
	dec := xml.NewDecoder(bytes.NewReader(data))
	custom := map[int]string{}
	var xfFormats []int
	inCellXfs := false
	for {
		tok, err := dec.Token()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, err
		}
		switch se := tok.(type) {
		case xml.StartElement:
			switch se.Name.Local {
			case "numFmt":
				id, code := -1, ""
				for _, a := range se.Attr {
					switch a.Name.Local {
					case "numFmtId":
						if n, err := strconv.Atoi(a.Value); err == nil {
							id = n
						}
					case "formatCode":
						code = a.Value
					}
				}
				if id >= 0 {
					custom[id] = code
				}
			case "cellXfs":
				inCellXfs = true
			case "xf":
				if !inCellXfs {
					continue
				}
				id := 0
				for _, a := range se.Attr {
					if a.Name.Local == "numFmtId" {
						id, _ = strconv.Atoi(a.Value)
					}
				}
				xfFormats = append(xfFormats, id)
			}
		case xml.EndElement:
			if se.Name.Local == "cellXfs" {
				inCellXfs = false
			}
		}
	}
	out := make([]bool, len(xfFormats))
	for i, id := range xfFormats {
		if code, ok := custom[id]; ok {
			out[i] = isDateFormat(code)
			continue
		}
		out[i] = isBuiltinDateFormat(id)
	}
	return out, nil
}

func (r *sheetRowReader) isDateStyle(style int) bool {
	return style >= 0 && style < len(r.dateStyles) && r.dateStyles[style]
}

var (
	excelEpoch1900 = time.Date(1899, time.December, 30, 0, 0, 0, 0, time.UTC)
	excelEpoch1904 = time.Date(1904, time.January, 1, 0, 0, 0, 0, time.UTC)
)

// serialToDate renders a spreadsheet serial date as text the loader infers as
// a datetime. Whole days become "2006-01-02"; a time of day adds "15:04:05".
// Values that are not numbers are returned unchanged.
func serialToDate(val string, date1904 bool) string {
	serial, err := strconv.ParseFloat(strings.TrimSpace(val), 64)
	if err != nil || math.IsNaN(serial) || math.IsInf(serial, 0) || serial < 0 || serial > 2958465 {
		return val
	}
	base := excelEpoch1900
	if date1904 {
		base = excelEpoch1904
	} else if serial < 61 {
		// the 1900 system counts a nonexistent 1900-02-29 as day 60
		base = base.AddDate(0, 0, 1)
	}
	days := math.Floor(serial)
	secs := math.Round((serial - days) * 86400)
	t := base.AddDate(0, 0, int(days)).Add(time.Duration(secs) * time.Second)
	if secs == 0 {
		return t.Format("2006-01-02")
	}
	return t.Format("2006-01-02 15:04:05")
}
