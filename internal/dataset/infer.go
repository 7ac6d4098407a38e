package dataset

import (
	"math"
	"strconv"
	"strings"
	"time"
)

var nan = math.NaN()

// LoadOptions controls parsing of uploaded files.
type LoadOptions struct {
	// Delimiter for CSV. Defaults to ','.
	Delimiter rune
	// Numeric parsing locale. Zero values mean plain '.' decimals without grouping.
	DecimalSeparator   rune
	ThousandsSeparator rune
	// SheetName selects an XLSX sheet by name; otherwise SheetIndex (1-based) or the first sheet.
	SheetName  string
	SheetIndex int
}

// DefaultLoadOptions returns options matching a plain comma-separated file.
func DefaultLoadOptions() LoadOptions {
	return LoadOptions{Delimiter: ','}
}

// nullTokens are the cell spellings read as missing.
var nullTokens = map[string]struct{}{
	"": {}, "#N/A": {}, "#N/A N/A": {}, "#NA": {}, "-1.#IND": {}, "-1.#QNAN": {},
	"-NaN": {}, "-nan": {}, "1.#IND": {}, "1.#QNAN": {}, "<NA>": {}, "N/A": {},
	"NA": {}, "NULL": {}, "NaN": {}, "None": {}, "n/a": {}, "nan": {}, "null": {},
}

func isNullToken(s string) bool {
	_, ok := nullTokens[strings.TrimSpace(s)]
	return ok
}

// buildColumn infers the kind of raw cells and converts them.
// Precedence: numeric, bool, datetime, text. An all-null column is numeric.
func buildColumn(name string, raw []string, opt LoadOptions) *Column {
	numeric, boolean, datetime := true, true, true
	integer := true
	for _, s := range raw {
		if isNullToken(s) {
			continue
		}
		if numeric {
			if _, _, isInt, ok := parseNumber(s, opt); !ok {
				numeric = false
			} else if !isInt {
				integer = false
			}
		}
		if boolean {
			if _, ok := parseBool(s); !ok {
				boolean = false
			}
		}
		if datetime {
			if _, ok := parseTime(s); !ok {
				datetime = false
			}
		}
		if !numeric && !boolean && !datetime {
			break
		}
	}

	col := &Column{Name: name, Values: make([]Value, len(raw))}
	switch {
	case numeric:
		col.Kind = KindNumeric
		col.Integer = integer
	case boolean:
		col.Kind = KindBool
	case datetime:
		col.Kind = KindDatetime
	default:
		col.Kind = KindText
	}
	for i, s := range raw {
		if isNullToken(s) {
			col.Values[i] = Value{Null: true, Num: nan}
			continue
		}
		switch col.Kind {
		case KindNumeric:
			f, n, _, _ := parseNumber(s, opt)
			col.Values[i] = Value{Num: f, Int: n}
		case KindBool:
			b, _ := parseBool(s)
			col.Values[i] = Value{Bool: b}
		case KindDatetime:
			t, _ := parseTime(s)
			col.Values[i] = Value{Time: t, Str: s}
		default:
			col.Values[i] = Value{Str: s}
		}
	}
	// A column that is entirely null has no integer evidence.
	if col.Kind == KindNumeric && col.NullCount() == col.Len() {
		col.Integer = false
	}
	return col
}

// parseNumber parses a numeric cell. isInt reports an integer literal whose
// exact value is n; f is always set and may round for |n| > 2^53.
func parseNumber(s string, opt LoadOptions) (f float64, n int64, isInt bool, ok bool) {
	raw := strings.TrimSpace(s)
	if raw == "" || strings.ContainsAny(raw, "xXpP_") {
		return 0, 0, false, false
	}
	dec, thou := opt.DecimalSeparator, opt.ThousandsSeparator
	if thou != 0 && thou != dec {
		raw = strings.ReplaceAll(raw, string(thou), "")
	}
	if dec != 0 && dec != '.' {
		if strings.Contains(raw, ".") && thou != '.' {
			return 0, 0, false, false
		}
		raw = strings.ReplaceAll(raw, string(dec), ".")
	}
	if i, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return float64(i), i, true, true
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsInf(f, 0) || math.IsNaN(f) {
		return 0, 0, false, false
	}
	return f, 0, false, true
}

func parseBool(s string) (bool, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true":
		return true, true
	case "false":
		return false, true
	}
	return false, false
}

var timeLayouts = []string{
	time.RFC3339, "2006-01-02", "2006/01/02", "02/01/2006", "01/02/2006",
	"2006-01-02 15:04", "2006-01-02 15:04:05", "1/2/2006 15:04", "1/2/2006 15:04:05",
}

func parseTime(s string) (time.Time, bool) {
	v := strings.TrimSpace(s)
	for _, l := range timeLayouts {
		if t, err := time.Parse(l, v); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// uniqueNames fills blank headers and de-duplicates repeats as name.1, name.2, ...
func uniqueNames(header []string) []string {
	out := make([]string, len(header))
	seen := make(map[string]int, len(header))
	for i, h := range header {
		name := strings.TrimSpace(h)
		if name == "" {
			name = "Unnamed: " + strconv.Itoa(i)
		}
		if _, dup := seen[name]; dup {
			base := name
			k := seen[base]
			for {
				k++
				name = base + "." + strconv.Itoa(k)
				if _, taken := seen[name]; !taken {
					break
				}
			}
			seen[base] = k
		}
		seen[name] = 0
		out[i] = name
	}
	return out
}
