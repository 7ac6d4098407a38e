package dataset

import (
	"archive/zip"
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loadCSV(t *testing.T, content string) *Dataset {
	t.Helper()
	ds, err := Load(strings.NewReader(content), "data.csv", DefaultLoadOptions())
	require.NoError(t, err)
	return ds
}

func TestLoadCSV_InfersKinds(t *testing.T) {
	ds := loadCSV(t, "region,sales,price,active,day\nA,10,1.5,true,2024-01-01\nB,,2.25,False,2024-01-02\nA,30,3,TRUE,2024-01-03\n")

	rows, cols := ds.Rows(), ds.Width()
	assert.Equal(t, 3, rows)
	assert.Equal(t, 5, cols)
	assert.Equal(t, []string{"region", "sales", "price", "active", "day"}, ds.Names())

	kinds := map[string]Kind{}
	for _, c := range ds.Columns() {
		kinds[c.Name] = c.Kind
	}
	assert.Equal(t, KindText, kinds["region"])
	assert.Equal(t, KindNumeric, kinds["sales"])
	assert.Equal(t, KindNumeric, kinds["price"])
	assert.Equal(t, KindBool, kinds["active"])
	assert.Equal(t, KindDatetime, kinds["day"])

	sales, err := ds.Column("sales")
	require.NoError(t, err)
	assert.True(t, sales.Integer)
	assert.Equal(t, 1, sales.NullCount())
	assert.Equal(t, int64(10), sales.Cell(0))
	assert.Nil(t, sales.Cell(1))

	price, _ := ds.Column("price")
	assert.False(t, price.Integer)
	assert.Equal(t, 2.25, price.Cell(1))

	active, _ := ds.Column("active")
	assert.Equal(t, false, active.Cell(1))

	day, _ := ds.Column("day")
	assert.Equal(t, "2024-01-02", day.Cell(1))
	assert.Equal(t, 2024, day.Values[1].Time.Year())
}

func TestLoadCSV_NullTokensAndAllNull(t *testing.T) {
	ds := loadCSV(t, "a,b\nNA,x\nnull,N/A\n,y\n")
	a, _ := ds.Column("a")
	assert.Equal(t, KindNumeric, a.Kind)
	assert.Equal(t, 3, a.NullCount())
	assert.False(t, a.Integer)
	b, _ := ds.Column("b")
	assert.Equal(t, KindText, b.Kind)
	assert.Equal(t, 1, b.NullCount())
}

func TestLoadCSV_HeaderNames(t *testing.T) {
	ds := loadCSV(t, "\xEF\xBB\xBFa,a,,a.1,a\n1,2,3,4,5\n")
	assert.Equal(t, []string{"a", "a.1", "Unnamed: 2", "a.1.1", "a.2"}, ds.Names())
}

func TestLoadCSV_ShortRowsPadded(t *testing.T) {
	ds := loadCSV(t, "a,b,c\n1,2\n4,5,6\n")
	c, _ := ds.Column("c")
	assert.True(t, c.Values[0].Null)
	assert.Equal(t, 6.0, c.Values[1].Num)
}

func TestLoadCSV_Delimiter(t *testing.T) {
	opt := DefaultLoadOptions()
	opt.Delimiter = ';'
	opt.DecimalSeparator = ','
	opt.ThousandsSeparator = '.'
	ds, err := Load(strings.NewReader("name;amount\nx;1.234,5\ny;2\n"), "eu.csv", opt)
	require.NoError(t, err)
	amount, _ := ds.Column("amount")
	require.Equal(t, KindNumeric, amount.Kind)
	assert.InDelta(t, 1234.5, amount.Values[0].Num, 1e-9)
}

func TestLoadCSV_NumberEdgeCases(t *testing.T) {
	ds := loadCSV(t, "hex,inf,sci\n0x10,inf,1e3\n1,2,2.5E-1\n")
	hex, _ := ds.Column("hex")
	assert.Equal(t, KindText, hex.Kind)
	inf, _ := ds.Column("inf")
	assert.Equal(t, KindText, inf.Kind)
	sci, _ := ds.Column("sci")
	assert.Equal(t, KindNumeric, sci.Kind)
	assert.Equal(t, 1000.0, sci.Values[0].Num)
}

func TestLoad_ParseErrors(t *testing.T) {
	cases := map[string]string{
		"unterminated quote": "a,b\n\"x,1\n",
		"too many fields":    "a,b\n1,2,3\n",
		"binary":             "a,b\n\x00\x01,2\n",
		"invalid utf8":       "a,b\n\xff\xfe,2\n",
		"empty":              "",
	}
	for name, content := range cases {
		t.Run(name, func(t *testing.T) {
			ds, err := Load(strings.NewReader(content), "bad.csv", DefaultLoadOptions())
			assert.Nil(t, ds)
			var pe *ParseError
			require.True(t, errors.As(err, &pe), "got %v", err)
			assert.Equal(t, "bad.csv", pe.Filename)
		})
	}
}

func TestLoad_TooManyFieldsReportsLine(t *testing.T) {
	_, err := Load(strings.NewReader("a,b\n1,2\n1,2,3\n"), "bad.csv", DefaultLoadOptions())
	var pe *ParseError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, 3, pe.Line)
}

func TestLoad_FormatError(t *testing.T) {
	for _, name := range []string{"report.txt", "noext", "data.xls", "archive.csv.zip"} {
		ds, err := Load(strings.NewReader("a,b\n1,2\n"), name, DefaultLoadOptions())
		assert.Nil(t, ds)
		var fe *FormatError
		require.ErrorAs(t, err, &fe, name)
		assert.Equal(t, name, fe.Filename)
	}
}

func TestLoad_ExtensionCaseInsensitive(t *testing.T) {
	ds, err := Load(strings.NewReader("a\n1\n"), "DATA.CSV", DefaultLoadOptions())
	require.NoError(t, err)
	assert.Equal(t, 1, ds.Rows())
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "sales.csv")
	require.NoError(t, os.WriteFile(p, []byte("region,sales\nA,10\nB,\nA,30\n"), 0o644))
	ds, err := LoadFile(p, DefaultLoadOptions())
	require.NoError(t, err)
	assert.Equal(t, "sales.csv", ds.Name)
	assert.NotEmpty(t, ds.ID)

	_, err = LoadFile(filepath.Join(dir, "missing.csv"), DefaultLoadOptions())
	require.Error(t, err)
}

// buildXLSX writes a minimal workbook. Each sheet is a list of rows of raw cell XML.
func buildXLSX(t *testing.T, shared []string, sheets map[string][]string, order []string) []byte {
	t.Helper()
	return buildXLSXWith(t, shared, sheets, order, nil)
}

// buildXLSXWith is buildXLSX plus extra archive entries such as xl/styles.xml.
func buildXLSXWith(t *testing.T, shared []string, sheets map[string][]string, order []string, extra map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	write := func(name, body string) {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write([]byte(body))
		require.NoError(t, err)
	}
	var wb, rels strings.Builder
	wb.WriteString(`<?xml version="1.0" encoding="UTF-8"?><workbook xmlns="http://schemas.openxmlformats.org/spreadsheetml/2006/main" xmlns:r="http://schemas.openxmlformats.org/officeDocument/2006/relationships"><sheets>`)
	rels.WriteString(`<?xml version="1.0" encoding="UTF-8"?><Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">`)
	for i, name := range order {
		fmt.Fprintf(&wb, `<sheet name="%s" sheetId="%d" r:id="rId%d"/>`, name, i+1, i+1)
		fmt.Fprintf(&rels, `<Relationship Id="rId%d" Type="worksheet" Target="worksheets/sheet%d.xml"/>`, i+1, i+1)
		var sb strings.Builder
		sb.WriteString(`<?xml version="1.0" encoding="UTF-8"?><worksheet xmlns="http://schemas.openxmlformats.org/spreadsheetml/2006/main"><sheetData>`)
		for _, row := range sheets[name] {
			sb.WriteString(row)
		}
		sb.WriteString(`</sheetData></worksheet>`)
		write(fmt.Sprintf("xl/worksheets/sheet%d.xml", i+1), sb.String())
	}
	wb.WriteString(`</sheets></workbook>`)
	rels.WriteString(`</Relationships>`)
	write("xl/workbook.xml", wb.String())
	write("xl/_rels/workbook.xml.rels", rels.String())
	if len(shared) > 0 {
		var ss strings.Builder
		ss.WriteString(`<?xml version="1.0" encoding="UTF-8"?><sst xmlns="http://schemas.openxmlformats.org/spreadsheetml/2006/main">`)
		for _, s := range shared {
			fmt.Fprintf(&ss, `<si><t>%s</t></si>`, s)
		}
		ss.WriteString(`</sst>`)
		write("xl/sharedStrings.xml", ss.String())
	}
	for name, body := range extra {
		write(name, body)
	}
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func salesWorkbook(t *testing.T) []byte {
	shared := []string{"region", "sales", "flag", "A", "B"}
	first := []string{
		`<row r="1"><c r="A1" t="s"><v>0</v></c><c r="B1" t="s"><v>1</v></c><c r="C1" t="s"><v>2</v></c></row>`,
		`<row r="2"><c r="A2" t="s"><v>3</v></c><c r="B2"><v>10</v></c><c r="C2" t="b"><v>1</v></c></row>`,
		`<row r="3"><c r="A3" t="s"><v>4</v></c><c r="C3" t="b"><v>0</v></c></row>`,
		`<row r="5"><c r="A5" t="inlineStr"><is><t>A</t></is></c><c r="B5"><v>30</v></c></row>`,
	}
	second := []string{
		`<row r="1"><c r="A1" t="inlineStr"><is><t>other</t></is></c></row>`,
		`<row r="2"><c r="A2"><v>1.5</v></c></row>`,
	}
	return buildXLSX(t, shared, map[string][]string{"Data": first, "Extra": second}, []string{"Data", "Extra"})
}

func TestLoadXLSX_FirstSheet(t *testing.T) {
	ds, err := Load(bytes.NewReader(salesWorkbook(t)), "sales.xlsx", DefaultLoadOptions())
	require.NoError(t, err)
	assert.Equal(t, []string{"region", "sales", "flag"}, ds.Names())
	assert.Equal(t, 4, ds.Rows())

	region, _ := ds.Column("region")
	assert.Equal(t, KindText, region.Kind)
	assert.Equal(t, "B", region.Cell(1))
	assert.True(t, region.Values[2].Null)

	sales, _ := ds.Column("sales")
	assert.Equal(t, KindNumeric, sales.Kind)
	assert.Equal(t, 2, sales.NullCount())

	flag, _ := ds.Column("flag")
	assert.Equal(t, KindBool, flag.Kind)
	assert.Equal(t, true, flag.Cell(0))
	assert.Equal(t, false, flag.Cell(1))
}

func TestLoadXLSX_SheetSelection(t *testing.T) {
	data := salesWorkbook(t)

	opt := DefaultLoadOptions()
	opt.SheetName = "extra"
	ds, err := Load(bytes.NewReader(data), "book.xlsx", opt)
	require.NoError(t, err)
	assert.Equal(t, []string{"other"}, ds.Names())

	opt = DefaultLoadOptions()
	opt.SheetIndex = 2
	ds, err = Load(bytes.NewReader(data), "book.xlsx", opt)
	require.NoError(t, err)
	assert.Equal(t, []string{"other"}, ds.Names())

	opt = DefaultLoadOptions()
	opt.SheetName = "Nope"
	_, err = Load(bytes.NewReader(data), "book.xlsx", opt)
	var pe *ParseError
	require.ErrorAs(t, err, &pe)
	assert.Contains(t, pe.Error(), "Data, Extra")
}

func TestLoadXLSX_NotAnArchive(t *testing.T) {
	_, err := Load(strings.NewReader("region,sales\n"), "fake.xlsx", DefaultLoadOptions())
	var pe *ParseError
	require.ErrorAs(t, err, &pe)
}

func TestColIndexFromRef(t *testing.T) {
	assert.Equal(t, 0, colIndexFromRef("A1"))
	assert.Equal(t, 2, colIndexFromRef("C12"))
	assert.Equal(t, 26, colIndexFromRef("AA3"))
	assert.Equal(t, 27, colIndexFromRef("ab7"))
}

func TestLoadXLSX_RowBeyondSheetLimit(t *testing.T) {
	rows := []string{
		`<row r="1"><c r="A1" t="inlineStr"><is><t>id</t></is></c></row>`,
		`<row r="3000000"><c r="A3000000"><v>1</v></c></row>`,
	}
	data := buildXLSX(t, nil, map[string][]string{"Data": rows}, []string{"Data"})
	_, err := Load(bytes.NewReader(data), "huge.xlsx", DefaultLoadOptions())
	var pe *ParseError
	require.ErrorAs(t, err, &pe)
	assert.Contains(t, pe.Error(), "1048576")
}

func TestLoadXLSX_ColumnBeyondSheetLimit(t *testing.T) {
	rows := []string{
		`<row r="1"><c r="A1" t="inlineStr"><is><t>id</t></is></c><c r="ZZZZ1"><v>1</v></c></row>`,
	}
	data := buildXLSX(t, nil, map[string][]string{"Data": rows}, []string{"Data"})
	_, err := Load(bytes.NewReader(data), "wide.xlsx", DefaultLoadOptions())
	var pe *ParseError
	require.ErrorAs(t, err, &pe)
	assert.Contains(t, pe.Error(), "16384")
}

func TestLoadXLSX_LastColumnAccepted(t *testing.T) {
	rows := []string{
		`<row r="1"><c r="XFD1" t="inlineStr"><is><t>last</t></is></c></row>`,
		`<row r="2"><c r="XFD2"><v>7</v></c></row>`,
	}
	data := buildXLSX(t, nil, map[string][]string{"Data": rows}, []string{"Data"})
	ds, err := Load(bytes.NewReader(data), "edge.xlsx", DefaultLoadOptions())
	require.NoError(t, err)
	assert.Len(t, ds.Names(), MaxSheetColumns)
}

const datedStyles = `<?xml version="1.0" encoding="UTF-8"?><styleSheet xmlns="http://schemas.openxmlformats.org/spreadsheetml/2006/main">` +
	`<numFmts count="1"><numFmt numFmtId="164" formatCode="dd/mm/yyyy\ hh:mm"/></numFmts>` +
	`<cellStyleXfs count="1"><xf numFmtId="14"/></cellStyleXfs>` +
	`<cellXfs count="4"><xf numFmtId="0"/><xf numFmtId="14" applyNumberFormat="1"/><xf numFmtId="164" applyNumberFormat="1"/><xf numFmtId="2"/></cellXfs>` +
	`</styleSheet>`

func TestLoadXLSX_DateStyledCells(t *testing.T) {
	rows := []string{
		`<row r="1"><c r="A1" t="inlineStr"><is><t>day</t></is></c><c r="B1" t="inlineStr"><is><t>stamp</t></is></c><c r="C1" t="inlineStr"><is><t>amount</t></is></c></row>`,
		`<row r="2"><c r="A2" s="1"><v>45292</v></c><c r="B2" s="2"><v>45292.5</v></c><c r="C2" s="3"><v>45292</v></c></row>`,
		`<row r="3"><c r="A3" s="1"><v>45293</v></c><c r="B3" s="2"><v>45293.75</v></c><c r="C3" s="0"><v>12.5</v></c></row>`,
	}
	data := buildXLSXWith(t, nil, map[string][]string{"Data": rows}, []string{"Data"},
		map[string]string{"xl/styles.xml": datedStyles})
	ds, err := Load(bytes.NewReader(data), "dates.xlsx", DefaultLoadOptions())
	require.NoError(t, err)

	day, _ := ds.Column("day")
	assert.Equal(t, KindDatetime, day.Kind)
	assert.Equal(t, "2024-01-01", day.Values[0].Str)
	assert.Equal(t, "2024-01-02", day.Values[1].Str)

	stamp, _ := ds.Column("stamp")
	assert.Equal(t, KindDatetime, stamp.Kind)
	assert.Equal(t, "2024-01-01 12:00:00", stamp.Values[0].Str)
	assert.Equal(t, "2024-01-02 18:00:00", stamp.Values[1].Str)

	amount, _ := ds.Column("amount")
	assert.Equal(t, KindNumeric, amount.Kind)
}

func TestSerialToDate(t *testing.T) {
	assert.Equal(t, "1900-01-01", serialToDate("1", false))
	assert.Equal(t, "1900-02-28", serialToDate("59", false))
	assert.Equal(t, "1900-03-01", serialToDate("61", false))
	assert.Equal(t, "2024-01-01", serialToDate("45292", false))
	assert.Equal(t, "2024-01-01 06:00:00", serialToDate("45292.25", false))
	assert.Equal(t, "1904-01-02", serialToDate("1", true))
	assert.Equal(t, "n/a", serialToDate("n/a", false))
}

func TestIsDateFormat(t *testing.T) {
	assert.True(t, isDateFormat("yyyy-mm-dd"))
	assert.True(t, isDateFormat(`[$-409]d\-mmm\-yy;@`))
	assert.False(t, isDateFormat("0.00"))
	assert.False(t, isDateFormat(`#,##0 "days"`))
	assert.False(t, isDateFormat("[Red]0.0"))
	assert.False(t, isDateFormat("General"))
}

func TestNormalizeRelPath(t *testing.T) {
	assert.Equal(t, "xl/worksheets/sheet1.xml", normalizeRelPath("/xl/worksheets/sheet1.xml"))
	assert.Equal(t, "xl/worksheets/sheet1.xml", normalizeRelPath("worksheets/sheet1.xml"))
}
