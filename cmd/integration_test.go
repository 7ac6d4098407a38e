package cmd

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KaramelBytes/tablelens/internal/dataset"
)

const salesCSV = "region,units,price\nNorth,10,2.5\nSouth,,3.0\nNorth,30,4.0\nEast,20,1.5\n"

// resetFlags restores every flag to its default so state does not leak
// between invocations of the shared root command.
func resetFlags(c *cobra.Command) {
	reset := func(fl *pflag.Flag) {
		_ = fl.Value.Set(fl.DefValue)
		fl.Changed = false
	}
	c.Flags().VisitAll(reset)
	c.PersistentFlags().VisitAll(reset)
	for _, sub := range c.Commands() {
		resetFlags(sub)
	}
}

// runCmd executes the root command with args and returns its output.
func runCmd(t *testing.T, args ...string) (string, error) {
	t.Helper()
	resetFlags(rootCmd)
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func mustRun(t *testing.T, args ...string) string {
	t.Helper()
	out, err := runCmd(t, args...)
	require.NoError(t, err, "command %v failed: %s", args, out)
	return out
}

// isolate points HOME at a temp dir and writes a sales file there.
func isolate(t *testing.T) (home, file string) {
	t.Helper()
	home = t.TempDir()
	t.Setenv("HOME", home)
	file = filepath.Join(home, "sales.csv")
	require.NoError(t, os.WriteFile(file, []byte(salesCSV), 0o644))
	return home, file
}

func TestCLI_ProfileMarkdown(t *testing.T) {
	_, file := isolate(t)
	out := mustRun(t, "profile", file)
	assert.Contains(t, out, "[DATASET SUMMARY]")
	assert.Contains(t, out, "Rows: 4")
	assert.Contains(t, out, "[MISSING VALUES]")
}

func TestCLI_ProfileJSONToFile(t *testing.T) {
	home, file := isolate(t)
	outPath := filepath.Join(home, "out", "profile.json")
	out := mustRun(t, "profile", file, "--json", "--head", "2", "-o", outPath)
	assert.Contains(t, out, "✓ Wrote profile to")

	b, err := os.ReadFile(outPath)
	require.NoError(t, err)
	var rep struct {
		Rows int              `json:"rows"`
		Cols int              `json:"cols"`
		Head []map[string]any `json:"head"`
	}
	require.NoError(t, json.Unmarshal(b, &rep))
	assert.Equal(t, 4, rep.Rows)
	assert.Equal(t, 3, rep.Cols)
	assert.Len(t, rep.Head, 2)
}

func TestCLI_Categories(t *testing.T) {
	_, file := isolate(t)
	out := mustRun(t, "categories", file, "--column", "region")
	assert.Contains(t, out, "Column: region")
	assert.Contains(t, out, "North  2")

	_, err := runCmd(t, "categories", file, "--column", "units")
	var tm *dataset.TypeMismatchError
	assert.True(t, errors.As(err, &tm))
}

func TestCLI_ChartJSON(t *testing.T) {
	_, file := isolate(t)
	out := mustRun(t, "chart", file, "--kind", "bar", "--category", "region", "--value", "units", "--agg", "sum")
	var spec map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &spec))
	assert.Equal(t, "bar", spec["kind"])
	assert.Equal(t, "Sum by region", spec["title"])

	_, err := runCmd(t, "chart", file, "--kind", "radar")
	assert.Error(t, err)
}

func TestCLI_ChartPNG(t *testing.T) {
	home, file := isolate(t)
	png := filepath.Join(home, "hist.png")
	out := mustRun(t, "chart", file, "--kind", "histogram", "--column", "price", "--png", png, "--width", "320", "--height", "240")
	assert.Contains(t, out, "✓ Wrote Histogram")
	b, err := os.ReadFile(png)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(b, []byte("\x89PNG")))
}

func TestCLI_Heatmap(t *testing.T) {
	_, file := isolate(t)
	out := mustRun(t, "heatmap", file)
	assert.Contains(t, out, `"Correlation Matrix"`)

	out = mustRun(t, "heatmap", file, "--missing")
	assert.Contains(t, out, `"units"`)
}

func TestCLI_Export(t *testing.T) {
	home, file := isolate(t)
	outPath := filepath.Join(home, "data.json")
	out := mustRun(t, "export", file, "-o", outPath)
	assert.Contains(t, out, "✓ Exported 4 rows")

	b, err := os.ReadFile(outPath)
	require.NoError(t, err)
	var rows []map[string]any
	require.NoError(t, json.Unmarshal(b, &rows))
	require.Len(t, rows, 4)
	assert.Nil(t, rows[1]["units"])

	out = mustRun(t, "export", file, "-o", "-")
	assert.Contains(t, out, `"region": "North"`)
}

func TestCLI_UnsupportedFormat(t *testing.T) {
	home, _ := isolate(t)
	txt := filepath.Join(home, "report.txt")
	require.NoError(t, os.WriteFile(txt, []byte("hello"), 0o644))
	_, err := runCmd(t, "profile", txt)
	var fe *dataset.FormatError
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, ".txt", fe.Ext)
}

func TestCLI_LocaleFlags(t *testing.T) {
	home, _ := isolate(t)
	file := filepath.Join(home, "eu.csv")
	require.NoError(t, os.WriteFile(file, []byte("name;amount\na;1.234,5\nb;2,5\n"), 0o644))
	out := mustRun(t, "export", file, "-o", "-", "--delimiter", ";", "--decimal", "comma", "--thousands", ".")
	assert.Contains(t, out, `"amount": 1234.5`)

	_, err := runCmd(t, "profile", file, "--delimiter", "x")
	assert.Error(t, err)
}

func TestCLI_ConfigSetShow(t *testing.T) {
	home, _ := isolate(t)
	out := mustRun(t, "config", "set", "top_n", "3")
	assert.Contains(t, out, "✓ Saved top_n")
	_, err := os.Stat(filepath.Join(home, ".tablelens", "config.yaml"))
	require.NoError(t, err)

	out = mustRun(t, "config", "show")
	assert.Contains(t, out, "top_n: 3")
	assert.Contains(t, out, "server_addr: :8080")

	_, err = runCmd(t, "config", "set", "nope", "1")
	assert.Error(t, err)
	_, err = runCmd(t, "config", "set", "decimal_separator", ",,")
	assert.Error(t, err)
}

func TestCLI_ConfigDrivesDefaults(t *testing.T) {
	_, file := isolate(t)
	mustRun(t, "config", "set", "head_rows", "1")
	out := mustRun(t, "profile", file, "--json")
	var rep struct {
		Head []map[string]any `json:"head"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &rep))
	assert.Len(t, rep.Head, 1)
}

func TestServe_NewServerPreloads(t *testing.T) {
	_, file := isolate(t)
	resetFlags(rootCmd)
	loadConfig()
	srvLoad = file
	t.Cleanup(func() { srvLoad = "" })

	srv, addr, err := newServer(serveCmd)
	require.NoError(t, err)
	assert.Equal(t, ":8080", addr)

	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/dataset", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var v map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v))
	assert.Equal(t, false, v["empty"])
}
