package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	c, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "info", c.LogLevel)
	assert.Equal(t, ":8080", c.ServerAddr)
	assert.Equal(t, int64(32<<20), c.MaxUploadBytes)
	assert.Equal(t, 30, c.HistogramBins)
	assert.Equal(t, 10, c.TopN)
	assert.Equal(t, 5, c.HeadRows)

	opt := c.LoadOptions()
	assert.Equal(t, ',', opt.Delimiter)
	assert.Equal(t, rune(0), opt.DecimalSeparator)
}

func TestSaveLoadRoundTrip(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	c, err := Load(path)
	require.NoError(t, err)
	require.NoError(t, c.Set("csv_delimiter", ";"))
	require.NoError(t, c.Set("decimal_separator", ","))
	require.NoError(t, c.Set("top_n", "7"))
	require.NoError(t, c.Set("log_format", "JSON"))
	require.NoError(t, Save(c, path))

	back, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ";", back.CSVDelimiter)
	assert.Equal(t, 7, back.TopN)
	assert.Equal(t, "json", back.LogFormat)
	opt := back.LoadOptions()
	assert.Equal(t, ';', opt.Delimiter)
	assert.Equal(t, ',', opt.DecimalSeparator)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("head_rows: 8\nserver_addr: \":9000\"\n"), 0o644))
	t.Setenv("TABLELENS_SERVER_ADDR", "127.0.0.1:7000")
	c, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 8, c.HeadRows)
	assert.Equal(t, "127.0.0.1:7000", c.ServerAddr)
}

func TestLoad_MalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("head_rows: [\n"), 0o644))
	_, err := Load(path)
	require.Error(t, err)
}

func TestSet_Validation(t *testing.T) {
	c := &Global{}
	assert.Error(t, c.Set("csv_delimiter", ";;"))
	assert.Error(t, c.Set("top_n", "-1"))
	assert.Error(t, c.Set("log_level", "loud"))
	assert.Error(t, c.Set("nope", "1"))

	c = &Global{}
	require.NoError(t, c.Set("decimal_separator", ","))
	assert.Error(t, c.Set("thousands_separator", ","))

	c = &Global{}
	for _, k := range Keys {
		_, err := c.Get(k)
		assert.NoError(t, err, k)
	}
	_, err := c.Get("nope")
	assert.Error(t, err)
}

func TestLoadOptions_Tab(t *testing.T) {
	c := &Global{CSVDelimiter: `\t`, SheetName: "Data", SheetIndex: 2}
	opt := c.LoadOptions()
	assert.Equal(t, '\t', opt.Delimiter)
	assert.Equal(t, "Data", opt.SheetName)
	assert.Equal(t, 2, opt.SheetIndex)
}
