package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/KaramelBytes/tablelens/internal/dataset"
)

// Global configuration structure.
type Global struct {
	LogLevel  string `mapstructure:"log_level" yaml:"log_level"`
	LogFormat string `mapstructure:"log_format" yaml:"log_format"`

	// HTTP shell
	ServerAddr         string `mapstructure:"server_addr" yaml:"server_addr"`
	MaxUploadBytes     int64  `mapstructure:"max_upload_bytes" yaml:"max_upload_bytes"`
	ShutdownTimeoutSec int    `mapstructure:"shutdown_timeout_sec" yaml:"shutdown_timeout_sec"`

	// Parsing
	CSVDelimiter       string `mapstructure:"csv_delimiter" yaml:"csv_delimiter"`
	DecimalSeparator   string `mapstructure:"decimal_separator" yaml:"decimal_separator"`
	ThousandsSeparator string `mapstructure:"thousands_separator" yaml:"thousands_separator"`
	SheetName          string `mapstructure:"sheet_name" yaml:"sheet_name"`
	SheetIndex         int    `mapstructure:"sheet_index" yaml:"sheet_index"`

	// Widget defaults
	HistogramBins int `mapstructure:"histogram_bins" yaml:"histogram_bins"`
	TopN          int `mapstructure:"top_n" yaml:"top_n"`
	HeadRows      int `mapstructure:"head_rows" yaml:"head_rows"`
}

// Keys lists the settable configuration keys in display order.
var Keys = []string{
	"log_level", "log_format",
	"server_addr", "max_upload_bytes", "shutdown_timeout_sec",
	"csv_delimiter", "decimal_separator", "thousands_separator", "sheet_name", "sheet_index",
	"histogram_bins", "top_n", "head_rows",
}

// Dir returns ~/.tablelens.
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	return filepath.Join(home, ".tablelens"), nil
}

// Save writes the given configuration to the cfgFile path. If cfgFile is empty,
// it writes to ~/.tablelens/config.yaml, creating the directory if necessary.
func Save(c *Global, cfgFile string) error {
	path := cfgFile
	if path == "" {
		dir, err := Dir()
		if err != nil {
			return err
		}
		path = filepath.Join(dir, "config.yaml")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("mkdir config dir: %w", err)
	}
	b, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal yaml: %w", err)
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// Load loads configuration from file, env, and defaults.
// Precedence: env > config file > defaults. Flags are applied by the caller.
func Load(cfgFile string) (*Global, error) {
	v := viper.New()
	v.SetEnvPrefix("TABLELENS")
	v.AutomaticEnv()

	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "console")
	v.SetDefault("server_addr", ":8080")
	v.SetDefault("max_upload_bytes", 32<<20)
	v.SetDefault("shutdown_timeout_sec", 10)
	v.SetDefault("csv_delimiter", ",")
	v.SetDefault("decimal_separator", "")
	v.SetDefault("thousands_separator", "")
	v.SetDefault("sheet_name", "")
	v.SetDefault("sheet_index", 0)
	v.SetDefault("histogram_bins", 30)
	v.SetDefault("top_n", 10)
	v.SetDefault("head_rows", 5)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		dir, err := Dir()
		if err != nil {
			return nil, err
		}
		v.AddConfigPath(dir)
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
	// the file is optional; a present but malformed one is an error
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var c Global
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Validate checks separator and numeric settings.
func (c *Global) Validate() error {
	for key, val := range map[string]string{
		"csv_delimiter":       c.CSVDelimiter,
		"decimal_separator":   c.DecimalSeparator,
		"thousands_separator": c.ThousandsSeparator,
	} {
		if val != `\t` && utf8.RuneCountInString(val) > 1 {
			return fmt.Errorf("invalid %s %q: must be a single character", key, val)
		}
	}
	if c.DecimalSeparator != "" && c.DecimalSeparator == c.ThousandsSeparator {
		return fmt.Errorf("decimal_separator and thousands_separator must differ")
	}
	if c.MaxUploadBytes < 0 || c.HistogramBins < 0 || c.TopN < 0 || c.HeadRows < 0 || c.SheetIndex < 0 {
		return fmt.Errorf("numeric settings must not be negative")
	}
	return nil
}

// LoadOptions converts the parsing settings for the dataset loader.
func (c *Global) LoadOptions() dataset.LoadOptions {
	opt := dataset.DefaultLoadOptions()
	if r := firstRune(c.CSVDelimiter); r != 0 {
		opt.Delimiter = r
	}
	opt.DecimalSeparator = firstRune(c.DecimalSeparator)
	opt.ThousandsSeparator = firstRune(c.ThousandsSeparator)
	opt.SheetName = c.SheetName
	opt.SheetIndex = c.SheetIndex
	return opt
}

func firstRune(s string) rune {
	if s == "" {
		return 0
	}
	if s == `\t` {
		return '\t'
	}
	r, _ := utf8.DecodeRuneInString(s)
	return r
}

// Get returns the string form of a key.
func (c *Global) Get(key string) (string, error) {
	switch key {
	case "log_level":
		return c.LogLevel, nil
	case "log_format":
		return c.LogFormat, nil
	case "server_addr":
		return c.ServerAddr, nil
	case "max_upload_bytes":
		return strconv.FormatInt(c.MaxUploadBytes, 10), nil
	case "shutdown_timeout_sec":
		return strconv.Itoa(c.ShutdownTimeoutSec), nil
	case "csv_delimiter":
		return c.CSVDelimiter, nil
	case "decimal_separator":
		return c.DecimalSeparator, nil
	case "thousands_separator":
		return c.ThousandsSeparator, nil
	case "sheet_name":
		return c.SheetName, nil
	case "sheet_index":
		return strconv.Itoa(c.SheetIndex), nil
	case "histogram_bins":
		return strconv.Itoa(c.HistogramBins), nil
	case "top_n":
		return strconv.Itoa(c.TopN), nil
	case "head_rows":
		return strconv.Itoa(c.HeadRows), nil
	}
	return "", fmt.Errorf("unknown key: %s", key)
}

// Set parses and assigns one key. c is left unchanged on error.
func (c *Global) Set(key, val string) error {
	next := *c
	if err := next.set(key, val); err != nil {
		return err
	}
	if err := next.Validate(); err != nil {
		return err
	}
	*c = next
	return nil
}

func (c *Global) set(key, val string) error {
	atoi := func() (int, error) {
		i, err := strconv.Atoi(val)
		if err != nil || i < 0 {
			return 0, fmt.Errorf("invalid int for %s: %v", key, val)
		}
		return i, nil
	}
	var err error
	switch key {
	case "log_level":
		switch strings.ToLower(val) {
		case "debug", "info", "warn", "error":
			c.LogLevel = strings.ToLower(val)
		default:
			return fmt.Errorf("invalid log_level: %s (use debug, info, warn or error)", val)
		}
	case "log_format":
		switch strings.ToLower(val) {
		case "json", "console":
			c.LogFormat = strings.ToLower(val)
		default:
			return fmt.Errorf("invalid log_format: %s (use json or console)", val)
		}
	case "server_addr":
		c.ServerAddr = val
	case "max_upload_bytes":
		n, perr := strconv.ParseInt(val, 10, 64)
		if perr != nil || n < 0 {
			return fmt.Errorf("invalid int for max_upload_bytes: %v", val)
		}
		c.MaxUploadBytes = n
	case "shutdown_timeout_sec":
		c.ShutdownTimeoutSec, err = atoi()
	case "csv_delimiter":
		c.CSVDelimiter = val
	case "decimal_separator":
		c.DecimalSeparator = val
	case "thousands_separator":
		c.ThousandsSeparator = val
	case "sheet_name":
		c.SheetName = val
	case "sheet_index":
		c.SheetIndex, err = atoi()
	case "histogram_bins":
		c.HistogramBins, err = atoi()
	case "top_n":
		c.TopN, err = atoi()
	case "head_rows":
		c.HeadRows, err = atoi()
	default:
		return fmt.Errorf("unknown key: %s", key)
	}
	return err
}
