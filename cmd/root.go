package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	cfgpkg "github.com/KaramelBytes/tablelens/internal/config"
	"github.com/KaramelBytes/tablelens/internal/dataset"
	"github.com/KaramelBytes/tablelens/internal/logging"
	"github.com/KaramelBytes/tablelens/internal/session"
)

var (
	// Global flags
	cfgFile string
	debug   bool
	// Parsing flags (override config if set)
	flagDelimiter  string
	flagDecimal    string
	flagThousands  string
	flagSheetName  string
	flagSheetIndex int

	// Loaded configuration and logger
	cfg    *cfgpkg.Global
	logger = zap.NewNop()
)

var rootCmd = &cobra.Command{
	Use:   "tablelens",
	Short: "TableLens: explore a CSV or Excel table",
	Long: `TableLens loads one CSV or Excel file and profiles it: shape, column types,
summary statistics, missing values, correlations, value counts and chart
configurations. Results are printed, exported as JSON, or served over HTTP.`,
}

// Execute is the entry point called by main.main()
func Execute() {
	// .env is optional
	_ = godotenv.Load()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "✗ Error:", err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(loadConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ~/.tablelens/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&flagDelimiter, "delimiter", "", "CSV delimiter: ',' | ';' | 'tab' (overrides config)")
	rootCmd.PersistentFlags().StringVar(&flagDecimal, "decimal", "", "decimal separator for numbers: '.'|'comma' (overrides config)")
	rootCmd.PersistentFlags().StringVar(&flagThousands, "thousands", "", "thousands separator for numbers: ','|'.'|'space' (overrides config)")
	rootCmd.PersistentFlags().StringVar(&flagSheetName, "sheet-name", "", "XLSX: sheet name to load")
	rootCmd.PersistentFlags().IntVar(&flagSheetIndex, "sheet-index", 0, "XLSX: 1-based sheet index (used if --sheet-name not provided)")
}

func loadConfig() {
	c, err := cfgpkg.Load(cfgFile)
	if err != nil {
		// Non-fatal: fall back to built-in defaults
		fmt.Fprintf(os.Stderr, "⚠ Warning: failed to load config: %v\n", err)
		cfg = nil
	} else {
		cfg = c
	}

	level, format := "info", "console"
	if cfg != nil {
		level, format = cfg.LogLevel, cfg.LogFormat
	}
	if debug {
		level = "debug"
	}
	l, err := logging.New(level, format)
	if err != nil {
		fmt.Fprintf(os.Stderr, "⚠ Warning: failed to build logger: %v\n", err)
		l = zap.NewNop()
	}
	logger = l
}

// loadOptions merges config parsing settings with explicit flags.
func loadOptions(cmd *cobra.Command) (dataset.LoadOptions, error) {
	opt := dataset.DefaultLoadOptions()
	if cfg != nil {
		opt = cfg.LoadOptions()
	}
	f := cmd.Flags()
	if f.Changed("delimiter") {
		switch strings.ToLower(flagDelimiter) {
		case ",":
			opt.Delimiter = ','
		case "\t", `\t`, "tab":
			opt.Delimiter = '\t'
		case ";":
			opt.Delimiter = ';'
		case "|", "pipe":
			opt.Delimiter = '|'
		default:
			return opt, fmt.Errorf("unsupported --delimiter: %s", flagDelimiter)
		}
	}
	if f.Changed("decimal") {
		switch strings.ToLower(strings.TrimSpace(flagDecimal)) {
		case ",", "comma":
			opt.DecimalSeparator = ','
		case ".", "dot":
			opt.DecimalSeparator = '.'
		case "":
			opt.DecimalSeparator = 0
		default:
			return opt, fmt.Errorf("unsupported --decimal: %s (use '.'|'comma')", flagDecimal)
		}
	}
	if f.Changed("thousands") {
		switch strings.ToLower(flagThousands) {
		case ",":
			opt.ThousandsSeparator = ','
		case ".":
			opt.ThousandsSeparator = '.'
		case "space", " ":
			opt.ThousandsSeparator = ' '
		case "":
			opt.ThousandsSeparator = 0
		default:
			return opt, fmt.Errorf("unsupported --thousands: %s (use ','|'.'|'space')", flagThousands)
		}
	}
	if opt.DecimalSeparator != 0 && opt.DecimalSeparator == opt.ThousandsSeparator {
		return opt, fmt.Errorf("decimal and thousands separators must differ")
	}
	if f.Changed("sheet-name") {
		opt.SheetName = flagSheetName
	}
	if f.Changed("sheet-index") {
		if flagSheetIndex < 0 {
			return opt, fmt.Errorf("--sheet-index must not be negative")
		}
		opt.SheetIndex = flagSheetIndex
	}
	return opt, nil
}

// loadDataset reads path with the effective parsing options.
func loadDataset(cmd *cobra.Command, path string) (*dataset.Dataset, error) {
	opt, err := loadOptions(cmd)
	if err != nil {
		return nil, err
	}
	ds, err := dataset.LoadFile(path, opt)
	if err != nil {
		return nil, err
	}
	logger.Debug("dataset loaded",
		zap.String("file", ds.Name),
		zap.Int("rows", ds.Rows()),
		zap.Int("cols", ds.Width()))
	return ds, nil
}

// initialState returns the session state seeded with configured widget defaults.
func initialState() session.State {
	st := session.NewState()
	if cfg == nil {
		return st
	}
	if cfg.HeadRows > 0 {
		st.HeadRows = cfg.HeadRows
	}
	if cfg.TopN > 0 {
		st.TopN = cfg.TopN
	}
	st.HistogramBins = cfg.HistogramBins
	return st
}
