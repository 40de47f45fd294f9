package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/datalens-cli/internal/analysis"
	cfgpkg "github.com/KaramelBytes/datalens-cli/internal/config"
	"github.com/KaramelBytes/datalens-cli/internal/logging"
	"github.com/KaramelBytes/datalens-cli/internal/pipeline"
)

var (
	// Global flags
	cfgFile string
	debug   bool

	// Loaded configuration; defaults when no usable config file exists.
	cfg *cfgpkg.Global
	log *slog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "datalens",
	Short: "DataLens CLI: profile CSV/JSON datasets and pick charts for them",
	Long: `DataLens reads a CSV or JSON dataset, infers whether each column is numeric,
categorical or a date, computes column statistics and selects a default set of
charts for the data. Results are printed as JSON, YAML or Markdown, or served
over HTTP.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		loadConfig(cmd)
	},
}

// Execute is the entry point called by main.main()
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "✗ Error:", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ~/.datalens/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
}

func loadConfig(cmd *cobra.Command) {
	c, err := cfgpkg.Load(cfgFile)
	if err != nil {
		// Non-fatal: fall back to defaults so read-only commands still work
		fmt.Fprintf(cmd.ErrOrStderr(), "⚠ Warning: failed to load config: %v\n", err)
		c = cfgpkg.Defaults()
	}
	cfg = c
	level := cfg.LogLevel
	if debug {
		level = "debug"
	}
	log = logging.New(level, cfg.LogFormat, cmd.ErrOrStderr())
}

// profileOptions derives pipeline settings from config plus per-command
// overrides. Explicit overrides are held to the same ranges as the config keys.
func profileOptions(cmd *cobra.Command, sampleSize int, threshold float64) (pipeline.Options, error) {
	opt := pipeline.Options{
		Analysis: analysis.Options{
			SampleSize:       cfg.SampleSize,
			NumericThreshold: cfg.NumericThreshold,
			DateThreshold:    cfg.DateThreshold,
			TopValues:        analysis.DefaultOptions().TopValues,
		},
	}
	if cmd.Flags().Changed("sample-size") {
		if sampleSize <= 0 {
			return opt, fmt.Errorf("--sample-size must be positive, got %d", sampleSize)
		}
		opt.Analysis.SampleSize = sampleSize
	}
	if cmd.Flags().Changed("threshold") {
		if threshold <= 0 || threshold > 1 {
			return opt, fmt.Errorf("--threshold must be in (0,1], got %g", threshold)
		}
		opt.Analysis.NumericThreshold = threshold
		opt.Analysis.DateThreshold = threshold
	}
	return opt, nil
}
