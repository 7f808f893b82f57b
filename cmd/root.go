package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	cfgpkg "github.com/KaramelBytes/sheetreduce/internal/config"
	"github.com/KaramelBytes/sheetreduce/internal/logger"
)

var (
	// Global flags
	cfgFile   string
	debug     bool
	logLevel  string
	logFormat string

	// Loaded configuration
	cfg *cfgpkg.Global
)

var rootCmd = &cobra.Command{
	Use:   "sheetreduce",
	Short: "Reduce large tables for charts and LLM prompts",
	Long: `sheetreduce shrinks tabular data without losing its shape.

It samples rows for language-model prompts while profiling every column over
the whole dataset, and thins chart series with LTTB, min/max, nth-point or
calendar aggregation. Input may be CSV/TSV, XLSX, Parquet or JSON.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute is the entry point called by main.main()
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "✗ Error:", err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(loadConfig)

	// Persistent global flags available to all subcommands
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ~/.sheetreduce/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: debug|info|warn|error (overrides config)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "log format: console|json (overrides config)")
}

func loadConfig() {
	c, err := cfgpkg.Load(cfgFile)
	if err != nil {
		// Non-fatal: fall back to defaults so every command still runs
		fmt.Fprintf(os.Stderr, "⚠ Warning: failed to load config: %v\n", err)
		c = defaultConfig()
	}
	cfg = c

	level, format := cfg.LogLevel, cfg.LogFormat
	if logLevel != "" {
		level = logLevel
	}
	if debug {
		level = "debug"
	}
	if logFormat != "" {
		format = logFormat
	}
	logger.Setup(level, format)
}

// defaultConfig mirrors the built-in defaults without touching disk or env.
func defaultConfig() *cfgpkg.Global {
	c := &cfgpkg.Global{}
	for _, k := range cfgpkg.Keys() {
		if d := cfgpkg.Default(k); d != "" {
			_ = c.Set(k, d)
		}
	}
	return c
}

func currentConfig() *cfgpkg.Global {
	if cfg == nil {
		cfg = defaultConfig()
	}
	return cfg
}

// runLogger returns a component logger tagged with the command name and a
// fresh run id.
func runLogger(cmd *cobra.Command) zerolog.Logger {
	return logger.Get("cli").With().
		Str("command", strings.TrimPrefix(cmd.CommandPath(), rootCmd.Name()+" ")).
		Str("run_id", uuid.NewString()).
		Logger()
}
