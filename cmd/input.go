package cmd

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/KaramelBytes/sheetreduce/internal/coerce"
	"github.com/KaramelBytes/sheetreduce/internal/loader"
	"github.com/KaramelBytes/sheetreduce/internal/tabular"
	"github.com/KaramelBytes/sheetreduce/internal/utils"
)

// inputFlags are shared by every command that reads a data file.
type inputFlags struct {
	sheetName  string
	sheetIndex int
	delimiter  string
	decimal    string
	thousands  string
}

func (f *inputFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.sheetName, "sheet-name", "", "XLSX sheet name to read")
	cmd.Flags().IntVar(&f.sheetIndex, "sheet-index", 0, "XLSX 1-based sheet index (default 1)")
	cmd.Flags().StringVar(&f.delimiter, "delimiter", "", "CSV delimiter: ','|';'|'tab'|'|' (default: sniffed)")
	cmd.Flags().StringVar(&f.decimal, "decimal", "", "decimal separator: '.'|'comma' (overrides config)")
	cmd.Flags().StringVar(&f.thousands, "thousands", "", "thousands separator: ','|'.'|'space' (overrides config)")
}

func (f *inputFlags) loaderOptions() (loader.Options, error) {
	opt := loader.Options{Sheet: f.sheetName, SheetIndex: f.sheetIndex}
	switch f.delimiter {
	case "":
	case ",":
		opt.Delimiter = ','
	case ";":
		opt.Delimiter = ';'
	case "|":
		opt.Delimiter = '|'
	case "\t", "tab":
		opt.Delimiter = '\t'
	default:
		return opt, fmt.Errorf("unsupported --delimiter: %s", f.delimiter)
	}
	return opt, nil
}

// locale applies --decimal/--thousands on top of the configured separators.
func (f *inputFlags) locale() (coerce.Locale, error) {
	c := *currentConfig()
	switch strings.ToLower(strings.TrimSpace(f.decimal)) {
	case ",", "comma":
		c.DecimalSeparator = ","
		if f.thousands == "" && c.ThousandsSeparator == "," {
			c.ThousandsSeparator = "."
		}
	case ".", "dot":
		c.DecimalSeparator = "."
	case "":
	default:
		return coerce.Locale{}, fmt.Errorf("unsupported --decimal: %s (use '.'|'comma')", f.decimal)
	}
	switch strings.ToLower(f.thousands) {
	case ",", ".":
		c.ThousandsSeparator = f.thousands
	case "space", " ":
		c.ThousandsSeparator = "space"
	case "":
	default:
		return coerce.Locale{}, fmt.Errorf("unsupported --thousands: %s (use ','|'.'|'space')", f.thousands)
	}
	return c.Locale()
}

// load reads path and logs its shape.
func (f *inputFlags) load(ctx context.Context, log zerolog.Logger, path string) (*tabular.Table, error) {
	opt, err := f.loaderOptions()
	if err != nil {
		return nil, err
	}
	start := time.Now()
	t, err := loader.Load(ctx, path, opt)
	if err != nil {
		return nil, err
	}
	log.Debug().
		Str("file", t.Name).
		Int("rows", len(t.Rows)).
		Int("columns", len(t.Headers)).
		Dur("elapsed", time.Since(start)).
		Msg("loaded table")
	return t, nil
}

// outputFlags control where and how results are written.
type outputFlags struct {
	format string
	path   string
}

func (o *outputFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&o.format, "format", "", "output format: json|yaml (overrides config)")
	cmd.Flags().StringVarP(&o.path, "output", "o", "", "write result to this file instead of stdout")
}

func (o *outputFlags) write(cmd *cobra.Command, v any) error {
	format := o.format
	if format == "" {
		format = currentConfig().OutputFormat
	}
	b, err := utils.Encode(v, format)
	if err != nil {
		return err
	}
	return o.writeBytes(cmd, b)
}

func (o *outputFlags) writeBytes(cmd *cobra.Command, b []byte) error {
	if o.path == "" {
		_, err := cmd.OutOrStdout().Write(b)
		return err
	}
	if err := utils.SafeWriteFile(o.path, b); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "✓ Wrote %s\n", o.path)
	return nil
}
