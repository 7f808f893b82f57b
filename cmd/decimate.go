package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/sheetreduce/internal/coerce"
	"github.com/KaramelBytes/sheetreduce/internal/decimate"
	"github.com/KaramelBytes/sheetreduce/internal/stats"
	"github.com/KaramelBytes/sheetreduce/internal/tabular"
)

var (
	decInput       inputFlags
	decOutput      outputFlags
	decX           string
	decY           []string
	decMaxPoints   int
	decAlgorithm   string
	decAggregation string
	decGroupBy     string
	decChart       string

	recInput  inputFlags
	recOutput outputFlags
	recX      string
	recChart  string
)

var decimateCmd = &cobra.Command{
	Use:   "decimate <file>",
	Short: "Reduce a chart series while keeping its shape",
	Long: `Decimate turns table rows into series points keyed by header and thins
them to at most --max-points. Time-based series can first be aggregated into
calendar buckets with --group-by. With --chart the recommended settings for
that chart type are applied first; explicit flags still win.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		log := runLogger(cmd)
		loc, err := decInput.locale()
		if err != nil {
			return err
		}
		t, err := decInput.load(cmd.Context(), log, args[0])
		if err != nil {
			return err
		}
		if t.ColumnIndex(decX) < 0 {
			return fmt.Errorf("x column %q not found (columns: %v)", decX, t.Headers)
		}
		yKeys := decY
		if len(yKeys) == 0 {
			yKeys = numericColumns(t, decX, loc)
			if len(yKeys) == 0 {
				return fmt.Errorf("no numeric columns besides %q; pass --y", decX)
			}
		}
		for _, y := range yKeys {
			if t.ColumnIndex(y) < 0 {
				return fmt.Errorf("y column %q not found (columns: %v)", y, t.Headers)
			}
		}

		points := decimate.PointsFromTable(t)
		opt, err := decimateOptions(cmd, points)
		if err != nil {
			return err
		}
		opt.Locale = loc

		start := time.Now()
		res, err := decimate.Optimize(points, decX, yKeys, opt)
		if err != nil {
			return err
		}
		log.Info().
			Str("file", t.Name).
			Int("original_size", res.OriginalSize).
			Int("optimized_size", res.OptimizedSize).
			Str("method", res.Method).
			Int("skipped_points", res.SkippedPoints).
			Dur("elapsed", time.Since(start)).
			Msg("decimated series")
		return decOutput.write(cmd, res)
	},
}

var recommendCmd = &cobra.Command{
	Use:   "recommend <file>",
	Short: "Suggest decimation settings for a series and chart type",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		log := runLogger(cmd)
		chart, err := decimate.ParseChartType(recChart)
		if err != nil {
			return err
		}
		t, err := recInput.load(cmd.Context(), log, args[0])
		if err != nil {
			return err
		}
		if t.ColumnIndex(recX) < 0 {
			return fmt.Errorf("x column %q not found (columns: %v)", recX, t.Headers)
		}
		rec := decimate.Recommend(decimate.PointsFromTable(t), recX, chart)
		log.Info().
			Str("file", t.Name).
			Bool("reduce", rec.Reduce).
			Bool("time_series", rec.TimeSeries).
			Str("algorithm", string(rec.Options.Algorithm)).
			Str("group_by", string(rec.Options.GroupBy)).
			Msg("recommended settings")
		return recOutput.write(cmd, rec)
	},
}

// decimateOptions starts from the config (or the chart recommendation when
// --chart is given) and applies explicitly set flags on top.
func decimateOptions(cmd *cobra.Command, points []decimate.Point) (decimate.Options, error) {
	c := currentConfig()
	opt := decimate.Options{
		MaxDataPoints: c.MaxDataPoints,
		Algorithm:     decimate.Algorithm(c.Algorithm),
		Aggregation:   decimate.Aggregation(c.Aggregation),
		GroupBy:       decimate.Granularity(c.GroupBy),
	}
	f := cmd.Flags()
	if f.Changed("chart") {
		chart, err := decimate.ParseChartType(decChart)
		if err != nil {
			return opt, err
		}
		opt = decimate.Recommend(points, decX, chart).Options
	}
	if f.Changed("max-points") {
		opt.MaxDataPoints = decMaxPoints
	}
	if f.Changed("algorithm") {
		opt.Algorithm = decimate.Algorithm(decAlgorithm)
	}
	if f.Changed("aggregation") {
		opt.Aggregation = decimate.Aggregation(decAggregation)
	}
	if f.Changed("group-by") {
		opt.GroupBy = decimate.Granularity(decGroupBy)
	}
	var err error
	if opt.Algorithm, err = decimate.ParseAlgorithm(string(opt.Algorithm)); err != nil {
		return opt, err
	}
	if opt.Aggregation, err = decimate.ParseAggregation(string(opt.Aggregation)); err != nil {
		return opt, err
	}
	if opt.GroupBy, err = decimate.ParseGranularity(string(opt.GroupBy)); err != nil {
		return opt, err
	}
	return opt, nil
}

// numericColumns lists number-typed columns other than x, in header order.
func numericColumns(t *tabular.Table, x string, loc coerce.Locale) []string {
	var out []string
	seen := map[string]bool{x: true}
	for _, p := range stats.ProfileColumns(t.Headers, t.Rows, stats.Options{Locale: loc}) {
		if p.DataType == stats.TypeNumber && !seen[p.Name] {
			out = append(out, p.Name)
		}
		seen[p.Name] = true
	}
	return out
}

func init() {
	rootCmd.AddCommand(decimateCmd)
	rootCmd.AddCommand(recommendCmd)

	decInput.register(decimateCmd)
	decOutput.register(decimateCmd)
	decimateCmd.Flags().StringVar(&decX, "x", "", "column holding x-values (required)")
	decimateCmd.Flags().StringSliceVar(&decY, "y", nil, "y-value column; repeatable (default: every numeric column)")
	decimateCmd.Flags().IntVar(&decMaxPoints, "max-points", decimate.DefaultMaxDataPoints, "maximum points to keep")
	decimateCmd.Flags().StringVar(&decAlgorithm, "algorithm", string(decimate.AlgorithmLTTB), "lttb|nth|minmax|average")
	decimateCmd.Flags().StringVar(&decAggregation, "aggregation", string(decimate.AggregateAverage), "average|sum|min|max|first|last")
	decimateCmd.Flags().StringVar(&decGroupBy, "group-by", string(decimate.GroupNone), "none|auto|day|week|month|year")
	decimateCmd.Flags().StringVar(&decChart, "chart", "", "apply recommended settings for line|area|bar|scatter")
	_ = decimateCmd.MarkFlagRequired("x")

	recInput.register(recommendCmd)
	recOutput.register(recommendCmd)
	recommendCmd.Flags().StringVar(&recX, "x", "", "column holding x-values (required)")
	recommendCmd.Flags().StringVar(&recChart, "chart", string(decimate.ChartLine), "line|area|bar|scatter")
	_ = recommendCmd.MarkFlagRequired("x")
}
