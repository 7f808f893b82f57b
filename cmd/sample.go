package cmd

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/sheetreduce/internal/sampling"
	"github.com/KaramelBytes/sheetreduce/internal/utils"
)

var (
	smpInput       inputFlags
	smpOutput      outputFlags
	smpMaxRows     int
	smpStrategy    string
	smpSeed        int64
	smpParallelism int
	smpContext     bool
	smpContextRows int
	smpTokenLimit  int

	prfInput       inputFlags
	prfOutput      outputFlags
	prfParallelism int
)

var sampleCmd = &cobra.Command{
	Use:   "sample <file>",
	Short: "Sample rows and profile every column",
	Long: `Sample picks a bounded, representative subset of rows while the column
statistics still describe every row. With --context it prints a compact text
digest suitable for a language-model prompt instead of JSON.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		log := runLogger(cmd)
		c := currentConfig()

		opt, err := sampleOptions(cmd, &smpInput)
		if err != nil {
			return err
		}
		t, err := smpInput.load(cmd.Context(), log, args[0])
		if err != nil {
			return err
		}

		start := time.Now()
		res, err := sampling.Sample(t.Rows, t.Headers, opt)
		if err != nil {
			return err
		}
		ev := log.Info().
			Str("file", t.Name).
			Int("total_rows", res.TotalRows).
			Int("sample_size", res.SampleSize).
			Str("strategy", string(res.Strategy)).
			Dur("elapsed", time.Since(start))
		if res.Seed != nil {
			ev = ev.Int64("seed", *res.Seed)
		}
		ev.Msg("sampled table")

		if !smpContext {
			return smpOutput.write(cmd, res)
		}

		rows := c.ContextRows
		if cmd.Flags().Changed("context-rows") {
			rows = smpContextRows
		}
		limit := c.TokenLimit
		if cmd.Flags().Changed("token-limit") {
			limit = smpTokenLimit
		}
		text := fitContext(res, rows, limit)
		for section, n := range utils.TokenBreakdown(text) {
			log.Debug().Str("section", section).Int("tokens", n).Msg("context tokens")
		}
		return smpOutput.writeBytes(cmd, []byte(text))
	},
}

var profileCmd = &cobra.Command{
	Use:   "profile <file>",
	Short: "Profile every column without sampling rows",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		log := runLogger(cmd)
		loc, err := prfInput.locale()
		if err != nil {
			return err
		}
		t, err := prfInput.load(cmd.Context(), log, args[0])
		if err != nil {
			return err
		}
		par := currentConfig().Parallelism
		if cmd.Flags().Changed("parallelism") {
			par = prfParallelism
		}
		start := time.Now()
		agg := sampling.Aggregate(t.Rows, t.Headers, sampling.Options{Locale: loc, Parallelism: par})
		log.Info().
			Str("file", t.Name).
			Int("rows", agg.RowCount).
			Int("columns", len(agg.ColumnStats)).
			Dur("elapsed", time.Since(start)).
			Msg("profiled table")
		return prfOutput.write(cmd, agg)
	},
}

// sampleOptions merges config defaults with explicitly set flags. An unset
// --seed falls back to the clock.
func sampleOptions(cmd *cobra.Command, in *inputFlags) (sampling.Options, error) {
	c := currentConfig()
	opt := sampling.DefaultOptions()
	if c.MaxRows > 0 {
		opt.MaxRows = c.MaxRows
	}
	if c.Strategy != "" {
		opt.Strategy = sampling.Strategy(c.Strategy)
	}
	opt.Parallelism = c.Parallelism
	f := cmd.Flags()
	if f.Changed("max-rows") {
		opt.MaxRows = smpMaxRows
	}
	if f.Changed("strategy") {
		opt.Strategy = sampling.Strategy(smpStrategy)
	}
	st, err := sampling.ParseStrategy(string(opt.Strategy))
	if err != nil {
		return opt, err
	}
	opt.Strategy = st
	if f.Changed("parallelism") {
		opt.Parallelism = smpParallelism
	}
	if f.Changed("seed") {
		opt.Seed = smpSeed
	} else {
		opt.Seed = sampling.ClockSeed()
	}
	loc, err := in.locale()
	if err != nil {
		return opt, err
	}
	opt.Locale = loc
	return opt, nil
}

// fitContext renders the prompt digest. With a positive token limit it drops
// sample rows first and truncates only when the bare digest is still too long.
func fitContext(res *sampling.Result, rows, limit int) string {
	text := sampling.PrepareLLMContextWithRows(res, rows)
	if limit <= 0 {
		return text
	}
	for rows > 0 && utils.CountTokens(text) > limit {
		rows /= 2
		text = sampling.PrepareLLMContextWithRows(res, rows)
	}
	if utils.CountTokens(text) > limit {
		text = utils.TruncateToTokenLimit(text, limit)
	}
	return text
}

func init() {
	rootCmd.AddCommand(sampleCmd)
	rootCmd.AddCommand(profileCmd)

	smpInput.register(sampleCmd)
	smpOutput.register(sampleCmd)
	sampleCmd.Flags().IntVar(&smpMaxRows, "max-rows", sampling.DefaultMaxRows, "maximum rows to keep")
	sampleCmd.Flags().StringVar(&smpStrategy, "strategy", string(sampling.StrategySmart), "random|stratified|systematic|first|smart")
	sampleCmd.Flags().Int64Var(&smpSeed, "seed", 0, "seed for random and smart sampling (default: clock)")
	sampleCmd.Flags().IntVar(&smpParallelism, "parallelism", 1, "columns profiled concurrently")
	sampleCmd.Flags().BoolVar(&smpContext, "context", false, "print an LLM prompt digest instead of structured output")
	sampleCmd.Flags().IntVar(&smpContextRows, "context-rows", 10, "sample rows included in the digest")
	sampleCmd.Flags().IntVar(&smpTokenLimit, "token-limit", 0, "approximate token budget for the digest (0 = unlimited)")

	prfInput.register(profileCmd)
	prfOutput.register(profileCmd)
	profileCmd.Flags().IntVar(&prfParallelism, "parallelism", 1, "columns profiled concurrently")
}
