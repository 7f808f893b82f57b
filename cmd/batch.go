package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/KaramelBytes/sheetreduce/internal/sampling"
	"github.com/KaramelBytes/sheetreduce/internal/utils"
)

var (
	bInput       inputFlags
	bOutDir      string
	bFormat      string
	bMaxRows     int
	bStrategy    string
	bSeed        int64
	bParallelism int
	bContext     bool
	bContextRows int
	bTokenLimit  int
	bJobs        int
	bQuiet       bool
)

var batchCmd = &cobra.Command{
	Use:   "batch <files...>",
	Short: "Sample many files (globs allowed) into an output directory",
	Long: `Batch samples every matched file with the same settings and writes one
result per input into --out-dir. Files are processed concurrently (--jobs);
existing outputs are never overwritten, a numeric suffix is added instead.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		log := runLogger(cmd)
		files, err := expandInputs(args)
		if err != nil {
			return err
		}
		if bOutDir == "" {
			return fmt.Errorf("--out-dir is required")
		}
		if err := os.MkdirAll(bOutDir, 0o755); err != nil {
			return fmt.Errorf("mkdir out dir: %w", err)
		}
		opt, err := batchOptions(cmd)
		if err != nil {
			return err
		}
		format := bFormat
		if format == "" {
			format = currentConfig().OutputFormat
		}

		// results are rendered concurrently and written in input order
		rendered := make([][]byte, len(files))
		g, ctx := errgroup.WithContext(cmd.Context())
		g.SetLimit(max(bJobs, 1))
		for i, path := range files {
			g.Go(func() error {
				t, err := bInput.load(ctx, log, path)
				if err != nil {
					return fmt.Errorf("%s: %w", filepath.Base(path), err)
				}
				res, err := sampling.Sample(t.Rows, t.Headers, opt)
				if err != nil {
					return fmt.Errorf("%s: %w", filepath.Base(path), err)
				}
				if bContext {
					rendered[i] = []byte(fitContext(res, bContextRows, bTokenLimit))
					return nil
				}
				b, err := utils.Encode(res, format)
				if err != nil {
					return err
				}
				rendered[i] = b
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return err
		}

		ext := "." + strings.ToLower(format)
		if ext == "." {
			ext = ".json"
		}
		if bContext {
			ext = ".context.txt"
		}
		out := cmd.OutOrStdout()
		for i, path := range files {
			target := uniqueOutputPath(bOutDir, outputBase(path, bInput.sheetName), ext)
			if err := utils.SafeWriteFile(target, rendered[i]); err != nil {
				return err
			}
			if !bQuiet {
				fmt.Fprintf(out, "[%d/%d] %s → %s\n", i+1, len(files), filepath.Base(path), filepath.Base(target))
			}
		}
		log.Info().Int("files", len(files)).Str("out_dir", bOutDir).Msg("batch complete")
		return nil
	},
}

// expandInputs resolves globs and literal paths, dropping duplicates.
func expandInputs(args []string) ([]string, error) {
	var files []string
	seen := map[string]struct{}{}
	for _, arg := range args {
		matches, _ := filepath.Glob(arg)
		if len(matches) == 0 {
			// treat as literal path if exists
			if _, err := os.Stat(arg); err == nil {
				matches = []string{arg}
			}
		}
		for _, m := range matches {
			if _, ok := seen[m]; ok {
				continue
			}
			seen[m] = struct{}{}
			files = append(files, m)
		}
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no input files matched")
	}
	sort.Strings(files)
	return files, nil
}

// outputBase derives a file stem from the input name and optional sheet.
func outputBase(path, sheet string) string {
	base := filepath.Base(path)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	if sheet == "" {
		return stem
	}
	var b strings.Builder
	for _, r := range strings.ToLower(strings.TrimSpace(sheet)) {
		switch {
		case (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9'):
			b.WriteRune(r)
		case r == ' ' || r == '-' || r == '_':
			b.WriteRune('-')
		}
	}
	s := strings.Trim(b.String(), "-")
	if s == "" {
		s = "sheet"
	}
	return stem + "__sheet-" + s
}

// uniqueOutputPath returns dir/base+ext, or dir/base__N+ext when taken.
func uniqueOutputPath(dir, base, ext string) string {
	cand := filepath.Join(dir, base+ext)
	for idx := 2; ; idx++ {
		if _, err := os.Stat(cand); os.IsNotExist(err) {
			return cand
		}
		cand = filepath.Join(dir, fmt.Sprintf("%s__%d%s", base, idx, ext))
	}
}

func batchOptions(cmd *cobra.Command) (sampling.Options, error) {
	c := currentConfig()
	opt := sampling.DefaultOptions()
	if c.MaxRows > 0 {
		opt.MaxRows = c.MaxRows
	}
	if c.Strategy != "" {
		opt.Strategy = sampling.Strategy(c.Strategy)
	}
	opt.Parallelism = c.Parallelism
	opt.Seed = sampling.ClockSeed()
	f := cmd.Flags()
	if f.Changed("max-rows") {
		opt.MaxRows = bMaxRows
	}
	if f.Changed("strategy") {
		opt.Strategy = sampling.Strategy(bStrategy)
	}
	if f.Changed("parallelism") {
		opt.Parallelism = bParallelism
	}
	if f.Changed("seed") {
		opt.Seed = bSeed
	}
	if !f.Changed("context-rows") {
		bContextRows = c.ContextRows
	}
	if !f.Changed("token-limit") {
		bTokenLimit = c.TokenLimit
	}
	st, err := sampling.ParseStrategy(string(opt.Strategy))
	if err != nil {
		return opt, err
	}
	opt.Strategy = st
	loc, err := bInput.locale()
	if err != nil {
		return opt, err
	}
	opt.Locale = loc
	return opt, nil
}

func init() {
	rootCmd.AddCommand(batchCmd)
	bInput.register(batchCmd)
	batchCmd.Flags().StringVar(&bOutDir, "out-dir", "", "directory for per-file results (required)")
	batchCmd.Flags().StringVar(&bFormat, "format", "", "output format: json|yaml (overrides config)")
	batchCmd.Flags().IntVar(&bMaxRows, "max-rows", sampling.DefaultMaxRows, "maximum rows to keep per file")
	batchCmd.Flags().StringVar(&bStrategy, "strategy", string(sampling.StrategySmart), "random|stratified|systematic|first|smart")
	batchCmd.Flags().Int64Var(&bSeed, "seed", 0, "seed for random and smart sampling (default: clock)")
	batchCmd.Flags().IntVar(&bParallelism, "parallelism", 1, "columns profiled concurrently per file")
	batchCmd.Flags().BoolVar(&bContext, "context", false, "write LLM prompt digests instead of structured results")
	batchCmd.Flags().IntVar(&bContextRows, "context-rows", 10, "sample rows included in each digest")
	batchCmd.Flags().IntVar(&bTokenLimit, "token-limit", 0, "approximate token budget per digest (0 = unlimited)")
	batchCmd.Flags().IntVar(&bJobs, "jobs", 4, "files processed concurrently")
	batchCmd.Flags().BoolVarP(&bQuiet, "quiet", "q", false, "suppress per-file progress lines")
}
