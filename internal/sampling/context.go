package sampling

import (
	"fmt"
	"sort"
	"strings"

	"github.com/KaramelBytes/sheetreduce/internal/stats"
)

// PrepareLLMContext renders a compact digest of a sampling result for a
// language-model prompt. Statistics describe the whole dataset even when only
// a few rows were sampled.
func PrepareLLMContext(res *Result) string {
	return PrepareLLMContextWithRows(res, 0)
}

// PrepareLLMContextWithRows is PrepareLLMContext followed by a markdown table
// of up to maxRows sampled rows.
func PrepareLLMContextWithRows(res *Result, maxRows int) string {
	if res == nil {
		return ""
	}
	var b strings.Builder
	b.WriteString("[DATASET SUMMARY]\n")
	if res.Strategy == StrategyFull {
		b.WriteString(fmt.Sprintf("Rows: %d (all rows included)\n", res.TotalRows))
	} else {
		ratio := 0.0
		if res.TotalRows > 0 {
			ratio = float64(res.SampleSize) * 100.0 / float64(res.TotalRows)
		}
		b.WriteString(fmt.Sprintf("Rows: %d (sampled %d, %.1f%%, strategy %s)\n", res.TotalRows, res.SampleSize, ratio, res.Strategy))
	}
	var cols []stats.ColumnProfile
	if res.Aggregates != nil {
		cols = res.Aggregates.ColumnStats
	}
	b.WriteString(fmt.Sprintf("Columns: %d\n", len(cols)))

	if len(cols) > 0 {
		b.WriteString("\n[SCHEMA]\n")
		for _, c := range cols {
			b.WriteString(fmt.Sprintf("- %s: %s (unique %d, nulls %d)", safeName(c.Name), c.DataType, c.UniqueValueCount, c.NullCount))
			if len(c.TopValues) > 0 && c.DataType != stats.TypeNumber {
				b.WriteString(" — top: ")
				for i, kv := range c.TopValues {
					if i > 0 {
						b.WriteString(", ")
					}
					b.WriteString(fmt.Sprintf("%s(%d)", safeVal(clip(kv.Value, 40)), kv.Count))
				}
			}
			b.WriteString("\n")
		}
	}

	if res.Aggregates != nil && len(res.Aggregates.NumericalSummary) > 0 {
		b.WriteString("\n[NUMERIC SUMMARY]\n")
		keys := make([]string, 0, len(res.Aggregates.NumericalSummary))
		for k := range res.Aggregates.NumericalSummary {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			s := res.Aggregates.NumericalSummary[k]
			b.WriteString(fmt.Sprintf("- %s: min %.4g, max %.4g, mean %.4g, median %.4g, sum %.4g, std %.4g\n",
				safeName(k), s.Min, s.Max, s.Mean, s.Median, s.Sum, s.StdDev))
		}
	}

	if maxRows > 0 && len(res.Samples) > 0 && len(res.Headers) > 0 {
		b.WriteString("\n[SAMPLE ROWS]\n| ")
		for i, h := range res.Headers {
			if i > 0 {
				b.WriteString(" | ")
			}
			b.WriteString(safeVal(safeName(h)))
		}
		b.WriteString(" |\n|")
		for range res.Headers {
			b.WriteString(" --- |")
		}
		b.WriteString("\n")
		for r, row := range res.Samples {
			if r >= maxRows {
				break
			}
			b.WriteString("| ")
			for i := range res.Headers {
				if i > 0 {
					b.WriteString(" | ")
				}
				var cell any
				if i < len(row) {
					cell = row[i]
				}
				b.WriteString(safeVal(clip(stats.Render(cell), 80)))
			}
			b.WriteString(" |\n")
		}
	}
	return b.String()
}

func safeName(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return "(unnamed)"
	}
	return s
}

func safeVal(s string) string { return strings.ReplaceAll(strings.ReplaceAll(s, "\n", " "), "|", "/") }

// clip shortens s to n runes, ending in "...".
func clip(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}
