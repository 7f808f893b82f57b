// Package sampling reduces a row table to a bounded set of representative rows
// and attaches column statistics computed over the whole table.
package sampling

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/KaramelBytes/sheetreduce/internal/coerce"
	"github.com/KaramelBytes/sheetreduce/internal/stats"
)

// Strategy names a row sampling method.
type Strategy string

const (
	StrategyRandom     Strategy = "random"
	StrategyStratified Strategy = "stratified"
	StrategySystematic Strategy = "systematic"
	StrategyFirst      Strategy = "first"
	StrategySmart      Strategy = "smart"
	// StrategyFull is reported when every row fits and nothing was dropped.
	StrategyFull Strategy = "full"
)

// DefaultMaxRows is used when Options.MaxRows is zero.
const DefaultMaxRows = 500

// ErrInvalidOption is returned for out-of-range or unknown options.
var ErrInvalidOption = errors.New("invalid sampling option")

// ParseStrategy validates a strategy name. The empty string selects smart.
func ParseStrategy(s string) (Strategy, error) {
	switch st := Strategy(strings.ToLower(strings.TrimSpace(s))); st {
	case "":
		return StrategySmart, nil
	case StrategyRandom, StrategyStratified, StrategySystematic, StrategyFirst, StrategySmart:
		return st, nil
	default:
		return "", fmt.Errorf("%w: unknown strategy %q (use random|stratified|systematic|first|smart)", ErrInvalidOption, s)
	}
}

// Options controls Sample.
type Options struct {
	// MaxRows bounds the sample; 0 means DefaultMaxRows.
	MaxRows int
	// Strategy defaults to smart.
	Strategy Strategy
	// Seed drives the random and smart strategies. It is used verbatim.
	Seed int64
	// Locale for numeric cells.
	Locale coerce.Locale
	// Parallelism for column profiling.
	Parallelism int
}

// DefaultOptions returns smart sampling of up to DefaultMaxRows rows.
func DefaultOptions() Options {
	return Options{MaxRows: DefaultMaxRows, Strategy: StrategySmart}
}

// ClockSeed derives a seed from the wall clock for callers that do not need
// reproducible samples.
func ClockSeed() int64 {
	return time.Now().UnixMilli()
}

// Aggregates are computed over every input row, never over the sample.
type Aggregates struct {
	RowCount         int                             `json:"rowCount"`
	ColumnStats      []stats.ColumnProfile           `json:"columnStats"`
	NumericalSummary map[string]stats.NumericSummary `json:"numericalSummary,omitempty"`
}

// Result is the reduced table plus whole-table aggregates.
type Result struct {
	Headers    []string    `json:"headers"`
	Samples    [][]any     `json:"samples"`
	TotalRows  int         `json:"totalRows"`
	SampleSize int         `json:"sampleSize"`
	Strategy   Strategy    `json:"strategy"`
	Seed       *int64      `json:"seed,omitempty"`
	Aggregates *Aggregates `json:"aggregates,omitempty"`
}

// Sample returns at most opt.MaxRows rows of rows chosen by opt.Strategy.
// When every row fits they are all returned and the strategy is reported as
// full. Malformed cells never cause an error; only invalid options do.
func Sample(rows [][]any, headers []string, opt Options) (*Result, error) {
	if opt.MaxRows < 0 {
		return nil, fmt.Errorf("%w: max rows must be positive, got %d", ErrInvalidOption, opt.MaxRows)
	}
	if opt.MaxRows == 0 {
		opt.MaxRows = DefaultMaxRows
	}
	strategy, err := ParseStrategy(string(opt.Strategy))
	if err != nil {
		return nil, err
	}

	res := &Result{
		Headers:    headers,
		TotalRows:  len(rows),
		Aggregates: Aggregate(rows, headers, opt),
	}
	if len(rows) <= opt.MaxRows {
		res.Samples = append(make([][]any, 0, len(rows)), rows...)
		res.SampleSize = len(rows)
		res.Strategy = StrategyFull
		return res, nil
	}

	var idx []int
	switch strategy {
	case StrategyFirst:
		idx = firstIndices(len(rows), opt.MaxRows)
	case StrategyRandom:
		idx = randomIndices(len(rows), opt.MaxRows, opt.Seed)
	case StrategySystematic:
		idx = systematicIndices(len(rows), opt.MaxRows)
	case StrategyStratified:
		idx = stratifiedIndices(rows, len(headers), opt.MaxRows, opt.Locale)
	case StrategySmart:
		idx = smartIndices(len(rows), opt.MaxRows, opt.Seed)
	}
	if strategy == StrategyRandom || strategy == StrategySmart {
		seed := opt.Seed
		res.Seed = &seed
	}

	res.Samples = make([][]any, len(idx))
	for i, j := range idx {
		res.Samples[i] = rows[j]
	}
	res.SampleSize = len(idx)
	res.Strategy = strategy
	return res, nil
}

// Aggregate profiles every column over all rows.
func Aggregate(rows [][]any, headers []string, opt Options) *Aggregates {
	profiles := stats.ProfileColumns(headers, rows, stats.Options{Locale: opt.Locale, Parallelism: opt.Parallelism})
	agg := &Aggregates{RowCount: len(rows), ColumnStats: profiles}
	seen := map[string]int{}
	for i, p := range profiles {
		seen[p.Name]++
		if p.Numeric == nil {
			continue
		}
		key := p.Name
		if seen[p.Name] > 1 {
			key = fmt.Sprintf("%s#%d", p.Name, i+1)
		}
		if agg.NumericalSummary == nil {
			agg.NumericalSummary = map[string]stats.NumericSummary{}
		}
		agg.NumericalSummary[key] = *p.Numeric
	}
	return agg
}
