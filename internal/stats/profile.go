// Package stats infers column types and computes whole-dataset column profiles.
package stats

import (
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/KaramelBytes/sheetreduce/internal/coerce"
	"golang.org/x/sync/errgroup"
)

// DataType is the inferred type of a cell or column.
type DataType string

const (
	TypeString  DataType = "string"
	TypeNumber  DataType = "number"
	TypeDate    DataType = "date"
	TypeBoolean DataType = "boolean"
	TypeMixed   DataType = "mixed"
)

// TopValuesLimit caps ColumnProfile.TopValues.
const TopValuesLimit = 5

// ValueCount is one entry of a column's most frequent values.
type ValueCount struct {
	Value string `json:"value"`
	Count int    `json:"count"`
}

// ColumnProfile summarizes one column over every row of a dataset.
type ColumnProfile struct {
	Name             string          `json:"name"`
	DataType         DataType        `json:"dataType"`
	UniqueValueCount int             `json:"uniqueValueCount"`
	NullCount        int             `json:"nullCount"`
	TopValues        []ValueCount    `json:"topValues"`
	Numeric          *NumericSummary `json:"numericSummary,omitempty"`
}

// Options controls profiling.
type Options struct {
	Locale coerce.Locale
	// Parallelism > 1 profiles up to that many columns concurrently.
	Parallelism int
}

// Classify returns the type of a single non-null value. Numbers are tried
// first, then boolean literals, then dates; anything else is a string.
func Classify(v any, loc coerce.Locale) DataType {
	if _, ok := loc.Number(v); ok {
		return TypeNumber
	}
	if _, ok := coerce.ParseBool(v); ok {
		return TypeBoolean
	}
	if _, ok := coerce.ParseTime(v); ok {
		return TypeDate
	}
	return TypeString
}

// ProfileColumns profiles every column of rows. Short rows read as nulls.
func ProfileColumns(headers []string, rows [][]any, opt Options) []ColumnProfile {
	out := make([]ColumnProfile, len(headers))
	if opt.Parallelism <= 1 || len(headers) < 2 {
		for i, h := range headers {
			out[i] = ProfileColumn(h, rows, i, opt.Locale)
		}
		return out
	}
	var g errgroup.Group
	g.SetLimit(opt.Parallelism)
	for i, h := range headers {
		g.Go(func() error {
			out[i] = ProfileColumn(h, rows, i, opt.Locale)
			return nil
		})
	}
	_ = g.Wait() // workers never fail
	return out
}

// ProfileColumn scans column col of every row.
func ProfileColumn(name string, rows [][]any, col int, loc coerce.Locale) ColumnProfile {
	p := ColumnProfile{Name: name, TopValues: []ValueCount{}}
	counts := map[string]int{}
	seen := map[DataType]bool{}
	var nums []float64
	for _, row := range rows {
		var v any
		if col < len(row) {
			v = row[col]
		}
		if coerce.IsNull(v) {
			p.NullCount++
			continue
		}
		counts[Render(v)]++
		kind := Classify(v, loc)
		seen[kind] = true
		if kind == TypeNumber {
			x, _ := loc.Number(v)
			nums = append(nums, x)
		}
	}

	switch len(seen) {
	case 0:
		p.DataType = TypeString
	case 1:
		for k := range seen {
			p.DataType = k
		}
	default:
		p.DataType = TypeMixed
	}
	p.UniqueValueCount = len(counts)
	p.TopValues = topValues(counts, TopValuesLimit)
	if len(nums) > 0 && (p.DataType == TypeNumber || p.DataType == TypeMixed) {
		s := Summarize(nums)
		p.Numeric = &s
	}
	return p
}

func topValues(counts map[string]int, limit int) []ValueCount {
	tops := make([]ValueCount, 0, len(counts))
	for k, v := range counts {
		tops = append(tops, ValueCount{Value: k, Count: v})
	}
	sort.Slice(tops, func(i, j int) bool {
		if tops[i].Count == tops[j].Count {
			return tops[i].Value < tops[j].Value
		}
		return tops[i].Count > tops[j].Count
	})
	if len(tops) > limit {
		tops = tops[:limit]
	}
	return tops
}

// Render is the string form used for cardinality and top values.
func Render(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case time.Time:
		return x.Format(time.RFC3339)
	case float64:
		return strconv.FormatFloat(x, 'g', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(x), 'g', -1, 32)
	default:
		return fmt.Sprint(x)
	}
}
