// Package decimate reduces chart series to a bounded number of points while
// keeping their visual shape.
package decimate

import (
	"fmt"
	"maps"
	"strings"

	"github.com/KaramelBytes/sheetreduce/internal/coerce"
	"github.com/KaramelBytes/sheetreduce/internal/tabular"
)

// Point is one series entry keyed by field name.
type Point map[string]any

// MethodNone is reported when the series already fits.
const MethodNone = "none"

// Result is the reduced series and how it was produced.
type Result struct {
	Data               []Point `json:"data"`
	OriginalSize       int     `json:"originalSize"`
	OptimizedSize      int     `json:"optimizedSize"`
	AggregationApplied bool    `json:"aggregationApplied"`
	DecimationApplied  bool    `json:"decimationApplied"`
	Method             string  `json:"method"`
	SkippedPoints      int     `json:"skippedPoints,omitempty"`
}

// Optimize reduces series to at most opt.MaxDataPoints points (nth and minmax
// may return one more). yKeys[0] drives the single-key algorithms. A series
// that already fits is returned as is. Only invalid parameters return an
// error; malformed numbers read as 0.
func Optimize(series []Point, xKey string, yKeys []string, opt Options) (*Result, error) {
	opt, err := opt.normalize()
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(xKey) == "" {
		return nil, fmt.Errorf("%w: x key is required", ErrInvalidOption)
	}
	if len(yKeys) == 0 {
		return nil, fmt.Errorf("%w: at least one y key is required", ErrInvalidOption)
	}
	for _, k := range yKeys {
		if strings.TrimSpace(k) == "" {
			return nil, fmt.Errorf("%w: empty y key", ErrInvalidOption)
		}
	}
	if len(series) > 0 {
		for _, k := range append([]string{xKey}, yKeys...) {
			if _, ok := series[0][k]; !ok {
				return nil, fmt.Errorf("%w: key %q missing from series points", ErrInvalidOption, k)
			}
		}
	}

	res := &Result{OriginalSize: len(series), Method: MethodNone}
	if len(series) <= opt.MaxDataPoints {
		res.Data = append(make([]Point, 0, len(series)), series...)
		res.OptimizedSize = len(series)
		return res, nil
	}

	data := series
	prefix := ""
	g := opt.GroupBy
	if g == GroupAuto {
		g = autoGranularity(len(series))
	}
	if g != GroupNone && IsTimeSeries(series, xKey) {
		grouped, skipped := groupByTime(series, xKey, yKeys, g, opt.Aggregation, opt.Locale)
		res.AggregationApplied = true
		res.SkippedPoints = skipped
		method := "time-aggregation-" + string(g)
		if len(grouped) <= opt.MaxDataPoints {
			res.Data = grouped
			res.OptimizedSize = len(grouped)
			res.Method = method
			return res, nil
		}
		data = grouped
		prefix = method + "+"
	}

	res.Data = reduce(data, xKey, yKeys, opt)
	res.OptimizedSize = len(res.Data)
	res.DecimationApplied = true
	res.Method = prefix + string(opt.Algorithm)
	return res, nil
}

func reduce(data []Point, xKey string, yKeys []string, opt Options) []Point {
	y := column(data, yKeys[0], opt.Locale)
	var idx []int
	switch opt.Algorithm {
	case AlgorithmNth:
		idx = nthPoint(len(data), opt.MaxDataPoints)
	case AlgorithmMinMax:
		idx = minMax(y, opt.MaxDataPoints)
	case AlgorithmAverage:
		return bucketAverage(data, yKeys, opt)
	default:
		idx = lttb(xCoordinates(data, xKey, opt.Locale), y, opt.MaxDataPoints)
	}
	out := make([]Point, len(idx))
	for i, j := range idx {
		out[i] = data[j]
	}
	return out
}

// bucketAverage emits one point per bucket: a copy of the bucket's first
// point with every y-key replaced by the bucket aggregate.
func bucketAverage(data []Point, yKeys []string, opt Options) []Point {
	cols := make([][]float64, len(yKeys))
	for i, k := range yKeys {
		cols[i] = column(data, k, opt.Locale)
	}
	ranges := bucketRanges(len(data), opt.MaxDataPoints)
	out := make([]Point, 0, len(ranges))
	for _, r := range ranges {
		p := maps.Clone(data[r[0]])
		if p == nil {
			p = Point{}
		}
		for i, k := range yKeys {
			p[k] = opt.Aggregation.apply(cols[i][r[0]:r[1]])
		}
		out = append(out, p)
	}
	return out
}

// column reads key from every point, coercing malformed values to 0.
func column(data []Point, key string, loc coerce.Locale) []float64 {
	out := make([]float64, len(data))
	for i, p := range data {
		out[i] = loc.ToFloat(p[key])
	}
	return out
}

// xCoordinates returns numeric x positions for LTTB: the x-values themselves
// when all are numeric, Unix milliseconds when all are dates, else the index.
func xCoordinates(data []Point, xKey string, loc coerce.Locale) []float64 {
	out := make([]float64, len(data))
	numeric := true
	for i, p := range data {
		v, ok := loc.Number(p[xKey])
		if !ok {
			numeric = false
			break
		}
		out[i] = v
	}
	if numeric {
		return out
	}
	temporal := true
	for i, p := range data {
		t, ok := coerce.ParseTime(p[xKey])
		if !ok {
			temporal = false
			break
		}
		out[i] = float64(t.UnixMilli())
	}
	if temporal {
		return out
	}
	for i := range out {
		out[i] = float64(i)
	}
	return out
}

// PointsFromTable converts table rows to series points keyed by header.
func PointsFromTable(t *tabular.Table) []Point {
	recs := t.Records()
	out := make([]Point, len(recs))
	for i, r := range recs {
		out[i] = Point(r)
	}
	return out
}
