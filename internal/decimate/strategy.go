package decimate

import (
	"fmt"
	"strings"
)

// ChartType is the renderer hint consulted by Recommend.
type ChartType string

const (
	ChartLine    ChartType = "line"
	ChartArea    ChartType = "area"
	ChartBar     ChartType = "bar"
	ChartScatter ChartType = "scatter"
)

// ParseChartType validates a chart type. The empty string selects line.
func ParseChartType(s string) (ChartType, error) {
	switch c := ChartType(strings.ToLower(strings.TrimSpace(s))); c {
	case "":
		return ChartLine, nil
	case ChartLine, ChartArea, ChartBar, ChartScatter:
		return c, nil
	default:
		return "", fmt.Errorf("%w: unknown chart type %q (use line|area|bar|scatter)", ErrInvalidOption, s)
	}
}

// Limits used by Recommend.
const (
	passThroughLimit = 500
	scatterPoints    = 1000
	barPoints        = 100
)

// Recommendation is the selector's suggested configuration for a series.
type Recommendation struct {
	Reduce     bool    `json:"reduce"`
	TimeSeries bool    `json:"timeSeries"`
	Options    Options `json:"options"`
	Reason     string  `json:"reason"`
}

// Recommend suggests Optimize options from the series size, whether its
// x-axis is time based, and the chart type. Optimize never calls it.
func Recommend(series []Point, xKey string, chart ChartType) Recommendation {
	n := len(series)
	rec := Recommendation{TimeSeries: IsTimeSeries(series, xKey), Options: DefaultOptions()}
	if n <= passThroughLimit {
		rec.Options.MaxDataPoints = passThroughLimit
		rec.Reason = fmt.Sprintf("%d points fit without reduction", n)
		return rec
	}
	rec.Reduce = true

	if rec.TimeSeries {
		g := autoGranularity(n)
		rec.Options.GroupBy = g
		rec.Reason = fmt.Sprintf("time series of %d points: %s grouping, then lttb", n, g)
		return rec
	}

	switch chart {
	case ChartScatter:
		rec.Options.Algorithm = AlgorithmNth
		rec.Options.MaxDataPoints = scatterPoints
		rec.Reason = "scatter plot: every nth point keeps the cloud's density"
	case ChartBar:
		rec.Options.Algorithm = AlgorithmAverage
		rec.Options.Aggregation = AggregateSum
		rec.Options.MaxDataPoints = barPoints
		rec.Reason = "bar chart: summed buckets keep categories readable"
	default:
		rec.Reason = fmt.Sprintf("%s chart: lttb keeps peaks and valleys", chartOrLine(chart))
	}
	return rec
}

func chartOrLine(c ChartType) ChartType {
	if c == "" {
		return ChartLine
	}
	return c
}
