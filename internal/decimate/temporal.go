package decimate

import (
	"fmt"
	"sort"
	"time"

	"github.com/KaramelBytes/sheetreduce/internal/coerce"
)

// Fields added to every point produced by calendar aggregation.
const (
	FieldCount  = "_count"
	FieldPeriod = "_period"
)

const timeProbeSize = 5

// Size thresholds shared by GroupAuto and Recommend.
const (
	monthlyThreshold = 10000
	weeklyThreshold  = 5000
)

// IsTimeSeries reports whether every x-value among the first five points
// parses as a date. Unparseable values fail the probe; they never error.
func IsTimeSeries(series []Point, xKey string) bool {
	if len(series) == 0 {
		return false
	}
	for _, p := range series[:min(timeProbeSize, len(series))] {
		if _, ok := coerce.ParseTime(p[xKey]); !ok {
			return false
		}
	}
	return true
}

// autoGranularity picks a bucket size from the series length.
func autoGranularity(n int) Granularity {
	switch {
	case n > monthlyThreshold:
		return GroupMonth
	case n > weeklyThreshold:
		return GroupWeek
	default:
		return GroupDay
	}
}

// bucketOf returns the start of the calendar bucket containing t and its label.
// Weeks follow ISO 8601 and start on Monday.
func bucketOf(t time.Time, g Granularity) (time.Time, string) {
	y, m, d := t.Date()
	switch g {
	case GroupWeek:
		day := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
		monday := day.AddDate(0, 0, -((int(t.Weekday()) + 6) % 7))
		wy, wk := t.ISOWeek()
		return monday, fmt.Sprintf("%04d-W%02d", wy, wk)
	case GroupMonth:
		return time.Date(y, m, 1, 0, 0, 0, 0, time.UTC), fmt.Sprintf("%04d-%02d", y, int(m))
	case GroupYear:
		return time.Date(y, 1, 1, 0, 0, 0, 0, time.UTC), fmt.Sprintf("%04d", y)
	default:
		start := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
		return start, start.Format("2006-01-02")
	}
}

// groupByTime aggregates points into calendar buckets sorted by bucket start.
// Points whose x-value does not parse are left out and counted in skipped.
func groupByTime(series []Point, xKey string, yKeys []string, g Granularity, agg Aggregation, loc coerce.Locale) (out []Point, skipped int) {
	type bucket struct {
		start time.Time
		label string
		ys    [][]float64
	}
	buckets := map[string]*bucket{}
	for _, p := range series {
		t, ok := coerce.ParseTime(p[xKey])
		if !ok {
			skipped++
			continue
		}
		start, label := bucketOf(t, g)
		b := buckets[label]
		if b == nil {
			b = &bucket{start: start, label: label, ys: make([][]float64, len(yKeys))}
			buckets[label] = b
		}
		for i, k := range yKeys {
			b.ys[i] = append(b.ys[i], loc.ToFloat(p[k]))
		}
	}

	ordered := make([]*bucket, 0, len(buckets))
	for _, b := range buckets {
		ordered = append(ordered, b)
	}
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].start.Before(ordered[j].start) })

	out = make([]Point, 0, len(ordered))
	for _, b := range ordered {
		p := Point{
			xKey:        b.start.Format("2006-01-02"),
			FieldPeriod: b.label,
			FieldCount:  len(b.ys[0]),
		}
		for i, k := range yKeys {
			p[k] = agg.apply(b.ys[i])
		}
		out = append(out, p)
	}
	return out, skipped
}
