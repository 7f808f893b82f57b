package decimate

import (
	"errors"
	"fmt"
	"strings"

	"github.com/KaramelBytes/sheetreduce/internal/coerce"
)

// ErrInvalidOption is returned for unknown enum values and out-of-range limits.
var ErrInvalidOption = errors.New("invalid decimation option")

// DefaultMaxDataPoints is used when Options.MaxDataPoints is zero.
const DefaultMaxDataPoints = 500

// Algorithm selects how an oversized series is thinned.
type Algorithm string

const (
	AlgorithmLTTB    Algorithm = "lttb"
	AlgorithmNth     Algorithm = "nth"
	AlgorithmMinMax  Algorithm = "minmax"
	AlgorithmAverage Algorithm = "average"
)

// ParseAlgorithm validates an algorithm name. The empty string selects lttb.
func ParseAlgorithm(s string) (Algorithm, error) {
	switch a := Algorithm(strings.ToLower(strings.TrimSpace(s))); a {
	case "":
		return AlgorithmLTTB, nil
	case AlgorithmLTTB, AlgorithmNth, AlgorithmMinMax, AlgorithmAverage:
		return a, nil
	default:
		return "", fmt.Errorf("%w: unknown algorithm %q (use lttb|nth|minmax|average)", ErrInvalidOption, s)
	}
}

// Aggregation combines the y-values of one bucket.
type Aggregation string

const (
	AggregateAverage Aggregation = "average"
	AggregateSum     Aggregation = "sum"
	AggregateMin     Aggregation = "min"
	AggregateMax     Aggregation = "max"
	AggregateFirst   Aggregation = "first"
	AggregateLast    Aggregation = "last"
)

// ParseAggregation validates an aggregation name. The empty string selects average.
func ParseAggregation(s string) (Aggregation, error) {
	switch a := Aggregation(strings.ToLower(strings.TrimSpace(s))); a {
	case "":
		return AggregateAverage, nil
	case AggregateAverage, AggregateSum, AggregateMin, AggregateMax, AggregateFirst, AggregateLast:
		return a, nil
	default:
		return "", fmt.Errorf("%w: unknown aggregation %q (use average|sum|min|max|first|last)", ErrInvalidOption, s)
	}
}

// apply aggregates vals; an empty slice yields 0.
func (a Aggregation) apply(vals []float64) float64 {
	if len(vals) == 0 {
		return 0
	}
	switch a {
	case AggregateSum, AggregateAverage:
		var sum float64
		for _, v := range vals {
			sum += v
		}
		if a == AggregateSum {
			return sum
		}
		return sum / float64(len(vals))
	case AggregateMin:
		m := vals[0]
		for _, v := range vals[1:] {
			m = min(m, v)
		}
		return m
	case AggregateMax:
		m := vals[0]
		for _, v := range vals[1:] {
			m = max(m, v)
		}
		return m
	case AggregateFirst:
		return vals[0]
	case AggregateLast:
		return vals[len(vals)-1]
	}
	return 0
}

// Granularity is a calendar bucket size for time-based series.
type Granularity string

const (
	GroupNone  Granularity = "none"
	GroupAuto  Granularity = "auto"
	GroupDay   Granularity = "day"
	GroupWeek  Granularity = "week"
	GroupMonth Granularity = "month"
	GroupYear  Granularity = "year"
)

// ParseGranularity validates a grouping name. "", "none" and "off" disable grouping.
func ParseGranularity(s string) (Granularity, error) {
	switch g := Granularity(strings.ToLower(strings.TrimSpace(s))); g {
	case "", GroupNone, "off":
		return GroupNone, nil
	case GroupAuto, GroupDay, GroupWeek, GroupMonth, GroupYear:
		return g, nil
	default:
		return "", fmt.Errorf("%w: unknown group-by %q (use auto|day|week|month|year|none)", ErrInvalidOption, s)
	}
}

// Options controls Optimize. Zero values select the defaults.
type Options struct {
	MaxDataPoints int         `json:"maxDataPoints"`
	Aggregation   Aggregation `json:"aggregationMethod"`
	Algorithm     Algorithm   `json:"decimationAlgorithm"`
	GroupBy       Granularity `json:"groupBy"`
	// Locale for numeric y-values given as strings.
	Locale coerce.Locale `json:"-"`
}

// DefaultOptions returns LTTB down to DefaultMaxDataPoints with average aggregation.
func DefaultOptions() Options {
	return Options{
		MaxDataPoints: DefaultMaxDataPoints,
		Aggregation:   AggregateAverage,
		Algorithm:     AlgorithmLTTB,
		GroupBy:       GroupNone,
	}
}

func (o Options) normalize() (Options, error) {
	if o.MaxDataPoints < 0 {
		return o, fmt.Errorf("%w: max data points must be positive, got %d", ErrInvalidOption, o.MaxDataPoints)
	}
	if o.MaxDataPoints == 0 {
		o.MaxDataPoints = DefaultMaxDataPoints
	}
	var err error
	if o.Algorithm, err = ParseAlgorithm(string(o.Algorithm)); err != nil {
		return o, err
	}
	if o.Aggregation, err = ParseAggregation(string(o.Aggregation)); err != nil {
		return o, err
	}
	if o.GroupBy, err = ParseGranularity(string(o.GroupBy)); err != nil {
		return o, err
	}
	return o, nil
}
