package stats

import (
	"math"
	"sort"
)

// NumericSummary describes the parseable numeric values of one column.
type NumericSummary struct {
	Count  int     `json:"count"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	Mean   float64 `json:"mean"`
	Median float64 `json:"median"`
	Sum    float64 `json:"sum"`
	StdDev float64 `json:"stdDev"`
}

// Summarize computes min/max/mean/median/sum and the population standard
// deviation of vals. An empty slice yields the zero summary.
func Summarize(vals []float64) NumericSummary {
	if len(vals) == 0 {
		return NumericSummary{}
	}
	s := NumericSummary{Count: len(vals), Min: math.Inf(1), Max: math.Inf(-1)}
	// Welford update
	var mean, m2 float64
	for i, x := range vals {
		s.Sum += x
		if x < s.Min {
			s.Min = x
		}
		if x > s.Max {
			s.Max = x
		}
		delta := x - mean
		mean += delta / float64(i+1)
		m2 += delta * (x - mean)
	}
	s.Mean = mean
	s.StdDev = math.Sqrt(m2 / float64(len(vals)))
	s.Median = Median(vals)
	return s
}

// Median returns the middle value of vals (mean of the two middle values for
// even lengths). vals is not modified.
func Median(vals []float64) float64 {
	if len(vals) == 0 {
		return 0
	}
	cp := make([]float64, len(vals))
	copy(cp, vals)
	sort.Float64s(cp)
	return quantile(cp, 0.5)
}

// StdDev returns the population standard deviation of vals.
func StdDev(vals []float64) float64 {
	if len(vals) == 0 {
		return 0
	}
	return Summarize(vals).StdDev
}

func quantile(sorted []float64, q float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	if q <= 0 {
		return sorted[0]
	}
	if q >= 1 {
		return sorted[len(sorted)-1]
	}
	pos := q * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	w := pos - float64(lo)
	return sorted[lo]*(1-w) + sorted[hi]*w
}
