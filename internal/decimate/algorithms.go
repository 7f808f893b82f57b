package decimate

import "math"

// The algorithms below work on index positions so the caller can hand back
// the original points untouched. Each assumes len(y) > threshold >= 1.

// lttb implements Largest-Triangle-Three-Buckets. The first and last points
// are always kept; every other slot takes the point of its bucket forming the
// largest triangle with the previous pick and the next bucket's average.
func lttb(x, y []float64, threshold int) []int {
	n := len(y)
	switch {
	case threshold >= n:
		return allIndices(n)
	case threshold == 1:
		return []int{0}
	case threshold == 2:
		return []int{0, n - 1}
	}

	// Bucket size. Leave room for start and end data points
	size := float64(n-2) / float64(threshold-2)
	idx := make([]int, 0, threshold)
	idx = append(idx, 0)
	a := 0
	for i := 0; i < threshold-2; i++ {
		lo := int(float64(i)*size) + 1
		hi := int(float64(i+1)*size) + 1
		if i == threshold-3 || hi > n-1 {
			hi = n - 1
		}
		if lo >= hi {
			lo = hi - 1
		}

		nlo := hi
		nhi := int(float64(i+2)*size) + 1
		if nhi > n {
			nhi = n
		}
		if nlo >= nhi {
			nlo, nhi = n-1, n
		}
		var cx, cy float64
		for j := nlo; j < nhi; j++ {
			cx += x[j]
			cy += y[j]
		}
		cnt := float64(nhi - nlo)
		cx, cy = cx/cnt, cy/cnt

		ax, ay := x[a], y[a]
		best, bestArea := lo, -1.0
		for j := lo; j < hi; j++ {
			area := math.Abs((ax-cx)*(y[j]-ay) - (ax-x[j])*(cy-ay))
			if area > bestArea {
				best, bestArea = j, area
			}
		}
		idx = append(idx, best)
		a = best
	}
	return append(idx, n-1)
}

// minMax emits the lowest and highest point of each bucket of about
// 2n/threshold points, in index order. Output may exceed threshold by one.
func minMax(y []float64, threshold int) []int {
	n := len(y)
	bucket := int(math.Ceil(2 * float64(n) / float64(threshold)))
	if bucket < 1 {
		bucket = 1
	}
	idx := make([]int, 0, threshold+1)
	for start := 0; start < n; start += bucket {
		end := min(start+bucket, n)
		lo, hi := start, start
		for j := start + 1; j < end; j++ {
			if y[j] < y[lo] {
				lo = j
			}
			if y[j] > y[hi] {
				hi = j
			}
		}
		switch {
		case lo == hi:
			idx = append(idx, lo)
		case lo < hi:
			idx = append(idx, lo, hi)
		default:
			idx = append(idx, hi, lo)
		}
	}
	return idx
}

// nthPoint keeps every ceil(n/threshold)-th point plus the final point.
// Output may exceed threshold by one.
func nthPoint(n, threshold int) []int {
	stride := int(math.Ceil(float64(n) / float64(threshold)))
	if stride < 1 {
		stride = 1
	}
	idx := make([]int, 0, threshold+1)
	for i := 0; i < n; i += stride {
		idx = append(idx, i)
	}
	if idx[len(idx)-1] != n-1 {
		idx = append(idx, n-1)
	}
	return idx
}

// bucketRanges splits n points into consecutive buckets of ceil(n/threshold).
func bucketRanges(n, threshold int) [][2]int {
	size := int(math.Ceil(float64(n) / float64(threshold)))
	if size < 1 {
		size = 1
	}
	out := make([][2]int, 0, threshold)
	for start := 0; start < n; start += size {
		out = append(out, [2]int{start, min(start+size, n)})
	}
	return out
}

func allIndices(n int) []int {
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	return idx
}
