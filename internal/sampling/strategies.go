package sampling

import (
	"sort"

	"github.com/KaramelBytes/sheetreduce/internal/coerce"
)

// Every function here assumes n > maxRows >= 1 and returns ascending row
// indices, except stratified which follows the sort column.

const (
	smartSections = 5
	// stratifiedProbeRows limits the numeric-column probe.
	stratifiedProbeRows = 100
)

// lcg is the linear congruential generator used by the seeded strategies.
type lcg struct{ state int64 }

const (
	lcgMul = 9301
	lcgInc = 49297
	lcgMod = 233280
)

func newLCG(seed int64) *lcg {
	s := seed % lcgMod
	if s < 0 {
		s += lcgMod
	}
	return &lcg{state: s}
}

// next returns a value in [0, 1).
func (g *lcg) next() float64 {
	g.state = (g.state*lcgMul + lcgInc) % lcgMod
	return float64(g.state) / lcgMod
}

// intn returns a value in [0, n).
func (g *lcg) intn(n int) int {
	return int(g.next() * float64(n))
}

// pickDistinct draws k distinct offsets from [0, n) with a sparse
// Fisher-Yates shuffle, so it terminates even when the generator cannot
// reach every index.
func (g *lcg) pickDistinct(n, k int) []int {
	if k > n {
		k = n
	}
	swapped := map[int]int{}
	at := func(i int) int {
		if v, ok := swapped[i]; ok {
			return v
		}
		return i
	}
	out := make([]int, 0, k)
	for i := 0; i < k; i++ {
		j := i + g.intn(n-i)
		vi, vj := at(i), at(j)
		swapped[j] = vi
		out = append(out, vj)
	}
	return out
}

func firstIndices(n, maxRows int) []int {
	idx := make([]int, maxRows)
	for i := range idx {
		idx[i] = i
	}
	return idx
}

func randomIndices(n, maxRows int, seed int64) []int {
	idx := newLCG(seed).pickDistinct(n, maxRows)
	sort.Ints(idx)
	return idx
}

func systematicIndices(n, maxRows int) []int {
	stride := n / maxRows
	if stride < 1 {
		stride = 1
	}
	idx := make([]int, 0, maxRows)
	for i := 0; i < n && len(idx) < maxRows; i += stride {
		idx = append(idx, i)
	}
	return idx
}

// stratifiedIndices sorts rows by the first numeric column and takes the
// middle row of each of maxRows equal-width strata.
func stratifiedIndices(rows [][]any, ncol, maxRows int, loc coerce.Locale) []int {
	col := numericColumn(rows, ncol, loc)
	if col < 0 {
		return systematicIndices(len(rows), maxRows)
	}

	type keyed struct {
		row int
		v   float64
		ok  bool
	}
	order := make([]keyed, len(rows))
	for i, row := range rows {
		var cell any
		if col < len(row) {
			cell = row[col]
		}
		v, ok := loc.Number(cell)
		order[i] = keyed{row: i, v: v, ok: ok}
	}
	sort.SliceStable(order, func(i, j int) bool {
		a, b := order[i], order[j]
		if a.ok != b.ok {
			return a.ok
		}
		return a.ok && a.v < b.v
	})

	n := len(rows)
	size := float64(n) / float64(maxRows)
	idx := make([]int, 0, maxRows)
	for s := 0; s < maxRows; s++ {
		start := int(float64(s) * size)
		end := int(float64(s+1) * size)
		if end > n {
			end = n
		}
		if end <= start {
			continue
		}
		idx = append(idx, order[start+(end-start)/2].row)
	}
	return idx
}

// numericColumn returns the first column whose non-null values among the
// probe rows all parse as numbers, or -1.
func numericColumn(rows [][]any, ncol int, loc coerce.Locale) int {
	probe := rows
	if len(probe) > stratifiedProbeRows {
		probe = probe[:stratifiedProbeRows]
	}
	for c := 0; c < ncol; c++ {
		seen := 0
		numeric := true
		for _, row := range probe {
			if c >= len(row) || coerce.IsNull(row[c]) {
				continue
			}
			seen++
			if _, ok := loc.Number(row[c]); !ok {
				numeric = false
				break
			}
		}
		if numeric && seen > 0 {
			return c
		}
	}
	return -1
}

// smartIndices keeps the first and last rows and spreads the remaining
// budget over five equal sections of the rows between them, drawing a
// proportional number of distinct random rows from each.
func smartIndices(n, maxRows int, seed int64) []int {
	if maxRows == 1 {
		return []int{0}
	}
	idx := []int{0, n - 1}
	need := maxRows - 2
	inner := n - 2
	if need <= 0 || inner <= 0 {
		sort.Ints(idx)
		return idx
	}

	bounds := make([]int, smartSections+1)
	for s := range bounds {
		bounds[s] = 1 + s*inner/smartSections
	}
	// largest-remainder apportionment of need over the sections
	quota := make([]int, smartSections)
	rem := make([]int, smartSections)
	order := make([]int, smartSections)
	assigned := 0
	for s := 0; s < smartSections; s++ {
		share := need * (bounds[s+1] - bounds[s])
		quota[s], rem[s] = share/inner, share%inner
		assigned += quota[s]
		order[s] = s
	}
	sort.SliceStable(order, func(i, j int) bool { return rem[order[i]] > rem[order[j]] })
	for i := 0; assigned < need; i = (i + 1) % smartSections {
		if s := order[i]; quota[s] < bounds[s+1]-bounds[s] {
			quota[s]++
			assigned++
		}
	}

	g := newLCG(seed)
	for s := 0; s < smartSections; s++ {
		for _, off := range g.pickDistinct(bounds[s+1]-bounds[s], quota[s]) {
			idx = append(idx, bounds[s]+off)
		}
	}
	sort.Ints(idx)
	return idx
}
