// Package tabular holds the in-memory row table shared by the loaders, the
// sampler and the decimator.
package tabular

// Table is an ordered header list plus rows aligned positionally to it.
// Header names may repeat. A nil cell is a null.
type Table struct {
	Name    string   `json:"name,omitempty"`
	Headers []string `json:"headers"`
	Rows    [][]any  `json:"rows"`
}

// Cell returns the value at (row, col), or nil when the row is short.
func (t *Table) Cell(row, col int) any {
	if row < 0 || row >= len(t.Rows) || col < 0 {
		return nil
	}
	r := t.Rows[row]
	if col >= len(r) {
		return nil
	}
	return r[col]
}

// ColumnIndex returns the first column with the given name, or -1.
func (t *Table) ColumnIndex(name string) int {
	for i, h := range t.Headers {
		if h == name {
			return i
		}
	}
	return -1
}

// Records converts rows into field maps keyed by header. When a header repeats,
// the first occurrence wins.
func (t *Table) Records() []map[string]any {
	out := make([]map[string]any, len(t.Rows))
	for i := range t.Rows {
		rec := make(map[string]any, len(t.Headers))
		for j, h := range t.Headers {
			if _, dup := rec[h]; !dup {
				rec[h] = t.Cell(i, j)
			}
		}
		out[i] = rec
	}
	return out
}
