package loader

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/apache/arrow-go/v18/parquet"
	"github.com/apache/arrow-go/v18/parquet/file"
	"github.com/apache/arrow-go/v18/parquet/pqarrow"

	"github.com/KaramelBytes/sheetreduce/internal/tabular"
)

// LoadParquet reads a Parquet file through Arrow. Cells keep their Go types:
// integers as int64, floats as float64, timestamps and dates as time.Time,
// nulls as nil.
func LoadParquet(ctx context.Context, path string) (*tabular.Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open parquet: %w", err)
	}
	defer f.Close()

	pf, err := file.NewParquetReader(f, file.WithReadProps(&parquet.ReaderProperties{}))
	if err != nil {
		return nil, fmt.Errorf("create parquet reader: %w", err)
	}
	defer pf.Close()

	mem := memory.NewGoAllocator()
	fr, err := pqarrow.NewFileReader(pf, pqarrow.ArrowReadProperties{}, mem)
	if err != nil {
		return nil, fmt.Errorf("create arrow reader: %w", err)
	}
	tbl, err := fr.ReadTable(ctx)
	if err != nil {
		return nil, fmt.Errorf("read parquet data: %w", err)
	}
	defer tbl.Release()

	return tableFromArrow(filepath.Base(path), tbl)
}

func tableFromArrow(name string, tbl arrow.Table) (*tabular.Table, error) {
	schema := tbl.Schema()
	t := &tabular.Table{
		Name:    name,
		Headers: make([]string, schema.NumFields()),
		Rows:    make([][]any, 0, tbl.NumRows()),
	}
	for i, fld := range schema.Fields() {
		t.Headers[i] = fld.Name
	}

	tr := array.NewTableReader(tbl, tbl.NumRows())
	defer tr.Release()
	for tr.Next() {
		rec := tr.Record()
		for i := 0; i < int(rec.NumRows()); i++ {
			row := make([]any, rec.NumCols())
			for j, col := range rec.Columns() {
				row[j] = arrowValue(col, i)
			}
			t.Rows = append(t.Rows, row)
		}
	}
	if err := tr.Err(); err != nil {
		return nil, fmt.Errorf("read arrow records: %w", err)
	}
	return t, nil
}

// arrowValue converts one Arrow cell to a plain Go value. Types without a
// direct mapping fall back to their string form.
func arrowValue(col arrow.Array, i int) any {
	if col.IsNull(i) {
		return nil
	}
	switch c := col.(type) {
	case *array.String:
		return c.Value(i)
	case *array.LargeString:
		return c.Value(i)
	case *array.Binary:
		return string(c.Value(i))
	case *array.Boolean:
		return c.Value(i)
	case *array.Int8:
		return int64(c.Value(i))
	case *array.Int16:
		return int64(c.Value(i))
	case *array.Int32:
		return int64(c.Value(i))
	case *array.Int64:
		return c.Value(i)
	case *array.Uint8:
		return uint64(c.Value(i))
	case *array.Uint16:
		return uint64(c.Value(i))
	case *array.Uint32:
		return uint64(c.Value(i))
	case *array.Uint64:
		return c.Value(i)
	case *array.Float32:
		return float64(c.Value(i))
	case *array.Float64:
		return c.Value(i)
	case *array.Decimal128:
		dt := c.DataType().(*arrow.Decimal128Type)
		return c.Value(i).ToFloat64(dt.Scale)
	case *array.Date32:
		return c.Value(i).ToTime().UTC()
	case *array.Date64:
		return c.Value(i).ToTime().UTC()
	case *array.Timestamp:
		dt := c.DataType().(*arrow.TimestampType)
		return c.Value(i).ToTime(dt.Unit).UTC()
	default:
		return col.ValueStr(i)
	}
}
