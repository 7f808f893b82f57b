// Package loader reads tabular files into a tabular.Table.
package loader

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/KaramelBytes/sheetreduce/internal/tabular"
)

// ErrUnsupported indicates a file extension no loader handles.
var ErrUnsupported = errors.New("unsupported file format")

// Options selects what to read from a file.
type Options struct {
	// Sheet picks an XLSX sheet by name (case-insensitive).
	Sheet string
	// SheetIndex picks an XLSX sheet by 1-based sheetId when Sheet is empty.
	SheetIndex int
	// Delimiter overrides CSV delimiter sniffing when non-zero.
	Delimiter rune
}

// Formats lists the extensions Load understands.
var Formats = []string{".csv", ".tsv", ".txt", ".xlsx", ".parquet", ".json"}

// Load reads path into a table, choosing the reader by extension.
func Load(ctx context.Context, path string, opt Options) (*tabular.Table, error) {
	var (
		t   *tabular.Table
		err error
	)
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".csv", ".tsv", ".txt":
		t, err = LoadCSV(path, opt.Delimiter)
	case ".xlsx":
		t, err = LoadXLSX(path, opt.Sheet, opt.SheetIndex)
	case ".parquet":
		t, err = LoadParquet(ctx, path)
	case ".json":
		t, err = LoadJSON(path)
	default:
		return nil, fmt.Errorf("%w: %q (supported: %s)", ErrUnsupported, ext, strings.Join(Formats, ", "))
	}
	if err != nil {
		return nil, err
	}
	if t.Name == "" {
		t.Name = filepath.Base(path)
	}
	return t, nil
}
