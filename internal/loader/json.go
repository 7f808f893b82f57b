package loader

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/KaramelBytes/sheetreduce/internal/tabular"
)

// LoadJSON reads a JSON array of objects. Headers follow the order in which
// keys are first seen; numbers stay json.Number so integers keep precision.
func LoadJSON(path string) (*tabular.Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read json: %w", err)
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return nil, fmt.Errorf("parse json: %w", err)
	}
	if d, ok := tok.(json.Delim); !ok || d != '[' {
		return nil, fmt.Errorf("parse json: expected an array of objects")
	}

	t := &tabular.Table{Name: filepath.Base(path), Headers: []string{}, Rows: [][]any{}}
	index := map[string]int{}
	var records []map[string]any
	for dec.More() {
		keys, rec, err := readObject(dec)
		if err != nil {
			return nil, fmt.Errorf("parse json record %d: %w", len(records)+1, err)
		}
		for _, k := range keys {
			if _, ok := index[k]; !ok {
				index[k] = len(t.Headers)
				t.Headers = append(t.Headers, k)
			}
		}
		records = append(records, rec)
	}
	if _, err := dec.Token(); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parse json: %w", err)
	}

	for _, rec := range records {
		row := make([]any, len(t.Headers))
		for k, v := range rec {
			row[index[k]] = v
		}
		t.Rows = append(t.Rows, row)
	}
	return t, nil
}

// readObject decodes one object, returning its keys in document order.
func readObject(dec *json.Decoder) ([]string, map[string]any, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, nil, err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, nil, fmt.Errorf("expected object, got %v", tok)
	}
	var keys []string
	rec := map[string]any{}
	for dec.More() {
		kt, err := dec.Token()
		if err != nil {
			return nil, nil, err
		}
		key, ok := kt.(string)
		if !ok {
			return nil, nil, fmt.Errorf("unexpected key %v", kt)
		}
		var v any
		if err := dec.Decode(&v); err != nil {
			return nil, nil, err
		}
		if _, seen := rec[key]; !seen {
			keys = append(keys, key)
		}
		rec[key] = v
	}
	if _, err := dec.Token(); err != nil {
		return nil, nil, err
	}
	return keys, rec, nil
}
