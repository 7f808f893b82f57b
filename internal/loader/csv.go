package loader

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/KaramelBytes/sheetreduce/internal/tabular"
)

var delimiterCandidates = []rune{',', ';', '\t', '|'}

const sniffBytes = 64 * 1024

// LoadCSV reads a delimited text file whose first record is the header.
// A zero delim is sniffed from the header line. Cells stay strings.
func LoadCSV(path string, delim rune) (*tabular.Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open csv: %w", err)
	}
	defer f.Close()

	br := bufio.NewReaderSize(f, sniffBytes)
	if delim == 0 {
		head, err := br.Peek(sniffBytes)
		if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, bufio.ErrBufferFull) {
			return nil, fmt.Errorf("read csv: %w", err)
		}
		delim = sniffDelimiter(string(head), path)
	}
	// skip a UTF-8 byte order mark
	if bom, _ := br.Peek(3); string(bom) == "\xEF\xBB\xBF" {
		_, _ = br.Discard(3)
	}

	r := csv.NewReader(br)
	r.Comma = delim
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	header, err := r.Read()
	if errors.Is(err, io.EOF) {
		return &tabular.Table{Name: filepath.Base(path), Headers: []string{}, Rows: [][]any{}}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	t := &tabular.Table{Name: filepath.Base(path), Headers: make([]string, len(header)), Rows: [][]any{}}
	for i, h := range header {
		t.Headers[i] = strings.TrimSpace(h)
	}
	for {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row %d: %w", len(t.Rows)+1, err)
		}
		if len(rec) == 1 && strings.TrimSpace(rec[0]) == "" && len(header) > 1 {
			continue
		}
		row := make([]any, len(rec))
		for i, v := range rec {
			row[i] = v
		}
		t.Rows = append(t.Rows, row)
	}
	return t, nil
}

// sniffDelimiter picks the candidate occurring most often outside quotes in
// the first line. .tsv files default to tab, everything else to comma.
func sniffDelimiter(sample, path string) rune {
	line := sample
	if i := strings.IndexAny(line, "\r\n"); i >= 0 {
		line = line[:i]
	}
	counts := map[rune]int{}
	inQuote := false
	for _, c := range line {
		if c == '"' {
			inQuote = !inQuote
			continue
		}
		if !inQuote {
			counts[c]++
		}
	}
	best, bestN := rune(0), 0
	for _, c := range delimiterCandidates {
		if counts[c] > bestN {
			best, bestN = c, counts[c]
		}
	}
	if best != 0 {
		return best
	}
	if strings.HasSuffix(strings.ToLower(path), ".tsv") {
		return '\t'
	}
	return ','
}
