package parser

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

type csvDecoder struct{}

func (csvDecoder) CanParse(filename string) bool {
	return hasExt(filename, ".csv")
}

// Parse treats the first record as the header. Records shorter than the header
// leave trailing columns absent; extra fields are dropped. Rows with no data
// are filtered out and RowCount reflects the filtered rows.
func (csvDecoder) Parse(name string, content []byte) (*ParsedData, error) {
	r := csv.NewReader(bytes.NewReader(bytes.TrimPrefix(content, utf8BOM)))
	r.FieldsPerRecord = -1

	out := &ParsedData{FileName: name, Format: FormatCSV}
	header, err := r.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return out, nil
		}
		return nil, malformed(FormatCSV, fmt.Errorf("read header: %w", err))
	}
	out.Columns = uniqueHeader(header)

	line := 1
	for {
		rec, err := r.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, malformed(FormatCSV, fmt.Errorf("read row %d: %w", line, err))
		}
		line++
		row := make(Row, len(out.Columns))
		for i, col := range out.Columns {
			if i >= len(rec) {
				break
			}
			row[col] = Text(rec[i])
		}
		if row.Empty() {
			continue
		}
		out.Rows = append(out.Rows, row)
	}
	out.RowCount = len(out.Rows)
	return out, nil
}

// uniqueHeader renames repeated header names to name_1, name_2, ... so no
// column is silently shadowed.
func uniqueHeader(header []string) []string {
	cols := make([]string, 0, len(header))
	seen := make(map[string]int, len(header))
	for _, h := range header {
		name := h
		for n := seen[h]; ; n++ {
			if _, taken := seen[name]; !taken {
				break
			}
			name = h + "_" + strconv.Itoa(n)
		}
		seen[h]++
		if name != h {
			seen[name] = 1
		}
		cols = append(cols, name)
	}
	return cols
}
