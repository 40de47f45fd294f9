package parser

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
)

var errInvalidRoot = errors.New("invalid JSON format: root must be an array or an object")

type jsonDecoder struct{}

func (jsonDecoder) CanParse(filename string) bool {
	return hasExt(filename, ".json")
}

// Parse accepts either a top-level array of records, or an object whose first
// property holding a non-empty array of objects is taken as the records.
// Object keys are kept in source order, which encoding/json maps would lose,
// so the document is walked with a token decoder.
func (jsonDecoder) Parse(name string, content []byte) (*ParsedData, error) {
	dec := json.NewDecoder(bytes.NewReader(content))
	dec.UseNumber()
	tok, err := dec.Token()
	if err != nil {
		if errors.Is(err, io.EOF) {
			err = io.ErrUnexpectedEOF
		}
		return nil, malformed(FormatJSON, err)
	}
	delim, ok := tok.(json.Delim)
	if !ok {
		// a bare scalar is still syntax-checked before rejecting the shape
		if err := expectEOF(dec); err != nil {
			return nil, err
		}
		return nil, malformed(FormatJSON, errInvalidRoot)
	}

	var records []json.RawMessage
	switch delim {
	case '[':
		records, err = readArray(dec)
		if err != nil {
			return nil, err
		}
	case '{':
		found := false
		for dec.More() {
			if _, err := dec.Token(); err != nil {
				return nil, malformed(FormatJSON, err)
			}
			var raw json.RawMessage
			if err := dec.Decode(&raw); err != nil {
				return nil, malformed(FormatJSON, err)
			}
			if found {
				continue
			}
			if arr, ok := recordArray(raw); ok {
				records, found = arr, true
			}
		}
		if _, err := dec.Token(); err != nil {
			return nil, malformed(FormatJSON, err)
		}
		if err := expectEOF(dec); err != nil {
			return nil, err
		}
		if !found {
			return nil, fmt.Errorf("%s: %w", name, ErrNoTabularStructure)
		}
	default:
		return nil, malformed(FormatJSON, fmt.Errorf("unexpected delimiter %q", delim))
	}

	out := &ParsedData{FileName: name, Format: FormatJSON}
	for i, raw := range records {
		row, keys, err := decodeRecord(raw)
		if err != nil {
			return nil, malformed(FormatJSON, fmt.Errorf("record %d: %w", i, err))
		}
		if i == 0 {
			out.Columns = keys
		}
		out.Rows = append(out.Rows, row)
	}
	out.RowCount = len(out.Rows)
	return out, nil
}

// readArray consumes the remainder of a top-level array, including the closing
// bracket, and checks that nothing follows it.
func readArray(dec *json.Decoder) ([]json.RawMessage, error) {
	var out []json.RawMessage
	for dec.More() {
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return nil, malformed(FormatJSON, err)
		}
		out = append(out, raw)
	}
	if _, err := dec.Token(); err != nil {
		return nil, malformed(FormatJSON, err)
	}
	if err := expectEOF(dec); err != nil {
		return nil, err
	}
	return out, nil
}

func expectEOF(dec *json.Decoder) error {
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		if err == nil {
			err = errors.New("unexpected data after top-level value")
		}
		return malformed(FormatJSON, err)
	}
	return nil
}

// recordArray reports whether raw is a non-empty array whose first element is
// an object, and returns its elements.
func recordArray(raw json.RawMessage) ([]json.RawMessage, bool) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || raw[0] != '[' {
		return nil, false
	}
	var arr []json.RawMessage
	if err := json.Unmarshal(raw, &arr); err != nil || len(arr) == 0 {
		return nil, false
	}
	first := bytes.TrimSpace(arr[0])
	if len(first) == 0 || first[0] != '{' {
		return nil, false
	}
	return arr, true
}

// decodeRecord converts one array element into a Row. Elements that are not
// objects become empty rows. Keys are returned in first-seen order; a repeated
// key keeps its last value.
func decodeRecord(raw json.RawMessage) (Row, []string, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return Row{}, nil, nil
	}
	dec := json.NewDecoder(bytes.NewReader(trimmed))
	dec.UseNumber()
	if _, err := dec.Token(); err != nil {
		return nil, nil, err
	}
	row := Row{}
	var keys []string
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, nil, err
		}
		key, ok := tok.(string)
		if !ok {
			return nil, nil, fmt.Errorf("unexpected object key %v", tok)
		}
		var field json.RawMessage
		if err := dec.Decode(&field); err != nil {
			return nil, nil, err
		}
		v, err := decodeScalar(field)
		if err != nil {
			return nil, nil, fmt.Errorf("field %q: %w", key, err)
		}
		if _, seen := row[key]; !seen {
			keys = append(keys, key)
		}
		row[key] = v
	}
	return row, keys, nil
}

func decodeScalar(raw json.RawMessage) (Value, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return Missing(), nil
	}
	switch raw[0] {
	case 'n':
		return Missing(), nil
	case 't':
		return Bool(true), nil
	case 'f':
		return Bool(false), nil
	case '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return Value{}, err
		}
		return Text(s), nil
	case '{', '[':
		return Composite(raw), nil
	}
	f, err := strconv.ParseFloat(string(raw), 64)
	if err != nil {
		var numErr *strconv.NumError
		if errors.As(err, &numErr) && errors.Is(numErr.Err, strconv.ErrRange) {
			// overflowing literals stay as text so no infinity leaks into output
			if math.IsInf(f, 0) {
				return Text(string(raw)), nil
			}
			return Number(f), nil
		}
		return Value{}, err
	}
	return Number(f), nil
}
