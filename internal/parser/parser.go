package parser

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Format tags the source encoding of a dataset.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatJSON Format = "json"
)

// ParsedData is the uniform result of parsing a tabular file. Treat it as
// read-only once returned.
type ParsedData struct {
	Columns  []string `json:"columns" yaml:"columns"`
	Rows     []Row    `json:"rows" yaml:"rows"`
	FileName string   `json:"fileName" yaml:"file_name"`
	Format   Format   `json:"fileType" yaml:"file_type"`
	RowCount int      `json:"rowCount" yaml:"row_count"`
}

// Decoder turns raw file content into ParsedData.
type Decoder interface {
	CanParse(filename string) bool
	Parse(name string, content []byte) (*ParsedData, error)
}

var registry []Decoder

// Register adds a decoder implementation to the registry.
func Register(d Decoder) {
	registry = append(registry, d)
}

func init() {
	Register(csvDecoder{})
	Register(jsonDecoder{})
}

func lookup(name string) (Decoder, error) {
	for _, d := range registry {
		if d.CanParse(name) {
			return d, nil
		}
	}
	return nil, &UnsupportedFormatError{Name: filepath.Base(name), Ext: strings.ToLower(filepath.Ext(name))}
}

// CheckFormat returns an UnsupportedFormatError when no decoder accepts name.
func CheckFormat(name string) error {
	_, err := lookup(name)
	return err
}

// Supported reports whether name has a recognised extension.
func Supported(name string) bool { return CheckFormat(name) == nil }

// Parse selects a decoder by file extension and decodes content. It fails with
// an UnsupportedFormatError before looking at content when the extension is
// unknown, and with ErrEmptyData when no rows survive.
func Parse(name string, content []byte) (*ParsedData, error) {
	d, err := lookup(name)
	if err != nil {
		return nil, err
	}
	data, err := d.Parse(filepath.Base(name), content)
	if err != nil {
		return nil, err
	}
	if data.RowCount == 0 {
		return nil, fmt.Errorf("%s: %w", filepath.Base(name), ErrEmptyData)
	}
	return data, nil
}

// ParseReader reads r fully and parses it. maxBytes <= 0 disables the limit.
func ParseReader(name string, r io.Reader, maxBytes int64) (*ParsedData, error) {
	if _, err := lookup(name); err != nil {
		return nil, err
	}
	if maxBytes > 0 {
		r = io.LimitReader(r, maxBytes+1)
	}
	var buf bytes.Buffer
	n, err := buf.ReadFrom(r)
	if err != nil {
		return nil, malformed("", fmt.Errorf("read %s: %w", filepath.Base(name), err))
	}
	if maxBytes > 0 && n > maxBytes {
		return nil, malformed("", fmt.Errorf("%s: %w (%d bytes)", filepath.Base(name), ErrInputTooLarge, maxBytes))
	}
	return Parse(name, buf.Bytes())
}

// ParseFile reads and parses a file from disk.
func ParseFile(path string) (*ParsedData, error) {
	if _, err := lookup(path); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, malformed("", fmt.Errorf("read file: %w", err))
	}
	return Parse(path, data)
}

func hasExt(filename string, exts ...string) bool {
	name := strings.ToLower(filename)
	for _, e := range exts {
		if strings.HasSuffix(name, e) {
			return true
		}
	}
	return false
}
