package parser

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyData is returned when parsing leaves no usable rows.
	ErrEmptyData = errors.New("no valid data rows found")
	// ErrNoTabularStructure is returned when a JSON object holds no non-empty
	// array of records.
	ErrNoTabularStructure = errors.New("could not extract tabular data from JSON")
	// ErrInputTooLarge is wrapped in a MalformedInputError when the input exceeds
	// the configured byte limit.
	ErrInputTooLarge = errors.New("input exceeds size limit")
	// ErrUnsupported matches any UnsupportedFormatError via errors.Is.
	ErrUnsupported = errors.New("unsupported file format")
)

// UnsupportedFormatError indicates a file extension other than .csv or .json.
type UnsupportedFormatError struct {
	Name string
	Ext  string
}

func (e *UnsupportedFormatError) Error() string {
	if e.Ext == "" {
		return fmt.Sprintf("unsupported file format for %q: expected .csv or .json", e.Name)
	}
	return fmt.Sprintf("unsupported file format %q for %q: expected .csv or .json", e.Ext, e.Name)
}

func (e *UnsupportedFormatError) Is(target error) bool { return target == ErrUnsupported }

// MalformedInputError wraps decode, syntax and read failures.
type MalformedInputError struct {
	Format Format
	Err    error
}

func (e *MalformedInputError) Error() string {
	if e.Format == "" {
		return fmt.Sprintf("malformed input: %v", e.Err)
	}
	return fmt.Sprintf("malformed %s input: %v", e.Format, e.Err)
}

func (e *MalformedInputError) Unwrap() error { return e.Err }

func malformed(f Format, err error) error {
	return &MalformedInputError{Format: f, Err: err}
}
