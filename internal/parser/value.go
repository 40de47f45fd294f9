package parser

import (
	"encoding/json"
	"strconv"
)

// Kind identifies which variant a Value holds.
type Kind uint8

const (
	KindMissing Kind = iota
	KindNumber
	KindText
	KindBoolean
	KindComposite
)

func (k Kind) String() string {
	switch k {
	case KindNumber:
		return "number"
	case KindText:
		return "text"
	case KindBoolean:
		return "boolean"
	case KindComposite:
		return "composite"
	default:
		return "missing"
	}
}

// Value is a single cell. The zero Value is Missing.
//
// Values are comparable and usable as map keys: two Text values are equal when
// their strings are equal, two Numbers when their floats are equal. Composite
// values (nested JSON objects or arrays) compare by identity, so two separately
// decoded objects with the same contents are distinct.
type Value struct {
	kind Kind
	num  float64
	str  string
	b    bool
	ref  *composite
}

type composite struct {
	raw json.RawMessage
}

// Missing returns the empty/absent value.
func Missing() Value { return Value{} }

// Number wraps a numeric cell.
func Number(f float64) Value { return Value{kind: KindNumber, num: f} }

// Text wraps a string cell.
func Text(s string) Value { return Value{kind: KindText, str: s} }

// Bool wraps a boolean cell.
func Bool(b bool) Value { return Value{kind: KindBoolean, b: b} }

// Composite wraps a nested JSON object or array. The raw bytes are copied.
func Composite(raw []byte) Value {
	cp := make(json.RawMessage, len(raw))
	copy(cp, raw)
	return Value{kind: KindComposite, ref: &composite{raw: cp}}
}

func (v Value) Kind() Kind { return v.kind }

// IsEmpty reports whether the cell counts as missing for completeness:
// absent, JSON null, or the empty string.
func (v Value) IsEmpty() bool {
	return v.kind == KindMissing || (v.kind == KindText && v.str == "")
}

// Num returns the float of a Number value.
func (v Value) Num() (float64, bool) {
	if v.kind != KindNumber {
		return 0, false
	}
	return v.num, true
}

// Str returns the string of a Text value.
func (v Value) Str() (string, bool) {
	if v.kind != KindText {
		return "", false
	}
	return v.str, true
}

// String renders the value the way it is shown in chart labels.
func (v Value) String() string {
	switch v.kind {
	case KindNumber:
		return strconv.FormatFloat(v.num, 'f', -1, 64)
	case KindText:
		return v.str
	case KindBoolean:
		return strconv.FormatBool(v.b)
	case KindComposite:
		return string(v.ref.raw)
	default:
		return ""
	}
}

// Interface returns the plain Go representation (nil, float64, string, bool,
// json.RawMessage).
func (v Value) Interface() any {
	switch v.kind {
	case KindNumber:
		return v.num
	case KindText:
		return v.str
	case KindBoolean:
		return v.b
	case KindComposite:
		return v.ref.raw
	default:
		return nil
	}
}

func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case KindComposite:
		return v.ref.raw, nil
	case KindMissing:
		return []byte("null"), nil
	}
	return json.Marshal(v.Interface())
}

func (v Value) MarshalYAML() (any, error) {
	if v.kind == KindComposite {
		return string(v.ref.raw), nil
	}
	return v.Interface(), nil
}

// Row maps column names to cells. Looking up an absent column yields Missing.
type Row map[string]Value

// Get returns the cell for column, or Missing when the row lacks it.
func (r Row) Get(column string) Value { return r[column] }

// Empty reports whether the row carries no data: no keys, or only empty strings.
func (r Row) Empty() bool {
	if len(r) == 0 {
		return true
	}
	for _, v := range r {
		if v.kind != KindText || v.str != "" {
			return false
		}
	}
	return true
}
