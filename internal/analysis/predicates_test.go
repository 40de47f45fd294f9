package analysis

import (
	"testing"

	"github.com/KaramelBytes/datalens-cli/internal/parser"
)

func TestNumericValue(t *testing.T) {
	tests := []struct {
		in   parser.Value
		want float64
		ok   bool
	}{
		{parser.Number(3.5), 3.5, true},
		{parser.Text("10"), 10, true},
		{parser.Text(" -2.5e3 "), -2500, true},
		{parser.Text(".5"), 0.5, true},
		{parser.Text("12abc"), 0, false},
		{parser.Text(""), 0, false},
		{parser.Text("NaN"), 0, false},
		{parser.Text("Infinity"), 0, false},
		{parser.Text("1e400"), 0, false},
		{parser.Text("0x10"), 0, false},
		{parser.Text("1_000"), 0, false},
		{parser.Bool(true), 0, false},
		{parser.Missing(), 0, false},
		{parser.Composite([]byte(`[1]`)), 0, false},
	}
	for _, tt := range tests {
		got, ok := NumericValue(tt.in)
		if ok != tt.ok || got != tt.want {
			t.Errorf("NumericValue(%v %q) = %v, %v; want %v, %v", tt.in.Kind(), tt.in.String(), got, ok, tt.want, tt.ok)
		}
	}
}

func TestDateValue(t *testing.T) {
	tests := []struct {
		in   string
		want string
		ok   bool
	}{
		{"2024-01-05", "2024-01-05", true},
		{"2024/1/5", "2024-01-05", true},
		{"1/2/2024", "2024-01-02", true},
		{"12-31-99", "1999-12-31", true},
		{"3/4/24", "2024-03-04", true},
		{"2024-01-05 10:30", "2024-01-05", true},
		{"2024-01-05T23:59:59", "2024-01-05", true},
		{"2024-02-29", "2024-02-29", true},
		{"2023-02-29", "", false},
		{"2024-13-01", "", false},
		{"13/01/2024", "", false},
		{"2024-01-05 24:00", "", false},
		{"2024-01-05T10", "", false},
		{"2024.01.05", "", false},
		{"January 5, 2024", "", false},
		{"20240105", "", false},
	}
	for _, tt := range tests {
		got, ok := DateValue(parser.Text(tt.in))
		if ok != tt.ok {
			t.Errorf("DateValue(%q) ok = %v, want %v", tt.in, ok, tt.ok)
			continue
		}
		if ok && ISODate(got) != tt.want {
			t.Errorf("DateValue(%q) = %s, want %s", tt.in, ISODate(got), tt.want)
		}
	}
	if _, ok := DateValue(parser.Number(20240105)); ok {
		t.Errorf("numbers must not be dates")
	}
}
