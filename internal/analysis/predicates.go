package analysis

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/KaramelBytes/datalens-cli/internal/parser"
)

// NumericValue reports whether v is numeric and returns its float. Numbers
// always qualify; text qualifies when it parses completely to a finite decimal
// float, surrounding whitespace allowed.
func NumericValue(v parser.Value) (float64, bool) {
	if f, ok := v.Num(); ok {
		return f, true
	}
	s, ok := v.Str()
	if !ok {
		return 0, false
	}
	return parseNumeric(s)
}

func parseNumeric(s string) (float64, bool) {
	raw := strings.TrimSpace(s)
	if raw == "" || strings.ContainsAny(raw, "xX_") {
		return 0, false
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsInf(f, 0) || math.IsNaN(f) {
		return 0, false
	}
	return f, true
}

var dateLike = regexp.MustCompile(`^(\d{1,4})[-/](\d{1,2})[-/](\d{1,4})(?:[ T](\d{1,2}):(\d{1,2})(?::(\d{1,2}))?)?$`)

// DateValue reports whether v is a date: text shaped like a date that also
// resolves to a real calendar date and time of day. The shape alone is not
// enough, so 2024-02-30 is rejected.
func DateValue(v parser.Value) (time.Time, bool) {
	s, ok := v.Str()
	if !ok {
		return time.Time{}, false
	}
	return parseDate(s)
}

// parseDate reads year-first input (three or four digit leading group) as
// Y-M-D and anything else as M/D/Y. Two digit years map to 1950-2049.
func parseDate(s string) (time.Time, bool) {
	m := dateLike.FindStringSubmatch(s)
	if m == nil {
		return time.Time{}, false
	}
	var year, month, day int
	if len(m[1]) >= 3 {
		year, month, day = atoi(m[1]), atoi(m[2]), atoi(m[3])
	} else {
		month, day, year = atoi(m[1]), atoi(m[2]), atoi(m[3])
		if len(m[3]) <= 2 {
			if year < 50 {
				year += 2000
			} else {
				year += 1900
			}
		}
	}
	if month < 1 || month > 12 || day < 1 || day > daysIn(year, time.Month(month)) {
		return time.Time{}, false
	}
	hour, minute, sec := atoi(m[4]), atoi(m[5]), atoi(m[6])
	if hour > 23 || minute > 59 || sec > 59 {
		return time.Time{}, false
	}
	return time.Date(year, time.Month(month), day, hour, minute, sec, 0, time.UTC), true
}

func daysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// atoi parses a regexp digit group; an unmatched optional group is 0.
func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}

// ISODate formats t as YYYY-MM-DD.
func ISODate(t time.Time) string { return t.Format("2006-01-02") }
