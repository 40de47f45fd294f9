package analysis

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/KaramelBytes/datalens-cli/internal/parser"
)

// Markdown renders a compact profile of data suitable for terminals and docs.
// previewRows controls how many leading rows are shown; 0 disables the table.
func (s *DataSummary) Markdown(data *parser.ParsedData, previewRows int) string {
	var b strings.Builder
	b.WriteString("[DATASET SUMMARY]\n")
	if data.FileName != "" {
		b.WriteString(fmt.Sprintf("File: %s (%s)\n", data.FileName, data.Format))
	}
	b.WriteString(fmt.Sprintf("Rows: %d", data.RowCount))
	if s.SampleSize > 0 && s.SampleSize < data.RowCount {
		b.WriteString(fmt.Sprintf(" (statistics from first %d)", s.SampleSize))
	}
	b.WriteString("\n")
	b.WriteString(fmt.Sprintf("Columns: %d\n\n", len(data.Columns)))

	b.WriteString("[SCHEMA]\n")
	for _, col := range data.Columns {
		kind, _ := s.KindOf(col)
		st := s.Statistics[col]
		b.WriteString(fmt.Sprintf("- %s: %s (complete %.1f%%)", safeName(col), kind, st.Completeness*100))
		switch kind {
		case KindNumeric:
			if st.Mean != nil {
				b.WriteString(fmt.Sprintf(" — min %.4g, max %.4g, mean %.4g", *st.Min, *st.Max, *st.Mean))
			}
		case KindDate:
			if st.Earliest != "" {
				b.WriteString(fmt.Sprintf(" — %s to %s", st.Earliest, st.Latest))
			}
		case KindCategorical:
			if st.UniqueValues != nil {
				b.WriteString(fmt.Sprintf(" — unique=%d", *st.UniqueValues))
			}
			if len(st.TopValues) > 0 {
				b.WriteString("; top: ")
				for i, kv := range st.TopValues {
					if i > 0 {
						b.WriteString(", ")
					}
					b.WriteString(fmt.Sprintf("%s(%d)", safeVal(kv.Value), kv.Count))
				}
			}
		}
		b.WriteString("\n")
	}

	if previewRows > 0 && len(data.Rows) > 0 {
		b.WriteString("\n[HEAD AND SAMPLE ROWS]\n")
		b.WriteString("| ")
		for i, c := range data.Columns {
			if i > 0 {
				b.WriteString(" | ")
			}
			b.WriteString(safeName(c))
		}
		b.WriteString(" |\n| ")
		for i := range data.Columns {
			if i > 0 {
				b.WriteString(" | ")
			}
			b.WriteString("---")
		}
		b.WriteString(" |\n")
		for r, row := range data.Rows {
			if r >= previewRows {
				break
			}
			b.WriteString("| ")
			for i, c := range data.Columns {
				if i > 0 {
					b.WriteString(" | ")
				}
				val := row.Get(c).String()
				if utf8.RuneCountInString(val) > 80 {
					val = string([]rune(val)[:77]) + "..."
				}
				b.WriteString(safeVal(val))
			}
			b.WriteString(" |\n")
		}
	}
	return b.String()
}

func safeName(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return "(unnamed)"
	}
	return s
}

func safeVal(s string) string { return strings.ReplaceAll(strings.ReplaceAll(s, "\n", " "), "|", "/") }
