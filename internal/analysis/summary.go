package analysis

import (
	"math"
	"sort"

	"github.com/KaramelBytes/datalens-cli/internal/parser"
)

// Options controls sampling and classification.
type Options struct {
	// SampleSize caps the number of leading rows inspected; <= 0 uses the default.
	SampleSize int
	// NumericThreshold is the share of the sample that must be numeric.
	NumericThreshold float64
	// DateThreshold is the share of the sample that must be dates.
	DateThreshold float64
	// TopValues caps the frequent-value list kept for categorical columns.
	TopValues int
}

const (
	DefaultSampleSize = 100
	DefaultThreshold  = 0.7
	defaultTopValues  = 8
)

// DefaultOptions returns the standard profiling settings.
func DefaultOptions() Options {
	return Options{
		SampleSize:       DefaultSampleSize,
		NumericThreshold: DefaultThreshold,
		DateThreshold:    DefaultThreshold,
		TopValues:        defaultTopValues,
	}
}

func (o Options) normalized() Options {
	d := DefaultOptions()
	if o.SampleSize <= 0 {
		o.SampleSize = d.SampleSize
	}
	if o.NumericThreshold <= 0 || o.NumericThreshold > 1 {
		o.NumericThreshold = d.NumericThreshold
	}
	if o.DateThreshold <= 0 || o.DateThreshold > 1 {
		o.DateThreshold = d.DateThreshold
	}
	if o.TopValues < 0 {
		o.TopValues = 0
	}
	return o
}

// ColumnKind is the inferred semantic type of a column.
type ColumnKind string

const (
	KindNumeric     ColumnKind = "numeric"
	KindCategorical ColumnKind = "categorical"
	KindDate        ColumnKind = "date"
)

// ColumnStatistics holds per-column figures computed over the sample. Optional
// fields are nil/empty when they do not apply to the column's kind.
type ColumnStatistics struct {
	Completeness float64         `json:"completeness" yaml:"completeness"`
	Min          *float64        `json:"min,omitempty" yaml:"min,omitempty"`
	Max          *float64        `json:"max,omitempty" yaml:"max,omitempty"`
	Mean         *float64        `json:"mean,omitempty" yaml:"mean,omitempty"`
	UniqueValues *int            `json:"uniqueValues,omitempty" yaml:"unique_values,omitempty"`
	Earliest     string          `json:"earliest,omitempty" yaml:"earliest,omitempty"`
	Latest       string          `json:"latest,omitempty" yaml:"latest,omitempty"`
	TopValues    []CategoryCount `json:"topValues,omitempty" yaml:"top_values,omitempty"`
}

type CategoryCount struct {
	Value string `json:"value" yaml:"value"`
	Count int    `json:"count" yaml:"count"`
}

// DataSummary partitions the columns by kind and carries their statistics.
// Every column appears in exactly one of the three lists, in dataset order.
type DataSummary struct {
	NumericColumns     []string                    `json:"numericColumns" yaml:"numeric_columns"`
	CategoricalColumns []string                    `json:"categoricalColumns" yaml:"categorical_columns"`
	DateColumns        []string                    `json:"dateColumns" yaml:"date_columns"`
	Statistics         map[string]ColumnStatistics `json:"statistics" yaml:"statistics"`
	SampleSize         int                         `json:"sampleSize" yaml:"sample_size"`
}

// Columns is an ordered column set with a guarded accessor for its head.
type Columns []string

// First returns the first column, or false when the set is empty.
func (c Columns) First() (string, bool) {
	if len(c) == 0 {
		return "", false
	}
	return c[0], true
}

// Second returns the second column, or false when there are fewer than two.
func (c Columns) Second() (string, bool) {
	if len(c) < 2 {
		return "", false
	}
	return c[1], true
}

func (s *DataSummary) Numeric() Columns     { return Columns(s.NumericColumns) }
func (s *DataSummary) Categorical() Columns { return Columns(s.CategoricalColumns) }
func (s *DataSummary) Dates() Columns       { return Columns(s.DateColumns) }

// KindOf returns the classification of column and whether it is known.
func (s *DataSummary) KindOf(column string) (ColumnKind, bool) {
	for _, set := range []struct {
		kind ColumnKind
		cols []string
	}{
		{KindNumeric, s.NumericColumns},
		{KindDate, s.DateColumns},
		{KindCategorical, s.CategoricalColumns},
	} {
		for _, c := range set.cols {
			if c == column {
				return set.kind, true
			}
		}
	}
	return "", false
}

// Summarize classifies every column of data and computes its statistics, both
// from the first SampleSize rows only. It never fails: values that cannot be
// interpreted are left out of the aggregates.
func Summarize(data *parser.ParsedData, opt Options) *DataSummary {
	opt = opt.normalized()
	sum := &DataSummary{
		NumericColumns:     []string{},
		CategoricalColumns: []string{},
		DateColumns:        []string{},
		Statistics:         map[string]ColumnStatistics{},
	}
	if data == nil || len(data.Rows) == 0 {
		return sum
	}
	n := len(data.Rows)
	if n > opt.SampleSize {
		n = opt.SampleSize
	}
	sum.SampleSize = n
	sample := data.Rows[:n]

	for _, col := range data.Columns {
		acc := accumulate(col, sample)
		kind := acc.classify(n, opt)
		st := ColumnStatistics{Completeness: float64(acc.nonEmpty) / float64(n)}
		switch kind {
		case KindNumeric:
			sum.NumericColumns = append(sum.NumericColumns, col)
			acc.numericStats(&st)
		case KindDate:
			sum.DateColumns = append(sum.DateColumns, col)
			acc.dateStats(&st)
		default:
			sum.CategoricalColumns = append(sum.CategoricalColumns, col)
			acc.categoricalStats(&st, opt.TopValues)
		}
		sum.Statistics[col] = st
	}
	return sum
}

// colAcc gathers one column's counts over the sample.
type colAcc struct {
	nonEmpty int
	numCnt   int
	dtCnt    int

	nums     []float64
	earliest string
	latest   string
	distinct map[parser.Value]int
	order    []parser.Value
}

func accumulate(col string, sample []parser.Row) *colAcc {
	acc := &colAcc{distinct: map[parser.Value]int{}}
	for _, row := range sample {
		v := row.Get(col)
		if v.IsEmpty() {
			continue
		}
		acc.nonEmpty++
		if f, ok := NumericValue(v); ok {
			acc.numCnt++
			acc.nums = append(acc.nums, f)
		}
		if t, ok := DateValue(v); ok {
			acc.dtCnt++
			d := ISODate(t)
			if acc.earliest == "" || d < acc.earliest {
				acc.earliest = d
			}
			if acc.latest == "" || d > acc.latest {
				acc.latest = d
			}
		}
		if _, seen := acc.distinct[v]; !seen {
			acc.order = append(acc.order, v)
		}
		acc.distinct[v]++
	}
	return acc
}

// classify applies the thresholds in fixed order: numeric wins over date.
func (a *colAcc) classify(n int, opt Options) ColumnKind {
	switch {
	case float64(a.numCnt) > opt.NumericThreshold*float64(n):
		return KindNumeric
	case float64(a.dtCnt) > opt.DateThreshold*float64(n):
		return KindDate
	default:
		return KindCategorical
	}
}

func (a *colAcc) numericStats(st *ColumnStatistics) {
	if len(a.nums) == 0 {
		return
	}
	lo, hi, mean := math.Inf(1), math.Inf(-1), 0.0
	for i, x := range a.nums {
		if x < lo {
			lo = x
		}
		if x > hi {
			hi = x
		}
		// running mean; each term stays within the float64 range
		n := float64(i + 1)
		mean = mean - mean/n + x/n
	}
	// rounding can drift past the extrema when all values are equal
	mean = math.Max(lo, math.Min(hi, mean))
	st.Min, st.Max, st.Mean = &lo, &hi, &mean
}

func (a *colAcc) dateStats(st *ColumnStatistics) {
	st.Earliest, st.Latest = a.earliest, a.latest
}

func (a *colAcc) categoricalStats(st *ColumnStatistics, limit int) {
	unique := len(a.distinct)
	st.UniqueValues = &unique
	if limit == 0 {
		return
	}
	// Top values merge by display string, so Text "1" and Number 1 share an entry.
	counts := map[string]int{}
	var labels []string
	for _, v := range a.order {
		label := v.String()
		if _, ok := counts[label]; !ok {
			labels = append(labels, label)
		}
		counts[label] += a.distinct[v]
	}
	tops := make([]CategoryCount, 0, len(labels))
	for _, l := range labels {
		tops = append(tops, CategoryCount{Value: l, Count: counts[l]})
	}
	sort.SliceStable(tops, func(i, j int) bool {
		if tops[i].Count == tops[j].Count {
			return tops[i].Value < tops[j].Value
		}
		return tops[i].Count > tops[j].Count
	})
	if len(tops) > limit {
		tops = tops[:limit]
	}
	st.TopValues = tops
}
