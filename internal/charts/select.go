package charts

import (
	"fmt"
	"math"
	"sort"

	"github.com/KaramelBytes/datalens-cli/internal/analysis"
	"github.com/KaramelBytes/datalens-cli/internal/parser"
)

const unknownLabel = "Unknown"

// Select derives the default charts for a profiled dataset. Rules fire in a
// fixed order and each is gated on the column kinds it needs; a rule whose
// preconditions fail contributes nothing. The result depends only on its
// inputs, and every chart owns its data slice.
func Select(data *parser.ParsedData, summary *analysis.DataSummary) []ChartSpec {
	if data == nil || summary == nil {
		return []ChartSpec{}
	}
	out := []ChartSpec{}
	numeric := summary.Numeric()
	categorical := summary.Categorical()

	if num, ok := numeric.First(); ok {
		if cat, ok := categorical.First(); ok {
			out = append(out, groupedSums(data.Rows, cat, num)...)
		}
		if dateCol, ok := summary.Dates().First(); ok {
			out = append(out, dailyMeans(data.Rows, dateCol, num)...)
		}
		if second, ok := numeric.Second(); ok {
			out = append(out, scatterPlot(data.Rows, num, second)...)
		}
		return out
	}
	if cat, ok := categorical.First(); ok {
		out = append(out, frequencies(data.Rows, cat)...)
	}
	return out
}

// groupedSums totals num per value of cat; non-numeric cells add 0.
func groupedSums(rows []parser.Row, cat, num string) []ChartSpec {
	g := newGrouper()
	for _, row := range rows {
		f, _ := analysis.NumericValue(row.Get(num))
		g.add(label(row.Get(cat)), f)
	}
	points := g.points()
	return []ChartSpec{
		{
			ID:          "bar-chart-1",
			Title:       fmt.Sprintf("%s by %s", num, cat),
			Description: fmt.Sprintf("Bar chart showing %s values grouped by %s", num, cat),
			Type:        TypeBar,
			Data:        points,
			Config:      AxisConfig{XAxis: cat, YAxis: num},
		},
		{
			ID:          "pie-chart-1",
			Title:       fmt.Sprintf("Distribution of %s by %s", num, cat),
			Description: fmt.Sprintf("Pie chart showing distribution of %s across %s categories", num, cat),
			Type:        TypePie,
			Data:        append(Categories(nil), points...),
			Config:      AxisConfig{NameKey: "name", ValueKey: "value"},
		},
	}
}

// dailyMeans averages num per calendar day of dateCol. Rows without a
// parseable date are skipped; non-numeric values count as 0 in the mean.
func dailyMeans(rows []parser.Row, dateCol, num string) []ChartSpec {
	type acc struct {
		mean  float64
		count int
	}
	days := map[string]*acc{}
	for _, row := range rows {
		t, ok := analysis.DateValue(row.Get(dateCol))
		if !ok {
			continue
		}
		day := analysis.ISODate(t)
		a := days[day]
		if a == nil {
			a = &acc{}
			days[day] = a
		}
		f, _ := analysis.NumericValue(row.Get(num))
		a.count++
		n := float64(a.count)
		a.mean = a.mean - a.mean/n + f/n
	}
	if len(days) == 0 {
		return nil
	}
	keys := make([]string, 0, len(days))
	for k := range days {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	series := make(TimeSeries, 0, len(keys))
	for _, k := range keys {
		series = append(series, TimePoint{Date: k, Value: days[k].mean})
	}
	return []ChartSpec{
		{
			ID:          "line-chart-1",
			Title:       fmt.Sprintf("%s Trends Over Time", num),
			Description: fmt.Sprintf("Line chart showing %s trends by %s", num, dateCol),
			Type:        TypeLine,
			Data:        series,
			Config:      AxisConfig{XAxis: "date", YAxis: "value"},
		},
		{
			ID:          "area-chart-1",
			Title:       fmt.Sprintf("%s Area Over Time", num),
			Description: fmt.Sprintf("Area chart showing %s changes over time", num),
			Type:        TypeArea,
			Data:        append(TimeSeries(nil), series...),
			Config:      AxisConfig{XAxis: "date", YAxis: "value"},
		},
	}
}

// scatterPlot pairs xCol and yCol on rows where both are numeric.
func scatterPlot(rows []parser.Row, xCol, yCol string) []ChartSpec {
	var pts Scatter
	for _, row := range rows {
		x, okX := analysis.NumericValue(row.Get(xCol))
		y, okY := analysis.NumericValue(row.Get(yCol))
		if okX && okY {
			pts = append(pts, XYPoint{X: x, Y: y})
		}
	}
	if len(pts) == 0 {
		return nil
	}
	return []ChartSpec{{
		ID:          "scatter-plot-1",
		Title:       fmt.Sprintf("%s vs %s", xCol, yCol),
		Description: fmt.Sprintf("Scatter plot showing relationship between %s and %s", xCol, yCol),
		Type:        TypeScatter,
		Data:        pts,
		Config:      AxisConfig{XAxis: xCol, YAxis: yCol},
	}}
}

// frequencies counts rows per value of cat across the whole dataset.
func frequencies(rows []parser.Row, cat string) []ChartSpec {
	g := newGrouper()
	for _, row := range rows {
		g.add(label(row.Get(cat)), 1)
	}
	points := g.points()
	return []ChartSpec{
		{
			ID:          "column-chart-1",
			Title:       fmt.Sprintf("Frequency of %s", cat),
			Description: fmt.Sprintf("Column chart showing counts of each %s category", cat),
			Type:        TypeColumn,
			Data:        points,
			Config:      AxisConfig{XAxis: "name", YAxis: "value"},
		},
		{
			ID:          "donut-chart-1",
			Title:       fmt.Sprintf("Distribution of %s", cat),
			Description: fmt.Sprintf("Donut chart showing distribution of %s categories", cat),
			Type:        TypeDonut,
			Data:        append(Categories(nil), points...),
			Config:      AxisConfig{NameKey: "name", ValueKey: "value"},
		},
	}
}

func label(v parser.Value) string {
	if v.IsEmpty() {
		return unknownLabel
	}
	return v.String()
}

// grouper sums values per label, keeping labels in first-seen order.
type grouper struct {
	idx  map[string]int
	list Categories
}

func newGrouper() *grouper { return &grouper{idx: map[string]int{}} }

func (g *grouper) add(name string, v float64) {
	i, ok := g.idx[name]
	if !ok {
		i = len(g.list)
		g.idx[name] = i
		g.list = append(g.list, CategoryPoint{Name: name})
	}
	g.list[i].Value = saturate(g.list[i].Value + v)
}

// saturate pins an overflowed sum to the largest finite float of its sign.
func saturate(f float64) float64 {
	switch {
	case math.IsInf(f, 1):
		return math.MaxFloat64
	case math.IsInf(f, -1):
		return -math.MaxFloat64
	}
	return f
}

func (g *grouper) points() Categories { return g.list }
