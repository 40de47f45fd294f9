package charts_test

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KaramelBytes/datalens-cli/internal/analysis"
	"github.com/KaramelBytes/datalens-cli/internal/charts"
	"github.com/KaramelBytes/datalens-cli/internal/parser"
)

func selectFor(t *testing.T, name, content string) []charts.ChartSpec {
	t.Helper()
	data, err := parser.Parse(name, []byte(content))
	require.NoError(t, err)
	return charts.Select(data, analysis.Summarize(data, analysis.DefaultOptions()))
}

func ids(specs []charts.ChartSpec) []string {
	out := make([]string, 0, len(specs))
	for _, s := range specs {
		out = append(out, s.ID)
	}
	return out
}

func TestSelect_BarAndPie(t *testing.T) {
	specs := selectFor(t, "cities.json", `[{"city":"NY","pop":8},{"city":"LA","pop":4}]`)
	require.Equal(t, []string{"bar-chart-1", "pie-chart-1"}, ids(specs))

	want := charts.Categories{{Name: "NY", Value: 8}, {Name: "LA", Value: 4}}
	bar, pie := specs[0], specs[1]
	assert.Equal(t, charts.TypeBar, bar.Type)
	assert.Equal(t, "pop by city", bar.Title)
	assert.Equal(t, want, bar.Data)
	assert.Equal(t, charts.AxisConfig{XAxis: "city", YAxis: "pop"}, bar.Config)

	assert.Equal(t, charts.TypePie, pie.Type)
	assert.Equal(t, "Distribution of pop by city", pie.Title)
	assert.Equal(t, want, pie.Data)
	assert.Equal(t, charts.AxisConfig{NameKey: "name", ValueKey: "value"}, pie.Config)
}

func TestSelect_MissingCategoryIsUnknown(t *testing.T) {
	specs := selectFor(t, "c.csv", "city,pop\nNY,1\n,2\nNY,3\n")
	require.NotEmpty(t, specs)
	assert.Equal(t, charts.Categories{{Name: "NY", Value: 4}, {Name: "Unknown", Value: 2}}, specs[0].Data)
}

func TestSelect_FrequenciesWhenNoNumeric(t *testing.T) {
	specs := selectFor(t, "status.csv", "status\nopen\nopen\nclosed\n")
	require.Equal(t, []string{"column-chart-1", "donut-chart-1"}, ids(specs))

	want := charts.Categories{{Name: "open", Value: 2}, {Name: "closed", Value: 1}}
	assert.Equal(t, want, specs[0].Data)
	assert.Equal(t, want, specs[1].Data)
	assert.Equal(t, "Frequency of status", specs[0].Title)
	assert.Equal(t, "Distribution of status", specs[1].Title)
	assert.Equal(t, charts.TypeColumn, specs[0].Type)
	assert.Equal(t, charts.TypeDonut, specs[1].Type)
}

func TestSelect_TimeSeries(t *testing.T) {
	specs := selectFor(t, "sales.csv", "when,amount\n2024-01-02,4\n2024-01-01,1\n2024-01-02,2\n")
	require.Equal(t, []string{"line-chart-1", "area-chart-1"}, ids(specs))

	want := charts.TimeSeries{{Date: "2024-01-01", Value: 1}, {Date: "2024-01-02", Value: 3}}
	assert.Equal(t, want, specs[0].Data)
	assert.Equal(t, want, specs[1].Data)
	assert.Equal(t, "amount Trends Over Time", specs[0].Title)
	assert.Equal(t, "amount Area Over Time", specs[1].Title)
	assert.Equal(t, charts.AxisConfig{XAxis: "date", YAxis: "value"}, specs[0].Config)
}

func TestSelect_Scatter(t *testing.T) {
	specs := selectFor(t, "xy.csv", "x,y\n1,2\n3,4\n")
	require.Equal(t, []string{"scatter-plot-1"}, ids(specs))
	assert.Equal(t, "x vs y", specs[0].Title)
	assert.Equal(t, charts.Scatter{{X: 1, Y: 2}, {X: 3, Y: 4}}, specs[0].Data)
	assert.Equal(t, charts.AxisConfig{XAxis: "x", YAxis: "y"}, specs[0].Config)
}

func TestSelect_RuleOrder(t *testing.T) {
	content := "when,region,x,y\n" +
		"2024-01-01,north,1,2\n" +
		"2024-01-02,south,3,4\n" +
		"2024-01-03,north,5,6\n"
	specs := selectFor(t, "all.csv", content)
	assert.Equal(t, []string{
		"bar-chart-1", "pie-chart-1",
		"line-chart-1", "area-chart-1",
		"scatter-plot-1",
	}, ids(specs))
}

func TestSelect_NothingToChart(t *testing.T) {
	specs := selectFor(t, "n.csv", "n\n1\n2\n")
	assert.NotNil(t, specs)
	assert.Empty(t, specs)

	assert.Empty(t, charts.Select(nil, nil))
}

func TestSelect_Deterministic(t *testing.T) {
	content := `[
		{"d":"2024-02-01","cat":"b","v":1,"w":2},
		{"d":"2024-01-01","cat":"a","v":3,"w":4},
		{"d":"2024-02-01","cat":"b","v":5,"w":6}
	]`
	first, err := json.Marshal(selectFor(t, "d.json", content))
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		again, err := json.Marshal(selectFor(t, "d.json", content))
		require.NoError(t, err)
		assert.JSONEq(t, string(first), string(again))
	}
}

func TestSelect_HugeValuesStayFinite(t *testing.T) {
	specs := selectFor(t, "big.csv", "g,v\na,1e308\na,1e308\nb,-1e308\nb,-1e308\n")
	require.Equal(t, []string{"bar-chart-1", "pie-chart-1"}, ids(specs))
	want := charts.Categories{{Name: "a", Value: math.MaxFloat64}, {Name: "b", Value: -math.MaxFloat64}}
	assert.Equal(t, want, specs[0].Data)
	_, err := json.Marshal(specs)
	require.NoError(t, err)

	specs = selectFor(t, "days.csv", "d,v\n2024-01-01,1e308\n2024-01-01,1e308\n2024-01-02,-1e308\n")
	require.Equal(t, []string{"line-chart-1", "area-chart-1"}, ids(specs))
	series := specs[0].Data.(charts.TimeSeries)
	assert.InEpsilon(t, 1e308, series[0].Value, 1e-12)
	assert.InEpsilon(t, -1e308, series[1].Value, 1e-12)
	_, err = json.Marshal(specs)
	require.NoError(t, err)
}

func TestSelect_PairedChartsOwnTheirData(t *testing.T) {
	specs := selectFor(t, "c.csv", "city,pop\nNY,8\nLA,4\n")
	specs[0].Data.(charts.Categories)[0].Value = -1
	assert.Equal(t, 8.0, specs[1].Data.(charts.Categories)[0].Value)

	specs = selectFor(t, "s.csv", "status\nopen\nclosed\n")
	specs[0].Data.(charts.Categories)[0].Name = "changed"
	assert.Equal(t, "open", specs[1].Data.(charts.Categories)[0].Name)

	specs = selectFor(t, "t.csv", "when,amount\n2024-01-01,1\n")
	specs[0].Data.(charts.TimeSeries)[0].Value = 99
	assert.Equal(t, 1.0, specs[1].Data.(charts.TimeSeries)[0].Value)
}
