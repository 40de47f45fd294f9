package charts

// ChartType names a visualization the presentation layer knows how to draw.
type ChartType string

const (
	TypeBar     ChartType = "bar"
	TypeLine    ChartType = "line"
	TypePie     ChartType = "pie"
	TypeArea    ChartType = "area"
	TypeScatter ChartType = "scatter"
	TypeColumn  ChartType = "column"
	TypeDonut   ChartType = "donut"
	// TypeRadar is accepted by renderers but never chosen by Select.
	TypeRadar ChartType = "radar"
)

// ChartSpec is a self-contained chart description: type, plotting-ready data
// and the keys a renderer should bind to its axes.
type ChartSpec struct {
	ID          string     `json:"id" yaml:"id"`
	Title       string     `json:"title" yaml:"title"`
	Description string     `json:"description" yaml:"description"`
	Type        ChartType  `json:"type" yaml:"type"`
	Data        Dataset    `json:"data" yaml:"data"`
	Config      AxisConfig `json:"config" yaml:"config"`
}

// AxisConfig binds data keys or column names to chart axes. Cartesian charts
// set XAxis/YAxis; radial charts set NameKey/ValueKey.
type AxisConfig struct {
	XAxis    string `json:"xAxis,omitempty" yaml:"x_axis,omitempty"`
	YAxis    string `json:"yAxis,omitempty" yaml:"y_axis,omitempty"`
	NameKey  string `json:"nameKey,omitempty" yaml:"name_key,omitempty"`
	ValueKey string `json:"valueKey,omitempty" yaml:"value_key,omitempty"`
}

// Dataset is the data payload of a chart. Its concrete shape depends on the
// chart type.
type Dataset interface {
	Len() int
}

// CategoryPoint is one named bar or slice.
type CategoryPoint struct {
	Name  string  `json:"name" yaml:"name"`
	Value float64 `json:"value" yaml:"value"`
}

// TimePoint is one value on an ISO calendar date.
type TimePoint struct {
	Date  string  `json:"date" yaml:"date"`
	Value float64 `json:"value" yaml:"value"`
}

// XYPoint is one scatter observation.
type XYPoint struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
}

type (
	Categories []CategoryPoint
	TimeSeries []TimePoint
	Scatter    []XYPoint
)

func (c Categories) Len() int { return len(c) }
func (s TimeSeries) Len() int { return len(s) }
func (s Scatter) Len() int    { return len(s) }
