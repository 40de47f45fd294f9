package server

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/KaramelBytes/datalens-cli/internal/pipeline"
)

// Metrics are the server's prometheus collectors, registered on a private
// registry so tests can build several servers in one process.
type Metrics struct {
	Registry *prometheus.Registry

	profiles *prometheus.CounterVec
	duration prometheus.Histogram
	rows     prometheus.Histogram
	charts   *prometheus.CounterVec
}

func newMetrics() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		profiles: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "datalens",
			Name:      "profiles_total",
			Help:      "Profiling requests by outcome.",
		}, []string{"outcome"}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "datalens",
			Name:      "profile_duration_seconds",
			Help:      "Time spent reading and profiling an upload.",
			Buckets:   prometheus.DefBuckets,
		}),
		rows: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "datalens",
			Name:      "profile_rows",
			Help:      "Rows per successfully profiled dataset.",
			Buckets:   prometheus.ExponentialBuckets(1, 10, 7),
		}),
		charts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "datalens",
			Name:      "charts_selected_total",
			Help:      "Charts selected by type.",
		}, []string{"type"}),
	}
	m.Registry.MustRegister(
		m.profiles, m.duration, m.rows, m.charts,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

func (m *Metrics) observe(out *pipeline.Output, err error, seconds float64) {
	m.profiles.WithLabelValues(outcome(err)).Inc()
	m.duration.Observe(seconds)
	if out == nil || err != nil {
		return
	}
	m.rows.Observe(float64(out.Data.RowCount))
	for _, c := range out.Charts {
		m.charts.WithLabelValues(string(c.Type)).Inc()
	}
}
