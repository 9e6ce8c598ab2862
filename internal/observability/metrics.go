package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the
// degree-day pipeline.
type Metrics struct {
	RecordsIngested   prometheus.Counter
	DuplicatesDropped prometheus.Counter
	RowsSkipped       prometheus.Counter
	PipelineRunning   prometheus.Gauge
	PassesCompleted   prometheus.Counter

	// Per-stage outcomes.
	StageRuns     *prometheus.CounterVec   // labels: stage, outcome={ok,skipped,error}
	StageDuration *prometheus.HistogramVec // labels: stage

	// Signal publishing.
	SignalsPublished prometheus.Counter
	PublishErrors    prometheus.Counter
}

// NewMetrics creates and registers all pipeline metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		RecordsIngested: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "weather_desk",
			Name:      "records_ingested_total",
			Help:      "Total daily records accepted into the run ledger.",
		}),
		DuplicatesDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "weather_desk",
			Name:      "duplicates_dropped_total",
			Help:      "Total records superseded during deduplication.",
		}),
		RowsSkipped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "weather_desk",
			Name:      "rows_skipped_total",
			Help:      "Total malformed input rows skipped with a warning.",
		}),
		PipelineRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "weather_desk",
			Name:      "pipeline_running",
			Help:      "1 when the pipeline is active, 0 when shut down.",
		}),
		PassesCompleted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "weather_desk",
			Name:      "passes_completed_total",
			Help:      "Total full pipeline passes completed.",
		}),
		StageRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "weather_desk",
			Name:      "stage_runs_total",
			Help:      "Stage executions by stage name and outcome.",
		}, []string{"stage", "outcome"}),
		StageDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "weather_desk",
			Name:      "stage_duration_seconds",
			Help:      "Duration of each pipeline stage.",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5, 15},
		}, []string{"stage"}),
		SignalsPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "weather_desk",
			Name:      "signals_published_total",
			Help:      "Total composite signals written to the sink topic.",
		}),
		PublishErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "weather_desk",
			Name:      "publish_errors_total",
			Help:      "Total failed publish attempts.",
		}),
	}

	prometheus.MustRegister(
		m.RecordsIngested,
		m.DuplicatesDropped,
		m.RowsSkipped,
		m.PipelineRunning,
		m.PassesCompleted,
		m.StageRuns,
		m.StageDuration,
		m.SignalsPublished,
		m.PublishErrors,
	)

	return m
}

// NewMetricsForTesting creates Metrics with a fresh registry to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return &Metrics{
		RecordsIngested:   prometheus.NewCounter(prometheus.CounterOpts{Namespace: "weather_desk", Name: "records_ingested_total"}),
		DuplicatesDropped: prometheus.NewCounter(prometheus.CounterOpts{Namespace: "weather_desk", Name: "duplicates_dropped_total"}),
		RowsSkipped:       prometheus.NewCounter(prometheus.CounterOpts{Namespace: "weather_desk", Name: "rows_skipped_total"}),
		PipelineRunning:   prometheus.NewGauge(prometheus.GaugeOpts{Namespace: "weather_desk", Name: "pipeline_running"}),
		PassesCompleted:   prometheus.NewCounter(prometheus.CounterOpts{Namespace: "weather_desk", Name: "passes_completed_total"}),
		StageRuns:         prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "weather_desk", Name: "stage_runs_total"}, []string{"stage", "outcome"}),
		StageDuration:     prometheus.NewHistogramVec(prometheus.HistogramOpts{Namespace: "weather_desk", Name: "stage_duration_seconds"}, []string{"stage"}),
		SignalsPublished:  prometheus.NewCounter(prometheus.CounterOpts{Namespace: "weather_desk", Name: "signals_published_total"}),
		PublishErrors:     prometheus.NewCounter(prometheus.CounterOpts{Namespace: "weather_desk", Name: "publish_errors_total"}),
	}
}
