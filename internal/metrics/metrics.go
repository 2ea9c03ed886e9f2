package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	PipelineRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "climate_pipeline_runs_total",
			Help: "Total forecast pipeline runs by outcome",
		},
		[]string{"outcome"},
	)

	PipelineDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "climate_pipeline_duration_seconds",
			Help:    "Wall time of a full forecast pipeline run",
			Buckets: []float64{1, 5, 10, 30, 60, 120, 300},
		},
	)

	StageDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "climate_pipeline_stage_duration_seconds",
			Help:    "Wall time of each pipeline stage",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"stage"},
	)

	LastSuccessfulRun = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "climate_pipeline_last_success_timestamp_seconds",
			Help: "Unix time of the last successful forecast run",
		},
	)

	PredictionsWritten = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "climate_predictions_written_total",
			Help: "Total prediction rows persisted",
		},
		[]string{"table"},
	)

	SourceFetchesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "climate_source_fetches_total",
			Help: "Total source CSV fetches",
		},
		[]string{"source", "status"},
	)

	SourceRowsImported = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "climate_source_rows_imported_total",
			Help: "Total rows imported into source tables",
		},
		[]string{"table"},
	)

	NewsRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "climate_news_requests_total",
			Help: "Total upstream news API requests by outcome",
		},
		[]string{"outcome"},
	)

	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "climate_api_requests_total",
			Help: "Total API requests by route and status code",
		},
		[]string{"route", "code"},
	)
)
