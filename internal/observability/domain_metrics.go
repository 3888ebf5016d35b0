package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	pipelineRunsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "askdb_pipeline_runs_total",
			Help: "Total number of query pipeline runs by outcome.",
		},
		[]string{"outcome"},
	)
	pipelineStageDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "askdb_pipeline_stage_duration_seconds",
			Help:    "Duration of individual query pipeline stages.",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"stage"},
	)
	summaryFallbacksTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "askdb_summary_fallbacks_total",
			Help: "Total number of summaries degraded to the local fallback template.",
		},
	)
)

func init() {
	prometheus.MustRegister(
		pipelineRunsTotal,
		pipelineStageDurationSeconds,
		summaryFallbacksTotal,
	)
}

func ObservePipelineRun(outcome string) {
	pipelineRunsTotal.WithLabelValues(outcome).Inc()
}

func ObservePipelineStage(stage string, elapsed time.Duration) {
	pipelineStageDurationSeconds.WithLabelValues(stage).Observe(elapsed.Seconds())
}

func IncrementSummaryFallback() {
	summaryFallbacksTotal.Inc()
}
