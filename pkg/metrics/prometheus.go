// Package metrics provides Prometheus recording and querying for
// orchestration runs.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder exports run telemetry as Prometheus metrics. It satisfies the
// orchestrator's Observer interface.
type Recorder struct {
	runsTotal       *prometheus.CounterVec
	iterationsTotal prometheus.Counter
	scoreHistogram  prometheus.Histogram
	toolDuration    *prometheus.HistogramVec
	contextTokens   prometheus.Gauge
}

// NewRecorder creates a Recorder registered on the default registry.
func NewRecorder() *Recorder {
	return &Recorder{
		runsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "relief_runs_total",
				Help: "Total number of orchestration runs by outcome",
			},
			[]string{"outcome"},
		),
		iterationsTotal: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "relief_iterations_total",
				Help: "Total number of orchestration loop iterations",
			},
		),
		scoreHistogram: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "relief_effectiveness_score",
				Help:    "Distribution of per-iteration effectiveness scores",
				Buckets: prometheus.LinearBuckets(0, 0.1, 11),
			},
		),
		toolDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "relief_tool_duration_seconds",
				Help:    "Duration of tool invocations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"tool"},
		),
		contextTokens: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "relief_context_tokens",
				Help: "Approximate token count of the compacted session context",
			},
		),
	}
}

// ObserveTool records the duration of a single tool invocation.
func (r *Recorder) ObserveTool(tool string, duration time.Duration) {
	r.toolDuration.WithLabelValues(tool).Observe(duration.Seconds())
}

// ObserveIteration records one completed loop iteration and its score.
func (r *Recorder) ObserveIteration(score float64) {
	r.iterationsTotal.Inc()
	r.scoreHistogram.Observe(score)
}

// ObserveRun records a finished run under its outcome label.
func (r *Recorder) ObserveRun(outcome string, loops int, score float64) {
	r.runsTotal.WithLabelValues(outcome).Inc()
}

// SetContextTokens updates the session context token gauge.
func (r *Recorder) SetContextTokens(n int) {
	r.contextTokens.Set(float64(n))
}
