// Package metrics records per-run Prometheus metrics and writes them in the
// node_exporter textfile format.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "autopost"

// Recorder holds the run metrics on a private registry. A nil *Recorder is a
// valid no-op.
type Recorder struct {
	registry *prometheus.Registry
	path     string

	runsTotal     *prometheus.CounterVec
	stageFailures *prometheus.CounterVec
	stageDuration *prometheus.HistogramVec
	lastPublished prometheus.Gauge
}

// New returns a recorder that Flush writes to textfilePath. An empty path
// keeps metrics in memory only.
func New(textfilePath string) *Recorder {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)
	return &Recorder{
		registry: reg,
		path:     textfilePath,
		runsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "runs_total",
				Help:      "Pipeline runs by outcome",
			},
			[]string{"outcome"},
		),
		stageFailures: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "stage_failures_total",
				Help:      "Stage failures by stage and severity",
			},
			[]string{"stage", "severity"},
		),
		stageDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "stage_duration_seconds",
				Help:      "Duration of pipeline stages in seconds",
				Buckets:   []float64{0.1, 0.5, 1, 5, 15, 30, 60, 120, 300, 600},
			},
			[]string{"stage"},
		),
		lastPublished: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "last_published_timestamp_seconds",
				Help:      "Unix time of the last successfully published post",
			},
		),
	}
}

// RunFinished counts a run with the given outcome (published, degraded, failed).
func (r *Recorder) RunFinished(outcome string) {
	if r == nil {
		return
	}
	r.runsTotal.WithLabelValues(outcome).Inc()
}

// StageFailed counts a stage failure.
func (r *Recorder) StageFailed(stage, severity string) {
	if r == nil {
		return
	}
	r.stageFailures.WithLabelValues(stage, severity).Inc()
}

// ObserveStage records how long a stage took.
func (r *Recorder) ObserveStage(stage string, elapsed time.Duration) {
	if r == nil {
		return
	}
	r.stageDuration.WithLabelValues(stage).Observe(elapsed.Seconds())
}

// Published stamps the last successful publish time.
func (r *Recorder) Published(at time.Time) {
	if r == nil {
		return
	}
	r.lastPublished.Set(float64(at.Unix()))
}

// Gatherer exposes the registry.
func (r *Recorder) Gatherer() prometheus.Gatherer {
	if r == nil {
		return prometheus.NewRegistry()
	}
	return r.registry
}

// Flush writes the textfile when a path is configured.
func (r *Recorder) Flush() error {
	if r == nil || r.path == "" {
		return nil
	}
	return prometheus.WriteToTextfile(r.path, r.registry)
}
