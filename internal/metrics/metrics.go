// Package metrics counts inference runs, downgraded warnings and failures.
package metrics

import (
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/dusk-indust/scoregraph/internal/graph"
)

const (
	StatusOK     = "ok"
	StatusFailed = "failed"
)

// Collector owns a registry with the inference metrics.
type Collector struct {
	registry *prometheus.Registry
	runs     *prometheus.CounterVec
	failures *prometheus.CounterVec
	warnings prometheus.Counter
	notes    prometheus.Counter
	duration *prometheus.HistogramVec
}

func NewCollector() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		runs: prometheus.NewCounterVec(
			prometheus.CounterOpts{Name: "scoregraph_runs_total", Help: "Inference runs by outcome"},
			[]string{"status"},
		),
		failures: prometheus.NewCounterVec(
			prometheus.CounterOpts{Name: "scoregraph_failures_total", Help: "Failed runs by error kind"},
			[]string{"kind"},
		),
		warnings: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "scoregraph_warnings_total",
			Help: "Soft heuristic violations downgraded to warnings",
		}),
		notes: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "scoregraph_notes_total",
			Help: "Notes with an inferred onset and pitch",
		}),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "scoregraph_run_duration_seconds",
				Help:    "Inference run duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"status"},
		),
	}
	c.registry.MustRegister(c.runs, c.failures, c.warnings, c.notes, c.duration)
	return c
}

// Registry exposes the underlying registry.
func (c *Collector) Registry() *prometheus.Registry { return c.registry }

// Handler serves the registry in the Prometheus text format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// ObserveRun records one inference run. notes is the number of notes in
// the result of a successful run.
func (c *Collector) ObserveRun(err error, d time.Duration, notes int) {
	status := StatusOK
	if err != nil {
		status = StatusFailed
		c.failures.WithLabelValues(ErrorKind(err)).Inc()
	} else {
		c.notes.Add(float64(notes))
	}
	c.runs.WithLabelValues(status).Inc()
	c.duration.WithLabelValues(status).Observe(d.Seconds())
}

// WarningHook returns a logger option that counts every Warn entry.
func (c *Collector) WarningHook() zap.Option {
	return zap.Hooks(func(e zapcore.Entry) error {
		if e.Level == zapcore.WarnLevel {
			c.warnings.Inc()
		}
		return nil
	})
}

// ErrorKind names the kind of an inference error for labels.
func ErrorKind(err error) string {
	switch {
	case errors.Is(err, graph.ErrInvalidStructure):
		return "invalid_structure"
	case errors.Is(err, graph.ErrUnsupported):
		return "unsupported"
	case errors.Is(err, graph.ErrInconsistent):
		return "inconsistent"
	}
	return "other"
}
