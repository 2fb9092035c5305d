// Package metrics exposes benchmark outcomes as Prometheus metrics.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/koaf/server-benchmark/pkg/bench"
)

// Exporter publishes counters for runs, a run duration histogram and the
// latest measured value of every benchmark metric.
type Exporter struct {
	registry *prometheus.Registry

	runsTotal   prometheus.Counter
	runDuration prometheus.Histogram
	scores      *prometheus.GaugeVec
	errors      *prometheus.GaugeVec
}

// NewExporter builds an exporter backed by its own registry, so multiple
// instances can coexist in one process.
func NewExporter() *Exporter {
	registry := prometheus.NewRegistry()

	e := &Exporter{
		registry: registry,
		runsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "benchmark_runs_total",
			Help: "Number of completed benchmark runs since startup.",
		}),
		runDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "benchmark_run_duration_seconds",
			Help:    "Wall-clock duration of full benchmark runs.",
			Buckets: prometheus.ExponentialBuckets(10, 2, 8),
		}),
		scores: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "benchmark_score",
			Help: "Latest measured value per benchmark metric.",
		}, []string{"benchmark", "metric"}),
		errors: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "benchmark_error",
			Help: "1 when the benchmark failed in the latest run, 0 otherwise.",
		}, []string{"benchmark"}),
	}

	registry.MustRegister(e.runsTotal, e.runDuration, e.scores, e.errors)
	return e
}

// Hook returns a completion hook for the benchmark runner.
func (e *Exporter) Hook() bench.RunHook {
	return func(env bench.Envelope, elapsed time.Duration) {
		e.runsTotal.Inc()
		e.runDuration.Observe(elapsed.Seconds())

		for name, result := range env.Benchmarks {
			if result.Status == bench.StatusError {
				e.errors.WithLabelValues(name).Set(1)
				continue
			}
			e.errors.WithLabelValues(name).Set(0)
			for metric, value := range result.Metrics {
				e.scores.WithLabelValues(name, metric).Set(value)
			}
		}
	}
}

// Handler serves the exporter's registry in the Prometheus text format.
func (e *Exporter) Handler() http.Handler {
	return promhttp.HandlerFor(e.registry, promhttp.HandlerOpts{})
}
