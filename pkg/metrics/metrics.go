// Package metrics exposes Prometheus collectors for the run and
// cancellation paths.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics records run and cancellation activity
type Metrics struct {
	runsTotal          *prometheus.CounterVec
	cancellationsTotal *prometheus.CounterVec
	runningProcesses   prometheus.Gauge
	runDuration        prometheus.Histogram
}

// New creates and registers the collectors on reg
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		runsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "apprun_runs_total",
			Help: "Completed runs by outcome status",
		}, []string{"status"}),
		cancellationsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "apprun_cancellations_total",
			Help: "Cancellation requests by result",
		}, []string{"result"}),
		runningProcesses: factory.NewGauge(prometheus.GaugeOpts{
			Name: "apprun_running_processes",
			Help: "Number of spawned processes currently running",
		}),
		runDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "apprun_run_duration_seconds",
			Help:    "Wall-clock duration of completed runs",
			Buckets: prometheus.ExponentialBuckets(0.1, 4, 10),
		}),
	}
}

// RunStarted marks a spawned process as running
func (m *Metrics) RunStarted() {
	m.runningProcesses.Inc()
}

// RunFinished records a resolved run
func (m *Metrics) RunFinished(succeeded bool, seconds float64) {
	m.runningProcesses.Dec()
	status := "failed"
	if succeeded {
		status = "succeeded"
	}
	m.runsTotal.WithLabelValues(status).Inc()
	m.runDuration.Observe(seconds)
}

// CancellationRecorded records the result of a cancellation request
func (m *Metrics) CancellationRecorded(result string) {
	m.cancellationsTotal.WithLabelValues(result).Inc()
}
