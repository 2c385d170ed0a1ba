// Package metrics exposes the outcome of an update run in the Prometheus
// textfile format, for node_exporter's textfile collector.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Run is the outcome of one update run.
type Run struct {
	StartedAt  time.Time
	FinishedAt time.Time
	Channel    string
	VersionID  string
	State      string
	Updated    bool
	// FailureClass is empty for successful runs.
	FailureClass string
}

type Metrics struct {
	registry *prometheus.Registry

	lastRun  prometheus.Gauge
	success  prometheus.Gauge
	updated  prometheus.Gauge
	duration prometheus.Gauge
	info     *prometheus.GaugeVec
	failure  *prometheus.GaugeVec
}

func New() *Metrics {
	reg := prometheus.NewRegistry()
	promFactory := promauto.With(reg)
	return &Metrics{
		registry: reg,
		lastRun: promFactory.NewGauge(prometheus.GaugeOpts{
			Name: "mcupdater_last_run_timestamp_seconds",
			Help: "Unix time the last update run finished",
		}),
		success: promFactory.NewGauge(prometheus.GaugeOpts{
			Name: "mcupdater_last_run_success",
			Help: "Whether the last update run finished without error",
		}),
		updated: promFactory.NewGauge(prometheus.GaugeOpts{
			Name: "mcupdater_last_run_updated",
			Help: "Whether the last update run replaced the server artifact",
		}),
		duration: promFactory.NewGauge(prometheus.GaugeOpts{
			Name: "mcupdater_last_run_duration_seconds",
			Help: "Duration of the last update run",
		}),
		info: promFactory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "mcupdater_last_run_info",
			Help: "Channel, resolved version and final state of the last update run",
		},
			[]string{"channel", "version", "state"},
		),
		failure: promFactory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "mcupdater_last_run_failure",
			Help: "Failure class of the last update run, absent on success",
		},
			[]string{"class"},
		),
	}
}

// Observe records run, replacing anything recorded before.
func (m *Metrics) Observe(run Run) {
	m.lastRun.Set(float64(run.FinishedAt.Unix()))
	m.duration.Set(run.FinishedAt.Sub(run.StartedAt).Seconds())
	m.success.Set(boolToFloat(run.FailureClass == ""))
	m.updated.Set(boolToFloat(run.Updated))

	m.info.Reset()
	m.info.WithLabelValues(run.Channel, run.VersionID, run.State).Set(1)

	m.failure.Reset()
	if run.FailureClass != "" {
		m.failure.WithLabelValues(run.FailureClass).Set(1)
	}
}

// WriteTextfile atomically writes all metrics to path.
func (m *Metrics) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, m.registry)
}

func boolToFloat(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
