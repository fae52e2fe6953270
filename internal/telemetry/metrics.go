package telemetry

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

const namespace = "mortar"

// Metrics holds the build collectors. Each Metrics owns its registry, so
// several instances never collide on registration.
type Metrics struct {
	Registry *prometheus.Registry

	builds         *prometheus.CounterVec
	targets        *prometheus.CounterVec
	targetDuration *prometheus.HistogramVec
	layerWidth     prometheus.Histogram
	running        prometheus.Gauge
}

// NewMetrics creates and registers the build collectors, plus the Go
// runtime and process collectors.
func NewMetrics() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		builds: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "builds_total",
			Help:      "Builds run, by result.",
		}, []string{"result"}),
		targets: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "targets_total",
			Help:      "Targets processed, by status.",
		}, []string{"status"}),
		targetDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "target_duration_seconds",
			Help:      "Wall time of a target's command sequence.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2, 5, 10, 30, 60, 300},
		}, []string{"status"}),
		layerWidth: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "layer_width",
			Help:      "Number of targets in a scheduled layer.",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 10),
		}),
		running: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "targets_running",
			Help:      "Targets whose commands are currently running.",
		}),
	}
	m.Registry.MustRegister(
		m.builds,
		m.targets,
		m.targetDuration,
		m.layerWidth,
		m.running,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// BuildFinished counts a build by result.
func (m *Metrics) BuildFinished(result string) {
	m.builds.WithLabelValues(result).Inc()
}

// LayerStarted records the width of a layer.
func (m *Metrics) LayerStarted(width int) {
	m.layerWidth.Observe(float64(width))
}

// TargetStarted marks a target as running.
func (m *Metrics) TargetStarted() {
	m.running.Inc()
}

// TargetFinished records a target's status and, for targets that ran, its
// duration.
func (m *Metrics) TargetFinished(status string, d time.Duration, ran bool) {
	m.targets.WithLabelValues(status).Inc()
	if ran {
		m.running.Dec()
		m.targetDuration.WithLabelValues(status).Observe(d.Seconds())
	}
}
