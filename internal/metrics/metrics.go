// Package metrics defines the Manager's self-owned Prometheus collector,
// following the pattern of a component registering its own metrics rather
// than reaching for a global registry.
package metrics

import "github.com/prometheus/client_golang/prometheus"

// Manager tracks Manager-level operation counts and commit latency.
type Manager struct {
	ConfigureTotal      prometheus.Counter
	ReconfigureTotal    prometheus.Counter
	CommitFailuresTotal prometheus.Counter
	CommitDuration      prometheus.Histogram
}

// NewManager builds a fresh, unregistered metric set. Callers register it
// with whatever *prometheus.Registry they own.
func NewManager() *Manager {
	return &Manager{
		ConfigureTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "devicemanager",
			Name:      "configure_total",
			Help:      "Number of configure operations processed.",
		}),
		ReconfigureTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "devicemanager",
			Name:      "reconfigure_total",
			Help:      "Number of reconfigure operations processed.",
		}),
		CommitFailuresTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "devicemanager",
			Name:      "commit_failures_total",
			Help:      "Number of commits that failed, in cgroup path resolution or in DeviceController.Apply.",
		}),
		CommitDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "devicemanager",
			Name:      "commit_duration_seconds",
			Help:      "Latency of successfully resolved commits: cgroup path resolution plus DeviceController.Apply.",
			Buckets:   prometheus.DefBuckets,
		}),
	}
}

// Describe implements prometheus.Collector.
func (m *Manager) Describe(ch chan<- *prometheus.Desc) {
	m.ConfigureTotal.Describe(ch)
	m.ReconfigureTotal.Describe(ch)
	m.CommitFailuresTotal.Describe(ch)
	m.CommitDuration.Describe(ch)
}

// Collect implements prometheus.Collector.
func (m *Manager) Collect(ch chan<- prometheus.Metric) {
	m.ConfigureTotal.Collect(ch)
	m.ReconfigureTotal.Collect(ch)
	m.CommitFailuresTotal.Collect(ch)
	m.CommitDuration.Collect(ch)
}
