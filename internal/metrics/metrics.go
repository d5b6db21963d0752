// Package metrics exposes prometheus instrumentation for task runs, the
// content cache, the watcher and live reload.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "assetforge"

// buckets for seconds resolutions of histograms
var buckets = []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 10}

// Metrics holds the collectors of one process. A nil *Metrics is valid and
// records nothing.
type Metrics struct {
	registry *prometheus.Registry

	TaskDuration  *prometheus.HistogramVec
	TaskFailures  *prometheus.CounterVec
	Intercepted   *prometheus.CounterVec
	FilesWritten  *prometheus.CounterVec
	CacheHits     prometheus.Counter
	CacheMisses   prometheus.Counter
	WatchEvents   prometheus.Counter
	Reloads       *prometheus.CounterVec
	ReloadClients prometheus.Gauge
}

// New creates the collectors and registers them, together with the Go and
// process collectors, on a private registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		TaskDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "task_duration_seconds",
			Help:      "Time taken to run a task.",
			Buckets:   buckets,
		}, []string{"task"}),
		TaskFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "task_failures_total",
			Help:      "Task runs that returned an error.",
		}, []string{"task"}),
		Intercepted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "task_errors_intercepted_total",
			Help:      "Task errors reported and swallowed in watch mode.",
		}, []string{"task"}),
		FilesWritten: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "files_written_total",
			Help:      "Files written to the build directory.",
		}, []string{"task"}),
		CacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_hits_total",
			Help:      "Outputs skipped because their sources did not change.",
		}),
		CacheMisses: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_misses_total",
			Help:      "Outputs regenerated.",
		}),
		WatchEvents: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "watch_events_total",
			Help:      "Debounced file system changes received by the watcher.",
		}),
		Reloads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reload_messages_total",
			Help:      "Messages broadcast to live reload clients.",
		}, []string{"type"}),
		ReloadClients: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "reload_clients",
			Help:      "Connected live reload clients.",
		}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.TaskDuration,
		m.TaskFailures,
		m.Intercepted,
		m.FilesWritten,
		m.CacheHits,
		m.CacheMisses,
		m.WatchEvents,
		m.Reloads,
		m.ReloadClients,
	)
	return m
}

// Handler serves the registry in the prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveTask records one task run.
func (m *Metrics) ObserveTask(task string, d time.Duration, err error) {
	if m == nil {
		return
	}
	m.TaskDuration.WithLabelValues(task).Observe(d.Seconds())
	if err != nil {
		m.TaskFailures.WithLabelValues(task).Inc()
	}
}

func (m *Metrics) ObserveIntercepted(task string) {
	if m == nil {
		return
	}
	m.Intercepted.WithLabelValues(task).Inc()
}

func (m *Metrics) FileWritten(task string) {
	if m == nil {
		return
	}
	m.FilesWritten.WithLabelValues(task).Inc()
}

func (m *Metrics) CacheHit() {
	if m == nil {
		return
	}
	m.CacheHits.Inc()
}

func (m *Metrics) CacheMiss() {
	if m == nil {
		return
	}
	m.CacheMisses.Inc()
}

func (m *Metrics) WatchEvent() {
	if m == nil {
		return
	}
	m.WatchEvents.Inc()
}

// Reload counts a broadcast message of the given type.
func (m *Metrics) Reload(kind string) {
	if m == nil {
		return
	}
	m.Reloads.WithLabelValues(kind).Inc()
}

func (m *Metrics) SetClients(n int) {
	if m == nil {
		return
	}
	m.ReloadClients.Set(float64(n))
}
