package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Recorder collects benchmark metrics in its own registry so that several
// recorders (one per test, for instance) never collide.
type Recorder struct {
	registry *prometheus.Registry

	SampleDuration      *prometheus.HistogramVec
	RunsTotal           *prometheus.CounterVec
	HostCPUPercent      prometheus.Gauge
	HostMemoryPercent   prometheus.Gauge
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
}

// NewRecorder creates and registers all metrics
func NewRecorder() *Recorder {
	r := &Recorder{registry: prometheus.NewRegistry()}

	r.SampleDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "buildbench_sample_duration_seconds",
			Help: "Wall-clock duration of timed benchmark iterations",
			// half a second up to about seventeen minutes
			Buckets: prometheus.ExponentialBuckets(0.5, 2, 12),
		},
		[]string{"project", "toolchain", "benchmark"},
	)

	r.RunsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "buildbench_runs_total",
			Help: "Total number of runs created",
		},
		[]string{"project", "toolchain"},
	)

	r.HostCPUPercent = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "buildbench_host_cpu_percent",
			Help: "Average host CPU utilisation during the last timed iteration",
		},
	)

	r.HostMemoryPercent = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "buildbench_host_memory_percent",
			Help: "Peak host memory utilisation during the last timed iteration",
		},
	)

	r.HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "buildbench_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	r.HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "buildbench_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	r.registry.MustRegister(
		r.SampleDuration,
		r.RunsTotal,
		r.HostCPUPercent,
		r.HostMemoryPercent,
		r.HTTPRequestsTotal,
		r.HTTPRequestDuration,
	)
	return r
}

// RunCreated counts a new run
func (r *Recorder) RunCreated(project, toolchain string) {
	r.RunsTotal.WithLabelValues(project, toolchain).Inc()
}

// ObserveSample records one timed iteration
func (r *Recorder) ObserveSample(project, toolchain, benchmark string, d time.Duration) {
	r.SampleDuration.WithLabelValues(project, toolchain, benchmark).Observe(d.Seconds())
}

// ObserveHostLoad publishes the load measured around a timed iteration
func (r *Recorder) ObserveHostLoad(load HostLoad) {
	r.HostCPUPercent.Set(load.CPUPercent)
	r.HostMemoryPercent.Set(load.PeakMemoryPercent)
}

// ObserveRequest records a served HTTP request
func (r *Recorder) ObserveRequest(method, route string, status int, d time.Duration) {
	r.HTTPRequestsTotal.WithLabelValues(method, route, fmt.Sprint(status)).Inc()
	r.HTTPRequestDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

// Gatherer exposes the registry for scraping
func (r *Recorder) Gatherer() prometheus.Gatherer {
	return r.registry
}

// WriteTextfile writes the current metrics in the node_exporter textfile
// format. The file is replaced atomically.
func (r *Recorder) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return fmt.Errorf("failed to write metrics textfile: %w", err)
	}
	return nil
}
