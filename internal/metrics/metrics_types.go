// Package metrics exposes Prometheus instrumentation for layout runs, the
// HTTP API, discovery scans and the event stream.
package metrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry holds all metrics for the application
type Registry struct {
	// HTTP Metrics
	HTTPRequestsTotal    *prometheus.CounterVec
	HTTPRequestDuration  *prometheus.HistogramVec
	HTTPRequestsInFlight prometheus.Gauge

	// Layout Metrics
	LayoutRunsTotal       *prometheus.CounterVec
	LayoutDuration        *prometheus.HistogramVec
	LayoutNodes           prometheus.Histogram
	LayoutEdges           prometheus.Histogram
	LayoutPinnedPositions prometheus.Counter

	// Topology Metrics
	TopologiesStored   prometheus.Gauge
	TopologyImports    *prometheus.CounterVec
	DiscoveryScans     *prometheus.CounterVec
	DiscoveredHosts    prometheus.Gauge
	EventSubscribers   prometheus.Gauge
	EventsDroppedTotal prometheus.Counter

	registry *prometheus.Registry
}

var (
	// Global registry instance
	defaultRegistry *Registry
	once            sync.Once
)

// DefaultRegistry returns the global metrics registry
func DefaultRegistry() *Registry {
	once.Do(func() {
		defaultRegistry = NewRegistry()
	})
	return defaultRegistry
}

// NewRegistry creates a new metrics registry with all metrics initialized
func NewRegistry() *Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	r := &Registry{
		registry: reg,
	}

	r.initHTTPMetrics()
	r.initLayoutMetrics()
	r.initTopologyMetrics()

	return r
}

// GetPrometheusRegistry returns the underlying Prometheus registry
func (r *Registry) GetPrometheusRegistry() *prometheus.Registry {
	return r.registry
}

// Handler serves the registry in the Prometheus exposition format
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}
