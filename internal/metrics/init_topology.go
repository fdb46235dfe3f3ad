package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

func (r *Registry) initTopologyMetrics() {
	r.TopologiesStored = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "topoview_topologies_stored",
			Help: "Number of topologies in the database",
		},
	)

	r.TopologyImports = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "topoview_topology_imports_total",
			Help: "Total number of topology imports",
		},
		[]string{"format", "status"},
	)

	r.DiscoveryScans = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "topoview_discovery_scans_total",
			Help: "Total number of discovery scans",
		},
		[]string{"source", "status"},
	)

	r.DiscoveredHosts = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "topoview_discovered_hosts",
			Help: "Hosts found by the most recent discovery scan",
		},
	)

	r.EventSubscribers = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "topoview_event_subscribers",
			Help: "Number of connected event stream clients",
		},
	)

	r.EventsDroppedTotal = promauto.With(r.registry).NewCounter(
		prometheus.CounterOpts{
			Name: "topoview_events_dropped_total",
			Help: "Events dropped because a subscriber was not keeping up",
		},
	)
}
