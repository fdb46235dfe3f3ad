package metrics

import (
	"time"
)

// RecordHTTPRequest records an HTTP request with its duration
func (r *Registry) RecordHTTPRequest(method, route, status string, duration time.Duration) {
	r.HTTPRequestsTotal.WithLabelValues(method, route, status).Inc()
	r.HTTPRequestDuration.WithLabelValues(method, route, status).Observe(duration.Seconds())
}

// RecordLayout records a layout computation
func (r *Registry) RecordLayout(kind string, nodes, edges int, duration time.Duration, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	r.LayoutRunsTotal.WithLabelValues(kind, status).Inc()
	if err != nil {
		return
	}
	r.LayoutDuration.WithLabelValues(kind).Observe(duration.Seconds())
	r.LayoutNodes.Observe(float64(nodes))
	r.LayoutEdges.Observe(float64(edges))
}

// RecordPins counts computed positions replaced by pins
func (r *Registry) RecordPins(n int) {
	if n > 0 {
		r.LayoutPinnedPositions.Add(float64(n))
	}
}

// RecordImport records a topology import attempt
func (r *Registry) RecordImport(format string, err error) {
	r.TopologyImports.WithLabelValues(format, statusOf(err)).Inc()
}

// RecordDiscovery records a discovery scan and the number of hosts it found
func (r *Registry) RecordDiscovery(source string, hosts int, err error) {
	r.DiscoveryScans.WithLabelValues(source, statusOf(err)).Inc()
	if err == nil {
		r.DiscoveredHosts.Set(float64(hosts))
	}
}

// SetTopologiesStored sets the stored topology gauge
func (r *Registry) SetTopologiesStored(n int) {
	r.TopologiesStored.Set(float64(n))
}

func statusOf(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}
