package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

func (r *Registry) initLayoutMetrics() {
	r.LayoutRunsTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "topoview_layout_runs_total",
			Help: "Total number of layout computations",
		},
		[]string{"kind", "status"}, // kind: stored, preview, scenario
	)

	r.LayoutDuration = promauto.With(r.registry).NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "topoview_layout_duration_seconds",
			Help:    "Time spent computing a layout",
			Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		},
		[]string{"kind"},
	)

	r.LayoutNodes = promauto.With(r.registry).NewHistogram(
		prometheus.HistogramOpts{
			Name:    "topoview_layout_nodes",
			Help:    "Number of nodes per layout run",
			Buckets: []float64{1, 5, 10, 25, 50, 100, 250, 500},
		},
	)

	r.LayoutEdges = promauto.With(r.registry).NewHistogram(
		prometheus.HistogramOpts{
			Name:    "topoview_layout_edges",
			Help:    "Number of edges per layout run",
			Buckets: []float64{0, 5, 10, 25, 50, 100, 250, 500, 1000},
		},
	)

	r.LayoutPinnedPositions = promauto.With(r.registry).NewCounter(
		prometheus.CounterOpts{
			Name: "topoview_layout_pinned_positions_total",
			Help: "Total number of computed positions overridden by operator pins",
		},
	)
}
