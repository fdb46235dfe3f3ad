package domain

import (
	"math"
	"time"
)

// NodePosition represents the position and pinning state of a node in the visualization
type NodePosition struct {
	NodeID string  `json:"node_id"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Pinned bool    `json:"pinned"`
}

// NewNodePosition creates an unpinned node position
func NewNodePosition(nodeID string, x, y float64) *NodePosition {
	return &NodePosition{NodeID: nodeID, X: x, Y: y}
}

// Upper bounds of the force parameters; larger values overflow the simulation.
// Kept in step with the validate tags on LayoutParams.
const (
	MaxIterations = 10000
	MaxRepulsion  = 1e9
	MaxAttraction = 1
	MaxRadius     = 1e6
)

// LayoutParams are the force parameters a layout run was computed with
type LayoutParams struct {
	Iterations int     `json:"iterations" validate:"min=0,max=10000"`
	Repulsion  float64 `json:"repulsion" validate:"gte=0,lte=1e9"`
	Attraction float64 `json:"attraction" validate:"gte=0,lte=1"`
	Damping    float64 `json:"damping" validate:"gte=0,lte=1"`
	Radius     float64 `json:"radius" validate:"gt=0,lte=1e6"`
}

// LayoutResult holds the outcome of one layout run over a topology
type LayoutResult struct {
	TopologyID string         `json:"topology_id,omitempty"`
	RunID      string         `json:"run_id,omitempty"`
	Params     LayoutParams   `json:"params"`
	Positions  []NodePosition `json:"positions"`
	ComputedAt time.Time      `json:"computed_at"`
	Duration   time.Duration  `json:"duration_ns"`
}

// Position looks up a node's position in the result
func (r *LayoutResult) Position(nodeID string) (NodePosition, bool) {
	for _, p := range r.Positions {
		if p.NodeID == nodeID {
			return p, true
		}
	}
	return NodePosition{}, false
}

// Finite reports whether every coordinate is a finite number
func (r *LayoutResult) Finite() bool {
	for _, p := range r.Positions {
		if math.IsNaN(p.X) || math.IsInf(p.X, 0) || math.IsNaN(p.Y) || math.IsInf(p.Y, 0) {
			return false
		}
	}
	return true
}

// ApplyPins overrides computed coordinates with pinned ones
func (r *LayoutResult) ApplyPins(pinned map[string]NodePosition) int {
	applied := 0
	for i, p := range r.Positions {
		pin, ok := pinned[p.NodeID]
		if !ok || !pin.Pinned {
			continue
		}
		r.Positions[i].X = pin.X
		r.Positions[i].Y = pin.Y
		r.Positions[i].Pinned = true
		applied++
	}
	return applied
}
