package domain

import (
	"crypto/sha256"
	"fmt"
)

// EdgeType represents the type of network link
type EdgeType string

const (
	EdgeTypeEthernet    EdgeType = "ethernet"
	EdgeTypeFiber       EdgeType = "fiber"
	EdgeTypeWireless    EdgeType = "wireless"
	EdgeTypeVLAN        EdgeType = "vlan"
	EdgeTypeVirtual     EdgeType = "virtual"
	EdgeTypeAggregation EdgeType = "aggregation"
)

// Edge represents a link between two nodes
type Edge struct {
	ID         string         `json:"id" yaml:"id,omitempty" toml:"id"`
	From       string         `json:"from" yaml:"from" toml:"from"`
	To         string         `json:"to" yaml:"to" toml:"to"`
	Type       EdgeType       `json:"type,omitempty" yaml:"type,omitempty" toml:"type"`
	Label      string         `json:"label,omitempty" yaml:"label,omitempty" toml:"label"`
	Properties map[string]any `json:"properties,omitempty" yaml:"properties,omitempty" toml:"properties"`
}

// NewEdge creates a new edge with a deterministic ID
func NewEdge(from, to string, edgeType EdgeType) *Edge {
	edge := &Edge{
		From:       from,
		To:         to,
		Type:       edgeType,
		Properties: make(map[string]any),
	}
	edge.ID = edge.GenerateID()
	return edge
}

// GenerateID creates a deterministic ID for the edge based on endpoints
func (e *Edge) GenerateID() string {
	// Normalize endpoints for consistent ID
	from, to := e.From, e.To
	if from > to {
		from, to = to, from
	}

	key := fmt.Sprintf("%s-%s-%s", from, to, e.Type)
	hash := sha256.Sum256([]byte(key))
	return fmt.Sprintf("%x", hash[:8])
}

// Connects reports whether the edge touches the given node
func (e *Edge) Connects(nodeID string) bool {
	return e.From == nodeID || e.To == nodeID
}

// Other returns the endpoint opposite nodeID, or "" if the edge does not touch it
func (e *Edge) Other(nodeID string) string {
	switch nodeID {
	case e.From:
		return e.To
	case e.To:
		return e.From
	}
	return ""
}

// SetProperty sets a property value
func (e *Edge) SetProperty(key string, value any) {
	if e.Properties == nil {
		e.Properties = make(map[string]any)
	}
	e.Properties[key] = value
}

// GetProperty gets a property value
func (e *Edge) GetProperty(key string) (any, bool) {
	if e.Properties == nil {
		return nil, false
	}
	val, ok := e.Properties[key]
	return val, ok
}
