package domain

import (
	"errors"
	"fmt"
	"sort"

	"topoview/internal/layout"
)

// ErrInvalidTopology is returned when a topology fails validation
var ErrInvalidTopology = errors.New("invalid topology")

// Topology is a named set of nodes and the links between them
type Topology struct {
	ID          string `json:"id" yaml:"id,omitempty" toml:"id"`
	Name        string `json:"name" yaml:"name" toml:"name"`
	Description string `json:"description,omitempty" yaml:"description,omitempty" toml:"description"`
	Source      string `json:"source,omitempty" yaml:"source,omitempty" toml:"source"`
	Nodes       []Node `json:"nodes" yaml:"nodes" toml:"nodes"`
	Edges       []Edge `json:"edges" yaml:"edges" toml:"edges"`
}

// NewTopology creates an empty topology
func NewTopology(id, name string) *Topology {
	return &Topology{
		ID:    id,
		Name:  name,
		Nodes: make([]Node, 0),
		Edges: make([]Edge, 0),
	}
}

// AddNode appends a node
func (t *Topology) AddNode(node Node) {
	t.Nodes = append(t.Nodes, node)
}

// AddEdge appends an edge, generating its ID when missing
func (t *Topology) AddEdge(edge Edge) {
	if edge.ID == "" {
		edge.ID = edge.GenerateID()
	}
	t.Edges = append(t.Edges, edge)
}

// NodeIDs returns node identifiers in declaration order
func (t *Topology) NodeIDs() []string {
	ids := make([]string, len(t.Nodes))
	for i, n := range t.Nodes {
		ids[i] = n.ID
	}
	return ids
}

// LayoutEdges returns the edge endpoints in the form the layout engine consumes.
// Duplicates and dangling edges are passed through unchanged.
func (t *Topology) LayoutEdges() []layout.Edge {
	edges := make([]layout.Edge, len(t.Edges))
	for i, e := range t.Edges {
		edges[i] = layout.Edge{From: e.From, To: e.To}
	}
	return edges
}

// Node returns the node with the given ID
func (t *Topology) Node(id string) (*Node, bool) {
	for i := range t.Nodes {
		if t.Nodes[i].ID == id {
			return &t.Nodes[i], true
		}
	}
	return nil, false
}

// Edge returns the edge with the given ID
func (t *Topology) Edge(id string) (*Edge, bool) {
	for i := range t.Edges {
		if t.Edges[i].ID == id {
			return &t.Edges[i], true
		}
	}
	return nil, false
}

// EdgesOf returns every edge touching the node, in declaration order
func (t *Topology) EdgesOf(nodeID string) []Edge {
	var edges []Edge
	for _, e := range t.Edges {
		if e.Connects(nodeID) {
			edges = append(edges, e)
		}
	}
	return edges
}

// Neighbors returns the IDs of nodes directly linked to nodeID, sorted
func (t *Topology) Neighbors(nodeID string) []string {
	seen := make(map[string]bool)
	for _, e := range t.EdgesOf(nodeID) {
		other := e.Other(nodeID)
		if other != "" && other != nodeID {
			seen[other] = true
		}
	}
	neighbors := make([]string, 0, len(seen))
	for id := range seen {
		if _, ok := t.Node(id); ok {
			neighbors = append(neighbors, id)
		}
	}
	sort.Strings(neighbors)
	return neighbors
}

// Neighborhood returns the ego graph of nodeID: the node first, then its
// neighbors, and every edge among them.
func (t *Topology) Neighborhood(nodeID string) (*Topology, error) {
	center, ok := t.Node(nodeID)
	if !ok {
		return nil, fmt.Errorf("node %s not found", nodeID)
	}

	ego := NewTopology(t.ID+"/"+nodeID, center.DisplayLabel())
	ego.Source = t.ID
	ego.AddNode(*center)

	members := map[string]bool{nodeID: true}
	for _, id := range t.Neighbors(nodeID) {
		n, _ := t.Node(id)
		ego.AddNode(*n)
		members[id] = true
	}

	for _, e := range t.Edges {
		if members[e.From] && members[e.To] {
			ego.AddEdge(e)
		}
	}
	return ego, nil
}

// DanglingEdges returns edges that reference a node missing from the topology.
// They are kept but contribute nothing to layout.
func (t *Topology) DanglingEdges() []Edge {
	known := make(map[string]bool, len(t.Nodes))
	for _, n := range t.Nodes {
		known[n.ID] = true
	}
	var dangling []Edge
	for _, e := range t.Edges {
		if !known[e.From] || !known[e.To] {
			dangling = append(dangling, e)
		}
	}
	return dangling
}

// Validate checks structural requirements: a name and unique, non-empty node IDs
func (t *Topology) Validate() error {
	if t.Name == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidTopology)
	}
	seen := make(map[string]bool, len(t.Nodes))
	for i, n := range t.Nodes {
		if n.ID == "" {
			return fmt.Errorf("%w: node at index %d has no id", ErrInvalidTopology, i)
		}
		if seen[n.ID] {
			return fmt.Errorf("%w: duplicate node id %q", ErrInvalidTopology, n.ID)
		}
		seen[n.ID] = true
	}
	for i, e := range t.Edges {
		if e.From == "" || e.To == "" {
			return fmt.Errorf("%w: edge at index %d is missing an endpoint", ErrInvalidTopology, i)
		}
	}
	return nil
}

// Normalize fills defaults: labels, severities, edge IDs and empty collections
func (t *Topology) Normalize() {
	if t.Nodes == nil {
		t.Nodes = make([]Node, 0)
	}
	if t.Edges == nil {
		t.Edges = make([]Edge, 0)
	}
	for i := range t.Nodes {
		n := &t.Nodes[i]
		if n.Label == "" {
			n.Label = n.ID
		}
		if n.Type == "" {
			n.Type = NodeTypeUnknown
		}
		n.Severity = ParseSeverity(string(n.Severity))
	}
	for i := range t.Edges {
		e := &t.Edges[i]
		if e.Type == "" {
			e.Type = EdgeTypeEthernet
		}
		if e.ID == "" {
			e.ID = e.GenerateID()
		}
	}
}

// Summary describes a topology without its contents
type Summary struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Source      string `json:"source,omitempty"`
	NodeCount   int    `json:"node_count"`
	EdgeCount   int    `json:"edge_count"`
}

// Summarize returns the topology's summary
func (t *Topology) Summarize() Summary {
	return Summary{
		ID:          t.ID,
		Name:        t.Name,
		Description: t.Description,
		Source:      t.Source,
		NodeCount:   len(t.Nodes),
		EdgeCount:   len(t.Edges),
	}
}
