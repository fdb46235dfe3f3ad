package domain

// NodeDetail is what an operator sees when opening a node: its metadata, its
// direct neighbors and a small laid-out graph of that neighborhood.
type NodeDetail struct {
	Node      Node          `json:"node"`
	Neighbors []Node        `json:"neighbors"`
	Links     []Edge        `json:"links"`
	Graph     *Topology     `json:"graph"`
	Layout    *LayoutResult `json:"layout"`
}

// EdgeDetail is what an operator sees when clicking a link
type EdgeDetail struct {
	Edge   Edge  `json:"edge"`
	Source *Node `json:"source,omitempty"`
	Target *Node `json:"target,omitempty"`
	// Length is the on-screen distance between the endpoints in the latest
	// layout, zero when no layout exists or an endpoint is unknown.
	Length float64 `json:"length"`
	// Severity is the worse of the two endpoint severities.
	Severity Severity `json:"severity"`
}
