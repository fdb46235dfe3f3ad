package domain

// NodeType represents the type of network node
type NodeType string

const (
	NodeTypeRouter      NodeType = "router"
	NodeTypeSwitch      NodeType = "switch"
	NodeTypeFirewall    NodeType = "firewall"
	NodeTypeServer      NodeType = "server"
	NodeTypeAccessPoint NodeType = "access_point"
	NodeTypeClient      NodeType = "client"
	NodeTypeUnknown     NodeType = "unknown"
)

// Node represents a network entity in a topology
type Node struct {
	ID       string         `json:"id" yaml:"id" toml:"id"`
	Label    string         `json:"label,omitempty" yaml:"label,omitempty" toml:"label"`
	Type     NodeType       `json:"type,omitempty" yaml:"type,omitempty" toml:"type"`
	Severity Severity       `json:"severity,omitempty" yaml:"severity,omitempty" toml:"severity"`
	Metadata map[string]any `json:"metadata,omitempty" yaml:"metadata,omitempty" toml:"metadata"`
}

// NewNode creates a new node with initialized metadata
func NewNode(id string, nodeType NodeType, label string) *Node {
	return &Node{
		ID:       id,
		Label:    label,
		Type:     nodeType,
		Severity: SeverityUnknown,
		Metadata: make(map[string]any),
	}
}

// DisplayLabel returns the label, falling back to the ID
func (n *Node) DisplayLabel() string {
	if n.Label != "" {
		return n.Label
	}
	return n.ID
}

// SetMetadata sets a metadata value
func (n *Node) SetMetadata(key string, value any) {
	if n.Metadata == nil {
		n.Metadata = make(map[string]any)
	}
	n.Metadata[key] = value
}

// GetMetadata gets a metadata value
func (n *Node) GetMetadata(key string) (any, bool) {
	if n.Metadata == nil {
		return nil, false
	}
	val, ok := n.Metadata[key]
	return val, ok
}

// GetMetadataString gets a metadata value as a string
func (n *Node) GetMetadataString(key string) string {
	val, ok := n.GetMetadata(key)
	if !ok {
		return ""
	}
	if s, ok := val.(string); ok {
		return s
	}
	return ""
}
