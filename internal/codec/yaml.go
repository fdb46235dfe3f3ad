package codec

import (
	"fmt"
	"io"

	"topoview/internal/domain"

	"gopkg.in/yaml.v3"
)

// YAMLCodec handles generic YAML import/export
type YAMLCodec struct{}

// NewYAMLCodec creates a new YAML codec
func NewYAMLCodec() *YAMLCodec {
	return &YAMLCodec{}
}

// Format returns the codec format identifier
func (c *YAMLCodec) Format() string {
	return "yaml"
}

// yamlTopology is the on-disk dataset layout
type yamlTopology struct {
	ID          string     `yaml:"id,omitempty"`
	Name        string     `yaml:"name"`
	Description string     `yaml:"description,omitempty"`
	Nodes       []yamlNode `yaml:"nodes"`
	Edges       []yamlEdge `yaml:"edges"`
}

type yamlNode struct {
	ID       string         `yaml:"id"`
	Label    string         `yaml:"label,omitempty"`
	Type     string         `yaml:"type,omitempty"`
	Severity string         `yaml:"severity,omitempty"`
	Metadata map[string]any `yaml:"metadata,omitempty"`
}

type yamlEdge struct {
	ID         string         `yaml:"id,omitempty"`
	From       string         `yaml:"from"`
	To         string         `yaml:"to"`
	Type       string         `yaml:"type,omitempty"`
	Label      string         `yaml:"label,omitempty"`
	Properties map[string]any `yaml:"properties,omitempty"`
}

// Parse imports a topology from YAML
func (c *YAMLCodec) Parse(r io.Reader) (*domain.Topology, error) {
	var yt yamlTopology
	decoder := yaml.NewDecoder(r)
	if err := decoder.Decode(&yt); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	topo := domain.NewTopology(yt.ID, yt.Name)
	topo.Description = yt.Description

	// Convert nodes
	for _, yn := range yt.Nodes {
		topo.AddNode(domain.Node{
			ID:       yn.ID,
			Label:    yn.Label,
			Type:     domain.NodeType(yn.Type),
			Severity: domain.Severity(yn.Severity),
			Metadata: yn.Metadata,
		})
	}

	// Convert edges
	for _, ye := range yt.Edges {
		topo.AddEdge(domain.Edge{
			ID:         ye.ID,
			From:       ye.From,
			To:         ye.To,
			Type:       domain.EdgeType(ye.Type),
			Label:      ye.Label,
			Properties: ye.Properties,
		})
	}

	topo.Normalize()
	return topo, nil
}

// Export exports a topology to YAML
func (c *YAMLCodec) Export(topo *domain.Topology, w io.Writer) error {
	yt := yamlTopology{
		ID:          topo.ID,
		Name:        topo.Name,
		Description: topo.Description,
		Nodes:       make([]yamlNode, 0, len(topo.Nodes)),
		Edges:       make([]yamlEdge, 0, len(topo.Edges)),
	}

	for _, node := range topo.Nodes {
		yt.Nodes = append(yt.Nodes, yamlNode{
			ID:       node.ID,
			Label:    node.Label,
			Type:     string(node.Type),
			Severity: string(node.Severity),
			Metadata: node.Metadata,
		})
	}

	for _, edge := range topo.Edges {
		yt.Edges = append(yt.Edges, yamlEdge{
			ID:         edge.ID,
			From:       edge.From,
			To:         edge.To,
			Type:       string(edge.Type),
			Label:      edge.Label,
			Properties: edge.Properties,
		})
	}

	encoder := yaml.NewEncoder(w)
	encoder.SetIndent(2)
	defer encoder.Close()

	if err := encoder.Encode(&yt); err != nil {
		return fmt.Errorf("failed to encode YAML: %w", err)
	}

	return nil
}
