package codec

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"topoview/internal/domain"
)

func sampleTopology() *domain.Topology {
	topo := domain.NewTopology("lab", "Lab")
	topo.Description = "bench network"

	gw := domain.NewNode("gw", domain.NodeTypeRouter, "Gateway")
	gw.Severity = domain.SeverityOK
	gw.SetMetadata("ip", "192.168.1.1")
	topo.AddNode(*gw)

	srv := domain.NewNode("srv", domain.NodeTypeServer, "Server")
	srv.Severity = domain.SeverityMajor
	topo.AddNode(*srv)

	edge := domain.NewEdge("gw", "srv", domain.EdgeTypeFiber)
	edge.Label = "uplink"
	edge.SetProperty("speed", "10G")
	topo.AddEdge(*edge)
	return topo
}

func TestRoundTrip(t *testing.T) {
	for _, format := range []string{"json", "yaml", "toml"} {
		t.Run(format, func(t *testing.T) {
			c, err := ForFormat(format)
			if err != nil {
				t.Fatalf("ForFormat failed: %v", err)
			}

			var buf bytes.Buffer
			if err := c.Export(sampleTopology(), &buf); err != nil {
				t.Fatalf("Export failed: %v", err)
			}

			topo, err := c.Parse(&buf)
			if err != nil {
				t.Fatalf("Parse failed: %v", err)
			}

			if topo.Name != "Lab" || topo.Description != "bench network" {
				t.Errorf("unexpected header: %s / %s", topo.Name, topo.Description)
			}
			if len(topo.Nodes) != 2 || len(topo.Edges) != 1 {
				t.Fatalf("expected 2 nodes and 1 edge, got %d and %d", len(topo.Nodes), len(topo.Edges))
			}

			gw, ok := topo.Node("gw")
			if !ok {
				t.Fatal("gw not found")
			}
			if gw.Type != domain.NodeTypeRouter || gw.Severity != domain.SeverityOK {
				t.Errorf("unexpected gw: %+v", gw)
			}
			if gw.GetMetadataString("ip") != "192.168.1.1" {
				t.Errorf("expected ip metadata, got %v", gw.Metadata)
			}

			edge := topo.Edges[0]
			if edge.From != "gw" || edge.To != "srv" || edge.Type != domain.EdgeTypeFiber || edge.Label != "uplink" {
				t.Errorf("unexpected edge: %+v", edge)
			}
			if speed, _ := edge.GetProperty("speed"); speed != "10G" {
				t.Errorf("expected speed property, got %v", speed)
			}
		})
	}
}

func TestYAMLParseNormalizes(t *testing.T) {
	input := `
name: minimal
nodes:
  - id: a
  - id: b
    severity: Warning
edges:
  - from: a
    to: b
  - from: a
    to: missing
`
	topo, err := NewYAMLCodec().Parse(strings.NewReader(input))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	a, _ := topo.Node("a")
	if a.Label != "a" || a.Type != domain.NodeTypeUnknown {
		t.Errorf("expected defaults on a, got %+v", a)
	}
	b, _ := topo.Node("b")
	if b.Severity != domain.SeverityMinor {
		t.Errorf("expected minor severity, got %s", b.Severity)
	}
	for _, e := range topo.Edges {
		if e.ID == "" || e.Type != domain.EdgeTypeEthernet {
			t.Errorf("expected normalized edge, got %+v", e)
		}
	}
	if len(topo.DanglingEdges()) != 1 {
		t.Errorf("expected the link to missing to be kept as dangling")
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		format string
		input  string
	}{
		{"json", "{not json"},
		{"yaml", "nodes: [unclosed"},
		{"toml", "name = "},
		{"ansible", "all: [1, 2"},
	}

	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			c, err := ForFormat(tt.format)
			if err != nil {
				t.Fatalf("ForFormat failed: %v", err)
			}
			if _, err := c.Parse(strings.NewReader(tt.input)); err == nil {
				t.Error("expected parse error")
			}
		})
	}
}

func TestForFormat(t *testing.T) {
	if _, err := ForFormat("graphml"); !errors.Is(err, ErrUnsupportedFormat) {
		t.Error("expected error for unsupported format")
	}

	c, err := ForFormat("yml")
	if err != nil {
		t.Fatalf("ForFormat(yml) failed: %v", err)
	}
	if c.Format() != "yaml" {
		t.Errorf("expected yaml codec, got %s", c.Format())
	}

	if got := ContentType("json"); got != "application/json" {
		t.Errorf("unexpected content type %s", got)
	}
}
