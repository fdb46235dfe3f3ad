package scenario

import (
	"os"
	"reflect"
	"testing"
	"testing/fstest"

	"topoview/internal/domain"
	"topoview/internal/layout"
)

func TestBuiltin(t *testing.T) {
	reg, err := Builtin()
	if err != nil {
		t.Fatalf("Builtin failed: %v", err)
	}

	want := []string{"datacenter", "disconnected", "lag", "mesh", "ring", "star", "tree"}
	if got := reg.Names(); !reflect.DeepEqual(got, want) {
		t.Errorf("expected scenarios %v, got %v", want, got)
	}

	for _, s := range reg.List() {
		if len(s.Nodes) == 0 {
			t.Errorf("scenario %s has no nodes", s.Name)
		}
		if s.Title == "" {
			t.Errorf("scenario %s has no title", s.Name)
		}
	}
}

func TestBuiltinContents(t *testing.T) {
	reg, err := Builtin()
	if err != nil {
		t.Fatalf("Builtin failed: %v", err)
	}

	t.Run("mesh links every pair", func(t *testing.T) {
		s, ok := reg.Get("mesh")
		if !ok {
			t.Fatal("mesh not found")
		}
		n := len(s.Nodes)
		if len(s.Edges) != n*(n-1)/2 {
			t.Errorf("expected %d edges, got %d", n*(n-1)/2, len(s.Edges))
		}
	})

	t.Run("disconnected keeps its dangling link", func(t *testing.T) {
		s, _ := reg.Get("disconnected")
		if got := len(s.Topology().DanglingEdges()); got != 1 {
			t.Errorf("expected 1 dangling edge, got %d", got)
		}
	})

	t.Run("datacenter overrides iterations", func(t *testing.T) {
		s, _ := reg.Get("datacenter")
		if got := s.Options(layout.DefaultOptions()).Iterations; got != 200 {
			t.Errorf("expected 200 iterations, got %d", got)
		}
	})

	t.Run("node metadata is decoded", func(t *testing.T) {
		s, _ := reg.Get("star")
		node, ok := s.Topology().Node("core")
		if !ok {
			t.Fatal("core not found")
		}
		if got := node.GetMetadataString("ip"); got != "10.0.0.2" {
			t.Errorf("expected ip 10.0.0.2, got %q", got)
		}
	})
}

func TestLoadAll(t *testing.T) {
	reg, err := LoadAll(os.DirFS("."), "testdata")
	if err != nil {
		t.Fatalf("LoadAll failed: %v", err)
	}

	if reg.Len() != 2 {
		t.Fatalf("expected 2 scenarios, got %d", reg.Len())
	}

	alpha, ok := reg.Get("alpha")
	if !ok {
		t.Fatal("alpha not found")
	}
	if alpha.Iterations == nil || *alpha.Iterations != 5 {
		t.Errorf("expected iterations override 5, got %v", alpha.Iterations)
	}

	t.Run("name falls back to file name", func(t *testing.T) {
		beta, ok := reg.Get("beta")
		if !ok {
			t.Fatal("beta not found")
		}
		if beta.Title != "beta" {
			t.Errorf("expected title beta, got %q", beta.Title)
		}
	})

	t.Run("topology is normalized", func(t *testing.T) {
		topo := alpha.Topology()
		b, _ := topo.Node("b")
		if b.Severity != domain.SeverityCritical {
			t.Errorf("expected critical severity, got %s", b.Severity)
		}
		if b.GetMetadataString("rack") != "r1" {
			t.Errorf("expected rack metadata, got %v", b.Metadata)
		}
		a, _ := topo.Node("a")
		if a.Label != "a" || a.Severity != domain.SeverityUnknown {
			t.Errorf("unexpected defaults: %+v", a)
		}
		if topo.Edges[0].ID == "" {
			t.Error("expected edge ID to be generated")
		}
	})
}

func TestLoadAllErrors(t *testing.T) {
	tests := []struct {
		name string
		fs   fstest.MapFS
	}{
		{"missing directory", fstest.MapFS{}},
		{"invalid toml", fstest.MapFS{"s/bad.toml": {Data: []byte("name = ")}}},
		{"duplicate node", fstest.MapFS{"s/dup.toml": {Data: []byte("[[nodes]]\nid = \"a\"\n[[nodes]]\nid = \"a\"\n")}}},
		{"negative iterations", fstest.MapFS{"s/neg.toml": {Data: []byte("iterations = -1\n")}}},
		{"duplicate scenario", fstest.MapFS{
			"s/one.toml": {Data: []byte("name = \"same\"\n")},
			"s/two.toml": {Data: []byte("name = \"same\"\n")},
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := LoadAll(tt.fs, "s"); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestRegistryCycling(t *testing.T) {
	reg, err := New([]Scenario{{Name: "charlie"}, {Name: "alpha"}, {Name: "bravo"}})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	tests := []struct {
		from     string
		wantNext string
		wantPrev string
	}{
		{"alpha", "bravo", "charlie"},
		{"bravo", "charlie", "alpha"},
		{"charlie", "alpha", "bravo"},
		{"unknown", "alpha", "alpha"},
	}

	for _, tt := range tests {
		if got := reg.Next(tt.from).Name; got != tt.wantNext {
			t.Errorf("Next(%q) = %s, want %s", tt.from, got, tt.wantNext)
		}
		if got := reg.Prev(tt.from).Name; got != tt.wantPrev {
			t.Errorf("Prev(%q) = %s, want %s", tt.from, got, tt.wantPrev)
		}
	}

	t.Run("full cycle returns to start", func(t *testing.T) {
		name := "alpha"
		for i := 0; i < reg.Len(); i++ {
			name = reg.Next(name).Name
		}
		if name != "alpha" {
			t.Errorf("expected to return to alpha, got %s", name)
		}
	})

	t.Run("empty registry", func(t *testing.T) {
		empty, _ := New(nil)
		if empty.Next("x") != nil || empty.Prev("x") != nil || empty.First() != nil {
			t.Error("expected nil scenarios from empty registry")
		}
	})
}

func TestScenarioOptions(t *testing.T) {
	base := layout.DefaultOptions()

	s := Scenario{Name: "plain"}
	if got := s.Options(base); got != base {
		t.Errorf("expected base options unchanged, got %+v", got)
	}

	zero := 0
	s.Iterations = &zero
	if got := s.Options(base); got.Iterations != 0 {
		t.Errorf("expected explicit zero iterations, got %d", got.Iterations)
	}
}

func TestFromTopology(t *testing.T) {
	topo := domain.NewTopology("lab", "Lab")
	topo.Description = "bench network"
	topo.AddNode(domain.Node{ID: "a"})
	topo.AddNode(domain.Node{ID: "b"})
	topo.AddEdge(domain.Edge{From: "a", To: "b"})

	sc := FromTopology(topo)
	if sc.Name != "lab" || sc.Title != "Lab" || sc.Description != "bench network" {
		t.Errorf("unexpected scenario %+v", sc)
	}
	if len(sc.Nodes) != 2 || len(sc.Edges) != 1 || sc.Iterations != nil {
		t.Errorf("expected the dataset graph without overrides, got %+v", sc)
	}

	// The scenario owns its slices
	sc.Nodes[0].Label = "changed"
	if topo.Nodes[0].Label == "changed" {
		t.Error("FromTopology should copy nodes")
	}

	unnamed := FromTopology(&domain.Topology{Name: "Untitled"})
	if unnamed.Name != "Untitled" || unnamed.Title != "Untitled" {
		t.Errorf("expected the name to stand in for a missing id, got %+v", unnamed)
	}
}
