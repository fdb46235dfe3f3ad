package layout

import (
	"fmt"
	"math"
	"reflect"
	"testing"
)

const epsilon = 1e-9

func approxEqual(a, b, tol float64) bool {
	return math.Abs(a-b) <= tol
}

func TestComputeInitialPlacement(t *testing.T) {
	tests := []struct {
		name   string
		nodes  []string
		radius float64
	}{
		{name: "two nodes", nodes: []string{"a", "b"}, radius: 150},
		{name: "four nodes", nodes: []string{"a", "b", "c", "d"}, radius: 100},
		{name: "seven nodes", nodes: []string{"a", "b", "c", "d", "e", "f", "g"}, radius: 42.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := DefaultOptions()
			opts.Iterations = 0
			opts.Radius = tt.radius

			positions := Compute(tt.nodes, nil, opts)
			if len(positions) != len(tt.nodes) {
				t.Fatalf("expected %d positions, got %d", len(tt.nodes), len(positions))
			}

			n := float64(len(tt.nodes))
			for i, id := range tt.nodes {
				angle := 2 * math.Pi * float64(i) / n
				wantX := tt.radius * math.Cos(angle)
				wantY := tt.radius * math.Sin(angle)
				got := positions[id]
				if !approxEqual(got.X, wantX, epsilon) || !approxEqual(got.Y, wantY, epsilon) {
					t.Errorf("node %s: expected (%f, %f), got (%f, %f)", id, wantX, wantY, got.X, got.Y)
				}
			}
		})
	}
}

func TestCircleMatchesZeroIterations(t *testing.T) {
	nodes := []string{"core", "edge1", "edge2"}
	edges := []Edge{{From: "core", To: "edge1"}}

	opts := DefaultOptions()
	opts.Iterations = 0

	if got, want := Circle(nodes, opts.Radius), Compute(nodes, edges, opts); !reflect.DeepEqual(got, want) {
		t.Errorf("Circle() = %v, want %v", got, want)
	}
}

func TestComputeEmpty(t *testing.T) {
	positions := Compute(nil, []Edge{{From: "a", To: "b"}}, DefaultOptions())
	if positions == nil {
		t.Fatal("expected empty map, got nil")
	}
	if len(positions) != 0 {
		t.Errorf("expected no positions, got %d", len(positions))
	}
}

func TestComputeSingleNode(t *testing.T) {
	for _, iterations := range []int{0, 1, 10, 100, 1000} {
		t.Run(fmt.Sprintf("%d iterations", iterations), func(t *testing.T) {
			opts := DefaultOptions()
			opts.Iterations = iterations

			positions := Compute([]string{"lonely"}, nil, opts)
			got := positions["lonely"]
			if got.X != opts.Radius || got.Y != 0 {
				t.Errorf("expected (%f, 0), got (%f, %f)", opts.Radius, got.X, got.Y)
			}
		})
	}
}

func TestComputeConnectedPairContracts(t *testing.T) {
	nodes := []string{"a", "b"}
	edges := []Edge{{From: "a", To: "b"}}
	opts := DefaultOptions()

	// Repulsion and the spring balance where R/d² = A·d.
	standoff := math.Cbrt(opts.Repulsion / opts.Attraction)

	previous := math.Inf(1)
	for k := 0; k <= 100; k++ {
		opts.Iterations = k
		positions := Compute(nodes, edges, opts)
		dist := Distance(positions["a"], positions["b"])

		if dist >= previous {
			t.Fatalf("iteration %d: distance %f did not shrink from %f", k, dist, previous)
		}
		if dist <= standoff {
			t.Fatalf("iteration %d: distance %f crossed the stand-off distance %f", k, dist, standoff)
		}
		previous = dist
	}
}

func TestComputeConnectedPairSettles(t *testing.T) {
	opts := DefaultOptions()
	opts.Iterations = 3000

	positions := Compute([]string{"a", "b"}, []Edge{{From: "a", To: "b"}}, opts)
	dist := Distance(positions["a"], positions["b"])

	standoff := math.Cbrt(opts.Repulsion / opts.Attraction)
	if dist <= 0 {
		t.Fatalf("nodes collided: distance %f", dist)
	}
	if !approxEqual(dist, standoff, 0.5) {
		t.Errorf("expected distance near %f, got %f", standoff, dist)
	}
}

func TestComputeUnconnectedPairSeparates(t *testing.T) {
	nodes := []string{"a", "b"}
	opts := DefaultOptions()

	previous := 0.0
	for k := 0; k <= 100; k++ {
		opts.Iterations = k
		positions := Compute(nodes, nil, opts)
		dist := Distance(positions["a"], positions["b"])

		if dist <= previous {
			t.Fatalf("iteration %d: distance %f did not grow from %f", k, dist, previous)
		}
		previous = dist
	}
}

func TestComputeDeterministic(t *testing.T) {
	nodes := []string{"gw", "sw1", "sw2", "srv1", "srv2", "srv3", "ap"}
	edges := []Edge{
		{From: "gw", To: "sw1"},
		{From: "gw", To: "sw2"},
		{From: "sw1", To: "srv1"},
		{From: "sw1", To: "srv2"},
		{From: "sw2", To: "srv3"},
		{From: "sw2", To: "ap"},
	}

	first := Compute(nodes, edges, DefaultOptions())
	second := Compute(nodes, edges, DefaultOptions())

	if !reflect.DeepEqual(first, second) {
		t.Errorf("expected identical layouts, got %v and %v", first, second)
	}
}

func TestComputeDuplicateEdgesCompound(t *testing.T) {
	nodes := []string{"a", "b"}
	opts := DefaultOptions()
	opts.Iterations = 1

	repelOnly := Compute(nodes, nil, opts)["a"]

	attraction := func(copies int) float64 {
		edges := make([]Edge, copies)
		for i := range edges {
			edges[i] = Edge{From: "a", To: "b"}
		}
		// a starts at (r, 0) and b at (-r, 0): the spring acts along x.
		return Compute(nodes, edges, opts)["a"].X - repelOnly.X
	}

	single := attraction(1)
	if single >= 0 {
		t.Fatalf("expected a single edge to pull a toward b, got displacement %f", single)
	}

	for _, copies := range []int{2, 3, 5} {
		got := attraction(copies)
		want := float64(copies) * single
		if !approxEqual(got, want, 1e-9*math.Abs(want)) {
			t.Errorf("%d duplicate edges: expected displacement %f, got %f", copies, want, got)
		}
	}
}

func TestComputeIgnoresUnknownEdges(t *testing.T) {
	nodes := []string{"a", "b", "c"}
	known := []Edge{{From: "a", To: "b"}}
	withUnknown := []Edge{
		{From: "a", To: "b"},
		{From: "a", To: "ghost"},
		{From: "phantom", To: "c"},
		{From: "ghost", To: "phantom"},
	}

	want := Compute(nodes, known, DefaultOptions())
	got := Compute(nodes, withUnknown, DefaultOptions())

	if !reflect.DeepEqual(got, want) {
		t.Errorf("unknown edges changed the layout: got %v, want %v", got, want)
	}
	if _, ok := got["ghost"]; ok {
		t.Error("unknown node should not receive a position")
	}
}

func TestComputeSelfLoopIsInert(t *testing.T) {
	nodes := []string{"a", "b"}

	want := Compute(nodes, nil, DefaultOptions())
	got := Compute(nodes, []Edge{{From: "a", To: "a"}}, DefaultOptions())

	if !reflect.DeepEqual(got, want) {
		t.Errorf("self loop changed the layout: got %v, want %v", got, want)
	}
}

func TestComputeDuplicateNodes(t *testing.T) {
	opts := DefaultOptions()
	opts.Iterations = 0

	positions := Compute([]string{"a", "b", "a"}, nil, opts)
	if len(positions) != 2 {
		t.Fatalf("expected 2 positions, got %d", len(positions))
	}
	if got := positions["a"]; got.X != opts.Radius || got.Y != 0 {
		t.Errorf("expected a at (%f, 0), got (%f, %f)", opts.Radius, got.X, got.Y)
	}
	if got := positions["b"]; !approxEqual(got.X, -opts.Radius, epsilon) {
		t.Errorf("expected b opposite a, got (%f, %f)", got.X, got.Y)
	}
}

func TestComputeNegativeIterations(t *testing.T) {
	nodes := []string{"a", "b", "c"}
	opts := DefaultOptions()
	opts.Iterations = -5

	if got, want := Compute(nodes, nil, opts), Circle(nodes, opts.Radius); !reflect.DeepEqual(got, want) {
		t.Errorf("negative iterations: got %v, want %v", got, want)
	}
}

func TestComputeConnectedCloserThanUnconnected(t *testing.T) {
	// a - b - c chain: the ends are not linked and should end up farthest apart.
	nodes := []string{"a", "b", "c"}
	edges := []Edge{{From: "a", To: "b"}, {From: "b", To: "c"}}

	positions := Compute(nodes, edges, DefaultOptions())

	ab := Distance(positions["a"], positions["b"])
	bc := Distance(positions["b"], positions["c"])
	ac := Distance(positions["a"], positions["c"])

	if ac < ab || ac < bc {
		t.Errorf("expected unlinked ends farthest apart: ab=%f bc=%f ac=%f", ab, bc, ac)
	}
}
