// Package layout computes 2D node placements for topology views.
//
// Compute runs a fixed-iteration force-directed relaxation: every pair of
// nodes repels with strength Repulsion/d², every edge pulls its endpoints
// together like a zero-rest-length spring with stiffness Attraction, and
// the summed force is applied to each position scaled by Damping. There is
// no velocity state, no convergence check and no clamping; disconnected
// components keep drifting apart for as long as iterations run.
//
// Runtime is O(Iterations · n²). The engine targets graphs of tens of nodes.
package layout

import "math"

// minDistance floors pairwise distance so coincident nodes never divide by zero.
const minDistance = 0.1

// Position is a 2D coordinate
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Edge is an unordered pair of node identifiers
type Edge struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// Options configures a layout run
type Options struct {
	Iterations int     `json:"iterations" yaml:"iterations"`
	Repulsion  float64 `json:"repulsion" yaml:"repulsion"`
	Attraction float64 `json:"attraction" yaml:"attraction"`
	Damping    float64 `json:"damping" yaml:"damping"`
	Radius     float64 `json:"radius" yaml:"radius"`
}

// DefaultOptions returns the parameters used when a caller has no preference
func DefaultOptions() Options {
	return Options{
		Iterations: 100,
		Repulsion:  5000,
		Attraction: 0.01,
		Damping:    0.5,
		Radius:     150,
	}
}

// body is the per-node simulation state
type body struct {
	x, y   float64
	fx, fy float64
}

// Compute places nodes on a circle and relaxes them for opts.Iterations passes.
// Edges naming unknown nodes contribute nothing. Duplicate node identifiers keep
// their first occurrence.
func Compute(nodes []string, edges []Edge, opts Options) map[string]Position {
	ids, index := dedupe(nodes)
	bodies := seed(len(ids), opts.Radius)

	// Resolve edges once; unknown endpoints are dropped.
	links := make([][2]int, 0, len(edges))
	for _, e := range edges {
		a, okA := index[e.From]
		b, okB := index[e.To]
		if !okA || !okB {
			continue
		}
		links = append(links, [2]int{a, b})
	}

	for iter := 0; iter < opts.Iterations; iter++ {
		relax(bodies, links, opts)
	}

	positions := make(map[string]Position, len(ids))
	for i, id := range ids {
		positions[id] = Position{X: bodies[i].x, Y: bodies[i].y}
	}
	return positions
}

// Circle returns the initial circular placement Compute starts from
func Circle(nodes []string, radius float64) map[string]Position {
	return Compute(nodes, nil, Options{Radius: radius})
}

// relax performs one relaxation iteration in place
func relax(bodies []body, links [][2]int, opts Options) {
	for i := range bodies {
		bodies[i].fx, bodies[i].fy = 0, 0
	}

	// Repulsion between every unordered pair
	for i := 0; i < len(bodies); i++ {
		for j := i + 1; j < len(bodies); j++ {
			a, b := &bodies[i], &bodies[j]
			dx, dy, dist := displacement(a, b)

			force := opts.Repulsion / (dist * dist)
			fx := dx / dist * force
			fy := dy / dist * force

			b.fx += fx
			b.fy += fy
			a.fx -= fx
			a.fy -= fy
		}
	}

	// Spring attraction along edges
	for _, l := range links {
		a, b := &bodies[l[0]], &bodies[l[1]]
		dx, dy, dist := displacement(a, b)

		force := dist * opts.Attraction
		fx := dx / dist * force
		fy := dy / dist * force

		a.fx += fx
		a.fy += fy
		b.fx -= fx
		b.fy -= fy
	}

	for i := range bodies {
		bodies[i].x += bodies[i].fx * opts.Damping
		bodies[i].y += bodies[i].fy * opts.Damping
	}
}

// displacement returns the vector from a to b and its floored length
func displacement(a, b *body) (dx, dy, dist float64) {
	dx = b.x - a.x
	dy = b.y - a.y
	dist = math.Sqrt(dx*dx + dy*dy)
	if dist < minDistance {
		dist = minDistance
	}
	return dx, dy, dist
}

// seed places n bodies evenly on a circle, index 0 at angle 0
func seed(n int, radius float64) []body {
	bodies := make([]body, n)
	if n == 0 {
		return bodies
	}
	angleStep := 2 * math.Pi / float64(n)
	for i := range bodies {
		angle := float64(i) * angleStep
		bodies[i].x = radius * math.Cos(angle)
		bodies[i].y = radius * math.Sin(angle)
	}
	return bodies
}

func dedupe(nodes []string) ([]string, map[string]int) {
	ids := make([]string, 0, len(nodes))
	index := make(map[string]int, len(nodes))
	for _, id := range nodes {
		if _, seen := index[id]; seen {
			continue
		}
		index[id] = len(ids)
		ids = append(ids, id)
	}
	return ids, index
}
