// Package scenario holds the canned topologies the test drawer and the API
// cycle through. Scenarios are TOML files; the built-in set is embedded.
package scenario

import (
	"embed"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"

	"topoview/internal/domain"
	"topoview/internal/layout"
)

//go:embed data/*.toml
var builtinFS embed.FS

// Scenario is a named topology with optional layout overrides
type Scenario struct {
	Name        string        `toml:"name" json:"name"`
	Title       string        `toml:"title" json:"title"`
	Description string        `toml:"description" json:"description,omitempty"`
	Iterations  *int          `toml:"iterations" json:"iterations,omitempty"`
	Nodes       []domain.Node `toml:"nodes" json:"nodes"`
	Edges       []domain.Edge `toml:"edges" json:"edges"`
}

// Topology returns a normalized copy of the scenario's graph
func (s *Scenario) Topology() *domain.Topology {
	topo := domain.NewTopology("scenario:"+s.Name, s.Title)
	topo.Description = s.Description
	topo.Source = "scenario"
	topo.Nodes = append(topo.Nodes, s.Nodes...)
	topo.Edges = append(topo.Edges, s.Edges...)
	topo.Normalize()
	return topo
}

// FromTopology wraps a loaded dataset so it can be shown like a canned
// scenario. The name is the topology's ID, or its name when it has none.
func FromTopology(topo *domain.Topology) Scenario {
	name := topo.ID
	if name == "" {
		name = topo.Name
	}
	title := topo.Name
	if title == "" {
		title = name
	}
	return Scenario{
		Name:        name,
		Title:       title,
		Description: topo.Description,
		Nodes:       append([]domain.Node(nil), topo.Nodes...),
		Edges:       append([]domain.Edge(nil), topo.Edges...),
	}
}

// Options applies the scenario's overrides to base
func (s *Scenario) Options(base layout.Options) layout.Options {
	if s.Iterations != nil {
		base.Iterations = *s.Iterations
	}
	return base
}

// Builtin loads the embedded scenario set
func Builtin() (*Registry, error) {
	return LoadAll(builtinFS, "data")
}

// LoadAll parses every *.toml file in dir. Scenario names must be unique.
func LoadAll(fsys fs.FS, dir string) (*Registry, error) {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return nil, fmt.Errorf("reading scenarios: %w", err)
	}

	var scenarios []Scenario
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".toml") {
			continue
		}
		data, err := fs.ReadFile(fsys, path.Join(dir, entry.Name()))
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", entry.Name(), err)
		}

		s, err := Parse(data)
		if err != nil {
			return nil, fmt.Errorf("parsing %s: %w", entry.Name(), err)
		}
		if s.Name == "" {
			s.Name = strings.TrimSuffix(entry.Name(), ".toml")
		}
		if s.Title == "" {
			s.Title = s.Name
		}
		if err := s.Validate(); err != nil {
			return nil, err
		}
		scenarios = append(scenarios, *s)
	}

	return New(scenarios)
}

// Parse decodes a single scenario document
func Parse(data []byte) (*Scenario, error) {
	var s Scenario
	if _, err := toml.Decode(string(data), &s); err != nil {
		return nil, err
	}
	if s.Title == "" {
		s.Title = s.Name
	}
	return &s, nil
}

// Validate checks the scenario's name, overrides and graph
func (s *Scenario) Validate() error {
	if s.Name == "" {
		return fmt.Errorf("scenario name is required")
	}
	if s.Iterations != nil && *s.Iterations < 0 {
		return fmt.Errorf("scenario %s: iterations must not be negative, got %d", s.Name, *s.Iterations)
	}
	topo := s.Topology()
	if topo.Name == "" {
		topo.Name = s.Name
	}
	if err := topo.Validate(); err != nil {
		return fmt.Errorf("scenario %s: %w", s.Name, err)
	}
	return nil
}

// Registry is an ordered, name-indexed set of scenarios
type Registry struct {
	scenarios []Scenario
	byName    map[string]int
}

// New builds a registry sorted by name
func New(scenarios []Scenario) (*Registry, error) {
	sorted := make([]Scenario, len(scenarios))
	copy(sorted, scenarios)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Name < sorted[j].Name })

	r := &Registry{scenarios: sorted, byName: make(map[string]int, len(sorted))}
	for i, s := range sorted {
		if _, dup := r.byName[s.Name]; dup {
			return nil, fmt.Errorf("duplicate scenario %q", s.Name)
		}
		r.byName[s.Name] = i
	}
	return r, nil
}

// List returns all scenarios in name order
func (r *Registry) List() []Scenario {
	out := make([]Scenario, len(r.scenarios))
	copy(out, r.scenarios)
	return out
}

// Names returns scenario names in order
func (r *Registry) Names() []string {
	names := make([]string, len(r.scenarios))
	for i, s := range r.scenarios {
		names[i] = s.Name
	}
	return names
}

// Len returns the number of scenarios
func (r *Registry) Len() int {
	return len(r.scenarios)
}

// Get returns the named scenario
func (r *Registry) Get(name string) (*Scenario, bool) {
	i, ok := r.byName[name]
	if !ok {
		return nil, false
	}
	s := r.scenarios[i]
	return &s, true
}

// First returns the first scenario, nil when the registry is empty
func (r *Registry) First() *Scenario {
	if len(r.scenarios) == 0 {
		return nil
	}
	s := r.scenarios[0]
	return &s
}

// Next returns the scenario after name, wrapping to the first. An unknown
// name yields the first scenario.
func (r *Registry) Next(name string) *Scenario {
	return r.step(name, 1)
}

// Prev returns the scenario before name, wrapping to the last. An unknown
// name yields the first scenario.
func (r *Registry) Prev(name string) *Scenario {
	return r.step(name, -1)
}

func (r *Registry) step(name string, delta int) *Scenario {
	n := len(r.scenarios)
	if n == 0 {
		return nil
	}
	i, ok := r.byName[name]
	if !ok {
		return r.First()
	}
	s := r.scenarios[((i+delta)%n+n)%n]
	return &s
}
