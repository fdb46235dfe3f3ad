package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"

	"github.com/google/uuid"

	"topoview/internal/codec"
	"topoview/internal/domain"
	"topoview/internal/layout"
	"topoview/internal/metrics"
	"topoview/internal/repository/sqlite"
)

// ErrNotFound is returned when a topology, node, edge or layout does not exist
var ErrNotFound = sqlite.ErrNotFound

// ErrMalformed is returned when an uploaded topology cannot be decoded
var ErrMalformed = errors.New("malformed topology")

// TopologyService provides business logic for stored topologies
type TopologyService struct {
	repo     *sqlite.Repository
	eventBus *EventBus
	metrics  *metrics.Registry
}

// NewTopologyService creates a new topology service
func NewTopologyService(repo *sqlite.Repository, eventBus *EventBus, reg *metrics.Registry) *TopologyService {
	return &TopologyService{
		repo:     repo,
		eventBus: eventBus,
		metrics:  reg,
	}
}

// ImportResult represents the result of an import operation
type ImportResult struct {
	Topology domain.Summary `json:"topology"`
	Format   string         `json:"format"`
	Dangling int            `json:"dangling_edges"`
}

// Import parses a topology in the given format and stores it. An empty ID is
// replaced with a generated one; an empty name falls back to the ID.
func (s *TopologyService) Import(ctx context.Context, format string, r io.Reader) (*ImportResult, error) {
	c, err := codec.ForFormat(format)
	if err != nil {
		s.metrics.RecordImport(format, err)
		return nil, err
	}

	topo, err := c.Parse(r)
	if err != nil {
		err = fmt.Errorf("%w: %w", ErrMalformed, err)
		s.metrics.RecordImport(c.Format(), err)
		return nil, err
	}

	if err := s.Save(ctx, topo); err != nil {
		s.metrics.RecordImport(c.Format(), err)
		return nil, err
	}
	s.metrics.RecordImport(c.Format(), nil)

	return &ImportResult{
		Topology: topo.Summarize(),
		Format:   c.Format(),
		Dangling: len(topo.DanglingEdges()),
	}, nil
}

// Save validates and stores a topology, then announces it
func (s *TopologyService) Save(ctx context.Context, topo *domain.Topology) error {
	if topo.ID == "" {
		topo.ID = uuid.New().String()
	}
	if topo.Name == "" {
		topo.Name = topo.ID
	}
	topo.Normalize()

	if err := topo.Validate(); err != nil {
		return err
	}

	if dangling := topo.DanglingEdges(); len(dangling) > 0 {
		log.Printf("Topology %s: %d edges reference unknown nodes and will not affect layout", topo.ID, len(dangling))
	}

	if err := s.repo.SaveTopology(ctx, topo); err != nil {
		return err
	}
	s.refreshStored(ctx)

	s.eventBus.Publish(Event{
		Type:    EventTopologyImported,
		Payload: topo.Summarize(),
	})
	return nil
}

// List returns summaries of every stored topology
func (s *TopologyService) List(ctx context.Context) ([]domain.Summary, error) {
	return s.repo.ListTopologies(ctx)
}

// Get loads a topology by ID
func (s *TopologyService) Get(ctx context.Context, id string) (*domain.Topology, error) {
	return s.repo.GetTopology(ctx, id)
}

// Delete removes a topology along with its layout history and pins
func (s *TopologyService) Delete(ctx context.Context, id string) error {
	if err := s.repo.DeleteTopology(ctx, id); err != nil {
		return err
	}
	s.refreshStored(ctx)

	s.eventBus.Publish(Event{
		Type:    EventTopologyDeleted,
		Payload: map[string]string{"topology_id": id},
	})
	return nil
}

// Export writes a stored topology in the given format
func (s *TopologyService) Export(ctx context.Context, id, format string, w io.Writer) error {
	c, err := codec.ForFormat(format)
	if err != nil {
		return err
	}

	topo, err := s.repo.GetTopology(ctx, id)
	if err != nil {
		return err
	}
	return c.Export(topo, w)
}

// NodeDetail returns a node's metadata together with a laid-out graph of its
// direct neighborhood
func (s *TopologyService) NodeDetail(ctx context.Context, topologyID, nodeID string) (*domain.NodeDetail, error) {
	topo, err := s.repo.GetTopology(ctx, topologyID)
	if err != nil {
		return nil, err
	}

	node, ok := topo.Node(nodeID)
	if !ok {
		return nil, fmt.Errorf("node %s in %s: %w", nodeID, topologyID, ErrNotFound)
	}

	ego, err := topo.Neighborhood(nodeID)
	if err != nil {
		return nil, err
	}

	neighbors := append([]domain.Node{}, ego.Nodes[1:]...)

	result := LayoutTopology(ego, layout.DefaultOptions())
	s.metrics.RecordLayout("neighborhood", len(ego.Nodes), len(ego.Edges), result.Duration, nil)

	return &domain.NodeDetail{
		Node:      *node,
		Neighbors: neighbors,
		Links:     topo.EdgesOf(nodeID),
		Graph:     ego,
		Layout:    result,
	}, nil
}

// EdgeDetail returns a link with its endpoints and its length in the latest
// stored layout
func (s *TopologyService) EdgeDetail(ctx context.Context, topologyID, edgeID string) (*domain.EdgeDetail, error) {
	topo, err := s.repo.GetTopology(ctx, topologyID)
	if err != nil {
		return nil, err
	}

	edge, ok := topo.Edge(edgeID)
	if !ok {
		return nil, fmt.Errorf("edge %s in %s: %w", edgeID, topologyID, ErrNotFound)
	}

	detail := &domain.EdgeDetail{Edge: *edge, Severity: domain.SeverityUnknown}
	var severities []domain.Severity
	if n, ok := topo.Node(edge.From); ok {
		detail.Source = n
		severities = append(severities, n.Severity)
	}
	if n, ok := topo.Node(edge.To); ok {
		detail.Target = n
		severities = append(severities, n.Severity)
	}
	if len(severities) > 0 {
		detail.Severity = domain.Worst(severities...)
	}

	latest, err := s.repo.GetLatestLayout(ctx, topologyID)
	switch {
	case errors.Is(err, ErrNotFound):
		return detail, nil
	case err != nil:
		return nil, err
	}

	from, okFrom := latest.Position(edge.From)
	to, okTo := latest.Position(edge.To)
	if okFrom && okTo {
		detail.Length = layout.Distance(
			layout.Position{X: from.X, Y: from.Y},
			layout.Position{X: to.X, Y: to.Y},
		)
	}
	return detail, nil
}

func (s *TopologyService) refreshStored(ctx context.Context) {
	summaries, err := s.repo.ListTopologies(ctx)
	if err != nil {
		log.Printf("Failed to count topologies: %v", err)
		return
	}
	s.metrics.SetTopologiesStored(len(summaries))
}
