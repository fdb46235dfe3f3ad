package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"topoview/internal/domain"
	"topoview/internal/layout"
	"topoview/internal/metrics"
	"topoview/internal/repository/sqlite"
	"topoview/internal/scenario"
)

// LayoutService runs the layout engine over topologies and keeps the history
// of stored runs
type LayoutService struct {
	repo     *sqlite.Repository
	eventBus *EventBus
	metrics  *metrics.Registry
	defaults layout.Options
}

// NewLayoutService creates a layout service. defaults fill in requests that
// carry no parameters.
func NewLayoutService(repo *sqlite.Repository, eventBus *EventBus, reg *metrics.Registry, defaults layout.Options) *LayoutService {
	return &LayoutService{
		repo:     repo,
		eventBus: eventBus,
		metrics:  reg,
		defaults: defaults,
	}
}

// Defaults returns the parameters used when a request carries none
func (s *LayoutService) Defaults() domain.LayoutParams {
	return ParamsFromOptions(s.defaults)
}

// Compute lays out a stored topology, reapplies the operator's pins and
// persists the run. A nil params uses the service defaults.
func (s *LayoutService) Compute(ctx context.Context, topologyID string, params *domain.LayoutParams) (*domain.LayoutResult, error) {
	p, err := s.resolve(params)
	if err != nil {
		return nil, err
	}

	topo, err := s.repo.GetTopology(ctx, topologyID)
	if err != nil {
		return nil, err
	}

	result := LayoutTopology(topo, OptionsFromParams(p))
	result.TopologyID = topo.ID
	result.RunID = uuid.New().String()
	if err := checkFinite(result); err != nil {
		s.metrics.RecordLayout("stored", len(topo.Nodes), len(topo.Edges), result.Duration, err)
		return nil, err
	}

	pins, err := s.repo.GetPins(ctx, topo.ID)
	if err != nil {
		s.metrics.RecordLayout("stored", len(topo.Nodes), len(topo.Edges), result.Duration, err)
		return nil, err
	}
	s.metrics.RecordPins(result.ApplyPins(pins))

	if err := s.repo.SaveLayout(ctx, result); err != nil {
		s.metrics.RecordLayout("stored", len(topo.Nodes), len(topo.Edges), result.Duration, err)
		return nil, err
	}
	s.metrics.RecordLayout("stored", len(topo.Nodes), len(topo.Edges), result.Duration, nil)

	s.eventBus.Publish(Event{
		Type: EventLayoutComputed,
		Payload: map[string]any{
			"topology_id": topo.ID,
			"run_id":      result.RunID,
			"nodes":       len(result.Positions),
			"duration_ms": result.Duration.Milliseconds(),
		},
	})
	return result, nil
}

// Preview lays out an ad-hoc topology without storing anything
func (s *LayoutService) Preview(ctx context.Context, topo *domain.Topology, params *domain.LayoutParams) (*domain.LayoutResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	p, err := s.resolve(params)
	if err != nil {
		return nil, err
	}

	topo.Normalize()
	if topo.Name == "" {
		topo.Name = "preview"
	}
	if err := topo.Validate(); err != nil {
		return nil, err
	}

	result := LayoutTopology(topo, OptionsFromParams(p))
	result.TopologyID = topo.ID
	if err := checkFinite(result); err != nil {
		s.metrics.RecordLayout("preview", len(topo.Nodes), len(topo.Edges), result.Duration, err)
		return nil, err
	}
	s.metrics.RecordLayout("preview", len(topo.Nodes), len(topo.Edges), result.Duration, nil)
	return result, nil
}

// Scenario lays out a canned scenario using its own iteration count when it
// declares one
func (s *LayoutService) Scenario(sc *scenario.Scenario) *domain.LayoutResult {
	topo := sc.Topology()
	result := LayoutTopology(topo, sc.Options(s.defaults))
	result.TopologyID = topo.ID
	s.metrics.RecordLayout("scenario", len(topo.Nodes), len(topo.Edges), result.Duration, nil)
	return result
}

// Latest returns the most recent stored run for a topology
func (s *LayoutService) Latest(ctx context.Context, topologyID string) (*domain.LayoutResult, error) {
	return s.repo.GetLatestLayout(ctx, topologyID)
}

// Runs lists the newest stored runs for a topology, without positions
func (s *LayoutService) Runs(ctx context.Context, topologyID string, limit int) ([]domain.LayoutResult, error) {
	return s.repo.ListRuns(ctx, topologyID, limit)
}

// Pin fixes a node at (x, y) for subsequent runs, or releases it
func (s *LayoutService) Pin(ctx context.Context, topologyID string, pos domain.NodePosition) error {
	topo, err := s.repo.GetTopology(ctx, topologyID)
	if err != nil {
		return err
	}
	if _, ok := topo.Node(pos.NodeID); !ok {
		return fmt.Errorf("node %s in %s: %w", pos.NodeID, topologyID, ErrNotFound)
	}

	if err := s.repo.SetPinned(ctx, topologyID, pos.NodeID, pos.X, pos.Y, pos.Pinned); err != nil {
		return err
	}

	s.eventBus.Publish(Event{
		Type:    EventPositionsUpdated,
		Payload: map[string]any{"topology_id": topologyID, "node_id": pos.NodeID, "pinned": pos.Pinned},
	})
	return nil
}

func (s *LayoutService) resolve(params *domain.LayoutParams) (domain.LayoutParams, error) {
	if params == nil {
		return s.Defaults(), nil
	}
	if err := ValidateParams(params); err != nil {
		return domain.LayoutParams{}, err
	}
	return *params, nil
}

// checkFinite rejects runs whose forces overflowed
func checkFinite(result *domain.LayoutResult) error {
	if !result.Finite() {
		return fmt.Errorf("%w: layout diverged to non-finite coordinates, lower repulsion or attraction", ErrInvalidParams)
	}
	return nil
}

// LayoutTopology runs the engine over every node of topo, keeping declaration
// order and the first occurrence of a duplicated ID. Nothing is stored.
func LayoutTopology(topo *domain.Topology, opts layout.Options) *domain.LayoutResult {
	ids := topo.NodeIDs()

	start := time.Now()
	positions := layout.Compute(ids, topo.LayoutEdges(), opts)
	elapsed := time.Since(start)

	result := &domain.LayoutResult{
		Params:     ParamsFromOptions(opts),
		Positions:  make([]domain.NodePosition, 0, len(positions)),
		ComputedAt: start.UTC(),
		Duration:   elapsed,
	}

	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		pos := positions[id]
		result.Positions = append(result.Positions, *domain.NewNodePosition(id, pos.X, pos.Y))
	}
	return result
}
