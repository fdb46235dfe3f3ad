package service

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"topoview/internal/domain"
)

// FormatForPath picks a codec format from a file extension, JSON when unknown
func FormatForPath(path string) string {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	switch ext {
	case "yaml", "yml", "toml", "json":
		return ext
	default:
		return "json"
	}
}

// ImportFile imports a dataset file, choosing the format from its extension
func (s *TopologyService) ImportFile(ctx context.Context, path string) (*ImportResult, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open dataset: %w", err)
	}
	defer f.Close()

	return s.Import(ctx, FormatForPath(path), f)
}

// ReloadDataset re-imports a dataset file and lays it out again. It backs the
// file watcher: every settled change to a watched file ends in a fresh layout.
func ReloadDataset(ctx context.Context, topologies *TopologyService, layouts *LayoutService, path string) (*domain.LayoutResult, error) {
	imported, err := topologies.ImportFile(ctx, path)
	if err != nil {
		return nil, err
	}

	result, err := layouts.Compute(ctx, imported.Topology.ID, nil)
	if err != nil {
		return nil, err
	}

	topologies.eventBus.Publish(Event{
		Type: EventDatasetReloaded,
		Payload: map[string]any{
			"path":        path,
			"topology_id": imported.Topology.ID,
			"run_id":      result.RunID,
		},
	})
	return result, nil
}
