package sqlite

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"topoview/internal/domain"
)

// ============================================================================
// Null Type Conversion Helpers
// ============================================================================

// nullToString safely converts sql.NullString to string
func nullToString(ns sql.NullString) string {
	if ns.Valid {
		return ns.String
	}
	return ""
}

// nullToBool converts sql.NullInt64 to bool (0 = false, non-zero = true)
func nullToBool(ni sql.NullInt64) bool {
	return ni.Valid && ni.Int64 != 0
}

// stringToNull safely converts string to sql.NullString
func stringToNull(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// Times are stored as UTC unix nanoseconds so ordering and round trips are exact.
func timeToNanos(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixNano()
}

func nanosToTime(n int64) time.Time {
	if n == 0 {
		return time.Time{}
	}
	return time.Unix(0, n).UTC()
}

// ============================================================================
// Topology Row Scanner
// ============================================================================
//
// CRITICAL: Column order must match between topologyColumns and scanArgs().
// The same applies to runColumns and runRow.

// topologyDocument is the JSON body stored in topologies.data
type topologyDocument struct {
	Nodes []domain.Node `json:"nodes"`
	Edges []domain.Edge `json:"edges"`
}

// topologyRow holds all columns from a topology query for scanning
type topologyRow struct {
	ID          string
	Name        string
	Description sql.NullString
	Source      sql.NullString
	Data        string
}

// scanArgs returns pointers to all fields for sql.Scan()
// MUST match topologyColumns order exactly: id, name, description, source, data
func (r *topologyRow) scanArgs() []any {
	return []any{
		&r.ID,          // 1
		&r.Name,        // 2
		&r.Description, // 3
		&r.Source,      // 4
		&r.Data,        // 5
	}
}

// toDomain converts the scanned row to a domain.Topology
func (r *topologyRow) toDomain() (*domain.Topology, error) {
	var doc topologyDocument
	if err := json.Unmarshal([]byte(r.Data), &doc); err != nil {
		return nil, fmt.Errorf("unmarshal topology %s: %w", r.ID, err)
	}

	topo := domain.NewTopology(r.ID, r.Name)
	topo.Description = nullToString(r.Description)
	topo.Source = nullToString(r.Source)
	if doc.Nodes != nil {
		topo.Nodes = doc.Nodes
	}
	if doc.Edges != nil {
		topo.Edges = doc.Edges
	}
	return topo, nil
}

// topologyColumns returns the SELECT column list for topology queries
const topologyColumns = `id, name, description, source, data`

// topologyInsertArgs prepares arguments for the topology UPSERT
// Returns: id, name, description, source, data, node_count, edge_count, created_at, updated_at
func topologyInsertArgs(topo *domain.Topology, now time.Time) ([]any, error) {
	data, err := json.Marshal(topologyDocument{Nodes: topo.Nodes, Edges: topo.Edges})
	if err != nil {
		return nil, fmt.Errorf("marshal topology %s: %w", topo.ID, err)
	}

	return []any{
		topo.ID,
		topo.Name,
		stringToNull(topo.Description),
		stringToNull(topo.Source),
		string(data),
		len(topo.Nodes),
		len(topo.Edges),
		timeToNanos(now),
		timeToNanos(now),
	}, nil
}

// ============================================================================
// Layout Run Row Scanner
// ============================================================================

// runRow holds all columns from a layout run query for scanning
type runRow struct {
	ID         string
	TopologyID string
	Iterations int
	Repulsion  float64
	Attraction float64
	Damping    float64
	Radius     float64
	DurationNs int64
	ComputedAt int64
}

// scanArgs returns pointers to all fields for sql.Scan()
// MUST match runColumns order exactly
func (r *runRow) scanArgs() []any {
	return []any{
		&r.ID,         // 1
		&r.TopologyID, // 2
		&r.Iterations, // 3
		&r.Repulsion,  // 4
		&r.Attraction, // 5
		&r.Damping,    // 6
		&r.Radius,     // 7
		&r.DurationNs, // 8
		&r.ComputedAt, // 9
	}
}

// toDomain converts the scanned row to a domain.LayoutResult without positions
func (r *runRow) toDomain() *domain.LayoutResult {
	return &domain.LayoutResult{
		TopologyID: r.TopologyID,
		RunID:      r.ID,
		Params: domain.LayoutParams{
			Iterations: r.Iterations,
			Repulsion:  r.Repulsion,
			Attraction: r.Attraction,
			Damping:    r.Damping,
			Radius:     r.Radius,
		},
		Positions:  []domain.NodePosition{},
		ComputedAt: nanosToTime(r.ComputedAt),
		Duration:   time.Duration(r.DurationNs),
	}
}

// runColumns returns the SELECT column list for layout run queries
const runColumns = `id, topology_id, iterations, repulsion, attraction, damping, radius, duration_ns, computed_at`
