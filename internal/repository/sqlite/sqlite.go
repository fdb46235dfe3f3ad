package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"topoview/internal/domain"

	_ "modernc.org/sqlite"
)

// ErrNotFound is returned when a requested row does not exist
var ErrNotFound = errors.New("not found")

// Repository stores topologies and layouts in SQLite
type Repository struct {
	db *sql.DB
}

// New opens (or creates) the database at dbPath and migrates the schema.
// ":memory:" gives a private in-memory database.
func New(dbPath string) (*Repository, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite allows one writer; a single connection also keeps an
	// in-memory database alive for the life of the pool.
	db.SetMaxOpenConns(1)

	for _, pragma := range []string{
		"PRAGMA foreign_keys = ON",
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to apply %q: %w", pragma, err)
		}
	}

	repo := &Repository{db: db}
	if err := repo.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return repo, nil
}

// Close releases the database
func (r *Repository) Close() error {
	return r.db.Close()
}

func (r *Repository) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS topologies (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		description TEXT,
		source TEXT,
		data JSON NOT NULL,
		node_count INTEGER NOT NULL DEFAULT 0,
		edge_count INTEGER NOT NULL DEFAULT 0,
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS layout_runs (
		id TEXT PRIMARY KEY,
		topology_id TEXT NOT NULL,
		iterations INTEGER NOT NULL,
		repulsion REAL NOT NULL,
		attraction REAL NOT NULL,
		damping REAL NOT NULL,
		radius REAL NOT NULL,
		duration_ns INTEGER NOT NULL,
		computed_at INTEGER NOT NULL,
		FOREIGN KEY (topology_id) REFERENCES topologies(id) ON DELETE CASCADE
	);

	CREATE TABLE IF NOT EXISTS positions (
		run_id TEXT NOT NULL,
		seq INTEGER NOT NULL,
		node_id TEXT NOT NULL,
		x REAL NOT NULL,
		y REAL NOT NULL,
		pinned INTEGER NOT NULL DEFAULT 0,
		PRIMARY KEY (run_id, node_id),
		FOREIGN KEY (run_id) REFERENCES layout_runs(id) ON DELETE CASCADE
	);

	CREATE TABLE IF NOT EXISTS pins (
		topology_id TEXT NOT NULL,
		node_id TEXT NOT NULL,
		x REAL NOT NULL,
		y REAL NOT NULL,
		updated_at INTEGER NOT NULL,
		PRIMARY KEY (topology_id, node_id),
		FOREIGN KEY (topology_id) REFERENCES topologies(id) ON DELETE CASCADE
	);

	CREATE INDEX IF NOT EXISTS idx_layout_runs_topology ON layout_runs(topology_id, computed_at);
	`

	_, err := r.db.Exec(schema)
	return err
}

// ============================================================================
// Topologies
// ============================================================================

// SaveTopology inserts or replaces a topology. Existing layout runs and pins
// are kept; positions for nodes that no longer exist are simply unused.
func (r *Repository) SaveTopology(ctx context.Context, topo *domain.Topology) error {
	args, err := topologyInsertArgs(topo, time.Now())
	if err != nil {
		return err
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO topologies (id, name, description, source, data, node_count, edge_count, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			description = excluded.description,
			source = excluded.source,
			data = excluded.data,
			node_count = excluded.node_count,
			edge_count = excluded.edge_count,
			updated_at = excluded.updated_at
	`, args...)
	if err != nil {
		return fmt.Errorf("failed to save topology %s: %w", topo.ID, err)
	}
	return nil
}

// GetTopology loads a topology by ID
func (r *Repository) GetTopology(ctx context.Context, id string) (*domain.Topology, error) {
	var row topologyRow
	err := r.db.QueryRowContext(ctx,
		`SELECT `+topologyColumns+` FROM topologies WHERE id = ?`, id,
	).Scan(row.scanArgs()...)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("topology %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query topology: %w", err)
	}
	return row.toDomain()
}

// ListTopologies returns summaries ordered by name
func (r *Repository) ListTopologies(ctx context.Context) ([]domain.Summary, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, description, source, node_count, edge_count
		FROM topologies
		ORDER BY name, id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query topologies: %w", err)
	}
	defer rows.Close()

	summaries := make([]domain.Summary, 0)
	for rows.Next() {
		var (
			s                   domain.Summary
			description, source sql.NullString
		)
		if err := rows.Scan(&s.ID, &s.Name, &description, &source, &s.NodeCount, &s.EdgeCount); err != nil {
			return nil, fmt.Errorf("failed to scan topology: %w", err)
		}
		s.Description = nullToString(description)
		s.Source = nullToString(source)
		summaries = append(summaries, s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating topologies: %w", err)
	}
	return summaries, nil
}

// DeleteTopology removes a topology with its runs, positions and pins
func (r *Repository) DeleteTopology(ctx context.Context, id string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmts := []string{
		`DELETE FROM positions WHERE run_id IN (SELECT id FROM layout_runs WHERE topology_id = ?)`,
		`DELETE FROM layout_runs WHERE topology_id = ?`,
		`DELETE FROM pins WHERE topology_id = ?`,
	}
	for _, stmt := range stmts {
		if _, err := tx.ExecContext(ctx, stmt, id); err != nil {
			return fmt.Errorf("failed to delete topology %s: %w", id, err)
		}
	}

	result, err := tx.ExecContext(ctx, `DELETE FROM topologies WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete topology %s: %w", id, err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return fmt.Errorf("topology %s: %w", id, ErrNotFound)
	}

	return tx.Commit()
}

// ============================================================================
// Layout runs
// ============================================================================

// SaveLayout stores a run and its positions in one transaction
func (r *Repository) SaveLayout(ctx context.Context, result *domain.LayoutResult) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	p := result.Params
	_, err = tx.ExecContext(ctx, `
		INSERT INTO layout_runs (id, topology_id, iterations, repulsion, attraction, damping, radius, duration_ns, computed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, result.RunID, result.TopologyID, p.Iterations, p.Repulsion, p.Attraction, p.Damping, p.Radius,
		int64(result.Duration), timeToNanos(result.ComputedAt))
	if err != nil {
		return fmt.Errorf("failed to insert layout run: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO positions (run_id, seq, node_id, x, y, pinned) VALUES (?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare position insert: %w", err)
	}
	defer stmt.Close()

	for i, pos := range result.Positions {
		if _, err := stmt.ExecContext(ctx, result.RunID, i, pos.NodeID, pos.X, pos.Y, boolToInt(pos.Pinned)); err != nil {
			return fmt.Errorf("failed to insert position for %s: %w", pos.NodeID, err)
		}
	}

	return tx.Commit()
}

// GetLatestLayout returns the most recent run for a topology with its positions
func (r *Repository) GetLatestLayout(ctx context.Context, topologyID string) (*domain.LayoutResult, error) {
	var row runRow
	err := r.db.QueryRowContext(ctx, `
		SELECT `+runColumns+` FROM layout_runs
		WHERE topology_id = ?
		ORDER BY computed_at DESC, rowid DESC
		LIMIT 1
	`, topologyID).Scan(row.scanArgs()...)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("layout for %s: %w", topologyID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query layout run: %w", err)
	}

	result := row.toDomain()
	positions, err := r.runPositions(ctx, result.RunID)
	if err != nil {
		return nil, err
	}
	result.Positions = positions
	return result, nil
}

// ListRuns returns the newest runs for a topology, without positions
func (r *Repository) ListRuns(ctx context.Context, topologyID string, limit int) ([]domain.LayoutResult, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT `+runColumns+` FROM layout_runs
		WHERE topology_id = ?
		ORDER BY computed_at DESC, rowid DESC
		LIMIT ?
	`, topologyID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query layout runs: %w", err)
	}
	defer rows.Close()

	runs := make([]domain.LayoutResult, 0)
	for rows.Next() {
		var row runRow
		if err := rows.Scan(row.scanArgs()...); err != nil {
			return nil, fmt.Errorf("failed to scan layout run: %w", err)
		}
		runs = append(runs, *row.toDomain())
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating layout runs: %w", err)
	}
	return runs, nil
}

func (r *Repository) runPositions(ctx context.Context, runID string) ([]domain.NodePosition, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT node_id, x, y, pinned FROM positions WHERE run_id = ? ORDER BY seq
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query positions: %w", err)
	}
	defer rows.Close()

	positions := make([]domain.NodePosition, 0)
	for rows.Next() {
		var (
			pos    domain.NodePosition
			pinned sql.NullInt64
		)
		if err := rows.Scan(&pos.NodeID, &pos.X, &pos.Y, &pinned); err != nil {
			return nil, fmt.Errorf("failed to scan position: %w", err)
		}
		pos.Pinned = nullToBool(pinned)
		positions = append(positions, pos)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating positions: %w", err)
	}
	return positions, nil
}

// ============================================================================
// Pins
// ============================================================================

// SetPinned fixes a node at (x, y) for future runs, or releases it when
// pinned is false. The topology must exist.
func (r *Repository) SetPinned(ctx context.Context, topologyID, nodeID string, x, y float64, pinned bool) error {
	var exists int
	err := r.db.QueryRowContext(ctx, `SELECT 1 FROM topologies WHERE id = ?`, topologyID).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("topology %s: %w", topologyID, ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("failed to query topology: %w", err)
	}

	if !pinned {
		_, err := r.db.ExecContext(ctx, `DELETE FROM pins WHERE topology_id = ? AND node_id = ?`, topologyID, nodeID)
		if err != nil {
			return fmt.Errorf("failed to unpin %s: %w", nodeID, err)
		}
		return nil
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO pins (topology_id, node_id, x, y, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(topology_id, node_id) DO UPDATE SET
			x = excluded.x,
			y = excluded.y,
			updated_at = excluded.updated_at
	`, topologyID, nodeID, x, y, timeToNanos(time.Now()))
	if err != nil {
		return fmt.Errorf("failed to pin %s: %w", nodeID, err)
	}
	return nil
}

// GetPins returns the pinned positions of a topology keyed by node ID
func (r *Repository) GetPins(ctx context.Context, topologyID string) (map[string]domain.NodePosition, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT node_id, x, y FROM pins WHERE topology_id = ?`, topologyID)
	if err != nil {
		return nil, fmt.Errorf("failed to query pins: %w", err)
	}
	defer rows.Close()

	pins := make(map[string]domain.NodePosition)
	for rows.Next() {
		pos := domain.NodePosition{Pinned: true}
		if err := rows.Scan(&pos.NodeID, &pos.X, &pos.Y); err != nil {
			return nil, fmt.Errorf("failed to scan pin: %w", err)
		}
		pins[pos.NodeID] = pos
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating pins: %w", err)
	}
	return pins, nil
}
