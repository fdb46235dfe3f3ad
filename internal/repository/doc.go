// Package repository persists topologies and the layouts computed for them.
//
// The sqlite subpackage is the only implementation. It stores:
//
//   - topologies: one row per dataset, nodes and edges as a JSON document
//   - layout_runs: one row per layout computation with its force parameters
//   - positions: the coordinates a run produced, one row per node
//   - pins: operator-fixed positions that are reapplied over new runs
//
// Deleting a topology removes its runs, positions and pins. Lookups of
// missing rows return sqlite.ErrNotFound.
package repository
