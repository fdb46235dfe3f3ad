// Package domain defines the core types of the topoview topology visualization system.
//
// # Core Types
//
// Node represents a network entity (router, switch, server, access point, ...)
// with free-form metadata and a Severity that drives its color in every view.
//
// Edge represents a link between two nodes. Edges carry a type, a label and
// arbitrary properties shown when an operator inspects the link.
//
// Topology is a named collection of nodes and edges. Topologies come from
// dataset files, canned scenarios or network discovery.
//
// # Layout Results
//
// LayoutResult holds the positions computed for a topology together with the
// parameters and timing of the run. NodePosition records a single node's
// coordinates and whether an operator pinned it in place.
//
// # Detail Views
//
// NodeDetail and EdgeDetail are read models for click-to-inspect: a node's
// metadata plus its laid-out neighborhood, and an edge with both endpoints.
//
// # Severity Legend
//
// Severity is an ordered, color-coded scale. Legend returns the entries in
// display order for any surface that renders a key.
//
// # Design Principles
//
// - No database or external dependencies
// - Pure domain logic without infrastructure concerns
// - Meaningful constants and enumerations
package domain
