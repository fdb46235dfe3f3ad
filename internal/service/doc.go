// Package service implements business logic for topoview.
//
// Services sit between the HTTP handlers, the CLI and the repository layer.
// They validate input, run the layout engine and publish events.
//
// # Services
//
// TopologyService imports and exports topologies via codec adapters, stores
// them, and builds the detail views shown when an operator opens a node or
// clicks a link.
//
// LayoutService runs the force-directed engine over stored topologies,
// ad-hoc previews and canned scenarios. Stored runs are persisted with their
// parameters; positions the operator pinned are laid over the computed result
// before it is saved.
//
// # Event System
//
// Services publish events via EventBus for real-time updates to connected
// clients via Server-Sent Events (SSE). Discovery adapters report scan
// progress on the same bus.
package service
