// Package handler implements HTTP request handlers for the topoview API.
//
// # Handlers
//
// TopologyHandler serves stored topologies, their layouts and detail views,
// the canned scenarios and the severity legend. Register adds its routes to
// a ServeMux using method-qualified patterns.
//
// Middleware provides panic recovery, CORS, request logging and Prometheus
// request metrics. Chain composes them around the mux.
//
// # Response Format
//
// Success responses return JSON data with appropriate status codes (200, 201).
// Error responses return JSON with {error, details} structure. Missing
// resources map to 404; malformed uploads and invalid layout parameters map
// to 400.
//
// # Server-Sent Events
//
// The /events endpoint is served by the hub package; layout runs, imports
// and pin changes are pushed to connected clients as they happen.
package handler
