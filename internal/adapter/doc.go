// Package adapter implements discovery sources that produce topologies from
// the live network.
//
// A Source returns a complete domain.Topology per run; the caller imports it
// like any other dataset and lays it out. NmapAdapter is the only source: it
// scans configured targets, turns every host that is up into a node, derives
// a severity from the services it exposes, and links each host to the
// detected gateway. Scans have no link-layer view, so the result is always a
// star around the gateway.
//
// Progress is reported through an optional EventPublisher so long scans can
// be followed over the event stream.
package adapter
