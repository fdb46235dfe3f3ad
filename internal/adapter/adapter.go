package adapter

import (
	"context"

	"topoview/internal/domain"
)

// Source discovers a topology from an external system
type Source interface {
	// Name returns the unique identifier for this source
	Name() string

	// Discover runs one discovery pass and returns what was found
	Discover(ctx context.Context) (*domain.Topology, error)
}

// EventPublisher allows sources to publish progress events
type EventPublisher interface {
	PublishDiscoveryEvent(eventType string, payload any)
}

// PortInfo contains details about an open port
type PortInfo struct {
	Port    int    `json:"port"`
	Service string `json:"service"`
	Banner  string `json:"banner,omitempty"`
}

// wellKnownPorts names services when nmap service detection is off
var wellKnownPorts = map[int]string{
	21:   "ftp",
	22:   "ssh",
	23:   "telnet",
	25:   "smtp",
	53:   "dns",
	80:   "http",
	110:  "pop3",
	143:  "imap",
	161:  "snmp",
	443:  "https",
	445:  "smb",
	993:  "imaps",
	995:  "pop3s",
	3306: "mysql",
	3389: "rdp",
	5432: "postgres",
	5900: "vnc",
	6443: "k8s-api",
	8080: "http-alt",
	8443: "https-alt",
	9090: "prometheus",
	9100: "node-exporter",
}

// insecurePorts are cleartext management services; a host exposing any of
// them is flagged major.
var insecurePorts = map[int]bool{
	21: true, // ftp
	23: true, // telnet
}
