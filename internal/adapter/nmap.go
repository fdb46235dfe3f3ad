package adapter

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"net"
	"strconv"
	"strings"
	"time"

	nmap "github.com/Ullaakut/nmap/v3"

	"topoview/internal/domain"
)

// scanFunc runs nmap against one target
type scanFunc func(ctx context.Context, target string) (*nmap.Run, error)

// NmapAdapter discovers hosts with nmap and builds a star topology around
// the gateway
type NmapAdapter struct {
	targets           []string
	topologyID        string
	interval          time.Duration
	timeout           time.Duration
	portRange         string
	serviceDetection  bool
	osDetection       bool
	skipHostDiscovery bool
	gatewayHint       string
	publisher         EventPublisher
	scan              scanFunc
}

// NewNmapAdapter creates a new nmap-based discovery source
// targets: list of CIDR ranges or individual IPs to scan
// opts: optional configuration options
func NewNmapAdapter(targets []string, opts ...NmapOption) *NmapAdapter {
	adapter := &NmapAdapter{
		targets:          targets,
		topologyID:       "nmap",
		interval:         5 * time.Minute,
		timeout:          10 * time.Minute,
		portRange:        "21,22,23,25,53,80,161,443,445,3389,5432,5900,6443,8080,8443,9090,9100",
		serviceDetection: true,
		osDetection:      false, // Requires root
	}
	adapter.scan = adapter.runNmap

	for _, opt := range opts {
		opt(adapter)
	}

	return adapter
}

// SetEventPublisher sets the event publisher for progress updates
func (n *NmapAdapter) SetEventPublisher(pub EventPublisher) {
	n.publisher = pub
}

func (n *NmapAdapter) publishProgress(eventType string, payload any) {
	if n.publisher != nil {
		n.publisher.PublishDiscoveryEvent(eventType, payload)
	}
}

// Name returns the source identifier
func (n *NmapAdapter) Name() string {
	return "nmap"
}

// Interval returns how often Poll rescans
func (n *NmapAdapter) Interval() time.Duration {
	return n.interval
}

// Available reports whether the nmap binary can be run
func (n *NmapAdapter) Available(ctx context.Context) bool {
	scanner, err := nmap.NewScanner(
		ctx,
		nmap.WithTargets("localhost"),
		nmap.WithListScan(),
	)
	if err != nil {
		return false
	}

	_, _, err = scanner.Run()
	return err == nil
}

// Discover scans every target and returns the discovered topology. A failing
// target is logged and skipped; Discover only fails when nothing could be
// scanned.
func (n *NmapAdapter) Discover(ctx context.Context) (*domain.Topology, error) {
	if len(n.targets) == 0 {
		return nil, fmt.Errorf("no scan targets configured")
	}

	topo := domain.NewTopology(n.topologyID, "nmap "+strings.Join(n.targets, ", "))
	topo.Source = n.Name()
	topo.Description = fmt.Sprintf("Discovered %s", time.Now().UTC().Format(time.RFC3339))

	log.Printf("Nmap: starting scan of %d targets: %v", len(n.targets), n.targets)
	n.publishProgress("discovery_started", map[string]any{
		"total":   len(n.targets),
		"message": fmt.Sprintf("Starting nmap scan of %d targets", len(n.targets)),
	})

	scanned := 0
	var lastErr error
	for _, target := range n.targets {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		result, err := n.scan(ctx, target)
		if err != nil {
			log.Printf("Nmap: error scanning %s: %v", target, err)
			lastErr = err
			continue
		}
		if err := n.processResults(result, topo); err != nil {
			log.Printf("Nmap: error processing %s: %v", target, err)
			lastErr = err
			continue
		}
		scanned++
	}

	if scanned == 0 && lastErr != nil {
		return nil, fmt.Errorf("all targets failed: %w", lastErr)
	}

	gateway := linkToGateway(topo, n.gatewayHint)

	n.publishProgress("discovery_complete", map[string]any{
		"total":      len(n.targets),
		"discovered": len(topo.Nodes),
		"gateway":    gateway,
		"message":    fmt.Sprintf("Nmap scan complete: %d hosts discovered", len(topo.Nodes)),
	})

	log.Printf("Nmap: scan complete, discovered %d nodes (gateway=%s)", len(topo.Nodes), gateway)
	return topo, nil
}

// Poll runs Discover immediately and then every interval until ctx is done
func (n *NmapAdapter) Poll(ctx context.Context, handle func(*domain.Topology)) {
	ticker := time.NewTicker(n.interval)
	defer ticker.Stop()

	for {
		if topo, err := n.Discover(ctx); err != nil {
			log.Printf("Nmap: discovery failed: %v", err)
		} else {
			handle(topo)
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// runNmap performs an nmap scan of a single target
func (n *NmapAdapter) runNmap(ctx context.Context, target string) (*nmap.Run, error) {
	ctx, cancel := context.WithTimeout(ctx, n.timeout)
	defer cancel()

	opts := []nmap.Option{
		nmap.WithTargets(target),
		nmap.WithPorts(n.portRange),
	}
	if n.serviceDetection {
		opts = append(opts, nmap.WithServiceInfo())
	}
	if n.osDetection {
		opts = append(opts, nmap.WithOSDetection())
	}
	if n.skipHostDiscovery {
		opts = append(opts, nmap.WithSkipHostDiscovery())
	}

	scanner, err := nmap.NewScanner(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create scanner: %w", err)
	}

	log.Printf("Nmap: scanning target %s", target)
	result, warnings, err := scanner.Run()
	if err != nil {
		return nil, fmt.Errorf("scan failed: %w", err)
	}

	if warnings != nil && len(*warnings) > 0 {
		log.Printf("Nmap: warnings for %s: %v", target, *warnings)
	}
	return result, nil
}

// processResults adds a node for every host that is up
func (n *NmapAdapter) processResults(result *nmap.Run, topo *domain.Topology) error {
	if result == nil {
		return fmt.Errorf("nil scan result")
	}

	for _, host := range result.Hosts {
		if len(host.Addresses) == 0 || host.Status.State != "up" {
			continue
		}

		ip := primaryAddress(host)
		nodeID := sanitizeIP(ip)
		if _, exists := topo.Node(nodeID); exists {
			continue
		}

		node := n.createNodeFromHost(host, ip, nodeID)
		topo.AddNode(node)

		n.publishProgress("discovery_progress", map[string]any{
			"ip":       ip,
			"ports":    node.Metadata["open_ports"],
			"severity": node.Severity,
			"message":  fmt.Sprintf("Discovered %s", ip),
		})
	}

	return nil
}

func primaryAddress(host nmap.Host) string {
	for _, addr := range host.Addresses {
		if addr.AddrType == "ipv4" {
			return addr.Addr
		}
	}
	// Fallback to first address
	return host.Addresses[0].Addr
}

// createNodeFromHost creates a node from nmap host results
func (n *NmapAdapter) createNodeFromHost(host nmap.Host, ip, nodeID string) domain.Node {
	node := domain.NewNode(nodeID, inferNodeType(host.Ports), ip)
	node.SetMetadata("ip", ip)

	if len(host.Hostnames) > 0 {
		hostname := host.Hostnames[0].Name
		node.SetMetadata("reverse_dns", hostname)

		// Extract short name
		node.Label = hostname
		if idx := strings.Index(hostname, "."); idx > 0 {
			if shortName := hostname[:idx]; len(shortName) > 2 {
				node.Label = shortName
			}
		}
	}

	for _, addr := range host.Addresses {
		if addr.AddrType == "mac" {
			node.SetMetadata("mac_address", strings.ToUpper(addr.Addr))
			if addr.Vendor != "" {
				node.SetMetadata("mac_vendor", addr.Vendor)
			}
		}
	}

	openPorts := getOpenPorts(host.Ports)
	if len(openPorts) > 0 {
		node.SetMetadata("open_ports", openPorts)
		node.SetMetadata("services", createPortDetails(host.Ports))
	}

	if osInfo := extractOSInfo(host.OS); osInfo != nil {
		node.SetMetadata("os", osInfo)
	}

	node.Severity = severityFromPorts(openPorts)
	return *node
}

// severityFromPorts grades a host by what it exposes
func severityFromPorts(openPorts []int) domain.Severity {
	if len(openPorts) == 0 {
		return domain.SeverityUnknown
	}
	for _, p := range openPorts {
		if insecurePorts[p] {
			return domain.SeverityMajor
		}
	}
	return domain.SeverityOK
}

// createPortDetails creates PortInfo structures from nmap ports
func createPortDetails(ports []nmap.Port) []PortInfo {
	var details []PortInfo

	for _, port := range ports {
		if port.State.State != "open" {
			continue
		}

		serviceName := port.Service.Name
		if serviceName == "" {
			serviceName = wellKnownPorts[int(port.ID)]
			if serviceName == "" {
				serviceName = fmt.Sprintf("unknown-%d", port.ID)
			}
		}

		info := PortInfo{
			Port:    int(port.ID),
			Service: serviceName,
		}

		if port.Service.Product != "" {
			banner := port.Service.Product
			if port.Service.Version != "" {
				banner += " " + port.Service.Version
			}
			if port.Service.ExtraInfo != "" {
				banner += " (" + port.Service.ExtraInfo + ")"
			}
			info.Banner = banner
		}

		details = append(details, info)
	}

	return details
}

// getOpenPorts extracts list of open port numbers
func getOpenPorts(ports []nmap.Port) []int {
	var openPorts []int
	for _, port := range ports {
		if port.State.State == "open" {
			openPorts = append(openPorts, int(port.ID))
		}
	}
	return openPorts
}

// extractOSInfo converts the best nmap OS match to a map
func extractOSInfo(os nmap.OS) map[string]any {
	if len(os.Matches) == 0 {
		return nil
	}

	match := os.Matches[0]
	info := map[string]any{
		"name":     match.Name,
		"accuracy": match.Accuracy,
	}

	for _, class := range match.Classes {
		if class.Type != "" {
			info["type"] = class.Type
		}
		if class.Vendor != "" {
			info["vendor"] = class.Vendor
		}
		if class.Family != "" {
			info["family"] = class.Family
		}
	}

	return info
}

// inferNodeType guesses node type from open ports
func inferNodeType(ports []nmap.Port) domain.NodeType {
	portSet := make(map[uint16]bool)
	for _, p := range ports {
		if p.State.State == "open" {
			portSet[p.ID] = true
		}
	}

	switch {
	// DNS plus a web UI is the usual home/branch router signature
	case portSet[53] && (portSet[80] || portSet[443]):
		return domain.NodeTypeRouter
	// SNMP without any server role is usually managed network gear
	case portSet[161] && !portSet[22] && !portSet[3389]:
		return domain.NodeTypeSwitch
	case portSet[6443] || portSet[3389] || portSet[445] || portSet[22]:
		return domain.NodeTypeServer
	case portSet[80] || portSet[443] || portSet[8080]:
		return domain.NodeTypeServer
	case len(portSet) > 0:
		return domain.NodeTypeClient
	}

	return domain.NodeTypeUnknown
}

// linkToGateway connects every node to the gateway and returns its ID
func linkToGateway(topo *domain.Topology, hint string) string {
	gateway := pickGateway(topo, hint)
	if gateway == nil {
		return ""
	}

	gatewayID := gateway.ID
	for _, node := range topo.Nodes {
		if node.ID == gatewayID {
			continue
		}
		topo.AddEdge(*domain.NewEdge(gatewayID, node.ID, domain.EdgeTypeEthernet))
	}
	return gatewayID
}

// pickGateway returns the host at hint when it was discovered, otherwise the
// lowest-addressed router, or the lowest-addressed host when no router was seen
func pickGateway(topo *domain.Topology, hint string) *domain.Node {
	if hint != "" {
		for i := range topo.Nodes {
			if topo.Nodes[i].GetMetadataString("ip") == hint {
				return &topo.Nodes[i]
			}
		}
	}

	var gateway *domain.Node
	for i := range topo.Nodes {
		node := &topo.Nodes[i]
		switch {
		case gateway == nil:
			gateway = node
		case node.Type == domain.NodeTypeRouter && gateway.Type != domain.NodeTypeRouter:
			gateway = node
		case (node.Type == domain.NodeTypeRouter) == (gateway.Type == domain.NodeTypeRouter) &&
			compareIP(node.GetMetadataString("ip"), gateway.GetMetadataString("ip")) < 0:
			gateway = node
		}
	}
	return gateway
}

// compareIP orders addresses numerically, falling back to string order
func compareIP(a, b string) int {
	ipA, ipB := net.ParseIP(a), net.ParseIP(b)
	if ipA == nil || ipB == nil {
		return strings.Compare(a, b)
	}
	return bytes.Compare(ipA.To16(), ipB.To16())
}

// sanitizeIP converts an IP address to a valid node ID
func sanitizeIP(ip string) string {
	parsed := net.ParseIP(ip)
	if parsed != nil {
		ip = parsed.String()
	}
	return strings.ReplaceAll(strings.ReplaceAll(ip, ".", "-"), ":", "-")
}

// expandTargets validates CIDR targets; nmap handles the expansion itself
func expandTargets(targets []string) ([]string, error) {
	var expanded []string
	for _, target := range targets {
		target = strings.TrimSpace(target)
		if strings.Contains(target, "/") {
			_, ipNet, err := net.ParseCIDR(target)
			if err != nil {
				return nil, fmt.Errorf("invalid CIDR %s: %w", target, err)
			}
			expanded = append(expanded, ipNet.String())
		} else {
			expanded = append(expanded, target)
		}
	}
	return expanded, nil
}

// ParseTargets validates and normalizes user supplied scan targets
func ParseTargets(targets []string) ([]string, error) {
	if len(targets) == 0 {
		return nil, fmt.Errorf("at least one target is required")
	}
	return expandTargets(targets)
}

// parsePorts validates a port list such as "80,443,8080", "1-1000" or "22,80-443,8080"
func parsePorts(portRange string) (string, error) {
	parts := strings.Split(portRange, ",")
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if strings.Contains(part, "-") {
			rangeParts := strings.Split(part, "-")
			if len(rangeParts) != 2 {
				return "", fmt.Errorf("invalid port range: %s", part)
			}
			start, err := strconv.Atoi(strings.TrimSpace(rangeParts[0]))
			if err != nil || start < 1 || start > 65535 {
				return "", fmt.Errorf("invalid port number: %s", rangeParts[0])
			}
			end, err := strconv.Atoi(strings.TrimSpace(rangeParts[1]))
			if err != nil || end < 1 || end > 65535 || end < start {
				return "", fmt.Errorf("invalid port number: %s", rangeParts[1])
			}
		} else {
			port, err := strconv.Atoi(part)
			if err != nil || port < 1 || port > 65535 {
				return "", fmt.Errorf("invalid port number: %s", part)
			}
		}
	}
	return portRange, nil
}
