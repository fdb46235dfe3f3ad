package codec

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"topoview/internal/domain"

	"gopkg.in/yaml.v3"
)

// AnsibleCodec handles Ansible inventory import/export
type AnsibleCodec struct{}

// NewAnsibleCodec creates a new Ansible codec
func NewAnsibleCodec() *AnsibleCodec {
	return &AnsibleCodec{}
}

// Format returns the codec format identifier
func (c *AnsibleCodec) Format() string {
	return "ansible-inventory"
}

// ansibleInventory represents the Ansible inventory structure
type ansibleInventory struct {
	All ansibleGroup `yaml:"all"`
}

type ansibleGroup struct {
	Children map[string]ansibleGroupDef `yaml:"children,omitempty"`
	Hosts    map[string]ansibleHost     `yaml:"hosts,omitempty"`
	Vars     map[string]any             `yaml:"vars,omitempty"`
}

type ansibleGroupDef struct {
	Hosts map[string]ansibleHost `yaml:"hosts,omitempty"`
	Vars  map[string]any         `yaml:"vars,omitempty"`
}

type ansibleHost struct {
	AnsibleHost string         `yaml:"ansible_host,omitempty"`
	Vars        map[string]any `yaml:",inline"`
}

// Parse imports a topology from an Ansible inventory. Inventories carry no
// links, so every host is attached to the router/gateway host when one exists.
func (c *AnsibleCodec) Parse(r io.Reader) (*domain.Topology, error) {
	var inv ansibleInventory
	decoder := yaml.NewDecoder(r)
	if err := decoder.Decode(&inv); err != nil {
		return nil, fmt.Errorf("failed to parse Ansible inventory: %w", err)
	}

	topo := domain.NewTopology("", "ansible inventory")
	topo.Source = "ansible"
	seen := make(map[string]bool)

	// Map iteration order is random; sort so imports are reproducible.
	groupNames := make([]string, 0, len(inv.All.Children))
	for name := range inv.All.Children {
		groupNames = append(groupNames, name)
	}
	sort.Strings(groupNames)

	var routerID string
	add := func(hostID, groupName string, host ansibleHost) {
		if seen[hostID] {
			return
		}
		seen[hostID] = true
		node := c.hostToNode(hostID, groupName, host)
		if routerID == "" && node.Type == domain.NodeTypeRouter {
			routerID = hostID
		}
		topo.AddNode(node)
	}

	for _, groupName := range groupNames {
		group := inv.All.Children[groupName]
		for _, hostID := range sortedHosts(group.Hosts) {
			add(hostID, groupName, group.Hosts[hostID])
		}
	}

	// Hosts in the 'all' group directly
	for _, hostID := range sortedHosts(inv.All.Hosts) {
		add(hostID, "all", inv.All.Hosts[hostID])
	}

	if routerID != "" {
		for _, node := range topo.Nodes {
			if node.ID == routerID {
				continue
			}
			edge := domain.NewEdge(node.ID, routerID, domain.EdgeTypeEthernet)
			edge.SetProperty("inferred", true)
			topo.AddEdge(*edge)
		}
	}

	topo.Normalize()
	return topo, nil
}

func sortedHosts(hosts map[string]ansibleHost) []string {
	ids := make([]string, 0, len(hosts))
	for id := range hosts {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// hostToNode converts an Ansible host to a domain.Node
func (c *AnsibleCodec) hostToNode(hostID, groupName string, host ansibleHost) domain.Node {
	node := domain.NewNode(hostID, c.inferNodeType(groupName, host.Vars), hostID)

	if host.AnsibleHost != "" {
		node.SetMetadata("ip", host.AnsibleHost)
	}
	node.SetMetadata("group", groupName)

	for key, value := range host.Vars {
		switch key {
		case "ansible_host":
			continue
		case "severity", "status":
			if s, ok := value.(string); ok {
				node.Severity = domain.ParseSeverity(s)
			}
		}
		node.SetMetadata(key, value)
	}

	return *node
}

// inferNodeType infers the node type from host vars and group name
func (c *AnsibleCodec) inferNodeType(groupName string, vars map[string]any) domain.NodeType {
	// First check device_type (explicit)
	if deviceType, ok := vars["device_type"].(string); ok {
		switch strings.ToLower(deviceType) {
		case "router", "gateway":
			return domain.NodeTypeRouter
		case "switch":
			return domain.NodeTypeSwitch
		case "firewall":
			return domain.NodeTypeFirewall
		case "access_point", "ap", "wifi":
			return domain.NodeTypeAccessPoint
		case "workstation", "client":
			return domain.NodeTypeClient
		}
	}

	if role, ok := vars["role"].(string); ok {
		roleLower := strings.ToLower(role)
		switch {
		case strings.Contains(roleLower, "router") || strings.Contains(roleLower, "gateway"):
			return domain.NodeTypeRouter
		case strings.Contains(roleLower, "switch"):
			return domain.NodeTypeSwitch
		case strings.Contains(roleLower, "firewall"):
			return domain.NodeTypeFirewall
		}
	}

	groupLower := strings.ToLower(groupName)
	switch {
	case strings.Contains(groupLower, "router") || strings.Contains(groupLower, "network"):
		return domain.NodeTypeRouter
	case strings.Contains(groupLower, "switch"):
		return domain.NodeTypeSwitch
	case strings.Contains(groupLower, "firewall"):
		return domain.NodeTypeFirewall
	case strings.Contains(groupLower, "wifi") || strings.Contains(groupLower, "wireless"):
		return domain.NodeTypeAccessPoint
	case strings.Contains(groupLower, "desktop") || strings.Contains(groupLower, "workstation"):
		return domain.NodeTypeClient
	}

	return domain.NodeTypeServer
}

// Export exports a topology to Ansible inventory format. Links are not
// representable and are dropped.
func (c *AnsibleCodec) Export(topo *domain.Topology, w io.Writer) error {
	inv := ansibleInventory{
		All: ansibleGroup{
			Children: make(map[string]ansibleGroupDef),
		},
	}

	for _, node := range topo.Nodes {
		groupName := node.GetMetadataString("group")
		if groupName == "" || groupName == "all" {
			groupName = string(node.Type) + "s"
		}

		group, ok := inv.All.Children[groupName]
		if !ok {
			group = ansibleGroupDef{Hosts: make(map[string]ansibleHost)}
		}

		host := ansibleHost{
			AnsibleHost: node.GetMetadataString("ip"),
			Vars:        make(map[string]any),
		}
		for key, value := range node.Metadata {
			if key != "ip" && key != "group" {
				host.Vars[key] = value
			}
		}
		host.Vars["device_type"] = string(node.Type)
		if node.Severity != "" && node.Severity != domain.SeverityUnknown {
			host.Vars["severity"] = string(node.Severity)
		}

		group.Hosts[node.ID] = host
		inv.All.Children[groupName] = group
	}

	encoder := yaml.NewEncoder(w)
	encoder.SetIndent(2)
	defer encoder.Close()

	if err := encoder.Encode(&inv); err != nil {
		return fmt.Errorf("failed to encode Ansible inventory: %w", err)
	}

	return nil
}
