package adapter

import (
	"fmt"
	"net"
	"os"
	"strings"
)

// virtualPrefixes name interfaces created by container runtimes; scanning
// them only finds the host's own containers
var virtualPrefixes = []string{"veth", "docker", "br-", "cni", "flannel"}

// LocalSubnets returns the private IPv4 subnets of the host's active,
// non-virtual interfaces, suitable as scan targets
func LocalSubnets() ([]string, error) {
	ifaces, err := net.Interfaces()
	if err != nil {
		return nil, fmt.Errorf("list interfaces: %w", err)
	}

	var subnets []string
	seen := make(map[string]bool)
	for _, iface := range ifaces {
		if iface.Flags&net.FlagLoopback != 0 || iface.Flags&net.FlagUp == 0 || isVirtual(iface.Name) {
			continue
		}
		addrs, err := iface.Addrs()
		if err != nil {
			continue
		}
		for _, addr := range addrs {
			ipnet, ok := addr.(*net.IPNet)
			if !ok {
				continue
			}
			if subnet := privateSubnet(ipnet); subnet != "" && !seen[subnet] {
				seen[subnet] = true
				subnets = append(subnets, subnet)
			}
		}
	}
	return subnets, nil
}

// DefaultGateway reads the default route from /proc/net/route, "" when the
// table is unavailable or has no default route
func DefaultGateway() string {
	data, err := os.ReadFile("/proc/net/route")
	if err != nil {
		return ""
	}
	return parseRouteTable(string(data))
}

// parseRouteTable extracts the gateway of the default route (destination
// 00000000) from a Linux route table. Addresses are little-endian hex.
func parseRouteTable(table string) string {
	lines := strings.Split(table, "\n")
	if len(lines) < 2 {
		return ""
	}
	for _, line := range lines[1:] {
		fields := strings.Fields(line)
		if len(fields) < 3 || fields[1] != "00000000" || len(fields[2]) != 8 {
			continue
		}
		var b1, b2, b3, b4 uint8
		if _, err := fmt.Sscanf(fields[2], "%02x%02x%02x%02x", &b4, &b3, &b2, &b1); err != nil {
			continue
		}
		return fmt.Sprintf("%d.%d.%d.%d", b1, b2, b3, b4)
	}
	return ""
}

// privateSubnet returns the network of an RFC1918 IPv4 address in CIDR form.
// Networks wider than /16 are narrowed to the /24 around the address.
func privateSubnet(ipnet *net.IPNet) string {
	ip4 := ipnet.IP.To4()
	if ip4 == nil || !ip4.IsPrivate() {
		return ""
	}
	ones, bits := ipnet.Mask.Size()
	if bits != 32 {
		return ""
	}
	if ones < 16 {
		ones = 24
	}
	mask := net.CIDRMask(ones, 32)
	return fmt.Sprintf("%s/%d", ip4.Mask(mask), ones)
}

func isVirtual(name string) bool {
	for _, prefix := range virtualPrefixes {
		if strings.HasPrefix(name, prefix) {
			return true
		}
	}
	return false
}
