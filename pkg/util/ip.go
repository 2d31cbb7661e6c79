package util

import (
	"fmt"
	"net"
	"strconv"
	"strings"
)

// IsValidIPv4 checks if a string is a valid IPv4 address
func IsValidIPv4(ipStr string) bool {
	ip := net.ParseIP(ipStr)
	return ip != nil && ip.To4() != nil
}

// IsValidIPv4CIDR checks if a string is a valid IPv4 CIDR notation
func IsValidIPv4CIDR(cidr string) bool {
	_, _, err := net.ParseCIDR(cidr)
	if err != nil {
		return false
	}
	parts := strings.Split(cidr, "/")
	ip := net.ParseIP(parts[0])
	return ip != nil && ip.To4() != nil
}

// SplitIPMask splits a CIDR notation into IP and mask length.
// Returns the IP (without mask) and mask length; mask length 0 when absent.
func SplitIPMask(cidr string) (string, int) {
	parts := strings.Split(cidr, "/")
	if len(parts) != 2 {
		return cidr, 0
	}
	maskLen, err := strconv.Atoi(parts[1])
	if err != nil {
		return parts[0], 0
	}
	return parts[0], maskLen
}

// DottedMask converts a prefix length to dotted-decimal notation,
// e.g. 24 → "255.255.255.0". VRP interface commands take dotted masks.
func DottedMask(prefixLen int) (string, error) {
	if prefixLen < 0 || prefixLen > 32 {
		return "", fmt.Errorf("prefix length must be between 0 and 32, got %d", prefixLen)
	}
	mask := net.CIDRMask(prefixLen, 32)
	return net.IP(mask).String(), nil
}

// DefaultGatewayFor derives the conventional .1 gateway for an address,
// e.g. "192.168.10.7" → "192.168.10.1". Returns empty string for non-IPv4.
func DefaultGatewayFor(ipStr string) string {
	ip := net.ParseIP(ipStr)
	if ip == nil {
		return ""
	}
	ip = ip.To4()
	if ip == nil {
		return ""
	}
	return fmt.Sprintf("%d.%d.%d.1", ip[0], ip[1], ip[2])
}

// NetworkAndWildcard converts CIDR notation to the network address and
// wildcard mask pair used by OSPF network statements,
// e.g. "10.1.2.3/24" → ("10.1.2.0", "0.0.0.255").
func NetworkAndWildcard(cidr string) (string, string, error) {
	ip, ipNet, err := net.ParseCIDR(cidr)
	if err != nil || ip.To4() == nil {
		return "", "", fmt.Errorf("invalid IPv4 CIDR notation: %s", cidr)
	}
	wildcard := make(net.IP, 4)
	for i := 0; i < 4; i++ {
		wildcard[i] = ^ipNet.Mask[i]
	}
	return ipNet.IP.String(), wildcard.String(), nil
}

// ValidateVLANID checks that a VLAN id is within the usable range.
func ValidateVLANID(id int) error {
	if id < 1 || id > 4094 {
		return fmt.Errorf("VLAN id must be between 1 and 4094, got %d", id)
	}
	return nil
}
