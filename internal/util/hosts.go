package util

import (
	"net"
	"strings"
)

// NormalizeHost trims whitespace and the square brackets that commonly wrap
// IPv6 literals in inventory files ("[::1]" -> "::1").
func NormalizeHost(host string) string {
	host = strings.TrimSpace(host)
	if strings.HasPrefix(host, "[") && strings.HasSuffix(host, "]") {
		host = host[1 : len(host)-1]
	}
	return host
}

// ParseHostIP returns the IP literal for host, or nil if host is not a valid
// IPv4 or IPv6 address. Hostnames are deliberately not resolved.
func ParseHostIP(host string) net.IP {
	return net.ParseIP(NormalizeHost(host))
}
