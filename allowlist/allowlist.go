// Package allowlist implements the caller-side bypass check: hosts on
// the list never reach the greylisting engine at all.
package allowlist

import (
	"net"
	"strings"
)

// Match reports whether addr matches the configured allow list. Entries
// are plain addresses or CIDR ranges; whitespace around an entry is
// ignored.
func Match(list []string, addr string) bool {
	ip := net.ParseIP(addr)
	for _, entry := range list {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		if entry == addr {
			return true
		}
		if ip == nil || !strings.Contains(entry, "/") {
			continue
		}
		if _, ipnet, err := net.ParseCIDR(entry); err == nil && ipnet.Contains(ip) {
			return true
		}
	}
	return false
}
