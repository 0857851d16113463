package utils

import (
	"net"
	"net/http"
	"net/netip"
	"strings"
)

// parseAddr accepts "ip", "ip:port" and "[v6]:port". IPv4-mapped IPv6
// addresses are unmapped so they match IPv4 prefixes.
func parseAddr(s string) (netip.Addr, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return netip.Addr{}, false
	}
	if h, _, err := net.SplitHostPort(s); err == nil {
		s = h
	}
	addr, err := netip.ParseAddr(s)
	if err != nil {
		return netip.Addr{}, false
	}
	return addr.Unmap(), true
}

// ClientIP resolves the client address. Behind a trusted proxy the
// left-most X-Forwarded-For entry wins, then X-Real-IP; otherwise only
// RemoteAddr counts. The result is invalid when nothing parses.
func ClientIP(r *http.Request, trustProxy bool) netip.Addr {
	if trustProxy {
		xff, _, _ := strings.Cut(r.Header.Get("X-Forwarded-For"), ",")
		if addr, ok := parseAddr(xff); ok {
			return addr
		}
		if addr, ok := parseAddr(r.Header.Get("X-Real-IP")); ok {
			return addr
		}
	}
	addr, _ := parseAddr(r.RemoteAddr)
	return addr
}

// AddrMatcher matches addresses against a list of prefixes. A bare
// address in the list is a single-address prefix.
type AddrMatcher struct {
	prefixes []netip.Prefix
}

// NewAddrMatcher parses list and returns the entries it could not read.
func NewAddrMatcher(list []string) (*AddrMatcher, []string) {
	m := &AddrMatcher{}
	var rejected []string
	for _, raw := range list {
		s := strings.TrimSpace(raw)
		if s == "" {
			continue
		}
		if p, err := netip.ParsePrefix(s); err == nil {
			m.prefixes = append(m.prefixes, p.Masked())
			continue
		}
		if addr, ok := parseAddr(s); ok {
			m.prefixes = append(m.prefixes, netip.PrefixFrom(addr, addr.BitLen()))
			continue
		}
		rejected = append(rejected, s)
	}
	return m, rejected
}

func (m *AddrMatcher) IsEmpty() bool { return len(m.prefixes) == 0 }

// Allow reports whether addr falls in any prefix.
func (m *AddrMatcher) Allow(addr netip.Addr) bool {
	if !addr.IsValid() {
		return false
	}
	for _, p := range m.prefixes {
		if p.Contains(addr) {
			return true
		}
	}
	return false
}
