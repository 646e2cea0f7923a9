package apihttp

import (
	"fmt"
	"net"
	"net/http"
	"net/netip"
	"strings"
)

// proxySet holds the reverse proxies allowed to set X-Forwarded-For and
// X-Real-IP. An empty set ignores both headers.
type proxySet []netip.Prefix

func parseProxies(values []string) (proxySet, error) {
	var set proxySet
	for _, raw := range values {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		if strings.Contains(raw, "/") {
			prefix, err := netip.ParsePrefix(raw)
			if err != nil {
				return nil, fmt.Errorf("api handler: trusted proxy %q: %w", raw, err)
			}
			set = append(set, prefix.Masked())
			continue
		}
		addr, err := netip.ParseAddr(raw)
		if err != nil {
			return nil, fmt.Errorf("api handler: trusted proxy %q: %w", raw, err)
		}
		set = append(set, netip.PrefixFrom(addr.Unmap(), addr.Unmap().BitLen()))
	}
	return set, nil
}

func (s proxySet) trusted(ip string) bool {
	addr, err := netip.ParseAddr(strings.TrimSpace(ip))
	if err != nil {
		return false
	}
	addr = addr.Unmap()
	for _, prefix := range s {
		if prefix.Contains(addr) {
			return true
		}
	}
	return false
}

// clientIP returns the address recorded in audit entries. Forwarding headers
// count only when the direct peer is a trusted proxy; X-Forwarded-For is read
// right to left and the first hop outside the trusted set wins.
func (s proxySet) clientIP(r *http.Request) string {
	if r == nil {
		return ""
	}
	peer := r.RemoteAddr
	if host, _, err := net.SplitHostPort(peer); err == nil {
		peer = host
	}
	if len(s) == 0 || !s.trusted(peer) {
		return peer
	}
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		hops := strings.Split(forwarded, ",")
		for i := len(hops) - 1; i >= 0; i-- {
			hop := strings.TrimSpace(hops[i])
			if hop != "" && !s.trusted(hop) {
				return hop
			}
		}
		if first := strings.TrimSpace(hops[0]); first != "" {
			return first
		}
	}
	if realIP := strings.TrimSpace(r.Header.Get("X-Real-IP")); realIP != "" {
		return realIP
	}
	return peer
}
