package middleware

import (
	"log/slog"
	"net"
	"net/http"
	"strings"
)

// TrustedRealIP substitutes the client address reported by a reverse proxy
// for the connection address, but only when the connection itself comes from
// one of the configured proxy networks. The per-IP rate limiter and the
// request log key on RemoteAddr, so requests arriving from anywhere else
// keep their socket address and cannot spoof it through headers.
//
// Entries may be CIDRs or bare IPs; unparseable entries are logged and
// skipped at startup.
func TrustedRealIP(proxies []string) func(http.Handler) http.Handler {
	nets := parseProxyNets(proxies)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			conn := remoteIP(r.RemoteAddr)
			if conn != nil && nets.contains(conn) {
				if client := clientFromHeaders(r.Header); client != nil {
					r.RemoteAddr = client.String()
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

type proxyNets []*net.IPNet

func parseProxyNets(entries []string) proxyNets {
	var nets proxyNets
	for _, entry := range entries {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		if _, network, err := net.ParseCIDR(entry); err == nil {
			nets = append(nets, network)
			continue
		}
		// A bare IP counts as a single-host network.
		if ip := net.ParseIP(entry); ip != nil {
			bits := 128
			if ip.To4() != nil {
				bits = 32
			}
			nets = append(nets, &net.IPNet{IP: ip, Mask: net.CIDRMask(bits, bits)})
			continue
		}
		slog.Warn("ignoring invalid trusted proxy entry", "entry", entry)
	}
	return nets
}

func (p proxyNets) contains(ip net.IP) bool {
	for _, n := range p {
		if n.Contains(ip) {
			return true
		}
	}
	return false
}

// clientFromHeaders reads the originating client IP a proxy recorded:
// X-Real-IP when present, otherwise the first hop of the X-Forwarded-For
// chain. Values that do not parse as IPs are ignored.
func clientFromHeaders(h http.Header) net.IP {
	if v := h.Get("X-Real-IP"); v != "" {
		if ip := net.ParseIP(strings.TrimSpace(v)); ip != nil {
			return ip
		}
	}
	if v := h.Get("X-Forwarded-For"); v != "" {
		first, _, _ := strings.Cut(v, ",")
		if ip := net.ParseIP(strings.TrimSpace(first)); ip != nil {
			return ip
		}
	}
	return nil
}

// remoteIP parses RemoteAddr, which is host:port on live connections but may
// already be a bare IP after a rewrite.
func remoteIP(addr string) net.IP {
	if host, _, err := net.SplitHostPort(addr); err == nil {
		return net.ParseIP(host)
	}
	return net.ParseIP(addr)
}
