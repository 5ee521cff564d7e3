package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"net/netip"
	"strings"
)

type clientIPKey struct{}

// Proxies is the set of networks whose forwarding headers are believed.
type Proxies []netip.Prefix

// ParseProxies parses CIDRs and bare addresses ("10.0.0.0/8", "127.0.0.1").
// Entries that parse as neither are returned in invalid.
func ParseProxies(entries []string) (proxies Proxies, invalid []string) {
	for _, e := range entries {
		e = strings.TrimSpace(e)
		if e == "" {
			continue
		}
		if p, err := netip.ParsePrefix(e); err == nil {
			proxies = append(proxies, p.Masked())
			continue
		}
		if a, err := netip.ParseAddr(e); err == nil {
			a = a.Unmap()
			proxies = append(proxies, netip.PrefixFrom(a, a.BitLen()))
			continue
		}
		invalid = append(invalid, e)
	}
	return proxies, invalid
}

// Contains reports whether addr belongs to a trusted proxy.
func (p Proxies) Contains(addr netip.Addr) bool {
	if !addr.IsValid() {
		return false
	}
	addr = addr.Unmap()
	for _, prefix := range p {
		if prefix.Contains(addr) {
			return true
		}
	}
	return false
}

// resolve returns the client address of r. Headers are read only when the
// connection comes from a trusted proxy. X-Real-IP wins; otherwise the
// X-Forwarded-For chain is walked from the right and the first hop that is
// not itself a trusted proxy is the client.
func (p Proxies) resolve(r *http.Request) netip.Addr {
	remote := parseHost(r.RemoteAddr)
	if !p.Contains(remote) {
		return remote
	}

	if a, err := netip.ParseAddr(strings.TrimSpace(r.Header.Get("X-Real-IP"))); err == nil {
		return a.Unmap()
	}

	hops := strings.Split(r.Header.Get("X-Forwarded-For"), ",")
	for i := len(hops) - 1; i >= 0; i-- {
		a, err := netip.ParseAddr(strings.TrimSpace(hops[i]))
		if err != nil {
			break
		}
		a = a.Unmap()
		if !p.Contains(a) {
			return a
		}
	}
	return remote
}

// TrustedRealIP stores the client address of each request for ClientIP.
// Forwarding headers from connections outside trustedCIDRs are ignored, so
// clients cannot choose their own rate-limit key or logged address.
func TrustedRealIP(trustedCIDRs []string) func(http.Handler) http.Handler {
	proxies, invalid := ParseProxies(trustedCIDRs)
	for _, e := range invalid {
		slog.Warn("realip: invalid trusted proxy, skipping", "entry", e)
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if a := proxies.resolve(r); a.IsValid() {
				r = r.WithContext(context.WithValue(r.Context(), clientIPKey{}, a))
			}
			next.ServeHTTP(w, r)
		})
	}
}

// ClientIP returns the address TrustedRealIP resolved for r, or the host
// part of RemoteAddr when the middleware did not run.
func ClientIP(r *http.Request) string {
	if a, ok := r.Context().Value(clientIPKey{}).(netip.Addr); ok {
		return a.String()
	}
	if a := parseHost(r.RemoteAddr); a.IsValid() {
		return a.String()
	}
	return r.RemoteAddr
}

// parseHost parses "host:port" or a bare address.
func parseHost(addr string) netip.Addr {
	if ap, err := netip.ParseAddrPort(addr); err == nil {
		return ap.Addr().Unmap()
	}
	a, err := netip.ParseAddr(addr)
	if err != nil {
		return netip.Addr{}
	}
	return a.Unmap()
}
