package shared

import (
	"net"
	"net/http"
	"strings"
)

// ClientIP returns the caller's address, preferring the first X-Forwarded-For
// hop over the socket peer so the value survives reverse proxies.
func ClientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		if first, _, ok := strings.Cut(fwd, ","); ok {
			return strings.TrimSpace(first)
		}
		return strings.TrimSpace(fwd)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
