// Package resolver extracts the originating client IP from proxy
// headers. It trusts upstream infrastructure to scrub these headers;
// that trust boundary is made explicit (and overridable) through a
// TrustPolicy instead of being baked in.
package resolver

import (
	"net"
	"net/http"
	"strings"
)

// Header names consulted, in order of trustworthiness. The CDN header
// wins because the CDN terminates the connection closest to the client.
const (
	headerCFConnectingIP = "CF-Connecting-IP"
	headerXForwardedFor  = "X-Forwarded-For"
	headerXRealIP        = "X-Real-IP"
)

// TrustPolicy decides whether forwarding headers from this request may
// be honored at all. When it returns false the resolver ignores every
// header and reports no client IP.
type TrustPolicy func(r *http.Request) bool

// TrustAll honors forwarding headers unconditionally. Correct only when
// the service is reachable exclusively through a proxy layer that strips
// client-supplied forwarding headers.
func TrustAll(*http.Request) bool { return true }

// TrustProxyCIDRs honors forwarding headers only when the direct peer
// sits inside one of the given ranges. Invalid ranges are dropped.
func TrustProxyCIDRs(cidrs []string) TrustPolicy {
	networks := make([]*net.IPNet, 0, len(cidrs))
	for _, cidr := range cidrs {
		if _, network, err := net.ParseCIDR(cidr); err == nil {
			networks = append(networks, network)
		}
	}
	return func(r *http.Request) bool {
		peer := net.ParseIP(RemoteIP(r))
		if peer == nil {
			return false
		}
		for _, network := range networks {
			if network.Contains(peer) {
				return true
			}
		}
		return false
	}
}

// Resolver resolves the best-effort originating client IP for a request.
type Resolver struct {
	trust TrustPolicy
}

// New builds a Resolver. A nil policy defaults to TrustAll, matching the
// reference deployment behind a controlled reverse proxy.
func New(trust TrustPolicy) *Resolver {
	if trust == nil {
		trust = TrustAll
	}
	return &Resolver{trust: trust}
}

// ClientIP returns the originating client IP taken from the request's
// forwarding headers, or ok=false when none is present or the trust
// policy rejects the request. It deliberately does not fall back to the
// transport peer address: the gate treats "no forwarded IP" as
// undeterminable, not as "the proxy itself is the client".
func (rv *Resolver) ClientIP(r *http.Request) (string, bool) {
	if !rv.trust(r) {
		return "", false
	}
	if ip := strings.TrimSpace(r.Header.Get(headerCFConnectingIP)); ip != "" {
		return ip, true
	}
	if xff := r.Header.Get(headerXForwardedFor); xff != "" {
		// First entry is the original client; the rest are proxies.
		first := xff
		if idx := strings.IndexByte(xff, ','); idx >= 0 {
			first = xff[:idx]
		}
		if ip := strings.TrimSpace(first); ip != "" {
			return ip, true
		}
	}
	if ip := strings.TrimSpace(r.Header.Get(headerXRealIP)); ip != "" {
		return ip, true
	}
	return "", false
}

// RemoteIP strips the port from the request's transport peer address.
// Used for rate-limit keying, where an approximate identity beats none.
func RemoteIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
