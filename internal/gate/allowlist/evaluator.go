// Package allowlist decides whether a client network location satisfies
// the configured office restrictions. The decision is a pure function of
// its inputs; all I/O (settings, ASN lookup) happens in the caller.
package allowlist

import (
	"github.com/nameha1/synergyhr/internal/gate/models"
)

// Evaluate reports whether the given client passes the office network
// allowlist.
//
// The wildcard sentinel admits everyone and short-circuits every other
// check. An Unrestricted allowlist (no settings rows at all) also admits
// everyone. Otherwise the exact-IP, CIDR, and ASN categories are
// evaluated independently and the client passes when at least one
// configured category matches. A Restricted allowlist with no matchable
// entries admits no one.
//
// asnOK marks the asn argument as meaningful; a failed or skipped lookup
// passes false and leaves the ASN category unmatched without affecting
// the others.
func Evaluate(ip string, asn int, asnOK bool, list models.NetworkAllowlist) bool {
	if list.Wildcard() {
		return true
	}
	if list.State == models.Unrestricted {
		return true
	}
	if ip == "" {
		return false
	}

	if matchExact(ip, list.ExactIPs) {
		return true
	}
	if matchCIDR(ip, list.CIDRs) {
		return true
	}
	if asnOK && matchASN(asn, list.ASNs) {
		return true
	}
	return false
}

func matchExact(ip string, exact []string) bool {
	for _, candidate := range exact {
		if candidate == ip {
			return true
		}
	}
	return false
}

func matchCIDR(ip string, cidrs []string) bool {
	for _, cidr := range cidrs {
		// A malformed range is a non-match, never a failure; the
		// remaining ranges still get their chance.
		if CIDRContains(cidr, ip) {
			return true
		}
	}
	return false
}

func matchASN(asn int, asns []int) bool {
	for _, candidate := range asns {
		if candidate == asn {
			return true
		}
	}
	return false
}
