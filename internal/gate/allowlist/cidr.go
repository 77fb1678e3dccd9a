package allowlist

import (
	"strings"
)

// parseIPv4 converts a dotted-quad address into its 32-bit integer form.
// Anything that is not exactly four in-range octets of plain decimal
// digits fails, including signed or hex octets.
func parseIPv4(s string) (uint32, bool) {
	parts := strings.Split(strings.TrimSpace(s), ".")
	if len(parts) != 4 {
		return 0, false
	}
	var addr uint32
	for _, part := range parts {
		octet, ok := parseDecimal(part, 255)
		if !ok {
			return 0, false
		}
		addr = addr<<8 | uint32(octet)
	}
	return addr, true
}

// parseDecimal parses an unsigned decimal of at most three digits,
// capped at max. Unlike strconv it does not accept a leading sign.
func parseDecimal(s string, max int) (int, bool) {
	if s == "" || len(s) > 3 {
		return 0, false
	}
	n := 0
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c < '0' || c > '9' {
			return 0, false
		}
		n = n*10 + int(c-'0')
	}
	if n > max {
		return 0, false
	}
	return n, true
}

// CIDRContains reports whether ip falls inside the IPv4 range cidr
// ("a.b.c.d/n"). A /0 prefix matches every address, /32 only exact
// equality. Malformed input of any kind fails closed.
func CIDRContains(cidr, ip string) bool {
	base, prefix, ok := splitCIDR(cidr)
	if !ok {
		return false
	}
	addr, ok := parseIPv4(ip)
	if !ok {
		return false
	}
	// A shift count equal to the width yields zero, so /0 produces an
	// all-zero mask and matches everything.
	mask := ^uint32(0) << (32 - uint32(prefix))
	return base&mask == addr&mask
}

func splitCIDR(cidr string) (base uint32, prefix int, ok bool) {
	slash := strings.IndexByte(cidr, '/')
	if slash < 0 {
		return 0, 0, false
	}
	base, okAddr := parseIPv4(cidr[:slash])
	if !okAddr {
		return 0, 0, false
	}
	prefix, okPrefix := parseDecimal(strings.TrimSpace(cidr[slash+1:]), 32)
	if !okPrefix {
		return 0, 0, false
	}
	return base, prefix, true
}
