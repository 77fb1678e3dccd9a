package allowlist

import "strconv"

// NormalizeASN parses an autonomous system number from the loose formats
// admins paste into settings: "AS15169", "as15169", "15169", " 15169 ".
// Every non-digit character is discarded before parsing; values with no
// digits at all are rejected.
func NormalizeASN(raw string) (int, bool) {
	digits := make([]byte, 0, len(raw))
	for i := 0; i < len(raw); i++ {
		if raw[i] >= '0' && raw[i] <= '9' {
			digits = append(digits, raw[i])
		}
	}
	if len(digits) == 0 {
		return 0, false
	}
	asn, err := strconv.Atoi(string(digits))
	if err != nil || asn < 0 {
		return 0, false
	}
	return asn, true
}

// NormalizeASNs maps NormalizeASN over a list, silently dropping entries
// that do not carry a number. A bad entry must not poison its neighbours.
func NormalizeASNs(raw []string) []int {
	out := make([]int, 0, len(raw))
	for _, r := range raw {
		if asn, ok := NormalizeASN(r); ok {
			out = append(out, asn)
		}
	}
	return out
}
