// Package models defines the data shapes shared by the office-network
// admission gate: the allowlist configuration, its explicit restriction
// state, and the office geo-fence.
package models

// WildcardSentinel in the exact-IP list disables the gate entirely:
// every caller is admitted and no other category is evaluated.
const WildcardSentinel = "*"

// ConfigState distinguishes "no network settings exist at all" from
// "settings exist but may be empty". The two cases behave differently:
// an Unrestricted gate admits everyone, a Restricted gate with no
// matchable entries admits no one.
type ConfigState int

const (
	// Unrestricted means no network restriction rows were found in the
	// settings store. The gate is open.
	Unrestricted ConfigState = iota
	// Restricted means at least one network restriction row exists and
	// the allowlist is evaluated strictly.
	Restricted
)

// NetworkAllowlist is the in-memory shape of the office network
// restrictions. It is rebuilt from the settings store on every cache miss
// and never mutated after construction.
type NetworkAllowlist struct {
	State    ConfigState
	ExactIPs []string
	CIDRs    []string
	ASNs     []int
}

// Wildcard reports whether the exact-IP list carries the wildcard
// sentinel.
func (a NetworkAllowlist) Wildcard() bool {
	for _, ip := range a.ExactIPs {
		if ip == WildcardSentinel {
			return true
		}
	}
	return false
}

// ASNRestricted reports whether an ASN check is configured, i.e. whether
// an ASN lookup is worth paying for at all.
func (a NetworkAllowlist) ASNRestricted() bool {
	return len(a.ASNs) > 0
}

// GeoFence is the office coordinate and radius served to the browser for
// the client-side distance check. It is advisory: the server never uses
// it as an admission criterion.
type GeoFence struct {
	Latitude     float64 `json:"latitude"`
	Longitude    float64 `json:"longitude"`
	RadiusMeters float64 `json:"radius_meters"`
	Enabled      bool    `json:"enabled"`
}

// OfficeSettings is one consistent snapshot of everything the gate reads
// from the settings store.
type OfficeSettings struct {
	Allowlist NetworkAllowlist
	GeoFence  GeoFence
}
