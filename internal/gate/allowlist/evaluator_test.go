package allowlist

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nameha1/synergyhr/internal/gate/models"
)

func restricted(exact []string, cidrs []string, asns []int) models.NetworkAllowlist {
	return models.NetworkAllowlist{
		State:    models.Restricted,
		ExactIPs: exact,
		CIDRs:    cidrs,
		ASNs:     asns,
	}
}

func TestCIDRContains(t *testing.T) {
	tests := []struct {
		name string
		cidr string
		ip   string
		want bool
	}{
		{"inside /24", "203.0.113.0/24", "203.0.113.42", true},
		{"outside /24", "203.0.113.0/24", "203.0.114.1", false},
		{"first address", "10.0.0.0/8", "10.0.0.0", true},
		{"last address", "10.0.0.0/8", "10.255.255.255", true},
		{"just outside /8", "10.0.0.0/8", "11.0.0.0", false},
		{"zero prefix matches anything", "0.0.0.0/0", "198.51.100.7", true},
		{"zero prefix with nonzero base", "192.168.1.1/0", "8.8.8.8", true},
		{"full prefix exact match", "192.168.1.1/32", "192.168.1.1", true},
		{"full prefix mismatch", "192.168.1.1/32", "192.168.1.2", false},
		{"odd boundary /30", "198.51.100.4/30", "198.51.100.7", true},
		{"odd boundary /30 out", "198.51.100.4/30", "198.51.100.8", false},
		{"malformed range", "not-a-range", "10.0.0.1", false},
		{"missing prefix", "10.0.0.0", "10.0.0.1", false},
		{"prefix out of bounds", "10.0.0.0/33", "10.0.0.1", false},
		{"negative prefix", "10.0.0.0/-1", "10.0.0.1", false},
		{"malformed ip", "10.0.0.0/8", "10.0.0", false},
		{"octet out of range", "10.0.0.0/8", "10.0.0.999", false},
		{"empty ip", "10.0.0.0/8", "", false},
		{"signed octet in ip", "10.0.0.0/8", "1.+2.3.4", false},
		{"signed octet in base", "1.+2.3.4/8", "1.0.0.1", false},
		{"signed prefix", "10.0.0.0/+8", "10.0.0.1", false},
		{"hex octet", "10.0.0.0/8", "0x0a.0.0.1", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CIDRContains(tt.cidr, tt.ip))
		})
	}
}

func TestNormalizeASN(t *testing.T) {
	tests := []struct {
		in   string
		want int
		ok   bool
	}{
		{"AS15169", 15169, true},
		{"as15169", 15169, true},
		{"15169", 15169, true},
		{" 15169 ", 15169, true},
		{"ASxyz", 0, false},
		{"", 0, false},
		{"AS", 0, false},
		{"13335", 13335, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := NormalizeASN(tt.in)
			require.Equal(t, tt.ok, ok)
			if ok {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestNormalizeASNsDropsBadEntries(t *testing.T) {
	got := NormalizeASNs([]string{"AS15169", "junk", "13335", ""})
	assert.Equal(t, []int{15169, 13335}, got)
}

func TestEvaluateWildcard(t *testing.T) {
	list := restricted([]string{"*"}, []string{"203.0.113.0/24"}, []int{15169})

	// The sentinel admits everyone regardless of the other categories
	// and regardless of how implausible the inputs are.
	assert.True(t, Evaluate("8.8.8.8", 0, false, list))
	assert.True(t, Evaluate("", 0, false, list))
	assert.True(t, Evaluate("not-an-ip", 99999, true, list))
}

func TestEvaluateUnrestricted(t *testing.T) {
	list := models.NetworkAllowlist{State: models.Unrestricted}
	assert.True(t, Evaluate("8.8.8.8", 0, false, list))
}

// A settings row that exists but carries no usable entries denies
// everyone. This pins the resolution of the reference system's
// absent-vs-empty ambiguity.
func TestEvaluateRestrictedButEmptyDenies(t *testing.T) {
	list := restricted(nil, nil, nil)
	assert.False(t, Evaluate("203.0.113.42", 15169, true, list))
}

func TestEvaluateCategories(t *testing.T) {
	tests := []struct {
		name  string
		list  models.NetworkAllowlist
		ip    string
		asn   int
		asnOK bool
		want  bool
	}{
		{
			name: "cidr only, inside",
			list: restricted(nil, []string{"203.0.113.0/24"}, nil),
			ip:   "203.0.113.42",
			want: true,
		},
		{
			name: "cidr only, outside",
			list: restricted(nil, []string{"203.0.113.0/24"}, nil),
			ip:   "203.0.114.1",
			want: false,
		},
		{
			name: "exact match",
			list: restricted([]string{"198.51.100.7"}, nil, nil),
			ip:   "198.51.100.7",
			want: true,
		},
		{
			name:  "asn match alone suffices",
			list:  restricted([]string{"198.51.100.7"}, []string{"203.0.113.0/24"}, []int{15169}),
			ip:    "8.8.8.8",
			asn:   15169,
			asnOK: true,
			want:  true,
		},
		{
			name:  "asn configured but lookup unavailable, cidr rescues",
			list:  restricted(nil, []string{"203.0.113.0/24"}, []int{15169}),
			ip:    "203.0.113.9",
			asnOK: false,
			want:  true,
		},
		{
			name:  "asn configured but lookup unavailable, nothing else matches",
			list:  restricted(nil, []string{"203.0.113.0/24"}, []int{15169}),
			ip:    "192.0.2.1",
			asnOK: false,
			want:  false,
		},
		{
			name:  "asn mismatch",
			list:  restricted(nil, nil, []int{15169}),
			ip:    "8.8.8.8",
			asn:   13335,
			asnOK: true,
			want:  false,
		},
		{
			name: "malformed cidr does not abort later entries",
			list: restricted(nil, []string{"garbage", "203.0.113.0/24"}, nil),
			ip:   "203.0.113.42",
			want: true,
		},
		{
			name: "empty ip never matches",
			list: restricted([]string{""}, []string{"0.0.0.0/0"}, nil),
			ip:   "",
			want: false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Evaluate(tt.ip, tt.asn, tt.asnOK, tt.list))
		})
	}
}
