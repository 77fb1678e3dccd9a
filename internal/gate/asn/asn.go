// Package asn resolves an IP address to its autonomous system number.
// Resolution is best effort: every failure mode collapses to "ASN
// unknown", which the evaluator treats as a skipped category rather
// than a denial.
package asn

import "context"

// Lookup resolves the autonomous system number for an IP. ok=false
// means the ASN could not be determined; it never means "disallowed".
type Lookup interface {
	Lookup(ctx context.Context, ip string) (asn int, ok bool)
}

// LookupFunc adapts a function to the Lookup interface.
type LookupFunc func(ctx context.Context, ip string) (int, bool)

// Lookup implements the Lookup interface.
func (f LookupFunc) Lookup(ctx context.Context, ip string) (int, bool) {
	return f(ctx, ip)
}
