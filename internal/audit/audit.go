// Package audit records admission-gate decisions for after-the-fact
// review. Denial reasons never leave the server in HTTP responses; this
// trail, together with the logs, is where they live. Recording is
// strictly best effort: a broken audit sink must never fail a request.
package audit

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Outcome of a gate decision.
type Outcome string

const (
	OutcomeAllowed Outcome = "allowed"
	OutcomeDenied  Outcome = "denied"
)

// Event is one recorded gate decision. The client IP is stored masked
// to its /24 so the trail never persists a full address.
type Event struct {
	ID       uuid.UUID
	Time     time.Time
	Endpoint string
	Outcome  Outcome
	Reason   string
	IPPrefix string
	ASN      int
}

// Recorder accepts gate decision events.
type Recorder interface {
	Record(ctx context.Context, event Event)
}

// Nop discards every event. Used when no audit sink is configured.
type Nop struct{}

// Record implements Recorder.
func (Nop) Record(context.Context, Event) {}

// MaskIP reduces an IPv4 address to its /24 prefix ("203.0.113.42" →
// "203.0.113.0/24"). Values that don't look like a dotted quad come
// back as "unknown" rather than being stored verbatim.
func MaskIP(ip string) string {
	parts := strings.Split(ip, ".")
	if len(parts) != 4 {
		return "unknown"
	}
	return strings.Join(parts[:3], ".") + ".0/24"
}

// NewEvent fills in the identity and masking boilerplate for a decision
// event.
func NewEvent(endpoint string, outcome Outcome, reason, ip string, asn int) Event {
	return Event{
		ID:       uuid.New(),
		Time:     time.Now().UTC(),
		Endpoint: endpoint,
		Outcome:  outcome,
		Reason:   reason,
		IPPrefix: MaskIP(ip),
		ASN:      asn,
	}
}
