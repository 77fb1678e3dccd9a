package asn

import (
	"context"
	"log/slog"
	"sync/atomic"

	"github.com/nameha1/synergyhr/pkg/platform/circuit"
)

// probeInterval is how often an open breaker lets a call through to
// test whether the upstream has recovered.
const probeInterval = 10

// BreakerLookup wraps a Lookup with a circuit breaker. When the
// upstream keeps failing, admission checks stop paying its timeout and
// treat the ASN as unknown until it recovers.
type BreakerLookup struct {
	inner   Lookup
	breaker *circuit.Breaker
	logger  *slog.Logger
	calls   atomic.Uint64
}

// NewBreakerLookup wraps inner with a breaker.
func NewBreakerLookup(inner Lookup, logger *slog.Logger, opts ...circuit.Option) *BreakerLookup {
	return &BreakerLookup{
		inner:   inner,
		breaker: circuit.New("asn-lookup", opts...),
		logger:  logger,
	}
}

// Lookup resolves the ASN through the wrapped source. While the
// breaker is open only every probeInterval-th call goes through.
func (l *BreakerLookup) Lookup(ctx context.Context, ip string) (int, bool) {
	if l.breaker.IsOpen() && l.calls.Add(1)%probeInterval != 0 {
		return 0, false
	}

	number, ok := l.inner.Lookup(ctx, ip)
	if !ok {
		if _, change := l.breaker.RecordFailure(); change.Opened {
			l.logger.Warn("asn lookup circuit opened")
		}
		return 0, false
	}
	if _, change := l.breaker.RecordSuccess(); change.Closed {
		l.logger.Info("asn lookup circuit closed")
	}
	return number, true
}
