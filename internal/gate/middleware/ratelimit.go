package middleware

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/nameha1/synergyhr/internal/audit"
	"github.com/nameha1/synergyhr/internal/gate/metrics"
	"github.com/nameha1/synergyhr/internal/gate/resolver"
	"github.com/nameha1/synergyhr/pkg/platform/httputil"
)

// Default per-IP budget for the gate endpoints. The client polls the
// gate at most a few times per check-in attempt, so this is generous.
const (
	DefaultLimit  = 30
	DefaultWindow = time.Minute
)

// KeyFunc derives the rate limit key from a request.
type KeyFunc func(r *http.Request) string

// RateLimiter throttles requests per client IP in front of the gate.
type RateLimiter struct {
	store    Store
	limit    int
	window   time.Duration
	key      KeyFunc
	logger   *slog.Logger
	metrics  *metrics.Metrics
	disabled bool
}

// LimiterOption adjusts a RateLimiter.
type LimiterOption func(*RateLimiter)

// WithLimit overrides the per-window budget.
func WithLimit(limit int, window time.Duration) LimiterOption {
	return func(l *RateLimiter) {
		l.limit = limit
		l.window = window
	}
}

// WithKeyFunc overrides how the limit key is derived.
func WithKeyFunc(key KeyFunc) LimiterOption {
	return func(l *RateLimiter) { l.key = key }
}

// WithLimiterMetrics wires decision counters.
func WithLimiterMetrics(m *metrics.Metrics) LimiterOption {
	return func(l *RateLimiter) { l.metrics = m }
}

// WithDisabled turns the limiter off entirely.
func WithDisabled(disabled bool) LimiterOption {
	return func(l *RateLimiter) { l.disabled = disabled }
}

// NewRateLimiter builds a limiter over the given store. The default
// key is the peer address, not a forwarded header: forwarded headers
// are attacker-controlled before the trust check runs.
func NewRateLimiter(store Store, logger *slog.Logger, opts ...LimiterOption) *RateLimiter {
	l := &RateLimiter{
		store:  store,
		limit:  DefaultLimit,
		window: DefaultWindow,
		key:    resolver.RemoteIP,
		logger: logger,
	}
	for _, opt := range opts {
		opt(l)
	}
	if l.disabled {
		logger.Info("rate limiting disabled")
	}
	return l
}

// Limit wraps next with the per-IP throttle. A store failure fails
// open: admission itself fails closed, so an unavailable counter must
// not lock every employee out.
func (l *RateLimiter) Limit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if l.disabled {
			next.ServeHTTP(w, r)
			return
		}

		key := l.key(r)
		result, err := l.store.Allow(r.Context(), key, l.limit, l.window)
		if err != nil {
			l.logger.Error("rate limit check failed", "error", err, "ip_prefix", audit.MaskIP(key))
			next.ServeHTTP(w, r)
			return
		}

		w.Header().Set("X-RateLimit-Limit", strconv.Itoa(l.limit))
		w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(result.Remaining))
		w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(result.ResetAt.Unix(), 10))

		if !result.Allowed {
			if l.metrics != nil {
				l.metrics.ObserveRateLimited()
			}
			l.logger.Warn("rate limit exceeded", "ip_prefix", audit.MaskIP(key))
			retryAfter := int(time.Until(result.ResetAt).Seconds()) + 1
			w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
			httputil.WriteJSON(w, http.StatusTooManyRequests, map[string]any{
				"ok":    false,
				"error": "rate_limit_exceeded",
			})
			return
		}

		next.ServeHTTP(w, r)
	})
}
