// Package middleware provides the HTTP middleware in front of the gate
// endpoints, currently per-IP rate limiting.
package middleware

import (
	"context"
	"time"
)

// Result reports the outcome of a rate limit check.
type Result struct {
	Allowed   bool
	Remaining int
	ResetAt   time.Time
}

// Store counts hits per key within a window. Implementations decide
// whether the window is sliding (memory) or fixed (redis).
type Store interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (Result, error)
}
