// Package settings loads the gate's configuration from the shared
// settings store and caches it for a short TTL so every admission check
// does not pay a round trip.
package settings

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/nameha1/synergyhr/internal/gate/models"
)

// DefaultTTL bounds staleness of the cached settings snapshot. There is
// no push invalidation; expiry is the only refresh trigger.
const DefaultTTL = 30 * time.Second

// Source produces a fresh settings snapshot from the external store.
type Source interface {
	Fetch(ctx context.Context) (models.OfficeSettings, error)
}

// SourceFunc adapts a function to the Source interface.
type SourceFunc func(ctx context.Context) (models.OfficeSettings, error)

// Fetch implements Source.
func (f SourceFunc) Fetch(ctx context.Context) (models.OfficeSettings, error) {
	return f(ctx)
}

type entry struct {
	settings models.OfficeSettings
	expires  time.Time
}

// Cache holds a single settings snapshot with an absolute expiry.
// Concurrent misses may race and fetch twice; the fetch is idempotent
// and the slot swap is atomic, so the only cost is a redundant read
// bounded by the TTL. Deliberately no lock and no singleflight.
type Cache struct {
	source Source
	ttl    time.Duration
	now    func() time.Time
	slot   atomic.Pointer[entry]
}

// CacheOption adjusts a Cache.
type CacheOption func(*Cache)

// WithTTL overrides the cache TTL.
func WithTTL(ttl time.Duration) CacheOption {
	return func(c *Cache) { c.ttl = ttl }
}

// WithCacheClock injects the time source for deterministic expiry tests.
func WithCacheClock(now func() time.Time) CacheOption {
	return func(c *Cache) { c.now = now }
}

// NewCache builds a cache over the given source.
func NewCache(source Source, opts ...CacheOption) *Cache {
	c := &Cache{source: source, ttl: DefaultTTL, now: time.Now}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get returns the settings snapshot and whether it was served from the
// cache (hit=false means the source was fetched). A failed fetch
// propagates: an admission decision must never be made on data known to
// be unavailable, and a stale-beyond-expiry snapshot is never served in
// its place.
func (c *Cache) Get(ctx context.Context) (settings models.OfficeSettings, hit bool, err error) {
	if cached := c.slot.Load(); cached != nil && c.now().Before(cached.expires) {
		return cached.settings, true, nil
	}

	fresh, err := c.source.Fetch(ctx)
	if err != nil {
		return models.OfficeSettings{}, false, fmt.Errorf("refresh settings: %w", err)
	}
	c.slot.Store(&entry{settings: fresh, expires: c.now().Add(c.ttl)})
	return fresh, false, nil
}
