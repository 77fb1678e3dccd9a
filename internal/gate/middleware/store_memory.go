package middleware

import (
	"context"
	"sync"
	"time"
)

// sweepInterval is how many Allow calls pass between full sweeps of
// expired windows.
const sweepInterval = 512

// MemoryStore is a sliding window counter held in process memory. It
// is not distributed; with several replicas each instance enforces the
// limit independently. Use RedisStore to share state.
type MemoryStore struct {
	mu      sync.Mutex
	windows map[string]*slidingWindow
	now     func() time.Time
	ops     uint64
}

type slidingWindow struct {
	timestamps []time.Time
	window     time.Duration
}

// MemoryOption adjusts a MemoryStore.
type MemoryOption func(*MemoryStore)

// WithMemoryClock injects the time source for deterministic tests.
func WithMemoryClock(now func() time.Time) MemoryOption {
	return func(s *MemoryStore) { s.now = now }
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore(opts ...MemoryOption) *MemoryStore {
	s := &MemoryStore{
		windows: make(map[string]*slidingWindow),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Allow records a hit for key and reports whether it stays within
// limit over the trailing window.
func (s *MemoryStore) Allow(_ context.Context, key string, limit int, window time.Duration) (Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	s.ops++
	if s.ops%sweepInterval == 0 {
		s.sweep(now)
	}

	sw := s.windows[key]
	if sw == nil {
		sw = &slidingWindow{window: window}
		s.windows[key] = sw
	}
	sw.window = window
	sw.cleanup(now.Add(-window))

	if len(sw.timestamps) >= limit {
		return Result{
			Allowed: false,
			ResetAt: sw.timestamps[0].Add(window),
		}, nil
	}

	sw.timestamps = append(sw.timestamps, now)
	return Result{
		Allowed:   true,
		Remaining: limit - len(sw.timestamps),
		ResetAt:   sw.timestamps[0].Add(window),
	}, nil
}

// Reset clears the counter for a key.
func (s *MemoryStore) Reset(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.windows, key)
}

// sweep drops windows whose every hit has aged out. Caller holds the
// lock.
func (s *MemoryStore) sweep(now time.Time) {
	for key, sw := range s.windows {
		sw.cleanup(now.Add(-sw.window))
		if len(sw.timestamps) == 0 {
			delete(s.windows, key)
		}
	}
}

func (sw *slidingWindow) cleanup(cutoff time.Time) {
	i := 0
	for ; i < len(sw.timestamps); i++ {
		if sw.timestamps[i].After(cutoff) {
			break
		}
	}
	sw.timestamps = sw.timestamps[i:]
}
