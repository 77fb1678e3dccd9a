package audit

import (
	"context"
	"sync"
)

// MemoryStore keeps the most recent events in a bounded ring. Suitable
// for single-instance deployments and tests; older events are evicted
// silently once capacity is reached.
type MemoryStore struct {
	mu     sync.Mutex
	events []Event
	next   int
	full   bool
}

// NewMemoryStore builds a ring store holding up to capacity events.
func NewMemoryStore(capacity int) *MemoryStore {
	if capacity <= 0 {
		capacity = 1024
	}
	return &MemoryStore{events: make([]Event, capacity)}
}

// Record implements Recorder.
func (s *MemoryStore) Record(_ context.Context, event Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events[s.next] = event
	s.next = (s.next + 1) % len(s.events)
	if s.next == 0 {
		s.full = true
	}
}

// Recent returns the stored events, oldest first.
func (s *MemoryStore) Recent() []Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.full {
		out := make([]Event, s.next)
		copy(out, s.events[:s.next])
		return out
	}
	out := make([]Event, 0, len(s.events))
	out = append(out, s.events[s.next:]...)
	out = append(out, s.events[:s.next]...)
	return out
}
