// Package cache implements a small TTL key/value store used to shield the
// upstream providers from repeated dashboard requests. The key space is a
// fixed set of endpoint names plus market/period combinations, so there is
// no eviction policy beyond lazy expiry on read.
package cache

import (
	"sync"
	"time"
)

type entry struct {
	expiresAt time.Time
	value     any
}

// Store is a TTL cache with last-write-wins semantics per key. Construct
// one per server and inject it; it is never package-global.
type Store struct {
	mu    sync.RWMutex
	items map[string]entry
	now   func() time.Time
}

func New() *Store {
	return NewWithClock(time.Now)
}

// NewWithClock allows tests to control expiry.
func NewWithClock(now func() time.Time) *Store {
	return &Store{items: make(map[string]entry), now: now}
}

// Get returns the value for key, or false when the key is absent or its
// TTL has elapsed. Expired entries are removed on read.
func (s *Store) Get(key string) (any, bool) {
	s.mu.RLock()
	e, ok := s.items[key]
	s.mu.RUnlock()
	if !ok {
		return nil, false
	}
	if !s.now().Before(e.expiresAt) {
		s.mu.Lock()
		// Re-check under the write lock; a concurrent Set may have
		// refreshed the entry.
		if cur, ok := s.items[key]; ok && !s.now().Before(cur.expiresAt) {
			delete(s.items, key)
		}
		s.mu.Unlock()
		return nil, false
	}
	return e.value, true
}

// Set stores value under key for ttl, overwriting any prior entry.
func (s *Store) Set(key string, value any, ttl time.Duration) {
	s.mu.Lock()
	s.items[key] = entry{expiresAt: s.now().Add(ttl), value: value}
	s.mu.Unlock()
}

// Len reports the number of entries currently held, expired or not.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}
