package ratelimit

import (
	"context"
	"sync"
	"time"
)

type window struct {
	count   int64
	resetAt time.Time
}

// MemoryStore keeps fixed windows in an in-process map. The check-and-increment
// runs under the mutex, so concurrent requests for the same key never
// undercount. A background sweep drops expired entries to bound memory; the
// sweep is hygiene only, expiry is also checked on every Incr.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]*window
	done    chan struct{}
	once    sync.Once
}

// NewMemoryStore builds a store and starts the sweep loop. A non-positive
// interval disables sweeping.
func NewMemoryStore(sweepInterval time.Duration) *MemoryStore {
	s := &MemoryStore{
		entries: make(map[string]*window),
		done:    make(chan struct{}),
	}
	if sweepInterval > 0 {
		go s.sweep(sweepInterval)
	}
	return s
}

// Incr counts one attempt for the key, starting a fresh window when the stored
// one has expired.
func (s *MemoryStore) Incr(_ context.Context, key string, windowLen time.Duration) (int64, time.Time, error) {
	now := time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[key]
	if !ok || now.After(entry.resetAt) {
		entry = &window{count: 0, resetAt: now.Add(windowLen)}
		s.entries[key] = entry
	}
	entry.count++
	return entry.count, entry.resetAt, nil
}

// Stop terminates the sweep loop.
func (s *MemoryStore) Stop() {
	s.once.Do(func() { close(s.done) })
}

func (s *MemoryStore) sweep(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.done:
			return
		case now := <-ticker.C:
			s.mu.Lock()
			for key, entry := range s.entries {
				if now.After(entry.resetAt) {
					delete(s.entries, key)
				}
			}
			s.mu.Unlock()
		}
	}
}
