package storage

import (
	"context"
	"sync"
	"time"
)

// CleanupInterval is how often expired entries are swept.
const CleanupInterval = time.Minute

type memoryEntry struct {
	value     []byte
	expiresAt time.Time
}

func (e memoryEntry) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && now.After(e.expiresAt)
}

// MemoryStorage is an in-process Storage, used when no Redis is configured and in tests.
type MemoryStorage struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	ttl     time.Duration

	stopCleanup chan struct{}
	wg          sync.WaitGroup
}

// NewMemoryStorage creates a store whose entries expire after ttl. A zero ttl keeps entries forever.
func NewMemoryStorage(ttl time.Duration) *MemoryStorage {
	s := &MemoryStorage{
		entries:     make(map[string]memoryEntry),
		ttl:         ttl,
		stopCleanup: make(chan struct{}),
	}

	s.wg.Add(1)
	go s.cleanupLoop()

	return s
}

func (s *MemoryStorage) cleanupLoop() {
	defer s.wg.Done()

	ticker := time.NewTicker(CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.expireEntries(time.Now())
		case <-s.stopCleanup:
			return
		}
	}
}

func (s *MemoryStorage) expireEntries(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for k, e := range s.entries {
		if e.expired(now) {
			delete(s.entries, k)
		}
	}
}

func (s *MemoryStorage) Get(_ context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.entries[key]
	if !ok || e.expired(time.Now()) {
		return nil, ErrNotFound
	}
	out := make([]byte, len(e.value))
	copy(out, e.value)
	return out, nil
}

func (s *MemoryStorage) Set(_ context.Context, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e := memoryEntry{value: append([]byte(nil), value...)}
	if s.ttl > 0 {
		e.expiresAt = time.Now().Add(s.ttl)
	}
	s.entries[key] = e
	return nil
}

func (s *MemoryStorage) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, key)
	return nil
}

// Close stops the background cleanup and waits for it to finish
func (s *MemoryStorage) Close() error {
	close(s.stopCleanup)
	s.wg.Wait()
	return nil
}
