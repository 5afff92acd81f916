package cache

import (
	"context"
	"sync"
	"time"

	"github.com/schoolerp/feeledger/internal/domain/shared"
)

type keyEntry struct {
	value     string
	expiresAt time.Time
}

// InMemoryRequestKeyStore implements RequestKeyStore with a process-local map.
// Keys are not shared between instances, so it only suits single-instance
// deployments and tests.
type InMemoryRequestKeyStore struct {
	mu        sync.Mutex
	entries   map[string]keyEntry
	now       func() time.Time
	stopChan  chan struct{}
	wg        sync.WaitGroup
	closeOnce sync.Once
}

// NewInMemoryRequestKeyStore creates a store and starts its cleanup loop
func NewInMemoryRequestKeyStore() *InMemoryRequestKeyStore {
	s := &InMemoryRequestKeyStore{
		entries:  make(map[string]keyEntry),
		now:      time.Now,
		stopChan: make(chan struct{}),
	}
	s.wg.Add(1)
	go s.cleanupLoop()
	return s
}

// Claim reserves key unless a live entry exists
func (s *InMemoryRequestKeyStore) Claim(ctx context.Context, key string, ttl time.Duration) (bool, string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if e, ok := s.entries[key]; ok && now.Before(e.expiresAt) {
		return false, e.value, nil
	}
	s.entries[key] = keyEntry{expiresAt: now.Add(ttl)}
	return true, "", nil
}

// Complete stores value under key with a fresh TTL
func (s *InMemoryRequestKeyStore) Complete(ctx context.Context, key, value string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[key] = keyEntry{value: value, expiresAt: s.now().Add(ttl)}
	return nil
}

// Release forgets key
func (s *InMemoryRequestKeyStore) Release(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, key)
	return nil
}

// Close stops the cleanup goroutine. Safe to call multiple times.
func (s *InMemoryRequestKeyStore) Close() error {
	s.closeOnce.Do(func() {
		close(s.stopChan)
		s.wg.Wait()
	})
	return nil
}

func (s *InMemoryRequestKeyStore) cleanupLoop() {
	defer s.wg.Done()

	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopChan:
			return
		case <-ticker.C:
			s.cleanup()
		}
	}
}

func (s *InMemoryRequestKeyStore) cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	for key, e := range s.entries {
		if !now.Before(e.expiresAt) {
			delete(s.entries, key)
		}
	}
}

// Size returns the number of stored keys, expired ones included
func (s *InMemoryRequestKeyStore) Size() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

var _ shared.RequestKeyStore = (*InMemoryRequestKeyStore)(nil)
