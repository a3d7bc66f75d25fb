package sequence

import (
	"context"
	"sync"
)

// MemoryCounterStore is an in-process CounterStore. It mirrors the Mongo
// semantics (increment returns the post-increment value, init never
// overwrites) and is used by tests and local development without a database.
type MemoryCounterStore struct {
	mu       sync.Mutex
	counters map[string]int64
}

func NewMemoryCounterStore() *MemoryCounterStore {
	return &MemoryCounterStore{counters: make(map[string]int64)}
}

func (s *MemoryCounterStore) Exists(_ context.Context, key string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.counters[key]
	return ok, nil
}

func (s *MemoryCounterStore) IncrementAndGet(_ context.Context, key string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.counters[key]++
	return s.counters[key], nil
}

func (s *MemoryCounterStore) InitIfAbsent(_ context.Context, key string, seed int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.counters[key]; !ok {
		s.counters[key] = seed
	}
	return nil
}
