package storage

import (
	"context"
	"sync"
	"time"
)

type memoryRecord struct {
	value     []byte
	expiresAt time.Time
}

type memoryStore struct {
	mu      sync.RWMutex
	records map[string]memoryRecord
}

// NewMemory returns a process-local store. Sessions do not survive a
// restart; it is the default backend and the one tests use.
func NewMemory() Store {
	return &memoryStore{records: map[string]memoryRecord{}}
}

func (s *memoryStore) Get(_ context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	rec, ok := s.records[key]
	s.mu.RUnlock()

	if !ok {
		return nil, ErrNotFound
	}
	if !rec.expiresAt.IsZero() && time.Now().After(rec.expiresAt) {
		s.mu.Lock()
		delete(s.records, key)
		s.mu.Unlock()
		return nil, ErrNotFound
	}
	return rec.value, nil
}

func (s *memoryStore) Set(_ context.Context, key string, value []byte, expiresAt time.Time) error {
	s.mu.Lock()
	s.records[key] = memoryRecord{value: value, expiresAt: expiresAt}
	s.mu.Unlock()
	return nil
}

func (s *memoryStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	delete(s.records, key)
	s.mu.Unlock()
	return nil
}

func (s *memoryStore) Close() error {
	return nil
}
