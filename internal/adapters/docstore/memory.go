package docstore

import (
	"context"
	"fmt"
	"sync"
)

// MemoryStore implements Store with an in-process map. It serializes
// updates with a mutex, so every Update commits on the first attempt; it
// exists for tests and local runs without redis.
type MemoryStore struct {
	mu   sync.Mutex
	docs map[string][]byte
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{docs: make(map[string][]byte)}
}

func (s *MemoryStore) Get(_ context.Context, key string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	val, ok := s.docs[key]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	out := make([]byte, len(val))
	copy(out, val)
	return out, nil
}

func (s *MemoryStore) Put(_ context.Context, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.docs[key] = append([]byte{}, value...)
	return nil
}

func (s *MemoryStore) Update(_ context.Context, key string, fn UpdateFunc) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var current []byte
	if val, ok := s.docs[key]; ok {
		current = append([]byte{}, val...)
	}
	next, err := fn(current)
	if err != nil {
		return nil, err
	}
	s.docs[key] = append([]byte{}, next...)
	return next, nil
}

func (s *MemoryStore) EnsureID(_ context.Context, key, id string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.docs[key]; ok {
		return string(existing), nil
	}
	s.docs[key] = []byte(id)
	return id, nil
}

func (s *MemoryStore) Close() error { return nil }
