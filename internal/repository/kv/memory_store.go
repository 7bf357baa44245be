// File: internal/repository/kv/memory_store.go
package kv

import (
	"context"
	"errors"
	"sync"
)

type memoryStore struct {
	mu      sync.RWMutex
	entries map[string]string
}

// NewMemoryStore returns an in-process Store. Used in tests and for
// ephemeral deployments.
func NewMemoryStore() Store {
	return &memoryStore{entries: make(map[string]string)}
}

func (s *memoryStore) Get(ctx context.Context, key string) (string, error) {
	if err := validateKey(key); err != nil {
		return "", err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	value, ok := s.entries[key]
	if !ok {
		return "", ErrKeyNotFound
	}
	return value, nil
}

func (s *memoryStore) Set(ctx context.Context, key, value string) error {
	if err := validateKey(key); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[key] = value
	return nil
}

func (s *memoryStore) Delete(ctx context.Context, key string) error {
	if err := validateKey(key); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, key)
	return nil
}

func validateKey(key string) error {
	if key == "" {
		return errors.New("key cannot be empty")
	}
	if len(key) > 255 {
		return errors.New("key exceeds maximum length of 255")
	}
	return nil
}
