package kv

import (
	"context"
	"sync"
)

// LocalStore keeps values in process memory. Everything is lost when the
// process exits; use it for tests and a long-running serve only.
type LocalStore struct {
	mu   sync.RWMutex
	data map[string]string
}

var _ Store = (*LocalStore)(nil)

func NewLocalStore() *LocalStore {
	return &LocalStore{data: make(map[string]string, 16)}
}

func (s *LocalStore) Get(ctx context.Context, key string) (string, error) {
	if err := validateKey(key); err != nil {
		return "", err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.data[key]
	if !ok {
		return "", ErrNotFound
	}
	return v, nil
}

func (s *LocalStore) Set(ctx context.Context, key, value string) error {
	if err := validateKey(key); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = value
	return nil
}
