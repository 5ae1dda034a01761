package memory

import (
	"aclue/internal/storage"
	"context"
	"sync"
)

type Storage struct {
	mu    sync.RWMutex
	items map[string]string
}

func New() *Storage {
	return &Storage{items: make(map[string]string)}
}

func (s *Storage) Get(_ context.Context, key string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	v, ok := s.items[key]
	if !ok {
		return "", storage.ErrNotFound
	}
	return v, nil
}

func (s *Storage) Set(_ context.Context, key string, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.items[key] = value
	return nil
}

func (s *Storage) Remove(_ context.Context, keys ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, k := range keys {
		delete(s.items, k)
	}
	return nil
}
