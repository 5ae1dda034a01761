package file

import (
	"aclue/internal/storage"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// Storage keeps every key in a single JSON document on disk. Each call holds
// the mutex for the whole read-modify-write cycle.
type Storage struct {
	path string
	mu   sync.Mutex
}

func New(path string) *Storage {
	return &Storage{path: path}
}

func (s *Storage) Get(_ context.Context, key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, err := s.loadUnlocked()
	if err != nil {
		return "", err
	}
	v, ok := m[key]
	if !ok {
		return "", storage.ErrNotFound
	}
	return v, nil
}

func (s *Storage) Set(_ context.Context, key string, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, err := s.loadUnlocked()
	if err != nil {
		return err
	}
	m[key] = value
	return s.saveUnlocked(m)
}

func (s *Storage) Remove(_ context.Context, keys ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, err := s.loadUnlocked()
	if err != nil {
		return err
	}
	for _, k := range keys {
		delete(m, k)
	}
	return s.saveUnlocked(m)
}

func (s *Storage) loadUnlocked() (map[string]string, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return make(map[string]string), nil
		}
		return nil, fmt.Errorf("load storage: %w", err)
	}
	if len(data) == 0 {
		return make(map[string]string), nil
	}

	out := make(map[string]string)
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("unmarshal storage: %w", err)
	}
	return out, nil
}

func (s *Storage) saveUnlocked(m map[string]string) error {
	b, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal storage: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("mkdir storage dir: %w", err)
	}

	// write-then-rename so a crash never leaves a truncated file behind
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o600); err != nil {
		return fmt.Errorf("write storage file: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("rename storage file: %w", err)
	}
	return nil
}
