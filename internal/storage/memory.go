package storage

import (
	"context"
	"sync"
)

type memoryStorage struct {
	mu     sync.RWMutex
	data   map[string]string
	closed bool
}

// NewMemory creates a process-local storage, used by tests and ephemeral sessions
func NewMemory() Storage {
	return &memoryStorage{data: make(map[string]string)}
}

func (s *memoryStorage) Load(_ context.Context, keys ...string) (map[string]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, ErrClosed
	}

	out := make(map[string]string, len(keys))
	for _, k := range keys {
		if v, ok := s.data[k]; ok {
			out[k] = v
		}
	}
	return out, nil
}

func (s *memoryStorage) Save(_ context.Context, entries map[string]string) error {
	if err := checkKeys(entries); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrClosed
	}
	for k, v := range entries {
		s.data[k] = v
	}
	return nil
}

func (s *memoryStorage) Remove(_ context.Context, keys ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrClosed
	}
	for _, k := range keys {
		delete(s.data, k)
	}
	return nil
}

func (s *memoryStorage) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}
