package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/spf13/afero"
)

// fileStorage keeps every entry in one JSON document. Writes go to a temp
// file that is renamed over the document.
type fileStorage struct {
	mu     sync.Mutex
	fs     afero.Fs
	path   string
	closed bool
}

// NewFile creates a storage persisted as a JSON document at path on fs
func NewFile(fs afero.Fs, path string) (Storage, error) {
	if path == "" {
		return nil, errors.New("storage file path is required")
	}

	path = filepath.Clean(path)
	if err := fs.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}

	return &fileStorage{fs: fs, path: path}, nil
}

func (s *fileStorage) Load(_ context.Context, keys ...string) (map[string]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, ErrClosed
	}

	doc, corrupt, err := s.read()
	if err != nil {
		return nil, err
	}
	if corrupt {
		return nil, fmt.Errorf("%s: %w", s.path, ErrCorrupt)
	}

	out := make(map[string]string, len(keys))
	for _, k := range keys {
		if v, ok := doc[k]; ok {
			out[k] = v
		}
	}
	return out, nil
}

func (s *fileStorage) Save(_ context.Context, entries map[string]string) error {
	if err := checkKeys(entries); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrClosed
	}

	doc, _, err := s.read()
	if err != nil {
		return err
	}
	for k, v := range entries {
		doc[k] = v
	}
	return s.write(doc)
}

func (s *fileStorage) Remove(_ context.Context, keys ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrClosed
	}

	doc, corrupt, err := s.read()
	if err != nil {
		return err
	}

	changed := corrupt
	for _, k := range keys {
		if _, ok := doc[k]; ok {
			delete(doc, k)
			changed = true
		}
	}
	if !changed {
		return nil
	}
	return s.write(doc)
}

func (s *fileStorage) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

// read returns the stored document. An undecodable document reads as empty
// with corrupt set, so the next write replaces it.
func (s *fileStorage) read() (doc map[string]string, corrupt bool, err error) {
	data, err := afero.ReadFile(s.fs, s.path)
	if errors.Is(err, os.ErrNotExist) {
		return map[string]string{}, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read storage file: %w", err)
	}

	doc = map[string]string{}
	if len(data) == 0 {
		return doc, false, nil
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return map[string]string{}, true, nil
	}
	return doc, false, nil
}

func (s *fileStorage) write(doc map[string]string) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode storage file: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := afero.WriteFile(s.fs, tmp, data, 0o600); err != nil {
		return fmt.Errorf("failed to write storage file: %w", err)
	}
	if err := s.fs.Rename(tmp, s.path); err != nil {
		_ = s.fs.Remove(tmp)
		return fmt.Errorf("failed to replace storage file: %w", err)
	}
	return nil
}
