// Package storage provides the durable key/value backends the session store
// persists into.
package storage

import (
	"context"
	"errors"
)

var (
	// ErrClosed is returned by operations on a closed storage
	ErrClosed = errors.New("storage closed")
	// ErrEmptyKey is returned when an empty key is written
	ErrEmptyKey = errors.New("storage key must not be empty")
	// ErrCorrupt is returned by Load when the persisted data cannot be decoded.
	// The next Save or Remove replaces it.
	ErrCorrupt = errors.New("storage data is corrupt")
)

// Storage is a small durable key/value store. Save and Remove apply to all
// given keys or to none of them.
type Storage interface {
	// Load returns the values of the requested keys. Missing keys are absent from the result.
	Load(ctx context.Context, keys ...string) (map[string]string, error)
	// Save writes all entries atomically
	Save(ctx context.Context, entries map[string]string) error
	// Remove deletes the keys; removing a missing key is not an error
	Remove(ctx context.Context, keys ...string) error
	Close() error
}

// HealthChecker is implemented by backends that sit behind a network connection
type HealthChecker interface {
	Health(ctx context.Context) map[string]string
}

func checkKeys(entries map[string]string) error {
	for k := range entries {
		if k == "" {
			return ErrEmptyKey
		}
	}
	return nil
}
