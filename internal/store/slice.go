// Package store holds the client-side entity slices: normalized collections
// with per-operation loading and error state, refreshed from the Monocart API.
package store

import (
	"sync"
	"time"
)

// Operation names shared by the slices
const (
	OpList   = "list"
	OpDetail = "detail"
	OpCreate = "create"
	OpUpdate = "update"
	OpDelete = "delete"
	OpCancel = "cancel"
)

// Slice is an insertion-ordered collection keyed by a stable id, with the
// bookkeeping every entity slice shares. It is safe for concurrent use.
type Slice[T any] struct {
	mu          sync.RWMutex
	name        string
	idOf        func(T) string
	order       []string
	items       map[string]T
	loading     map[string]bool
	errors      map[string]string
	lastFetched time.Time
	listSeq     uint64
	window      time.Duration
}

// NewSlice creates an empty slice with the given staleness window
func NewSlice[T any](name string, window time.Duration, idOf func(T) string) *Slice[T] {
	return &Slice[T]{
		name:    name,
		idOf:    idOf,
		items:   make(map[string]T),
		loading: make(map[string]bool),
		errors:  make(map[string]string),
		window:  window,
	}
}

// Name returns the slice name used in logs and teardown reasons
func (s *Slice[T]) Name() string {
	return s.name
}

// Items returns the collection in insertion order
func (s *Slice[T]) Items() []T {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]T, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.items[id])
	}
	return out
}

// Get returns the item with the given id
func (s *Slice[T]) Get(id string) (T, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	item, ok := s.items[id]
	return item, ok
}

// Len returns the number of items
func (s *Slice[T]) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.order)
}

// Loading reports whether op is in flight
func (s *Slice[T]) Loading(op string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loading[op]
}

// Error returns the last error message recorded for op
func (s *Slice[T]) Error(op string) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.errors[op]
}

// Errors returns a copy of every recorded error message
func (s *Slice[T]) Errors() map[string]string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]string, len(s.errors))
	for k, v := range s.errors {
		out[k] = v
	}
	return out
}

// LastFetched returns the time of the last committed list fetch
func (s *Slice[T]) LastFetched() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastFetched
}

// ShouldFetch is the staleness gate. A list fetch is due when none is in
// flight and the collection is empty, was never fetched, or is at least one
// staleness window old.
func (s *Slice[T]) ShouldFetch(now time.Time) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.loading[OpList] {
		return false
	}
	if len(s.order) == 0 || s.lastFetched.IsZero() {
		return true
	}
	return now.Sub(s.lastFetched) >= s.window
}

// Reset empties the collection and forgets the last fetch. List fetches
// still in flight are discarded when they complete.
func (s *Slice[T]) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.listSeq++
	s.order = nil
	s.items = make(map[string]T)
	s.loading = make(map[string]bool)
	s.errors = make(map[string]string)
	s.lastFetched = time.Time{}
}

// beginList marks a list fetch in flight and returns its sequence number
func (s *Slice[T]) beginList() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.listSeq++
	s.loading[OpList] = true
	delete(s.errors, OpList)
	return s.listSeq
}

// commitList replaces the collection unless a newer list fetch was issued
// after seq. It reports whether the result was committed.
func (s *Slice[T]) commitList(seq uint64, items []T, now time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if seq != s.listSeq {
		return false
	}

	s.order = s.order[:0]
	s.items = make(map[string]T, len(items))
	for _, item := range items {
		id := s.idOf(item)
		if _, dup := s.items[id]; !dup {
			s.order = append(s.order, id)
		}
		s.items[id] = item
	}

	if now.After(s.lastFetched) {
		s.lastFetched = now
	}
	s.loading[OpList] = false
	delete(s.errors, OpList)
	return true
}

// failList records a list failure unless a newer list fetch was issued
func (s *Slice[T]) failList(seq uint64, msg string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if seq != s.listSeq {
		return false
	}
	s.loading[OpList] = false
	s.errors[OpList] = msg
	return true
}

func (s *Slice[T]) begin(op string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loading[op] = true
	delete(s.errors, op)
}

func (s *Slice[T]) succeed(op string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loading[op] = false
	delete(s.errors, op)
}

func (s *Slice[T]) fail(op, msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loading[op] = false
	s.errors[op] = msg
}

// upsert replaces an existing item in place or appends a new one
func (s *Slice[T]) upsert(item T) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.idOf(item)
	if _, ok := s.items[id]; !ok {
		s.order = append(s.order, id)
	}
	s.items[id] = item
}

func (s *Slice[T]) remove(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.items[id]; !ok {
		return
	}
	delete(s.items, id)
	for i, existing := range s.order {
		if existing == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
}

// update applies fn to the item with id under the lock
func (s *Slice[T]) update(id string, fn func(T) T) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	item, ok := s.items[id]
	if !ok {
		return false
	}
	s.items[id] = fn(item)
	return true
}
