package state

import (
	"fmt"
	"sync"
	"sync/atomic"
)

// Store publishes immutable Repository snapshots. Readers call Load and get
// a consistent value at any time; writers go through Update, which clones
// the current snapshot, applies the change and swaps the pointer.
type Store struct {
	current atomic.Pointer[Repository]

	mu        sync.Mutex // serializes writers
	listeners []func(*Repository)
}

// NewStore returns a store holding initial.
func NewStore(initial *Repository) *Store {
	s := &Store{}
	if initial == nil {
		initial = &Repository{}
	}
	s.current.Store(initial.Clone())
	return s
}

// Load returns the current snapshot. The caller must not modify it.
func (s *Store) Load() *Repository {
	return s.current.Load()
}

// Update applies fn to a private copy of the current snapshot and publishes
// it if fn succeeds and the result is valid. On error nothing changes.
func (s *Store) Update(fn func(r *Repository) error) (*Repository, error) {
	s.mu.Lock()
	next := s.current.Load().Clone()
	if err := fn(next); err != nil {
		s.mu.Unlock()
		return nil, err
	}
	if err := next.Validate(); err != nil {
		s.mu.Unlock()
		return nil, fmt.Errorf("rejecting update: %w", err)
	}
	s.current.Store(next)
	listeners := s.listeners
	s.mu.Unlock()

	for _, l := range listeners {
		l(next)
	}
	return next, nil
}

// Replace publishes r as is, after validation.
func (s *Store) Replace(r *Repository) error {
	r = r.Clone()
	if err := r.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	s.current.Store(r)
	listeners := s.listeners
	s.mu.Unlock()
	for _, l := range listeners {
		l(r)
	}
	return nil
}

// OnChange registers fn to be called with every published snapshot.
func (s *Store) OnChange(fn func(*Repository)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, fn)
}
