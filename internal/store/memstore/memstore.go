// Package memstore provides an in-memory store implementation for testing.
package memstore

import (
	"context"
	"maps"
	"sync"

	"github.com/docfold/slicecache/internal/store"
)

// Compile-time check that Store implements store.Store.
var _ store.Store = (*Store)(nil)

// Store is an in-memory store for testing. It counts Load and Save calls
// so tests can assert the lazy-load and flush contracts, and can be forced
// to fail saves to exercise write-failure handling.
type Store struct {
	mu       sync.Mutex
	records  map[string]store.Record
	loads    int
	saves    int
	failSave error
}

// New creates a new in-memory store.
func New() *Store {
	return &Store{
		records: make(map[string]store.Record),
	}
}

// Seed replaces the stored mapping (for test setup). The map is copied so
// later caller mutations do not leak into the store.
func (s *Store) Seed(records map[string]store.Record) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = maps.Clone(records)
}

// FailSaves makes every following Save return err.
func (s *Store) FailSaves(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failSave = err
}

// Loads returns how many times Load has been called.
func (s *Store) Loads() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loads
}

// Saves returns how many times Save has been called successfully.
func (s *Store) Saves() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saves
}

// Saved returns a copy of the last successfully saved mapping.
func (s *Store) Saved() map[string]store.Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	return maps.Clone(s.records)
}

// Load returns a copy of the stored mapping.
func (s *Store) Load(ctx context.Context) (map[string]store.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loads++
	return maps.Clone(s.records), nil
}

// Save replaces the stored mapping with a copy of records.
func (s *Store) Save(ctx context.Context, records map[string]store.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failSave != nil {
		return s.failSave
	}
	s.saves++
	s.records = maps.Clone(records)
	return nil
}

// Close is a no-op for the memory store.
func (s *Store) Close() error {
	return nil
}
