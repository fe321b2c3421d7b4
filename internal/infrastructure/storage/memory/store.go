// Package memory provides an in-process Store. It backs tests and the
// "memory" storage driver; contents are lost when the process exits.
package memory

import (
	"bytes"
	"context"
	"encoding/json"
	"sort"
	"sync"

	"sealedger/internal/core/store"
)

// Compile-time check that Store implements store.BatchStore.
var _ store.BatchStore = (*Store)(nil)

// Store keeps collections as JSON documents, exactly as a persistent store
// would, so tests exercise the same encode/decode path.
type Store struct {
	mu          sync.RWMutex
	collections map[string][]json.RawMessage
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{collections: make(map[string][]json.RawMessage)}
}

// Load implements store.Store.
func (s *Store) Load(_ context.Context, collection string) ([]json.RawMessage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneRecords(s.collections[collection]), nil
}

// Save implements store.Store.
func (s *Store) Save(_ context.Context, collection string, records []json.RawMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.collections[collection] = cloneRecords(records)
	return nil
}

// SaveBatch implements store.BatchStore.
func (s *Store) SaveBatch(_ context.Context, collections map[string][]json.RawMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for name, records := range collections {
		s.collections[name] = cloneRecords(records)
	}
	return nil
}

// Collections lists the names of saved collections.
func (s *Store) Collections() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	names := make([]string, 0, len(s.collections))
	for name := range s.collections {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func cloneRecords(in []json.RawMessage) []json.RawMessage {
	if in == nil {
		return nil
	}
	out := make([]json.RawMessage, len(in))
	for i, r := range in {
		out[i] = bytes.Clone(r)
	}
	return out
}
