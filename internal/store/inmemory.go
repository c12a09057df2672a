package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"github.com/containerd/errdefs"
)

// memStore implements Store with nested in-process maps.
type memStore struct {
	mu          sync.RWMutex
	collections map[string]map[string]json.RawMessage
}

var _ Store = (*memStore)(nil)

// NewInMemory returns an empty in-memory Store. Records are copied on both
// read and write so callers can never alias the stored bytes.
func NewInMemory() Store {
	return &memStore{
		collections: make(map[string]map[string]json.RawMessage),
	}
}

func (s *memStore) Get(_ context.Context, collection, key string) (json.RawMessage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	record, ok := s.collections[collection][key]
	if !ok {
		return nil, fmt.Errorf("%s/%s: %w", collection, key, errdefs.ErrNotFound)
	}
	return cloneRecord(record), nil
}

func (s *memStore) List(_ context.Context, collection string) ([]json.RawMessage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	coll := s.collections[collection]
	keys := make([]string, 0, len(coll))
	for key := range coll {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	records := make([]json.RawMessage, 0, len(coll))
	for _, key := range keys {
		records = append(records, cloneRecord(coll[key]))
	}
	return records, nil
}

func (s *memStore) Put(_ context.Context, collection, key string, record json.RawMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	coll, ok := s.collections[collection]
	if !ok {
		coll = make(map[string]json.RawMessage)
		s.collections[collection] = coll
	}
	coll[key] = cloneRecord(record)
	return nil
}

func (s *memStore) Delete(_ context.Context, collection, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.collections[collection][key]; !ok {
		return fmt.Errorf("%s/%s: %w", collection, key, errdefs.ErrNotFound)
	}
	delete(s.collections[collection], key)
	return nil
}

func cloneRecord(record json.RawMessage) json.RawMessage {
	clone := make(json.RawMessage, len(record))
	copy(clone, record)
	return clone
}
