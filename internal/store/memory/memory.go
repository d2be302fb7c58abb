package memory

import (
	"context"
	"slices"
	"sort"
	"sync"
)

// Store keeps collection payloads in process memory. Payloads are copied on
// the way in and out so callers never share buffers with the store.
type Store struct {
	mu          sync.RWMutex
	collections map[string][]byte
}

func New() *Store {
	return &Store{collections: make(map[string][]byte)}
}

func (s *Store) Load(_ context.Context, name string) ([]byte, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	payload, ok := s.collections[name]
	if !ok {
		return nil, false, nil
	}
	return slices.Clone(payload), true, nil
}

func (s *Store) Save(_ context.Context, name string, payload []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.collections[name] = slices.Clone(payload)
	return nil
}

// Names lists the collections that have been saved, sorted.
func (s *Store) Names() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make([]string, 0, len(s.collections))
	for name := range s.collections {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
