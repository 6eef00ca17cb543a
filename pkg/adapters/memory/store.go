package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/aretw0/selector/pkg/domain"
)

// Store implements ports.StateStore and ports.Snapshotter in memory.
// Safe for concurrent use.
type Store struct {
	data map[string]*domain.State
	mu   sync.RWMutex
}

// NewStore creates a new in-memory store.
func NewStore() *Store {
	return &Store{
		data: make(map[string]*domain.State),
	}
}

// Save persists the state in memory.
func (s *Store) Save(ctx context.Context, key string, state *domain.State) error {
	// Deep copy to ensure isolation, similar to serialization
	copied := state.Clone()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = copied
	return nil
}

// Load retrieves the state from memory.
func (s *Store) Load(ctx context.Context, key string) (*domain.State, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	state, ok := s.data[key]
	if !ok {
		return nil, domain.ErrStateNotFound
	}

	// Copy on read so callers can't mutate store state through the pointer
	return state.Clone(), nil
}

// Delete removes the state.
func (s *Store) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, key)
	return nil
}

// List returns the stored keys in lexical order.
func (s *Store) List(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	keys := make([]string, 0, len(s.data))
	for id := range s.data {
		keys = append(keys, id)
	}
	sort.Strings(keys)
	return keys, nil
}

// LoadAll returns a copy of every record.
func (s *Store) LoadAll(ctx context.Context) (map[string]*domain.State, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]*domain.State, len(s.data))
	for k, v := range s.data {
		out[k] = v.Clone()
	}
	return out, nil
}

// SaveAll replaces every record.
func (s *Store) SaveAll(ctx context.Context, states map[string]*domain.State) error {
	data := make(map[string]*domain.State, len(states))
	for k, v := range states {
		data[k] = v.Clone()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.data = data
	return nil
}
