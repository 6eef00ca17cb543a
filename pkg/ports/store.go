package ports

import (
	"context"

	"github.com/aretw0/selector/pkg/domain"
)

// StateStore defines the interface for persisting selector state, one record per key.
type StateStore interface {
	// Save persists the state for a given selector key.
	Save(ctx context.Context, key string, state *domain.State) error

	// Load retrieves the state for a given selector key.
	// Returns domain.ErrStateNotFound if the key has no record.
	Load(ctx context.Context, key string) (*domain.State, error)

	// Delete removes the state for a given selector key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// List returns every key that currently has a record.
	List(ctx context.Context) ([]string, error)
}

// Snapshotter is implemented by stores that persist the whole key→record mapping at once.
type Snapshotter interface {
	// LoadAll returns every persisted record. Malformed data yields an empty mapping, not an error.
	LoadAll(ctx context.Context) (map[string]*domain.State, error)

	// SaveAll replaces the persisted mapping.
	SaveAll(ctx context.Context, states map[string]*domain.State) error
}
