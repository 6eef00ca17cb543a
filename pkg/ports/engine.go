package ports

import (
	"context"

	"github.com/aretw0/selector/pkg/domain"
)

// Selector is the driving port used by hosts (CLI, HTTP, MCP) to invoke an engine.
type Selector interface {
	// Select resolves one segment for the request and persists the state for the next call.
	Select(ctx context.Context, req domain.Request) (domain.Result, error)

	// Batch evaluates several sub-selectors once each and expands them by their repeat multipliers.
	Batch(ctx context.Context, items []domain.BatchItem) (*domain.Batch, error)

	// Inspect returns the persisted state of a key.
	Inspect(ctx context.Context, key string) (*domain.State, error)

	// Keys lists every key with persisted state.
	Keys(ctx context.Context) ([]string, error)

	// Reset discards the persisted state of a key.
	Reset(ctx context.Context, key string) error
}
