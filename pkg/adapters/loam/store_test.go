package loam_test

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/selector/pkg/adapters/loam"
	"github.com/aretw0/selector/pkg/domain"
	"github.com/aretw0/selector/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var _ ports.StateStore = (*loam.Store)(nil)

func TestLoamStore_Contract(t *testing.T) {
	store, err := loam.Open(t.TempDir())
	require.NoError(t, err)
	ports.RunStateStoreContract(t, store)
}

func TestLoamStore_ReopenKeepsState(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	updated := time.Date(2026, 3, 14, 9, 26, 53, 589793000, time.UTC)

	store, err := loam.Open(dir)
	require.NoError(t, err)
	require.NoError(t, store.Save(ctx, "tab/1", &domain.State{
		Collection:   []string{"x", "y"},
		CurrentIndex: 1,
		Initialized:  true,
		Direction:    domain.DirectionBackward,
		UpdatedAt:    updated,
	}))

	reopened, err := loam.Open(dir)
	require.NoError(t, err)

	state, err := reopened.Load(ctx, "tab/1")
	require.NoError(t, err)
	assert.Equal(t, []string{"x", "y"}, state.Collection)
	assert.Equal(t, 1, state.CurrentIndex)
	assert.Equal(t, domain.DirectionBackward, state.Direction)
	assert.True(t, updated.Equal(state.UpdatedAt), "updated_at survives the round trip, got %s", state.UpdatedAt)

	keys, err := reopened.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"tab/1"}, keys)
}
