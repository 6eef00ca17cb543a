package ports

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/selector/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunStateStoreContract runs a suite of tests to verify that a StateStore implementation
// adheres to the defined interface contract.
func RunStateStoreContract(t *testing.T, store StateStore) {
	ctx := context.Background()
	key := "contract-test-" + time.Now().Format("20060102150405")

	t.Run("Save and Load", func(t *testing.T) {
		state := &domain.State{
			Collection:   []string{"red", "green", "blue"},
			CurrentIndex: 2,
			Initialized:  true,
			Direction:    domain.DirectionBackward,
		}

		err := store.Save(ctx, key, state)
		require.NoError(t, err, "Save should not return error")

		loaded, err := store.Load(ctx, key)
		require.NoError(t, err, "Load should not return error")
		assert.Equal(t, state.Collection, loaded.Collection)
		assert.Equal(t, 2, loaded.CurrentIndex)
		assert.True(t, loaded.Initialized)
		assert.Equal(t, domain.DirectionBackward, loaded.Direction)
	})

	t.Run("Load returns a copy", func(t *testing.T) {
		loaded, err := store.Load(ctx, key)
		require.NoError(t, err)
		loaded.Collection[0] = "mutated"
		loaded.CurrentIndex = 0

		again, err := store.Load(ctx, key)
		require.NoError(t, err)
		assert.Equal(t, "red", again.Collection[0])
		assert.Equal(t, 2, again.CurrentIndex)
	})

	t.Run("Overwrite", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, key, &domain.State{
			Collection:   []string{"a"},
			CurrentIndex: 0,
			Initialized:  true,
			Direction:    domain.DirectionForward,
		}))
		loaded, err := store.Load(ctx, key)
		require.NoError(t, err)
		assert.Equal(t, []string{"a"}, loaded.Collection)
	})

	t.Run("Load Non-Existent", func(t *testing.T) {
		_, err := store.Load(ctx, "non-existent-"+key)
		assert.ErrorIs(t, err, domain.ErrStateNotFound)
	})

	t.Run("Delete", func(t *testing.T) {
		err := store.Save(ctx, key, domain.NewState())
		require.NoError(t, err)

		err = store.Delete(ctx, key)
		require.NoError(t, err, "Delete should not return error")

		_, err = store.Load(ctx, key)
		assert.ErrorIs(t, err, domain.ErrStateNotFound, "Load after Delete should return ErrStateNotFound")

		assert.NoError(t, store.Delete(ctx, key), "Deleting a missing key is not an error")
	})

	t.Run("List", func(t *testing.T) {
		id1 := key + "-1"
		id2 := key + "-2"
		_ = store.Save(ctx, id1, domain.NewState())
		_ = store.Save(ctx, id2, domain.NewState())

		defer func() {
			_ = store.Delete(ctx, id1)
			_ = store.Delete(ctx, id2)
		}()

		keys, err := store.List(ctx)
		require.NoError(t, err)
		assert.Contains(t, keys, id1)
		assert.Contains(t, keys, id2)
	})
}
