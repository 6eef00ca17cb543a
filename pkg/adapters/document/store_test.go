package document_test

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"sync/atomic"
	"testing"

	"github.com/aretw0/selector/pkg/adapters/document"
	"github.com/aretw0/selector/pkg/domain"
	"github.com/aretw0/selector/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	_ ports.StateStore  = (*document.Store)(nil)
	_ ports.Snapshotter = (*document.Store)(nil)
)

func TestDocumentStore_Contract(t *testing.T) {
	for _, name := range []string{"states.json", "states.yaml"} {
		t.Run(name, func(t *testing.T) {
			store, err := document.Open(context.Background(), filepath.Join(t.TempDir(), name))
			require.NoError(t, err)
			ports.RunStateStoreContract(t, store)
		})
	}
}

func TestDocumentStore_PersistsAcrossOpen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "states.json")

	store, err := document.Open(ctx, path)
	require.NoError(t, err)
	require.NoError(t, store.Save(ctx, "k", &domain.State{
		Collection:   []string{"red", "green"},
		CurrentIndex: 1,
		Initialized:  true,
		Direction:    domain.DirectionBackward,
	}))

	reopened, err := document.Open(ctx, path)
	require.NoError(t, err)
	state, err := reopened.Load(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []string{"red", "green"}, state.Collection)
	assert.Equal(t, 1, state.CurrentIndex)
	assert.Equal(t, domain.DirectionBackward, state.Direction)
}

func TestDocumentStore_OverwriteNeverRemovesDocument(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("rename cannot replace an existing file on windows")
	}
	ctx := context.Background()
	dir := t.TempDir()
	path := filepath.Join(dir, "states.json")

	store, err := document.Open(ctx, path)
	require.NoError(t, err)
	require.NoError(t, store.Save(ctx, "k", domain.NewState()))

	var missing atomic.Int64
	done := make(chan struct{})
	stopped := make(chan struct{})
	go func() {
		defer close(stopped)
		for {
			select {
			case <-done:
				return
			default:
			}
			if _, err := os.Stat(path); os.IsNotExist(err) {
				missing.Add(1)
			}
		}
	}()

	for i := range 200 {
		require.NoError(t, store.Save(ctx, "k", &domain.State{
			Collection:   []string{"a", "b"},
			CurrentIndex: i % 2,
			Initialized:  true,
			Direction:    domain.DirectionForward,
		}))
	}
	close(done)
	<-stopped

	assert.Zero(t, missing.Load(), "the document must stay in place while it is replaced")

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1, "no temp files are left behind")

	reopened, err := document.Open(ctx, path)
	require.NoError(t, err)
	state, err := reopened.Load(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, 1, state.CurrentIndex)
}

func TestDocumentStore_ReadsReferenceFormat(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), document.DefaultPath)
	raw := `{
    "default": {
        "collection": ["a", "b", "c"],
        "initialized": true,
        "ping_pong_direction": -1,
        "current_index": 1
    }
}`
	require.NoError(t, os.WriteFile(path, []byte(raw), 0o644))

	store, err := document.Open(ctx, path)
	require.NoError(t, err)
	state, err := store.Load(ctx, "default")
	require.NoError(t, err)
	assert.Equal(t, 1, state.CurrentIndex)
	assert.Equal(t, -1, state.Direction)
	assert.True(t, state.Initialized)
}

func TestDocumentStore_MalformedIsEmpty(t *testing.T) {
	ctx := context.Background()
	for name, content := range map[string]string{
		"states.json": "{\"k\": [1, 2",
		"states.yaml": "k: [unterminated",
		"blank.json":  "   \n",
	} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), name)
			require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

			store, err := document.Open(ctx, path)
			require.NoError(t, err)
			keys, err := store.List(ctx)
			require.NoError(t, err)
			assert.Empty(t, keys)

			// And it recovers on the next write.
			require.NoError(t, store.Save(ctx, "k", domain.NewState()))
			all, err := store.LoadAll(ctx)
			require.NoError(t, err)
			assert.Contains(t, all, "k")
		})
	}
}

func TestDocumentStore_NormalizesRecords(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "states.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"k": {"collection": ["a"], "current_index": 9}, "nil": null}`), 0o644))

	store, err := document.Open(ctx, path)
	require.NoError(t, err)

	keys, _ := store.List(ctx)
	assert.Equal(t, []string{"k"}, keys)

	state, err := store.Load(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, 0, state.CurrentIndex)
	assert.Equal(t, domain.DirectionForward, state.Direction)
}

func TestDocumentStore_SaveFailureKeepsMemory(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	blocker := filepath.Join(dir, "blocker")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o644))

	// The parent "directory" is a regular file, so every write fails.
	store, err := document.Open(ctx, filepath.Join(blocker, "states.json"))
	require.NoError(t, err)

	err = store.Save(ctx, "k", domain.NewState())
	require.Error(t, err)

	_, err = store.Load(ctx, "k")
	assert.ErrorIs(t, err, domain.ErrStateNotFound)
}
