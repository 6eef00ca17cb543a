package middleware_test

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"io"
	"testing"

	"github.com/aretw0/selector/pkg/adapters/memory"
	"github.com/aretw0/selector/pkg/domain"
	"github.com/aretw0/selector/pkg/persistence/middleware"
	"github.com/aretw0/selector/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func generateKey(t *testing.T) []byte {
	k := make([]byte, middleware.KeySize)
	if _, err := io.ReadFull(rand.Reader, k); err != nil {
		t.Fatal(err)
	}
	return k
}

func sampleState() *domain.State {
	return &domain.State{
		Collection:   []string{"secret-a", "secret-b", "secret-c"},
		CurrentIndex: 2,
		Initialized:  true,
		Direction:    domain.DirectionBackward,
	}
}

func TestEncryptionMiddleware_Contract(t *testing.T) {
	mw := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: generateKey(t)})
	ports.RunStateStoreContract(t, mw(memory.NewStore()))
}

func TestEncryptionMiddleware_Roundtrip(t *testing.T) {
	underlyingStore := memory.NewStore()
	mw := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: generateKey(t)})
	secureStore := mw(underlyingStore)

	ctx := context.Background()
	require.NoError(t, secureStore.Save(ctx, "tab", sampleState()))

	// The underlying record is an opaque envelope.
	stored, err := underlyingStore.Load(ctx, "tab")
	require.NoError(t, err)
	assert.Empty(t, stored.Collection)
	assert.False(t, stored.Initialized)
	assert.NotEmpty(t, stored.Sealed)
	assert.NotContains(t, stored.Sealed, "secret-a")

	loaded, err := secureStore.Load(ctx, "tab")
	require.NoError(t, err)
	assert.Equal(t, sampleState().Collection, loaded.Collection)
	assert.Equal(t, 2, loaded.CurrentIndex)
	assert.Equal(t, domain.DirectionBackward, loaded.Direction)
	assert.Empty(t, loaded.Sealed)
}

func TestEncryptionMiddleware_KeyRotation(t *testing.T) {
	underlyingStore := memory.NewStore()
	oldKey := generateKey(t)
	newKey := generateKey(t)

	secureStoreOld := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: oldKey})(underlyingStore)

	ctx := context.Background()
	require.NoError(t, secureStoreOld.Save(ctx, "rotation", sampleState()))

	secureStoreNew := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{
		ActiveKey:    newKey,
		FallbackKeys: [][]byte{oldKey},
	})(underlyingStore)

	loaded, err := secureStoreNew.Load(ctx, "rotation")
	require.NoError(t, err, "fallback key must decrypt old records")
	assert.Equal(t, 2, loaded.CurrentIndex)

	loaded.CurrentIndex = 1
	require.NoError(t, secureStoreNew.Save(ctx, "rotation", loaded))

	_, err = secureStoreOld.Load(ctx, "rotation")
	assert.Error(t, err, "records re-saved with the new key are unreadable with only the old one")
}

func TestEncryptionMiddleware_RefusesPlainRecords(t *testing.T) {
	underlyingStore := memory.NewStore()
	ctx := context.Background()
	require.NoError(t, underlyingStore.Save(ctx, "plain", sampleState()))

	secureStore := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: generateKey(t)})(underlyingStore)
	_, err := secureStore.Load(ctx, "plain")
	assert.Error(t, err)

	_, err = secureStore.Load(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrStateNotFound)
}

func TestEncryptionMiddleware_InvalidKey(t *testing.T) {
	assert.Panics(t, func() {
		middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: []byte("short-key")})
	})
}

func TestParseKey(t *testing.T) {
	key := generateKey(t)

	got, err := middleware.ParseKey(base64.StdEncoding.EncodeToString(key))
	require.NoError(t, err)
	assert.Equal(t, key, got)

	got, err = middleware.ParseKey(hex.EncodeToString(key))
	require.NoError(t, err)
	assert.Equal(t, key, got)

	_, err = middleware.ParseKey("too-short")
	assert.Error(t, err)
}

func TestChain(t *testing.T) {
	var order []string
	tag := func(name string) middleware.Middleware {
		return func(next ports.StateStore) ports.StateStore {
			return &tagStore{StateStore: next, name: name, order: &order}
		}
	}

	store := middleware.Chain(memory.NewStore(), tag("outer"), tag("inner"))
	require.NoError(t, store.Save(context.Background(), "k", domain.NewState()))
	assert.Equal(t, []string{"outer", "inner"}, order)
}

type tagStore struct {
	ports.StateStore
	name  string
	order *[]string
}

func (s *tagStore) Save(ctx context.Context, key string, state *domain.State) error {
	*s.order = append(*s.order, s.name)
	return s.StateStore.Save(ctx, key, state)
}
