package middleware_test

import (
	"context"
	"crypto/rand"
	"testing"

	"github.com/aretw0/nestflow/pkg/adapters/memory"
	"github.com/aretw0/nestflow/pkg/domain"
	"github.com/aretw0/nestflow/pkg/persistence/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newKey(t *testing.T) []byte {
	t.Helper()
	k := make([]byte, 32)
	_, err := rand.Read(k)
	require.NoError(t, err)
	return k
}

func encrypted(key []byte, fallback ...[]byte) middleware.Middleware {
	return middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: key, FallbackKeys: fallback})
}

func TestEncryption_SealsEverythingButRouting(t *testing.T) {
	ctx := context.Background()
	raw := memory.NewSessionStore()
	store := encrypted(newKey(t))(raw)

	state := domain.NewState("module-1", 2, "node-name")
	state.SessionID = "s1"
	state.Responses["node-name"] = domain.TextResponse("my-secret-sauce")
	require.NoError(t, store.Save(ctx, "s1", state))

	stored, err := raw.Load(ctx, "s1")
	require.NoError(t, err)
	assert.NotContains(t, stored.Responses, "node-name")
	assert.Empty(t, stored.History)
	assert.Equal(t, -1, stored.CurrentIndex)
	assert.Equal(t, "module-1", stored.ModuleID)
	assert.Equal(t, domain.StatusPlaying, stored.Status)
	assert.NotContains(t, stored.Responses["__encrypted__"].Text, "my-secret-sauce")

	loaded, err := store.Load(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "my-secret-sauce", loaded.Responses["node-name"].Text)
	assert.Equal(t, 2, loaded.CurrentIndex)
	assert.Equal(t, []string{"node-name"}, loaded.History)
}

func TestEncryption_KeyRotation(t *testing.T) {
	ctx := context.Background()
	raw := memory.NewSessionStore()
	oldKey, activeKey := newKey(t), newKey(t)
	oldStore := encrypted(oldKey)(raw)
	newStore := encrypted(activeKey, oldKey)(raw)

	state := domain.NewState("module-1", 0, "node-name")
	state.Responses["node-name"] = domain.TextResponse("sealed with the old key")
	require.NoError(t, oldStore.Save(ctx, "s1", state))

	loaded, err := newStore.Load(ctx, "s1")
	require.NoError(t, err, "fallback keys open older states")
	assert.Equal(t, "sealed with the old key", loaded.Responses["node-name"].Text)

	require.NoError(t, newStore.Save(ctx, "s1", loaded))
	_, err = oldStore.Load(ctx, "s1")
	assert.Error(t, err, "re-saved states use the active key only")
}

func TestEncryption_PlainStateRejected(t *testing.T) {
	ctx := context.Background()
	raw := memory.NewSessionStore()
	require.NoError(t, raw.Save(ctx, "plain", domain.NewState("module-1", 0, "node-intro")))

	_, err := encrypted(newKey(t))(raw).Load(ctx, "plain")
	assert.ErrorIs(t, err, middleware.ErrNoEnvelope)
}

func TestEncryption_PassesThroughMissing(t *testing.T) {
	_, err := encrypted(newKey(t))(memory.NewSessionStore()).Load(context.Background(), "nope")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}

func TestEncryption_InvalidKeys(t *testing.T) {
	assert.Panics(t, func() { encrypted([]byte("short-key")) })
	assert.Panics(t, func() { encrypted(newKey(t), []byte("short-fallback")) })
}
