package persistence_test

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/nestflow/pkg/adapters/memory"
	"github.com/aretw0/nestflow/pkg/domain"
	"github.com/aretw0/nestflow/pkg/persistence"
	"github.com/aretw0/nestflow/pkg/ports/tests"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContentStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	modules := memory.NewModuleStore()
	module := tests.FixtureModule("m1")
	require.NoError(t, modules.Save(ctx, module))

	saved := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	store := persistence.NewContentStore(modules, persistence.WithClock(func() time.Time { return saved }))

	content, err := store.LoadContent(ctx, "m1")
	require.NoError(t, err)
	require.Len(t, content.Nodes, len(tests.FixtureNodes()))

	content.Nodes[0].Position = domain.Position{X: 10.6, Y: 20.4}
	require.NoError(t, store.SaveContent(ctx, "m1", content))

	got, err := modules.Load(ctx, "m1")
	require.NoError(t, err)
	assert.Equal(t, domain.Position{X: 11, Y: 20}, got.Content.Nodes[0].Position)
	assert.Equal(t, saved, got.UpdatedAt)
	assert.Equal(t, module.Title, got.Title, "metadata is kept")
	assert.Equal(t, module.CreatedAt, got.CreatedAt)
}

func TestContentStore_EmptyRecord(t *testing.T) {
	ctx := context.Background()
	modules := memory.NewModuleStore()
	m := domain.NewModule("empty", "Empty")
	m.Content.Nodes = nil
	require.NoError(t, modules.Save(ctx, m))

	content, err := persistence.NewContentStore(modules).LoadContent(ctx, "empty")
	require.NoError(t, err)
	assert.NotNil(t, content.Nodes)
	assert.Empty(t, content.Nodes)
}

func TestContentStore_MissingModule(t *testing.T) {
	ctx := context.Background()
	store := persistence.NewContentStore(memory.NewModuleStore())

	_, err := store.LoadContent(ctx, "ghost")
	assert.ErrorIs(t, err, domain.ErrModuleNotFound)

	err = store.SaveContent(ctx, "ghost", domain.Content{})
	assert.ErrorIs(t, err, domain.ErrModuleNotFound)
}
