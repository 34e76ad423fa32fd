package editor

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/aretw0/nestflow/pkg/adapters/memory"
	"github.com/aretw0/nestflow/pkg/domain"
	"github.com/aretw0/nestflow/pkg/graph"
	"github.com/aretw0/nestflow/pkg/ports/tests"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApply_SavesOnlyWhenChanged(t *testing.T) {
	ctx := context.Background()
	modules := memory.NewModuleStore(tests.FixtureModule("mod-1"))

	var saves []error
	var seen []graph.Change
	svc := New(modules,
		WithSaveObserver(func(err error) { saves = append(saves, err) }),
		WithListener(func(c graph.Change) { seen = append(seen, c) }),
	)

	res, err := svc.Apply(ctx, "mod-1", func(ws *Workspace) error {
		ws.Canvas.DeleteNode("node-ghost")
		return nil
	})
	require.NoError(t, err)
	assert.Empty(t, res.Changes)
	assert.Empty(t, saves, "no-op edits are not written")

	res, err = svc.Apply(ctx, "mod-1", func(ws *Workspace) error {
		ws.Canvas.Drag("node-intro", domain.Position{X: 1.5, Y: 2.4})
		return nil
	})
	require.NoError(t, err)
	require.Len(t, res.Changes, 1)
	assert.Equal(t, graph.OpMove, res.Changes[0].Op)
	assert.Equal(t, []error{nil}, saves)
	assert.Equal(t, res.Changes, seen)

	n, ok := res.Node("node-intro")
	require.True(t, ok)
	assert.Equal(t, domain.Position{X: 2, Y: 2}, n.Position)

	stored, err := modules.Load(ctx, "mod-1")
	require.NoError(t, err)
	assert.Equal(t, domain.Position{X: 2, Y: 2}, stored.Content.Nodes[0].Position)
}

func TestApply_ErrorDiscardsEdit(t *testing.T) {
	ctx := context.Background()
	modules := memory.NewModuleStore(tests.FixtureModule("mod-1"))
	svc := New(modules)

	boom := errors.New("boom")
	_, err := svc.Apply(ctx, "mod-1", func(ws *Workspace) error {
		ws.Canvas.DeleteNode("node-video")
		return boom
	})
	require.ErrorIs(t, err, boom)

	res, err := svc.Snapshot(ctx, "mod-1")
	require.NoError(t, err)
	assert.Len(t, res.Nodes, len(tests.FixtureNodes()))
}

func TestApply_MissingModule(t *testing.T) {
	svc := New(memory.NewModuleStore())
	_, err := svc.Apply(context.Background(), "nope", func(*Workspace) error { return nil })
	assert.ErrorIs(t, err, domain.ErrModuleNotFound)
}

func TestApply_ConcurrentEditsAreSerialized(t *testing.T) {
	ctx := context.Background()
	modules := memory.NewModuleStore(domain.NewModule("mod-1", "Intro"))
	svc := New(modules)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Apply(ctx, "mod-1", func(ws *Workspace) error {
				ws.Graph.AddNode(domain.NodeTypeMessage)
				return nil
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	res, err := svc.Snapshot(ctx, "mod-1")
	require.NoError(t, err)
	assert.Len(t, res.Nodes, 10, "no edit may be lost")
}

func TestUpdate(t *testing.T) {
	ctx := context.Background()
	modules := memory.NewModuleStore(tests.FixtureModule("mod-1"))
	svc := New(modules)

	m, err := svc.Update(ctx, "mod-1", func(m *domain.Module) {
		m.Visibility = domain.VisibilityPublic
	})
	require.NoError(t, err)
	assert.Equal(t, domain.VisibilityPublic, m.Visibility)
	assert.True(t, m.UpdatedAt.After(m.CreatedAt))
	assert.Len(t, m.Content.Nodes, len(tests.FixtureNodes()))
}
