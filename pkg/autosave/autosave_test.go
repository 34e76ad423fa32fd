package autosave_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/aretw0/nestflow/pkg/adapters/memory"
	"github.com/aretw0/nestflow/pkg/autosave"
	"github.com/aretw0/nestflow/pkg/domain"
	"github.com/aretw0/nestflow/pkg/graph"
	"github.com/aretw0/nestflow/pkg/persistence"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// countingStore wraps a ContentStore and counts writes. fail makes SaveContent return an error.
type countingStore struct {
	next  *persistence.ContentStore
	saves atomic.Int32
	fail  atomic.Bool
}

func (c *countingStore) LoadContent(ctx context.Context, id string) (domain.Content, error) {
	return c.next.LoadContent(ctx, id)
}

func (c *countingStore) SaveContent(ctx context.Context, id string, content domain.Content) error {
	c.saves.Add(1)
	if c.fail.Load() {
		return errors.New("network down")
	}
	return c.next.SaveContent(ctx, id, content)
}

func setup(t *testing.T) (*memory.ModuleStore, *countingStore, *graph.Store) {
	t.Helper()
	modules := memory.NewModuleStore(domain.NewModule("m1", "Module"))
	store := &countingStore{next: persistence.NewContentStore(modules)}
	g := graph.NewStore()
	require.NoError(t, autosave.Load(context.Background(), store, "m1", g))
	return modules, store, g
}

func TestSaver_DebouncesBursts(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	modules, store, g := setup(t)
	saver := autosave.New("m1", g, store,
		autosave.WithDebounce(50*time.Millisecond),
		autosave.WithResetDelays(time.Hour, time.Hour),
	)
	saver.Watch(ctx)

	for i := 0; i < 5; i++ {
		g.AddNode(domain.NodeTypeMessage)
	}
	assert.True(t, saver.Status().Pending)

	require.Eventually(t, func() bool {
		return saver.Status().Status == autosave.StatusSaved
	}, time.Second, 10*time.Millisecond)
	assert.Equal(t, int32(1), store.saves.Load())

	m, err := modules.Load(ctx, "m1")
	require.NoError(t, err)
	assert.Len(t, m.Content.Nodes, 5)
}

func TestSaver_ExplicitSaveBypassesDebounce(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	_, store, g := setup(t)
	saver := autosave.New("m1", g, store, autosave.WithDebounce(time.Hour))
	saver.Watch(ctx)

	g.AddNode(domain.NodeTypeRouter)
	require.NoError(t, saver.Save(ctx))

	snap := saver.Status()
	assert.Equal(t, autosave.StatusSaved, snap.Status)
	assert.False(t, snap.Pending)
	assert.False(t, snap.LastSaved.IsZero())
	assert.Equal(t, int32(1), store.saves.Load())
}

func TestSaver_StatusResets(t *testing.T) {
	ctx := context.Background()
	_, store, g := setup(t)

	var mu sync.Mutex
	var seen []autosave.Status
	saver := autosave.New("m1", g, store,
		autosave.WithResetDelays(30*time.Millisecond, 30*time.Millisecond),
		autosave.WithStatusListener(func(s autosave.Snapshot) {
			mu.Lock()
			seen = append(seen, s.Status)
			mu.Unlock()
		}),
	)

	require.NoError(t, saver.Save(ctx))
	require.Eventually(t, func() bool {
		return saver.Status().Status == autosave.StatusIdle
	}, time.Second, 5*time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []autosave.Status{autosave.StatusSaving, autosave.StatusSaved, autosave.StatusIdle}, seen)
}

func TestSaver_ErrorKeepsGraph(t *testing.T) {
	ctx := context.Background()
	_, store, g := setup(t)
	store.fail.Store(true)

	var observed []error
	saver := autosave.New("m1", g, store,
		autosave.WithResetDelays(time.Hour, time.Hour),
		autosave.WithSaveObserver(func(err error) { observed = append(observed, err) }),
	)

	n := g.AddNode(domain.NodeTypeMessage)
	err := saver.Save(ctx)
	require.Error(t, err)

	snap := saver.Status()
	assert.Equal(t, autosave.StatusError, snap.Status)
	assert.EqualError(t, snap.Err, "network down")
	_, ok := g.Node(n.ID)
	assert.True(t, ok, "graph state is not rolled back")
	require.Len(t, observed, 1)

	saver.Dismiss()
	assert.Equal(t, autosave.StatusIdle, saver.Status().Status)

	store.fail.Store(false)
	require.NoError(t, saver.Save(ctx))
	assert.Equal(t, autosave.StatusSaved, saver.Status().Status)
}

func TestSaver_CancelDropsPendingSave(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	_, store, g := setup(t)
	saver := autosave.New("m1", g, store, autosave.WithDebounce(50*time.Millisecond))
	saver.Watch(ctx)

	g.AddNode(domain.NodeTypeMessage)
	cancel()

	time.Sleep(150 * time.Millisecond)
	assert.Equal(t, int32(0), store.saves.Load())
	assert.Equal(t, autosave.StatusIdle, saver.Status().Status)

	// Changes after cancellation are no longer observed.
	g.AddNode(domain.NodeTypeMessage)
	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, int32(0), store.saves.Load())
}

func TestSaver_SaveWithCancelledContext(t *testing.T) {
	_, store, g := setup(t)
	saver := autosave.New("m1", g, store)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, saver.Save(ctx), context.Canceled)
	assert.Equal(t, autosave.StatusIdle, saver.Status().Status)
}

func TestLoad_MissingModule(t *testing.T) {
	store := persistence.NewContentStore(memory.NewModuleStore())
	err := autosave.Load(context.Background(), store, "ghost", graph.NewStore())
	assert.ErrorIs(t, err, domain.ErrModuleNotFound)
}
