package session

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/aretw0/nestflow/pkg/adapters/memory"
	"github.com/aretw0/nestflow/pkg/domain"
	"github.com/aretw0/nestflow/pkg/ports/tests"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManager_LocksAreReleased(t *testing.T) {
	modules := memory.NewModuleStore(tests.FixtureModule("mod-1"))
	mgr := NewManager(memory.NewSessionStore(), modules)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			state, err := mgr.Start(ctx, "mod-1")
			if !assert.NoError(t, err) {
				return
			}
			_, err = mgr.Advance(ctx, state.SessionID, domain.Continue(domain.NodeTypeMessage))
			assert.NoError(t, err)
			assert.NoError(t, mgr.Delete(ctx, state.SessionID))
		}()
	}
	wg.Wait()

	mgr.mu.Lock()
	defer mgr.mu.Unlock()
	assert.Empty(t, mgr.locks, "every session lock is dropped once its last holder leaves")
}

func TestManager_LockReleasedOnError(t *testing.T) {
	mgr := NewManager(memory.NewSessionStore(), memory.NewModuleStore())
	ctx := context.Background()

	_, err := mgr.Advance(ctx, "missing", domain.Continue(domain.NodeTypeMessage))
	require.ErrorIs(t, err, domain.ErrSessionNotFound)

	boom := errors.New("boom")
	assert.ErrorIs(t, mgr.WithLock(ctx, "s1", func(context.Context) error { return boom }), boom)

	mgr.mu.Lock()
	defer mgr.mu.Unlock()
	assert.Empty(t, mgr.locks)
}
