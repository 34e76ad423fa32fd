package redis_test

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/nestflow/pkg/adapters/redis"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocker_Release(t *testing.T) {
	mr, client := newClient(t)
	locker := redis.NewLocker(client, "nf:")
	ctx := context.Background()

	unlock, err := locker.Lock(ctx, "module:intro", 5*time.Second)
	require.NoError(t, err)
	assert.True(t, mr.Exists("nf:module:intro"))
	assert.Equal(t, 5*time.Second, mr.TTL("nf:module:intro"))

	require.NoError(t, unlock(ctx))
	assert.False(t, mr.Exists("nf:module:intro"))
}

func TestLocker_WaitsForHolder(t *testing.T) {
	_, client := newClient(t)
	first := redis.NewLocker(client, "nf:")
	second := redis.NewLocker(client, "nf:", redis.WithRetryInterval(10*time.Millisecond))
	ctx := context.Background()

	unlock, err := first.Lock(ctx, "session:s1", 5*time.Second)
	require.NoError(t, err)

	short, cancel := context.WithTimeout(ctx, 100*time.Millisecond)
	defer cancel()
	_, err = second.Lock(short, "session:s1", 5*time.Second)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	require.NoError(t, unlock(ctx))
	unlock2, err := second.Lock(ctx, "session:s1", 5*time.Second)
	require.NoError(t, err)
	assert.NoError(t, unlock2(ctx))
}

func TestLocker_ExpiredHolderCannotReleaseNewOwner(t *testing.T) {
	mr, client := newClient(t)
	locker := redis.NewLocker(client, "nf:")
	ctx := context.Background()

	stale, err := locker.Lock(ctx, "module:m", time.Second)
	require.NoError(t, err)

	mr.FastForward(2 * time.Second)
	current, err := locker.Lock(ctx, "module:m", 5*time.Second)
	require.NoError(t, err)

	assert.ErrorIs(t, stale(ctx), redis.ErrLockLost)
	assert.True(t, mr.Exists("nf:module:m"))
	assert.NoError(t, current(ctx))
}
