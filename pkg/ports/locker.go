package ports

import (
	"context"
	"time"
)

// UnlockFunc releases a lock obtained from a DistributedLocker.
type UnlockFunc func(ctx context.Context) error

// DistributedLocker grants exclusive ownership of a key across processes.
//
// Session transitions lock "session:<id>" and autosave writes lock "module:<id>".
// Lock blocks until the key is free or ctx is done. The lock expires after ttl
// if the holder never calls the returned UnlockFunc.
type DistributedLocker interface {
	Lock(ctx context.Context, key string, ttl time.Duration) (UnlockFunc, error)
}
