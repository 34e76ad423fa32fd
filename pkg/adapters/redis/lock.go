package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aretw0/nestflow/pkg/ports"
	"github.com/google/uuid"
	backend "github.com/redis/go-redis/v9"
)

var (
	// ErrLockAcquire wraps a backend failure while trying to take a lock.
	ErrLockAcquire = errors.New("failed to acquire distributed lock")
	// ErrLockLost is returned on unlock when the key expired or now belongs to another holder.
	ErrLockLost = errors.New("distributed lock no longer held")
)

// releaseScript deletes KEYS[1] only while it still carries the holder token ARGV[1].
var releaseScript = backend.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
end
return 0
`)

// Locker implements ports.DistributedLocker with SET NX PX and a token-checked release.
type Locker struct {
	client *backend.Client
	prefix string
	retry  time.Duration
}

// LockerOption configures a Locker.
type LockerOption func(*Locker)

// WithRetryInterval sets how often a blocked Lock retries. Default 100ms.
func WithRetryInterval(d time.Duration) LockerOption {
	return func(l *Locker) { l.retry = d }
}

// NewLocker creates a locker whose keys are prefix+key, e.g. "nestflow:lock:module:intro".
func NewLocker(client *backend.Client, prefix string, opts ...LockerOption) *Locker {
	l := &Locker{client: client, prefix: prefix, retry: 100 * time.Millisecond}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Lock blocks until key is free or ctx is done.
func (l *Locker) Lock(ctx context.Context, key string, ttl time.Duration) (ports.UnlockFunc, error) {
	redisKey := l.prefix + key
	token := uuid.NewString()

	for {
		ok, err := l.client.SetNX(ctx, redisKey, token, ttl).Result()
		switch {
		case ctx.Err() != nil:
			return nil, ctx.Err()
		case err != nil:
			return nil, fmt.Errorf("%w: %s: %w", ErrLockAcquire, key, err)
		case ok:
			return l.release(redisKey, token), nil
		}

		wait := time.NewTimer(l.retry)
		select {
		case <-ctx.Done():
			wait.Stop()
			return nil, ctx.Err()
		case <-wait.C:
		}
	}
}

func (l *Locker) release(redisKey, token string) ports.UnlockFunc {
	return func(ctx context.Context) error {
		n, err := releaseScript.Run(ctx, l.client, []string{redisKey}, token).Int()
		if err != nil {
			return err
		}
		if n == 0 {
			return ErrLockLost
		}
		return nil
	}
}
