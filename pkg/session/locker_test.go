package session_test

import (
	"context"
	"sync"
	"time"

	"github.com/aretw0/nestflow/pkg/ports"
)

type recordingLocker struct {
	mu   sync.Mutex
	keys []string
}

func (l *recordingLocker) Lock(_ context.Context, key string, _ time.Duration) (ports.UnlockFunc, error) {
	l.mu.Lock()
	l.keys = append(l.keys, key)
	l.mu.Unlock()
	return func(context.Context) error { return nil }, nil
}
