package cli

import (
	"context"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
)

// SignalContext is cancelled by SIGINT or SIGTERM and remembers which one arrived.
type SignalContext struct {
	context.Context
	Cancel context.CancelFunc

	received atomic.Value
}

// NewSignalContext listens for termination signals until parent is done or Cancel is called.
func NewSignalContext(parent context.Context) *SignalContext {
	ctx, cancel := context.WithCancel(parent)
	sc := &SignalContext{Context: ctx, Cancel: cancel}

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, os.Interrupt, syscall.SIGTERM)
	go func() {
		defer signal.Stop(sigs)
		select {
		case sig := <-sigs:
			sc.received.Store(sig)
			cancel()
		case <-ctx.Done():
		}
	}()
	return sc
}

// Signal returns the signal that stopped the context, or nil.
func (sc *SignalContext) Signal() os.Signal {
	sig, _ := sc.received.Load().(os.Signal)
	return sig
}
