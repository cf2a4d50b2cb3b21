package runner

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"
)

// SignalManager cancels a context when the process receives SIGINT or SIGTERM
// and remembers which signal did it.
type SignalManager struct {
	ctx    context.Context
	cancel context.CancelFunc
	sigCh  chan os.Signal

	mu  sync.Mutex
	sig os.Signal
}

// NewSignalManager derives a context from parent and starts listening for signals.
func NewSignalManager(parent context.Context) *SignalManager {
	if parent == nil {
		parent = context.Background()
	}
	ctx, cancel := context.WithCancel(parent)
	sm := &SignalManager{
		ctx:    ctx,
		cancel: cancel,
		sigCh:  make(chan os.Signal, 1),
	}
	signal.Notify(sm.sigCh, os.Interrupt, syscall.SIGTERM)
	go sm.watch()
	return sm
}

func (sm *SignalManager) watch() {
	defer signal.Stop(sm.sigCh)
	select {
	case sig := <-sm.sigCh:
		sm.mu.Lock()
		sm.sig = sig
		sm.mu.Unlock()
		sm.cancel()
	case <-sm.ctx.Done():
	}
}

// Context is cancelled by a signal, by Stop or by the parent.
func (sm *SignalManager) Context() context.Context {
	return sm.ctx
}

// Signal returns the signal that cancelled the context, or nil.
func (sm *SignalManager) Signal() os.Signal {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	return sm.sig
}

// Stop cancels the context and stops listening.
func (sm *SignalManager) Stop() {
	sm.cancel()
}
