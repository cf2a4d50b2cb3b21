package http

import (
	"log/slog"
	"sync"
)

// StreamManager fans output messages out to subscribers.
type StreamManager struct {
	mu          sync.RWMutex
	subscribers map[chan string]struct{}
	bufSize     int
	logger      *slog.Logger
	closed      bool
}

// NewStreamManager creates a manager whose subscribers buffer up to bufSize messages.
func NewStreamManager(bufSize int, logger *slog.Logger) *StreamManager {
	if bufSize <= 0 {
		bufSize = 64
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &StreamManager{
		subscribers: make(map[chan string]struct{}),
		bufSize:     bufSize,
		logger:      logger,
	}
}

// Subscribe returns a channel of messages and the function that ends the subscription.
func (sm *StreamManager) Subscribe() (<-chan string, func()) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	ch := make(chan string, sm.bufSize)
	if sm.closed {
		close(ch)
		return ch, func() {}
	}
	sm.subscribers[ch] = struct{}{}

	return ch, func() {
		sm.mu.Lock()
		defer sm.mu.Unlock()
		if _, ok := sm.subscribers[ch]; ok {
			delete(sm.subscribers, ch)
			close(ch)
		}
	}
}

// Broadcast delivers msg to every subscriber without blocking. Slow subscribers miss messages.
func (sm *StreamManager) Broadcast(msg string) {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	for ch := range sm.subscribers {
		select {
		case ch <- msg:
		default:
			sm.logger.Warn("stream subscriber buffer full, dropping message")
		}
	}
}

// CloseAll ends every subscription. Later subscriptions start closed.
func (sm *StreamManager) CloseAll() {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	sm.closed = true
	for ch := range sm.subscribers {
		delete(sm.subscribers, ch)
		close(ch)
	}
}

// Count returns the number of active subscribers.
func (sm *StreamManager) Count() int {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return len(sm.subscribers)
}
