package redis

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/aretw0/headless"
	"github.com/aretw0/headless/pkg/terminal"
	backend "github.com/redis/go-redis/v9"
)

// Source is a line source fed by a Redis list.
type Source struct {
	client   *backend.Client
	key      string
	timeout  time.Duration
	logger   *slog.Logger
	maxInput int

	lines     chan string
	ctx       context.Context
	cancel    context.CancelFunc
	startOnce sync.Once
}

// NewSource creates a source popping from DefaultInputKey unless WithKey is given.
func NewSource(client *backend.Client, opts ...Option) *Source {
	cfg := newConfig(DefaultInputKey, opts)
	ctx, cancel := context.WithCancel(context.Background())
	return &Source{
		client:   client,
		key:      cfg.fullKey(),
		timeout:  cfg.timeout,
		logger:   cfg.logger,
		maxInput: cfg.maxInput,
		lines:    make(chan string, cfg.bufSize),
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Key returns the list the source pops from.
func (s *Source) Key() string {
	return s.key
}

// Build attaches the source to app.
func (s *Source) Build(app *headless.App) error {
	app.AddLineSource(s)
	return nil
}

// Lines implements headless.LineSource. Polling starts on the first call.
func (s *Source) Lines() <-chan string {
	s.startOnce.Do(func() {
		go s.poll()
	})
	return s.lines
}

// Close stops polling. The channel is closed once the current BLPOP returns.
func (s *Source) Close() {
	s.cancel()
}

func (s *Source) poll() {
	defer close(s.lines)
	for {
		if s.ctx.Err() != nil {
			return
		}

		res, err := s.client.BLPop(s.ctx, s.timeout, s.key).Result()
		if errors.Is(err, backend.Nil) {
			continue
		}
		if err != nil {
			if s.ctx.Err() != nil {
				return
			}
			s.logger.Error("redis source read failed", "key", s.key, "err", err)
			return
		}
		if len(res) != 2 {
			continue
		}

		line, err := terminal.Sanitize(res[1], s.maxInput)
		if err != nil {
			s.logger.Warn("redis source rejected line", "key", s.key, "err", err)
			continue
		}

		select {
		case s.lines <- line:
		case <-s.ctx.Done():
			return
		}
	}
}
