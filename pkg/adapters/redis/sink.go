package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/aretw0/headless"
	"github.com/aretw0/headless/pkg/domain"
	"github.com/aretw0/headless/pkg/events"
	backend "github.com/redis/go-redis/v9"
)

// Sink pushes every output line to a Redis list as JSON.
type Sink struct {
	client  *backend.Client
	key     string
	timeout time.Duration
	out     *events.Reader[domain.OutputLine]
}

// NewSink creates a sink pushing to DefaultOutputKey unless WithKey is given.
func NewSink(client *backend.Client, opts ...Option) *Sink {
	cfg := newConfig(DefaultOutputKey, opts)
	return &Sink{
		client:  client,
		key:     cfg.fullKey(),
		timeout: cfg.timeout,
	}
}

// Key returns the list the sink pushes to.
func (s *Sink) Key() string {
	return s.key
}

// Build registers the sink in the PostCommands phase of app.
func (s *Sink) Build(app *headless.App) error {
	s.out = app.OutputReader()
	return app.AddSystem(domain.PhasePostCommands, "redis_output", s.flush)
}

func (s *Sink) flush(ctx context.Context) error {
	lines := headless.Ordered(s.out.Read())
	if len(lines) == 0 {
		return nil
	}

	values := make([]any, 0, len(lines))
	for _, l := range lines {
		data, err := json.Marshal(l)
		if err != nil {
			return fmt.Errorf("encode output line: %w", err)
		}
		values = append(values, data)
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	if err := s.client.RPush(ctx, s.key, values...).Err(); err != nil {
		return fmt.Errorf("redis rpush %s: %w", s.key, err)
	}
	return nil
}
