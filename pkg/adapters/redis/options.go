package redis

import (
	"log/slog"
	"time"
)

const (
	// DefaultInputKey is the list lines are popped from.
	DefaultInputKey = "headless:input"
	// DefaultOutputKey is the list output lines are pushed to.
	DefaultOutputKey = "headless:output"
	// DefaultPollTimeout bounds each BLPOP. go-redis rounds shorter blocking timeouts up to one second.
	DefaultPollTimeout = time.Second
)

type config struct {
	prefix  string
	key     string
	timeout time.Duration
	logger   *slog.Logger
	bufSize  int
	maxInput int
}

// Option configures a Source or a Sink.
type Option func(*config)

// WithPrefix prepends a namespace to the list key.
func WithPrefix(prefix string) Option {
	return func(c *config) {
		c.prefix = prefix
	}
}

// WithKey overrides the list key.
func WithKey(key string) Option {
	return func(c *config) {
		if key != "" {
			c.key = key
		}
	}
}

// WithTimeout sets the BLPOP timeout of a Source or the write timeout of a Sink.
func WithTimeout(d time.Duration) Option {
	return func(c *config) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithLogger configures the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *config) {
		c.logger = logger
	}
}

// WithBufferSize sets how many popped lines a Source buffers.
func WithBufferSize(n int) Option {
	return func(c *config) {
		if n > 0 {
			c.bufSize = n
		}
	}
}

// WithMaxInputSize sets the longest line a Source accepts. Defaults to terminal.MaxInputSize.
func WithMaxInputSize(n int) Option {
	return func(c *config) {
		if n > 0 {
			c.maxInput = n
		}
	}
}

func newConfig(key string, opts []Option) config {
	c := config{
		key:     key,
		timeout: DefaultPollTimeout,
		logger:  slog.New(slog.DiscardHandler),
		bufSize: 64,
	}
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

func (c config) fullKey() string {
	return c.prefix + c.key
}
