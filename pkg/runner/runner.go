package runner

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/aretw0/headless"
)

// Runner ticks an App until it is told to stop.
type Runner struct {
	App *headless.App

	// Interval is the time between cycles.
	Interval time.Duration

	// Logger is used for cycle diagnostics.
	// If nil, a no-op logger is used.
	Logger *slog.Logger

	// Signals makes Run stop on SIGINT and SIGTERM.
	Signals bool
}

// NewRunner creates a runner for app.
func NewRunner(app *headless.App, opts ...Option) *Runner {
	r := &Runner{
		App:      app,
		Interval: DefaultInterval,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.Logger == nil {
		r.Logger = slog.New(slog.DiscardHandler)
	}
	return r
}

// Run ticks the app until ctx is done, a signal arrives or the app requests exit.
// A cycle that reports errors is logged and the loop continues.
// It returns nil when the app exits and the context error otherwise.
func (r *Runner) Run(ctx context.Context) error {
	if r.Signals {
		signals := NewSignalManager(ctx)
		defer func() {
			if sig := signals.Signal(); sig != nil {
				r.Logger.Info("stopping on signal", "signal", sig.String())
			}
			signals.Stop()
		}()
		ctx = signals.Context()
	}

	ticker := time.NewTicker(r.Interval)
	defer ticker.Stop()

	for {
		if err := r.App.Tick(ctx); err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil && errors.Is(err, ctxErr) {
				return ctxErr
			}
			r.Logger.Warn("cycle finished with errors", "err", err)
		}

		if r.App.ExitRequested() {
			r.Logger.Debug("exit requested, stopping runner")
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
