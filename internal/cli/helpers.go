package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/aretw0/headless/internal/config"
	"github.com/aretw0/headless/internal/logging"
)

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// createLogger configures the application logger.
// A configured log file wins; otherwise debug mode writes to Stderr (to separate from Stdout console
// output) and normal mode discards diagnostics.
func createLogger(cfg config.Config, debug bool) (*slog.Logger, io.Closer) {
	level := cfg.LogLevel()
	if debug {
		level = slog.LevelDebug
	}
	if cfg.Log.File != "" {
		return logging.NewFile(cfg.Log.File, level)
	}
	if debug {
		return logging.New(level), nopCloser{}
	}
	return logging.NewNop(), nopCloser{}
}

// loadConfig reads the configuration named by opts.
func loadConfig(opts RunOptions) (config.Config, error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return config.Config{}, fmt.Errorf("error loading config: %w", err)
	}
	return cfg, nil
}

// printSystemMessage prints a standardized system message.
func printSystemMessage(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, ">>> %s\n", fmt.Sprintf(format, args...))
}

// handleExecutionError treats interruptions as a clean exit.
func handleExecutionError(err error) error {
	if err == nil || errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
