package cli

import (
	"context"
	"errors"
	"log/slog"

	"github.com/aretw0/headless/internal/config"
	mcpadapter "github.com/aretw0/headless/pkg/adapters/mcp"
	"github.com/aretw0/headless/pkg/runner"
	"golang.org/x/sync/errgroup"
)

// errStdioClosed ends the runner once the MCP client hangs up.
var errStdioClosed = errors.New("mcp client disconnected")

func newMCPServer(cfg config.Config, logger *slog.Logger) *mcpadapter.Server {
	return mcpadapter.NewServer(
		mcpadapter.WithLogger(logger),
		mcpadapter.WithMaxInputSize(cfg.MaxInputSize),
	)
}

// ServeMCP runs the console as an MCP server on the standard streams until the client
// disconnects, ctx is done or a tool call runs exit. Stdout carries only protocol messages.
func ServeMCP(ctx context.Context, opts RunOptions) error {
	cfg, err := loadConfig(opts)
	if err != nil {
		return err
	}
	logger, closer := createLogger(cfg, opts.Debug)
	defer closer.Close()
	in, out := opts.streams()

	app := createApp(cfg, logger, nil)
	assistant := newMCPServer(cfg, logger)
	defer assistant.Close()
	if err := app.AddPlugin(assistant); err != nil {
		return err
	}

	r := runner.NewRunner(app,
		runner.WithLogger(logger),
		runner.WithInterval(cfg.TickInterval),
		runner.WithSignals(opts.Signals),
	)

	ctx, cancel := context.WithCancelCause(ctx)
	defer cancel(nil)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		err := assistant.ServeStdio(gctx, in, out)
		logger.Debug("mcp stdio closed", "err", err)
		cancel(errStdioClosed)
		return nil
	})
	g.Go(func() error {
		err := r.Run(gctx)
		cancel(nil)
		return handleExecutionError(err)
	})

	err = g.Wait()
	logger.Debug("mcp console stopped", "err", err, "cause", context.Cause(ctx))
	return handleExecutionError(err)
}
