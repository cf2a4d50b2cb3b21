package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/aretw0/headless"
	"github.com/aretw0/headless/internal/config"
	httpadapter "github.com/aretw0/headless/pkg/adapters/http"
	redisadapter "github.com/aretw0/headless/pkg/adapters/redis"
	"github.com/aretw0/headless/pkg/runner"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	backend "github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"
)

// shutdownTimeout bounds the graceful HTTP shutdown.
const shutdownTimeout = 5 * time.Second

// ServeOptions configures Serve.
type ServeOptions struct {
	RunOptions

	// Addr overrides the configured listen address.
	Addr string

	// Ready, if set, receives the listen address once the server accepts connections.
	Ready func(addr string)
}

// Serve runs the console behind HTTP, WebSocket and MCP at /mcp, plus Redis lists when configured,
// until ctx is done, a signal arrives or a client sends exit.
func Serve(ctx context.Context, opts ServeOptions) error {
	cfg, err := loadConfig(opts.RunOptions)
	if err != nil {
		return err
	}
	if opts.Addr != "" {
		cfg.HTTP.Addr = opts.Addr
	}
	logger, closer := createLogger(cfg, opts.Debug)
	defer closer.Close()
	_, out := opts.streams()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	app := createApp(cfg, logger, reg)

	assistant := newMCPServer(cfg, logger)
	defer assistant.Close()
	server := httpadapter.NewServer(
		httpadapter.WithLogger(logger),
		httpadapter.WithGatherer(reg),
		httpadapter.WithMaxInputSize(cfg.MaxInputSize),
		httpadapter.WithHandler("/mcp", assistant.Handler()),
	)
	defer server.Close()
	for _, p := range []headless.Plugin{assistant, server} {
		if err := app.AddPlugin(p); err != nil {
			return err
		}
	}

	if cfg.Redis.Addr != "" {
		client, err := attachRedis(ctx, app, cfg.Redis, cfg.MaxInputSize, logger)
		if err != nil {
			return err
		}
		defer client.Close()
		printSystemMessage(out, "Reading Redis list %s at %s", cfg.Redis.InputKey, cfg.Redis.Addr)
	}

	return serve(ctx, app, server, cfg, opts, logger, out)
}

func serve(ctx context.Context, app *headless.App, server *httpadapter.Server, cfg config.Config, opts ServeOptions, logger *slog.Logger, out io.Writer) error {
	if opts.Signals {
		signals := runner.NewSignalManager(ctx)
		defer signals.Stop()
		ctx = signals.Context()
	}

	var lc net.ListenConfig
	listener, err := lc.Listen(ctx, "tcp", cfg.HTTP.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", cfg.HTTP.Addr, err)
	}
	srv := &http.Server{
		Handler:           server.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	printSystemMessage(out, "Serving headless console on %s", listener.Addr())
	if opts.Ready != nil {
		opts.Ready(listener.Addr().String())
	}

	r := runner.NewRunner(app,
		runner.WithLogger(logger),
		runner.WithInterval(cfg.TickInterval),
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := srv.Serve(listener); !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		err := r.Run(gctx)
		server.Close()

		// Give outstanding requests a deadline for completion.
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if shutdownErr := srv.Shutdown(shutdownCtx); shutdownErr != nil {
			logger.Warn("graceful shutdown did not complete", "timeout", shutdownTimeout, "err", shutdownErr)
			srv.Close()
		}
		return handleExecutionError(err)
	})

	err = g.Wait()
	printSystemMessage(out, "Server stopped")
	return handleExecutionError(err)
}

// attachRedis connects to Redis and attaches a list source and sink to app.
func attachRedis(ctx context.Context, app *headless.App, cfg config.RedisConfig, maxInput int, logger *slog.Logger) (*backend.Client, error) {
	client := backend.NewClient(&backend.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", cfg.Addr, err)
	}

	source := redisadapter.NewSource(client,
		redisadapter.WithKey(cfg.InputKey),
		redisadapter.WithLogger(logger),
		redisadapter.WithMaxInputSize(maxInput),
	)
	sink := redisadapter.NewSink(client, redisadapter.WithKey(cfg.OutputKey))
	for _, p := range []headless.Plugin{source, sink} {
		if err := app.AddPlugin(p); err != nil {
			source.Close()
			client.Close()
			return nil, err
		}
	}
	return client, nil
}
