package cli

import (
	"log/slog"

	"github.com/aretw0/headless"
	"github.com/aretw0/headless/internal/config"
	"github.com/aretw0/headless/pkg/observability"
	"github.com/aretw0/headless/pkg/registry"
	"github.com/prometheus/client_golang/prometheus"
)

// createApp builds an app with the demo commands from cfg.
// Metrics are registered on reg when it is non-nil.
func createApp(cfg config.Config, logger *slog.Logger, reg prometheus.Registerer) *headless.App {
	opts := []headless.Option{
		headless.WithLogger(logger),
		headless.WithRegistry(registry.NewRegistry(registry.WithHistorySize(cfg.HistorySize))),
	}
	if reg != nil {
		opts = append(opts, headless.WithMetrics(observability.NewMetrics(reg)))
	}

	app := headless.New(opts...)
	registerCommands(app)
	return app
}
