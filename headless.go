package headless

import (
	"context"
	"log/slog"
	"sync/atomic"

	"github.com/aretw0/headless/pkg/domain"
	"github.com/aretw0/headless/pkg/events"
	"github.com/aretw0/headless/pkg/observability"
	"github.com/aretw0/headless/pkg/registry"
	"github.com/aretw0/headless/pkg/schedule"
)

// App is a console pipeline: line sources, router, command handlers and output sinks.
// Tick must be called from a single goroutine.
type App struct {
	logger   *slog.Logger
	registry *registry.Registry
	schedule *schedule.Schedule
	metrics  *observability.Metrics

	raw       *events.Queue[domain.RawLine]
	rawReader *events.Reader[domain.RawLine]
	entered   *events.Queue[domain.CommandEntered]
	output    *events.Queue[domain.OutputLine]

	sources  []LineSource
	seq      uint64
	history  *History
	owners   map[string]dispatcher
	adapters []dispatcher
	builtins bool
	exit     atomic.Bool
}

// Option configures an App.
type Option func(*App)

// WithLogger configures the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(a *App) {
		a.logger = logger
	}
}

// WithRegistry uses an existing registry, e.g. one with a custom history size.
func WithRegistry(reg *registry.Registry) Option {
	return func(a *App) {
		a.registry = reg
	}
}

// WithMetrics records pipeline counters.
func WithMetrics(m *observability.Metrics) Option {
	return func(a *App) {
		a.metrics = m
	}
}

// WithoutBuiltins disables the help and exit commands.
func WithoutBuiltins() Option {
	return func(a *App) {
		a.builtins = false
	}
}

// New creates an App with the Input, Commands and PostCommands phases.
func New(opts ...Option) *App {
	a := &App{
		logger:   slog.New(slog.DiscardHandler),
		raw:      events.NewQueue[domain.RawLine](),
		entered:  events.NewQueue[domain.CommandEntered](),
		output:   events.NewQueue[domain.OutputLine](),
		owners:   make(map[string]dispatcher),
		builtins: true,
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.registry == nil {
		a.registry = registry.NewRegistry()
	}
	a.rawReader = a.raw.Reader()
	a.history = NewHistory(a.registry.HistorySize())
	a.schedule = schedule.New(domain.Phases, schedule.WithLogger(a.logger))

	// The phases are known constants, so these cannot fail.
	_ = a.schedule.Add(domain.PhaseInput, "drain_sources", a.drainSources)
	_ = a.schedule.Add(domain.PhaseInput, "route_raw_commands", a.routeRawCommands)
	_ = a.schedule.RunIf(domain.PhaseCommands, a.haveCommands)
	a.schedule.Finally(a.endCycle)

	if a.builtins {
		addBuiltins(a)
	}
	return a
}

// Logger returns the app logger.
func (a *App) Logger() *slog.Logger {
	return a.logger
}

// Registry returns the command registry.
func (a *App) Registry() *registry.Registry {
	return a.registry
}

// Metrics returns the configured metrics, or nil.
func (a *App) Metrics() *observability.Metrics {
	return a.metrics
}

// AddLineSource attaches a source whose lines are drained every Input phase.
func (a *App) AddLineSource(src LineSource) {
	a.sources = append(a.sources, src)
}

// AddSystem runs fn in the given phase, after the systems already there.
func (a *App) AddSystem(phase domain.Phase, name string, fn schedule.System) error {
	return a.schedule.Add(phase, name, fn)
}

// AddStartupSystem runs fn once, before the phases of the next cycle.
func (a *App) AddStartupSystem(name string, fn schedule.System) {
	a.schedule.AddStartup(name, fn)
}

// AddPlugin lets p attach its sources and systems.
func (a *App) AddPlugin(p Plugin) error {
	return p.Build(a)
}

// OutputReader returns a reader over every output line emitted from now on.
// Sinks read it in PostCommands.
func (a *App) OutputReader() *events.Reader[domain.OutputLine] {
	return a.output.Reader()
}

// Print emits an output line.
func (a *App) Print(line domain.OutputLine) {
	a.output.Send(line)
	a.metrics.Output()
}

// History returns the most recent routed lines, oldest first.
func (a *App) History() []string {
	return a.history.Lines()
}

// Sources returns the number of line sources that are still open.
func (a *App) Sources() int {
	return len(a.sources)
}

// Pending reports whether any command still has invocations queued for later cycles.
func (a *App) Pending() bool {
	for _, d := range a.adapters {
		if d.pending() {
			return true
		}
	}
	return false
}

// Exit asks the driver of the app to stop after the current cycle.
func (a *App) Exit() {
	a.exit.Store(true)
}

// ExitRequested reports whether Exit was called.
func (a *App) ExitRequested() bool {
	return a.exit.Load()
}

// Stats returns the run and skip counters of a phase.
func (a *App) Stats(phase domain.Phase) schedule.Stats {
	return a.schedule.Stats(phase)
}

// Tick runs one cycle. Errors from individual systems are joined; the cycle always completes.
func (a *App) Tick(ctx context.Context) error {
	return a.schedule.Tick(ctx)
}

func (a *App) haveCommands() bool {
	if a.entered.SentThisCycle() > 0 || a.Pending() {
		return true
	}
	a.metrics.Skipped()
	return false
}

func (a *App) endCycle() {
	a.raw.Update()
	a.entered.Update()
	a.output.Update()
	a.metrics.Cycle()
}
