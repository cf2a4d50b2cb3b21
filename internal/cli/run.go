package cli

import (
	"context"
	"io"
	"os"
	"strings"

	"github.com/aretw0/headless"
	"github.com/aretw0/headless/internal/presentation/tui"
	"github.com/aretw0/headless/pkg/domain"
	"github.com/aretw0/headless/pkg/runner"
	"github.com/aretw0/headless/pkg/terminal"
	"github.com/muesli/termenv"
)

// RunOptions contains the configuration shared by the commands.
type RunOptions struct {
	ConfigPath string
	Debug      bool

	// Stdin and Stdout default to the process streams.
	Stdin  io.Reader
	Stdout io.Writer

	// Signals stops the console on SIGINT and SIGTERM.
	Signals bool
}

func (o RunOptions) streams() (io.Reader, io.Writer) {
	in, out := o.Stdin, o.Stdout
	if in == nil {
		in = os.Stdin
	}
	if out == nil {
		out = os.Stdout
	}
	return in, out
}

// RunTerminal runs the console on the standard streams until exit, EOF or interruption.
// Non-interactive input runs without banner and prompt, and stops once it is exhausted.
func RunTerminal(ctx context.Context, opts RunOptions) error {
	cfg, err := loadConfig(opts)
	if err != nil {
		return err
	}
	logger, closer := createLogger(cfg, opts.Debug)
	defer closer.Close()

	in, out := opts.streams()
	interactive := terminal.IsTerminal(in)

	termOpts := []terminal.Option{
		terminal.WithLogger(logger),
		terminal.WithMaxInputSize(cfg.MaxInputSize),
	}
	if cfg.Markdown {
		termOpts = append(termOpts, terminal.WithRenderer(tui.NewRenderer()))
	}
	if interactive {
		termOpts = append(termOpts, terminal.WithPrompt(cfg.Prompt))
		tui.PrintBanner(out, strings.TrimSpace(headless.Version))
	} else {
		termOpts = append(termOpts,
			terminal.WithPrompt(""),
			terminal.WithColorProfile(termenv.Ascii),
		)
	}

	app := createApp(cfg, logger, nil)
	term := terminal.New(in, out, termOpts...)
	defer term.Close()
	if err := app.AddPlugin(term); err != nil {
		return err
	}
	if !interactive {
		if err := app.AddSystem(domain.PhasePostCommands, "exit_on_eof", exitWhenDrained(app)); err != nil {
			return err
		}
	}

	r := runner.NewRunner(app,
		runner.WithLogger(logger),
		runner.WithInterval(cfg.TickInterval),
		runner.WithSignals(opts.Signals),
	)
	err = handleExecutionError(r.Run(ctx))
	logger.Debug("console stopped", "err", err)
	return err
}

// exitWhenDrained stops the app once every source is closed and nothing is queued.
func exitWhenDrained(app *headless.App) func(context.Context) error {
	return func(ctx context.Context) error {
		if app.Sources() == 0 && !app.Pending() {
			app.Exit()
		}
		return nil
	}
}
