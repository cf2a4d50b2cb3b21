// Package terminal is the stdin/stdout front end of a console: a line source that reads from an
// io.Reader in its own goroutine and an output sink that writes styled lines and a prompt.
package terminal

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"

	"github.com/aretw0/headless"
	"github.com/aretw0/headless/pkg/domain"
	"github.com/aretw0/headless/pkg/events"
	"github.com/aretw0/headless/pkg/observability"
	"github.com/muesli/termenv"
	"golang.org/x/term"
)

// DefaultPrompt is printed at startup and after every cycle that wrote output.
const DefaultPrompt = "> "

// ContentRenderer transforms Markdown lines before they are written.
type ContentRenderer func(string) (string, error)

// Terminal reads lines from an io.Reader and renders console output to an io.Writer.
type Terminal struct {
	reader   *bufio.Reader
	writer   io.Writer
	output   *termenv.Output
	profile  *termenv.Profile
	prompt   string
	renderer ContentRenderer
	logger   *slog.Logger
	metrics  *observability.Metrics
	maxInput int
	bufSize  int

	mu        sync.Mutex // guards writer
	lines     chan string
	done      chan struct{}
	startOnce sync.Once
	closeOnce sync.Once

	app *headless.App
	out *events.Reader[domain.OutputLine]
}

// Option configures a Terminal.
type Option func(*Terminal)

// WithPrompt replaces DefaultPrompt. An empty prompt disables prompting.
func WithPrompt(prompt string) Option {
	return func(t *Terminal) {
		t.prompt = prompt
	}
}

// WithRenderer renders StyleMarkdown lines, e.g. with glamour.
func WithRenderer(renderer ContentRenderer) Option {
	return func(t *Terminal) {
		t.renderer = renderer
	}
}

// WithLogger configures the structured logger. Defaults to the app logger.
func WithLogger(logger *slog.Logger) Option {
	return func(t *Terminal) {
		t.logger = logger
	}
}

// WithColorProfile forces a color profile instead of detecting one from the writer.
func WithColorProfile(p termenv.Profile) Option {
	return func(t *Terminal) {
		t.profile = &p
	}
}

// WithMaxInputSize overrides the line size limit.
func WithMaxInputSize(n int) Option {
	return func(t *Terminal) {
		t.maxInput = n
	}
}

// WithBufferSize sets how many lines are buffered between drains.
func WithBufferSize(n int) Option {
	return func(t *Terminal) {
		if n > 0 {
			t.bufSize = n
		}
	}
}

// New creates a terminal over r and w. Nil values default to os.Stdin and os.Stdout.
func New(r io.Reader, w io.Writer, opts ...Option) *Terminal {
	if r == nil {
		r = os.Stdin
	}
	if w == nil {
		w = os.Stdout
	}
	t := &Terminal{
		reader:  bufio.NewReader(r),
		writer:  w,
		prompt:  DefaultPrompt,
		bufSize: headless.DefaultInputBufferSize,
		done:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(t)
	}
	if t.profile != nil {
		t.output = termenv.NewOutput(w, termenv.WithProfile(*t.profile))
	} else {
		t.output = termenv.NewOutput(w)
	}
	return t
}

// IsTerminal reports whether r is an interactive terminal.
func IsTerminal(r io.Reader) bool {
	f, ok := r.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// Build attaches the terminal to app as a line source and an output sink.
func (t *Terminal) Build(app *headless.App) error {
	t.app = app
	t.metrics = app.Metrics()
	if t.logger == nil {
		t.logger = app.Logger()
	}
	t.out = app.OutputReader()

	app.AddLineSource(t)
	app.AddStartupSystem("terminal_prompt", func(ctx context.Context) error {
		t.mu.Lock()
		defer t.mu.Unlock()
		return t.writePrompt()
	})
	return app.AddSystem(domain.PhasePostCommands, "terminal_render", t.render)
}

// Lines implements headless.LineSource. The reader goroutine starts on the first call.
func (t *Terminal) Lines() <-chan string {
	t.initPump()
	return t.lines
}

// Close stops delivering lines. The reader goroutine exits once its pending read returns.
func (t *Terminal) Close() {
	t.closeOnce.Do(func() {
		close(t.done)
	})
}

func (t *Terminal) initPump() {
	t.startOnce.Do(func() {
		t.lines = make(chan string, t.bufSize)
		go t.pump()
	})
}

func (t *Terminal) pump() {
	defer close(t.lines)
	for {
		text, err := t.reader.ReadString('\n')

		// If we got text (even with EOF), deliver it
		if text != "" {
			if !t.deliver(strings.TrimSpace(text)) {
				return
			}
		}

		if err != nil {
			if err == io.EOF {
				t.log().Debug("terminal input closed")
				return
			}
			t.log().Error("terminal read failed", "err", err)
			return
		}
	}
}

func (t *Terminal) deliver(line string) bool {
	select {
	case <-t.done:
		return false
	default:
	}

	clean, err := Sanitize(line, t.maxInput)
	if err != nil {
		t.metrics.LineRejected()
		t.mu.Lock()
		fmt.Fprintf(t.writer, "Error: %v. Please try again.\n", err)
		t.writePrompt()
		t.mu.Unlock()
		return true
	}

	select {
	case t.lines <- clean:
		return true
	case <-t.done:
		return false
	}
}

func (t *Terminal) render(ctx context.Context) error {
	lines := headless.Ordered(t.out.Read())
	if len(lines) == 0 {
		return nil
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	for _, l := range lines {
		if _, err := fmt.Fprintln(t.writer, t.format(l)); err != nil {
			return fmt.Errorf("write output: %w", err)
		}
	}
	if t.app != nil && t.app.ExitRequested() {
		return nil
	}
	return t.writePrompt()
}

func (t *Terminal) writePrompt() error {
	if t.prompt == "" {
		return nil
	}
	if _, err := io.WriteString(t.writer, t.prompt); err != nil {
		return fmt.Errorf("write prompt: %w", err)
	}
	return nil
}

func (t *Terminal) format(l domain.OutputLine) string {
	switch l.Style {
	case domain.StyleOK:
		return t.output.String(l.Text).Foreground(t.output.Color("2")).String()
	case domain.StyleFailed:
		return t.output.String(l.Text).Foreground(t.output.Color("1")).String()
	case domain.StyleError:
		return t.output.String(l.Text).Foreground(t.output.Color("1")).Bold().String()
	case domain.StyleMarkdown:
		if t.renderer != nil {
			if rendered, err := t.renderer(l.Text); err == nil {
				return strings.TrimRight(rendered, " \n")
			}
		}
	}
	return l.Text
}

func (t *Terminal) log() *slog.Logger {
	if t.logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return t.logger
}
