package headless

import (
	"context"
	"errors"
	"fmt"

	"github.com/aretw0/headless/pkg/domain"
	"github.com/aretw0/headless/pkg/events"
	"github.com/aretw0/headless/pkg/registry"
	"github.com/aretw0/headless/pkg/schema"
)

// Definition is implemented by the pointer type of every console command.
// Define is called on a fresh value for every invocation, so it may bind fields directly.
type Definition interface {
	Name() string
	Define(s *schema.Spec)
}

type definitionPtr[T any] interface {
	*T
	Definition
}

// Result is the outcome of parsing one invocation. Err is a *schema.Error when parsing failed.
type Result[T any] struct {
	Value T
	Err   error
}

// Handler receives the command handle once per Commands phase.
type Handler[T any] func(ctx context.Context, cmd *Command[T])

// Command is the handle a handler uses to take the pending invocation and reply to it.
type Command[T any] struct {
	pending *Result[T]
	origin  uint64
	print   func(domain.OutputLine)
}

// Take returns the pending invocation and clears it. A second call in the same cycle reports false.
func (c *Command[T]) Take() (Result[T], bool) {
	if c.pending == nil {
		return Result[T]{}, false
	}
	res := *c.pending
	c.pending = nil
	return res, true
}

// Reply prints a plain line.
func (c *Command[T]) Reply(msg string) {
	c.emit(msg, domain.StylePlain)
}

// Replyf prints a formatted plain line.
func (c *Command[T]) Replyf(format string, args ...any) {
	c.Reply(fmt.Sprintf(format, args...))
}

// ReplyOk prints msg followed by "[ok]".
func (c *Command[T]) ReplyOk(msg string) {
	c.Reply(msg)
	c.Ok()
}

// ReplyOkf is ReplyOk with formatting.
func (c *Command[T]) ReplyOkf(format string, args ...any) {
	c.ReplyOk(fmt.Sprintf(format, args...))
}

// ReplyFailed prints msg followed by "[failed]".
func (c *Command[T]) ReplyFailed(msg string) {
	c.Reply(msg)
	c.Failed()
}

// ReplyFailedf is ReplyFailed with formatting.
func (c *Command[T]) ReplyFailedf(format string, args ...any) {
	c.ReplyFailed(fmt.Sprintf(format, args...))
}

// ReplyMarkdown prints a line that sinks may render as Markdown.
func (c *Command[T]) ReplyMarkdown(md string) {
	c.emit(md, domain.StyleMarkdown)
}

// Ok prints "[ok]".
func (c *Command[T]) Ok() {
	c.emit("[ok]", domain.StyleOK)
}

// Failed prints "[failed]".
func (c *Command[T]) Failed() {
	c.emit("[failed]", domain.StyleFailed)
}

func (c *Command[T]) emit(text string, style domain.Style) {
	c.print(domain.OutputLine{Text: text, Style: style, Origin: c.origin})
}

type dispatcher interface {
	pending() bool
}

type adapter[T any, PT definitionPtr[T]] struct {
	app     *App
	name    string
	reader  *events.Reader[domain.CommandEntered]
	backlog []domain.CommandEntered
	handler Handler[T]
}

// AddCommand registers the command type T and the handler that serves it.
// Registering a name twice replaces the earlier command and logs a warning.
func AddCommand[T any, PT definitionPtr[T]](a *App, handler Handler[T]) {
	var zero T
	name := PT(&zero).Name()

	ad := &adapter[T, PT]{
		app:     a,
		name:    name,
		reader:  a.entered.Reader(),
		handler: handler,
	}
	a.owners[name] = ad
	a.adapters = append(a.adapters, ad)

	a.AddStartupSystem("register_"+name, func(ctx context.Context) error {
		a.register(describe[T, PT](name))
		return nil
	})
	_ = a.schedule.Add(domain.PhaseCommands, "command_"+name, ad.run)
}

func describe[T any, PT definitionPtr[T]](name string) registry.Descriptor {
	var zero T
	spec := schema.New(name)
	PT(&zero).Define(spec)
	return registry.Descriptor{
		Name:    name,
		Summary: spec.Describe(),
		Long:    spec.Long,
		Usage:   spec.Usage(),
		Args:    spec.ArgNames(),
		Flags:   spec.FlagNames(),
	}
}

func (a *App) register(d registry.Descriptor) {
	if a.registry.Register(d) {
		a.logger.Warn("console command already registered and was overwritten", "command", d.Name)
	}
	a.metrics.SetRegistered(a.registry.Len())
}

func (ad *adapter[T, PT]) active() bool {
	return ad.app.owners[ad.name] == dispatcher(ad)
}

func (ad *adapter[T, PT]) pending() bool {
	return ad.active() && len(ad.backlog) > 0
}

func (ad *adapter[T, PT]) run(ctx context.Context) error {
	if !ad.active() {
		ad.reader.Clear()
		ad.backlog = nil
		return nil
	}

	for _, ev := range ad.reader.Read() {
		if ev.Name == ad.name {
			ad.backlog = append(ad.backlog, ev)
		}
	}

	cmd := &Command[T]{print: ad.app.Print}
	if len(ad.backlog) > 0 {
		ev := ad.backlog[0]
		ad.backlog = ad.backlog[1:]
		res := ad.parse(ev)
		cmd.pending = &res
		cmd.origin = ev.Seq
	}

	ad.handler(ctx, cmd)
	return nil
}

func (ad *adapter[T, PT]) parse(ev domain.CommandEntered) Result[T] {
	var value T
	spec := schema.New(ad.name)
	PT(&value).Define(spec)

	err := spec.Parse(ev.Args)
	if err == nil {
		return Result[T]{Value: value}
	}

	style := domain.StyleError
	var perr *schema.Error
	text := err.Error()
	if errors.As(err, &perr) {
		text = perr.Render()
		if perr.Kind == schema.KindHelp {
			style = domain.StylePlain
		}
	}
	ad.app.metrics.ParseError(ad.name)
	ad.app.Print(domain.OutputLine{Text: text, Style: style, Origin: ev.Seq})
	return Result[T]{Err: err}
}
