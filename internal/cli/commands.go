package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/aretw0/headless"
	"github.com/aretw0/headless/pkg/schema"
)

// LogCommand prints a message a number of times.
type LogCommand struct {
	Msg string
	Num *int
}

func (*LogCommand) Name() string { return "log" }

func (c *LogCommand) Define(s *schema.Spec) {
	s.Short = "Prints given arguments to the console"
	schema.Arg(s, &c.Msg, "msg", "Message to print")
	schema.OptionalArg(s, &c.Num, "num", "Number of times to print message")
}

func logHandler(ctx context.Context, cmd *headless.Command[LogCommand]) {
	res, ok := cmd.Take()
	if !ok || res.Err != nil {
		return
	}
	n := 1
	if res.Value.Num != nil {
		n = *res.Value.Num
	}
	if n < 0 {
		cmd.ReplyFailedf("num must not be negative, got %d", n)
		return
	}
	for range n {
		cmd.Reply(res.Value.Msg)
	}
	cmd.Ok()
}

// EchoCommand joins its arguments into one line.
type EchoCommand struct {
	Words []string
	Upper bool
	Sep   string
}

func (*EchoCommand) Name() string { return "echo" }

func (c *EchoCommand) Define(s *schema.Spec) {
	s.Short = "Echoes its arguments"
	s.Long = "Echoes its arguments joined by a separator."
	schema.RestArgs(s, &c.Words, "words", "Words to echo")
	s.Flags().BoolVarP(&c.Upper, "upper", "u", false, "Convert to upper case")
	s.Flags().StringVar(&c.Sep, "sep", " ", "Separator between words")
}

func echoHandler(ctx context.Context, cmd *headless.Command[EchoCommand]) {
	res, ok := cmd.Take()
	if !ok || res.Err != nil {
		return
	}
	text := strings.Join(res.Value.Words, res.Value.Sep)
	if res.Value.Upper {
		text = strings.ToUpper(text)
	}
	cmd.Reply(text)
}

// HistoryCommand prints the recently entered lines.
type HistoryCommand struct{}

func (*HistoryCommand) Name() string { return "history" }

func (*HistoryCommand) Define(s *schema.Spec) {
	s.Short = "Shows recently entered lines"
}

func historyHandler(app *headless.App) headless.Handler[HistoryCommand] {
	return func(ctx context.Context, cmd *headless.Command[HistoryCommand]) {
		if res, ok := cmd.Take(); !ok || res.Err != nil {
			return
		}
		for i, line := range app.History() {
			cmd.Replyf("%3d  %s", i+1, line)
		}
	}
}

// AboutCommand describes the console in Markdown.
type AboutCommand struct{}

func (*AboutCommand) Name() string { return "about" }

func (*AboutCommand) Define(s *schema.Spec) {
	s.Short = "Shows information about this console"
}

func aboutHandler(app *headless.App) headless.Handler[AboutCommand] {
	return func(ctx context.Context, cmd *headless.Command[AboutCommand]) {
		if res, ok := cmd.Take(); !ok || res.Err != nil {
			return
		}
		var b strings.Builder
		fmt.Fprintf(&b, "# headless %s\n\n", strings.TrimSpace(headless.Version))
		fmt.Fprintf(&b, "%d commands registered:\n\n", app.Registry().Len())
		for _, d := range app.Registry().List() {
			fmt.Fprintf(&b, "- **%s** %s\n", d.Name, d.Summary)
		}
		cmd.ReplyMarkdown(b.String())
	}
}

// registerCommands adds the demo commands shipped with the binary.
func registerCommands(app *headless.App) {
	headless.AddCommand[LogCommand](app, logHandler)
	headless.AddCommand[EchoCommand](app, echoHandler)
	headless.AddCommand[HistoryCommand](app, historyHandler(app))
	headless.AddCommand[AboutCommand](app, aboutHandler(app))
}
