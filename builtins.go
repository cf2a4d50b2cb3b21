package headless

import (
	"context"
	"errors"
	"fmt"

	"github.com/aretw0/headless/pkg/domain"
	"github.com/aretw0/headless/pkg/schema"
)

// HelpCommand lists commands or prints the usage of one.
type HelpCommand struct {
	Command *string
}

func (*HelpCommand) Name() string { return "help" }

func (c *HelpCommand) Define(s *schema.Spec) {
	s.Short = "Lists commands or shows the usage of one"
	schema.OptionalArg(s, &c.Command, "command", "Command to describe")
}

// ExitCommand stops the console.
type ExitCommand struct{}

func (*ExitCommand) Name() string { return "exit" }

func (*ExitCommand) Define(s *schema.Spec) {
	s.Short = "Exits the console"
}

func addBuiltins(a *App) {
	AddCommand[HelpCommand](a, a.help)
	AddCommand[ExitCommand](a, a.exitCommand)
}

func (a *App) help(ctx context.Context, cmd *Command[HelpCommand]) {
	res, ok := cmd.Take()
	if !ok || res.Err != nil {
		return
	}

	if res.Value.Command == nil {
		for _, d := range a.registry.List() {
			if d.Summary == "" {
				cmd.Reply(d.Name)
				continue
			}
			cmd.Replyf("%s - %s", d.Name, d.Summary)
		}
		return
	}

	name := *res.Value.Command
	usage, err := a.registry.Usage(name)
	if errors.Is(err, domain.ErrCommandNotFound) {
		cmd.ReplyFailed(fmt.Sprintf("Command not recognized: `%s`", name))
		return
	}
	cmd.Reply(usage)
}

func (a *App) exitCommand(ctx context.Context, cmd *Command[ExitCommand]) {
	if res, ok := cmd.Take(); ok && res.Err == nil {
		a.logger.Debug("exit requested")
		a.Exit()
	}
}
