/*
Package headless is an in-process command console without a terminal UI of its own.

Lines arrive from one or more line sources (stdin, HTTP, WebSocket, Redis), are split shell-style,
matched against a registry of named commands and parsed into typed argument structs. Each command
type gets a handler that is invoked once per cycle and takes the parsed invocation, if any, exactly
once. Whatever the handlers reply is rendered by the output sinks at the end of the cycle.

# Cycle

Every call to App.Tick runs three phases in order:

  - Input: drain every line source without blocking, then route each line.
  - Commands: run the command handlers. Skipped when no command is pending.
  - PostCommands: output sinks render the lines emitted during the cycle.

# Usage

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

	app := headless.New()
	headless.AddCommand[LogCommand](app, func(ctx context.Context, cmd *headless.Command[LogCommand]) {
		if res, ok := cmd.Take(); ok && res.Err == nil {
			cmd.Reply(res.Value.Msg)
			cmd.Ok()
		}
	})

	app.AddPlugin(terminal.New(os.Stdin, os.Stdout))
	runner.NewRunner(app).Run(ctx)
*/
package headless
