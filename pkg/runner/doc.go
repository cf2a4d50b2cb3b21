/*
Package runner drives a headless.App: it ticks the pipeline at a fixed interval until the context
is canceled, an OS signal arrives or a command asks the app to exit.

# Usage

	app := headless.New(headless.WithLogger(logger))
	app.AddPlugin(terminal.New(os.Stdin, os.Stdout))

	r := runner.NewRunner(app,
		runner.WithLogger(logger),
		runner.WithInterval(16*time.Millisecond),
	)
	if err := r.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatal(err)
	}
*/
package runner
