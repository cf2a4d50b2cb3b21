package cli

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/aretw0/headless/internal/logging"
)

// ListCommands prints every command the console registers, with its summary.
// With a name it prints the usage of that command instead.
func ListCommands(opts RunOptions, name string) error {
	cfg, err := loadConfig(opts)
	if err != nil {
		return err
	}
	_, out := opts.streams()

	app := createApp(cfg, logging.NewNop(), nil)
	// Registration happens in startup systems.
	if err := app.Tick(context.Background()); err != nil {
		return err
	}

	if name != "" {
		usage, err := app.Registry().Usage(name)
		if err != nil {
			return err
		}
		fmt.Fprintln(out, usage)
		return nil
	}

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	for _, d := range app.Registry().List() {
		fmt.Fprintf(tw, "%s\t%s\n", d.Name, d.Summary)
	}
	return tw.Flush()
}
