package main

import (
	"github.com/aretw0/headless/internal/cli"
	"github.com/spf13/cobra"
)

var commandsCmd = &cobra.Command{
	Use:   "commands [name]",
	Short: "List the console commands or show the usage of one",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := ""
		if len(args) > 0 {
			name = args[0]
		}
		return cli.ListCommands(runOptions(cmd), name)
	},
}

func init() {
	rootCmd.AddCommand(commandsCmd)
}
