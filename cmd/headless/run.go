package main

import (
	"github.com/aretw0/headless/internal/cli"
	"github.com/spf13/cobra"
)

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the console on stdin and stdout",
	Long: `Starts the console reading one command per line from stdin.
When stdin is not a terminal the console runs without prompt and stops at end of input.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return cli.RunTerminal(cmd.Context(), runOptions(cmd))
	},
}

func init() {
	rootCmd.AddCommand(runCmd)

	// 'run' is the default if no command is provided
	rootCmd.RunE = runCmd.RunE
}
