package main

import (
	"github.com/aretw0/headless/internal/cli"
	"github.com/spf13/cobra"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve the console as an MCP server on stdin and stdout",
	Long: `Starts the console as a Model Context Protocol server speaking JSON-RPC on the standard streams.
Every command is exposed as a tool, and run_command accepts a whole line.
Use 'serve' to reach the same tools over HTTP at /mcp.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return cli.ServeMCP(cmd.Context(), runOptions(cmd))
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}
