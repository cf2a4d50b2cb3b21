package main

import (
	"github.com/aretw0/headless/internal/cli"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the console over HTTP and WebSocket",
	Long: `Starts the console with an HTTP API (POST /lines, GET /events, /ws, /metrics).
If redis.addr is configured, lines are also popped from a Redis list and output is pushed to another.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		addr, _ := cmd.Flags().GetString("addr")
		return cli.Serve(cmd.Context(), cli.ServeOptions{
			RunOptions: runOptions(cmd),
			Addr:       addr,
		})
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringP("addr", "a", "", "Address to listen on (overrides http.addr)")
}
