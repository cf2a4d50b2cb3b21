package main

import (
	"fmt"
	"strings"

	"github.com/aretw0/headless"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of headless",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "headless version %s\n", strings.TrimSpace(headless.Version))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
