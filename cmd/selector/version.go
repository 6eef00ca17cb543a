package main

import (
	"fmt"
	"strings"

	"github.com/aretw0/selector"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of selector",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "selector version %s\n", strings.TrimSpace(selector.Version))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
