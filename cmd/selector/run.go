package main

import (
	"os"
	"strings"

	"github.com/aretw0/selector"
	"github.com/aretw0/selector/internal/cli"
	"github.com/aretw0/selector/internal/presentation/tui"
	"github.com/spf13/cobra"
)

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Select interactively, one line of input per call",
	Long: `Starts a loop that reads text from standard input and prints one selection per line.
An empty line selects again from the previous text; "exit" or "quit" ends the loop.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := setup(cmd)
		if err != nil {
			return err
		}
		headless, _ := cmd.Flags().GetBool("headless")
		fresh, _ := cmd.Flags().GetBool("fresh")

		sc := cli.NewSignalContext(cmd.Context())
		defer sc.Cancel()

		eng, closer, err := cli.NewEngine(sc, cfg, logger, cli.DebugHooks(logger))
		if err != nil {
			return err
		}
		defer closer()

		opts := cli.RunOptions{
			Request:  requestFromFlags(cmd, cfg),
			Headless: headless,
			Fresh:    fresh,
		}
		if !headless && tui.IsTerminal(os.Stdout) {
			tui.PrintBanner(cmd.OutOrStdout(), strings.TrimSpace(selector.Version))
			opts.Renderer = tui.Highlight
		}

		return cli.Run(sc, eng, opts, cmd.InOrStdin(), cmd.OutOrStdout())
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
	addRequestFlags(runCmd)
	runCmd.Flags().Bool("headless", false, "Run in headless mode (no prompts, one segment per line)")
	runCmd.Flags().Bool("fresh", false, "Forget the stored position before starting")
}
