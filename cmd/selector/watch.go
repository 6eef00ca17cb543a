package main

import (
	"github.com/aretw0/selector/internal/cli"
	"github.com/spf13/cobra"
)

var watchCmd = &cobra.Command{
	Use:   "watch <file>",
	Short: "Select again every time a file changes",
	Long:  `Uses the contents of the file as the text and prints a selection on start and after every change.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := setup(cmd)
		if err != nil {
			return err
		}
		interval, _ := cmd.Flags().GetDuration("interval")

		sc := cli.NewSignalContext(cmd.Context())
		defer sc.Cancel()

		eng, closer, err := cli.NewEngine(sc, cfg, logger, cli.DebugHooks(logger))
		if err != nil {
			return err
		}
		defer closer()

		err = cli.RunWatch(sc, eng, cli.WatchOptions{
			Request:  requestFromFlags(cmd, cfg),
			Path:     args[0],
			Interval: interval,
			Logger:   logger,
		}, cmd.OutOrStdout())
		return cli.HandleExecutionError(err)
	},
}

func init() {
	rootCmd.AddCommand(watchCmd)
	addRequestFlags(watchCmd)
	watchCmd.Flags().Duration("interval", cli.DefaultWatchInterval, "Polling interval")
}
