package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/aretw0/selector/internal/cli"
	"github.com/aretw0/selector/internal/config"
	"github.com/aretw0/selector/pkg/domain"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "selector",
	Short: "Selector picks one segment of delimited text per call and remembers where it left off",
	Long: `Selector splits text by a delimiter and returns one segment per invocation.
The position is persisted per key, so repeated calls walk the segments with a
fixed, incrementing, decrementing, random or ping-pong behavior.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	// Persistent flags (available to all commands)
	rootCmd.PersistentFlags().String("config", "", "Config file (YAML or JSON); defaults to $"+config.EnvConfigPath)
	rootCmd.PersistentFlags().Bool("debug", false, "Enable debug logging")
}

// setup loads the configuration and builds the stderr logger for a command.
func setup(cmd *cobra.Command) (*config.Config, *slog.Logger, error) {
	path, _ := cmd.Flags().GetString("config")
	debug, _ := cmd.Flags().GetBool("debug")

	cfg, err := config.Load(path)
	if err != nil {
		return nil, nil, err
	}
	logger, err := cli.CreateLogger(cfg.Log, debug, cmd.ErrOrStderr())
	if err != nil {
		return nil, nil, err
	}
	return cfg, logger, nil
}

// addRequestFlags registers the selection parameters shared by select, run and watch.
func addRequestFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("key", "k", "", "Selector key that owns the remembered position")
	cmd.Flags().StringP("delimiter", "d", "", "Segment separator; an explicit empty value keeps the text whole")
	cmd.Flags().StringP("behavior", "b", "", "fix, increment, decrement, random or ping-pong")
	cmd.Flags().IntP("start", "s", 0, "Start index")
}

// requestFromFlags builds a request from the flags, falling back to the configured defaults.
func requestFromFlags(cmd *cobra.Command, cfg *config.Config) domain.Request {
	req := domain.Request{
		Key:       cfg.Defaults.Key,
		Delimiter: cfg.Defaults.Delimiter,
		Behavior:  cfg.Defaults.Behavior,
	}
	if cmd.Flags().Changed("key") {
		req.Key, _ = cmd.Flags().GetString("key")
	}
	if cmd.Flags().Changed("delimiter") {
		req.Delimiter, _ = cmd.Flags().GetString("delimiter")
	}
	if cmd.Flags().Changed("behavior") {
		b, _ := cmd.Flags().GetString("behavior")
		req.Behavior = domain.Behavior(b)
	}
	req.StartIndex, _ = cmd.Flags().GetInt("start")
	return req
}
