package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/aretw0/selector/internal/cli"
	"github.com/aretw0/selector/internal/presentation/graph"
	"github.com/aretw0/selector/internal/presentation/tui"
	"github.com/aretw0/selector/pkg/domain"
	"github.com/spf13/cobra"
)

var stateCmd = &cobra.Command{
	Use:   "state",
	Short: "Manage stored selector positions",
	Long:  `List, inspect, graph and remove the positions stored in the configured backend.`,
}

var stateLsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List all selector keys",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := setup(cmd)
		if err != nil {
			return err
		}
		eng, closer, err := cli.NewEngine(cmd.Context(), cfg, logger)
		if err != nil {
			return err
		}
		defer closer()

		keys, err := eng.Keys(cmd.Context())
		if err != nil {
			return fmt.Errorf("error listing selectors: %w", err)
		}

		out := cmd.OutOrStdout()
		if len(keys) == 0 {
			fmt.Fprintln(out, "No stored selectors found.")
			return nil
		}
		fmt.Fprintln(out, "Stored Selectors:")
		for _, k := range keys {
			fmt.Fprintln(out, "- "+k)
		}
		return nil
	},
}

var stateInspectCmd = &cobra.Command{
	Use:   "inspect <key>",
	Short: "Inspect the stored state of a selector",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		key := args[0]
		cfg, logger, err := setup(cmd)
		if err != nil {
			return err
		}
		eng, closer, err := cli.NewEngine(cmd.Context(), cfg, logger)
		if err != nil {
			return err
		}
		defer closer()

		state, err := eng.Inspect(cmd.Context(), key)
		if err != nil {
			return fmt.Errorf("error loading selector '%s': %w", key, err)
		}

		out := cmd.OutOrStdout()
		asJSON, _ := cmd.Flags().GetBool("json")
		if !asJSON && tui.IsTerminal(os.Stdout) {
			rendered, err := tui.NewRenderer()(tui.StateMarkdown(key, state))
			if err == nil {
				fmt.Fprint(out, rendered)
				return nil
			}
			logger.Debug("Markdown rendering failed, falling back to JSON", "err", err)
		}

		// Pretty print JSON
		data, err := json.MarshalIndent(state, "", "  ")
		if err != nil {
			return fmt.Errorf("error marshaling state: %w", err)
		}
		fmt.Fprintln(out, string(data))
		return nil
	},
}

var stateGraphCmd = &cobra.Command{
	Use:   "graph <key>",
	Short: "Export the traversal of a selector as a Mermaid diagram",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		key := args[0]
		cfg, logger, err := setup(cmd)
		if err != nil {
			return err
		}
		name, _ := cmd.Flags().GetString("behavior")
		behavior := cfg.Defaults.Behavior
		if name != "" {
			if behavior, err = domain.ParseBehavior(name); err != nil {
				return err
			}
		}

		eng, closer, err := cli.NewEngine(cmd.Context(), cfg, logger)
		if err != nil {
			return err
		}
		defer closer()

		state, err := eng.Inspect(cmd.Context(), key)
		if err != nil {
			return fmt.Errorf("error loading selector '%s': %w", key, err)
		}
		fmt.Fprint(cmd.OutOrStdout(), graph.GenerateMermaid(state, behavior))
		return nil
	},
}

var stateRmCmd = &cobra.Command{
	Use:   "rm <key>...",
	Short: "Remove one or more stored selectors",
	Args: func(cmd *cobra.Command, args []string) error {
		if all, _ := cmd.Flags().GetBool("all"); all {
			return cobra.NoArgs(cmd, args)
		}
		return cobra.MinimumNArgs(1)(cmd, args)
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := setup(cmd)
		if err != nil {
			return err
		}
		eng, closer, err := cli.NewEngine(cmd.Context(), cfg, logger)
		if err != nil {
			return err
		}
		defer closer()

		keys := args
		if all, _ := cmd.Flags().GetBool("all"); all {
			if keys, err = eng.Keys(cmd.Context()); err != nil {
				return fmt.Errorf("error listing selectors: %w", err)
			}
		}

		out := cmd.OutOrStdout()
		var errs []error
		for _, key := range keys {
			if err := eng.Reset(cmd.Context(), key); err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "Error removing '%s': %v\n", key, err)
				errs = append(errs, err)
				continue
			}
			fmt.Fprintf(out, "Removed selector '%s'\n", key)
		}
		return errors.Join(errs...)
	},
}

func init() {
	rootCmd.AddCommand(stateCmd)
	stateCmd.AddCommand(stateLsCmd)
	stateCmd.AddCommand(stateInspectCmd)
	stateCmd.AddCommand(stateGraphCmd)
	stateCmd.AddCommand(stateRmCmd)

	stateInspectCmd.Flags().Bool("json", false, "Always print JSON")
	stateGraphCmd.Flags().StringP("behavior", "b", "", "Behavior whose transitions are drawn (defaults to the configured one)")
	stateRmCmd.Flags().Bool("all", false, "Remove every stored selector")
}
