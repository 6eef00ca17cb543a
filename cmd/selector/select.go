package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/aretw0/selector/internal/cli"
	"github.com/aretw0/selector/pkg/segment"
	"github.com/spf13/cobra"
)

var selectCmd = &cobra.Command{
	Use:   "select [text]",
	Short: "Select one segment and remember the position for the next call",
	Long: `Splits the text by the delimiter and prints the selected segment.
Without an argument (or with "-") the text is read from standard input.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := setup(cmd)
		if err != nil {
			return err
		}
		req := requestFromFlags(cmd, cfg)

		text, err := readText(cmd, args)
		if err != nil {
			return err
		}
		req.Text, err = segment.Sanitize(text, req.Delimiter)
		if err != nil {
			return err
		}

		eng, closer, err := cli.NewEngine(cmd.Context(), cfg, logger, cli.DebugHooks(logger))
		if err != nil {
			return err
		}
		defer closer()

		res, err := eng.Select(cmd.Context(), req)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
			enc := json.NewEncoder(out)
			return enc.Encode(res)
		}
		fmt.Fprintln(out, res.Segment)
		return nil
	},
}

// readText takes the text from the argument, or from stdin when it is absent or "-".
// A single trailing newline from piped input is dropped.
func readText(cmd *cobra.Command, args []string) (string, error) {
	if len(args) == 1 && args[0] != "-" {
		return args[0], nil
	}
	data, err := io.ReadAll(cmd.InOrStdin())
	if err != nil {
		return "", fmt.Errorf("failed to read input: %w", err)
	}
	text := strings.TrimSuffix(string(data), "\n")
	return strings.TrimSuffix(text, "\r"), nil
}

func init() {
	rootCmd.AddCommand(selectCmd)
	addRequestFlags(selectCmd)
	selectCmd.Flags().Bool("json", false, "Print the full result as JSON")
}
