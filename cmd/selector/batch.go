package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/aretw0/selector/internal/cli"
	"github.com/aretw0/selector/pkg/batch"
	"github.com/aretw0/selector/pkg/segment"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var batchCmd = &cobra.Command{
	Use:   "batch <file>",
	Short: "Evaluate the selectors listed in a YAML or JSON file",
	Long: `Reads a list of selectors (text, key, delimiter, behavior, start_index, repeat)
and evaluates each once. The combined line is printed once per repetition.

  - key: greeting
    text: "hello|hi|hey"
    behavior: increment
  - key: subject
    text: "world|there"
    repeat: 2`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := setup(cmd)
		if err != nil {
			return err
		}

		raw, err := readBatchFile(args[0])
		if err != nil {
			return err
		}
		items, err := batch.DecodeItems(raw)
		if err != nil {
			return err
		}
		for i := range items {
			if items[i].Key == "" {
				items[i].Key = cfg.Defaults.Key
			}
			if _, ok := raw[i]["delimiter"]; !ok {
				items[i].Delimiter = cfg.Defaults.Delimiter
			}
			if items[i].Behavior == "" {
				items[i].Behavior = cfg.Defaults.Behavior
			}
			if items[i].Text, err = segment.Sanitize(items[i].Text, items[i].Delimiter); err != nil {
				return fmt.Errorf("item %d: %w", i, err)
			}
		}

		eng, closer, err := cli.NewEngine(cmd.Context(), cfg, logger, cli.DebugHooks(logger))
		if err != nil {
			return err
		}
		defer closer()

		out, err := eng.Batch(cmd.Context(), items)
		if err != nil {
			return err
		}

		w := cmd.OutOrStdout()
		if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
			return json.NewEncoder(w).Encode(out)
		}
		for _, line := range out.Combined {
			fmt.Fprintln(w, line)
		}
		return nil
	},
}

// readBatchFile accepts either a bare list or a document with an "items" list.
// JSON is valid YAML, so one decoder covers both.
func readBatchFile(path string) ([]map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read batch file: %w", err)
	}

	var list []map[string]any
	if err := yaml.Unmarshal(data, &list); err == nil {
		return list, nil
	}

	var doc struct {
		Items []map[string]any `yaml:"items"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("invalid batch file %s: %w", path, err)
	}
	return doc.Items, nil
}

func init() {
	rootCmd.AddCommand(batchCmd)
	batchCmd.Flags().Bool("json", false, "Print the expanded batch as JSON")
}
