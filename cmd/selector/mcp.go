package main

import (
	"fmt"
	"os"

	"github.com/aretw0/selector/internal/cli"
	"github.com/aretw0/selector/pkg/adapters/mcp"
	"github.com/aretw0/selector/pkg/domain"
	"github.com/spf13/cobra"
)

// mcpCmd represents the mcp command
var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Run the Model Context Protocol (MCP) server",
	Long: `Exposes the selector as MCP tools (select_segment, batch_select, inspect_selector,
list_selectors, reset_selector) and resources.

Supported Transports:
- stdio (default): Uses Standard Input/Output. Ideal for local process integration.
- sse: Uses Server-Sent Events over HTTP. Ideal for remote agents or debuggers.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := setup(cmd)
		if err != nil {
			return err
		}
		transport, _ := cmd.Flags().GetString("transport")
		port, _ := cmd.Flags().GetInt("port")

		sc := cli.NewSignalContext(cmd.Context())
		defer sc.Cancel()

		eng, closer, err := cli.NewEngine(sc, cfg, logger, cli.DebugHooks(logger))
		if err != nil {
			return err
		}
		defer closer()

		srv := mcp.NewServer(eng,
			mcp.WithLogger(logger),
			mcp.WithDefaults(domain.Request{
				Key:       cfg.Defaults.Key,
				Delimiter: cfg.Defaults.Delimiter,
				Behavior:  cfg.Defaults.Behavior,
			}),
		)

		switch transport {
		case "stdio":
			// Logs go to stderr so they never corrupt JSON-RPC on stdout.
			logger.Info("Starting Selector MCP Server (Stdio)")
			return cli.HandleExecutionError(srv.ServeStdio(sc, os.Stdin, os.Stdout))
		case "sse":
			addr := fmt.Sprintf(":%d", port)
			baseURL := fmt.Sprintf("http://localhost:%d", port)
			if err := srv.ServeSSE(sc, addr, baseURL); err != nil {
				return err
			}
			logger.Info("MCP Server stopped gracefully")
			return nil
		default:
			return fmt.Errorf("unknown transport: %s. Supported: stdio, sse", transport)
		}
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
	mcpCmd.Flags().String("transport", "stdio", "Transport protocol to use: 'stdio' or 'sse'")
	mcpCmd.Flags().Int("port", 8080, "Port to listen on (only for SSE)")
}
