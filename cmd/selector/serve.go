package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/aretw0/selector/internal/cli"
	"github.com/aretw0/selector/internal/config"
	"github.com/aretw0/selector/pkg/adapters/document"
	httpAdapter "github.com/aretw0/selector/pkg/adapters/http"
	"github.com/aretw0/selector/pkg/domain"
	"github.com/aretw0/selector/pkg/observability"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	Long:  `Exposes selection, batch evaluation and state management as a JSON API, with SSE events and Prometheus metrics.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := setup(cmd)
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("addr") {
			cfg.Server.Addr, _ = cmd.Flags().GetString("addr")
		}
		if cfg.Store.Backend == config.BackendDocument && cfg.Store.Path == document.DefaultPath {
			logger.Warn("The document backend rewrites one file per selection; prefer redis or loam for servers")
		}

		sc := cli.NewSignalContext(cmd.Context())
		defer sc.Cancel()

		streams := httpAdapter.NewStreamManager(logger)
		hooks := []domain.LifecycleHooks{streams.Hooks(), observability.LoggingHooks(logger)}
		handlerOpts := []httpAdapter.Option{
			httpAdapter.WithStreams(streams),
			httpAdapter.WithLogger(logger),
			httpAdapter.WithDefaults(domain.Request{
				Key:       cfg.Defaults.Key,
				Delimiter: cfg.Defaults.Delimiter,
				Behavior:  cfg.Defaults.Behavior,
			}),
		}
		if cfg.Server.Metrics {
			metrics := observability.NewMetrics()
			hooks = append(hooks, metrics.Hooks())
			handlerOpts = append(handlerOpts, httpAdapter.WithMetrics(metrics))
		}

		eng, closer, err := cli.NewEngine(sc, cfg, logger, cli.DebugHooks(logger, hooks...))
		if err != nil {
			return err
		}
		defer closer()

		handler, err := httpAdapter.NewHandler(eng, handlerOpts...)
		if err != nil {
			return err
		}

		srv := &http.Server{
			Addr:              cfg.Server.Addr,
			Handler:           handler,
			ReadHeaderTimeout: 10 * time.Second,
		}

		// Channel to listen for errors coming from the listener.
		serverErrors := make(chan error, 1)
		go func() {
			logger.Info("Starting Selector Server", "address", srv.Addr, "backend", cfg.Store.Backend)
			serverErrors <- srv.ListenAndServe()
		}()

		select {
		case err := <-serverErrors:
			if errors.Is(err, http.ErrServerClosed) {
				return nil
			}
			return fmt.Errorf("server error: %w", err)

		case <-sc.Done():
			logger.Info("Start shutdown", "signal", sc.Signal())

			// Give outstanding requests a deadline for completion.
			ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
			defer cancel()

			if err := srv.Shutdown(ctx); err != nil {
				logger.Error("Graceful shutdown did not complete", "timeout", cfg.Server.ShutdownTimeout, "err", err)
				if err := srv.Close(); err != nil {
					return fmt.Errorf("error killing server: %w", err)
				}
			}
			logger.Info("Selector Server stopped gracefully")
			return nil
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringP("addr", "a", "", "Address to listen on (overrides server.addr)")
}
