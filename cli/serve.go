package cli

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"github.com/warp/inventory-ledger/api"
	"github.com/warp/inventory-ledger/inventory"
	"github.com/warp/inventory-ledger/metrics"
)

// ServeOptions holds flags for the serve command.
type ServeOptions struct {
	*RootOptions
	Port string
}

// NewServeCommand creates the serve command.
func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ServeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the ledger over HTTP",
		Long: `Start the JSON API on INVENTORY_HTTP_PORT (or --port).

When INVENTORY_ARCHIVE_INTERVAL is set, the logs are also archived under the
current day on that interval.

On SIGINT/SIGTERM the server stops accepting connections, waits up to 30s for
active requests, stops the scheduler and closes the database.

Example:
  inventory serve --port 3000`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Port, "port", "", "HTTP port (default INVENTORY_HTTP_PORT)")

	return cmd
}

func runServe(opts *ServeOptions, cmd *cobra.Command) error {
	cfg := opts.Config
	log := opts.logger()

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	ledger, store, err := opts.openLedger(ctx, inventory.WithRecorder(metrics.NewLedgerMetrics(reg)))
	if err != nil {
		return err
	}
	defer store.Close()

	handler := api.NewHandler(ledger, log)
	handler.Ping = store.Ping
	router := api.NewRouter(handler, api.RouterOptions{
		AllowedOrigins: cfg.HTTP.AllowedOrigins,
		Gatherer:       reg,
	})

	if cfg.App.IsProd() && len(cfg.HTTP.AllowedOrigins) == 0 {
		log.Warn(ctx, "no allowed origins configured, cross-origin requests will be refused")
	}

	addr := cfg.HTTP.Addr()
	if opts.Port != "" {
		addr = ":" + opts.Port
	}
	server := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}

	scheduler := api.NewArchiveScheduler(ledger, cfg.Archive.Interval, log)
	scheduler.Start()
	defer scheduler.Stop()

	errCh := make(chan error, 1)
	go func() {
		log.Info(log.WithFields(ctx, map[string]any{"addr": addr, "db": store.Path()}), "server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return WrapExitError(ExitCommandError, "server failed", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info(ctx, "shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return WrapExitError(ExitCommandError, "server forced to shutdown", err)
	}
	log.Info(ctx, "server stopped")
	return nil
}
