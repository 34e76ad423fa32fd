package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/aretw0/nestflow"
	"github.com/aretw0/nestflow/internal/cli"
	"github.com/aretw0/nestflow/internal/presentation/tui"
	httpAdapter "github.com/aretw0/nestflow/pkg/adapters/http"
	"github.com/aretw0/nestflow/pkg/domain"
	"github.com/aretw0/nestflow/pkg/observability"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	Long: `Serves the editor and player JSON API, graph change events over SSE and
Prometheus metrics at /metrics.`,
	Run: func(cmd *cobra.Command, args []string) {
		metrics := observability.NewMetrics()
		a, eng := mustOpen(cmd, func(logger *slog.Logger) domain.LifecycleHooks {
			return observability.Combine(metrics.Hooks(), observability.LoggingHooks(logger))
		})
		defer a.close()

		addr := a.cfg.HTTP.Addr()
		if port, _ := cmd.Flags().GetInt("port"); port != 0 {
			addr = fmt.Sprintf("%s:%d", a.cfg.HTTP.Host, port)
		}
		grace, _ := cmd.Flags().GetDuration("shutdown-timeout")

		srv := &http.Server{
			Addr: addr,
			Handler: httpAdapter.NewHandler(eng.Modules(), eng.Sessions(),
				httpAdapter.WithMediaStore(a.stores.Media),
				httpAdapter.WithMetrics(metrics),
				httpAdapter.WithLogger(a.logger),
			),
			ReadHeaderTimeout: 10 * time.Second,
		}

		ctx := cli.NewSignalContext(cmd.Context())
		defer ctx.Cancel()

		listenErr := make(chan error, 1)
		go func() { listenErr <- srv.ListenAndServe() }()

		tui.PrintBanner(os.Stdout, nestflow.Version)
		fmt.Printf("Listening on %s (store: %s)\n", addr, a.cfg.Store.Backend)

		select {
		case err := <-listenErr:
			if !errors.Is(err, http.ErrServerClosed) {
				a.fatal("Server error: %v", err)
			}
		case <-ctx.Done():
			fmt.Printf("\nShutting down (%v)...\n", ctx.Signal())
			shutdownCtx, cancel := context.WithTimeout(context.Background(), grace)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				fmt.Printf("Graceful shutdown did not complete in %v: %v\n", grace, err)
				_ = srv.Close()
			}
			fmt.Println("Server stopped")
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().IntP("port", "p", 0, "Port to listen on (overrides http.port)")
	serveCmd.Flags().Duration("shutdown-timeout", 5*time.Second, "How long in-flight requests get to finish")
}
