package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/valueinvest/valueinvest/internal/api"
	"github.com/valueinvest/valueinvest/internal/api/handlers"
)

var apiCmd = &cobra.Command{
	Use:   "api",
	Short: "Start the HTTP API server",
	Long: `Start the REST and WebSocket API.

Endpoints:
  GET  /health
  POST /api/v1/screen
  GET  /api/v1/screen/ws
  GET  /api/v1/strategies
  GET  /api/v1/valuation/{ticker}
  GET  /api/v1/valuation/{ticker}/methods
  GET  /api/v1/runs
  GET  /api/v1/runs/{id}

Run history endpoints need DATABASE_URL; everything else works
without Postgres.`,
	RunE: runAPI,
}

func init() {
	rootCmd.AddCommand(apiCmd)
}

func runAPI(cmd *cobra.Command, args []string) error {
	d, err := buildDeps(false)
	if err != nil {
		return err
	}
	defer d.close()

	router := api.NewRouter(
		handlers.NewScreenHandler(d.provider, d.engine, d.repo, d.log),
		handlers.NewValuationHandler(d.registry, d.engine, d.log),
		handlers.NewRunsHandler(d.repo, d.log),
		d.log,
	)
	server := api.New(d.cfg, d.log, router)

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case sig := <-quit:
		d.log.WithField("signal", sig.String()).Info("Shutting down server")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	d.log.Info("Server stopped")
	return nil
}
