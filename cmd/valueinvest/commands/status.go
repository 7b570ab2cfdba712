package commands

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/valueinvest/valueinvest/internal/fetch"
	"github.com/valueinvest/valueinvest/pkg/database"
	"github.com/valueinvest/valueinvest/pkg/httputil"
	"github.com/valueinvest/valueinvest/pkg/logger"
	"github.com/valueinvest/valueinvest/pkg/redis"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show configuration and connectivity",
	RunE:  runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "environment:  %s\n", cfg.Env)
	fmt.Fprintf(out, "api port:     %s\n", cfg.Port)
	fmt.Fprintf(out, "log level:    %s\n", cfg.LogLevel)
	fmt.Fprintf(out, "workers:      %d\n", cfg.Screener.Workers)
	fmt.Fprintf(out, "scheduler:    enabled=%t cron=%q watchlist=%q\n",
		cfg.Scheduler.Enabled, cfg.Scheduler.CronSpec, cfg.Scheduler.Watchlist)

	log := logger.New(cfg)
	client := httputil.New(cfg, log)
	registry := fetch.NewRegistry()
	registry.Register(fetch.NewEastmoneyProvider(cfg.Eastmoney, client, log))
	registry.Register(fetch.NewSinaProvider(cfg.Sina, client, log))
	registry.Register(fetch.NewYahooProvider(cfg.Yahoo, client, log))
	fmt.Fprintf(out, "providers:    %s\n", strings.Join(registry.Names(), ", "))

	ctx, cancel := context.WithTimeout(cmd.Context(), 5*time.Second)
	defer cancel()

	if cfg.HasDatabase() {
		db, err := database.New(cfg)
		if err != nil {
			fmt.Fprintf(out, "postgres:     error (%v)\n", err)
		} else {
			defer db.Close()
			if health, err := db.HealthCheck(ctx); err != nil {
				fmt.Fprintf(out, "postgres:     unhealthy (%v)\n", err)
			} else {
				fmt.Fprintf(out, "postgres:     ok (response %s)\n", health.ResponseTime)
			}
		}
	} else {
		fmt.Fprintln(out, "postgres:     not configured")
	}

	if cfg.Redis.Enabled {
		client, err := redis.New(cfg)
		if err != nil {
			fmt.Fprintf(out, "redis:        error (%v)\n", err)
		} else {
			defer client.Close()
			fmt.Fprintf(out, "redis:        ok (%s:%s db=%d)\n", cfg.Redis.Host, cfg.Redis.Port, cfg.Redis.DB)
		}
	} else {
		fmt.Fprintln(out, "redis:        disabled (in-process cache only)")
	}

	return nil
}
