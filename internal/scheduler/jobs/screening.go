// Package jobs holds the scheduled jobs of the screening service.
package jobs

import (
	"context"
	"fmt"

	"github.com/valueinvest/valueinvest/internal/screener"
	"github.com/valueinvest/valueinvest/internal/storage"
	"github.com/valueinvest/valueinvest/internal/valuation"
	"github.com/valueinvest/valueinvest/pkg/config"
	"github.com/valueinvest/valueinvest/pkg/logger"
)

// ScreeningJob runs the screening pipeline over a watchlist file and
// persists the output.
type ScreeningJob struct {
	provider screener.DataProvider
	engine   *valuation.Engine
	repo     *storage.Repository // nil disables persistence
	cfg      config.SchedulerConfig
	logger   *logger.Logger
}

// NewScreeningJob creates a new watchlist screening job.
func NewScreeningJob(provider screener.DataProvider, engine *valuation.Engine, repo *storage.Repository, cfg config.SchedulerConfig, log *logger.Logger) *ScreeningJob {
	return &ScreeningJob{
		provider: provider,
		engine:   engine,
		repo:     repo,
		cfg:      cfg,
		logger:   log,
	}
}

// Name returns the job name
func (j *ScreeningJob) Name() string {
	return "watchlist_screening"
}

// Schedule returns the configured cron schedule
func (j *ScreeningJob) Schedule() string {
	return j.cfg.CronSpec
}

// Run screens the watchlist and saves the run.
func (j *ScreeningJob) Run(ctx context.Context) error {
	if j.cfg.Watchlist == "" {
		return fmt.Errorf("no watchlist configured")
	}

	tickers, err := screener.ReadTickerFile(j.cfg.Watchlist)
	if err != nil {
		return err
	}
	if len(tickers) == 0 {
		return fmt.Errorf("watchlist %s is empty", j.cfg.Watchlist)
	}

	pipeline := screener.NewPipeline(j.provider, j.engine, j.logger)
	out, err := pipeline.Screen(ctx, screener.Request{
		Tickers:        tickers,
		Strategy:       j.cfg.Strategy,
		IncludeNews:    true,
		IncludeInsider: true,
	})
	if err != nil {
		return fmt.Errorf("screen watchlist: %w", err)
	}

	fields := map[string]interface{}{
		"strategy":  out.Summary.StrategyName,
		"total":     out.Summary.Total,
		"qualified": out.Summary.QualifiedCount,
		"errors":    out.Summary.ErrorCount,
	}

	if j.repo != nil {
		runID, err := j.repo.SaveRun(ctx, out)
		if err != nil {
			return fmt.Errorf("save screening run: %w", err)
		}
		fields["run_id"] = runID
	}

	j.logger.WithFields(fields).Info("Watchlist screening completed")
	return nil
}
