package jobs

import (
	"context"
	"time"

	"github.com/valueinvest/valueinvest/internal/storage"
	"github.com/valueinvest/valueinvest/pkg/logger"
)

// retentionDays is how long persisted screening runs are kept.
const retentionDays = 90

// RunRetentionJob deletes screening runs past the retention window.
type RunRetentionJob struct {
	repo   *storage.Repository
	logger *logger.Logger
}

// NewRunRetentionJob creates a new retention job.
func NewRunRetentionJob(repo *storage.Repository, log *logger.Logger) *RunRetentionJob {
	return &RunRetentionJob{
		repo:   repo,
		logger: log,
	}
}

// Name returns the job name
func (j *RunRetentionJob) Name() string {
	return "run_retention"
}

// Schedule returns the cron schedule (daily at 03:00)
func (j *RunRetentionJob) Schedule() string {
	return "0 0 3 * * *"
}

// Run deletes expired screening runs.
func (j *RunRetentionJob) Run(ctx context.Context) error {
	cutoff := time.Now().AddDate(0, 0, -retentionDays)

	removed, err := j.repo.DeleteRunsBefore(ctx, cutoff)
	if err != nil {
		return err
	}

	if removed > 0 {
		j.logger.WithField("removed", removed).Info("Expired screening runs removed")
	}
	return nil
}
