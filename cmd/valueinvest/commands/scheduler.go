package commands

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/valueinvest/valueinvest/internal/scheduler"
	"github.com/valueinvest/valueinvest/internal/scheduler/jobs"
)

var schedulerCmd = &cobra.Command{
	Use:   "scheduler",
	Short: "Run scheduled screening jobs",
	Long: `Scheduler runs the watchlist screening job on a cron schedule
(SCHEDULER_CRON, default 16:30 on trading days) and prunes old runs.

SCHEDULER_WATCHLIST must point at a ticker file. Run persistence and
retention need DATABASE_URL.`,
}

var schedulerStartCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the scheduler daemon",
	RunE:  runSchedulerStart,
}

var schedulerListCmd = &cobra.Command{
	Use:   "list",
	Short: "List registered jobs and their schedules",
	RunE: func(cmd *cobra.Command, args []string) error {
		sched, d, err := buildScheduler()
		if err != nil {
			return err
		}
		defer d.close()

		for _, name := range sched.Jobs() {
			fmt.Fprintln(cmd.OutOrStdout(), name)
		}
		return nil
	},
}

var schedulerRunCmd = &cobra.Command{
	Use:   "run <job>",
	Short: "Trigger one job immediately and wait for it",
	Args:  cobra.ExactArgs(1),
	RunE:  runSchedulerRun,
}

func init() {
	rootCmd.AddCommand(schedulerCmd)
	schedulerCmd.AddCommand(schedulerStartCmd)
	schedulerCmd.AddCommand(schedulerListCmd)
	schedulerCmd.AddCommand(schedulerRunCmd)
}

// buildScheduler wires the scheduler with every job the configuration
// supports. The retention job only registers when Postgres is around.
func buildScheduler() (*scheduler.Scheduler, *deps, error) {
	d, err := buildDeps(false)
	if err != nil {
		return nil, nil, err
	}

	sched := scheduler.New(d.log)
	if err := sched.AddJob(jobs.NewScreeningJob(d.provider, d.engine, d.repo, d.cfg.Scheduler, d.log)); err != nil {
		d.close()
		return nil, nil, err
	}
	if d.repo != nil {
		if err := sched.AddJob(jobs.NewRunRetentionJob(d.repo, d.log)); err != nil {
			d.close()
			return nil, nil, err
		}
	}
	return sched, d, nil
}

func runSchedulerStart(cmd *cobra.Command, args []string) error {
	sched, d, err := buildScheduler()
	if err != nil {
		return err
	}
	defer d.close()

	sched.Start()
	d.log.WithField("jobs", sched.Jobs()).Info("Scheduler started")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	d.log.WithField("signal", sig.String()).Info("Shutting down scheduler")
	sched.Stop()
	d.log.Info("Scheduler stopped")
	return nil
}

func runSchedulerRun(cmd *cobra.Command, args []string) error {
	name := args[0]

	sched, d, err := buildScheduler()
	if err != nil {
		return err
	}
	defer d.close()

	if err := sched.RunJob(name); err != nil {
		return err
	}

	// RunJob is asynchronous; poll the history until the run lands.
	for {
		history, err := sched.History(name)
		if err != nil {
			return err
		}
		if last := history.Last(); last != nil {
			if !last.Success {
				return fmt.Errorf("job %s failed: %s", name, last.Error)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "job %s finished in %s\n", name, last.Duration)
			return nil
		}
		time.Sleep(time.Second)
	}
}
