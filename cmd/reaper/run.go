package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/Ken-Miura/career-change-supporter-sub002/internal/constants"
	"github.com/Ken-Miura/career-change-supporter-sub002/internal/services"
	"github.com/Ken-Miura/career-change-supporter-sub002/internal/utils"
)

func runCmd() *cobra.Command {
	var maxBatchSize int

	cmd := &cobra.Command{
		Use:   "run <job>",
		Short: "Run one batch of a reaper and exit",
		Long: fmt.Sprintf(`Runs a single batch of the named job. Jobs: %s, %s, %s, %s, %s.

Exit codes: 0 success, 1 configuration error, 2 database unreachable,
3 the batch had failures or could not fetch its records.`,
			constants.JobConsultationReq, constants.JobDeletedAccount, constants.JobPwdChangeReq,
			constants.JobStoppedSettlement, constants.JobTempMfaSecret),
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if maxBatchSize < 0 {
				return withExitCode(exitConfigError, fmt.Errorf("--max-batch-size must not be negative"))
			}

			caps, known := jobCapabilities[args[0]]
			if !known {
				return withExitCode(exitConfigError, fmt.Errorf("unknown job %q", args[0]))
			}

			cfg, application, err := bootstrap(caps...)
			if err != nil {
				return err
			}
			defer application.Close()

			reaper, ok := services.FindReaper(buildReapers(cfg, application), args[0])
			if !ok {
				return withExitCode(exitConfigError, fmt.Errorf("unknown job %q", args[0]))
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			ctx, cancel := context.WithTimeout(ctx, constants.ReaperJobTimeout)
			defer cancel()

			return withExitCode(exitRunError, runOnce(ctx, reaper, utils.NowIn(cfg.Location), maxBatchSize))
		},
	}

	cmd.Flags().IntVarP(&maxBatchSize, "max-batch-size", "n", 0, "Maximum records to fetch (0 = no limit)")
	return cmd
}

// runOnce runs one batch and logs its outcome.
func runOnce(ctx context.Context, reaper services.Reaper, now time.Time, maxBatchSize int) error {
	logger := utils.Logger.WithFields(logrus.Fields{
		"job":            reaper.Name(),
		"now":            now.Format(time.RFC3339),
		"max_batch_size": maxBatchSize,
	})
	logger.Info("Reaper run started")

	n, err := reaper.Run(ctx, now, maxBatchSize)
	if err != nil {
		logger.WithError(err).WithField("processed", n).Error("Reaper run failed")
		return err
	}
	logger.WithField("processed", n).Info("Reaper run finished")
	return nil
}
