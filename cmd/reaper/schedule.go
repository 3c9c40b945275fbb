package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	cron "github.com/robfig/cron/v3"
	"github.com/spf13/cobra"

	"github.com/Ken-Miura/career-change-supporter-sub002/internal/constants"
	"github.com/Ken-Miura/career-change-supporter-sub002/internal/controllers"
	"github.com/Ken-Miura/career-change-supporter-sub002/internal/routes"
	"github.com/Ken-Miura/career-change-supporter-sub002/internal/services"
	"github.com/Ken-Miura/career-change-supporter-sub002/internal/utils"
)

type jobSchedule struct {
	job  string
	spec string
}

var jobSchedules = []jobSchedule{
	{constants.JobConsultationReq, constants.ConsultationReqReaperCronSpec},
	{constants.JobDeletedAccount, constants.DeletedAccountReaperCronSpec},
	{constants.JobPwdChangeReq, constants.PwdChangeReqReaperCronSpec},
	{constants.JobStoppedSettlement, constants.StoppedSettlementReaperCronSpec},
	{constants.JobTempMfaSecret, constants.TempMfaSecretReaperCronSpec},
}

func scheduleCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "schedule",
		Short: "Run every reaper on its cron schedule and serve metrics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, application, err := bootstrap(allJobCapabilities()...)
			if err != nil {
				return err
			}
			defer application.Close()

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			c := cron.New(
				cron.WithLocation(cfg.Location),
				cron.WithChain(cron.SkipIfStillRunning(cron.PrintfLogger(utils.Logger))),
			)
			if err := registerJobs(ctx, c, buildReapers(cfg, application), cfg.Location); err != nil {
				return withExitCode(exitConfigError, err)
			}
			c.Start()
			utils.Logger.Infof("Scheduler started with %d jobs", len(c.Entries()))

			router := mux.NewRouter()
			router.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)
			router.HandleFunc(routes.Health, controllers.NewHealthController(application.DB).HealthCheckHandler).Methods(http.MethodGet)
			srv := &http.Server{
				Addr:              ":" + cfg.MetricsPort,
				Handler:           router,
				ReadHeaderTimeout: 10 * time.Second,
			}
			go func() {
				utils.Logger.Infof("Serving metrics on port: %s", cfg.MetricsPort)
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					utils.Logger.WithError(err).Error("Metrics server stopped")
				}
			}()

			<-ctx.Done()
			utils.Logger.Info("Shutting down scheduler")

			shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)

			// Wait for running jobs; they observe ctx cancellation between records.
			<-c.Stop().Done()
			return nil
		},
	}
}

// registerJobs adds one cron entry per reaper. Each firing gets its own
// timeout and a fresh "now" in the business timezone.
func registerJobs(ctx context.Context, c *cron.Cron, reapers []services.Reaper, loc *time.Location) error {
	for _, js := range jobSchedules {
		reaper, ok := services.FindReaper(reapers, js.job)
		if !ok {
			return fmt.Errorf("no reaper registered for job %q", js.job)
		}
		_, err := c.AddFunc(js.spec, func() {
			runCtx, cancel := context.WithTimeout(ctx, constants.ReaperJobTimeout)
			defer cancel()
			// Errors are logged and mailed inside the run.
			_ = runOnce(runCtx, reaper, utils.NowIn(loc), 0)
		})
		if err != nil {
			return fmt.Errorf("adding cron job %s (%s): %w", js.job, js.spec, err)
		}
	}
	return nil
}
