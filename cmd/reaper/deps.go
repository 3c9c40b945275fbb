package main

import (
	"github.com/Ken-Miura/career-change-supporter-sub002/internal/app"
	"github.com/Ken-Miura/career-change-supporter-sub002/internal/config"
	"github.com/Ken-Miura/career-change-supporter-sub002/internal/constants"
	"github.com/Ken-Miura/career-change-supporter-sub002/internal/repositories"
	"github.com/Ken-Miura/career-change-supporter-sub002/internal/services"
	"github.com/Ken-Miura/career-change-supporter-sub002/internal/utils/mailer"
	"github.com/Ken-Miura/career-change-supporter-sub002/internal/utils/payment"
)

// jobCapabilities lists the optional settings each job needs on top of the
// core config. Delete-only jobs need none.
var jobCapabilities = map[string][]config.Capability{
	constants.JobConsultationReq:   {config.CapabilityPayments},
	constants.JobDeletedAccount:    {config.CapabilityPayments},
	constants.JobPwdChangeReq:      nil,
	constants.JobStoppedSettlement: nil,
	constants.JobTempMfaSecret:     nil,
}

// allJobCapabilities is what `reaper schedule` needs to run every job.
func allJobCapabilities() []config.Capability {
	seen := map[config.Capability]bool{}
	var caps []config.Capability
	for _, js := range jobSchedules {
		for _, c := range jobCapabilities[js.job] {
			if !seen[c] {
				seen[c] = true
				caps = append(caps, c)
			}
		}
	}
	return caps
}

// bootstrap loads config, checks the capabilities the command needs and
// connects to the database. The returned error already carries the matching
// exit code.
func bootstrap(caps ...config.Capability) (*config.Config, *app.App, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, nil, withExitCode(exitConfigError, err)
	}
	if err := cfg.Require(caps...); err != nil {
		return nil, nil, withExitCode(exitConfigError, err)
	}
	application, err := app.NewApp(cfg)
	if err != nil {
		return nil, nil, withExitCode(exitStoreError, err)
	}
	return cfg, application, nil
}

func buildReapers(cfg *config.Config, application *app.App) []services.Reaper {
	return services.NewReapers(cfg, services.ReaperDeps{
		Store:    repositories.NewStore(application.DB),
		Payments: payment.NewStripePlatform(cfg.StripeSecretKey, cfg.AppName),
		Notifier: mailer.NewSendGridMailer(cfg.SendgridAPIKey, cfg.LDFlag_SendgridSandboxMode),
	})
}
