package services

import (
	"fmt"

	"github.com/Ken-Miura/career-change-supporter-sub002/internal/config"
	"github.com/Ken-Miura/career-change-supporter-sub002/internal/repositories"
)

// ReaperDeps are the collaborators shared by every reaper.
type ReaperDeps struct {
	Store    repositories.Store
	Payments PaymentPlatform
	Notifier Notifier
}

// NewReapers builds every job in a fixed order.
func NewReapers(cfg *config.Config, deps ReaperDeps) []Reaper {
	mail := ReportMail{
		To:   cfg.AdminEmailAddress,
		From: cfg.SystemEmailAddress,
		Tag:  fmt.Sprintf("%s-%s", cfg.AppName, cfg.Env),
	}
	// The retention purge never touches the search index; the document went
	// with the online phase.
	deletion := NewAccountDeletionService(deps.Store, deps.Payments, nil)

	return []Reaper{
		NewConsultationReqReaper(deps.Store, deps.Payments, deps.Notifier, mail,
			cfg.MinDurationBeforeConsultationAcceptance, cfg.InterRecordDelay),
		NewDeletedAccountReaper(deps.Store, deletion, deps.Notifier, mail,
			cfg.DeletedAccountRetentionDays, cfg.InterRecordDelay),
		NewPwdChangeReqReaper(deps.Store, deps.Notifier, mail, cfg.PwdChangeReqTTL),
		NewStoppedSettlementReaper(deps.Store, deps.Notifier, mail),
		NewTempMfaSecretReaper(deps.Store, deps.Notifier, mail),
	}
}

// FindReaper returns the reaper registered under name.
func FindReaper(reapers []Reaper, name string) (Reaper, bool) {
	for _, r := range reapers {
		if r.Name() == name {
			return r, true
		}
	}
	return nil, false
}
