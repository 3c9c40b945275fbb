package services

import (
	"context"
	"time"

	"github.com/Ken-Miura/career-change-supporter-sub002/internal/constants"
	"github.com/Ken-Miura/career-change-supporter-sub002/internal/models"
	"github.com/Ken-Miura/career-change-supporter-sub002/internal/repositories"
)

// deleteOnlyOperation covers entities whose expiry has no side effect beyond
// removing the row.
type deleteOnlyOperation[T any] struct {
	find   func(ctx context.Context, cutoff time.Time, limit int) ([]T, error)
	delete func(ctx context.Context, record T) error
}

func (o *deleteOnlyOperation[T]) FindExpired(ctx context.Context, cutoff time.Time, limit int) ([]T, error) {
	return o.find(ctx, cutoff, limit)
}

func (o *deleteOnlyOperation[T]) Reconcile(ctx context.Context, record T) error {
	return o.delete(ctx, record)
}

func nowCutoff(now time.Time) time.Time { return now }

// NewPwdChangeReqReaper builds the `pwd-change-req` job.
func NewPwdChangeReqReaper(store repositories.Store, notifier Notifier, mail ReportMail, ttl time.Duration) Reaper {
	return NewExpirationReaper[*models.PwdChangeReq](
		ReaperPolicy{
			Job:   constants.JobPwdChangeReq,
			Label: "expired password change requests",
			Cutoff: func(now time.Time) time.Time {
				return now.Add(-ttl)
			},
		},
		&deleteOnlyOperation[*models.PwdChangeReq]{
			find: func(ctx context.Context, cutoff time.Time, limit int) ([]*models.PwdChangeReq, error) {
				return store.PwdChangeReqs().FindExpired(ctx, cutoff, limit)
			},
			delete: func(ctx context.Context, p *models.PwdChangeReq) error {
				return store.PwdChangeReqs().Delete(ctx, p.PwdChangeReqID)
			},
		},
		notifier,
		mail,
	)
}

// NewStoppedSettlementReaper builds the `stopped-settlement` job. A stopped
// settlement is dropped once its credit facilities have expired.
func NewStoppedSettlementReaper(store repositories.Store, notifier Notifier, mail ReportMail) Reaper {
	return NewExpirationReaper[*models.StoppedSettlement](
		ReaperPolicy{
			Job:    constants.JobStoppedSettlement,
			Label:  "stopped settlements past credit facilities expiry",
			Cutoff: nowCutoff,
		},
		&deleteOnlyOperation[*models.StoppedSettlement]{
			find: func(ctx context.Context, cutoff time.Time, limit int) ([]*models.StoppedSettlement, error) {
				return store.StoppedSettlements().FindExpired(ctx, cutoff, limit)
			},
			delete: func(ctx context.Context, s *models.StoppedSettlement) error {
				return store.StoppedSettlements().Delete(ctx, s.StoppedSettlementID)
			},
		},
		notifier,
		mail,
	)
}

// NewTempMfaSecretReaper builds the `temp-mfa-secret` job.
func NewTempMfaSecretReaper(store repositories.Store, notifier Notifier, mail ReportMail) Reaper {
	return NewExpirationReaper[*models.TempMfaSecret](
		ReaperPolicy{
			Job:    constants.JobTempMfaSecret,
			Label:  "expired temporary MFA secrets",
			Cutoff: nowCutoff,
		},
		&deleteOnlyOperation[*models.TempMfaSecret]{
			find: func(ctx context.Context, cutoff time.Time, limit int) ([]*models.TempMfaSecret, error) {
				return store.TempMfaSecrets().FindExpired(ctx, cutoff, limit)
			},
			delete: func(ctx context.Context, t *models.TempMfaSecret) error {
				return store.TempMfaSecrets().Delete(ctx, t.TempMfaSecretID)
			},
		},
		notifier,
		mail,
	)
}

