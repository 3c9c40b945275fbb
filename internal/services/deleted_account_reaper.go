package services

import (
	"context"
	"time"

	"github.com/Ken-Miura/career-change-supporter-sub002/internal/constants"
	"github.com/Ken-Miura/career-change-supporter-sub002/internal/models"
	"github.com/Ken-Miura/career-change-supporter-sub002/internal/repositories"
)

type deletedAccountOperation struct {
	store    repositories.Store
	deletion *AccountDeletionService
}

func (o *deletedAccountOperation) FindExpired(ctx context.Context, cutoff time.Time, limit int) ([]*models.DeletedUserAccount, error) {
	return o.store.DeletedUserAccounts().FindExpired(ctx, cutoff, limit)
}

func (o *deletedAccountOperation) Reconcile(ctx context.Context, d *models.DeletedUserAccount) error {
	return o.deletion.PurgeDeletedAccount(ctx, d.UserAccountID)
}

// NewDeletedAccountReaper builds the `deleted-account` job, which purges what
// is left of an account once its tombstone is older than retentionDays.
func NewDeletedAccountReaper(
	store repositories.Store,
	deletion *AccountDeletionService,
	notifier Notifier,
	mail ReportMail,
	retentionDays int,
	delay time.Duration,
) Reaper {
	return NewExpirationReaper[*models.DeletedUserAccount](
		ReaperPolicy{
			Job:   constants.JobDeletedAccount,
			Label: "deleted accounts past retention",
			Cutoff: func(now time.Time) time.Time {
				return now.AddDate(0, 0, -retentionDays)
			},
			InterRecordDelay: delay,
		},
		&deletedAccountOperation{store: store, deletion: deletion},
		notifier,
		mail,
	)
}
