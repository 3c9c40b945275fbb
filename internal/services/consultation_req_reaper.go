package services

import (
	"context"
	"time"

	"github.com/Ken-Miura/career-change-supporter-sub002/internal/constants"
	"github.com/Ken-Miura/career-change-supporter-sub002/internal/models"
	"github.com/Ken-Miura/career-change-supporter-sub002/internal/repositories"
)

// consultationReqOperation expires consultation requests the consultant can
// no longer accept in time and releases the requester's credit hold.
type consultationReqOperation struct {
	store    repositories.Store
	payments PaymentPlatform
}

func (o *consultationReqOperation) FindExpired(ctx context.Context, cutoff time.Time, limit int) ([]*models.ConsultationReq, error) {
	return o.store.ConsultationReqs().FindExpired(ctx, cutoff, limit)
}

// Reconcile deletes the request and releases the hold in one transaction.
// If the release fails the delete is rolled back and the next run retries.
func (o *consultationReqOperation) Reconcile(ctx context.Context, req *models.ConsultationReq) error {
	return o.store.WithTx(ctx, func(tx repositories.Store) error {
		if err := tx.ConsultationReqs().Delete(ctx, req.ConsultationReqID); err != nil {
			return err
		}
		return o.payments.ReleaseCreditHold(ctx, req.ChargeID, constants.CreditReleaseReasonExpiredConsultationReq)
	})
}

// NewConsultationReqReaper builds the `consultation-req` job. A request
// expires once its latest candidate time is within minDuration of now.
func NewConsultationReqReaper(
	store repositories.Store,
	payments PaymentPlatform,
	notifier Notifier,
	mail ReportMail,
	minDuration time.Duration,
	delay time.Duration,
) Reaper {
	return NewExpirationReaper[*models.ConsultationReq](
		ReaperPolicy{
			Job:   constants.JobConsultationReq,
			Label: "expired consultation requests",
			Cutoff: func(now time.Time) time.Time {
				return now.Add(minDuration)
			},
			InterRecordDelay: delay,
		},
		&consultationReqOperation{store: store, payments: payments},
		notifier,
		mail,
	)
}
