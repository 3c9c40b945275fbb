package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/Ken-Miura/career-change-supporter-sub002/internal/constants"
	"github.com/Ken-Miura/career-change-supporter-sub002/internal/metrics"
	"github.com/Ken-Miura/career-change-supporter-sub002/internal/utils"
)

const reportSendTimeout = 30 * time.Second

// ReaperOperation is the per-entity part of a reaper: how to find expired
// rows and how to get rid of one of them.
type ReaperOperation[T any] interface {
	// FindExpired returns at most limit records past cutoff, ordered by
	// primary key. limit <= 0 means no limit.
	FindExpired(ctx context.Context, cutoff time.Time, limit int) ([]T, error)
	// Reconcile performs the record's external side effect (if any) and
	// deletes it. utils.ErrRecordNotFound means the work was already done.
	Reconcile(ctx context.Context, record T) error
}

// ReaperPolicy is the per-job configuration of an ExpirationReaper.
type ReaperPolicy struct {
	Job   string
	Label string
	// Cutoff maps the run's reference time to the expiry boundary.
	Cutoff func(now time.Time) time.Time
	// InterRecordDelay paces jobs that call an external API per record.
	InterRecordDelay time.Duration
}

// ReportMail addresses the failure report.
type ReportMail struct {
	To   string
	From string
	Tag  string
}

// Reaper is a runnable batch job.
type Reaper interface {
	Name() string
	// Run reconciles every expired record and returns how many were fetched.
	// A non-nil error is either a fetch failure or a *utils.BatchError.
	Run(ctx context.Context, now time.Time, maxBatchSize int) (int, error)
}

// ExpirationReaper finds records past their cutoff and reconciles them one by
// one. A failing record is reported and left in place for the next run; it
// never stops the rest of the batch.
type ExpirationReaper[T any] struct {
	policy   ReaperPolicy
	op       ReaperOperation[T]
	notifier Notifier
	mail     ReportMail

	sleep           func(ctx context.Context, d time.Duration) error
	fetchRetryDelay time.Duration
}

func NewExpirationReaper[T any](policy ReaperPolicy, op ReaperOperation[T], notifier Notifier, mail ReportMail) *ExpirationReaper[T] {
	return &ExpirationReaper[T]{
		policy:          policy,
		op:              op,
		notifier:        notifier,
		mail:            mail,
		sleep:           sleepCtx,
		fetchRetryDelay: constants.FetchRetryDelay,
	}
}

func (r *ExpirationReaper[T]) Name() string { return r.policy.Job }

func (r *ExpirationReaper[T]) Run(ctx context.Context, now time.Time, maxBatchSize int) (fetched int, err error) {
	var (
		start     = time.Now()
		attempted int
		failures  []recordFailure[T]
	)
	defer func() {
		metrics.ObserveRun(r.policy.Job, attempted, len(failures), time.Since(start), err)
	}()

	cutoff := r.policy.Cutoff(now)
	logger := utils.Logger.WithFields(logrus.Fields{
		"job":    r.policy.Job,
		"cutoff": cutoff.Format(time.RFC3339),
	})

	records, err := r.fetchWithRetry(ctx, cutoff, maxBatchSize, logger)
	if err != nil {
		logger.WithError(err).Error("Failed to fetch expired records")
		return 0, err
	}
	if len(records) == 0 {
		logger.Debug("No expired records")
		return 0, nil
	}
	logger.Infof("Reconciling %d expired records", len(records))

	var cause error
	for i, rec := range records {
		if i > 0 && r.policy.InterRecordDelay > 0 {
			cause = r.sleep(ctx, r.policy.InterRecordDelay)
		} else {
			cause = ctx.Err()
		}
		if cause != nil {
			logger.WithError(cause).Warnf("Stopping early; %d of %d records left for the next run", len(records)-i, len(records))
			break
		}

		attempted++
		recErr := r.op.Reconcile(ctx, rec)
		switch {
		case recErr == nil:
		case errors.Is(recErr, utils.ErrRecordNotFound):
			logger.WithField("record_id", recordID(rec)).Debug("Record already gone")
		default:
			logger.WithField("record_id", recordID(rec)).WithError(recErr).Error("Failed to reconcile expired record")
			failures = append(failures, recordFailure[T]{record: rec, err: recErr})
		}
	}

	if len(failures) == 0 && cause == nil {
		logger.Infof("Reconciled %d expired records", len(records))
		return len(records), nil
	}

	batchErr := &utils.BatchError{
		Job:       r.policy.Job,
		Processed: attempted,
		Failed:    len(failures),
		Cause:     cause,
	}
	if len(failures) > 0 {
		batchErr.Summary = composeReport(r.policy.Label, attempted, failures)
		batchErr.NotifyErr = r.sendReport(ctx, attempted, batchErr.Summary, len(failures))
		if batchErr.NotifyErr != nil {
			logger.WithError(batchErr.NotifyErr).Error("Failed to send failure report")
		}
	}
	return len(records), batchErr
}

func (r *ExpirationReaper[T]) fetchWithRetry(ctx context.Context, cutoff time.Time, limit int, logger *logrus.Entry) ([]T, error) {
	records, err := r.op.FindExpired(ctx, cutoff, limit)
	if err == nil || !isTransientDBError(err) {
		return records, err
	}
	logger.WithError(err).Warn("Fetch hit transient DB error; retrying once")
	if serr := r.sleep(ctx, r.fetchRetryDelay); serr != nil {
		return nil, err
	}
	return r.op.FindExpired(ctx, cutoff, limit)
}

// sendReport mails the report even when ctx was cancelled mid-batch; the
// admin still needs to hear about the records that failed.
func (r *ExpirationReaper[T]) sendReport(ctx context.Context, attempted int, body string, failed int) error {
	mailCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), reportSendTimeout)
	defer cancel()

	subject := fmt.Sprintf(constants.EmailSubjectReaperFailureFormat, r.mail.Tag, r.policy.Label, failed, attempted)
	return r.notifier.SendMail(mailCtx, r.mail.To, r.mail.From, subject, body)
}
