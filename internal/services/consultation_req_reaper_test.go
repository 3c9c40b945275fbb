package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/Ken-Miura/career-change-supporter-sub002/internal/constants"
	"github.com/Ken-Miura/career-change-supporter-sub002/internal/models"
	"github.com/Ken-Miura/career-change-supporter-sub002/internal/testhelpers"
	"github.com/Ken-Miura/career-change-supporter-sub002/internal/utils"
)

const minDurationBeforeAcceptance = 6 * time.Hour

func seedConsultationReq(store *testhelpers.MemStore, latest time.Time, chargeID string) *models.ConsultationReq {
	req := &models.ConsultationReq{
		ConsultationReqID:         uuid.New(),
		UserAccountID:             uuid.New(),
		ConsultantID:              uuid.New(),
		FirstCandidateDateTime:    latest.Add(-2 * time.Hour),
		SecondCandidateDateTime:   latest.Add(-1 * time.Hour),
		ThirdCandidateDateTime:    latest,
		LatestCandidateDateTime:   latest,
		ChargeID:                  chargeID,
		FeePerHourInYen:           5000,
		PlatformFeeRateInPercent:  "30.0",
		CreditFacilitiesExpiredAt: latest.AddDate(0, 0, 7),
	}
	store.Data().ConsultationReqs[req.ConsultationReqID] = req
	return req
}

func newConsultationReqReaperForTest(store *testhelpers.MemStore, payments *testhelpers.MockPaymentPlatform, notifier *testhelpers.MockNotifier) Reaper {
	return NewConsultationReqReaper(store, payments, notifier, testMail, minDurationBeforeAcceptance, 0)
}

func TestConsultationReqReaper_ExactBoundaryIsExpired(t *testing.T) {
	now := testhelpers.MustParseTime(t, "2023-08-05T21:00:40+09:00")
	store := testhelpers.NewMemStore()
	atBoundary := seedConsultationReq(store, now.Add(minDurationBeforeAcceptance), "ch_boundary")
	pastBoundary := seedConsultationReq(store, now.Add(minDurationBeforeAcceptance+time.Second), "ch_later")

	payments := &testhelpers.MockPaymentPlatform{}
	payments.On("ReleaseCreditHold", mock.Anything, "ch_boundary", constants.CreditReleaseReasonExpiredConsultationReq).Return(nil).Once()

	n, err := newConsultationReqReaperForTest(store, payments, &testhelpers.MockNotifier{}).Run(context.Background(), now, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	assert.NotContains(t, store.Data().ConsultationReqs, atBoundary.ConsultationReqID)
	assert.Contains(t, store.Data().ConsultationReqs, pastBoundary.ConsultationReqID)
	payments.AssertExpectations(t)
}

func TestConsultationReqReaper_ReleaseAndDeleteAreAtomic(t *testing.T) {
	now := testhelpers.MustParseTime(t, "2023-08-05T21:00:40+09:00")

	t.Run("release fails keeps row", func(t *testing.T) {
		store := testhelpers.NewMemStore()
		req := seedConsultationReq(store, now, "ch_1")

		payments := &testhelpers.MockPaymentPlatform{}
		payments.On("ReleaseCreditHold", mock.Anything, "ch_1", mock.Anything).
			Return(&utils.PaymentPlatformError{Op: "ReleaseCreditHold", StatusCode: 502, Body: "bad gateway"})
		notifier := &testhelpers.MockNotifier{}
		notifier.On("SendMail", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)

		_, err := newConsultationReqReaperForTest(store, payments, notifier).Run(context.Background(), now, 0)
		require.ErrorIs(t, err, utils.ErrBatchHadFailures)

		assert.Contains(t, store.Data().ConsultationReqs, req.ConsultationReqID)
	})

	t.Run("delete fails skips release", func(t *testing.T) {
		store := testhelpers.NewMemStore()
		req := seedConsultationReq(store, now, "ch_1")
		store.FailOn("consultation_reqs.Delete", &utils.StorageError{Op: "consultation_reqs.Delete", Err: errors.New("lock timeout")})

		payments := &testhelpers.MockPaymentPlatform{}
		notifier := &testhelpers.MockNotifier{}
		notifier.On("SendMail", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)

		_, err := newConsultationReqReaperForTest(store, payments, notifier).Run(context.Background(), now, 0)
		require.ErrorIs(t, err, utils.ErrBatchHadFailures)

		assert.Contains(t, store.Data().ConsultationReqs, req.ConsultationReqID)
		payments.AssertNotCalled(t, "ReleaseCreditHold", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("commit fails after release", func(t *testing.T) {
		store := testhelpers.NewMemStore()
		req := seedConsultationReq(store, now, "ch_1")
		store.FailOnce("commit", &utils.StorageError{Op: "commit", Err: errors.New("connection reset")})

		payments := &testhelpers.MockPaymentPlatform{}
		payments.On("ReleaseCreditHold", mock.Anything, "ch_1", mock.Anything).Return(nil)
		notifier := &testhelpers.MockNotifier{}
		notifier.On("SendMail", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)

		_, err := newConsultationReqReaperForTest(store, payments, notifier).Run(context.Background(), now, 0)
		require.Error(t, err)
		assert.Contains(t, store.Data().ConsultationReqs, req.ConsultationReqID)

		// The next run releases the same charge again; the platform dedupes it.
		n, err := newConsultationReqReaperForTest(store, payments, &testhelpers.MockNotifier{}).Run(context.Background(), now, 0)
		require.NoError(t, err)
		assert.Equal(t, 1, n)
		assert.Empty(t, store.Data().ConsultationReqs)
		payments.AssertNumberOfCalls(t, "ReleaseCreditHold", 2)
	})
}

func TestConsultationReqReaper_PartialFailureDoesNotBlock(t *testing.T) {
	now := testhelpers.MustParseTime(t, "2023-08-05T21:00:40+09:00")
	store := testhelpers.NewMemStore()
	ok1 := seedConsultationReq(store, now.Add(-time.Hour), "ch_ok1")
	bad := seedConsultationReq(store, now.Add(-time.Hour), "ch_bad")
	ok2 := seedConsultationReq(store, now.Add(-time.Hour), "ch_ok2")

	payments := &testhelpers.MockPaymentPlatform{}
	payments.On("ReleaseCreditHold", mock.Anything, "ch_ok1", mock.Anything).Return(nil)
	payments.On("ReleaseCreditHold", mock.Anything, "ch_ok2", mock.Anything).Return(nil)
	payments.On("ReleaseCreditHold", mock.Anything, "ch_bad", mock.Anything).
		Return(&utils.PaymentPlatformError{Op: "ReleaseCreditHold", StatusCode: 404, Code: "resource_missing", Body: `{"error":{"message":"No such charge"}}`})
	notifier := &testhelpers.MockNotifier{}
	notifier.On("SendMail", mock.Anything, "admin@example.com", "system@example.com", mock.Anything, mock.Anything).Return(nil).Once()

	n, err := newConsultationReqReaperForTest(store, payments, notifier).Run(context.Background(), now, 0)

	var batchErr *utils.BatchError
	require.ErrorAs(t, err, &batchErr)
	assert.Equal(t, 3, n)
	assert.Equal(t, 3, batchErr.Processed)
	assert.Equal(t, 1, batchErr.Failed)

	assert.NotContains(t, store.Data().ConsultationReqs, ok1.ConsultationReqID)
	assert.NotContains(t, store.Data().ConsultationReqs, ok2.ConsultationReqID)
	assert.Contains(t, store.Data().ConsultationReqs, bad.ConsultationReqID)
	payments.AssertNumberOfCalls(t, "ReleaseCreditHold", 3)

	body := notifier.Calls[0].Arguments.String(4)
	assert.Contains(t, body, "3 processed, 1 failed")
	assert.Contains(t, body, bad.ConsultationReqID.String())
	assert.Contains(t, body, "ch_bad")
	assert.Contains(t, body, "status=404")
	assert.Contains(t, body, "No such charge")
	assert.NotContains(t, body, ok1.ConsultationReqID.String())
	assert.NotContains(t, body, ok2.ConsultationReqID.String())
}

func TestConsultationReqReaper_BatchCap(t *testing.T) {
	now := testhelpers.MustParseTime(t, "2023-08-05T21:00:40+09:00")
	store := testhelpers.NewMemStore()
	for i := 0; i < 5; i++ {
		seedConsultationReq(store, now, "ch_"+uuid.NewString())
	}
	payments := &testhelpers.MockPaymentPlatform{}
	payments.On("ReleaseCreditHold", mock.Anything, mock.Anything, mock.Anything).Return(nil)

	n, err := newConsultationReqReaperForTest(store, payments, &testhelpers.MockNotifier{}).Run(context.Background(), now, 2)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Len(t, store.Data().ConsultationReqs, 3)
	payments.AssertNumberOfCalls(t, "ReleaseCreditHold", 2)
}
