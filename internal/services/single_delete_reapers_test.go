package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/Ken-Miura/career-change-supporter-sub002/internal/models"
	"github.com/Ken-Miura/career-change-supporter-sub002/internal/testhelpers"
	"github.com/Ken-Miura/career-change-supporter-sub002/internal/utils"
)

const pwdChangeReqTTL = 10 * time.Minute

func seedPwdChangeReq(store *testhelpers.MemStore, requestedAt time.Time) *models.PwdChangeReq {
	p := &models.PwdChangeReq{
		PwdChangeReqID: uuid.NewString(),
		EmailAddress:   "user@example.com",
		RequestedAt:    requestedAt,
	}
	store.Data().PwdChangeReqs[p.PwdChangeReqID] = p
	return p
}

func TestPwdChangeReqReaper_Boundary(t *testing.T) {
	now := testhelpers.MustParseTime(t, "2023-08-05T21:00:40+09:00")

	t.Run("exactly at ttl is kept", func(t *testing.T) {
		store := testhelpers.NewMemStore()
		p := seedPwdChangeReq(store, now.Add(-pwdChangeReqTTL))

		n, err := NewPwdChangeReqReaper(store, &testhelpers.MockNotifier{}, testMail, pwdChangeReqTTL).Run(context.Background(), now, 0)
		require.NoError(t, err)
		assert.Equal(t, 0, n)
		assert.Contains(t, store.Data().PwdChangeReqs, p.PwdChangeReqID)
	})

	t.Run("one second past ttl is deleted", func(t *testing.T) {
		store := testhelpers.NewMemStore()
		p := seedPwdChangeReq(store, now.Add(-pwdChangeReqTTL-time.Second))

		n, err := NewPwdChangeReqReaper(store, &testhelpers.MockNotifier{}, testMail, pwdChangeReqTTL).Run(context.Background(), now, 0)
		require.NoError(t, err)
		assert.Equal(t, 1, n)
		assert.NotContains(t, store.Data().PwdChangeReqs, p.PwdChangeReqID)
	})
}

func TestPwdChangeReqReaper_BatchCapLeavesRest(t *testing.T) {
	now := testhelpers.MustParseTime(t, "2023-08-05T21:00:40+09:00")
	store := testhelpers.NewMemStore()
	for i := 0; i < 5; i++ {
		seedPwdChangeReq(store, now.Add(-time.Hour))
	}
	reaper := NewPwdChangeReqReaper(store, &testhelpers.MockNotifier{}, testMail, pwdChangeReqTTL)

	n, err := reaper.Run(context.Background(), now, 3)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.Len(t, store.Data().PwdChangeReqs, 2)

	n, err = reaper.Run(context.Background(), now, 3)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Empty(t, store.Data().PwdChangeReqs)
}

func TestPwdChangeReqReaper_ReportNamesFailedToken(t *testing.T) {
	now := testhelpers.MustParseTime(t, "2023-08-05T21:00:40+09:00")
	store := testhelpers.NewMemStore()
	good := seedPwdChangeReq(store, now.Add(-time.Hour))
	bad := seedPwdChangeReq(store, now.Add(-time.Hour))
	store.FailOnKey("pwd_change_reqs.Delete", bad.PwdChangeReqID,
		&utils.StorageError{Op: "pwd_change_reqs.Delete", Err: errors.New("canceling statement due to lock timeout")})

	notifier := &testhelpers.MockNotifier{}
	notifier.On("SendMail", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil).Once()

	n, err := NewPwdChangeReqReaper(store, notifier, testMail, pwdChangeReqTTL).Run(context.Background(), now, 0)
	require.ErrorIs(t, err, utils.ErrBatchHadFailures)
	assert.Equal(t, 2, n)
	assert.NotContains(t, store.Data().PwdChangeReqs, good.PwdChangeReqID)
	assert.Contains(t, store.Data().PwdChangeReqs, bad.PwdChangeReqID)

	body := notifier.Calls[0].Arguments.String(4)
	assert.Contains(t, body, "expired password change requests: 2 processed, 1 failed")
	assert.Contains(t, body, bad.PwdChangeReqID)
	assert.Contains(t, body, "lock timeout")
	assert.NotContains(t, body, good.PwdChangeReqID)
}

func TestStoppedSettlementReaper_Boundary(t *testing.T) {
	now := testhelpers.MustParseTime(t, "2023-08-05T21:00:40+09:00")
	store := testhelpers.NewMemStore()

	atNow := &models.StoppedSettlement{StoppedSettlementID: uuid.New(), ChargeID: "ch_now", CreditFacilitiesExpiredAt: now}
	before := &models.StoppedSettlement{StoppedSettlementID: uuid.New(), ChargeID: "ch_before", CreditFacilitiesExpiredAt: now.Add(-time.Second)}
	store.Data().StoppedSettlements[atNow.StoppedSettlementID] = atNow
	store.Data().StoppedSettlements[before.StoppedSettlementID] = before

	n, err := NewStoppedSettlementReaper(store, &testhelpers.MockNotifier{}, testMail).Run(context.Background(), now, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Contains(t, store.Data().StoppedSettlements, atNow.StoppedSettlementID)
	assert.NotContains(t, store.Data().StoppedSettlements, before.StoppedSettlementID)
}

func TestTempMfaSecretReaper_Boundary(t *testing.T) {
	now := testhelpers.MustParseTime(t, "2023-08-05T21:00:40+09:00")
	store := testhelpers.NewMemStore()

	atNow := &models.TempMfaSecret{TempMfaSecretID: uuid.New(), UserAccountID: uuid.New(), ExpiredAt: now}
	before := &models.TempMfaSecret{TempMfaSecretID: uuid.New(), UserAccountID: uuid.New(), ExpiredAt: now.Add(-time.Second)}
	store.Data().TempMfaSecrets[atNow.TempMfaSecretID] = atNow
	store.Data().TempMfaSecrets[before.TempMfaSecretID] = before

	n, err := NewTempMfaSecretReaper(store, &testhelpers.MockNotifier{}, testMail).Run(context.Background(), now, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Contains(t, store.Data().TempMfaSecrets, atNow.TempMfaSecretID)
	assert.NotContains(t, store.Data().TempMfaSecrets, before.TempMfaSecretID)
}

func TestTempMfaSecretReaper_ConcurrentDeleteIsNotAFailure(t *testing.T) {
	now := testhelpers.MustParseTime(t, "2023-08-05T21:00:40+09:00")
	store := testhelpers.NewMemStore()
	s := &models.TempMfaSecret{TempMfaSecretID: uuid.New(), UserAccountID: uuid.New(), ExpiredAt: now.Add(-time.Minute)}
	store.Data().TempMfaSecrets[s.TempMfaSecretID] = s
	store.FailOn("temp_mfa_secrets.Delete", utils.ErrRecordNotFound)

	n, err := NewTempMfaSecretReaper(store, &testhelpers.MockNotifier{}, testMail).Run(context.Background(), now, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestTempMfaSecretReaper_FailureKeepsSecretOutOfLogsAndReport(t *testing.T) {
	const seed = "JBSWY3DPEHPK3PXPSECRETSEED"
	now := testhelpers.MustParseTime(t, "2023-08-05T21:00:40+09:00")
	store := testhelpers.NewMemStore()
	s := &models.TempMfaSecret{
		TempMfaSecretID:     uuid.New(),
		UserAccountID:       uuid.New(),
		Base32EncodedSecret: seed,
		ExpiredAt:           now.Add(-time.Minute),
	}
	store.Data().TempMfaSecrets[s.TempMfaSecretID] = s
	store.FailOn("temp_mfa_secrets.Delete", &utils.StorageError{Op: "temp_mfa_secrets.Delete", Err: errors.New("deadlock detected")})

	notifier := &testhelpers.MockNotifier{}
	notifier.On("SendMail", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil).Once()

	prevHooks := utils.Logger.ReplaceHooks(make(logrus.LevelHooks))
	defer utils.Logger.ReplaceHooks(prevHooks)
	hook := logtest.NewLocal(utils.Logger)

	_, err := NewTempMfaSecretReaper(store, notifier, testMail).Run(context.Background(), now, 0)
	require.ErrorIs(t, err, utils.ErrBatchHadFailures)

	var logged []string
	for _, e := range hook.AllEntries() {
		line, serr := e.String()
		require.NoError(t, serr)
		logged = append(logged, line)
	}
	require.NotEmpty(t, logged)
	allLogs := strings.Join(logged, "\n")
	assert.NotContains(t, allLogs, seed)
	assert.Contains(t, allLogs, s.TempMfaSecretID.String())

	body := notifier.Calls[0].Arguments.String(4)
	assert.NotContains(t, body, seed)
	assert.Contains(t, body, s.TempMfaSecretID.String())
}
