//go:build integration

package integration

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/Ken-Miura/career-change-supporter-sub002/internal/services"
	"github.com/Ken-Miura/career-change-supporter-sub002/internal/testhelpers"
)

func seedConsultant(t *testing.T, ctx context.Context, id uuid.UUID, createdAt time.Time) {
	t.Helper()
	stmts := []struct {
		sql  string
		args []any
	}{
		{`INSERT INTO user_accounts (user_account_id, email_address, hashed_password, created_at) VALUES ($1, $2, 'hash', $3)`,
			[]any{id, id.String() + "@example.com", createdAt}},
		{`INSERT INTO identities (user_account_id, last_name, first_name, date_of_birth, prefecture, city, address_line1)
			VALUES ($1, 'Yamada', 'Taro', '1990-01-01', 'Tokyo', 'Minato', '1-1-1')`, []any{id}},
		{`INSERT INTO careers (career_id, user_account_id, company_name, career_start_date) VALUES ($1, $2, 'Company', '2015-04-01')`,
			[]any{uuid.New(), id}},
		{`INSERT INTO careers (career_id, user_account_id, company_name, career_start_date) VALUES ($1, $2, 'Company', '2019-04-01')`,
			[]any{uuid.New(), id}},
		{`INSERT INTO consulting_fees (user_account_id, fee_per_hour_in_yen) VALUES ($1, 5000)`, []any{id}},
		{`INSERT INTO mfa_infos (user_account_id, base32_encoded_secret, hashed_recovery_code) VALUES ($1, 'SECRET', 'code')`, []any{id}},
		{`INSERT INTO tenants (user_account_id, tenant_id) VALUES ($1, $2)`, []any{id, "acct_" + id.String()[:8]}},
		{`INSERT INTO documents (user_account_id, document_id) VALUES ($1, $2)`, []any{id, "doc-" + id.String()}},
		{`INSERT INTO settlements (
				settlement_id, consultation_id, consultant_id, charge_id, fee_per_hour_in_yen,
				platform_fee_rate_in_percentage, credit_facilities_expired_at
			) VALUES ($1, $2, $3, $4, 5000, '30.0', $5)`,
			[]any{uuid.New(), uuid.New(), id, "ch_" + id.String()[:8], createdAt.AddDate(1, 0, 20)}},
	}
	for _, s := range stmts {
		_, err := db.Exec(ctx, s.sql, s.args...)
		require.NoError(t, err)
	}
}

// TestAccountDeletionLifecycle walks an account from online deletion through
// the retention purge and the stopped settlement cleanup.
func TestAccountDeletionLifecycle(t *testing.T) {
	truncateAll(t)
	ctx := context.Background()
	deletedAt := testhelpers.MustParseTime(t, "2023-08-05T21:00:40+09:00")
	id := uuid.New()
	seedConsultant(t, ctx, id, deletedAt.AddDate(-1, 0, 0))
	tenantID := "acct_" + id.String()[:8]

	search := &testhelpers.MockSearchIndex{}
	search.On("DeleteDocument", mock.Anything, "doc-"+id.String()).Return(nil).Once()
	payments := &testhelpers.MockPaymentPlatform{}
	payments.On("DeleteTenant", mock.Anything, tenantID).Return(nil).Once()
	deletion := services.NewAccountDeletionService(store, payments, search)

	// Online phase.
	require.NoError(t, deletion.DeleteAccount(ctx, id, deletedAt))
	assert.Equal(t, 0, countRows(t, "user_accounts", "user_account_id = $1", id))
	assert.Equal(t, 1, countRows(t, "deleted_user_accounts", "user_account_id = $1", id))
	assert.Equal(t, 0, countRows(t, "settlements", "consultant_id = $1", id))
	assert.Equal(t, 1, countRows(t, "stopped_settlements", "consultant_id = $1", id))
	assert.Equal(t, 0, countRows(t, "documents", "user_account_id = $1", id))
	assert.Equal(t, 1, countRows(t, "identities", "user_account_id = $1", id))
	search.AssertExpectations(t)

	reaper := services.NewDeletedAccountReaper(store, deletion, &testhelpers.MockNotifier{}, mailCfg, 90, 0)

	// Still inside the retention window.
	n, err := reaper.Run(ctx, deletedAt.AddDate(0, 0, 90), 0)
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	// Past retention, the whole footprint goes.
	n, err = reaper.Run(ctx, deletedAt.AddDate(0, 0, 90).Add(time.Second), 0)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	for _, table := range []string{"deleted_user_accounts", "identities", "careers", "consulting_fees", "mfa_infos", "tenants"} {
		assert.Equal(t, 0, countRows(t, table, "user_account_id = $1", id), table)
	}
	payments.AssertExpectations(t)

	// The stopped settlement lapses with its credit hold window.
	stoppedReaper := services.NewStoppedSettlementReaper(store, &testhelpers.MockNotifier{}, mailCfg)
	n, err = stoppedReaper.Run(ctx, deletedAt.AddDate(0, 0, 21), 0)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, 0, countRows(t, "stopped_settlements", "consultant_id = $1", id))
}
