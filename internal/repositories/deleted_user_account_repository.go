package repositories

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgtype"
	"github.com/jackc/pgx/v4"

	"github.com/Ken-Miura/career-change-supporter-sub002/internal/models"
)

// DeletedUserAccountRepository handles account tombstones.
type DeletedUserAccountRepository interface {
	Create(ctx context.Context, d *models.DeletedUserAccount) error
	// FindExpired returns tombstones deleted strictly before cutoff.
	FindExpired(ctx context.Context, cutoff time.Time, limit int) ([]*models.DeletedUserAccount, error)
	// LockByID selects the tombstone FOR UPDATE. Only meaningful inside WithTx.
	LockByID(ctx context.Context, id uuid.UUID) (*models.DeletedUserAccount, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type deletedUserAccountRepo struct {
	db DB
}

func NewDeletedUserAccountRepository(db DB) DeletedUserAccountRepository {
	return &deletedUserAccountRepo{db: db}
}

func baseSelectDeletedUserAccount() string {
	return `
		SELECT
			user_account_id, email_address, last_login_time, created_at,
			mfa_enabled_at, disabled_at, deleted_at
		FROM deleted_user_accounts
	`
}

func scanDeletedUserAccount(row pgx.Row) (*models.DeletedUserAccount, error) {
	var (
		d                                     models.DeletedUserAccount
		lastLoginTime, mfaEnabledAt, disabled pgtype.Timestamptz
	)
	err := row.Scan(
		&d.UserAccountID, &d.EmailAddress, &lastLoginTime, &d.CreatedAt,
		&mfaEnabledAt, &disabled, &d.DeletedAt,
	)
	if err != nil {
		return nil, err
	}
	d.LastLoginTime = timestamptzPtr(lastLoginTime)
	d.MfaEnabledAt = timestamptzPtr(mfaEnabledAt)
	d.DisabledAt = timestamptzPtr(disabled)
	return &d, nil
}

func (r *deletedUserAccountRepo) Create(ctx context.Context, d *models.DeletedUserAccount) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO deleted_user_accounts (
			user_account_id, email_address, last_login_time, created_at,
			mfa_enabled_at, disabled_at, deleted_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, d.UserAccountID, d.EmailAddress, d.LastLoginTime, d.CreatedAt,
		d.MfaEnabledAt, d.DisabledAt, d.DeletedAt)
	return wrapErr("deleted_user_accounts.Create", err)
}

func (r *deletedUserAccountRepo) FindExpired(ctx context.Context, cutoff time.Time, limit int) ([]*models.DeletedUserAccount, error) {
	q, extra := withLimit(baseSelectDeletedUserAccount()+
		" WHERE deleted_at < $1 ORDER BY user_account_id", limit)
	return queryAll(ctx, r.db, "deleted_user_accounts.FindExpired", q, scanDeletedUserAccount, append([]any{cutoff}, extra...)...)
}

func (r *deletedUserAccountRepo) LockByID(ctx context.Context, id uuid.UUID) (*models.DeletedUserAccount, error) {
	row := r.db.QueryRow(ctx, baseSelectDeletedUserAccount()+" WHERE user_account_id = $1 FOR UPDATE", id)
	d, err := scanDeletedUserAccount(row)
	if err != nil {
		return nil, wrapErr("deleted_user_accounts.LockByID", err)
	}
	return d, nil
}

func (r *deletedUserAccountRepo) Delete(ctx context.Context, id uuid.UUID) error {
	return execDelete(ctx, r.db, "deleted_user_accounts.Delete",
		`DELETE FROM deleted_user_accounts WHERE user_account_id = $1`, id)
}
