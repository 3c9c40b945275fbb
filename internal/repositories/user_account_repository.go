package repositories

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgtype"

	"github.com/Ken-Miura/career-change-supporter-sub002/internal/models"
)

type UserAccountRepository interface {
	// LockByID selects the account FOR UPDATE. Missing accounts yield
	// utils.ErrRecordNotFound.
	LockByID(ctx context.Context, id uuid.UUID) (*models.UserAccount, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type userAccountRepo struct {
	db DB
}

func NewUserAccountRepository(db DB) UserAccountRepository {
	return &userAccountRepo{db: db}
}

func (r *userAccountRepo) LockByID(ctx context.Context, id uuid.UUID) (*models.UserAccount, error) {
	var (
		u                                     models.UserAccount
		lastLoginTime, mfaEnabledAt, disabled pgtype.Timestamptz
	)
	err := r.db.QueryRow(ctx, `
		SELECT
			user_account_id, email_address, hashed_password, last_login_time,
			created_at, mfa_enabled_at, disabled_at
		FROM user_accounts
		WHERE user_account_id = $1
		FOR UPDATE
	`, id).Scan(
		&u.UserAccountID, &u.EmailAddress, &u.HashedPassword, &lastLoginTime,
		&u.CreatedAt, &mfaEnabledAt, &disabled,
	)
	if err != nil {
		return nil, wrapErr("user_accounts.LockByID", err)
	}
	u.LastLoginTime = timestamptzPtr(lastLoginTime)
	u.MfaEnabledAt = timestamptzPtr(mfaEnabledAt)
	u.DisabledAt = timestamptzPtr(disabled)
	return &u, nil
}

func (r *userAccountRepo) Delete(ctx context.Context, id uuid.UUID) error {
	return execDelete(ctx, r.db, "user_accounts.Delete",
		`DELETE FROM user_accounts WHERE user_account_id = $1`, id)
}
