package repositories

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"

	"github.com/Ken-Miura/career-change-supporter-sub002/internal/models"
)

// TempMfaSecretRepository handles unconfirmed MFA setup secrets.
type TempMfaSecretRepository interface {
	FindExpired(ctx context.Context, cutoff time.Time, limit int) ([]*models.TempMfaSecret, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type tempMfaSecretRepo struct {
	db DB
}

func NewTempMfaSecretRepository(db DB) TempMfaSecretRepository {
	return &tempMfaSecretRepo{db: db}
}

func scanTempMfaSecret(row pgx.Row) (*models.TempMfaSecret, error) {
	var t models.TempMfaSecret
	if err := row.Scan(&t.TempMfaSecretID, &t.UserAccountID, &t.Base32EncodedSecret, &t.ExpiredAt); err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *tempMfaSecretRepo) FindExpired(ctx context.Context, cutoff time.Time, limit int) ([]*models.TempMfaSecret, error) {
	q, extra := withLimit(`
		SELECT temp_mfa_secret_id, user_account_id, base32_encoded_secret, expired_at
		FROM temp_mfa_secrets
		WHERE expired_at < $1
		ORDER BY temp_mfa_secret_id`, limit)
	return queryAll(ctx, r.db, "temp_mfa_secrets.FindExpired", q, scanTempMfaSecret, append([]any{cutoff}, extra...)...)
}

func (r *tempMfaSecretRepo) Delete(ctx context.Context, id uuid.UUID) error {
	return execDelete(ctx, r.db, "temp_mfa_secrets.Delete",
		`DELETE FROM temp_mfa_secrets WHERE temp_mfa_secret_id = $1`, id)
}
