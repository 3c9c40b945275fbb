package repositories

import (
	"context"
	"time"

	"github.com/jackc/pgx/v4"

	"github.com/Ken-Miura/career-change-supporter-sub002/internal/models"
)

// PwdChangeReqRepository handles password reset tokens.
type PwdChangeReqRepository interface {
	FindExpired(ctx context.Context, cutoff time.Time, limit int) ([]*models.PwdChangeReq, error)
	Delete(ctx context.Context, id string) error
}

type pwdChangeReqRepo struct {
	db DB
}

func NewPwdChangeReqRepository(db DB) PwdChangeReqRepository {
	return &pwdChangeReqRepo{db: db}
}

func scanPwdChangeReq(row pgx.Row) (*models.PwdChangeReq, error) {
	var p models.PwdChangeReq
	if err := row.Scan(&p.PwdChangeReqID, &p.EmailAddress, &p.RequestedAt); err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *pwdChangeReqRepo) FindExpired(ctx context.Context, cutoff time.Time, limit int) ([]*models.PwdChangeReq, error) {
	q, extra := withLimit(`
		SELECT pwd_change_req_id, email_address, requested_at
		FROM pwd_change_reqs
		WHERE requested_at < $1
		ORDER BY pwd_change_req_id`, limit)
	return queryAll(ctx, r.db, "pwd_change_reqs.FindExpired", q, scanPwdChangeReq, append([]any{cutoff}, extra...)...)
}

func (r *pwdChangeReqRepo) Delete(ctx context.Context, id string) error {
	return execDelete(ctx, r.db, "pwd_change_reqs.Delete",
		`DELETE FROM pwd_change_reqs WHERE pwd_change_req_id = $1`, id)
}
