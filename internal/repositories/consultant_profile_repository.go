package repositories

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgtype"
	"github.com/jackc/pgx/v4"

	"github.com/Ken-Miura/career-change-supporter-sub002/internal/models"
)

// Repositories for rows owned by a user account. Accounts that never became
// consultants have none of them, so deleting by account id tolerates zero
// matched rows.

type IdentityRepository interface {
	DeleteByUserAccountID(ctx context.Context, userAccountID uuid.UUID) error
}

type identityRepo struct{ db DB }

func NewIdentityRepository(db DB) IdentityRepository { return &identityRepo{db: db} }

func (r *identityRepo) DeleteByUserAccountID(ctx context.Context, userAccountID uuid.UUID) error {
	return execDeleteAny(ctx, r.db, "identities.DeleteByUserAccountID",
		`DELETE FROM identities WHERE user_account_id = $1`, userAccountID)
}

type CareerRepository interface {
	ListByUserAccountID(ctx context.Context, userAccountID uuid.UUID) ([]*models.Career, error)
	Delete(ctx context.Context, careerID uuid.UUID) error
}

type careerRepo struct{ db DB }

func NewCareerRepository(db DB) CareerRepository { return &careerRepo{db: db} }

func scanCareer(row pgx.Row) (*models.Career, error) {
	var (
		c       models.Career
		endDate pgtype.Date
	)
	if err := row.Scan(&c.CareerID, &c.UserAccountID, &c.CompanyName, &c.CareerStartDate, &endDate); err != nil {
		return nil, err
	}
	c.CareerEndDate = datePtr(endDate)
	return &c, nil
}

func (r *careerRepo) ListByUserAccountID(ctx context.Context, userAccountID uuid.UUID) ([]*models.Career, error) {
	return queryAll(ctx, r.db, "careers.ListByUserAccountID", `
		SELECT career_id, user_account_id, company_name, career_start_date, career_end_date
		FROM careers
		WHERE user_account_id = $1
		ORDER BY career_id`, scanCareer, userAccountID)
}

func (r *careerRepo) Delete(ctx context.Context, careerID uuid.UUID) error {
	return execDelete(ctx, r.db, "careers.Delete",
		`DELETE FROM careers WHERE career_id = $1`, careerID)
}

type ConsultingFeeRepository interface {
	DeleteByUserAccountID(ctx context.Context, userAccountID uuid.UUID) error
}

type consultingFeeRepo struct{ db DB }

func NewConsultingFeeRepository(db DB) ConsultingFeeRepository { return &consultingFeeRepo{db: db} }

func (r *consultingFeeRepo) DeleteByUserAccountID(ctx context.Context, userAccountID uuid.UUID) error {
	return execDeleteAny(ctx, r.db, "consulting_fees.DeleteByUserAccountID",
		`DELETE FROM consulting_fees WHERE user_account_id = $1`, userAccountID)
}

type MfaInfoRepository interface {
	DeleteByUserAccountID(ctx context.Context, userAccountID uuid.UUID) error
}

type mfaInfoRepo struct{ db DB }

func NewMfaInfoRepository(db DB) MfaInfoRepository { return &mfaInfoRepo{db: db} }

func (r *mfaInfoRepo) DeleteByUserAccountID(ctx context.Context, userAccountID uuid.UUID) error {
	return execDeleteAny(ctx, r.db, "mfa_infos.DeleteByUserAccountID",
		`DELETE FROM mfa_infos WHERE user_account_id = $1`, userAccountID)
}

type TenantRepository interface {
	// FindByUserAccountID returns nil, nil when the account has no tenant.
	FindByUserAccountID(ctx context.Context, userAccountID uuid.UUID) (*models.Tenant, error)
	DeleteByUserAccountID(ctx context.Context, userAccountID uuid.UUID) error
}

type tenantRepo struct{ db DB }

func NewTenantRepository(db DB) TenantRepository { return &tenantRepo{db: db} }

func (r *tenantRepo) FindByUserAccountID(ctx context.Context, userAccountID uuid.UUID) (*models.Tenant, error) {
	var t models.Tenant
	err := r.db.QueryRow(ctx,
		`SELECT user_account_id, tenant_id FROM tenants WHERE user_account_id = $1`, userAccountID,
	).Scan(&t.UserAccountID, &t.TenantID)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, wrapErr("tenants.FindByUserAccountID", err)
	}
	return &t, nil
}

func (r *tenantRepo) DeleteByUserAccountID(ctx context.Context, userAccountID uuid.UUID) error {
	return execDelete(ctx, r.db, "tenants.DeleteByUserAccountID",
		`DELETE FROM tenants WHERE user_account_id = $1`, userAccountID)
}

// DocumentRepository maps consultants to their search index documents.
type DocumentRepository interface {
	// LockByUserAccountID selects the row FOR UPDATE and returns nil, nil
	// when the consultant has no document.
	LockByUserAccountID(ctx context.Context, userAccountID uuid.UUID) (*models.ConsultantDocument, error)
	DeleteByUserAccountID(ctx context.Context, userAccountID uuid.UUID) error
}

type documentRepo struct{ db DB }

func NewDocumentRepository(db DB) DocumentRepository { return &documentRepo{db: db} }

func (r *documentRepo) LockByUserAccountID(ctx context.Context, userAccountID uuid.UUID) (*models.ConsultantDocument, error) {
	var d models.ConsultantDocument
	err := r.db.QueryRow(ctx,
		`SELECT user_account_id, document_id FROM documents WHERE user_account_id = $1 FOR UPDATE`, userAccountID,
	).Scan(&d.UserAccountID, &d.DocumentID)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, wrapErr("documents.LockByUserAccountID", err)
	}
	return &d, nil
}

func (r *documentRepo) DeleteByUserAccountID(ctx context.Context, userAccountID uuid.UUID) error {
	return execDelete(ctx, r.db, "documents.DeleteByUserAccountID",
		`DELETE FROM documents WHERE user_account_id = $1`, userAccountID)
}
