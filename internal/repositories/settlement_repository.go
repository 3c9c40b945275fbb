package repositories

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"

	"github.com/Ken-Miura/career-change-supporter-sub002/internal/models"
)

// SettlementRepository handles settlements that are still due to be paid.
type SettlementRepository interface {
	ListByConsultantID(ctx context.Context, consultantID uuid.UUID) ([]*models.Settlement, error)
	LockByID(ctx context.Context, id uuid.UUID) (*models.Settlement, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type settlementRepo struct {
	db DB
}

func NewSettlementRepository(db DB) SettlementRepository {
	return &settlementRepo{db: db}
}

func baseSelectSettlement() string {
	return `
		SELECT
			settlement_id, consultation_id, consultant_id, charge_id, fee_per_hour_in_yen,
			platform_fee_rate_in_percentage, credit_facilities_expired_at
		FROM settlements
	`
}

func scanSettlement(row pgx.Row) (*models.Settlement, error) {
	var s models.Settlement
	err := row.Scan(
		&s.SettlementID, &s.ConsultationID, &s.ConsultantID, &s.ChargeID, &s.FeePerHourInYen,
		&s.PlatformFeeRateInPercent, &s.CreditFacilitiesExpiredAt,
	)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *settlementRepo) ListByConsultantID(ctx context.Context, consultantID uuid.UUID) ([]*models.Settlement, error) {
	return queryAll(ctx, r.db, "settlements.ListByConsultantID",
		baseSelectSettlement()+" WHERE consultant_id = $1 ORDER BY settlement_id", scanSettlement, consultantID)
}

func (r *settlementRepo) LockByID(ctx context.Context, id uuid.UUID) (*models.Settlement, error) {
	s, err := scanSettlement(r.db.QueryRow(ctx, baseSelectSettlement()+" WHERE settlement_id = $1 FOR UPDATE", id))
	if err != nil {
		return nil, wrapErr("settlements.LockByID", err)
	}
	return s, nil
}

func (r *settlementRepo) Delete(ctx context.Context, id uuid.UUID) error {
	return execDelete(ctx, r.db, "settlements.Delete",
		`DELETE FROM settlements WHERE settlement_id = $1`, id)
}

// StoppedSettlementRepository handles settlements stopped by account deletion.
type StoppedSettlementRepository interface {
	Create(ctx context.Context, s *models.StoppedSettlement) error
	// FindExpired returns stopped settlements whose credit facilities expired
	// strictly before cutoff.
	FindExpired(ctx context.Context, cutoff time.Time, limit int) ([]*models.StoppedSettlement, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type stoppedSettlementRepo struct {
	db DB
}

func NewStoppedSettlementRepository(db DB) StoppedSettlementRepository {
	return &stoppedSettlementRepo{db: db}
}

func scanStoppedSettlement(row pgx.Row) (*models.StoppedSettlement, error) {
	var s models.StoppedSettlement
	err := row.Scan(
		&s.StoppedSettlementID, &s.ConsultationID, &s.ConsultantID, &s.ChargeID, &s.FeePerHourInYen,
		&s.PlatformFeeRateInPercent, &s.CreditFacilitiesExpiredAt, &s.StoppedAt,
	)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *stoppedSettlementRepo) Create(ctx context.Context, s *models.StoppedSettlement) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO stopped_settlements (
			stopped_settlement_id, consultation_id, consultant_id, charge_id, fee_per_hour_in_yen,
			platform_fee_rate_in_percentage, credit_facilities_expired_at, stopped_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, s.StoppedSettlementID, s.ConsultationID, s.ConsultantID, s.ChargeID, s.FeePerHourInYen,
		s.PlatformFeeRateInPercent, s.CreditFacilitiesExpiredAt, s.StoppedAt)
	return wrapErr("stopped_settlements.Create", err)
}

func (r *stoppedSettlementRepo) FindExpired(ctx context.Context, cutoff time.Time, limit int) ([]*models.StoppedSettlement, error) {
	q, extra := withLimit(`
		SELECT
			stopped_settlement_id, consultation_id, consultant_id, charge_id, fee_per_hour_in_yen,
			platform_fee_rate_in_percentage, credit_facilities_expired_at, stopped_at
		FROM stopped_settlements
		WHERE credit_facilities_expired_at < $1
		ORDER BY stopped_settlement_id`, limit)
	return queryAll(ctx, r.db, "stopped_settlements.FindExpired", q, scanStoppedSettlement, append([]any{cutoff}, extra...)...)
}

func (r *stoppedSettlementRepo) Delete(ctx context.Context, id uuid.UUID) error {
	return execDelete(ctx, r.db, "stopped_settlements.Delete",
		`DELETE FROM stopped_settlements WHERE stopped_settlement_id = $1`, id)
}
