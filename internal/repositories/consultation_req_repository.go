package repositories

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"

	"github.com/Ken-Miura/career-change-supporter-sub002/internal/models"
)

// ConsultationReqRepository handles consultation requests awaiting the
// consultant's acceptance.
type ConsultationReqRepository interface {
	// FindExpired returns requests whose latest candidate time is at or
	// before cutoff, ordered by id. limit <= 0 means no limit.
	FindExpired(ctx context.Context, cutoff time.Time, limit int) ([]*models.ConsultationReq, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type consultationReqRepo struct {
	db DB
}

func NewConsultationReqRepository(db DB) ConsultationReqRepository {
	return &consultationReqRepo{db: db}
}

func baseSelectConsultationReq() string {
	return `
		SELECT
			consultation_req_id, user_account_id, consultant_id,
			first_candidate_date_time, second_candidate_date_time, third_candidate_date_time,
			latest_candidate_date_time, charge_id, fee_per_hour_in_yen,
			platform_fee_rate_in_percentage, credit_facilities_expired_at
		FROM consultation_reqs
	`
}

func scanConsultationReq(row pgx.Row) (*models.ConsultationReq, error) {
	var r models.ConsultationReq
	err := row.Scan(
		&r.ConsultationReqID, &r.UserAccountID, &r.ConsultantID,
		&r.FirstCandidateDateTime, &r.SecondCandidateDateTime, &r.ThirdCandidateDateTime,
		&r.LatestCandidateDateTime, &r.ChargeID, &r.FeePerHourInYen,
		&r.PlatformFeeRateInPercent, &r.CreditFacilitiesExpiredAt,
	)
	if err != nil {
		return nil, err
	}
	return &r, nil
}

func (r *consultationReqRepo) FindExpired(ctx context.Context, cutoff time.Time, limit int) ([]*models.ConsultationReq, error) {
	q, extra := withLimit(baseSelectConsultationReq()+
		" WHERE latest_candidate_date_time <= $1 ORDER BY consultation_req_id", limit)
	return queryAll(ctx, r.db, "consultation_reqs.FindExpired", q, scanConsultationReq, append([]any{cutoff}, extra...)...)
}

func (r *consultationReqRepo) Delete(ctx context.Context, id uuid.UUID) error {
	return execDelete(ctx, r.db, "consultation_reqs.Delete",
		`DELETE FROM consultation_reqs WHERE consultation_req_id = $1`, id)
}
