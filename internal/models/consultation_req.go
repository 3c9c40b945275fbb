package models

import (
	"time"

	"github.com/google/uuid"
)

// ConsultationReq is a consultation a user has requested and paid for (credit
// hold placed) but the consultant has not yet accepted. Once
// LatestCandidateDateTime is too close to accept, the request expires and the
// hold on ChargeID must be released.
type ConsultationReq struct {
	ConsultationReqID         uuid.UUID `json:"consultation_req_id"`
	UserAccountID             uuid.UUID `json:"user_account_id"`
	ConsultantID              uuid.UUID `json:"consultant_id"`
	FirstCandidateDateTime    time.Time `json:"first_candidate_date_time"`
	SecondCandidateDateTime   time.Time `json:"second_candidate_date_time"`
	ThirdCandidateDateTime    time.Time `json:"third_candidate_date_time"`
	LatestCandidateDateTime   time.Time `json:"latest_candidate_date_time"`
	ChargeID                  string    `json:"charge_id"`
	FeePerHourInYen           int64     `json:"fee_per_hour_in_yen"`
	PlatformFeeRateInPercent  string    `json:"platform_fee_rate_in_percentage"`
	CreditFacilitiesExpiredAt time.Time `json:"credit_facilities_expired_at"`
}

func (r *ConsultationReq) GetID() string {
	return r.ConsultationReqID.String()
}
