package models

import (
	"time"

	"github.com/google/uuid"
)

// Settlement is the pending payout of one consultation to its consultant.
// It lives while the consultation's credit hold is active.
type Settlement struct {
	SettlementID              uuid.UUID `json:"settlement_id"`
	ConsultationID            uuid.UUID `json:"consultation_id"`
	ConsultantID              uuid.UUID `json:"consultant_id"`
	ChargeID                  string    `json:"charge_id"`
	FeePerHourInYen           int64     `json:"fee_per_hour_in_yen"`
	PlatformFeeRateInPercent  string    `json:"platform_fee_rate_in_percentage"`
	CreditFacilitiesExpiredAt time.Time `json:"credit_facilities_expired_at"`
}

func (s *Settlement) GetID() string {
	return s.SettlementID.String()
}

// Stop copies the settlement into its stopped form.
func (s *Settlement) Stop(stoppedSettlementID uuid.UUID, stoppedAt time.Time) *StoppedSettlement {
	return &StoppedSettlement{
		StoppedSettlementID:       stoppedSettlementID,
		ConsultationID:            s.ConsultationID,
		ConsultantID:              s.ConsultantID,
		ChargeID:                  s.ChargeID,
		FeePerHourInYen:           s.FeePerHourInYen,
		PlatformFeeRateInPercent:  s.PlatformFeeRateInPercent,
		CreditFacilitiesExpiredAt: s.CreditFacilitiesExpiredAt,
		StoppedAt:                 stoppedAt,
	}
}

// StoppedSettlement is a settlement that will never pay out because the
// consultant deleted their account. It is kept until the credit hold window
// lapses.
type StoppedSettlement struct {
	StoppedSettlementID       uuid.UUID `json:"stopped_settlement_id"`
	ConsultationID            uuid.UUID `json:"consultation_id"`
	ConsultantID              uuid.UUID `json:"consultant_id"`
	ChargeID                  string    `json:"charge_id"`
	FeePerHourInYen           int64     `json:"fee_per_hour_in_yen"`
	PlatformFeeRateInPercent  string    `json:"platform_fee_rate_in_percentage"`
	CreditFacilitiesExpiredAt time.Time `json:"credit_facilities_expired_at"`
	StoppedAt                 time.Time `json:"stopped_at"`
}

func (s *StoppedSettlement) GetID() string {
	return s.StoppedSettlementID.String()
}
