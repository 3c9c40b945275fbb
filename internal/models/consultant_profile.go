package models

import (
	"time"

	"github.com/google/uuid"
)

// The rows below hang off a user account and are removed by the retention
// purge of a deleted account.

type Identity struct {
	UserAccountID uuid.UUID `json:"user_account_id"`
	LastName      string    `json:"last_name"`
	FirstName     string    `json:"first_name"`
	DateOfBirth   time.Time `json:"date_of_birth"`
	Prefecture    string    `json:"prefecture"`
	City          string    `json:"city"`
	AddressLine1  string    `json:"address_line1"`
}

type Career struct {
	CareerID        uuid.UUID  `json:"career_id"`
	UserAccountID   uuid.UUID  `json:"user_account_id"`
	CompanyName     string     `json:"company_name"`
	CareerStartDate time.Time  `json:"career_start_date"`
	CareerEndDate   *time.Time `json:"career_end_date,omitempty"`
}

type ConsultingFee struct {
	UserAccountID   uuid.UUID `json:"user_account_id"`
	FeePerHourInYen int64     `json:"fee_per_hour_in_yen"`
}

type MfaInfo struct {
	UserAccountID       uuid.UUID `json:"user_account_id"`
	Base32EncodedSecret string    `json:"-"`
	HashedRecoveryCode  []byte    `json:"-"`
}

// Tenant links a consultant to their payee record (connected account) on
// the payment platform.
type Tenant struct {
	UserAccountID uuid.UUID `json:"user_account_id"`
	TenantID      string    `json:"tenant_id"`
}

// ConsultantDocument links a consultant to their document in the search
// index.
type ConsultantDocument struct {
	UserAccountID uuid.UUID `json:"user_account_id"`
	DocumentID    string    `json:"document_id"`
}
