package models

import (
	"time"

	"github.com/google/uuid"
)

// TempMfaSecret is a TOTP secret issued while the user is enabling MFA and
// not yet confirmed.
type TempMfaSecret struct {
	TempMfaSecretID     uuid.UUID `json:"temp_mfa_secret_id"`
	UserAccountID       uuid.UUID `json:"user_account_id"`
	Base32EncodedSecret string    `json:"-"`
	ExpiredAt           time.Time `json:"expired_at"`
}

func (t *TempMfaSecret) GetID() string {
	return t.TempMfaSecretID.String()
}
