package models

import (
	"time"

	"github.com/google/uuid"
)

// UserAccount is a live account. Consultants are user accounts that also own
// identity, career, fee, tenant and search document rows.
type UserAccount struct {
	UserAccountID  uuid.UUID  `json:"user_account_id"`
	EmailAddress   string     `json:"email_address"`
	HashedPassword []byte     `json:"-"`
	LastLoginTime  *time.Time `json:"last_login_time,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	MfaEnabledAt   *time.Time `json:"mfa_enabled_at,omitempty"`
	DisabledAt     *time.Time `json:"disabled_at,omitempty"`
}

// Tombstone copies the account into its deleted-account form.
func (u *UserAccount) Tombstone(deletedAt time.Time) *DeletedUserAccount {
	return &DeletedUserAccount{
		UserAccountID: u.UserAccountID,
		EmailAddress:  u.EmailAddress,
		LastLoginTime: u.LastLoginTime,
		CreatedAt:     u.CreatedAt,
		MfaEnabledAt:  u.MfaEnabledAt,
		DisabledAt:    u.DisabledAt,
		DeletedAt:     deletedAt,
	}
}
