package models

import (
	"time"

	"github.com/google/uuid"
)

// DeletedUserAccount is the tombstone written when a user deletes their
// account. It is purged together with the rest of the account's footprint
// once the retention window after DeletedAt has passed.
type DeletedUserAccount struct {
	UserAccountID uuid.UUID  `json:"user_account_id"`
	EmailAddress  string     `json:"email_address"`
	LastLoginTime *time.Time `json:"last_login_time,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	MfaEnabledAt  *time.Time `json:"mfa_enabled_at,omitempty"`
	DisabledAt    *time.Time `json:"disabled_at,omitempty"`
	DeletedAt     time.Time  `json:"deleted_at"`
}

func (d *DeletedUserAccount) GetID() string {
	return d.UserAccountID.String()
}
