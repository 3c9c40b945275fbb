package dtos

import (
	"time"

	"github.com/google/uuid"
)

type HealthCheckResponse struct {
	Status string `json:"status"`
}

// DeleteAccountResponse is returned once the account has been replaced by its
// tombstone. Profile rows stay until the retention purge.
type DeleteAccountResponse struct {
	UserAccountID uuid.UUID `json:"user_account_id"`
	DeletedAt     time.Time `json:"deleted_at"`
}
