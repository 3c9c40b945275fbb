package services

import "context"

// Notifier delivers one plain-text message. Implementations must not retry.
type Notifier interface {
	SendMail(ctx context.Context, to, from, subject, text string) error
}

// PaymentPlatform is the slice of the payment provider the reapers and the
// account deletion flow need.
type PaymentPlatform interface {
	// ReleaseCreditHold cancels the authorization behind chargeID. Releasing
	// the same charge twice must not move money twice.
	ReleaseCreditHold(ctx context.Context, chargeID, reason string) error
	DeleteTenant(ctx context.Context, tenantID string) error
}

// SearchIndex removes consultant documents from search.
type SearchIndex interface {
	DeleteDocument(ctx context.Context, documentID string) error
}
