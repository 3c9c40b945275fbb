// Package payment implements credit hold release and tenant deletion on
// Stripe. A consultation request places an uncaptured charge (the credit
// hold); refunding it before capture releases the authorization.
package payment

import (
	"context"
	"errors"

	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/account"
	"github.com/stripe/stripe-go/v82/refund"

	"github.com/Ken-Miura/career-change-supporter-sub002/internal/constants"
	"github.com/Ken-Miura/career-change-supporter-sub002/internal/utils"
)

type StripePlatform struct {
	generatedBy string

	newRefund  func(params *stripe.RefundParams) (*stripe.Refund, error)
	delAccount func(id string, params *stripe.AccountParams) (*stripe.Account, error)
}

// NewStripePlatform sets the global Stripe key. generatedBy is stamped into
// refund metadata so releases can be traced back to the job that made them.
func NewStripePlatform(secretKey, generatedBy string) *StripePlatform {
	stripe.Key = secretKey
	return &StripePlatform{
		generatedBy: generatedBy,
		newRefund:   refund.New,
		delAccount:  account.Del,
	}
}

// ReleaseCreditHold refunds the uncaptured charge. The idempotency key is
// derived from the charge id so a retried release never produces a second
// refund; a charge that is already refunded counts as released.
func (p *StripePlatform) ReleaseCreditHold(ctx context.Context, chargeID, reason string) error {
	params := &stripe.RefundParams{
		Charge: stripe.String(chargeID),
		Metadata: map[string]string{
			constants.StripeMetadataReasonKey:      reason,
			constants.StripeMetadataGeneratedByKey: p.generatedBy,
		},
	}
	params.Context = ctx
	params.SetIdempotencyKey(constants.StripeIdempotencyKeyPrefixRelease + chargeID)

	r, err := p.newRefund(params)
	if err != nil {
		var stripeErr *stripe.Error
		if errors.As(err, &stripeErr) && stripeErr.Code == stripe.ErrorCodeChargeAlreadyRefunded {
			utils.Logger.Infof("Charge %s was already refunded; treating credit hold as released", chargeID)
			return nil
		}
		return classify("ReleaseCreditHold", err)
	}

	utils.Logger.Debugf("Released credit hold on charge %s (refund %s)", chargeID, r.ID)
	return nil
}

// DeleteTenant deletes the connected account backing a consultant's payouts.
func (p *StripePlatform) DeleteTenant(ctx context.Context, tenantID string) error {
	params := &stripe.AccountParams{}
	params.Context = ctx

	if _, err := p.delAccount(tenantID, params); err != nil {
		return classify("DeleteTenant", err)
	}
	utils.Logger.Debugf("Deleted tenant %s", tenantID)
	return nil
}

func classify(op string, err error) error {
	out := &utils.PaymentPlatformError{Op: op, Err: err}
	var stripeErr *stripe.Error
	if errors.As(err, &stripeErr) {
		out.StatusCode = stripeErr.HTTPStatusCode
		out.Code = string(stripeErr.Code)
		out.Body = stripeErr.Msg
		if stripeErr.LastResponse != nil && len(stripeErr.LastResponse.RawJSON) > 0 {
			out.Body = string(stripeErr.LastResponse.RawJSON)
		}
	}
	return out
}
