package escrow

import (
	"context"

	"github.com/pkg/errors"

	"github.com/suyogupta/bengaluru-travel-planner/model"
)

// Verifier is the escrow-mediated verification strategy: a payment counts as
// settled once the escrow service reports the funds locked on chain. It
// satisfies the same contract as direct chain verification, so the admission
// orchestrator treats both schemes identically.
type Verifier struct {
	client *Client
}

func NewVerifier(client *Client) *Verifier {
	return &Verifier{client: client}
}

// Check queries the escrow service for the payment's on-chain state. The ref
// is the escrow payment id, not a transaction hash.
func (v *Verifier) Check(ctx context.Context, ref string) model.PaymentVerification {
	if !v.client.Enabled() {
		return model.Invalid(model.ReasonNotConfigured, "escrow agent identifier not configured")
	}

	status, err := v.client.GetPayment(ctx, ref)
	if err != nil {
		if errors.Is(err, ErrPaymentNotFound) {
			return model.Invalid(model.ReasonNotYetConfirmed, "escrow payment not found, wait for the service to register it")
		}
		return model.Invalid(model.ReasonVerificationError, err.Error())
	}

	if !status.FundsLocked() {
		return model.Invalid(model.ReasonNotYetConfirmed,
			"escrow funds not locked yet, wait for blockchain confirmation")
	}

	return model.PaymentVerification{
		IsValid:        true,
		AmountObserved: status.AmountLovelace,
	}
}
