/*
Copyright 2025 Bengaluru Travel Planner Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

// Package payment implements payment admission control: verifying a claimed
// on-chain payment against the required destination and amount, and making
// sure one payment never admits more than one job.
package payment

import (
	"context"
	"fmt"

	"github.com/pkg/errors"

	"github.com/suyogupta/bengaluru-travel-planner/cardano"
	"github.com/suyogupta/bengaluru-travel-planner/model"
)

// Verifier decides whether a payment reference is settled. Implementations
// must be idempotent and side-effect free: checking the same reference twice
// against unchanged chain state yields the same result, so callers can retry
// freely. Expected failures (not found, short payment, upstream error) are
// reported in the verification result, never as an error.
type Verifier interface {
	Check(ctx context.Context, ref string) model.PaymentVerification
}

// ChainQuerier is the slice of the chain client the direct verifier uses.
type ChainQuerier interface {
	Configured() bool
	GetTransaction(ctx context.Context, ref string) (*cardano.TransactionRecord, error)
	GetTransactionUTXOs(ctx context.Context, ref string) (*cardano.TransactionUTXOs, error)
}

// DirectVerifier validates a wallet-to-wallet transfer on chain: the
// transaction must exist and its outputs to the configured wallet must sum to
// at least the required lovelace amount.
type DirectVerifier struct {
	chain            ChainQuerier
	walletAddress    string
	requiredLovelace int64
}

func NewDirectVerifier(chain ChainQuerier, walletAddress string, requiredLovelace int64) *DirectVerifier {
	return &DirectVerifier{
		chain:            chain,
		walletAddress:    walletAddress,
		requiredLovelace: requiredLovelace,
	}
}

func (v *DirectVerifier) Check(ctx context.Context, ref string) model.PaymentVerification {
	// Fail closed: an unconfigured credential must never read as success.
	if !v.chain.Configured() {
		return model.Invalid(model.ReasonNotConfigured, "chain query credential not configured")
	}

	if _, err := v.chain.GetTransaction(ctx, ref); err != nil {
		return v.mapChainError(err)
	}

	utxos, err := v.chain.GetTransactionUTXOs(ctx, ref)
	if err != nil {
		return v.mapChainError(err)
	}

	observed := utxos.LovelaceTo(v.walletAddress)
	payer := utxos.PayerAddress()

	switch {
	case observed >= v.requiredLovelace:
		return model.PaymentVerification{
			IsValid:        true,
			AmountObserved: observed,
			PayerAddress:   payer,
		}
	case observed > 0:
		return model.PaymentVerification{
			AmountObserved: observed,
			PayerAddress:   payer,
			Reason:         model.ReasonInsufficientAmount,
			Message: fmt.Sprintf("insufficient payment: received %s ADA, required %s ADA",
				model.AdaString(observed), model.AdaString(v.requiredLovelace)),
		}
	default:
		return model.PaymentVerification{
			PayerAddress: payer,
			Reason:       model.ReasonNoMatchingOutput,
			Message:      "no payment found to the configured wallet address",
		}
	}
}

func (v *DirectVerifier) mapChainError(err error) model.PaymentVerification {
	switch {
	case errors.Is(err, cardano.ErrNotConfigured):
		return model.Invalid(model.ReasonNotConfigured, "chain query credential not configured")
	case errors.Is(err, cardano.ErrTransactionNotFound):
		return model.Invalid(model.ReasonNotYetConfirmed, "transaction not found, wait for confirmation and retry")
	default:
		// Transient failures (timeouts, upstream errors, rejected
		// credentials) stay retryable. They are never remembered as a
		// permanent rejection of the payment.
		return model.Invalid(model.ReasonVerificationError, err.Error())
	}
}
