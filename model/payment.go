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

package model

// PaymentScheme selects how a job's payment is verified.
type PaymentScheme string

const (
	// SchemeDirect verifies a wallet-to-wallet transfer on chain.
	SchemeDirect PaymentScheme = "direct"
	// SchemeEscrow verifies funds locked in the escrow smart contract.
	SchemeEscrow PaymentScheme = "masumi_escrow"
)

// FailureReason classifies why a payment claim was not accepted.
type FailureReason string

const (
	// ReasonNone marks a valid verification.
	ReasonNone FailureReason = ""
	// ReasonNotConfigured means the chain query credential is missing.
	// Verification fails closed rather than admitting unverified payments.
	ReasonNotConfigured FailureReason = "NOT_CONFIGURED"
	// ReasonNotYetConfirmed means the transaction is not indexed yet. The
	// caller may retry once the chain has confirmed it.
	ReasonNotYetConfirmed FailureReason = "NOT_YET_CONFIRMED"
	// ReasonInsufficientAmount means the destination received less than the
	// required amount.
	ReasonInsufficientAmount FailureReason = "INSUFFICIENT_AMOUNT"
	// ReasonNoMatchingOutput means no output paid the required destination.
	ReasonNoMatchingOutput FailureReason = "NO_MATCHING_OUTPUT"
	// ReasonAlreadyConsumed means the transaction already admitted a job.
	ReasonAlreadyConsumed FailureReason = "ALREADY_CONSUMED"
	// ReasonVerificationError covers transient chain query failures. Retryable.
	ReasonVerificationError FailureReason = "VERIFICATION_ERROR"
)

// Recoverable reports whether the caller may retry the same reference later.
func (r FailureReason) Recoverable() bool {
	return r == ReasonNotYetConfirmed || r == ReasonVerificationError
}

// PaymentClaim is a client's assertion that an on-chain transaction paid for
// a job. Never mutated after creation.
type PaymentClaim struct {
	TransactionReference string        `json:"transaction_reference"`
	ClaimedAmount        int64         `json:"claimed_amount,omitempty"`
	DestinationAddress   string        `json:"destination_address"`
	Scheme               PaymentScheme `json:"scheme"`
}

// PaymentVerification is the outcome of checking a claim against chain state.
// Produced fresh on every verification call and never persisted.
//
// PayerAddress is attributed from the transaction's first input. Inputs do
// not cryptographically prove payer identity, so it is display-only and must
// never be used as an authorization credential.
type PaymentVerification struct {
	IsValid        bool          `json:"is_valid"`
	AmountObserved int64         `json:"amount_observed"`
	PayerAddress   string        `json:"payer_address,omitempty"`
	Reason         FailureReason `json:"reason,omitempty"`
	Message        string        `json:"message,omitempty"`
}

// Invalid builds a failed verification with the given reason and detail.
func Invalid(reason FailureReason, message string) PaymentVerification {
	return PaymentVerification{IsValid: false, Reason: reason, Message: message}
}
