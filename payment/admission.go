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

package payment

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/suyogupta/bengaluru-travel-planner/model"
)

// AdmissionResult is the typed outcome of an admission attempt. Rejections
// always carry a reason; the service never admits on an ambiguous outcome.
type AdmissionResult struct {
	Admitted       bool                `json:"admitted"`
	Reason         model.FailureReason `json:"reason,omitempty"`
	Message        string              `json:"message,omitempty"`
	AmountObserved int64               `json:"amount_observed,omitempty"`
	PayerAddress   string              `json:"payer_address,omitempty"`
}

// Orchestrator gates job admission on a verified, unconsumed payment. The
// same sequence serves both payment schemes; the scheme only changes which
// Verifier is passed in.
type Orchestrator struct {
	consumed ConsumedSet
}

func NewOrchestrator(consumed ConsumedSet) *Orchestrator {
	return &Orchestrator{consumed: consumed}
}

// Admit runs the admission sequence for one payment reference:
//
//  1. Reject references that are already consumed, before any external call.
//  2. Verify the payment with the scheme's verifier.
//  3. Atomically re-check and mark the reference. Of N concurrent attempts
//     for the same reference, exactly one marks it and is admitted; the rest
//     observe it as consumed.
//
// Marking never happens without a successful verification.
func (o *Orchestrator) Admit(ctx context.Context, ref string, verifier Verifier) (AdmissionResult, error) {
	used, err := o.consumed.IsUsed(ctx, ref)
	if err != nil {
		return AdmissionResult{}, err
	}
	if used {
		return rejected(model.ReasonAlreadyConsumed, "this transaction has already been used for another job"), nil
	}

	verification := verifier.Check(ctx, ref)
	if !verification.IsValid {
		return AdmissionResult{
			Reason:         verification.Reason,
			Message:        verification.Message,
			AmountObserved: verification.AmountObserved,
			PayerAddress:   verification.PayerAddress,
		}, nil
	}

	marked, err := o.consumed.MarkIfUnused(ctx, ref)
	if err != nil {
		return AdmissionResult{}, err
	}
	if !marked {
		// Lost the race to a concurrent attempt between the initial check
		// and the mark.
		logrus.Infof("payment %s consumed by a concurrent admission", ref)
		return rejected(model.ReasonAlreadyConsumed, "this transaction has already been used for another job"), nil
	}

	return AdmissionResult{
		Admitted:       true,
		AmountObserved: verification.AmountObserved,
		PayerAddress:   verification.PayerAddress,
	}, nil
}

func rejected(reason model.FailureReason, message string) AdmissionResult {
	return AdmissionResult{Reason: reason, Message: message}
}
