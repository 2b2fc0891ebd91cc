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

package planner

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/suyogupta/bengaluru-travel-planner/config"
	"github.com/suyogupta/bengaluru-travel-planner/escrow"
	"github.com/suyogupta/bengaluru-travel-planner/internal/apierror"
	redlock "github.com/suyogupta/bengaluru-travel-planner/internal/lock"
	"github.com/suyogupta/bengaluru-travel-planner/internal/notification"
	"github.com/suyogupta/bengaluru-travel-planner/model"
	"github.com/suyogupta/bengaluru-travel-planner/payment"
)

// StartJob creates a pending itinerary job for the given query. Jobs paying
// through escrow get a payment created on the escrow service up front, so the
// buyer receives the identifiers needed to lock funds.
func (p *Planner) StartJob(ctx context.Context, query model.TravelQuery, scheme model.PaymentScheme) (*model.Job, *escrow.PaymentRequest, error) {
	ctx, span := tracer.Start(ctx, "Starting Itinerary Job")
	defer span.End()

	job := &model.Job{
		JobID:         model.GenerateUUIDWithSuffix("job"),
		Status:        model.JobStatusPending,
		PaymentStatus: model.PaymentStatusPending,
		PaymentScheme: scheme,
		Input:         query,
		Message:       "awaiting payment",
		CreatedAt:     time.Now().UTC(),
	}

	var paymentRequest *escrow.PaymentRequest
	if scheme == model.SchemeEscrow {
		if !p.escrow.Enabled() {
			return nil, nil, apierror.NewAPIError(apierror.ErrBadRequest, "escrow payments are not enabled on this server", nil)
		}
		inputHash := model.InputHash(query.ToInputMap())
		purchaserID := model.GeneratePurchaserID()
		created, err := p.escrow.CreatePayment(ctx, inputHash, purchaserID)
		if err != nil {
			notification.NotifyError(err)
			return nil, nil, apierror.NewAPIError(apierror.ErrUpstream, "could not create escrow payment", err)
		}
		job.EscrowPaymentID = created.PaymentID
		if err := p.store.LinkEscrowPayment(ctx, created.PaymentID, job.JobID); err != nil {
			return nil, nil, err
		}
		paymentRequest = created
	}

	if err := p.store.SaveJob(ctx, job); err != nil {
		return nil, nil, err
	}

	if err := SendWebhook(NewWebhook{Event: EventJobQueued, Payload: job}); err != nil {
		logrus.Error(err)
	}
	return job, paymentRequest, nil
}

// ConfirmPayment runs admission for a job against a payment reference. For
// direct payments the reference is a transaction hash; for escrow jobs it is
// the escrow payment id recorded at job creation.
//
// A per-job lock serializes concurrent confirmation attempts, and the job's
// payment status is re-read under the lock, so a job never consumes more than
// one reference even when two valid transactions are claimed at once. The
// replay guard underneath still holds the at-most-once guarantee per
// reference on its own.
func (p *Planner) ConfirmPayment(ctx context.Context, jobID, txRef string) (*model.Job, payment.AdmissionResult, error) {
	ctx, span := tracer.Start(ctx, "Confirming Job Payment")
	defer span.End()

	job, err := p.store.GetJob(ctx, jobID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, payment.AdmissionResult{}, apierror.NewAPIError(apierror.ErrNotFound, fmt.Sprintf("job %s not found", jobID), err)
		}
		return nil, payment.AdmissionResult{}, err
	}

	if job.PaymentStatus == model.PaymentStatusConfirmed {
		return job, payment.AdmissionResult{Admitted: true, PayerAddress: ""}, nil
	}

	ref := txRef
	var verifier payment.Verifier = p.direct
	if job.PaymentScheme == model.SchemeEscrow {
		ref = job.EscrowPaymentID
		verifier = p.escrowVrf
	}
	if ref == "" {
		return nil, payment.AdmissionResult{}, apierror.NewAPIError(apierror.ErrBadRequest, "transaction reference is required", nil)
	}

	locker := redlock.NewLocker(p.redis, fmt.Sprintf("admission:lock:%s", jobID), uuid.New().String())
	if err := locker.WaitLock(ctx, 30*time.Second, 10*time.Second); err != nil {
		return nil, payment.AdmissionResult{}, err
	}
	defer func() {
		if err := locker.Unlock(context.Background()); err != nil {
			logrus.Error("failed to release admission lock", err)
		}
	}()

	// Re-read under the lock: a concurrent attempt with a different
	// reference may have confirmed the job while this one waited.
	job, err = p.store.GetJob(ctx, jobID)
	if err != nil {
		return nil, payment.AdmissionResult{}, err
	}
	if job.PaymentStatus == model.PaymentStatusConfirmed {
		return job, payment.AdmissionResult{Admitted: true}, nil
	}

	result, err := p.admission.Admit(ctx, ref, verifier)
	if err != nil {
		notification.NotifyError(err)
		return nil, payment.AdmissionResult{}, err
	}

	if !result.Admitted {
		if err := SendWebhook(NewWebhook{Event: EventPaymentRejected, Payload: map[string]interface{}{
			"job_id": job.JobID,
			"reason": result.Reason,
		}}); err != nil {
			logrus.Error(err)
		}
		return job, result, nil
	}

	job.PaymentStatus = model.PaymentStatusConfirmed
	job.PaymentTxHash = ref
	job.Message = "payment confirmed, itinerary queued"
	if err := p.store.SaveJob(ctx, job); err != nil {
		return nil, payment.AdmissionResult{}, err
	}

	if err := p.queue.Enqueue(ctx, job.JobID, job.Input); err != nil {
		notification.NotifyError(err)
		return nil, payment.AdmissionResult{}, err
	}

	if err := SendWebhook(NewWebhook{Event: EventPaymentConfirmed, Payload: job}); err != nil {
		logrus.Error(err)
	}
	return job, result, nil
}

// GetJob returns a job by id.
func (p *Planner) GetJob(ctx context.Context, jobID string) (*model.Job, error) {
	job, err := p.store.GetJob(ctx, jobID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, apierror.NewAPIError(apierror.ErrNotFound, fmt.Sprintf("job %s not found", jobID), err)
		}
		return nil, err
	}
	return job, nil
}

// GenerateItinerary runs the planner agents for a confirmed job and records
// the result. Called by the queue worker; failures are stored on the job and
// returned so the queue can retry transient ones.
func (p *Planner) GenerateItinerary(ctx context.Context, jobID string, query model.TravelQuery) error {
	ctx, span := tracer.Start(ctx, "Generating Itinerary")
	defer span.End()

	job, err := p.store.GetJob(ctx, jobID)
	if err != nil {
		return err
	}
	if job.Terminal() {
		logrus.Infof("job %s already terminal, skipping", jobID)
		return nil
	}
	if job.PaymentStatus != model.PaymentStatusConfirmed {
		return errors.Errorf("job %s reached the worker without a confirmed payment", jobID)
	}

	job.Status = model.JobStatusProcessing
	job.Progress = 10
	job.Message = "generating itinerary"
	if err := p.store.SaveJob(ctx, job); err != nil {
		return err
	}

	itinerary, err := p.agents.PlanTrip(ctx, query)
	if err != nil {
		notification.NotifyError(err)
		job.Status = model.JobStatusFailed
		job.Error = err.Error()
		job.Message = "itinerary generation failed"
		if saveErr := p.store.SaveJob(ctx, job); saveErr != nil {
			logrus.Error(saveErr)
		}
		if hookErr := SendWebhook(NewWebhook{Event: EventJobFailed, Payload: job}); hookErr != nil {
			logrus.Error(hookErr)
		}
		return err
	}

	now := time.Now().UTC()
	job.Status = model.JobStatusCompleted
	job.Progress = 100
	job.Message = "itinerary ready"
	job.Result = &model.JobResult{Itinerary: itinerary, Query: query, GeneratedAt: now}
	job.CompletedAt = &now
	if err := p.store.SaveJob(ctx, job); err != nil {
		return err
	}

	p.releaseEscrow(ctx, job)

	if err := SendWebhook(NewWebhook{Event: EventJobCompleted, Payload: job}); err != nil {
		logrus.Error(err)
	}
	return nil
}

// releaseEscrow submits the result hash to the escrow service so the locked
// funds can be released. Release failures are reported but do not fail the
// job; the itinerary is already generated.
func (p *Planner) releaseEscrow(ctx context.Context, job *model.Job) {
	if job.PaymentScheme != model.SchemeEscrow || job.EscrowPaymentID == "" || job.EscrowReleased {
		return
	}
	if err := p.escrow.CompletePayment(ctx, job.EscrowPaymentID, ""); err != nil {
		logrus.Errorf("escrow release failed for job %s: %v", job.JobID, err)
		notification.NotifyError(err)
		return
	}
	job.EscrowReleased = true
	if err := p.store.SaveJob(ctx, job); err != nil {
		logrus.Error(err)
	}
}

// Availability reports whether the service can accept new jobs right now.
type Availability struct {
	Status        string `json:"status"`
	ChainQuery    bool   `json:"chain_query"`
	EscrowEnabled bool   `json:"escrow_enabled"`
	AgentsReady   bool   `json:"agents_ready"`
	Message       string `json:"message,omitempty"`
}

// CheckAvailability reports readiness of the payment and generation pipeline.
func (p *Planner) CheckAvailability(ctx context.Context) Availability {
	conf, err := config.Fetch()
	if err != nil {
		return Availability{Status: "unavailable", Message: err.Error()}
	}

	availability := Availability{
		Status:        "available",
		ChainQuery:    p.chain.Configured(),
		EscrowEnabled: p.escrow.Enabled(),
		AgentsReady:   conf.Agents.ApiKey != "",
	}
	if !availability.ChainQuery && !availability.EscrowEnabled {
		availability.Status = "degraded"
		availability.Message = "no payment verification scheme is configured; all jobs will be rejected"
	}
	if err := p.redis.Ping(ctx).Err(); err != nil {
		availability.Status = "unavailable"
		availability.Message = "redis unreachable"
	}
	return availability
}
