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
package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	model2 "github.com/suyogupta/bengaluru-travel-planner/api/model"
	"github.com/suyogupta/bengaluru-travel-planner/config"
	"github.com/suyogupta/bengaluru-travel-planner/escrow"
	"github.com/suyogupta/bengaluru-travel-planner/internal/apierror"
	"github.com/suyogupta/bengaluru-travel-planner/model"
)

// StartJob handles the creation of a new itinerary job.
// It binds the incoming JSON request to a StartJob object, validates it,
// and creates the pending job. Escrow jobs include the payment identifiers
// the buyer needs in the response.
//
// Responses:
// - 400 Bad Request: If there's an error in binding JSON or validating the request.
// - 201 Created: If the job is successfully created.
func (a Api) StartJob(c *gin.Context) {
	var newJob model2.StartJob
	if err := c.ShouldBindJSON(&newJob); err != nil {
		logrus.Error(err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input"})
		return
	}

	err := newJob.ValidateStartJob()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"errors": err.Error()})
		return
	}

	job, paymentRequest, err := a.planner.StartJob(c.Request.Context(), newJob.ToTravelQuery(), newJob.Scheme())
	if err != nil {
		logrus.Error(err)
		c.JSON(apierror.MapErrorToHTTPStatus(err), gin.H{"error": err.Error()})
		return
	}

	response := gin.H{
		"job_id":         job.JobID,
		"status":         job.Status,
		"payment_status": job.PaymentStatus,
		"payment_scheme": job.PaymentScheme,
	}
	if paymentRequest != nil {
		response["payment"] = paymentRequest
	}
	c.JSON(http.StatusCreated, response)
}

// JobStatus reports a job's state, MIP-003 style, via the job_id query param.
//
// Responses:
// - 400 Bad Request: If job_id is missing.
// - 404 Not Found: If the job does not exist.
// - 200 OK: The job's current status and result when completed.
func (a Api) JobStatus(c *gin.Context) {
	jobID := c.Query("job_id")
	if jobID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "job_id is required. pass it as a query parameter"})
		return
	}

	job, err := a.planner.GetJob(c.Request.Context(), jobID)
	if err != nil {
		c.JSON(apierror.MapErrorToHTTPStatus(err), gin.H{"error": err.Error()})
		return
	}

	response := gin.H{
		"job_id":         job.JobID,
		"status":         job.Status,
		"payment_status": job.PaymentStatus,
		"progress":       job.Progress,
		"message":        job.Message,
	}
	if job.Result != nil {
		response["result"] = job.Result.Itinerary
	}
	if job.Error != "" {
		response["error"] = job.Error
	}
	c.JSON(http.StatusOK, response)
}

// GetJob returns the full job record by route id.
func (a Api) GetJob(c *gin.Context) {
	jobID, passed := c.Params.Get("job_id")
	if !passed {
		c.JSON(http.StatusBadRequest, gin.H{"error": "job_id is required. pass id in the route /:job_id"})
		return
	}

	job, err := a.planner.GetJob(c.Request.Context(), jobID)
	if err != nil {
		c.JSON(apierror.MapErrorToHTTPStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, job)
}

// JobResult returns only the finished itinerary for a job.
//
// Responses:
// - 404 Not Found: If the job does not exist.
// - 409 Conflict: If the job has not completed yet.
// - 200 OK: The itinerary text and when it was generated.
func (a Api) JobResult(c *gin.Context) {
	jobID, passed := c.Params.Get("job_id")
	if !passed {
		c.JSON(http.StatusBadRequest, gin.H{"error": "job_id is required. pass id in the route /:job_id"})
		return
	}

	job, err := a.planner.GetJob(c.Request.Context(), jobID)
	if err != nil {
		c.JSON(apierror.MapErrorToHTTPStatus(err), gin.H{"error": err.Error()})
		return
	}

	if job.Status != model.JobStatusCompleted || job.Result == nil {
		c.JSON(http.StatusConflict, gin.H{
			"error":  "job has no result yet",
			"status": job.Status,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"job_id":       job.JobID,
		"itinerary":    job.Result.Itinerary,
		"generated_at": job.Result.GeneratedAt,
	})
}

// PaymentInfo tells buyers where and how much to pay before starting a job.
func (a Api) PaymentInfo(c *gin.Context) {
	conf, err := config.Fetch()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	schemes := []model.PaymentScheme{model.SchemeDirect}
	if a.planner.Escrow().Enabled() {
		schemes = append(schemes, model.SchemeEscrow)
	}

	c.JSON(http.StatusOK, gin.H{
		"wallet_address":    conf.Payment.WalletAddress,
		"required_lovelace": conf.Payment.RequiredLovelace,
		"required_ada":      model.AdaString(conf.Payment.RequiredLovelace),
		"network":           conf.Blockfrost.Network,
		"payment_schemes":   schemes,
	})
}

// EscrowInfo reports whether escrow payments are accepted and on which network.
func (a Api) EscrowInfo(c *gin.Context) {
	conf, err := config.Fetch()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	response := gin.H{"enabled": a.planner.Escrow().Enabled()}
	if a.planner.Escrow().Enabled() {
		response["agent_id"] = conf.Masumi.AgentID
		response["network"] = conf.Masumi.Network
	}
	c.JSON(http.StatusOK, response)
}

// EscrowPaymentStatus looks up an escrow payment's on-chain state by id.
//
// Responses:
// - 404 Not Found: If the escrow service does not know the payment id.
// - 503 Service Unavailable: If escrow payments are not enabled.
// - 200 OK: The payment's requested action and on-chain state.
func (a Api) EscrowPaymentStatus(c *gin.Context) {
	paymentID, passed := c.Params.Get("payment_id")
	if !passed {
		c.JSON(http.StatusBadRequest, gin.H{"error": "payment_id is required. pass id in the route /:payment_id"})
		return
	}

	if !a.planner.Escrow().Enabled() {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "escrow payments are not enabled"})
		return
	}

	status, err := a.planner.Escrow().GetPayment(c.Request.Context(), paymentID)
	if err != nil {
		if errors.Is(err, escrow.ErrPaymentNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		logrus.Error(err)
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"payment":      status,
		"funds_locked": status.FundsLocked(),
	})
}

// ConfirmPayment handles a payment confirmation attempt for a job.
// It validates the claimed transaction reference and runs admission. A
// rejected payment returns 402 with a machine-readable reason; recoverable
// reasons may be retried with the same reference.
//
// Responses:
// - 400 Bad Request: If there's an error in binding or validating the request.
// - 402 Payment Required: If the payment was rejected.
// - 200 OK: If the payment was admitted and the job queued.
func (a Api) ConfirmPayment(c *gin.Context) {
	jobID, passed := c.Params.Get("job_id")
	if !passed {
		c.JSON(http.StatusBadRequest, gin.H{"error": "job_id is required. pass id in the route /:job_id"})
		return
	}

	var confirm model2.ConfirmPayment
	if err := c.ShouldBindJSON(&confirm); err != nil {
		logrus.Error(err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input"})
		return
	}

	job, err := a.planner.GetJob(c.Request.Context(), jobID)
	if err != nil {
		c.JSON(apierror.MapErrorToHTTPStatus(err), gin.H{"error": err.Error()})
		return
	}

	if err := confirm.ValidateConfirmPayment(job.PaymentScheme); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"errors": err.Error()})
		return
	}

	job, result, err := a.planner.ConfirmPayment(c.Request.Context(), jobID, confirm.TransactionReference)
	if err != nil {
		logrus.Error(err)
		c.JSON(apierror.MapErrorToHTTPStatus(err), gin.H{"error": err.Error()})
		return
	}

	if !result.Admitted {
		c.JSON(http.StatusPaymentRequired, gin.H{
			"admitted":    false,
			"reason":      result.Reason,
			"message":     result.Message,
			"recoverable": result.Reason.Recoverable(),
		})
		return
	}

	response := gin.H{
		"admitted":       true,
		"job_id":         job.JobID,
		"status":         job.Status,
		"payment_status": model.PaymentStatusConfirmed,
	}
	if result.PayerAddress != "" {
		// Attribution only; inputs do not prove who paid.
		response["payer_address"] = result.PayerAddress
	}
	c.JSON(http.StatusOK, response)
}
