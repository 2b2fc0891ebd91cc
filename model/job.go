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

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

const (
	JobStatusPending    = "pending"
	JobStatusProcessing = "processing"
	JobStatusCompleted  = "completed"
	JobStatusFailed     = "failed"

	PaymentStatusPending   = "pending"
	PaymentStatusConfirmed = "confirmed"
)

// TravelQuery is the input for an itinerary generation job.
type TravelQuery struct {
	PlanType       string   `json:"plan_type"`
	People         string   `json:"people"`
	NumberOfPeople int      `json:"number_of_people"`
	Location       string   `json:"location"`
	DateOfPlan     string   `json:"date_of_plan"`
	StartTime      string   `json:"start_time"`
	Occasion       string   `json:"occasion,omitempty"`
	Inclusions     []string `json:"inclusions,omitempty"`
	Budget         int      `json:"budget,omitempty"`
	BudgetMode     string   `json:"budget_mode,omitempty"`
	TransportMode  string   `json:"transport_mode,omitempty"`
	Remarks        string   `json:"remarks,omitempty"`
}

// QueryString flattens the query into the prompt line handed to the planner
// agents.
func (q TravelQuery) QueryString() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Plan a %s trip for %d %s starting from %s on %s at %s.",
		q.PlanType, q.NumberOfPeople, q.People, q.Location, q.DateOfPlan, q.StartTime)
	if q.Occasion != "" {
		fmt.Fprintf(&b, " Occasion: %s.", q.Occasion)
	}
	if len(q.Inclusions) > 0 {
		fmt.Fprintf(&b, " Must include: %s.", strings.Join(q.Inclusions, ", "))
	}
	if q.Budget > 0 {
		mode := q.BudgetMode
		if mode == "" {
			mode = "flexible"
		}
		fmt.Fprintf(&b, " Total budget INR %d (%s).", q.Budget, mode)
	}
	if q.TransportMode != "" {
		fmt.Fprintf(&b, " Preferred transport: %s.", q.TransportMode)
	}
	if q.Remarks != "" {
		fmt.Fprintf(&b, " Remarks: %s.", q.Remarks)
	}
	return b.String()
}

// ToInputMap returns the query as a generic map, used for escrow input
// hashing and job bookkeeping.
func (q TravelQuery) ToInputMap() map[string]interface{} {
	raw, _ := json.Marshal(q)
	var m map[string]interface{}
	_ = json.Unmarshal(raw, &m)
	return m
}

// JobResult is the completed itinerary plus the query that produced it.
type JobResult struct {
	Itinerary   string      `json:"itinerary"`
	Query       TravelQuery `json:"query"`
	GeneratedAt time.Time   `json:"generated_at"`
}

// Job tracks one itinerary request through payment admission and generation.
// PaymentStatus transitions pending -> confirmed exactly once, gated by the
// admission orchestrator; a job references at most one transaction as its
// admitting payment.
type Job struct {
	JobID           string        `json:"job_id"`
	Status          string        `json:"status"`
	PaymentStatus   string        `json:"payment_status"`
	PaymentScheme   PaymentScheme `json:"payment_scheme"`
	PaymentTxHash   string        `json:"payment_tx_hash,omitempty"`
	EscrowPaymentID string        `json:"escrow_payment_id,omitempty"`
	EscrowReleased  bool          `json:"escrow_released,omitempty"`
	Input           TravelQuery   `json:"input"`
	Progress        int           `json:"progress"`
	Message         string        `json:"message,omitempty"`
	Result          *JobResult    `json:"result,omitempty"`
	Error           string        `json:"error,omitempty"`
	CreatedAt       time.Time     `json:"created_at"`
	CompletedAt     *time.Time    `json:"completed_at,omitempty"`
}

func (job *Job) ToJSON() ([]byte, error) {
	return json.Marshal(job)
}

// Terminal reports whether the job has finished, successfully or not.
func (job *Job) Terminal() bool {
	return job.Status == JobStatusCompleted || job.Status == JobStatusFailed
}
