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
	"errors"
	"regexp"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/suyogupta/bengaluru-travel-planner/model"
)

// Cardano addresses are bech32 with an "addr" prefix ("addr_test" on test
// networks).
var cardanoAddressPattern = regexp.MustCompile(`^addr`)

// StartJob is the request body for creating a new itinerary job.
type StartJob struct {
	PlanType       string   `json:"plan_type"`
	People         string   `json:"people"`
	NumberOfPeople int      `json:"number_of_people"`
	Location       string   `json:"location"`
	DateOfPlan     string   `json:"date_of_plan"`
	StartTime      string   `json:"start_time"`
	Occasion       string   `json:"occasion"`
	Inclusions     []string `json:"inclusions"`
	Budget         int      `json:"budget"`
	BudgetMode     string   `json:"budget_mode"`
	TransportMode  string   `json:"transport_mode"`
	Remarks        string   `json:"remarks"`
	PaymentScheme  string   `json:"payment_scheme"`
}

func validateDateFormat(format, value, hint string) error {
	_, err := time.Parse(format, value)
	if err != nil {
		return errors.New(hint)
	}
	return nil
}

func (j *StartJob) ValidateStartJob() error {
	return validation.ValidateStruct(j,
		validation.Field(&j.PlanType, validation.Required, validation.In("full-day", "half-day", "evening", "weekend")),
		validation.Field(&j.People, validation.Required, validation.In("solo", "couple", "family", "friends", "colleagues")),
		validation.Field(&j.NumberOfPeople, validation.Required, validation.Min(1), validation.Max(50)),
		validation.Field(&j.Location, validation.Required),
		validation.Field(&j.DateOfPlan, validation.Required, validation.By(func(value interface{}) error {
			return validateDateFormat("2006-01-02", value.(string), "please format the plan date as 'YYYY-MM-DD' (e.g., 2026-09-14)")
		})),
		validation.Field(&j.StartTime, validation.Required, validation.By(func(value interface{}) error {
			return validateDateFormat("15:04", value.(string), "please format the start time as 'HH:MM' (e.g., 09:30)")
		})),
		validation.Field(&j.PaymentScheme, validation.In(string(model.SchemeDirect), string(model.SchemeEscrow))),
	)
}

// ToTravelQuery converts the request into the internal query.
func (j *StartJob) ToTravelQuery() model.TravelQuery {
	return model.TravelQuery{
		PlanType:       j.PlanType,
		People:         j.People,
		NumberOfPeople: j.NumberOfPeople,
		Location:       j.Location,
		DateOfPlan:     j.DateOfPlan,
		StartTime:      j.StartTime,
		Occasion:       j.Occasion,
		Inclusions:     j.Inclusions,
		Budget:         j.Budget,
		BudgetMode:     j.BudgetMode,
		TransportMode:  j.TransportMode,
		Remarks:        j.Remarks,
	}
}

// Scheme returns the requested payment scheme, defaulting to direct.
func (j *StartJob) Scheme() model.PaymentScheme {
	if j.PaymentScheme == string(model.SchemeEscrow) {
		return model.SchemeEscrow
	}
	return model.SchemeDirect
}

// ConfirmPayment is the request body for confirming a job's payment.
type ConfirmPayment struct {
	TransactionReference string `json:"transaction_reference"`
}

func (p *ConfirmPayment) ValidateConfirmPayment(scheme model.PaymentScheme) error {
	if scheme == model.SchemeEscrow {
		// Escrow jobs carry their own payment id; the reference is optional.
		return nil
	}
	return validation.ValidateStruct(p,
		validation.Field(&p.TransactionReference, validation.Required, validation.Length(10, 128)),
	)
}

// SubmitDiary is the request body for a community diary entry.
type SubmitDiary struct {
	WalletAddress string `json:"wallet_address"`
	Title         string `json:"title"`
	Content       string `json:"content"`
	Location      string `json:"location"`
	ImageBase64   string `json:"image_base64"`
	ImageFilename string `json:"image_filename"`
}

func (d *SubmitDiary) ValidateSubmitDiary() error {
	return validation.ValidateStruct(d,
		validation.Field(&d.WalletAddress, validation.Required, validation.Length(8, 128),
			validation.Match(cardanoAddressPattern).Error("must be a Cardano address")),
		validation.Field(&d.Title, validation.Required, validation.Length(3, 120)),
		validation.Field(&d.Content, validation.Required, validation.Length(50, 5000)),
		validation.Field(&d.Location, validation.Required),
	)
}

// FeedbackSpot is one visited spot with its photo proof.
type FeedbackSpot struct {
	SpotName string `json:"spot_name"`
	PhotoURL string `json:"photo_url"`
	Rating   int    `json:"rating"`
	Comment  string `json:"comment"`
}

// SubmitFeedback is the request body for post-trip feedback.
type SubmitFeedback struct {
	JobID          string         `json:"job_id"`
	Spots          []FeedbackSpot `json:"spots"`
	OverallRating  int            `json:"overall_rating"`
	OverallComment string         `json:"overall_comment"`
}

func (f *SubmitFeedback) ValidateSubmitFeedback() error {
	return validation.ValidateStruct(f,
		validation.Field(&f.JobID, validation.Required),
		validation.Field(&f.Spots, validation.Required, validation.Length(1, 20)),
		validation.Field(&f.OverallRating, validation.Required, validation.Min(1), validation.Max(5)),
	)
}

// ToFeedback converts the request into the internal feedback record.
func (f *SubmitFeedback) ToFeedback() *model.Feedback {
	spots := make([]model.FeedbackSpot, 0, len(f.Spots))
	for _, spot := range f.Spots {
		spots = append(spots, model.FeedbackSpot{
			SpotName: spot.SpotName,
			PhotoURL: spot.PhotoURL,
			Rating:   spot.Rating,
			Comment:  spot.Comment,
		})
	}
	return &model.Feedback{
		JobID:          f.JobID,
		Spots:          spots,
		OverallRating:  f.OverallRating,
		OverallComment: f.OverallComment,
	}
}

// MintNFT is the request body for minting a feedback photo NFT.
type MintNFT struct {
	JobID        string `json:"job_id"`
	SpotName     string `json:"spot_name"`
	Photographer string `json:"photographer"`
}

func (m *MintNFT) ValidateMintNFT() error {
	return validation.ValidateStruct(m,
		validation.Field(&m.JobID, validation.Required),
		validation.Field(&m.SpotName, validation.Required),
		validation.Field(&m.Photographer, validation.Required),
	)
}
