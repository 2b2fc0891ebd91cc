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

// Package escrow integrates the Masumi payment service. Funds are locked in
// a smart contract until the agent submits its result, at which point the
// escrow is released.
package escrow

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/pkg/errors"

	"github.com/suyogupta/bengaluru-travel-planner/internal/request"
)

// On-chain states in which the buyer's funds are locked in the contract.
const (
	StateFundsLocked     = "FundsLocked"
	StateResultSubmitted = "ResultSubmitted"
	StateCompleted       = "Completed"
)

// ErrPaymentNotFound means the payment id is unknown to the escrow service.
var ErrPaymentNotFound = errors.New("escrow payment not found")

// Config carries the escrow service connection settings.
type Config struct {
	ApiURL            string
	ApiKey            string
	AgentID           string
	Network           string
	PayByHours        int
	SubmitResultHours int
	Timeout           time.Duration
	ListPageSize      int
}

// PaymentRequest is a freshly created escrow payment.
type PaymentRequest struct {
	PaymentID            string `json:"payment_id"`
	BlockchainIdentifier string `json:"blockchain_identifier"`
	SellerAddress        string `json:"seller_address,omitempty"`
}

// PaymentStatus is the current state of an escrow payment.
type PaymentStatus struct {
	PaymentID       string `json:"payment_id"`
	RequestedAction string `json:"requested_action"`
	OnChainState    string `json:"on_chain_state,omitempty"`
	AmountLovelace  int64  `json:"amount_lovelace"`
}

// FundsLocked reports whether the buyer's payment is held by the contract.
func (s *PaymentStatus) FundsLocked() bool {
	switch s.OnChainState {
	case StateFundsLocked, StateResultSubmitted, StateCompleted:
		return true
	}
	return false
}

// Client talks to the Masumi payment service API.
type Client struct {
	cfg Config
}

func NewClient(cfg Config) *Client {
	if cfg.ListPageSize <= 0 {
		cfg.ListPageSize = 100
	}
	return &Client{cfg: cfg}
}

// Enabled reports whether an agent identifier is registered.
func (c *Client) Enabled() bool {
	return c.cfg.AgentID != ""
}

type createPaymentRequest struct {
	AgentIdentifier          string `json:"agentIdentifier"`
	Network                  string `json:"network"`
	InputHash                string `json:"inputHash"`
	IdentifierFromPurchaser  string `json:"identifierFromPurchaser"`
	PayByTime                string `json:"payByTime"`
	SubmitResultTime         string `json:"submitResultTime"`
}

type paymentEnvelope struct {
	Data json.RawMessage `json:"data"`
}

type paymentRecord struct {
	ID                   string `json:"id"`
	BlockchainIdentifier string `json:"blockchainIdentifier"`
	OnChainState         string `json:"onChainState"`
	NextAction           struct {
		RequestedAction string `json:"requestedAction"`
	} `json:"NextAction"`
	RequestedFunds []struct {
		Unit   string `json:"unit"`
		Amount string `json:"amount"`
	} `json:"RequestedFunds"`
	SmartContractWallet struct {
		WalletAddress string `json:"walletAddress"`
	} `json:"SmartContractWallet"`
}

func (r *paymentRecord) lovelace() int64 {
	for _, fund := range r.RequestedFunds {
		if fund.Unit == "" || fund.Unit == "lovelace" {
			v, err := strconv.ParseInt(fund.Amount, 10, 64)
			if err != nil {
				return 0
			}
			return v
		}
	}
	return 0
}

// CreatePayment registers a new escrow payment tied to the hash of the job
// input, and returns the identifiers the buyer needs to fund the contract.
func (c *Client) CreatePayment(ctx context.Context, inputHash string, purchaserID string) (*PaymentRequest, error) {
	if !c.Enabled() {
		return nil, errors.New("escrow agent identifier not configured")
	}

	now := time.Now().UTC()
	body := createPaymentRequest{
		AgentIdentifier:         c.cfg.AgentID,
		Network:                 c.cfg.Network,
		InputHash:               inputHash,
		IdentifierFromPurchaser: purchaserID,
		PayByTime:               now.Add(time.Duration(c.cfg.PayByHours) * time.Hour).Format(time.RFC3339),
		SubmitResultTime:        now.Add(time.Duration(c.cfg.SubmitResultHours) * time.Hour).Format(time.RFC3339),
	}

	payload, err := request.ToJsonReq(&body)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.ApiURL+"/api/v1/payment", payload)
	if err != nil {
		return nil, err
	}
	req.Header.Set("token", c.cfg.ApiKey)

	var envelope paymentEnvelope
	resp, err := request.CallWithTimeout(req, &envelope, c.cfg.Timeout)
	if err != nil {
		return nil, errors.Wrap(err, "escrow payment creation failed")
	}
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return nil, errors.Errorf("escrow service error: %d", resp.StatusCode)
	}

	var record paymentRecord
	if err := json.Unmarshal(envelope.Data, &record); err != nil {
		return nil, errors.Wrap(err, "decoding escrow payment")
	}

	return &PaymentRequest{
		PaymentID:            record.ID,
		BlockchainIdentifier: record.BlockchainIdentifier,
		SellerAddress:        record.SmartContractWallet.WalletAddress,
	}, nil
}

type paymentListData struct {
	Payments []paymentRecord `json:"Payments"`
}

type paymentListEnvelope struct {
	Data paymentListData `json:"data"`
}

// GetPayment looks a payment up by id. The service exposes listing only, so
// the client pages through recent payments and matches locally.
func (c *Client) GetPayment(ctx context.Context, paymentID string) (*PaymentStatus, error) {
	query := url.Values{}
	query.Set("network", c.cfg.Network)
	query.Set("limit", fmt.Sprintf("%d", c.cfg.ListPageSize))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.ApiURL+"/api/v1/payment?"+query.Encode(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("token", c.cfg.ApiKey)

	var envelope paymentListEnvelope
	resp, err := request.CallWithTimeout(req, &envelope, c.cfg.Timeout)
	if err != nil {
		return nil, errors.Wrap(err, "escrow payment lookup failed")
	}
	if resp.StatusCode != http.StatusOK {
		return nil, errors.Errorf("escrow service error: %d", resp.StatusCode)
	}

	for i := range envelope.Data.Payments {
		record := &envelope.Data.Payments[i]
		if record.ID != paymentID {
			continue
		}
		return &PaymentStatus{
			PaymentID:       record.ID,
			RequestedAction: record.NextAction.RequestedAction,
			OnChainState:    record.OnChainState,
			AmountLovelace:  record.lovelace(),
		}, nil
	}
	return nil, ErrPaymentNotFound
}

// CompletePayment submits the result hash for a funded payment, releasing
// the escrow to the agent.
func (c *Client) CompletePayment(ctx context.Context, paymentID, resultHash string) error {
	if resultHash == "" {
		resultHash = "itinerary-generated"
	}
	payload, err := request.ToJsonReq(map[string]string{"resultHash": resultHash})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		fmt.Sprintf("%s/api/v1/payment/%s/complete", c.cfg.ApiURL, paymentID), payload)
	if err != nil {
		return err
	}
	req.Header.Set("token", c.cfg.ApiKey)

	var response map[string]interface{}
	resp, err := request.CallWithTimeout(req, &response, c.cfg.Timeout)
	if err != nil {
		return errors.Wrap(err, "escrow completion failed")
	}
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return errors.Errorf("escrow service error: %d", resp.StatusCode)
	}
	return nil
}
