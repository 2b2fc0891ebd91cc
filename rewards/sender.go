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

// Package rewards sends ADA rewards for quality diary entries. Transaction
// signing stays inside the payment service wallet; this package only asks it
// to pay out.
package rewards

import (
	"context"
	"net/http"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/suyogupta/bengaluru-travel-planner/internal/request"
)

// Result reports a submitted payout.
type Result struct {
	TxHash      string `json:"tx_hash"`
	ExplorerURL string `json:"explorer_url,omitempty"`
}

// Sender pays a lovelace amount to a recipient wallet.
type Sender interface {
	Send(ctx context.Context, recipientAddress string, amountLovelace int64) (*Result, error)
}

// ErrNotConfigured means no payout service is set up; entries are still
// stored but no reward leaves the wallet.
var ErrNotConfigured = errors.New("reward service not configured")

// Disabled is the Sender used when no payout service is configured.
type Disabled struct{}

func (Disabled) Send(context.Context, string, int64) (*Result, error) {
	return nil, ErrNotConfigured
}

// ServiceSender delegates payouts to the payment service's wallet API.
type ServiceSender struct {
	url     string
	token   string
	timeout time.Duration
}

func NewServiceSender(url, token string, timeout time.Duration) *ServiceSender {
	return &ServiceSender{url: url, token: token, timeout: timeout}
}

type payoutRequest struct {
	RecipientAddress string `json:"recipient_address"`
	AmountLovelace   int64  `json:"amount_lovelace"`
}

type payoutResponse struct {
	TxHash      string `json:"tx_hash"`
	ExplorerURL string `json:"explorer_url"`
	Error       string `json:"error"`
}

func (s *ServiceSender) Send(ctx context.Context, recipientAddress string, amountLovelace int64) (*Result, error) {
	payload, err := request.ToJsonReq(&payoutRequest{
		RecipientAddress: recipientAddress,
		AmountLovelace:   amountLovelace,
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, payload)
	if err != nil {
		return nil, err
	}
	req.Header.Set("token", s.token)

	var decoded payoutResponse
	resp, err := request.CallWithTimeout(req, &decoded, s.timeout)
	if err != nil {
		return nil, errors.Wrap(err, "reward payout failed")
	}
	if resp.StatusCode != http.StatusOK {
		return nil, errors.Errorf("reward service error: %d", resp.StatusCode)
	}
	if decoded.Error != "" {
		return nil, errors.New(decoded.Error)
	}

	logrus.Infof("reward of %d lovelace sent to %s: %s", amountLovelace, recipientAddress, decoded.TxHash)
	return &Result{TxHash: decoded.TxHash, ExplorerURL: decoded.ExplorerURL}, nil
}
