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

package escrow

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/jarcoal/httpmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/suyogupta/bengaluru-travel-planner/model"
)

const testApiURL = "http://localhost:3001"

func newTestEscrowClient() *Client {
	return NewClient(Config{
		ApiURL:            testApiURL,
		ApiKey:            "masumi_test_key",
		AgentID:           "agent_test_identifier",
		Network:           "Preprod",
		PayByHours:        12,
		SubmitResultHours: 24,
		Timeout:           5 * time.Second,
		ListPageSize:      100,
	})
}

func TestClientDisabledWithoutAgentID(t *testing.T) {
	c := NewClient(Config{ApiURL: testApiURL})
	assert.False(t, c.Enabled())

	_, err := c.CreatePayment(context.Background(), "hash", "purchaser")
	assert.Error(t, err)
}

func TestCreatePayment(t *testing.T) {
	httpmock.Activate()
	defer httpmock.DeactivateAndReset()

	httpmock.RegisterResponder("POST", testApiURL+"/api/v1/payment",
		func(req *http.Request) (*http.Response, error) {
			assert.Equal(t, "masumi_test_key", req.Header.Get("token"))

			var body map[string]interface{}
			require.NoError(t, json.NewDecoder(req.Body).Decode(&body))
			assert.Equal(t, "agent_test_identifier", body["agentIdentifier"])
			assert.Equal(t, "Preprod", body["network"])
			assert.Equal(t, "input_hash_abc", body["inputHash"])
			assert.Len(t, body["identifierFromPurchaser"], 20)

			payBy, err := time.Parse(time.RFC3339, body["payByTime"].(string))
			require.NoError(t, err)
			assert.WithinDuration(t, time.Now().UTC().Add(12*time.Hour), payBy, time.Minute)

			return httpmock.NewStringResponse(201, `{
				"data": {
					"id": "payment_123",
					"blockchainIdentifier": "bcid_xyz",
					"SmartContractWallet": {"walletAddress": "addr_test1_contract"}
				}
			}`), nil
		})

	c := newTestEscrowClient()
	created, err := c.CreatePayment(context.Background(), "input_hash_abc", model.GeneratePurchaserID())
	require.NoError(t, err)
	assert.Equal(t, "payment_123", created.PaymentID)
	assert.Equal(t, "bcid_xyz", created.BlockchainIdentifier)
	assert.Equal(t, "addr_test1_contract", created.SellerAddress)
}

func paymentListResponse(onChainState string) string {
	return `{
		"data": {
			"Payments": [
				{
					"id": "payment_other",
					"onChainState": "",
					"NextAction": {"requestedAction": "WaitingForExternalAction"}
				},
				{
					"id": "payment_123",
					"onChainState": "` + onChainState + `",
					"NextAction": {"requestedAction": "WaitingForExternalAction"},
					"RequestedFunds": [{"unit": "", "amount": "2000000"}]
				}
			]
		}
	}`
}

func TestGetPayment(t *testing.T) {
	httpmock.Activate()
	defer httpmock.DeactivateAndReset()

	httpmock.RegisterResponder("GET", testApiURL+"/api/v1/payment",
		httpmock.NewStringResponder(200, paymentListResponse(StateFundsLocked)))

	c := newTestEscrowClient()
	status, err := c.GetPayment(context.Background(), "payment_123")
	require.NoError(t, err)
	assert.Equal(t, "payment_123", status.PaymentID)
	assert.Equal(t, StateFundsLocked, status.OnChainState)
	assert.Equal(t, int64(2_000_000), status.AmountLovelace)
	assert.True(t, status.FundsLocked())
}

func TestGetPaymentNotFound(t *testing.T) {
	httpmock.Activate()
	defer httpmock.DeactivateAndReset()

	httpmock.RegisterResponder("GET", testApiURL+"/api/v1/payment",
		httpmock.NewStringResponder(200, `{"data": {"Payments": []}}`))

	c := newTestEscrowClient()
	_, err := c.GetPayment(context.Background(), "payment_unknown")
	assert.ErrorIs(t, err, ErrPaymentNotFound)
}

func TestCompletePayment(t *testing.T) {
	httpmock.Activate()
	defer httpmock.DeactivateAndReset()

	httpmock.RegisterResponder("POST", testApiURL+"/api/v1/payment/payment_123/complete",
		func(req *http.Request) (*http.Response, error) {
			var body map[string]string
			require.NoError(t, json.NewDecoder(req.Body).Decode(&body))
			assert.Equal(t, "itinerary-generated", body["resultHash"])
			return httpmock.NewStringResponse(200, `{"status": "success"}`), nil
		})

	c := newTestEscrowClient()
	err := c.CompletePayment(context.Background(), "payment_123", "")
	assert.NoError(t, err)
}

func TestFundsLockedStates(t *testing.T) {
	tests := []struct {
		state  string
		locked bool
	}{
		{StateFundsLocked, true},
		{StateResultSubmitted, true},
		{StateCompleted, true},
		{"", false},
		{"FundsOrDatumInvalid", false},
	}
	for _, tt := range tests {
		status := &PaymentStatus{OnChainState: tt.state}
		assert.Equal(t, tt.locked, status.FundsLocked(), "state %q", tt.state)
	}
}

func TestVerifierNotConfigured(t *testing.T) {
	v := NewVerifier(NewClient(Config{ApiURL: testApiURL}))

	result := v.Check(context.Background(), "payment_123")
	assert.False(t, result.IsValid)
	assert.Equal(t, model.ReasonNotConfigured, result.Reason)
}

func TestVerifierFundsNotLockedYet(t *testing.T) {
	httpmock.Activate()
	defer httpmock.DeactivateAndReset()

	httpmock.RegisterResponder("GET", testApiURL+"/api/v1/payment",
		httpmock.NewStringResponder(200, paymentListResponse("")))

	v := NewVerifier(newTestEscrowClient())
	result := v.Check(context.Background(), "payment_123")
	assert.False(t, result.IsValid)
	assert.Equal(t, model.ReasonNotYetConfirmed, result.Reason)
	assert.True(t, result.Reason.Recoverable())
}

func TestVerifierFundsLocked(t *testing.T) {
	httpmock.Activate()
	defer httpmock.DeactivateAndReset()

	httpmock.RegisterResponder("GET", testApiURL+"/api/v1/payment",
		httpmock.NewStringResponder(200, paymentListResponse(StateFundsLocked)))

	v := NewVerifier(newTestEscrowClient())
	result := v.Check(context.Background(), "payment_123")
	assert.True(t, result.IsValid)
	assert.Equal(t, int64(2_000_000), result.AmountObserved)
}

func TestVerifierServiceErrorIsTransient(t *testing.T) {
	httpmock.Activate()
	defer httpmock.DeactivateAndReset()

	httpmock.RegisterResponder("GET", testApiURL+"/api/v1/payment",
		httpmock.NewStringResponder(500, `{"error": "internal"}`))

	v := NewVerifier(newTestEscrowClient())
	result := v.Check(context.Background(), "payment_123")
	assert.False(t, result.IsValid)
	assert.Equal(t, model.ReasonVerificationError, result.Reason)
	assert.True(t, result.Reason.Recoverable())
}
