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

// Package cardano is the chain query client. It wraps the Blockfrost
// transaction-lookup and transaction-outputs endpoints consumed by payment
// verification.
package cardano

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/pkg/errors"
)

// LovelaceUnit is the unit tag Blockfrost uses for the base currency.
const LovelaceUnit = "lovelace"

var (
	// ErrNotConfigured is returned before any network call when the
	// Blockfrost project credential is missing.
	ErrNotConfigured = errors.New("blockfrost project id not configured")

	// ErrTransactionNotFound means the transaction is not indexed yet.
	// Recoverable: the caller should retry after the chain confirms it.
	ErrTransactionNotFound = errors.New("transaction not found on chain")

	// ErrUnauthorized means the project credential was rejected.
	ErrUnauthorized = errors.New("blockfrost rejected the project credential")
)

// TransactionRecord is the subset of transaction details verification needs.
type TransactionRecord struct {
	Hash        string `json:"hash"`
	Block       string `json:"block"`
	BlockHeight int64  `json:"block_height"`
	Slot        int64  `json:"slot"`
	Fees        string `json:"fees"`
}

// AssetAmount is one {unit, quantity} pair on a transaction output.
type AssetAmount struct {
	Unit     string `json:"unit"`
	Quantity string `json:"quantity"`
}

// Lovelace returns the quantity when this amount is in the base unit.
func (a AssetAmount) Lovelace() int64 {
	if a.Unit != LovelaceUnit {
		return 0
	}
	v, err := strconv.ParseInt(a.Quantity, 10, 64)
	if err != nil {
		return 0
	}
	return v
}

// TransactionIO is one input or output of a transaction.
type TransactionIO struct {
	Address string        `json:"address"`
	Amount  []AssetAmount `json:"amount"`
}

// TransactionUTXOs carries a transaction's inputs and outputs.
type TransactionUTXOs struct {
	Hash    string          `json:"hash"`
	Inputs  []TransactionIO `json:"inputs"`
	Outputs []TransactionIO `json:"outputs"`
}

// PayerAddress reports the first input's address. Inputs do not prove payer
// identity; this is an attribution heuristic for display only.
func (u *TransactionUTXOs) PayerAddress() string {
	if len(u.Inputs) == 0 {
		return ""
	}
	return u.Inputs[0].Address
}

// LovelaceTo sums the base-currency quantities across every output paying the
// given address. An address may receive several outputs in one transaction;
// all of them count.
func (u *TransactionUTXOs) LovelaceTo(address string) int64 {
	var total int64
	for _, out := range u.Outputs {
		if out.Address != address {
			continue
		}
		for _, amount := range out.Amount {
			total += amount.Lovelace()
		}
	}
	return total
}

// Client queries the Blockfrost indexing API. All calls run with a bounded
// timeout; timeouts surface as transient errors, never as permanent
// rejections.
type Client struct {
	baseURL   string
	projectID string
	http      *http.Client
}

func NewClient(baseURL, projectID string, timeout time.Duration) *Client {
	return &Client{
		baseURL:   baseURL,
		projectID: projectID,
		http:      &http.Client{Timeout: timeout},
	}
}

// Configured reports whether a project credential is present.
func (c *Client) Configured() bool {
	return c.projectID != ""
}

func (c *Client) get(ctx context.Context, path string, out interface{}) error {
	if !c.Configured() {
		return ErrNotConfigured
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	req.Header.Set("project_id", c.projectID)

	resp, err := c.http.Do(req)
	if err != nil {
		return errors.Wrap(err, "chain query failed")
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return ErrTransactionNotFound
	case http.StatusForbidden, http.StatusUnauthorized:
		return ErrUnauthorized
	default:
		return errors.Errorf("blockfrost error: %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return errors.Wrap(err, "decoding chain query response")
	}
	return nil
}

// GetTransaction fetches a transaction record by its reference.
func (c *Client) GetTransaction(ctx context.Context, ref string) (*TransactionRecord, error) {
	var record TransactionRecord
	if err := c.get(ctx, fmt.Sprintf("/txs/%s", ref), &record); err != nil {
		return nil, err
	}
	return &record, nil
}

// GetTransactionUTXOs fetches a transaction's inputs and outputs.
func (c *Client) GetTransactionUTXOs(ctx context.Context, ref string) (*TransactionUTXOs, error) {
	var utxos TransactionUTXOs
	if err := c.get(ctx, fmt.Sprintf("/txs/%s/utxos", ref), &utxos); err != nil {
		return nil, err
	}
	return &utxos, nil
}
