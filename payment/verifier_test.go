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
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"

	"github.com/suyogupta/bengaluru-travel-planner/cardano"
	"github.com/suyogupta/bengaluru-travel-planner/model"
)

const (
	testWallet   = "addr_test1_merchant_wallet"
	testRequired = 2_000_000
)

// fakeChain implements ChainQuerier with canned responses.
type fakeChain struct {
	configured bool
	txErr      error
	utxoErr    error
	utxos      *cardano.TransactionUTXOs
}

func (f *fakeChain) Configured() bool { return f.configured }

func (f *fakeChain) GetTransaction(_ context.Context, ref string) (*cardano.TransactionRecord, error) {
	if f.txErr != nil {
		return nil, f.txErr
	}
	return &cardano.TransactionRecord{Hash: ref}, nil
}

func (f *fakeChain) GetTransactionUTXOs(_ context.Context, ref string) (*cardano.TransactionUTXOs, error) {
	if f.utxoErr != nil {
		return nil, f.utxoErr
	}
	f.utxos.Hash = ref
	return f.utxos, nil
}

func utxosPaying(payer string, outputs ...cardano.TransactionIO) *cardano.TransactionUTXOs {
	return &cardano.TransactionUTXOs{
		Inputs:  []cardano.TransactionIO{{Address: payer}},
		Outputs: outputs,
	}
}

func lovelaceOutput(address, quantity string) cardano.TransactionIO {
	return cardano.TransactionIO{
		Address: address,
		Amount:  []cardano.AssetAmount{{Unit: cardano.LovelaceUnit, Quantity: quantity}},
	}
}

func TestDirectVerifierNotConfigured(t *testing.T) {
	v := NewDirectVerifier(&fakeChain{configured: false}, testWallet, testRequired)

	result := v.Check(context.Background(), "tx_ref")
	assert.False(t, result.IsValid)
	assert.Equal(t, model.ReasonNotConfigured, result.Reason)
	assert.False(t, result.Reason.Recoverable())
}

func TestDirectVerifierTransactionNotFound(t *testing.T) {
	v := NewDirectVerifier(&fakeChain{configured: true, txErr: cardano.ErrTransactionNotFound}, testWallet, testRequired)

	result := v.Check(context.Background(), "tx_unconfirmed")
	assert.False(t, result.IsValid)
	assert.Equal(t, model.ReasonNotYetConfirmed, result.Reason)
	assert.True(t, result.Reason.Recoverable())
}

func TestDirectVerifierExactAmountPasses(t *testing.T) {
	chain := &fakeChain{
		configured: true,
		utxos:      utxosPaying("addr_test1_buyer", lovelaceOutput(testWallet, "2000000")),
	}
	v := NewDirectVerifier(chain, testWallet, testRequired)

	result := v.Check(context.Background(), "tx_exact")
	assert.True(t, result.IsValid)
	assert.Equal(t, int64(2_000_000), result.AmountObserved)
	assert.Equal(t, "addr_test1_buyer", result.PayerAddress)
}

func TestDirectVerifierOneLovelaceShortFails(t *testing.T) {
	chain := &fakeChain{
		configured: true,
		utxos:      utxosPaying("addr_test1_buyer", lovelaceOutput(testWallet, "1999999")),
	}
	v := NewDirectVerifier(chain, testWallet, testRequired)

	result := v.Check(context.Background(), "tx_short")
	assert.False(t, result.IsValid)
	assert.Equal(t, model.ReasonInsufficientAmount, result.Reason)
	assert.Equal(t, int64(1_999_999), result.AmountObserved)
	assert.Contains(t, result.Message, "1.999999")
	assert.Contains(t, result.Message, "2")
}

func TestDirectVerifierSumsOutputsToSameAddress(t *testing.T) {
	// Two outputs to the merchant wallet, individually short, together enough.
	chain := &fakeChain{
		configured: true,
		utxos: utxosPaying("addr_test1_buyer",
			lovelaceOutput(testWallet, "1200000"),
			lovelaceOutput("addr_test1_change", "5000000"),
			lovelaceOutput(testWallet, "800000"),
		),
	}
	v := NewDirectVerifier(chain, testWallet, testRequired)

	result := v.Check(context.Background(), "tx_split")
	assert.True(t, result.IsValid)
	assert.Equal(t, int64(2_000_000), result.AmountObserved)
}

func TestDirectVerifierIgnoresNonLovelaceAssets(t *testing.T) {
	chain := &fakeChain{
		configured: true,
		utxos: utxosPaying("addr_test1_buyer", cardano.TransactionIO{
			Address: testWallet,
			Amount: []cardano.AssetAmount{
				{Unit: "b0d07d45fe9514f80213f4020e5a61241458be626841cde717cb38a7", Quantity: "9000000"},
				{Unit: cardano.LovelaceUnit, Quantity: "1500000"},
			},
		}),
	}
	v := NewDirectVerifier(chain, testWallet, testRequired)

	result := v.Check(context.Background(), "tx_native_assets")
	assert.False(t, result.IsValid)
	assert.Equal(t, model.ReasonInsufficientAmount, result.Reason)
	assert.Equal(t, int64(1_500_000), result.AmountObserved)
}

func TestDirectVerifierNoMatchingOutput(t *testing.T) {
	chain := &fakeChain{
		configured: true,
		utxos:      utxosPaying("addr_test1_buyer", lovelaceOutput("addr_test1_someone_else", "5000000")),
	}
	v := NewDirectVerifier(chain, testWallet, testRequired)

	result := v.Check(context.Background(), "tx_wrong_destination")
	assert.False(t, result.IsValid)
	assert.Equal(t, model.ReasonNoMatchingOutput, result.Reason)
	assert.Zero(t, result.AmountObserved)
}

func TestDirectVerifierTransientErrorIsRetryable(t *testing.T) {
	chain := &fakeChain{configured: true, txErr: errors.New("upstream timeout")}
	v := NewDirectVerifier(chain, testWallet, testRequired)

	result := v.Check(context.Background(), "tx_flaky")
	assert.False(t, result.IsValid)
	assert.Equal(t, model.ReasonVerificationError, result.Reason)
	assert.True(t, result.Reason.Recoverable())
}

func TestDirectVerifierUTXOFetchError(t *testing.T) {
	chain := &fakeChain{configured: true, utxoErr: cardano.ErrUnauthorized}
	v := NewDirectVerifier(chain, testWallet, testRequired)

	result := v.Check(context.Background(), "tx_unauthorized")
	assert.False(t, result.IsValid)
	assert.Equal(t, model.ReasonVerificationError, result.Reason)
}

func TestDirectVerifierIsIdempotent(t *testing.T) {
	chain := &fakeChain{
		configured: true,
		utxos:      utxosPaying("addr_test1_buyer", lovelaceOutput(testWallet, "3000000")),
	}
	v := NewDirectVerifier(chain, testWallet, testRequired)

	first := v.Check(context.Background(), "tx_repeat")
	second := v.Check(context.Background(), "tx_repeat")
	assert.Equal(t, first, second)
}
