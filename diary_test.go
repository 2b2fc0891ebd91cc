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
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/jarcoal/httpmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/suyogupta/bengaluru-travel-planner/ipfs"
	"github.com/suyogupta/bengaluru-travel-planner/model"
	"github.com/suyogupta/bengaluru-travel-planner/rewards"
)

type fakeScorer struct {
	score    float64
	feedback string
	err      error
}

func (f *fakeScorer) ScoreDiary(_ context.Context, _, _, _ string, _ bool) (float64, string, error) {
	return f.score, f.feedback, f.err
}

type fakeRewarder struct {
	sends  int
	err    error
	txHash string
}

func (f *fakeRewarder) Send(_ context.Context, _ string, _ int64) (*rewards.Result, error) {
	f.sends++
	if f.err != nil {
		return nil, f.err
	}
	return &rewards.Result{TxHash: f.txHash}, nil
}

func testSubmission(wallet string) DiarySubmission {
	return DiarySubmission{
		WalletAddress: wallet,
		Title:         "Evening at Ulsoor Lake",
		Content:       "Watched the sunset from the boat club side, then walked to the Someshwara temple.",
		Location:      "Ulsoor",
	}
}

func TestSubmitDiaryEntryBelowThreshold(t *testing.T) {
	p := newTestPlanner(t)
	p.scorer = &fakeScorer{score: 5.5, feedback: "Add more personal detail."}
	rewarder := &fakeRewarder{txHash: "reward_tx"}
	p.rewarder = rewarder

	entry, err := p.SubmitDiaryEntry(context.Background(), testSubmission("addr_test1qlow"))
	require.NoError(t, err)
	assert.Equal(t, 5.5, entry.QualityScore)
	assert.Equal(t, "Add more personal detail.", entry.Feedback)
	assert.False(t, entry.RewardSent)
	assert.Equal(t, 0, rewarder.sends)
}

func TestSubmitDiaryEntryRewarded(t *testing.T) {
	p := newTestPlanner(t)
	p.scorer = &fakeScorer{score: 8.5, feedback: "Vivid and specific."}
	rewarder := &fakeRewarder{txHash: "reward_tx_99"}
	p.rewarder = rewarder

	entry, err := p.SubmitDiaryEntry(context.Background(), testSubmission("addr_test1qhigh"))
	require.NoError(t, err)
	assert.True(t, entry.RewardSent)
	assert.Equal(t, "reward_tx_99", entry.RewardTxHash)
	assert.Equal(t, 1, rewarder.sends)

	entries, err := p.store.DiaryEntriesByWallet(context.Background(), "addr_test1qhigh")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.True(t, entries[0].RewardSent)
}

func TestSubmitDiaryEntryPinsMetadata(t *testing.T) {
	p := newTestPlanner(t)
	p.scorer = &fakeScorer{score: 7.5, feedback: "Good sense of place."}
	p.ipfs = ipfs.NewClient(ipfs.Config{
		JWT:     "pinata_jwt",
		ApiURL:  "https://api.pinata.test",
		Gateway: "https://gateway.pinata.test/ipfs",
	}, 10*time.Second)

	httpmock.Activate()
	defer httpmock.DeactivateAndReset()
	httpmock.RegisterResponder("POST", "https://api.pinata.test/pinning/pinJSONToIPFS",
		func(req *http.Request) (*http.Response, error) {
			var body map[string]interface{}
			if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
				return httpmock.NewStringResponse(400, "bad body"), nil
			}
			content, _ := body["pinataContent"].(map[string]interface{})
			assert.Equal(t, "addr_test1qpin", content["wallet_address"])
			assert.Equal(t, "Evening at Ulsoor Lake", content["title"])
			assert.Equal(t, 7.5, content["quality_score"])
			return httpmock.NewStringResponse(200, `{"IpfsHash": "bafybeidiarymeta", "PinSize": 480}`), nil
		})

	entry, err := p.SubmitDiaryEntry(context.Background(), testSubmission("addr_test1qpin"))
	require.NoError(t, err)
	assert.Equal(t, "bafybeidiarymeta", entry.MetadataCID)
	assert.Contains(t, entry.MetadataURL, "bafybeidiarymeta")
}

func TestSubmitDiaryEntryMetadataPinFailureDoesNotFailSubmission(t *testing.T) {
	p := newTestPlanner(t)
	p.scorer = &fakeScorer{score: 6}
	p.ipfs = ipfs.NewClient(ipfs.Config{
		JWT:     "pinata_jwt",
		ApiURL:  "https://api.pinata.test",
		Gateway: "https://gateway.pinata.test/ipfs",
	}, 10*time.Second)

	httpmock.Activate()
	defer httpmock.DeactivateAndReset()
	httpmock.RegisterResponder("POST", "https://api.pinata.test/pinning/pinJSONToIPFS",
		httpmock.NewStringResponder(500, "pinata down"))

	entry, err := p.SubmitDiaryEntry(context.Background(), testSubmission("addr_test1qpinfail"))
	require.NoError(t, err)
	assert.Empty(t, entry.MetadataCID)
}

func TestSubmitDiaryEntryRewardDisabled(t *testing.T) {
	p := newTestPlanner(t)
	p.scorer = &fakeScorer{score: 9}
	p.rewarder = rewards.Disabled{}

	// No payout service configured: the entry is still accepted, just unrewarded.
	entry, err := p.SubmitDiaryEntry(context.Background(), testSubmission("addr_test1qnoreward"))
	require.NoError(t, err)
	assert.False(t, entry.RewardSent)
	assert.Empty(t, entry.RewardTxHash)
}

func TestSubmitDiaryEntryRewardFailureDoesNotFailSubmission(t *testing.T) {
	p := newTestPlanner(t)
	p.scorer = &fakeScorer{score: 9}
	p.rewarder = &fakeRewarder{err: assert.AnError}

	entry, err := p.SubmitDiaryEntry(context.Background(), testSubmission("addr_test1qfailpay"))
	require.NoError(t, err)
	assert.False(t, entry.RewardSent)
}

func TestSubmitDiaryEntryDailyLimit(t *testing.T) {
	p := newTestPlanner(t)
	p.scorer = &fakeScorer{score: 6}

	_, err := p.SubmitDiaryEntry(context.Background(), testSubmission("addr_test1qdaily"))
	require.NoError(t, err)

	_, err = p.SubmitDiaryEntry(context.Background(), testSubmission("addr_test1qdaily"))
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "already submitted")

	// A different wallet is unaffected
	_, err = p.SubmitDiaryEntry(context.Background(), testSubmission("addr_test1qfresh"))
	assert.NoError(t, err)
}

func TestCanSubmitToday(t *testing.T) {
	p := newTestPlanner(t)
	p.scorer = &fakeScorer{score: 6}

	ok, err := p.CanSubmitToday(context.Background(), "addr_test1qcheck")
	require.NoError(t, err)
	assert.True(t, ok)

	_, err = p.SubmitDiaryEntry(context.Background(), testSubmission("addr_test1qcheck"))
	require.NoError(t, err)

	ok, err = p.CanSubmitToday(context.Background(), "addr_test1qcheck")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSubmitDiaryEntryScorerError(t *testing.T) {
	p := newTestPlanner(t)
	p.scorer = &fakeScorer{err: assert.AnError}

	_, err := p.SubmitDiaryEntry(context.Background(), testSubmission("addr_test1qerr"))
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "could not score diary entry")
}

func TestWalletStats(t *testing.T) {
	p := newTestPlanner(t)

	now := time.Now().UTC()
	for i, rewarded := range []bool{true, true, false} {
		require.NoError(t, p.store.SaveDiaryEntry(context.Background(), &model.DiaryEntry{
			EntryID:       model.GenerateUUIDWithSuffix("diary"),
			WalletAddress: "addr_test1qstats",
			Title:         "Entry",
			RewardSent:    rewarded,
			SubmittedAt:   now.AddDate(0, 0, -i),
		}))
	}

	stats, err := p.WalletStats(context.Background(), "addr_test1qstats")
	require.NoError(t, err)
	assert.Equal(t, 3, stats.TotalEntries)
	assert.Equal(t, 2, stats.RewardedCount)
	assert.Equal(t, "2 ADA", stats.TotalRewardAda)
}

func TestWalletStatsEmpty(t *testing.T) {
	p := newTestPlanner(t)

	stats, err := p.WalletStats(context.Background(), "addr_test1qempty")
	require.NoError(t, err)
	assert.Equal(t, 0, stats.TotalEntries)
	assert.Equal(t, "0 ADA", stats.TotalRewardAda)
}
