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

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/suyogupta/bengaluru-travel-planner/config"
	"github.com/suyogupta/bengaluru-travel-planner/internal/apierror"
	"github.com/suyogupta/bengaluru-travel-planner/internal/notification"
	"github.com/suyogupta/bengaluru-travel-planner/model"
	"github.com/suyogupta/bengaluru-travel-planner/rewards"
)

// DiarySubmission is the input for a new community diary entry.
type DiarySubmission struct {
	WalletAddress string
	Title         string
	Content       string
	Location      string
	ImageBase64   string
	ImageFilename string
}

// SubmitDiaryEntry records a diary entry, scores it, pins any attached photo
// and the entry metadata to IPFS, and sends the ADA reward when the score
// clears the configured threshold. A wallet may submit at most one entry per
// calendar day.
func (p *Planner) SubmitDiaryEntry(ctx context.Context, submission DiarySubmission) (*model.DiaryEntry, error) {
	ctx, span := tracer.Start(ctx, "Submitting Diary Entry")
	defer span.End()

	conf, err := config.Fetch()
	if err != nil {
		return nil, err
	}

	already, err := p.submittedToday(ctx, submission.WalletAddress)
	if err != nil {
		return nil, err
	}
	if already {
		return nil, apierror.NewAPIError(apierror.ErrConflict,
			"this wallet already submitted a diary entry today", nil)
	}

	entry := &model.DiaryEntry{
		EntryID:       model.GenerateUUIDWithSuffix("diary"),
		WalletAddress: submission.WalletAddress,
		Title:         submission.Title,
		Content:       submission.Content,
		Location:      submission.Location,
		SubmittedAt:   time.Now().UTC(),
	}

	if submission.ImageBase64 != "" && p.ipfs.Configured() {
		pinned, err := p.ipfs.PinImage(ctx, submission.ImageBase64, submission.ImageFilename)
		if err != nil {
			// A failed pin does not block the entry; it just loses the photo.
			logrus.Errorf("ipfs pin failed for entry %s: %v", entry.EntryID, err)
			notification.NotifyError(err)
		} else {
			entry.ImageCID = pinned.CID
			entry.ImageURL = pinned.URL
		}
	}

	score, feedback, err := p.scorer.ScoreDiary(ctx, entry.Title, entry.Content, entry.Location, entry.ImageCID != "")
	if err != nil {
		notification.NotifyError(err)
		return nil, apierror.NewAPIError(apierror.ErrUpstream, "could not score diary entry", err)
	}
	entry.QualityScore = score
	entry.Feedback = feedback

	if p.ipfs.Configured() {
		// The full entry record is pinned alongside the photo so the diary
		// survives independently of this service's store.
		pinned, err := p.ipfs.PinJSON(ctx, entry.EntryID, map[string]interface{}{
			"entry_id":       entry.EntryID,
			"wallet_address": entry.WalletAddress,
			"title":          entry.Title,
			"content":        entry.Content,
			"location":       entry.Location,
			"image_cid":      entry.ImageCID,
			"quality_score":  entry.QualityScore,
			"submitted_at":   entry.SubmittedAt,
		})
		if err != nil {
			logrus.Errorf("ipfs metadata pin failed for entry %s: %v", entry.EntryID, err)
			notification.NotifyError(err)
		} else {
			entry.MetadataCID = pinned.CID
			entry.MetadataURL = pinned.URL
		}
	}

	if score >= conf.Diary.MinimumScore {
		p.sendDiaryReward(ctx, entry, conf.Diary.RewardLovelace)
	}

	if err := p.store.SaveDiaryEntry(ctx, entry); err != nil {
		return nil, err
	}
	if p.cache != nil {
		if err := p.cache.Delete(ctx, fmt.Sprintf("diary:stats:%s", entry.WalletAddress)); err != nil {
			logrus.Error(err)
		}
	}

	if entry.RewardSent {
		if err := SendWebhook(NewWebhook{Event: EventDiaryRewarded, Payload: entry}); err != nil {
			logrus.Error(err)
		}
	}
	return entry, nil
}

// sendDiaryReward pays the configured lovelace amount to the entry's wallet.
// Reward failures never fail the submission.
func (p *Planner) sendDiaryReward(ctx context.Context, entry *model.DiaryEntry, amountLovelace int64) {
	result, err := p.rewarder.Send(ctx, entry.WalletAddress, amountLovelace)
	if err != nil {
		if !errors.Is(err, rewards.ErrNotConfigured) {
			logrus.Errorf("diary reward failed for %s: %v", entry.WalletAddress, err)
			notification.NotifyError(err)
		}
		return
	}
	entry.RewardSent = true
	entry.RewardTxHash = result.TxHash
}

// submittedToday reports whether the wallet already has an entry dated today
// in UTC.
func (p *Planner) submittedToday(ctx context.Context, walletAddress string) (bool, error) {
	entries, err := p.store.DiaryEntriesByWallet(ctx, walletAddress)
	if err != nil {
		return false, err
	}
	today := time.Now().UTC().Format("2006-01-02")
	for _, entry := range entries {
		if entry.SubmittedAt.UTC().Format("2006-01-02") == today {
			return true, nil
		}
	}
	return false, nil
}

// CanSubmitToday reports whether the wallet still has today's diary slot.
func (p *Planner) CanSubmitToday(ctx context.Context, walletAddress string) (bool, error) {
	already, err := p.submittedToday(ctx, walletAddress)
	if err != nil {
		return false, err
	}
	return !already, nil
}

// ListDiaryEntries returns the newest entries across all wallets.
func (p *Planner) ListDiaryEntries(ctx context.Context, limit int64) ([]*model.DiaryEntry, error) {
	return p.store.ListDiaryEntries(ctx, limit)
}

// WalletStats aggregates a wallet's diary activity and rewards. Stats are
// cached briefly; a wallet can submit at most once a day so staleness is
// bounded and harmless.
func (p *Planner) WalletStats(ctx context.Context, walletAddress string) (*model.WalletStats, error) {
	cacheKey := fmt.Sprintf("diary:stats:%s", walletAddress)
	if p.cache != nil {
		var cached model.WalletStats
		if err := p.cache.Get(ctx, cacheKey, &cached); err == nil && cached.WalletAddress != "" {
			return &cached, nil
		}
	}

	entries, err := p.store.DiaryEntriesByWallet(ctx, walletAddress)
	if err != nil {
		return nil, err
	}

	conf, err := config.Fetch()
	if err != nil {
		return nil, err
	}

	stats := &model.WalletStats{WalletAddress: walletAddress, TotalEntries: len(entries)}
	var totalLovelace int64
	for _, entry := range entries {
		if entry.RewardSent {
			stats.RewardedCount++
			totalLovelace += conf.Diary.RewardLovelace
		}
	}
	stats.TotalRewardAda = fmt.Sprintf("%s ADA", model.AdaString(totalLovelace))

	if p.cache != nil {
		if err := p.cache.Set(ctx, cacheKey, stats, time.Minute); err != nil {
			logrus.Error(err)
		}
	}
	return stats, nil
}
