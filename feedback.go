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
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/suyogupta/bengaluru-travel-planner/internal/apierror"
	"github.com/suyogupta/bengaluru-travel-planner/model"
)

// Per-spot reward for a verified photo, and the floor a photo must clear to
// qualify for an NFT mint.
const (
	feedbackSpotRewardLovelace int64   = 500_000
	nftQualityThreshold        float64 = 6.0
)

// SubmitFeedback verifies post-trip photo feedback against the job's
// itinerary and records it. Each verified spot with a photo earns a reward
// share and NFT eligibility.
func (p *Planner) SubmitFeedback(ctx context.Context, feedback *model.Feedback) (*model.Feedback, error) {
	ctx, span := tracer.Start(ctx, "Submitting Trip Feedback")
	defer span.End()

	job, err := p.store.GetJob(ctx, feedback.JobID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, apierror.NewAPIError(apierror.ErrNotFound, fmt.Sprintf("job %s not found", feedback.JobID), err)
		}
		return nil, err
	}
	if job.Status != model.JobStatusCompleted || job.Result == nil {
		return nil, apierror.NewAPIError(apierror.ErrBadRequest,
			"feedback can only be submitted for a completed itinerary", nil)
	}
	if _, err := p.store.GetFeedback(ctx, feedback.JobID); err == nil {
		return nil, apierror.NewAPIError(apierror.ErrConflict,
			"feedback was already submitted for this job", nil)
	}

	feedback.SubmittedAt = time.Now().UTC()
	feedback.Verifications = make([]model.SpotVerification, 0, len(feedback.Spots))
	for _, spot := range feedback.Spots {
		verification := verifySpot(job.Result.Itinerary, spot)
		if verification.Verified {
			feedback.RewardLovelace += feedbackSpotRewardLovelace
		}
		feedback.Verifications = append(feedback.Verifications, verification)
	}

	if err := p.store.SaveFeedback(ctx, feedback); err != nil {
		return nil, err
	}
	return feedback, nil
}

// verifySpot checks a claimed spot against the generated itinerary text and
// scores the attached photo. Photo scoring here is heuristic; the itinerary
// match is the real gate.
func verifySpot(itinerary string, spot model.FeedbackSpot) model.SpotVerification {
	verification := model.SpotVerification{SpotName: spot.SpotName}
	if spot.SpotName == "" || spot.PhotoURL == "" {
		return verification
	}

	verification.Verified = strings.Contains(strings.ToLower(itinerary), strings.ToLower(spot.SpotName))
	if !verification.Verified {
		return verification
	}

	// Rating and comment length stand in for a vision model score.
	score := float64(spot.Rating) * 1.5
	if len(spot.Comment) > 40 {
		score += 1.0
	}
	if score > 10 {
		score = 10
	}
	verification.PhotoQualityScore = score
	verification.NFTEligible = score >= nftQualityThreshold
	return verification
}

// MintResult describes a demo NFT mint for a verified feedback photo.
type MintResult struct {
	NFTID    string `json:"nft_id"`
	SpotName string `json:"spot_name"`
	AssetURL string `json:"asset_url,omitempty"`
}

// MintFeedbackNFT pins the photo metadata to IPFS and records a gallery
// photo for an NFT-eligible feedback spot. Minting on chain is out of scope;
// the NFT id is a service-local identifier.
func (p *Planner) MintFeedbackNFT(ctx context.Context, jobID, spotName, photographer string) (*MintResult, error) {
	feedback, err := p.store.GetFeedback(ctx, jobID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, apierror.NewAPIError(apierror.ErrNotFound, "no feedback found for this job", err)
		}
		return nil, err
	}

	var spot *model.FeedbackSpot
	var verification *model.SpotVerification
	for i := range feedback.Spots {
		if feedback.Spots[i].SpotName == spotName {
			spot = &feedback.Spots[i]
		}
	}
	for i := range feedback.Verifications {
		if feedback.Verifications[i].SpotName == spotName {
			verification = &feedback.Verifications[i]
		}
	}
	if spot == nil || verification == nil {
		return nil, apierror.NewAPIError(apierror.ErrNotFound, "spot not found in feedback", nil)
	}
	if !verification.NFTEligible {
		return nil, apierror.NewAPIError(apierror.ErrBadRequest, "photo did not qualify for an NFT", nil)
	}

	mint := &MintResult{
		NFTID:    model.GenerateUUIDWithSuffix("nft"),
		SpotName: spotName,
	}

	if p.ipfs.Configured() {
		pinned, err := p.ipfs.PinJSON(ctx, fmt.Sprintf("nft-%s", mint.NFTID), map[string]interface{}{
			"name":         fmt.Sprintf("Bengaluru Travel Diary: %s", spotName),
			"image":        spot.PhotoURL,
			"photographer": photographer,
			"rating":       spot.Rating,
			"minted_at":    time.Now().UTC().Format(time.RFC3339),
		})
		if err != nil {
			logrus.Errorf("nft metadata pin failed: %v", err)
		} else {
			mint.AssetURL = pinned.URL
		}
	}

	photo := &model.GalleryPhoto{
		PhotoURL:     spot.PhotoURL,
		Title:        fmt.Sprintf("%s by %s", spotName, photographer),
		SpotName:     spotName,
		Photographer: photographer,
		NFTID:        mint.NFTID,
		Timestamp:    time.Now().UTC(),
	}
	if err := p.store.AddGalleryPhoto(ctx, photo); err != nil {
		return nil, err
	}
	return mint, nil
}

// Gallery returns a page of community photos, newest first.
func (p *Planner) Gallery(ctx context.Context, offset, limit int64) ([]*model.GalleryPhoto, int64, error) {
	// Redis LRANGE treats a negative start as from-the-end; paging always
	// starts at the head.
	if offset < 0 {
		offset = 0
	}
	return p.store.ListGalleryPhotos(ctx, offset, limit)
}

// LikeGalleryPhoto increments the like counter of a gallery photo by index.
func (p *Planner) LikeGalleryPhoto(ctx context.Context, index int64) (int, error) {
	likes, err := p.store.LikeGalleryPhoto(ctx, index)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return 0, apierror.NewAPIError(apierror.ErrNotFound, "gallery photo not found", err)
		}
		return 0, err
	}
	return likes, nil
}

// GetFeedback returns the stored feedback for a job.
func (p *Planner) GetFeedback(ctx context.Context, jobID string) (*model.Feedback, error) {
	feedback, err := p.store.GetFeedback(ctx, jobID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, apierror.NewAPIError(apierror.ErrNotFound, "no feedback found for this job", err)
		}
		return nil, err
	}
	return feedback, nil
}
