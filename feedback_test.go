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
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/suyogupta/bengaluru-travel-planner/model"
)

const sampleItinerary = "09:00 Breakfast at Vidyarthi Bhavan. 11:00 Walk through Lalbagh Botanical Garden. 16:00 Sunset at Bugle Rock."

func completedJob(t *testing.T, p *Planner) *model.Job {
	t.Helper()
	now := time.Now().UTC()
	job := testJob(model.GenerateUUIDWithSuffix("job"))
	job.Status = model.JobStatusCompleted
	job.PaymentStatus = model.PaymentStatusConfirmed
	job.Result = &model.JobResult{Itinerary: sampleItinerary, Query: job.Input, GeneratedAt: now}
	job.CompletedAt = &now
	require.NoError(t, p.store.SaveJob(context.Background(), job))
	return job
}

func TestVerifySpot(t *testing.T) {
	tests := []struct {
		name         string
		spot         model.FeedbackSpot
		wantVerified bool
		wantEligible bool
		wantScore    float64
	}{
		{
			name:         "matching spot with high rating",
			spot:         model.FeedbackSpot{SpotName: "Lalbagh Botanical Garden", PhotoURL: "https://example.com/l.jpg", Rating: 5},
			wantVerified: true,
			wantEligible: true,
			wantScore:    7.5,
		},
		{
			name:         "case insensitive match",
			spot:         model.FeedbackSpot{SpotName: "bugle rock", PhotoURL: "https://example.com/b.jpg", Rating: 4},
			wantVerified: true,
			wantEligible: true,
			wantScore:    6,
		},
		{
			name:         "long comment adds a point",
			spot:         model.FeedbackSpot{SpotName: "Bugle Rock", PhotoURL: "https://example.com/b.jpg", Rating: 4, Comment: "The view over Basavanagudi at golden hour was worth the climb alone."},
			wantVerified: true,
			wantEligible: true,
			wantScore:    7,
		},
		{
			name:         "low rating not eligible",
			spot:         model.FeedbackSpot{SpotName: "Bugle Rock", PhotoURL: "https://example.com/b.jpg", Rating: 3},
			wantVerified: true,
			wantEligible: false,
			wantScore:    4.5,
		},
		{
			name:         "spot not in itinerary",
			spot:         model.FeedbackSpot{SpotName: "Wonderla", PhotoURL: "https://example.com/w.jpg", Rating: 5},
			wantVerified: false,
		},
		{
			name: "missing photo url",
			spot: model.FeedbackSpot{SpotName: "Bugle Rock", Rating: 5},
		},
		{
			name: "missing spot name",
			spot: model.FeedbackSpot{PhotoURL: "https://example.com/x.jpg", Rating: 5},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			verification := verifySpot(sampleItinerary, tt.spot)
			assert.Equal(t, tt.wantVerified, verification.Verified)
			assert.Equal(t, tt.wantEligible, verification.NFTEligible)
			assert.Equal(t, tt.wantScore, verification.PhotoQualityScore)
		})
	}
}

func TestSubmitFeedback(t *testing.T) {
	p := newTestPlanner(t)
	job := completedJob(t, p)

	feedback := &model.Feedback{
		JobID: job.JobID,
		Spots: []model.FeedbackSpot{
			{SpotName: "Lalbagh Botanical Garden", PhotoURL: "https://example.com/l.jpg", Rating: 5},
			{SpotName: "Wonderla", PhotoURL: "https://example.com/w.jpg", Rating: 5},
		},
		OverallRating: 4,
	}

	saved, err := p.SubmitFeedback(context.Background(), feedback)
	require.NoError(t, err)
	require.Len(t, saved.Verifications, 2)
	assert.True(t, saved.Verifications[0].Verified)
	assert.False(t, saved.Verifications[1].Verified)
	// Only the verified spot earns the reward share
	assert.Equal(t, int64(500_000), saved.RewardLovelace)

	stored, err := p.GetFeedback(context.Background(), job.JobID)
	require.NoError(t, err)
	assert.Equal(t, job.JobID, stored.JobID)
}

func TestSubmitFeedbackJobNotFound(t *testing.T) {
	p := newTestPlanner(t)

	_, err := p.SubmitFeedback(context.Background(), &model.Feedback{JobID: "job_missing"})
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestSubmitFeedbackRequiresCompletedJob(t *testing.T) {
	p := newTestPlanner(t)
	job, _, err := p.StartJob(context.Background(), testQuery(), model.SchemeDirect)
	require.NoError(t, err)

	_, err = p.SubmitFeedback(context.Background(), &model.Feedback{JobID: job.JobID})
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "completed itinerary")
}

func TestSubmitFeedbackOnlyOnce(t *testing.T) {
	p := newTestPlanner(t)
	job := completedJob(t, p)

	feedback := &model.Feedback{
		JobID:         job.JobID,
		Spots:         []model.FeedbackSpot{{SpotName: "Bugle Rock", PhotoURL: "https://example.com/b.jpg", Rating: 4}},
		OverallRating: 4,
	}
	_, err := p.SubmitFeedback(context.Background(), feedback)
	require.NoError(t, err)

	_, err = p.SubmitFeedback(context.Background(), feedback)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "already submitted")
}

func TestMintFeedbackNFT(t *testing.T) {
	p := newTestPlanner(t)
	job := completedJob(t, p)

	_, err := p.SubmitFeedback(context.Background(), &model.Feedback{
		JobID: job.JobID,
		Spots: []model.FeedbackSpot{
			{SpotName: "Lalbagh Botanical Garden", PhotoURL: "https://example.com/l.jpg", Rating: 5},
			{SpotName: "Bugle Rock", PhotoURL: "https://example.com/b.jpg", Rating: 3},
		},
		OverallRating: 5,
	})
	require.NoError(t, err)

	mint, err := p.MintFeedbackNFT(context.Background(), job.JobID, "Lalbagh Botanical Garden", "addr_test1qshooter")
	require.NoError(t, err)
	assert.Contains(t, mint.NFTID, "nft_")
	assert.Equal(t, "Lalbagh Botanical Garden", mint.SpotName)

	photos, total, err := p.Gallery(context.Background(), 0, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, photos, 1)
	assert.Equal(t, mint.NFTID, photos[0].NFTID)
	assert.Equal(t, "addr_test1qshooter", photos[0].Photographer)

	// Ineligible spot is refused
	_, err = p.MintFeedbackNFT(context.Background(), job.JobID, "Bugle Rock", "addr_test1qshooter")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "did not qualify")

	// Unknown spot
	_, err = p.MintFeedbackNFT(context.Background(), job.JobID, "Cubbon Park", "addr_test1qshooter")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "spot not found")
}

func TestLikeGalleryPhotoFlow(t *testing.T) {
	p := newTestPlanner(t)
	require.NoError(t, p.store.AddGalleryPhoto(context.Background(), &model.GalleryPhoto{
		PhotoURL: "https://example.com/one.jpg",
		Title:    "One",
	}))

	likes, err := p.LikeGalleryPhoto(context.Background(), 0)
	require.NoError(t, err)
	assert.Equal(t, 1, likes)

	_, err = p.LikeGalleryPhoto(context.Background(), 5)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestGalleryClampsNegativeOffset(t *testing.T) {
	p := newTestPlanner(t)
	for _, title := range []string{"One", "Two", "Three"} {
		require.NoError(t, p.store.AddGalleryPhoto(context.Background(), &model.GalleryPhoto{
			PhotoURL: "https://example.com/" + title + ".jpg",
			Title:    title,
		}))
	}

	photos, total, err := p.Gallery(context.Background(), -5, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	require.Len(t, photos, 2)
	// Newest first, paged from the head
	assert.Equal(t, "Three", photos[0].Title)
}
