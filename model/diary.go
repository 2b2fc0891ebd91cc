package model

import (
	"encoding/json"
	"time"
)

// DiaryEntry is a community travel diary submission. At most one entry per
// wallet address per calendar day is accepted.
type DiaryEntry struct {
	EntryID       string    `json:"entry_id"`
	WalletAddress string    `json:"wallet_address"`
	Title         string    `json:"title"`
	Content       string    `json:"content"`
	Location      string    `json:"location"`
	ImageCID      string    `json:"image_cid,omitempty"`
	ImageURL      string    `json:"image_url,omitempty"`
	MetadataCID   string    `json:"metadata_cid,omitempty"`
	MetadataURL   string    `json:"metadata_url,omitempty"`
	QualityScore  float64   `json:"quality_score"`
	Feedback      string    `json:"feedback,omitempty"`
	RewardSent    bool      `json:"reward_sent"`
	RewardTxHash  string    `json:"reward_tx_hash,omitempty"`
	SubmittedAt   time.Time `json:"submitted_at"`
}

func (entry *DiaryEntry) ToJSON() ([]byte, error) {
	return json.Marshal(entry)
}

// WalletStats aggregates a wallet's diary activity.
type WalletStats struct {
	WalletAddress  string `json:"wallet_address"`
	TotalEntries   int    `json:"total_entries"`
	RewardedCount  int    `json:"rewarded_count"`
	TotalRewardAda string `json:"total_reward_ada"`
}

// FeedbackSpot is one visited spot in a photo feedback submission.
type FeedbackSpot struct {
	SpotName string `json:"spot_name"`
	PhotoURL string `json:"photo_url"`
	Rating   int    `json:"rating"`
	Comment  string `json:"comment,omitempty"`
}

// SpotVerification is the per-spot outcome of feedback verification.
type SpotVerification struct {
	SpotName          string  `json:"spot_name"`
	Verified          bool    `json:"verified"`
	PhotoQualityScore float64 `json:"photo_quality_score"`
	NFTEligible       bool    `json:"nft_eligible"`
}

// Feedback stores a verified feedback submission for a completed job.
type Feedback struct {
	JobID          string             `json:"job_id"`
	Spots          []FeedbackSpot     `json:"spots"`
	OverallRating  int                `json:"overall_rating"`
	OverallComment string             `json:"overall_comment,omitempty"`
	Verifications  []SpotVerification `json:"verifications"`
	RewardLovelace int64              `json:"reward_lovelace"`
	SubmittedAt    time.Time          `json:"submitted_at"`
}

func (f *Feedback) ToJSON() ([]byte, error) {
	return json.Marshal(f)
}

// GalleryPhoto is a community gallery item, usually added by an NFT mint.
type GalleryPhoto struct {
	PhotoURL     string    `json:"photo_url"`
	Title        string    `json:"title"`
	SpotName     string    `json:"spot_name"`
	Photographer string    `json:"photographer"`
	NFTID        string    `json:"nft_id,omitempty"`
	Likes        int       `json:"likes"`
	Timestamp    time.Time `json:"timestamp"`
}
