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
package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	planner "github.com/suyogupta/bengaluru-travel-planner"
	model2 "github.com/suyogupta/bengaluru-travel-planner/api/model"
	"github.com/suyogupta/bengaluru-travel-planner/config"
	"github.com/suyogupta/bengaluru-travel-planner/internal/apierror"
	"github.com/suyogupta/bengaluru-travel-planner/model"
)

// SubmitDiaryEntry handles a new community diary submission.
//
// Responses:
// - 400 Bad Request: If there's an error in binding JSON or validating the entry.
// - 409 Conflict: If the wallet already submitted an entry today.
// - 201 Created: The stored entry with its quality score and reward outcome.
func (a Api) SubmitDiaryEntry(c *gin.Context) {
	var newEntry model2.SubmitDiary
	if err := c.ShouldBindJSON(&newEntry); err != nil {
		logrus.Error(err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input"})
		return
	}

	err := newEntry.ValidateSubmitDiary()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"errors": err.Error()})
		return
	}

	entry, err := a.planner.SubmitDiaryEntry(c.Request.Context(), planner.DiarySubmission{
		WalletAddress: newEntry.WalletAddress,
		Title:         newEntry.Title,
		Content:       newEntry.Content,
		Location:      newEntry.Location,
		ImageBase64:   newEntry.ImageBase64,
		ImageFilename: newEntry.ImageFilename,
	})
	if err != nil {
		logrus.Error(err)
		c.JSON(apierror.MapErrorToHTTPStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, entry)
}

// ListDiaryEntries returns the newest diary entries.
func (a Api) ListDiaryEntries(c *gin.Context) {
	limit, _ := strconv.ParseInt(c.DefaultQuery("limit", "10"), 10, 64)
	entries, err := a.planner.ListDiaryEntries(c.Request.Context(), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"entries": entries, "count": len(entries)})
}

// DiaryCheck reports whether a wallet may still submit an entry today.
func (a Api) DiaryCheck(c *gin.Context) {
	address, passed := c.Params.Get("address")
	if !passed {
		c.JSON(http.StatusBadRequest, gin.H{"error": "address is required. pass it in the route /:address"})
		return
	}

	canSubmit, err := a.planner.CanSubmitToday(c.Request.Context(), address)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"wallet_address":   address,
		"can_submit_today": canSubmit,
	})
}

// DiaryInfo describes the diary reward rules for clients.
func (a Api) DiaryInfo(c *gin.Context) {
	conf, err := config.Fetch()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"reward_lovelace": conf.Diary.RewardLovelace,
		"reward_ada":      model.AdaString(conf.Diary.RewardLovelace),
		"minimum_score":   conf.Diary.MinimumScore,
		"entries_per_day": 1,
	})
}

// WalletStats aggregates a wallet's diary activity.
func (a Api) WalletStats(c *gin.Context) {
	address, passed := c.Params.Get("address")
	if !passed {
		c.JSON(http.StatusBadRequest, gin.H{"error": "address is required. pass it in the route /:address"})
		return
	}

	stats, err := a.planner.WalletStats(c.Request.Context(), address)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, stats)
}

// SubmitFeedback handles a post-trip photo feedback submission.
func (a Api) SubmitFeedback(c *gin.Context) {
	var newFeedback model2.SubmitFeedback
	if err := c.ShouldBindJSON(&newFeedback); err != nil {
		logrus.Error(err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input"})
		return
	}

	err := newFeedback.ValidateSubmitFeedback()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"errors": err.Error()})
		return
	}

	feedback, err := a.planner.SubmitFeedback(c.Request.Context(), newFeedback.ToFeedback())
	if err != nil {
		logrus.Error(err)
		c.JSON(apierror.MapErrorToHTTPStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, feedback)
}

// GetFeedback returns the stored feedback for a job.
func (a Api) GetFeedback(c *gin.Context) {
	jobID, passed := c.Params.Get("job_id")
	if !passed {
		c.JSON(http.StatusBadRequest, gin.H{"error": "job_id is required. pass id in the route /:job_id"})
		return
	}

	feedback, err := a.planner.GetFeedback(c.Request.Context(), jobID)
	if err != nil {
		c.JSON(apierror.MapErrorToHTTPStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, feedback)
}

// MintFeedbackNFT mints a demo NFT for a verified feedback photo and adds it
// to the community gallery.
func (a Api) MintFeedbackNFT(c *gin.Context) {
	var mintRequest model2.MintNFT
	if err := c.ShouldBindJSON(&mintRequest); err != nil {
		logrus.Error(err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input"})
		return
	}

	err := mintRequest.ValidateMintNFT()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"errors": err.Error()})
		return
	}

	mint, err := a.planner.MintFeedbackNFT(c.Request.Context(), mintRequest.JobID, mintRequest.SpotName, mintRequest.Photographer)
	if err != nil {
		logrus.Error(err)
		c.JSON(apierror.MapErrorToHTTPStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, mint)
}

// Gallery returns a page of community photos.
func (a Api) Gallery(c *gin.Context) {
	offset, _ := strconv.ParseInt(c.DefaultQuery("offset", "0"), 10, 64)
	limit, _ := strconv.ParseInt(c.DefaultQuery("limit", "20"), 10, 64)
	if offset < 0 {
		offset = 0
	}

	photos, total, err := a.planner.Gallery(c.Request.Context(), offset, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"photos": photos, "total": total})
}

// LikeGalleryPhoto increments a photo's like counter.
func (a Api) LikeGalleryPhoto(c *gin.Context) {
	indexParam, passed := c.Params.Get("index")
	if !passed {
		c.JSON(http.StatusBadRequest, gin.H{"error": "index is required. pass it in the route /:index"})
		return
	}
	index, err := strconv.ParseInt(indexParam, 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "index must be a number"})
		return
	}

	likes, err := a.planner.LikeGalleryPhoto(c.Request.Context(), index)
	if err != nil {
		c.JSON(apierror.MapErrorToHTTPStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"likes": likes})
}
