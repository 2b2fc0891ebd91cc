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

// Package agents delegates itinerary generation and diary quality scoring to
// a generative language model runtime. The service itself only composes the
// query and shapes the response.
package agents

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/suyogupta/bengaluru-travel-planner/internal/request"
	"github.com/suyogupta/bengaluru-travel-planner/model"
)

// Runner produces a full itinerary for a travel query.
type Runner interface {
	PlanTrip(ctx context.Context, query model.TravelQuery) (string, error)
}

// Scorer rates a diary entry for reward eligibility.
type Scorer interface {
	ScoreDiary(ctx context.Context, title, content, location string, hasImage bool) (float64, string, error)
}

// Config points the HTTP runner at a generateContent-compatible endpoint.
type Config struct {
	ModelURL string
	ApiKey   string
	Model    string
}

// HTTPRunner implements Runner and Scorer against the model REST API.
type HTTPRunner struct {
	cfg  Config
	http *http.Client
}

func NewHTTPRunner(cfg Config, client *http.Client) *HTTPRunner {
	if client == nil {
		client = &http.Client{}
	}
	return &HTTPRunner{cfg: cfg, http: client}
}

type generateRequest struct {
	Contents []content `json:"contents"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

type generateResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

func (r *HTTPRunner) generate(ctx context.Context, prompt string) (string, error) {
	if r.cfg.ApiKey == "" {
		return "", errors.New("model api key not configured")
	}

	payload, err := request.ToJsonReq(&generateRequest{
		Contents: []content{{Parts: []part{{Text: prompt}}}},
	})
	if err != nil {
		return "", err
	}

	url := fmt.Sprintf("%s/models/%s:generateContent", r.cfg.ModelURL, r.cfg.Model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, payload)
	if err != nil {
		return "", err
	}
	req.Header.Set("x-goog-api-key", r.cfg.ApiKey)

	var decoded generateResponse
	resp, err := request.CallWithTimeout(req, &decoded, r.http.Timeout)
	if err != nil {
		return "", errors.Wrap(err, "model call failed")
	}
	if resp.StatusCode != http.StatusOK {
		return "", errors.Errorf("model error: %d", resp.StatusCode)
	}
	if len(decoded.Candidates) == 0 || len(decoded.Candidates[0].Content.Parts) == 0 {
		return "", errors.New("model returned no candidates")
	}
	return decoded.Candidates[0].Content.Parts[0].Text, nil
}

// PlanTrip composes the planning prompt from the query and returns the
// generated itinerary text.
func (r *HTTPRunner) PlanTrip(ctx context.Context, query model.TravelQuery) (string, error) {
	prompt := fmt.Sprintf(
		"You are a Bengaluru travel planning expert coordinating research, events, transport, food and weather. %s "+
			"Produce a detailed hour-by-hour itinerary with travel times, costs per person and alternatives for closures.",
		query.QueryString())

	itinerary, err := r.generate(ctx, prompt)
	if err != nil {
		return "", err
	}
	logrus.Infof("itinerary generated for %s (%d chars)", query.Location, len(itinerary))
	return itinerary, nil
}

type diaryScore struct {
	Score    float64 `json:"score"`
	Feedback string  `json:"feedback"`
}

// ScoreDiary asks the model for a strict 0-10 quality score. Unparseable
// replies fall back to a neutral 5.0, which never earns a reward.
func (r *HTTPRunner) ScoreDiary(ctx context.Context, title, content, location string, hasImage bool) (float64, string, error) {
	photo := "no photo attached"
	if hasImage {
		photo = "a travel photo is attached"
	}
	prompt := fmt.Sprintf(
		"Rate this Bengaluru travel diary entry for authenticity, detail, engagement and relevance, 2 points each, "+
			"plus 2 points when a relevant photo is included (%s). Be strict about spam, low-effort or generic content. "+
			"Title: %q. Location: %q. Content: %q. "+
			`Reply with JSON only: {"score": <number 0-10>, "feedback": "<brief feedback>"}`,
		photo, title, location, content)

	reply, err := r.generate(ctx, prompt)
	if err != nil {
		return 0, "", err
	}

	score, feedback := parseScore(reply)
	return score, feedback, nil
}

func parseScore(reply string) (float64, string) {
	// Models tend to wrap JSON in markdown fences.
	cleaned := strings.TrimSpace(reply)
	cleaned = strings.TrimPrefix(cleaned, "```json")
	cleaned = strings.TrimPrefix(cleaned, "```")
	cleaned = strings.TrimSuffix(cleaned, "```")

	var parsed diaryScore
	if err := json.Unmarshal([]byte(strings.TrimSpace(cleaned)), &parsed); err != nil {
		return 5.0, "Could not fully evaluate entry. Default score assigned."
	}

	if parsed.Score < 0 {
		parsed.Score = 0
	}
	if parsed.Score > 10 {
		parsed.Score = 10
	}
	return parsed.Score, parsed.Feedback
}
