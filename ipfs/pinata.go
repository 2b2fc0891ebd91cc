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

// Package ipfs pins diary photos and metadata through the Pinata API.
package ipfs

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/pkg/errors"

	"github.com/suyogupta/bengaluru-travel-planner/internal/request"
)

// Config carries the pinning service credentials. Either a JWT or an API
// key/secret pair must be set; otherwise uploads fail closed.
type Config struct {
	JWT       string
	ApiKey    string
	SecretKey string
	ApiURL    string
	Gateway   string
}

// PinResult is the outcome of a successful pin.
type PinResult struct {
	CID  string `json:"cid"`
	URL  string `json:"url"`
	Size int64  `json:"size"`
}

type Client struct {
	cfg  Config
	http *http.Client
}

func NewClient(cfg Config, timeout time.Duration) *Client {
	return &Client{cfg: cfg, http: &http.Client{Timeout: timeout}}
}

// Configured reports whether pinning credentials are present.
func (c *Client) Configured() bool {
	return c.cfg.JWT != "" || (c.cfg.ApiKey != "" && c.cfg.SecretKey != "")
}

func (c *Client) authorize(req *http.Request) {
	if c.cfg.JWT != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.JWT)
		return
	}
	req.Header.Set("pinata_api_key", c.cfg.ApiKey)
	req.Header.Set("pinata_secret_api_key", c.cfg.SecretKey)
}

type pinResponse struct {
	IpfsHash string `json:"IpfsHash"`
	PinSize  int64  `json:"PinSize"`
}

// PinImage decodes a base64 photo and pins it. The pin carries cidVersion 1
// and app metadata so uploads are traceable in the Pinata dashboard.
func (c *Client) PinImage(ctx context.Context, imageBase64, filename string) (*PinResult, error) {
	if !c.Configured() {
		return nil, errors.New("pinata credentials not configured")
	}

	imageData, err := base64.StdEncoding.DecodeString(imageBase64)
	if err != nil {
		return nil, errors.Wrap(err, "decoding image")
	}

	var body bytes.Buffer
	form := multipart.NewWriter(&body)

	part, err := form.CreateFormFile("file", filename)
	if err != nil {
		return nil, err
	}
	if _, err := part.Write(imageData); err != nil {
		return nil, err
	}

	options, _ := json.Marshal(map[string]interface{}{"cidVersion": 1})
	if err := form.WriteField("pinataOptions", string(options)); err != nil {
		return nil, err
	}
	metadata, _ := json.Marshal(map[string]interface{}{
		"name": filename,
		"keyvalues": map[string]string{
			"app":  "bengaluru-travel-diary",
			"type": "travel-photo",
		},
	})
	if err := form.WriteField("pinataMetadata", string(metadata)); err != nil {
		return nil, err
	}
	if err := form.Close(); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.ApiURL+"/pinning/pinFileToIPFS", &body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", form.FormDataContentType())
	c.authorize(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "pinning image")
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		return nil, errors.Errorf("pinata error: %d", resp.StatusCode)
	}

	var pinned pinResponse
	if err := json.NewDecoder(resp.Body).Decode(&pinned); err != nil {
		return nil, errors.Wrap(err, "decoding pin response")
	}
	if pinned.PinSize == 0 {
		pinned.PinSize = int64(len(imageData))
	}

	return &PinResult{
		CID:  pinned.IpfsHash,
		URL:  fmt.Sprintf("%s/%s", c.cfg.Gateway, pinned.IpfsHash),
		Size: pinned.PinSize,
	}, nil
}

// PinJSON pins an arbitrary document, used for diary entry metadata.
func (c *Client) PinJSON(ctx context.Context, name string, content interface{}) (*PinResult, error) {
	if !c.Configured() {
		return nil, errors.New("pinata credentials not configured")
	}

	payload, err := request.ToJsonReq(map[string]interface{}{
		"pinataOptions":  map[string]interface{}{"cidVersion": 1},
		"pinataMetadata": map[string]interface{}{"name": name},
		"pinataContent":  content,
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.ApiURL+"/pinning/pinJSONToIPFS", payload)
	if err != nil {
		return nil, err
	}
	c.authorize(req)

	var pinned pinResponse
	resp, err := request.CallWithTimeout(req, &pinned, c.http.Timeout)
	if err != nil {
		return nil, errors.Wrap(err, "pinning json")
	}
	if resp.StatusCode != http.StatusOK {
		return nil, errors.Errorf("pinata error: %d", resp.StatusCode)
	}

	return &PinResult{
		CID:  pinned.IpfsHash,
		URL:  fmt.Sprintf("%s/%s", c.cfg.Gateway, pinned.IpfsHash),
		Size: pinned.PinSize,
	}, nil
}
