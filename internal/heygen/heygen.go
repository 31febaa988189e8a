// Package heygen is a client for the HeyGen avatar video API.
package heygen

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"
)

const apiBase = "https://api.heygen.com/v1"

// ErrNotConfigured means no API key is set.
var ErrNotConfigured = errors.New("heygen: api key not configured")

// Client calls the HeyGen video generation API.
type Client struct {
	apiKey   string
	avatarID string
	voiceID  string
	http     *http.Client
	log      *zap.Logger
}

// NewClient constructs a Client. Empty avatar and voice IDs fall back to
// defaults.
func NewClient(apiKey, avatarID, voiceID string, log *zap.Logger) *Client {
	if log == nil {
		log = zap.NewNop()
	}
	if avatarID == "" {
		avatarID = "Daisy-inshirt-2"
	}
	if voiceID == "" {
		voiceID = "male-en-US-1"
	}
	return &Client{
		apiKey:   apiKey,
		avatarID: avatarID,
		voiceID:  voiceID,
		http:     &http.Client{Timeout: 120 * time.Second},
		log:      log,
	}
}

// Configured reports whether an API key is present.
func (c *Client) Configured() bool { return c.apiKey != "" }

type videoRequest struct {
	VideoInputs []videoInput `json:"video_inputs"`
	VideoParams videoParams  `json:"video_parameters"`
}

type videoInput struct {
	Character character  `json:"character"`
	Audio     audioInput `json:"audio"`
	Background background `json:"background"`
}

type character struct {
	AvatarID string `json:"avatar_id"`
}

type audioInput struct {
	VoiceID       string  `json:"voice_id"`
	VoiceType     string  `json:"voice_type"`
	InputText     string  `json:"input_text"`
	SpeakingSpeed float64 `json:"speaking_speed"`
}

type background struct {
	Type string `json:"type"`
}

type videoParams struct {
	Quality string `json:"quality"`
}

type videoResponse struct {
	Data struct {
		VideoURL string `json:"video_url"`
	} `json:"data"`
	Message string `json:"message"`
}

// GenerateVideo produces an avatar clip speaking text and returns its URL.
func (c *Client) GenerateVideo(ctx context.Context, text string) (string, error) {
	if !c.Configured() {
		return "", ErrNotConfigured
	}

	payload, err := json.Marshal(videoRequest{
		VideoInputs: []videoInput{{
			Character: character{AvatarID: c.avatarID},
			Audio: audioInput{
				VoiceID:       c.voiceID,
				VoiceType:     "text",
				InputText:     text,
				SpeakingSpeed: 1.0,
			},
			Background: background{Type: "transparent"},
		}},
		VideoParams: videoParams{Quality: "medium"},
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, apiBase+"/videos.generate", bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Api-Key", c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("heygen request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", err
	}
	if resp.StatusCode != http.StatusOK {
		var out videoResponse
		msg := resp.Status
		if json.Unmarshal(body, &out) == nil && out.Message != "" {
			msg = out.Message
		}
		return "", fmt.Errorf("heygen video generation failed: %s", msg)
	}

	var out videoResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return "", fmt.Errorf("failed to decode heygen response: %w", err)
	}
	if out.Data.VideoURL == "" {
		return "", errors.New("heygen returned no video url")
	}
	c.log.Debug("heygen video generated", zap.String("url", out.Data.VideoURL))
	return out.Data.VideoURL, nil
}
