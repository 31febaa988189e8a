package tts

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"
)

const elevenLabsModel = "eleven_flash_v2_5"

// ElevenLabs synthesizes speech through the ElevenLabs HTTP endpoint.
type ElevenLabs struct {
	apiKey  string
	voiceID string
	http    *http.Client
	log     *zap.Logger
}

// NewElevenLabs constructs an ElevenLabs provider.
func NewElevenLabs(apiKey, voiceID string, log *zap.Logger) *ElevenLabs {
	if log == nil {
		log = zap.NewNop()
	}
	return &ElevenLabs{
		apiKey:  apiKey,
		voiceID: voiceID,
		http:    &http.Client{Timeout: 60 * time.Second},
		log:     log,
	}
}

func (e *ElevenLabs) Name() string { return "elevenlabs" }

// Synthesize returns MP3 audio for text. voice overrides the configured
// voice ID; speed is not supported by this endpoint and is ignored.
func (e *ElevenLabs) Synthesize(ctx context.Context, text, voice string, speed float64) ([]byte, error) {
	if e.apiKey == "" || e.voiceID == "" {
		return nil, ErrNotConfigured
	}
	voiceID := e.voiceID
	if voice != "" {
		voiceID = voice
	}

	u := url.URL{
		Scheme: "https",
		Host:   "api.elevenlabs.io",
		Path:   "/v1/text-to-speech/" + voiceID,
	}
	q := u.Query()
	q.Set("output_format", "mp3_44100_128")
	u.RawQuery = q.Encode()

	body := map[string]any{
		"model_id": elevenLabsModel,
		"text":     text,
		"voice_settings": map[string]any{
			"stability":         0.4,
			"similarity_boost":  0.7,
			"style":             0.0,
			"use_speaker_boost": true,
		},
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.String(), bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("xi-api-key", e.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("elevenlabs request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("elevenlabs status=%d body=%s", resp.StatusCode, string(b))
	}

	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("elevenlabs read error: %w", err)
	}
	e.log.Debug("elevenlabs synthesis complete", zap.Int("bytes", len(audio)))
	return audio, nil
}
