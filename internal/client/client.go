// Package client is the typed HTTP client for the interview backend. All
// calls carry the stored bearer token and retry transient failures with
// exponential backoff; 4xx responses are terminal.
package client

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"
	"go.uber.org/zap"

	"github.com/Arpan069/new-creation-genesis-flow/internal/avatar"
	"github.com/Arpan069/new-creation-genesis-flow/internal/interview"
	"github.com/Arpan069/new-creation-genesis-flow/internal/record"
)

// the Client is the backend-facing half of the interview collaborators
var (
	_ interview.Responder   = (*Client)(nil)
	_ interview.Saver       = (*Client)(nil)
	_ interview.Uploader    = (*Client)(nil)
	_ avatar.VideoGenerator = (*Client)(nil)
)

const (
	retryMaxAttempts  = 3
	retryInitialDelay = 1000 * time.Millisecond
	retryMaxDelay     = 5000 * time.Millisecond
	retryFactor       = 2.0

	defaultTimeout = 60 * time.Second
)

// APIError is a non-2xx response from the backend.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("backend returned %d: %s", e.StatusCode, e.Message)
}

// Client talks to the interview backend API.
type Client struct {
	baseURL string
	http    *http.Client
	tokens  TokenStore
	log     *zap.Logger

	// retry delays, shrunk in tests
	retryInitial time.Duration
	retryMax     time.Duration
}

// New constructs a Client for the given base URL, e.g. "http://localhost:8080".
func New(baseURL string, tokens TokenStore, log *zap.Logger) *Client {
	if log == nil {
		log = zap.NewNop()
	}
	if tokens == nil {
		tokens = StaticToken("")
	}
	return &Client{
		baseURL:      strings.TrimRight(baseURL, "/"),
		http:         &http.Client{Timeout: defaultTimeout},
		tokens:       tokens,
		log:          log,
		retryInitial: retryInitialDelay,
		retryMax:     retryMaxDelay,
	}
}

// doJSON posts body as JSON to path and decodes the response into out.
// Transient failures (network errors, 5xx) are retried up to three attempts
// with 1s, 2s delays; client errors abort immediately.
func (c *Client) doJSON(ctx context.Context, method, path string, body, out any) error {
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
	}

	attempt := 0
	op := func() (struct{}, error) {
		attempt++
		req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bytes.NewReader(payload))
		if err != nil {
			return struct{}{}, backoff.Permanent(err)
		}
		if body != nil {
			req.Header.Set("Content-Type", "application/json")
		}
		if token := c.tokens.Token(); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}

		resp, err := c.http.Do(req)
		if err != nil {
			c.log.Warn("backend request failed", zap.String("path", path), zap.Int("attempt", attempt), zap.Error(err))
			return struct{}{}, err
		}
		defer resp.Body.Close()

		if resp.StatusCode >= 400 {
			apiErr := &APIError{StatusCode: resp.StatusCode, Message: readErrorMessage(resp.Body)}
			if resp.StatusCode < 500 {
				return struct{}{}, backoff.Permanent(apiErr)
			}
			c.log.Warn("backend request rejected", zap.String("path", path), zap.Int("status", resp.StatusCode), zap.Int("attempt", attempt))
			return struct{}{}, apiErr
		}

		if out != nil {
			if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
				return struct{}{}, backoff.Permanent(fmt.Errorf("failed to decode response: %w", err))
			}
		}
		return struct{}{}, nil
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = c.retryInitial
	bo.MaxInterval = c.retryMax
	bo.Multiplier = retryFactor
	bo.RandomizationFactor = 0

	_, err := backoff.Retry(ctx, op,
		backoff.WithBackOff(bo),
		backoff.WithMaxTries(retryMaxAttempts),
	)
	return err
}

func readErrorMessage(r io.Reader) string {
	var body struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	raw, err := io.ReadAll(io.LimitReader(r, 4096))
	if err != nil {
		return ""
	}
	if json.Unmarshal(raw, &body) == nil {
		if body.Error != "" {
			return body.Error
		}
		if body.Message != "" {
			return body.Message
		}
	}
	return strings.TrimSpace(string(raw))
}

// HealthStatus is the backend health report.
type HealthStatus struct {
	Status           string `json:"status"`
	APIKeyConfigured bool   `json:"api_key_configured"`
}

// Health checks backend reachability and API key configuration.
func (c *Client) Health(ctx context.Context) (HealthStatus, error) {
	var out HealthStatus
	err := c.doJSON(ctx, http.MethodGet, "/api/health", nil, &out)
	return out, err
}

// TranscribeOptions tunes a transcription request.
type TranscribeOptions struct {
	Language string `json:"language,omitempty"`
}

// Transcribe sends recorded audio for speech-to-text and returns the text.
func (c *Client) Transcribe(ctx context.Context, audio []byte, mimeType string, opts TranscribeOptions) (string, error) {
	req := struct {
		AudioData string             `json:"audio_data"`
		MIMEType  string             `json:"mime_type"`
		Options   *TranscribeOptions `json:"options,omitempty"`
	}{
		AudioData: base64.StdEncoding.EncodeToString(audio),
		MIMEType:  mimeType,
	}
	if opts != (TranscribeOptions{}) {
		req.Options = &opts
	}
	var out struct {
		Text string `json:"text"`
	}
	if err := c.doJSON(ctx, http.MethodPost, "/api/transcribe", req, &out); err != nil {
		return "", err
	}
	return out.Text, nil
}

// ResponseOptions tunes an AI response request.
type ResponseOptions struct {
	Temperature  float64 `json:"temperature,omitempty"`
	MaxTokens    int     `json:"max_tokens,omitempty"`
	SystemPrompt string  `json:"system_prompt,omitempty"`
}

// GenerateResponse asks the backend for the interviewer's next reply given
// the conversation so far and the current question. Implements the
// interview.Responder contract.
func (c *Client) GenerateResponse(ctx context.Context, contextText, currentQuestion string) (string, error) {
	req := struct {
		Transcript      string `json:"transcript"`
		CurrentQuestion string `json:"current_question"`
	}{
		Transcript:      contextText,
		CurrentQuestion: currentQuestion,
	}
	var out struct {
		Response string `json:"response"`
	}
	if err := c.doJSON(ctx, http.MethodPost, "/api/generate-response", req, &out); err != nil {
		return "", err
	}
	return out.Response, nil
}

// SpeechOptions tunes a text-to-speech request.
type SpeechOptions struct {
	Voice  string  `json:"voice,omitempty"`
	Speed  float64 `json:"speed,omitempty"`
	Format string  `json:"format,omitempty"`
}

// TextToSpeech synthesizes text into audio bytes.
func (c *Client) TextToSpeech(ctx context.Context, text string, opts SpeechOptions) ([]byte, error) {
	req := struct {
		Text    string         `json:"text"`
		Options *SpeechOptions `json:"options,omitempty"`
	}{Text: text}
	if opts != (SpeechOptions{}) {
		req.Options = &opts
	}
	var out struct {
		AudioData string `json:"audio_data"`
	}
	if err := c.doJSON(ctx, http.MethodPost, "/api/text-to-speech", req, &out); err != nil {
		return nil, err
	}
	audio, err := base64.StdEncoding.DecodeString(out.AudioData)
	if err != nil {
		return nil, fmt.Errorf("failed to decode audio payload: %w", err)
	}
	return audio, nil
}

// AvatarVideo requests a talking-avatar clip for text and returns its URL.
// Implements the avatar.VideoGenerator contract.
func (c *Client) AvatarVideo(ctx context.Context, text string) (string, error) {
	req := struct {
		InputText string `json:"input_text"`
	}{InputText: text}
	var out struct {
		VideoURL string `json:"video_url"`
	}
	if err := c.doJSON(ctx, http.MethodPost, "/api/avatar/video", req, &out); err != nil {
		return "", err
	}
	return out.VideoURL, nil
}

// UploadRecording stores a finalized recording through the backend and
// returns its public URL. Implements the interview.Uploader contract for
// hosts without direct storage credentials.
func (c *Client) UploadRecording(ctx context.Context, artifact record.Artifact) (string, error) {
	req := struct {
		Data     string `json:"data"`
		MIMEType string `json:"mime_type"`
	}{
		Data:     base64.StdEncoding.EncodeToString(artifact.Data),
		MIMEType: artifact.MIMEType,
	}
	var out struct {
		URL string `json:"url"`
	}
	if err := c.doJSON(ctx, http.MethodPost, "/api/recordings", req, &out); err != nil {
		return "", err
	}
	return out.URL, nil
}

// Interview is a stored interview record as the backend returns it.
type Interview struct {
	ID             string    `json:"id"`
	Title          string    `json:"title"`
	Status         string    `json:"status"`
	RecordingURL   string    `json:"recording_url,omitempty"`
	TranscriptText string    `json:"transcript_text,omitempty"`
	OverallSummary string    `json:"overall_summary,omitempty"`
	CompletedAt    time.Time `json:"completed_at"`
}

// SaveCompleted persists a finished interview. Implements the
// interview.Saver contract.
func (c *Client) SaveCompleted(ctx context.Context, videoURL, transcriptText, title string) error {
	req := struct {
		VideoURL       string `json:"video_url"`
		TranscriptText string `json:"transcript_text"`
		Title          string `json:"title"`
	}{
		VideoURL:       videoURL,
		TranscriptText: transcriptText,
		Title:          title,
	}
	var out Interview
	if err := c.doJSON(ctx, http.MethodPost, "/api/interviews/complete", req, &out); err != nil {
		return err
	}
	c.log.Info("interview saved", zap.String("id", out.ID), zap.String("title", out.Title))
	return nil
}

// ListInterviews returns the caller's stored interviews.
func (c *Client) ListInterviews(ctx context.Context) ([]Interview, error) {
	var out struct {
		Interviews []Interview `json:"interviews"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/api/interviews", nil, &out); err != nil {
		return nil, err
	}
	return out.Interviews, nil
}

// Login exchanges credentials for a bearer token and stores it.
func (c *Client) Login(ctx context.Context, userID, userType string) error {
	req := struct {
		UserID   string `json:"user_id"`
		UserType string `json:"user_type"`
	}{UserID: userID, UserType: userType}
	var out struct {
		Token string `json:"token"`
	}
	if err := c.doJSON(ctx, http.MethodPost, "/api/auth/token", req, &out); err != nil {
		return err
	}
	return c.tokens.SetToken(out.Token)
}
