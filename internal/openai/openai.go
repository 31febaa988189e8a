// Package openai is a thin HTTP client for the OpenAI endpoints the
// backend uses: chat completions, Whisper transcription and speech
// synthesis.
package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"
)

const apiBase = "https://api.openai.com/v1"

// ErrNotConfigured means no API key is set.
var ErrNotConfigured = errors.New("openai: api key not configured")

// Client calls the OpenAI API.
type Client struct {
	apiKey       string
	chatModel    string
	whisperModel string
	speechModel  string
	speechVoice  string
	http         *http.Client
	log          *zap.Logger
}

// Config holds client construction parameters.
type Config struct {
	APIKey       string
	ChatModel    string
	WhisperModel string
	SpeechModel  string
	SpeechVoice  string
}

// NewClient constructs a Client. Empty model fields fall back to defaults.
func NewClient(cfg Config, log *zap.Logger) *Client {
	if log == nil {
		log = zap.NewNop()
	}
	if cfg.ChatModel == "" {
		cfg.ChatModel = "gpt-4o-mini"
	}
	if cfg.WhisperModel == "" {
		cfg.WhisperModel = "whisper-1"
	}
	if cfg.SpeechModel == "" {
		cfg.SpeechModel = "tts-1"
	}
	if cfg.SpeechVoice == "" {
		cfg.SpeechVoice = "nova"
	}
	return &Client{
		apiKey:       cfg.APIKey,
		chatModel:    cfg.ChatModel,
		whisperModel: cfg.WhisperModel,
		speechModel:  cfg.SpeechModel,
		speechVoice:  cfg.SpeechVoice,
		http:         &http.Client{Timeout: 120 * time.Second},
		log:          log,
	}
}

// Configured reports whether an API key is present.
func (c *Client) Configured() bool { return c.apiKey != "" }

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model          string        `json:"model"`
	Messages       []chatMessage `json:"messages"`
	Temperature    float64       `json:"temperature"`
	MaxTokens      int           `json:"max_tokens,omitempty"`
	ResponseFormat *struct {
		Type string `json:"type"`
	} `json:"response_format,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Chat sends a system+user message pair and returns the assistant's reply.
func (c *Client) Chat(ctx context.Context, systemPrompt, userContent string, temperature float64, maxTokens int) (string, error) {
	return c.chat(ctx, systemPrompt, userContent, temperature, maxTokens, false)
}

func (c *Client) chat(ctx context.Context, systemPrompt, userContent string, temperature float64, maxTokens int, jsonMode bool) (string, error) {
	if !c.Configured() {
		return "", ErrNotConfigured
	}

	reqBody := chatRequest{
		Model: c.chatModel,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userContent},
		},
		Temperature: temperature,
		MaxTokens:   maxTokens,
	}
	if jsonMode {
		reqBody.ResponseFormat = &struct {
			Type string `json:"type"`
		}{Type: "json_object"}
	}

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("failed to encode chat request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, apiBase+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("chat request failed: %w", err)
	}
	defer resp.Body.Close()

	var out chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("failed to decode chat response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		msg := resp.Status
		if out.Error != nil {
			msg = out.Error.Message
		}
		return "", fmt.Errorf("chat completion failed: %s", msg)
	}
	if len(out.Choices) == 0 {
		return "", errors.New("chat completion returned no choices")
	}
	return out.Choices[0].Message.Content, nil
}

// Transcribe sends audio through the Whisper API and returns the text.
// filename carries the container hint ("audio.webm"); language and prompt
// are optional.
func (c *Client) Transcribe(ctx context.Context, audio []byte, filename, language, prompt string, temperature float64) (string, error) {
	if !c.Configured() {
		return "", ErrNotConfigured
	}
	if filename == "" {
		filename = "audio.webm"
	}

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("file", filename)
	if err != nil {
		return "", err
	}
	if _, err := part.Write(audio); err != nil {
		return "", err
	}
	_ = w.WriteField("model", c.whisperModel)
	if language != "" {
		_ = w.WriteField("language", language)
	}
	if prompt != "" {
		_ = w.WriteField("prompt", prompt)
	}
	_ = w.WriteField("temperature", strconv.FormatFloat(temperature, 'f', -1, 64))
	if err := w.Close(); err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, apiBase+"/audio/transcriptions", &buf)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", w.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("transcription request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", fmt.Errorf("transcription failed: %s: %s", resp.Status, string(body))
	}
	var out struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("failed to decode transcription response: %w", err)
	}
	return out.Text, nil
}

// Speech synthesizes text with the TTS API and returns raw audio bytes.
// voice, speed and format fall back to client defaults when zero.
func (c *Client) Speech(ctx context.Context, text, voice string, speed float64, format string) ([]byte, error) {
	if !c.Configured() {
		return nil, ErrNotConfigured
	}
	if voice == "" {
		voice = c.speechVoice
	}
	if speed == 0 {
		speed = 1.0
	}
	if format == "" {
		format = "mp3"
	}

	payload, err := json.Marshal(map[string]any{
		"model":           c.speechModel,
		"voice":           voice,
		"input":           text,
		"speed":           speed,
		"response_format": format,
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, apiBase+"/audio/speech", bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("speech request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("speech synthesis failed: %s: %s", resp.Status, string(body))
	}
	return io.ReadAll(resp.Body)
}
