package tts

import (
	"context"

	"github.com/Arpan069/new-creation-genesis-flow/internal/openai"
)

// OpenAI adapts the OpenAI speech endpoint to the Provider interface.
type OpenAI struct {
	client *openai.Client
}

// NewOpenAI constructs an OpenAI provider over an existing client.
func NewOpenAI(client *openai.Client) *OpenAI {
	return &OpenAI{client: client}
}

func (o *OpenAI) Name() string { return "openai" }

// Synthesize returns MP3 audio for text.
func (o *OpenAI) Synthesize(ctx context.Context, text, voice string, speed float64) ([]byte, error) {
	if !o.client.Configured() {
		return nil, ErrNotConfigured
	}
	return o.client.Speech(ctx, text, voice, speed, "mp3")
}
