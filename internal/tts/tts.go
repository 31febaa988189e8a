// Package tts abstracts speech synthesis providers behind one interface.
package tts

import (
	"context"
	"errors"
)

// ErrNotConfigured means the provider is missing credentials.
var ErrNotConfigured = errors.New("tts: provider not configured")

// Provider synthesizes spoken audio for text.
type Provider interface {
	// Synthesize returns encoded audio bytes for text. An empty voice uses
	// the provider default.
	Synthesize(ctx context.Context, text, voice string, speed float64) ([]byte, error)
	// Name identifies the provider for logging.
	Name() string
}
