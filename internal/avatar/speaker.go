// Package avatar adapts reply text into talking-avatar video playback. The
// video backend does not report playback completion, so a done-speaking
// signal is synthesized: the real media-ended event when the host delivers
// one, otherwise a word-count duration estimate, whichever fires first.
package avatar

import (
	"context"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

const (
	// perWord is the assumed speaking rate for the duration estimate.
	perWord = 400 * time.Millisecond
	// tailBuffer absorbs clip lead-in/lead-out.
	tailBuffer = 2 * time.Second
)

// VideoGenerator produces a playable clip URL for the given text.
type VideoGenerator interface {
	AvatarVideo(ctx context.Context, text string) (string, error)
}

// Playback is one in-flight avatar clip.
type Playback struct {
	URL  string
	done chan struct{}

	mu    sync.Mutex
	ended bool
}

// Done closes when the clip is considered finished speaking.
func (p *Playback) Done() <-chan struct{} { return p.done }

// MediaEnded reports the video element's ended event. The first signal
// (event or estimate timer) wins.
func (p *Playback) MediaEnded() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.ended {
		return
	}
	p.ended = true
	close(p.done)
}

// Speaker renders interviewer speech through the avatar backend.
type Speaker struct {
	gen VideoGenerator
	log *zap.Logger

	mu       sync.Mutex
	speaking bool
	current  *Playback
}

// NewSpeaker constructs a Speaker.
func NewSpeaker(gen VideoGenerator, log *zap.Logger) *Speaker {
	if log == nil {
		log = zap.NewNop()
	}
	return &Speaker{gen: gen, log: log}
}

// IsSpeaking reports whether a clip is currently playing.
func (s *Speaker) IsSpeaking() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.speaking
}

// Current returns the in-flight playback, if any. The host wires the video
// element's ended event to Playback.MediaEnded.
func (s *Speaker) Current() *Playback {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// Speak generates a clip for text and returns a channel that closes when
// speaking is considered done.
func (s *Speaker) Speak(ctx context.Context, text string) (<-chan struct{}, error) {
	url, err := s.gen.AvatarVideo(ctx, text)
	if err != nil {
		return nil, err
	}

	p := &Playback{URL: url, done: make(chan struct{})}
	s.mu.Lock()
	s.speaking = true
	s.current = p
	s.mu.Unlock()

	est := EstimateSpeakingDuration(text)
	s.log.Debug("avatar speaking", zap.String("url", url), zap.Duration("estimate", est))

	go func() {
		timer := time.NewTimer(est)
		defer timer.Stop()
		select {
		case <-p.done:
		case <-timer.C:
			p.MediaEnded()
		case <-ctx.Done():
			p.MediaEnded()
		}
		s.mu.Lock()
		s.speaking = false
		if s.current == p {
			s.current = nil
		}
		s.mu.Unlock()
	}()

	return p.done, nil
}

// EstimateSpeakingDuration approximates how long the avatar takes to speak
// text, at the assumed per-word rate plus a fixed buffer.
func EstimateSpeakingDuration(text string) time.Duration {
	words := len(strings.Fields(text))
	return time.Duration(words)*perWord + tailBuffer
}
