package avatar

import (
	"context"
	"errors"
	"testing"
	"time"
)

type fakeGenerator struct {
	url string
	err error
}

func (f fakeGenerator) AvatarVideo(ctx context.Context, text string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return f.url, nil
}

func TestEstimateSpeakingDuration(t *testing.T) {
	cases := []struct {
		text string
		want time.Duration
	}{
		{"", 2 * time.Second},
		{"hello", 2*time.Second + 400*time.Millisecond},
		{"one two three four five", 2*time.Second + 5*400*time.Millisecond},
	}
	for _, tc := range cases {
		if got := EstimateSpeakingDuration(tc.text); got != tc.want {
			t.Fatalf("estimate for %q: got %v want %v", tc.text, got, tc.want)
		}
	}
}

func TestSpeaker_MediaEndedBeatsTimer(t *testing.T) {
	s := NewSpeaker(fakeGenerator{url: "https://clips.example/a.mp4"}, nil)

	// long enough that only the real ended event can finish the clip in time
	done, err := s.Speak(context.Background(), "a reply with quite a few words in it to stretch the timer estimate well past the test deadline")
	if err != nil {
		t.Fatalf("speak: %v", err)
	}
	if !s.IsSpeaking() {
		t.Fatal("expected speaking state during playback")
	}

	p := s.Current()
	if p == nil || p.URL != "https://clips.example/a.mp4" {
		t.Fatalf("unexpected playback %+v", p)
	}
	p.MediaEnded()

	select {
	case <-done:
	case <-time.After(500 * time.Millisecond):
		t.Fatal("expected the ended event to finish playback before the estimate")
	}

	deadline := time.Now().Add(500 * time.Millisecond)
	for time.Now().Before(deadline) && s.IsSpeaking() {
		time.Sleep(2 * time.Millisecond)
	}
	if s.IsSpeaking() {
		t.Fatal("expected speaking state cleared")
	}
	if s.Current() != nil {
		t.Fatal("expected current playback cleared")
	}
}

func TestSpeaker_MediaEndedIsIdempotent(t *testing.T) {
	s := NewSpeaker(fakeGenerator{url: "u"}, nil)
	done, err := s.Speak(context.Background(), "short")
	if err != nil {
		t.Fatalf("speak: %v", err)
	}
	p := s.Current()
	p.MediaEnded()
	p.MediaEnded()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("expected done after ended event")
	}
}

func TestSpeaker_GenerationFailurePropagates(t *testing.T) {
	s := NewSpeaker(fakeGenerator{err: errors.New("service down")}, nil)
	if _, err := s.Speak(context.Background(), "text"); err == nil {
		t.Fatal("expected generation error")
	}
	if s.IsSpeaking() {
		t.Fatal("expected no speaking state after failure")
	}
}

func TestSpeaker_ContextCancelFinishesPlayback(t *testing.T) {
	s := NewSpeaker(fakeGenerator{url: "u"}, nil)
	ctx, cancel := context.WithCancel(context.Background())
	done, err := s.Speak(ctx, "some words that imply a multi second estimate for this clip")
	if err != nil {
		t.Fatalf("speak: %v", err)
	}
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("expected cancellation to finish playback")
	}
}
