package interview

import (
	"testing"
	"time"
)

func TestFormatEntries(t *testing.T) {
	ts := time.Date(2025, 6, 1, 10, 30, 0, 0, time.UTC)
	entries := []Entry{
		{Speaker: SpeakerInterviewer, Text: "Tell me about yourself.", Timestamp: ts},
		{Speaker: SpeakerCandidate, Text: "I am a backend engineer.", Timestamp: ts.Add(10 * time.Second)},
	}
	want := "AI Interviewer (2025-06-01T10:30:00Z): Tell me about yourself.\n\n" +
		"You (2025-06-01T10:30:10Z): I am a backend engineer."
	if got := FormatEntries(entries); got != want {
		t.Fatalf("got:\n%s\nwant:\n%s", got, want)
	}
}

func TestFormatEntries_Empty(t *testing.T) {
	if got := FormatEntries(nil); got != "" {
		t.Fatalf("expected empty string, got %q", got)
	}
}
