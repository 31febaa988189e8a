package interview

import (
	"strings"
	"testing"
)

func TestContext_EvictsOldestBeyondBound(t *testing.T) {
	c := NewContext(3)
	for _, turn := range []string{"t1", "t2", "t3", "t4", "t5"} {
		c.Add(turn)
	}
	if c.Len() != 3 {
		t.Fatalf("expected bound of 3, got %d", c.Len())
	}
	got := c.Turns()
	want := []string{"t3", "t4", "t5"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("turn %d: got %q want %q", i, got[i], want[i])
		}
	}
}

func TestContext_StringJoinsWithNewlines(t *testing.T) {
	c := NewContext(6)
	c.Add("You: hello")
	c.Add("AI Interviewer: hi")
	if got := c.String(); got != "You: hello\nAI Interviewer: hi" {
		t.Fatalf("unexpected context string %q", got)
	}
}

func TestContext_ResetClears(t *testing.T) {
	c := NewContext(6)
	c.Add("something")
	c.Reset()
	if c.Len() != 0 || strings.TrimSpace(c.String()) != "" {
		t.Fatalf("expected empty context after reset, got %q", c.String())
	}
}
