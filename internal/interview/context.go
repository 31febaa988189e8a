package interview

import (
	"strings"
	"sync"
)

// Context is the bounded rolling window of role-prefixed turn strings used
// to build responder prompts. Oldest turns are evicted FIFO on overflow.
type Context struct {
	mu    sync.Mutex
	turns []string
	max   int
}

// NewContext creates a context window holding at most max turns.
func NewContext(max int) *Context {
	if max <= 0 {
		max = defaultContextTurns
	}
	return &Context{max: max}
}

// Add appends a turn, evicting the oldest when the window is full.
func (c *Context) Add(turn string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.turns = append(c.turns, turn)
	if len(c.turns) > c.max {
		c.turns = c.turns[len(c.turns)-c.max:]
	}
}

// Reset clears the window.
func (c *Context) Reset() {
	c.mu.Lock()
	c.turns = nil
	c.mu.Unlock()
}

// Len reports the current number of retained turns.
func (c *Context) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.turns)
}

// Turns returns a copy of the retained turns, oldest first.
func (c *Context) Turns() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, len(c.turns))
	copy(out, c.turns)
	return out
}

// String joins the retained turns into the prompt context block.
func (c *Context) String() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return strings.Join(c.turns, "\n")
}
