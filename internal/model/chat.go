package model

import (
	"strings"
	"time"
)

// Role identifies the author of a conversation turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Intent is the classified action for a user message.
type Intent string

const (
	IntentSearch     Intent = "search_products"
	IntentExtractURL Intent = "extract_from_url"
	IntentChat       Intent = "default_chat"
)

// Classification is the result of intent analysis on a user message.
type Classification struct {
	Intent    Intent `json:"intent"`
	Reasoning string `json:"reasoning"`
}

// Turn is a single conversation message.
type Turn struct {
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
	Citations []string  `json:"citations,omitempty"`
}

// Context is a bounded rolling window of conversation turns. Capacity is
// MaxTurns*2: one user and one assistant message per turn. When the window
// overflows, the oldest turns are dropped first.
type Context struct {
	Turns    []Turn `json:"turns"`
	MaxTurns int    `json:"max_turns"`
}

// NewContext creates a Context holding at most maxTurns exchanges.
func NewContext(maxTurns int) *Context {
	return &Context{MaxTurns: maxTurns}
}

// Add appends a turn, evicting the oldest entries beyond capacity.
func (c *Context) Add(turn Turn) {
	c.Turns = append(c.Turns, turn)
	if limit := c.MaxTurns * 2; limit > 0 && len(c.Turns) > limit {
		c.Turns = c.Turns[len(c.Turns)-limit:]
	}
}

// Render formats the window for model input, one "Role: content" line per
// turn in chronological order.
func (c *Context) Render() string {
	lines := make([]string, 0, len(c.Turns))
	for _, t := range c.Turns {
		lines = append(lines, capitalize(string(t.Role))+": "+t.Content)
	}
	return strings.Join(lines, "\n")
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// SessionState is the per-thread record the agent reads and writes.
type SessionState struct {
	ThreadID      string            `json:"thread_id"`
	Context       *Context          `json:"context"`
	SearchResults []Offer           `json:"search_results,omitempty"`
	Comparison    *ComparisonResult `json:"comparison,omitempty"`
	Citations     []string          `json:"citations,omitempty"`
	UpdatedAt     time.Time         `json:"updated_at"`
}

// ChatResult is the outcome of a single chat invocation.
type ChatResult struct {
	ThreadID      string            `json:"thread_id"`
	Response      string            `json:"response"`
	Citations     []string          `json:"citations,omitempty"`
	SearchResults []Offer           `json:"search_results,omitempty"`
	Comparison    *ComparisonResult `json:"comparison,omitempty"`
}
