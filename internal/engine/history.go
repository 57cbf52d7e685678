package engine

import (
	"strings"
	"sync"
)

// Turn is one prior (query, response) exchange.
type Turn struct {
	Query    string
	Response string
}

// History is an append-only sequence of conversation turns.
//
// A History is constructed per conversation session by the caller; the
// engine only reads it. Safe for concurrent use.
//
// The zero value is not useful; use NewHistory.
type History struct {
	mu    sync.RWMutex
	turns []Turn
}

// NewHistory creates an empty History.
func NewHistory() *History {
	return &History{turns: make([]Turn, 0)}
}

// Add appends one completed exchange.
func (h *History) Add(query, response string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.turns = append(h.turns, Turn{Query: query, Response: response})
}

// Len returns the number of turns. A nil History has zero turns.
func (h *History) Len() int {
	if h == nil {
		return 0
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.turns)
}

// Turns returns a copy of all turns.
func (h *History) Turns() []Turn {
	if h == nil {
		return nil
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	cp := make([]Turn, len(h.turns))
	copy(cp, h.turns)
	return cp
}

// Render flattens the history into the single string embedded in prompts.
// Returns "" for a nil or empty history.
func (h *History) Render() string {
	if h == nil {
		return ""
	}
	h.mu.RLock()
	defer h.mu.RUnlock()

	if len(h.turns) == 0 {
		return ""
	}

	var b strings.Builder
	for i, turn := range h.turns {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString("User: ")
		b.WriteString(turn.Query)
		b.WriteString("\nAssistant: ")
		b.WriteString(turn.Response)
	}
	return b.String()
}
