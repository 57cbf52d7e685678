package engine

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/dcaohuy/domainchat/internal/prompt"
)

// maxTrackingResponseBytes limits model output size before JSON parsing (10 KB).
const maxTrackingResponseBytes = 10 * 1024

// TrackingResult is the tagged union returned by ConversationTracking:
// either a structured object (the model returned valid JSON) or a plain
// fallback string (the original query, when parsing failed).
type TrackingResult struct {
	// Structured is the decoded JSON object. Nil when parsing failed.
	Structured map[string]any

	// Fallback holds the original query when parsing failed, "" otherwise.
	Fallback string
}

// Parsed reports whether the model's response was valid JSON.
func (t TrackingResult) Parsed() bool {
	return t.Structured != nil
}

// ResolvedQuery returns the query to use downstream: the structured
// object's "query" field when present and non-empty, otherwise original.
func (t TrackingResult) ResolvedQuery(original string) string {
	if t.Structured != nil {
		if q, ok := t.Structured["query"].(string); ok && q != "" {
			return q
		}
	}
	return original
}

// ConversationTracking asks the strong-tier model to rewrite the query into
// a self-contained one given the conversation history.
//
// The model is expected to return a JSON object, possibly wrapped in
// markdown code fences. A malformed response never aborts the conversation:
// parsing failures are logged and degrade to the original query. Model call
// failures, by contrast, propagate to the caller.
func (e *Engine) ConversationTracking(ctx context.Context, history, query string) (TrackingResult, error) {
	p, err := e.prompts.Render(prompt.Tracking, prompt.Vars{
		"history": history,
		"query":   query,
	})
	if err != nil {
		return TrackingResult{}, err
	}

	text, err := e.strong.Complete(ctx, p)
	if err != nil {
		return TrackingResult{}, err
	}

	result := parseTracking(text, query)
	if !result.Parsed() {
		e.logger.Warn("conversation tracking response was not valid JSON, using raw query",
			"raw", truncate(text, 200))
	}
	return result, nil
}

// parseTracking strips surrounding code fences and decodes the model text
// as a JSON object. On any failure it returns the fallback form carrying
// the original query. Pure; exercised directly by tests.
func parseTracking(text, originalQuery string) TrackingResult {
	fallback := TrackingResult{Fallback: originalQuery}

	text = strings.TrimSpace(text)
	if text == "" || len(text) > maxTrackingResponseBytes {
		return fallback
	}

	text = stripCodeFences(text)

	var structured map[string]any
	if err := json.Unmarshal([]byte(text), &structured); err != nil {
		return fallback
	}
	return TrackingResult{Structured: structured}
}

// stripCodeFences removes ```json ... ``` wrapping from model output.
func stripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		// Remove opening fence (with optional language tag).
		if idx := strings.Index(s, "\n"); idx != -1 {
			s = s[idx+1:]
		}
		// Remove closing fence.
		if idx := strings.LastIndex(s, "```"); idx != -1 {
			s = s[:idx]
		}
		s = strings.TrimSpace(s)
	}
	return s
}

// truncate shortens s to at most n bytes for logging.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
