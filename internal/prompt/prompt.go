// Package prompt holds the named prompt templates used by the chat engine
// and renders them by substituting placeholder slots.
//
// Templates are plain strings with {query}, {context} and {history} slots.
// Rendering is pure: it never calls out, never escapes values, and fails
// only when a template references a slot the caller did not supply. That
// failure is a programming defect, not a runtime condition, and must be
// caught by tests rather than surfaced to users.
package prompt

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for template rendering.
var (
	// ErrUnknownTemplate indicates the requested template name is not registered.
	ErrUnknownTemplate = errors.New("unknown template")

	// ErrMissingPlaceholder indicates a template slot was not supplied by the caller.
	ErrMissingPlaceholder = errors.New("missing placeholder value")
)

// Template names used by the engine.
const (
	// Instruction is the standard single-turn answer template (query + context + history).
	Instruction = "instruction"

	// Funny is the out-of-domain fallback template (query only).
	Funny = "funny"

	// Tracking is the conversation-tracking template (history + query),
	// instructing the model to return a JSON object.
	Tracking = "tracking"

	// Reasoning is the multi-step reasoning template (query + context + history).
	Reasoning = "reasoning"
)

// Vars carries the values substituted into a template's slots.
// A key must be present for every slot the template references;
// extra keys are ignored.
type Vars map[string]string

// Store is an immutable set of named templates.
type Store struct {
	templates map[string]string
}

// NewStore returns a Store preloaded with the built-in templates.
func NewStore() *Store {
	return &Store{templates: builtinTemplates}
}

// NewStoreWith returns a Store with caller-supplied templates.
// Intended for tests and for overriding the built-in prompt texts.
func NewStoreWith(templates map[string]string) *Store {
	cp := make(map[string]string, len(templates))
	for k, v := range templates {
		cp[k] = v
	}
	return &Store{templates: cp}
}

// Render substitutes vars into the named template.
//
// Every {slot} occurring in the template must have a matching key in vars,
// otherwise ErrMissingPlaceholder is returned. The substitution is literal:
// values are inserted as-is with no escaping.
func (s *Store) Render(name string, vars Vars) (string, error) {
	tmpl, ok := s.templates[name]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownTemplate, name)
	}

	var b strings.Builder
	b.Grow(len(tmpl))

	for {
		open := strings.IndexByte(tmpl, '{')
		if open == -1 {
			b.WriteString(tmpl)
			return b.String(), nil
		}

		closing := strings.IndexByte(tmpl[open:], '}')
		if closing == -1 {
			// Unterminated brace: treat the rest as literal text.
			b.WriteString(tmpl)
			return b.String(), nil
		}
		closing += open

		slot := tmpl[open+1 : closing]
		if !isSlotName(slot) {
			// Not a placeholder (e.g. a JSON example in the template text);
			// keep the braces verbatim and continue past the opening brace.
			b.WriteString(tmpl[:open+1])
			tmpl = tmpl[open+1:]
			continue
		}

		value, ok := vars[slot]
		if !ok {
			return "", fmt.Errorf("%w: {%s} in template %q", ErrMissingPlaceholder, slot, name)
		}

		b.WriteString(tmpl[:open])
		b.WriteString(value)
		tmpl = tmpl[closing+1:]
	}
}

// Slots returns the placeholder names the named template references,
// in order of first appearance.
func (s *Store) Slots(name string) ([]string, error) {
	tmpl, ok := s.templates[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownTemplate, name)
	}

	var slots []string
	seen := make(map[string]bool)
	for {
		open := strings.IndexByte(tmpl, '{')
		if open == -1 {
			return slots, nil
		}
		closing := strings.IndexByte(tmpl[open:], '}')
		if closing == -1 {
			return slots, nil
		}
		closing += open

		slot := tmpl[open+1 : closing]
		if isSlotName(slot) && !seen[slot] {
			seen[slot] = true
			slots = append(slots, slot)
		}
		tmpl = tmpl[open+1:]
	}
}

// isSlotName reports whether s is a valid placeholder name:
// non-empty, lowercase ASCII letters only.
func isSlotName(s string) bool {
	if s == "" {
		return false
	}
	for _, ch := range s {
		if ch < 'a' || ch > 'z' {
			return false
		}
	}
	return true
}
