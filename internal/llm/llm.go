// Package llm provides the language model client used by the chat engine.
//
// The engine depends on the narrow Client interface; the production
// implementation delegates to Genkit with a provider-qualified model name.
// Two Client instances are constructed at startup: a fast tier for
// single-turn answers and the funny fallback, and a strong tier for
// conversation tracking and multi-step reasoning.
package llm

import (
	"context"
	"errors"
	"fmt"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"
)

// Sentinel errors for model invocation.
var (
	// ErrGenerationFailed indicates the model call failed (transport, quota, timeout).
	ErrGenerationFailed = errors.New("generation failed")

	// ErrEmptyResponse indicates the model returned no usable text.
	ErrEmptyResponse = errors.New("empty model response")
)

// Client issues a single completion call against a language model.
// Implementations must not retry; retry policy belongs to the caller's
// transport layer.
type Client interface {
	// Complete sends the fully rendered prompt and returns the generated
	// text verbatim. The call blocks until the model responds or ctx is done.
	Complete(ctx context.Context, prompt string) (string, error)
}

// GenkitClient is a Client backed by a Genkit-registered model.
type GenkitClient struct {
	g         *genkit.Genkit
	modelName string
}

// NewGenkitClient creates a client for the given provider-qualified model
// name (e.g. "googleai/gemini-2.5-flash").
func NewGenkitClient(g *genkit.Genkit, modelName string) *GenkitClient {
	return &GenkitClient{g: g, modelName: modelName}
}

// ModelName returns the provider-qualified model this client targets.
func (c *GenkitClient) ModelName() string {
	return c.modelName
}

// Complete issues exactly one generation call and returns the model text.
func (c *GenkitClient) Complete(ctx context.Context, prompt string) (string, error) {
	resp, err := genkit.Generate(ctx, c.g,
		ai.WithModelName(c.modelName),
		ai.WithPrompt(prompt),
	)
	if err != nil {
		return "", fmt.Errorf("%w: model %s: %w", ErrGenerationFailed, c.modelName, err)
	}

	text := resp.Text()
	if text == "" {
		return "", fmt.Errorf("%w: model %s", ErrEmptyResponse, c.modelName)
	}
	return text, nil
}
