package intent

import (
	"context"
	"fmt"
)

// generator is the slice of the GenAI client the OpenAI backend needs.
type generator interface {
	GenerateWithModel(ctx context.Context, model, systemPrompt, userPrompt string) (string, error)
}

// OpenAIBackend classifies via an OpenAI-compatible chat model.
type OpenAIBackend struct {
	name   string
	model  string
	client generator
}

// NewOpenAIBackend creates a backend classifying on the given model.
func NewOpenAIBackend(name, model string, client generator) *OpenAIBackend {
	return &OpenAIBackend{name: name, model: model, client: client}
}

// Name implements Backend.
func (b *OpenAIBackend) Name() string {
	return b.name
}

// Classify implements Backend. Transport failures are wrapped in
// ErrBackendUnavailable so the chain can distinguish outage from bad output.
func (b *OpenAIBackend) Classify(ctx context.Context, query string, hint Hint) (string, error) {
	raw, err := b.client.GenerateWithModel(ctx, b.model, buildSystemPrompt(hint), query)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v", ErrBackendUnavailable, b.name, err)
	}
	return raw, nil
}
