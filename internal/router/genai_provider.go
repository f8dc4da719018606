package router

import (
	"context"

	"github.com/voxa-labs/voxa/internal/models"
)

// tierGenerator is the slice of the GenAI client a tier provider needs.
type tierGenerator interface {
	GenerateWithModel(ctx context.Context, model, systemPrompt, userPrompt string) (string, error)
	ModelForTier(tier models.Tier) string
}

// GenAIProvider serves one capability tier from the shared GenAI client,
// using the model configured for that tier.
type GenAIProvider struct {
	tier         models.Tier
	systemPrompt string
	gen          tierGenerator
}

// NewGenAIProvider creates a provider for one tier. The system prompt is
// shared across all requests on that tier.
func NewGenAIProvider(tier models.Tier, systemPrompt string, gen tierGenerator) *GenAIProvider {
	return &GenAIProvider{tier: tier, systemPrompt: systemPrompt, gen: gen}
}

// Tier implements Provider.
func (p *GenAIProvider) Tier() models.Tier {
	return p.tier
}

// Generate implements Provider.
func (p *GenAIProvider) Generate(ctx context.Context, prompt string) (string, error) {
	return p.gen.GenerateWithModel(ctx, p.gen.ModelForTier(p.tier), p.systemPrompt, prompt)
}
