// Package router picks a model capability tier for each query and executes
// generation with ordered fallback across tiers.
package router

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/voxa-labs/voxa/internal/models"
)

// ErrAllTiersFailed indicates every provider in the fallback walk failed.
var ErrAllTiersFailed = errors.New("all tiers failed")

// intentTiers maps classified intents to their preferred tier.
var intentTiers = map[models.IntentTag]models.Tier{
	models.IntentFactual:             models.TierFast,
	models.IntentClarify:             models.TierBalanced,
	models.IntentLiveSearch:          models.TierBalanced,
	models.IntentLocalSearch:         models.TierBalanced,
	models.IntentInformationalSearch: models.TierBalanced,
	models.IntentEscalateMedium:      models.TierBalanced,
	models.IntentAutonomousPlan:      models.TierPowerful,
	models.IntentEscalatePowerful:    models.TierPowerful,
}

// complexityTiers maps analyzed complexity to a tier.
var complexityTiers = map[models.Complexity]models.Tier{
	models.ComplexitySimple:   models.TierFast,
	models.ComplexityMedium:   models.TierBalanced,
	models.ComplexityComplex:  models.TierPowerful,
	models.ComplexityCreative: models.TierPowerful,
}

// Keyword families for complexity analysis, checked in order.
var (
	simpleKeywords = []string{
		"what is", "who is", "when was", "where is", "define",
		"meaning of", "yes or no", "true or false", "is it", "does it",
	}
	mediumKeywords = []string{
		"explain", "how to", "why", "compare", "difference between",
		"summarize", "describe", "tell me about", "what are the",
	}
	complexKeywords = []string{
		"analyze", "evaluate", "assess", "critique", "pros and cons",
		"advantages disadvantages", "in depth", "detailed analysis", "reasoning",
	}
	creativeKeywords = []string{
		"write", "create", "design", "generate", "come up with",
		"invent", "imagine", "story",
	}
)

// Provider generates text at one capability tier.
type Provider interface {
	Tier() models.Tier
	Generate(ctx context.Context, prompt string) (string, error)
}

// Result is a generation outcome including how many fallback hops it took.
type Result struct {
	Text          string
	Tier          models.Tier
	FallbackCount int
}

// Router maps queries to tiers and runs the fallback walk.
type Router struct {
	providers map[models.Tier]Provider
}

// NewRouter creates a Router over the given tier providers.
func NewRouter(providers ...Provider) *Router {
	byTier := make(map[models.Tier]Provider, len(providers))
	for _, p := range providers {
		byTier[p.Tier()] = p
	}
	return &Router{providers: byTier}
}

// AnalyzeComplexity buckets the query by keyword families, falling back to
// word count when nothing matches.
func AnalyzeComplexity(query string) models.Complexity {
	q := strings.ToLower(query)

	for _, kw := range creativeKeywords {
		if strings.Contains(q, kw) {
			return models.ComplexityCreative
		}
	}
	for _, kw := range complexKeywords {
		if strings.Contains(q, kw) {
			return models.ComplexityComplex
		}
	}
	for _, kw := range mediumKeywords {
		if strings.Contains(q, kw) {
			return models.ComplexityMedium
		}
	}
	for _, kw := range simpleKeywords {
		if strings.Contains(q, kw) {
			return models.ComplexitySimple
		}
	}

	switch words := len(strings.Fields(query)); {
	case words <= 5:
		return models.ComplexitySimple
	case words <= 15:
		return models.ComplexityMedium
	default:
		return models.ComplexityComplex
	}
}

// Route decides the tier for a query. A known intent takes precedence over
// complexity analysis.
func (r *Router) Route(query string, intent models.IntentTag) models.RouteDecision {
	if tier, ok := intentTiers[intent]; ok {
		return models.RouteDecision{
			Tier:      tier,
			Reasoning: fmt.Sprintf("intent %s maps to %s tier", intent, tier),
		}
	}

	complexity := AnalyzeComplexity(query)
	tier := complexityTiers[complexity]
	return models.RouteDecision{
		Tier:      tier,
		Reasoning: fmt.Sprintf("complexity %s maps to %s tier", complexity, tier),
	}
}

// ExecuteWithFallback generates starting at the given tier, then walks the
// remaining tiers in fixed order until one succeeds.
func (r *Router) ExecuteWithFallback(ctx context.Context, prompt string, start models.Tier) (Result, error) {
	chain := fallbackChain(start)

	var lastErr error
	hops := 0
	for _, tier := range chain {
		provider, ok := r.providers[tier]
		if !ok {
			continue
		}
		text, err := provider.Generate(ctx, prompt)
		if err != nil {
			slog.Warn("Router.ExecuteWithFallback: tier failed", "tier", tier, "error", err)
			lastErr = err
			hops++
			continue
		}
		if hops > 0 {
			slog.Info("Router.ExecuteWithFallback: succeeded after fallback", "tier", tier, "fallbacks", hops)
		}
		return Result{Text: text, Tier: tier, FallbackCount: hops}, nil
	}

	if lastErr != nil {
		return Result{}, fmt.Errorf("%w: last error: %v", ErrAllTiersFailed, lastErr)
	}
	return Result{}, ErrAllTiersFailed
}

// fallbackChain yields the start tier followed by every other tier in the
// fixed fast->balanced->powerful->premium order.
func fallbackChain(start models.Tier) []models.Tier {
	chain := make([]models.Tier, 0, len(models.TierOrder))
	chain = append(chain, start)
	for _, tier := range models.TierOrder {
		if tier != start {
			chain = append(chain, tier)
		}
	}
	return chain
}
