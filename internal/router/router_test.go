package router

import (
	"context"
	"errors"
	"testing"

	"github.com/voxa-labs/voxa/internal/models"
)

// stubProvider fails a set number of times, or always.
type stubProvider struct {
	tier   models.Tier
	out    string
	err    error
	calls  int
}

func (s *stubProvider) Tier() models.Tier { return s.tier }
func (s *stubProvider) Generate(context.Context, string) (string, error) {
	s.calls++
	return s.out, s.err
}

func TestAnalyzeComplexity(t *testing.T) {
	cases := []struct {
		query string
		want  models.Complexity
	}{
		{"what is the capital of France", models.ComplexitySimple},
		{"explain how rainbows form", models.ComplexityMedium},
		{"analyze the tradeoffs of microservices", models.ComplexityComplex},
		{"write a poem about autumn", models.ComplexityCreative},
		{"pizza", models.ComplexitySimple}, // length fallback
		{"could you possibly help me figure out something about my very old car today", models.ComplexityMedium},
	}
	for _, tc := range cases {
		if got := AnalyzeComplexity(tc.query); got != tc.want {
			t.Errorf("AnalyzeComplexity(%q) = %q, want %q", tc.query, got, tc.want)
		}
	}
}

func TestRouteIntentTakesPrecedence(t *testing.T) {
	r := NewRouter()

	cases := []struct {
		intent models.IntentTag
		want   models.Tier
	}{
		{models.IntentFactual, models.TierFast},
		{models.IntentClarify, models.TierBalanced},
		{models.IntentLiveSearch, models.TierBalanced},
		{models.IntentLocalSearch, models.TierBalanced},
		{models.IntentInformationalSearch, models.TierBalanced},
		{models.IntentEscalateMedium, models.TierBalanced},
		{models.IntentAutonomousPlan, models.TierPowerful},
		{models.IntentEscalatePowerful, models.TierPowerful},
	}
	for _, tc := range cases {
		// Even an "analyze..." query routes by intent when one is known.
		decision := r.Route("analyze everything", tc.intent)
		if decision.Tier != tc.want {
			t.Errorf("Route(intent=%s) = %q, want %q", tc.intent, decision.Tier, tc.want)
		}
		if decision.Reasoning == "" {
			t.Error("expected human-readable reasoning")
		}
	}
}

func TestRouteUnmappedIntentUsesComplexity(t *testing.T) {
	r := NewRouter()
	decision := r.Route("write a short story about a lighthouse", models.IntentSetReminder)
	if decision.Tier != models.TierPowerful {
		t.Errorf("creative complexity should route powerful, got %q", decision.Tier)
	}
}

func TestExecuteWithFallback(t *testing.T) {
	fast := &stubProvider{tier: models.TierFast, err: errors.New("rate limited")}
	balanced := &stubProvider{tier: models.TierBalanced, err: errors.New("timeout")}
	powerful := &stubProvider{tier: models.TierPowerful, out: "answer"}
	r := NewRouter(fast, balanced, powerful)

	res, err := r.ExecuteWithFallback(context.Background(), "prompt", models.TierFast)
	if err != nil {
		t.Fatalf("expected success via fallback, got %v", err)
	}
	if res.Text != "answer" || res.Tier != models.TierPowerful {
		t.Errorf("result = %+v, want answer from powerful tier", res)
	}
	if res.FallbackCount != 2 {
		t.Errorf("fallback count = %d, want 2", res.FallbackCount)
	}
}

func TestExecuteWithFallbackStartsAtRequestedTier(t *testing.T) {
	fast := &stubProvider{tier: models.TierFast, out: "cheap"}
	powerful := &stubProvider{tier: models.TierPowerful, out: "deep"}
	r := NewRouter(fast, powerful)

	res, err := r.ExecuteWithFallback(context.Background(), "prompt", models.TierPowerful)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Text != "deep" {
		t.Errorf("expected powerful tier to answer first, got %q", res.Text)
	}
	if fast.calls != 0 {
		t.Error("fast tier should not be consulted before the requested tier")
	}
}

func TestExecuteWithFallbackExhaustion(t *testing.T) {
	fast := &stubProvider{tier: models.TierFast, err: errors.New("down")}
	r := NewRouter(fast)

	_, err := r.ExecuteWithFallback(context.Background(), "prompt", models.TierFast)
	if !errors.Is(err, ErrAllTiersFailed) {
		t.Errorf("expected ErrAllTiersFailed, got %v", err)
	}
}

type fakeTierGen struct {
	lastModel  string
	lastSystem string
	lastPrompt string
}

func (f *fakeTierGen) GenerateWithModel(_ context.Context, model, system, prompt string) (string, error) {
	f.lastModel, f.lastSystem, f.lastPrompt = model, system, prompt
	return "generated", nil
}

func (f *fakeTierGen) ModelForTier(tier models.Tier) string {
	return "model-" + string(tier)
}

func TestGenAIProviderUsesTierModel(t *testing.T) {
	gen := &fakeTierGen{}
	p := NewGenAIProvider(models.TierBalanced, "be helpful", gen)

	if p.Tier() != models.TierBalanced {
		t.Errorf("tier = %q", p.Tier())
	}
	out, err := p.Generate(context.Background(), "hello")
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if out != "generated" {
		t.Errorf("out = %q", out)
	}
	if gen.lastModel != "model-balanced" {
		t.Errorf("model = %q, want the balanced tier's model", gen.lastModel)
	}
	if gen.lastSystem != "be helpful" || gen.lastPrompt != "hello" {
		t.Errorf("prompts = %q / %q", gen.lastSystem, gen.lastPrompt)
	}
}
