package intent

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/voxa-labs/voxa/internal/convstate"
	"github.com/voxa-labs/voxa/internal/models"
)

// stubBackend returns a canned response or error.
type stubBackend struct {
	name  string
	raw   string
	err   error
	calls int
}

func (s *stubBackend) Name() string { return s.name }
func (s *stubBackend) Classify(context.Context, string, Hint) (string, error) {
	s.calls++
	return s.raw, s.err
}

func TestClassifyFirstBackendWins(t *testing.T) {
	first := &stubBackend{name: "first", raw: `{"intent": "live_search", "parameters": {"query": "weather"}}`}
	second := &stubBackend{name: "second", raw: `{"intent": "factual"}`}
	c := NewClassifier(nil, first, second)

	intent, err := c.Classify(context.Background(), "weather in Mumbai", Hint{})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if intent.Tag != models.IntentLiveSearch {
		t.Errorf("intent = %q, want live_search", intent.Tag)
	}
	if intent.Parameters["query"] != "weather" {
		t.Errorf("parameters not extracted: %v", intent.Parameters)
	}
	if second.calls != 0 {
		t.Error("second backend should not be consulted when first succeeds")
	}
}

func TestClassifyMalformedFirstBackendAdvances(t *testing.T) {
	// First backend returns structurally invalid output; the chain must
	// advance and accept the second backend's valid classification.
	first := &stubBackend{name: "first", raw: `not json at all`}
	second := &stubBackend{name: "second", raw: `{"intent": "informational_search"}`}
	c := NewClassifier(nil, first, second)

	intent, err := c.Classify(context.Background(), "history of go", Hint{})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if intent.Tag != models.IntentInformationalSearch {
		t.Errorf("intent = %q, want informational_search", intent.Tag)
	}
}

func TestClassifyUnknownTagRejected(t *testing.T) {
	first := &stubBackend{name: "first", raw: `{"intent": "greeting"}`}
	second := &stubBackend{name: "second", raw: `{"intent": "factual"}`}
	c := NewClassifier(nil, first, second)

	intent, err := c.Classify(context.Background(), "hello", Hint{})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if intent.Tag != models.IntentFactual {
		t.Errorf("intent = %q, want factual from second backend", intent.Tag)
	}
}

func TestClassifyAllFailedDefaultsToFactual(t *testing.T) {
	first := &stubBackend{name: "first", raw: `{"intent": 42}`}
	second := &stubBackend{name: "second", raw: `[]`}
	c := NewClassifier(nil, first, second)

	intent, err := c.Classify(context.Background(), "hmm", Hint{})
	if !errors.Is(err, ErrAllBackendsFailed) {
		t.Errorf("expected ErrAllBackendsFailed, got %v", err)
	}
	if intent.Tag != models.IntentFactual {
		t.Errorf("intent = %q, want factual default", intent.Tag)
	}
}

func TestClassifyAllUnavailableEscalates(t *testing.T) {
	outage := &stubBackend{name: "a", err: ErrBackendUnavailable}
	outage2 := &stubBackend{name: "b", err: ErrBackendUnavailable}
	c := NewClassifier(nil, outage, outage2)

	intent, err := c.Classify(context.Background(), "analyze this", Hint{})
	if !errors.Is(err, ErrAllBackendsFailed) {
		t.Errorf("expected ErrAllBackendsFailed, got %v", err)
	}
	if intent.Tag != models.IntentEscalatePowerful {
		t.Errorf("intent = %q, want escalate_powerful on systemic outage", intent.Tag)
	}
}

func TestClassifyUsesCache(t *testing.T) {
	backend := &stubBackend{name: "only", raw: `{"intent": "factual"}`}
	c := NewClassifier(convstate.NewMemoryKV(), backend)
	ctx := context.Background()

	if _, err := c.Classify(ctx, "Hello There", Hint{}); err != nil {
		t.Fatalf("first classify failed: %v", err)
	}
	// Same query modulo whitespace and case must hit the cache.
	if _, err := c.Classify(ctx, "  hello there ", Hint{}); err != nil {
		t.Fatalf("second classify failed: %v", err)
	}
	if backend.calls != 1 {
		t.Errorf("backend called %d times, want 1 (cache hit expected)", backend.calls)
	}
}

// fakeGenerator records the prompt the backend builds.
type fakeGenerator struct {
	lastSystem string
	lastModel  string
	out        string
	err        error
}

func (f *fakeGenerator) GenerateWithModel(_ context.Context, model, system, user string) (string, error) {
	f.lastModel = model
	f.lastSystem = system
	return f.out, f.err
}

func TestOpenAIBackendWrapsOutage(t *testing.T) {
	gen := &fakeGenerator{err: errors.New("dial tcp: connection refused")}
	backend := NewOpenAIBackend("cheap", "gpt-4o-mini", gen)

	_, err := backend.Classify(context.Background(), "hello", Hint{})
	if !errors.Is(err, ErrBackendUnavailable) {
		t.Errorf("expected ErrBackendUnavailable, got %v", err)
	}
}

func TestPromptIncludesContextHint(t *testing.T) {
	gen := &fakeGenerator{out: `{"intent": "factual"}`}
	backend := NewOpenAIBackend("cheap", "gpt-4o-mini", gen)

	hint := Hint{
		PersonalFacts: []string{"User lives in Hyderabad"},
		LastTopic: &models.TopicState{
			Topic: "company founders",
			Query: "Who founded Google?",
		},
	}
	if _, err := backend.Classify(context.Background(), "what about Microsoft?", hint); err != nil {
		t.Fatalf("classify failed: %v", err)
	}
	if !strings.Contains(gen.lastSystem, "Who founded Google?") {
		t.Error("prompt missing previous query")
	}
	if !strings.Contains(gen.lastSystem, "User lives in Hyderabad") {
		t.Error("prompt missing personal facts")
	}
	if gen.lastModel != "gpt-4o-mini" {
		t.Errorf("model = %q, want gpt-4o-mini", gen.lastModel)
	}
}
