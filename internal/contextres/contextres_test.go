package contextres

import (
	"testing"

	"github.com/voxa-labs/voxa/internal/models"
)

func TestIsFollowup(t *testing.T) {
	r := NewResolver()

	clar := &models.Clarification{Type: models.ClarificationLocation, OriginalQuery: "restaurants"}
	if !r.IsFollowup("hyderabad", Context{PendingClarification: clar}) {
		t.Error("pending clarification should force follow-up")
	}
	if !r.IsFollowup("mumbai", Context{LastQuery: "weather"}) {
		t.Error("short query with prior query should be a follow-up")
	}
	if !r.IsFollowup("what about Delhi?", Context{}) {
		t.Error("'what about' prefix should be a follow-up")
	}
	if r.IsFollowup("tell me the history of the Roman Empire", Context{}) {
		t.Error("fresh long query should not be a follow-up")
	}
}

func TestExtractEntities(t *testing.T) {
	r := NewResolver()

	entities := r.ExtractEntities("restaurants in hyd tomorrow", Context{})
	if entities["location"] != "Hyderabad" {
		t.Errorf("location = %q, want 'Hyderabad'", entities["location"])
	}
	if entities["category"] != "restaurant" {
		t.Errorf("category = %q, want 'restaurant'", entities["category"])
	}
	if entities["time"] != "tomorrow" {
		t.Errorf("time = %q, want 'tomorrow'", entities["time"])
	}
}

func TestExtractEntitiesFallsBackToContextLocation(t *testing.T) {
	r := NewResolver()
	ctx := Context{Entities: map[string]string{"location": "Mumbai"}}

	entities := r.ExtractEntities("any good cafes", ctx)
	if entities["location"] != "Mumbai" {
		t.Errorf("location = %q, want context fallback 'Mumbai'", entities["location"])
	}
}

func TestMergeLocationClarification(t *testing.T) {
	r := NewResolver()
	ctx := Context{
		PendingClarification: &models.Clarification{
			Type:          models.ClarificationLocation,
			OriginalQuery: "restaurants near me",
			Question:      "Sure! To find that near you, could you please tell me your location?",
		},
	}

	if got := r.MergeWithContext("hyderabad", ctx); got != "restaurants near me in Hyderabad" {
		t.Errorf("merged = %q, want 'restaurants near me in Hyderabad'", got)
	}
	if got := r.MergeWithContext("hyd", ctx); got != "restaurants near me in Hyderabad" {
		t.Errorf("abbrev merged = %q, want 'restaurants near me in Hyderabad'", got)
	}
}

func TestMergeDetailsClarification(t *testing.T) {
	r := NewResolver()
	ctx := Context{
		PendingClarification: &models.Clarification{
			Type:          models.ClarificationDetails,
			OriginalQuery: "find",
		},
	}

	if got := r.MergeWithContext("a plumber nearby", ctx); got != "find a plumber nearby" {
		t.Errorf("merged = %q, want 'find a plumber nearby'", got)
	}
}

func TestMergeWhatAboutSwapsLocation(t *testing.T) {
	r := NewResolver()
	ctx := Context{
		LastQuery: "weather in mumbai",
		Entities:  map[string]string{"location": "Mumbai"},
	}

	if got := r.MergeWithContext("what about delhi?", ctx); got != "weather in delhi" {
		t.Errorf("merged = %q, want 'weather in delhi'", got)
	}
}

func TestMergeWhatAboutWithoutKnownLocation(t *testing.T) {
	r := NewResolver()
	ctx := Context{LastQuery: "weather forecast", Entities: map[string]string{}}

	if got := r.MergeWithContext("what about delhi?", ctx); got != "weather delhi" {
		t.Errorf("merged = %q, want 'weather delhi'", got)
	}
}

func TestNeedsClarification(t *testing.T) {
	r := NewResolver()

	clar := r.NeedsClarification("restaurants near me", models.IntentLocalSearch, map[string]string{})
	if clar == nil || clar.Type != models.ClarificationLocation {
		t.Fatalf("expected location clarification, got %+v", clar)
	}
	if clar.OriginalQuery != "restaurants near me" {
		t.Errorf("original query = %q", clar.OriginalQuery)
	}

	clar = r.NeedsClarification("what's the weather like", models.IntentLiveSearch, map[string]string{})
	if clar == nil || clar.Type != models.ClarificationLocation {
		t.Fatalf("expected weather location clarification, got %+v", clar)
	}

	clar = r.NeedsClarification("find", models.IntentInformationalSearch, map[string]string{})
	if clar == nil || clar.Type != models.ClarificationDetails {
		t.Fatalf("expected details clarification, got %+v", clar)
	}

	if clar = r.NeedsClarification("restaurants in Mumbai", models.IntentLocalSearch,
		map[string]string{"location": "Mumbai"}); clar != nil {
		t.Errorf("expected no clarification with location present, got %+v", clar)
	}
	if clar = r.NeedsClarification("hi", models.IntentFactual, map[string]string{}); clar != nil {
		t.Errorf("factual one-worder should not clarify, got %+v", clar)
	}
}

func TestContextUpdateAndClear(t *testing.T) {
	r := NewResolver()

	r.Update("c1", func(c *Context) {
		c.LastQuery = "weather in mumbai"
		c.Entities["location"] = "Mumbai"
	})
	ctx := r.Context("c1")
	if ctx.LastQuery != "weather in mumbai" || ctx.Entities["location"] != "Mumbai" {
		t.Errorf("context not persisted: %+v", ctx)
	}
	if ctx.UpdatedAt.IsZero() {
		t.Error("expected UpdatedAt to be stamped")
	}

	r.Clear("c1")
	if got := r.Context("c1"); got.LastQuery != "" {
		t.Errorf("expected cleared context, got %+v", got)
	}
}
