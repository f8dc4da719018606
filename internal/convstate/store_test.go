package convstate

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/voxa-labs/voxa/internal/models"
)

// failingKV simulates a backend outage.
type failingKV struct{}

func (failingKV) Get(context.Context, string) (string, bool, error) {
	return "", false, errors.New("connection refused")
}
func (failingKV) Set(context.Context, string, string, time.Duration) error {
	return errors.New("connection refused")
}
func (failingKV) Delete(context.Context, string) error {
	return errors.New("connection refused")
}

func TestPendingTaskRoundTrip(t *testing.T) {
	store := NewStore(NewMemoryKV())
	ctx := context.Background()

	task := models.PendingTask{
		Description: "Call mom",
		ScheduledAt: time.Date(2026, 8, 25, 17, 0, 0, 0, time.UTC),
		TimeDisplay: "5:00 PM",
		Confidence:  1.0,
	}
	store.SavePendingTask(ctx, "c1", task)

	got, ok := store.PendingTask(ctx, "c1")
	if !ok {
		t.Fatal("expected pending task to be present")
	}
	if got.Description != task.Description || !got.ScheduledAt.Equal(task.ScheduledAt) {
		t.Errorf("round trip mismatch: got %+v", got)
	}

	store.ClearPendingTask(ctx, "c1")
	if _, ok := store.PendingTask(ctx, "c1"); ok {
		t.Error("expected pending task to be cleared")
	}
}

func TestPendingTaskIsolatedPerConversation(t *testing.T) {
	store := NewStore(NewMemoryKV())
	ctx := context.Background()

	store.SavePendingTask(ctx, "c1", models.PendingTask{Description: "A", ScheduledAt: time.Now()})
	if _, ok := store.PendingTask(ctx, "c2"); ok {
		t.Error("pending task leaked across conversations")
	}
}

func TestUpdateConfirmedContextMerges(t *testing.T) {
	store := NewStore(NewMemoryKV())
	ctx := context.Background()

	store.SaveConfirmedContext(ctx, "c1", map[string]string{"origin": "Mumbai"})
	store.UpdateConfirmedContext(ctx, "c1", map[string]string{"destination": "Delhi"})

	got, ok := store.ConfirmedContext(ctx, "c1")
	if !ok {
		t.Fatal("expected confirmed context")
	}
	if got["origin"] != "Mumbai" || got["destination"] != "Delhi" {
		t.Errorf("merge lost fields: %v", got)
	}

	if !store.ContextComplete(ctx, "c1", []string{"origin", "destination"}) {
		t.Error("expected context to be complete")
	}
	if store.ContextComplete(ctx, "c1", []string{"origin", "transport_mode"}) {
		t.Error("expected context to be incomplete")
	}
}

func TestLastTopicTruncatesPreview(t *testing.T) {
	store := NewStore(NewMemoryKV())
	ctx := context.Background()

	store.SaveLastTopic(ctx, "c1", models.TopicState{
		Topic:           "weather",
		Query:           "weather in Mumbai",
		ResponsePreview: strings.Repeat("x", 500),
	})

	got, ok := store.LastTopic(ctx, "c1")
	if !ok {
		t.Fatal("expected last topic")
	}
	if len(got.ResponsePreview) != models.ResponsePreviewLength {
		t.Errorf("preview length = %d, want %d", len(got.ResponsePreview), models.ResponsePreviewLength)
	}
	if got.Timestamp.IsZero() {
		t.Error("expected timestamp to be stamped on save")
	}
}

func TestTTLExpiry(t *testing.T) {
	kv := NewMemoryKV()
	store := NewStore(kv)
	ctx := context.Background()

	now := time.Date(2026, 8, 25, 10, 0, 0, 0, time.UTC)
	kv.SetClock(func() time.Time { return now })

	store.SaveLastTopic(ctx, "c1", models.TopicState{Topic: "weather", Query: "weather in Mumbai"})
	store.SavePendingTask(ctx, "c1", models.PendingTask{Description: "Call mom", ScheduledAt: now})

	// Pending tasks expire after 5 minutes, topics after an hour.
	now = now.Add(6 * time.Minute)
	if _, ok := store.PendingTask(ctx, "c1"); ok {
		t.Error("expected pending task to expire after its TTL")
	}
	if _, ok := store.LastTopic(ctx, "c1"); !ok {
		t.Error("expected last topic to still be live")
	}

	now = now.Add(time.Hour)
	if _, ok := store.LastTopic(ctx, "c1"); ok {
		t.Error("expected last topic to expire after its TTL")
	}
}

func TestBackendOutageIsSwallowed(t *testing.T) {
	store := NewStore(failingKV{})
	ctx := context.Background()

	// Setters must not panic; getters report absence.
	store.SavePendingTask(ctx, "c1", models.PendingTask{Description: "A", ScheduledAt: time.Now()})
	store.SaveLastTopic(ctx, "c1", models.TopicState{Topic: "t", Query: "q"})
	store.UpdateConfirmedContext(ctx, "c1", map[string]string{"k": "v"})
	store.ClearPendingTask(ctx, "c1")

	if _, ok := store.PendingTask(ctx, "c1"); ok {
		t.Error("expected absent pending task on outage")
	}
	if _, ok := store.ConfirmedContext(ctx, "c1"); ok {
		t.Error("expected absent confirmed context on outage")
	}
	if store.ContextComplete(ctx, "c1", []string{"k"}) {
		t.Error("expected incomplete context on outage")
	}
}
