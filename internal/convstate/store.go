package convstate

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/voxa-labs/voxa/internal/models"
)

// TTLs for the three state facets.
const (
	PendingTaskTTL      = 5 * time.Minute
	ConfirmedContextTTL = 30 * time.Minute
	LastTopicTTL        = time.Hour
)

// Store exposes the conversation state facets over a KV backend.
//
// All operations are best-effort: backend errors are logged and swallowed, so
// getters report absence and setters become no-ops when the backend is down.
type Store struct {
	kv KV
}

// NewStore creates a Store over the given KV backend.
func NewStore(kv KV) *Store {
	return &Store{kv: kv}
}

func pendingTaskKey(conversationID string) string {
	return "pending_task:" + conversationID
}

func confirmedContextKey(conversationID string) string {
	return "confirmed_context:" + conversationID
}

func lastTopicKey(conversationID string) string {
	return "conversation_state:" + conversationID
}

// SavePendingTask stores a task awaiting confirmation, expiring after 5 minutes.
func (s *Store) SavePendingTask(ctx context.Context, conversationID string, task models.PendingTask) {
	s.setJSON(ctx, pendingTaskKey(conversationID), task, PendingTaskTTL, "pending task")
}

// PendingTask returns the task awaiting confirmation, if any.
func (s *Store) PendingTask(ctx context.Context, conversationID string) (models.PendingTask, bool) {
	var task models.PendingTask
	ok := s.getJSON(ctx, pendingTaskKey(conversationID), &task, "pending task")
	return task, ok
}

// ClearPendingTask removes the pending task after it is confirmed or rejected.
func (s *Store) ClearPendingTask(ctx context.Context, conversationID string) {
	s.delete(ctx, pendingTaskKey(conversationID), "pending task")
}

// SaveConfirmedContext replaces the confirmed context wholesale.
func (s *Store) SaveConfirmedContext(ctx context.Context, conversationID string, values map[string]string) {
	s.setJSON(ctx, confirmedContextKey(conversationID), values, ConfirmedContextTTL, "confirmed context")
}

// ConfirmedContext returns the accumulated confirmed parameters.
func (s *Store) ConfirmedContext(ctx context.Context, conversationID string) (map[string]string, bool) {
	var out map[string]string
	ok := s.getJSON(ctx, confirmedContextKey(conversationID), &out, "confirmed context")
	if !ok || out == nil {
		return nil, false
	}
	return out, true
}

// UpdateConfirmedContext merges updates into the existing confirmed context
// rather than replacing it, and refreshes the TTL.
func (s *Store) UpdateConfirmedContext(ctx context.Context, conversationID string, updates map[string]string) {
	existing, _ := s.ConfirmedContext(ctx, conversationID)
	if existing == nil {
		existing = make(map[string]string, len(updates))
	}
	for k, v := range updates {
		existing[k] = v
	}
	s.SaveConfirmedContext(ctx, conversationID, existing)
}

// ContextComplete reports whether every required field is present and non-empty.
func (s *Store) ContextComplete(ctx context.Context, conversationID string, required []string) bool {
	existing, ok := s.ConfirmedContext(ctx, conversationID)
	if !ok {
		return false
	}
	for _, field := range required {
		if existing[field] == "" {
			return false
		}
	}
	return true
}

// ClearConfirmedContext removes the confirmed context.
func (s *Store) ClearConfirmedContext(ctx context.Context, conversationID string) {
	s.delete(ctx, confirmedContextKey(conversationID), "confirmed context")
}

// SaveLastTopic records what this turn was about for follow-up resolution.
// The response preview is truncated to 200 characters.
func (s *Store) SaveLastTopic(ctx context.Context, conversationID string, state models.TopicState) {
	if len(state.ResponsePreview) > models.ResponsePreviewLength {
		state.ResponsePreview = state.ResponsePreview[:models.ResponsePreviewLength]
	}
	if state.Timestamp.IsZero() {
		state.Timestamp = time.Now().UTC()
	}
	s.setJSON(ctx, lastTopicKey(conversationID), state, LastTopicTTL, "last topic")
}

// LastTopic returns the previous turn's topic state, if still live.
func (s *Store) LastTopic(ctx context.Context, conversationID string) (models.TopicState, bool) {
	var state models.TopicState
	ok := s.getJSON(ctx, lastTopicKey(conversationID), &state, "last topic")
	return state, ok
}

// ClearLastTopic removes the topic state.
func (s *Store) ClearLastTopic(ctx context.Context, conversationID string) {
	s.delete(ctx, lastTopicKey(conversationID), "last topic")
}

func (s *Store) setJSON(ctx context.Context, key string, v any, ttl time.Duration, what string) {
	data, err := json.Marshal(v)
	if err != nil {
		slog.Error("Store.setJSON: marshal failed", "what", what, "key", key, "error", err)
		return
	}
	if err := s.kv.Set(ctx, key, string(data), ttl); err != nil {
		slog.Error("Store.setJSON: save failed", "what", what, "key", key, "error", err)
		return
	}
	slog.Debug("Store.setJSON: saved", "what", what, "key", key)
}

func (s *Store) getJSON(ctx context.Context, key string, out any, what string) bool {
	data, ok, err := s.kv.Get(ctx, key)
	if err != nil {
		slog.Error("Store.getJSON: load failed", "what", what, "key", key, "error", err)
		return false
	}
	if !ok {
		return false
	}
	if err := json.Unmarshal([]byte(data), out); err != nil {
		slog.Error("Store.getJSON: unmarshal failed", "what", what, "key", key, "error", err)
		return false
	}
	return true
}

func (s *Store) delete(ctx context.Context, key, what string) {
	if err := s.kv.Delete(ctx, key); err != nil {
		slog.Error("Store.delete: delete failed", "what", what, "key", key, "error", err)
	}
}

// String renders a compact description of the store for logs.
func (s *Store) String() string {
	return fmt.Sprintf("convstate.Store(%T)", s.kv)
}
