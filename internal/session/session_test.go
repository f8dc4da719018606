package session

import (
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/voxa-labs/voxa/internal/models"
)

// exerciseStore runs the shared Store contract against one backend.
func exerciseStore(t *testing.T, s Store) {
	t.Helper()

	sess, err := s.CreateSession("")
	if err != nil {
		t.Fatalf("CreateSession failed: %v", err)
	}
	if sess.ID == "" {
		t.Fatal("expected generated session ID")
	}
	if sess.Title != DefaultTitle {
		t.Errorf("title = %q, want %q", sess.Title, DefaultTitle)
	}

	got, err := s.Session(sess.ID)
	if err != nil {
		t.Fatalf("Session failed: %v", err)
	}
	if got == nil || got.ID != sess.ID {
		t.Fatalf("Session = %+v, want %s", got, sess.ID)
	}

	missing, err := s.Session("nope")
	if err != nil {
		t.Fatalf("Session(missing) errored: %v", err)
	}
	if missing != nil {
		t.Errorf("expected nil for missing session, got %+v", missing)
	}

	userMsg := models.SessionMessage{
		SessionID: sess.ID,
		Role:      models.RoleUser,
		Content:   "What is the capital of France?",
		CreatedAt: time.Now().UTC(),
	}
	if err := s.AddMessage(userMsg); err != nil {
		t.Fatalf("AddMessage(user) failed: %v", err)
	}
	assistantMsg := models.SessionMessage{
		SessionID: sess.ID,
		Role:      models.RoleAssistant,
		Content:   "Paris.",
		Metadata: models.MessageMetadata{
			Intent:     models.IntentFactual,
			Confidence: 0.9,
			Parameters: map[string]string{"query": "capital of France"},
		},
		CreatedAt: time.Now().UTC().Add(time.Millisecond),
	}
	if err := s.AddMessage(assistantMsg); err != nil {
		t.Fatalf("AddMessage(assistant) failed: %v", err)
	}

	got, err = s.Session(sess.ID)
	if err != nil {
		t.Fatalf("Session after messages failed: %v", err)
	}
	if got.MessageCount != 2 {
		t.Errorf("message count = %d, want 2", got.MessageCount)
	}

	msgs, err := s.Messages(sess.ID, 0)
	if err != nil {
		t.Fatalf("Messages failed: %v", err)
	}
	if len(msgs) != 2 {
		t.Fatalf("messages = %d, want 2", len(msgs))
	}
	if msgs[0].Role != models.RoleUser || msgs[1].Role != models.RoleAssistant {
		t.Errorf("messages out of order: %s then %s", msgs[0].Role, msgs[1].Role)
	}
	if msgs[1].Metadata.Intent != models.IntentFactual {
		t.Errorf("metadata intent = %q, want factual", msgs[1].Metadata.Intent)
	}
	if msgs[1].Metadata.Parameters["query"] != "capital of France" {
		t.Errorf("metadata parameters lost: %v", msgs[1].Metadata.Parameters)
	}

	if err := s.UpdateTitle(sess.ID, "France questions"); err != nil {
		t.Fatalf("UpdateTitle failed: %v", err)
	}
	got, _ = s.Session(sess.ID)
	if got.Title != "France questions" {
		t.Errorf("title = %q after update", got.Title)
	}

	if err := s.AddMessage(models.SessionMessage{SessionID: sess.ID, Role: "narrator"}); err == nil {
		t.Error("expected invalid role to be rejected")
	}

	ensured, err := s.EnsureSession("conv-fixed-id", "")
	if err != nil {
		t.Fatalf("EnsureSession failed: %v", err)
	}
	if ensured.ID != "conv-fixed-id" || ensured.Title != DefaultTitle {
		t.Errorf("ensured session = %+v", ensured)
	}
	again, err := s.EnsureSession("conv-fixed-id", "ignored")
	if err != nil {
		t.Fatalf("EnsureSession (existing) failed: %v", err)
	}
	if again.Title != DefaultTitle {
		t.Errorf("EnsureSession should not retitle an existing session, got %q", again.Title)
	}

	if err := s.AutoTitle(ensured.ID, "plan my trip to Goa"); err != nil {
		t.Fatalf("AutoTitle failed: %v", err)
	}
	titled, _ := s.Session(ensured.ID)
	if titled.Title != "plan my trip to Goa" {
		t.Errorf("auto title = %q", titled.Title)
	}
	if err := s.AutoTitle(ensured.ID, "something else"); err != nil {
		t.Fatalf("AutoTitle (second) failed: %v", err)
	}
	titled, _ = s.Session(ensured.ID)
	if titled.Title != "plan my trip to Goa" {
		t.Errorf("auto title should only apply once, got %q", titled.Title)
	}

	if err := s.DeleteSession(sess.ID); err != nil {
		t.Fatalf("DeleteSession failed: %v", err)
	}
	got, err = s.Session(sess.ID)
	if err != nil || got != nil {
		t.Errorf("session should be gone, got %+v err %v", got, err)
	}
	msgs, err = s.Messages(sess.ID, 0)
	if err != nil || len(msgs) != 0 {
		t.Errorf("messages should be gone, got %d err %v", len(msgs), err)
	}
}

func TestMemoryStore(t *testing.T) {
	exerciseStore(t, NewMemoryStore())
}

func TestSQLiteStore(t *testing.T) {
	dsn := filepath.Join(t.TempDir(), "sessions.db")
	s, err := NewSQLiteStore(WithDSN(dsn))
	if err != nil {
		t.Fatalf("NewSQLiteStore failed: %v", err)
	}
	defer s.Close()

	exerciseStore(t, s)
}

func TestRecentSessionsOrder(t *testing.T) {
	s := NewMemoryStore()
	first, _ := s.CreateSession("first")
	second, _ := s.CreateSession("second")

	// Touch the first session last so it becomes the most recent.
	if err := s.AddMessage(models.SessionMessage{
		SessionID: first.ID,
		Role:      models.RoleUser,
		Content:   "hello again",
		CreatedAt: time.Now().UTC().Add(time.Second),
	}); err != nil {
		t.Fatalf("AddMessage failed: %v", err)
	}

	recent, err := s.RecentSessions(10)
	if err != nil {
		t.Fatalf("RecentSessions failed: %v", err)
	}
	if len(recent) != 2 {
		t.Fatalf("recent = %d, want 2", len(recent))
	}
	if recent[0].ID != first.ID || recent[1].ID != second.ID {
		t.Errorf("recent order = %s, %s; want most recently touched first", recent[0].Title, recent[1].Title)
	}
}

func TestNewStorePicksBackend(t *testing.T) {
	s, err := NewStore()
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}
	if _, ok := s.(*MemoryStore); !ok {
		t.Errorf("empty DSN should yield in-memory store, got %T", s)
	}

	dsn := filepath.Join(t.TempDir(), "pick.db")
	s, err = NewStore(WithDSN(dsn))
	if err != nil {
		t.Fatalf("NewStore(sqlite) failed: %v", err)
	}
	defer s.Close()
	if _, ok := s.(*SQLiteStore); !ok {
		t.Errorf("file DSN should yield SQLite store, got %T", s)
	}
}

func TestDeriveTitle(t *testing.T) {
	if got := DeriveTitle("  short question  "); got != "short question" {
		t.Errorf("DeriveTitle = %q", got)
	}
	long := strings.Repeat("a", models.AutoTitleLength+10)
	got := DeriveTitle(long)
	if len(got) != models.AutoTitleLength+3 || !strings.HasSuffix(got, "...") {
		t.Errorf("long title not truncated: %q", got)
	}
	if got := DeriveTitle("   "); got != DefaultTitle {
		t.Errorf("blank content should fall back to %q, got %q", DefaultTitle, got)
	}
}
