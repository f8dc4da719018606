// Package session provides storage backends for conversation sessions.
//
// This file implements a simple in-memory store used in tests and when no
// DSN is configured.
package session

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/voxa-labs/voxa/internal/models"
)

// MemoryStore keeps sessions and messages in process memory.
type MemoryStore struct {
	mu       sync.Mutex
	sessions map[string]*models.Session
	messages map[string][]models.SessionMessage
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		sessions: make(map[string]*models.Session),
		messages: make(map[string][]models.SessionMessage),
	}
}

// CreateSession implements Store.
func (s *MemoryStore) CreateSession(title string) (models.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	sess := models.Session{
		ID:        uuid.NewString(),
		Title:     normalizeTitle(title),
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.sessions[sess.ID] = &sess
	return sess, nil
}

// EnsureSession implements Store.
func (s *MemoryStore) EnsureSession(id, title string) (models.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if sess, ok := s.sessions[id]; ok {
		return *sess, nil
	}
	now := time.Now().UTC()
	sess := models.Session{
		ID:        id,
		Title:     normalizeTitle(title),
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.sessions[id] = &sess
	return sess, nil
}

// Session implements Store.
func (s *MemoryStore) Session(id string) (*models.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[id]
	if !ok {
		return nil, nil
	}
	copied := *sess
	return &copied, nil
}

// AddMessage implements Store.
func (s *MemoryStore) AddMessage(msg models.SessionMessage) error {
	if err := validateMessage(&msg); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if msg.ID == "" {
		msg.ID = uuid.NewString()
	}
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now().UTC()
	}
	s.messages[msg.SessionID] = append(s.messages[msg.SessionID], msg)
	if sess, ok := s.sessions[msg.SessionID]; ok {
		sess.MessageCount++
		sess.UpdatedAt = msg.CreatedAt
	}
	return nil
}

// Messages implements Store.
func (s *MemoryStore) Messages(sessionID string, limit int) ([]models.SessionMessage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	msgs := s.messages[sessionID]
	if limit > 0 && len(msgs) > limit {
		msgs = msgs[:limit]
	}
	out := make([]models.SessionMessage, len(msgs))
	copy(out, msgs)
	return out, nil
}

// RecentSessions implements Store.
func (s *MemoryStore) RecentSessions(limit int) ([]models.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if limit <= 0 {
		limit = 20
	}
	sessions := make([]models.Session, 0, len(s.sessions))
	for _, sess := range s.sessions {
		sessions = append(sessions, *sess)
	}
	sort.Slice(sessions, func(i, j int) bool {
		return sessions[i].UpdatedAt.After(sessions[j].UpdatedAt)
	})
	if len(sessions) > limit {
		sessions = sessions[:limit]
	}
	return sessions, nil
}

// UpdateTitle implements Store.
func (s *MemoryStore) UpdateTitle(id, title string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if sess, ok := s.sessions[id]; ok {
		sess.Title = normalizeTitle(title)
	}
	return nil
}

// AutoTitle implements Store.
func (s *MemoryStore) AutoTitle(id, content string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if sess, ok := s.sessions[id]; ok && sess.Title == DefaultTitle {
		sess.Title = DeriveTitle(content)
	}
	return nil
}

// DeleteSession implements Store.
func (s *MemoryStore) DeleteSession(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.sessions, id)
	delete(s.messages, id)
	return nil
}

// Close implements Store.
func (s *MemoryStore) Close() error {
	return nil
}
