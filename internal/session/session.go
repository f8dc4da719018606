// Package session provides storage backends for conversation sessions and
// their message history.
//
// It includes SQLite and PostgreSQL stores plus an in-memory store for tests.
package session

import (
	"fmt"
	"strings"

	"github.com/voxa-labs/voxa/internal/models"
)

// DefaultTitle is the placeholder title until the first exchange names the
// session.
const DefaultTitle = "New Chat"

// Store persists sessions and their messages.
type Store interface {
	// CreateSession creates a new session with the given title. An empty
	// title defaults to DefaultTitle.
	CreateSession(title string) (models.Session, error)
	// EnsureSession creates the session under a caller-chosen ID if it does
	// not already exist, and returns it either way. Conversation IDs arrive
	// from clients, so the first message of a conversation creates its row.
	EnsureSession(id, title string) (models.Session, error)
	// Session returns the session by ID, or nil when it does not exist.
	Session(id string) (*models.Session, error)
	// AddMessage appends a message to its session and bumps the session's
	// message count and updated time.
	AddMessage(msg models.SessionMessage) error
	// Messages returns the session's messages oldest first, at most limit
	// (0 means all).
	Messages(sessionID string, limit int) ([]models.SessionMessage, error)
	// RecentSessions returns sessions ordered by last activity, newest first.
	RecentSessions(limit int) ([]models.Session, error)
	// UpdateTitle replaces the session title.
	UpdateTitle(id, title string) error
	// AutoTitle derives a title from the first user message, but only while
	// the session still carries the placeholder title.
	AutoTitle(id, content string) error
	// DeleteSession removes the session and its messages.
	DeleteSession(id string) error
	// Close releases the underlying storage.
	Close() error
}

// Opts holds configuration options for store implementations.
type Opts struct {
	DSN string
}

// Option defines a configuration option for a session store.
type Option func(*Opts)

// WithDSN sets the database connection string.
func WithDSN(dsn string) Option {
	return func(o *Opts) {
		o.DSN = dsn
	}
}

// NewStore picks a backend from the DSN: postgres URLs and key=value
// connection strings get Postgres, anything else is treated as an SQLite
// file path, and an empty DSN yields the in-memory store.
func NewStore(opts ...Option) (Store, error) {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	switch {
	case cfg.DSN == "":
		return NewMemoryStore(), nil
	case strings.HasPrefix(cfg.DSN, "postgres://"),
		strings.HasPrefix(cfg.DSN, "postgresql://"),
		strings.Contains(cfg.DSN, "host="):
		return NewPostgresStore(opts...)
	default:
		return NewSQLiteStore(opts...)
	}
}

// DeriveTitle turns the first user message into a session title, truncated
// with an ellipsis when it runs long.
func DeriveTitle(content string) string {
	title := strings.TrimSpace(content)
	if title == "" {
		return DefaultTitle
	}
	if len(title) > models.AutoTitleLength {
		title = title[:models.AutoTitleLength] + "..."
	}
	return title
}

func normalizeTitle(title string) string {
	if strings.TrimSpace(title) == "" {
		return DefaultTitle
	}
	return title
}

func validateMessage(msg *models.SessionMessage) error {
	if err := msg.Validate(); err != nil {
		return fmt.Errorf("invalid message: %w", err)
	}
	return nil
}
