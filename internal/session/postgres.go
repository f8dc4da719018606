// Package session provides storage backends for conversation sessions.
//
// This file implements the PostgreSQL-backed store.
package session

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	_ "embed"

	"github.com/google/uuid"
	_ "github.com/lib/pq"

	"github.com/voxa-labs/voxa/internal/models"
)

// Database connection pool configuration constants.
const (
	// DefaultMaxOpenConns is the default maximum number of open connections to the database.
	DefaultMaxOpenConns = 25
	// DefaultMaxIdleConns is the default maximum number of idle connections in the pool.
	DefaultMaxIdleConns = 25
	// DefaultConnMaxLifetime is the default maximum amount of time a connection may be reused.
	DefaultConnMaxLifetime = 5 * time.Minute
)

//go:embed migrations_postgres.sql
var postgresMigrations string

type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore creates a new Postgres store based on provided options.
func NewPostgresStore(opts ...Option) (*PostgresStore, error) {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	slog.Debug("PostgresStore.NewPostgresStore: creating store", "DSN_set", cfg.DSN != "")

	dsn := cfg.DSN
	if dsn == "" {
		slog.Error("PostgresStore DSN not set")
		return nil, fmt.Errorf("database DSN not set")
	}

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		slog.Error("Failed to open Postgres connection", "error", err)
		return nil, err
	}

	db.SetMaxOpenConns(DefaultMaxOpenConns)
	db.SetMaxIdleConns(DefaultMaxIdleConns)
	db.SetConnMaxLifetime(DefaultConnMaxLifetime)

	if err := db.Ping(); err != nil {
		slog.Error("Postgres ping failed", "error", err)
		return nil, err
	}

	if _, err := db.Exec(postgresMigrations); err != nil {
		slog.Error("Failed to run migrations", "error", err)
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	slog.Debug("PostgresStore.NewPostgresStore: migrations applied")

	return &PostgresStore{db: db}, nil
}

// CreateSession implements Store.
func (s *PostgresStore) CreateSession(title string) (models.Session, error) {
	now := time.Now().UTC()
	sess := models.Session{
		ID:        uuid.NewString(),
		Title:     normalizeTitle(title),
		CreatedAt: now,
		UpdatedAt: now,
	}
	_, err := s.db.Exec(
		`INSERT INTO sessions (id, title, message_count, created_at, updated_at) VALUES ($1, $2, 0, $3, $4)`,
		sess.ID, sess.Title, sess.CreatedAt, sess.UpdatedAt,
	)
	if err != nil {
		slog.Error("PostgresStore.CreateSession failed", "error", err)
		return models.Session{}, fmt.Errorf("failed to insert session: %w", err)
	}
	slog.Debug("PostgresStore.CreateSession succeeded", "sessionID", sess.ID)
	return sess, nil
}

// EnsureSession implements Store.
func (s *PostgresStore) EnsureSession(id, title string) (models.Session, error) {
	now := time.Now().UTC()
	_, err := s.db.Exec(
		`INSERT INTO sessions (id, title, message_count, created_at, updated_at) VALUES ($1, $2, 0, $3, $4)
		ON CONFLICT (id) DO NOTHING`,
		id, normalizeTitle(title), now, now,
	)
	if err != nil {
		slog.Error("PostgresStore.EnsureSession failed", "error", err, "sessionID", id)
		return models.Session{}, fmt.Errorf("failed to ensure session %s: %w", id, err)
	}
	sess, err := s.Session(id)
	if err != nil {
		return models.Session{}, err
	}
	return *sess, nil
}

// Session implements Store. A missing session yields (nil, nil).
func (s *PostgresStore) Session(id string) (*models.Session, error) {
	var sess models.Session
	err := s.db.QueryRow(
		`SELECT id, title, message_count, created_at, updated_at FROM sessions WHERE id = $1`, id,
	).Scan(&sess.ID, &sess.Title, &sess.MessageCount, &sess.CreatedAt, &sess.UpdatedAt)
	if err == sql.ErrNoRows {
		slog.Debug("PostgresStore.Session not found", "sessionID", id)
		return nil, nil
	}
	if err != nil {
		slog.Error("PostgresStore.Session failed", "error", err, "sessionID", id)
		return nil, fmt.Errorf("failed to query session %s: %w", id, err)
	}
	return &sess, nil
}

// AddMessage implements Store.
func (s *PostgresStore) AddMessage(msg models.SessionMessage) error {
	if err := validateMessage(&msg); err != nil {
		return err
	}
	if msg.ID == "" {
		msg.ID = uuid.NewString()
	}
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now().UTC()
	}

	metadataJSON, err := json.Marshal(msg.Metadata)
	if err != nil {
		slog.Error("PostgresStore.AddMessage metadata marshal failed", "error", err, "sessionID", msg.SessionID)
		return fmt.Errorf("failed to marshal message metadata: %w", err)
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(
		`INSERT INTO messages (id, session_id, role, content, metadata, created_at) VALUES ($1, $2, $3, $4, $5, $6)`,
		msg.ID, msg.SessionID, msg.Role, msg.Content, string(metadataJSON), msg.CreatedAt,
	)
	if err != nil {
		slog.Error("PostgresStore.AddMessage insert failed", "error", err, "sessionID", msg.SessionID)
		return fmt.Errorf("failed to insert message: %w", err)
	}
	_, err = tx.Exec(
		`UPDATE sessions SET message_count = message_count + 1, updated_at = $1 WHERE id = $2`,
		msg.CreatedAt, msg.SessionID,
	)
	if err != nil {
		slog.Error("PostgresStore.AddMessage session bump failed", "error", err, "sessionID", msg.SessionID)
		return fmt.Errorf("failed to update session: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit message: %w", err)
	}
	slog.Debug("PostgresStore.AddMessage succeeded", "sessionID", msg.SessionID, "role", msg.Role)
	return nil
}

// Messages implements Store.
func (s *PostgresStore) Messages(sessionID string, limit int) ([]models.SessionMessage, error) {
	query := `SELECT id, session_id, role, content, metadata, created_at FROM messages
		WHERE session_id = $1 ORDER BY created_at ASC`
	args := []interface{}{sessionID}
	if limit > 0 {
		query += ` LIMIT $2`
		args = append(args, limit)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		slog.Error("PostgresStore.Messages query failed", "error", err, "sessionID", sessionID)
		return nil, fmt.Errorf("failed to query messages: %w", err)
	}
	defer rows.Close()

	var messages []models.SessionMessage
	for rows.Next() {
		msg, err := scanMessage(rows)
		if err != nil {
			slog.Error("PostgresStore.Messages scan failed", "error", err, "sessionID", sessionID)
			return nil, err
		}
		messages = append(messages, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate message rows: %w", err)
	}
	return messages, nil
}

// RecentSessions implements Store.
func (s *PostgresStore) RecentSessions(limit int) ([]models.Session, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.Query(
		`SELECT id, title, message_count, created_at, updated_at FROM sessions
		ORDER BY updated_at DESC LIMIT $1`, limit,
	)
	if err != nil {
		slog.Error("PostgresStore.RecentSessions query failed", "error", err)
		return nil, fmt.Errorf("failed to query sessions: %w", err)
	}
	defer rows.Close()

	var sessions []models.Session
	for rows.Next() {
		var sess models.Session
		if err := rows.Scan(&sess.ID, &sess.Title, &sess.MessageCount, &sess.CreatedAt, &sess.UpdatedAt); err != nil {
			slog.Error("PostgresStore.RecentSessions scan failed", "error", err)
			return nil, fmt.Errorf("failed to scan session row: %w", err)
		}
		sessions = append(sessions, sess)
	}
	return sessions, rows.Err()
}

// UpdateTitle implements Store.
func (s *PostgresStore) UpdateTitle(id, title string) error {
	_, err := s.db.Exec(`UPDATE sessions SET title = $1 WHERE id = $2`, normalizeTitle(title), id)
	if err != nil {
		slog.Error("PostgresStore.UpdateTitle failed", "error", err, "sessionID", id)
		return fmt.Errorf("failed to update title for %s: %w", id, err)
	}
	return nil
}

// AutoTitle implements Store.
func (s *PostgresStore) AutoTitle(id, content string) error {
	_, err := s.db.Exec(
		`UPDATE sessions SET title = $1 WHERE id = $2 AND title = $3`,
		DeriveTitle(content), id, DefaultTitle,
	)
	if err != nil {
		slog.Error("PostgresStore.AutoTitle failed", "error", err, "sessionID", id)
		return fmt.Errorf("failed to auto-title session %s: %w", id, err)
	}
	return nil
}

// DeleteSession implements Store.
func (s *PostgresStore) DeleteSession(id string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM messages WHERE session_id = $1`, id); err != nil {
		slog.Error("PostgresStore.DeleteSession messages failed", "error", err, "sessionID", id)
		return fmt.Errorf("failed to delete messages for %s: %w", id, err)
	}
	if _, err := tx.Exec(`DELETE FROM sessions WHERE id = $1`, id); err != nil {
		slog.Error("PostgresStore.DeleteSession failed", "error", err, "sessionID", id)
		return fmt.Errorf("failed to delete session %s: %w", id, err)
	}
	return tx.Commit()
}

// Close closes the Postgres database connection.
func (s *PostgresStore) Close() error {
	err := s.db.Close()
	if err != nil {
		slog.Error("Failed to close Postgres database", "error", err)
	}
	return err
}
