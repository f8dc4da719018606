// Package session provides storage backends for conversation sessions.
//
// This file implements the SQLite-backed store.
package session

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "embed"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/voxa-labs/voxa/internal/models"
)

// DefaultDirPermissions defines the default permissions for database directories.
const DefaultDirPermissions = 0755

//go:embed migrations_sqlite.sql
var sqliteMigrations string

type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates a new SQLite store with the given DSN. The DSN is
// a file path to the SQLite database file; its directory is created if
// missing.
func NewSQLiteStore(opts ...Option) (*SQLiteStore, error) {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	slog.Debug("SQLiteStore.NewSQLiteStore: creating store", "DSN_set", cfg.DSN != "")

	dsn := cfg.DSN
	if dsn == "" {
		slog.Error("SQLiteStore DSN not set")
		return nil, fmt.Errorf("database DSN not set")
	}

	dir := filepath.Dir(dsn)
	if err := os.MkdirAll(dir, DefaultDirPermissions); err != nil {
		slog.Error("Failed to create database directory", "error", err, "dir", dir)
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		slog.Error("Failed to open SQLite connection", "error", err)
		return nil, err
	}
	if err := db.Ping(); err != nil {
		slog.Error("SQLite ping failed", "error", err)
		return nil, err
	}

	if _, err := db.Exec(sqliteMigrations); err != nil {
		slog.Error("Failed to run migrations", "error", err)
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	slog.Debug("SQLiteStore.NewSQLiteStore: migrations applied")

	return &SQLiteStore{db: db}, nil
}

// CreateSession implements Store.
func (s *SQLiteStore) CreateSession(title string) (models.Session, error) {
	now := time.Now().UTC()
	sess := models.Session{
		ID:        uuid.NewString(),
		Title:     normalizeTitle(title),
		CreatedAt: now,
		UpdatedAt: now,
	}
	_, err := s.db.Exec(
		`INSERT INTO sessions (id, title, message_count, created_at, updated_at) VALUES (?, ?, 0, ?, ?)`,
		sess.ID, sess.Title, sess.CreatedAt, sess.UpdatedAt,
	)
	if err != nil {
		slog.Error("SQLiteStore.CreateSession failed", "error", err)
		return models.Session{}, fmt.Errorf("failed to insert session: %w", err)
	}
	slog.Debug("SQLiteStore.CreateSession succeeded", "sessionID", sess.ID)
	return sess, nil
}

// EnsureSession implements Store.
func (s *SQLiteStore) EnsureSession(id, title string) (models.Session, error) {
	now := time.Now().UTC()
	_, err := s.db.Exec(
		`INSERT OR IGNORE INTO sessions (id, title, message_count, created_at, updated_at) VALUES (?, ?, 0, ?, ?)`,
		id, normalizeTitle(title), now, now,
	)
	if err != nil {
		slog.Error("SQLiteStore.EnsureSession failed", "error", err, "sessionID", id)
		return models.Session{}, fmt.Errorf("failed to ensure session %s: %w", id, err)
	}
	sess, err := s.Session(id)
	if err != nil {
		return models.Session{}, err
	}
	return *sess, nil
}

// Session implements Store. A missing session yields (nil, nil).
func (s *SQLiteStore) Session(id string) (*models.Session, error) {
	var sess models.Session
	err := s.db.QueryRow(
		`SELECT id, title, message_count, created_at, updated_at FROM sessions WHERE id = ?`, id,
	).Scan(&sess.ID, &sess.Title, &sess.MessageCount, &sess.CreatedAt, &sess.UpdatedAt)
	if err == sql.ErrNoRows {
		slog.Debug("SQLiteStore.Session not found", "sessionID", id)
		return nil, nil
	}
	if err != nil {
		slog.Error("SQLiteStore.Session failed", "error", err, "sessionID", id)
		return nil, fmt.Errorf("failed to query session %s: %w", id, err)
	}
	return &sess, nil
}

// AddMessage implements Store.
func (s *SQLiteStore) AddMessage(msg models.SessionMessage) error {
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
		slog.Error("SQLiteStore.AddMessage metadata marshal failed", "error", err, "sessionID", msg.SessionID)
		return fmt.Errorf("failed to marshal message metadata: %w", err)
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(
		`INSERT INTO messages (id, session_id, role, content, metadata, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		msg.ID, msg.SessionID, msg.Role, msg.Content, string(metadataJSON), msg.CreatedAt,
	)
	if err != nil {
		slog.Error("SQLiteStore.AddMessage insert failed", "error", err, "sessionID", msg.SessionID)
		return fmt.Errorf("failed to insert message: %w", err)
	}
	_, err = tx.Exec(
		`UPDATE sessions SET message_count = message_count + 1, updated_at = ? WHERE id = ?`,
		msg.CreatedAt, msg.SessionID,
	)
	if err != nil {
		slog.Error("SQLiteStore.AddMessage session bump failed", "error", err, "sessionID", msg.SessionID)
		return fmt.Errorf("failed to update session: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit message: %w", err)
	}
	slog.Debug("SQLiteStore.AddMessage succeeded", "sessionID", msg.SessionID, "role", msg.Role)
	return nil
}

// Messages implements Store.
func (s *SQLiteStore) Messages(sessionID string, limit int) ([]models.SessionMessage, error) {
	query := `SELECT id, session_id, role, content, metadata, created_at FROM messages
		WHERE session_id = ? ORDER BY created_at ASC`
	args := []interface{}{sessionID}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		slog.Error("SQLiteStore.Messages query failed", "error", err, "sessionID", sessionID)
		return nil, fmt.Errorf("failed to query messages: %w", err)
	}
	defer rows.Close()

	var messages []models.SessionMessage
	for rows.Next() {
		msg, err := scanMessage(rows)
		if err != nil {
			slog.Error("SQLiteStore.Messages scan failed", "error", err, "sessionID", sessionID)
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
func (s *SQLiteStore) RecentSessions(limit int) ([]models.Session, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.Query(
		`SELECT id, title, message_count, created_at, updated_at FROM sessions
		ORDER BY updated_at DESC LIMIT ?`, limit,
	)
	if err != nil {
		slog.Error("SQLiteStore.RecentSessions query failed", "error", err)
		return nil, fmt.Errorf("failed to query sessions: %w", err)
	}
	defer rows.Close()

	var sessions []models.Session
	for rows.Next() {
		var sess models.Session
		if err := rows.Scan(&sess.ID, &sess.Title, &sess.MessageCount, &sess.CreatedAt, &sess.UpdatedAt); err != nil {
			slog.Error("SQLiteStore.RecentSessions scan failed", "error", err)
			return nil, fmt.Errorf("failed to scan session row: %w", err)
		}
		sessions = append(sessions, sess)
	}
	return sessions, rows.Err()
}

// UpdateTitle implements Store.
func (s *SQLiteStore) UpdateTitle(id, title string) error {
	_, err := s.db.Exec(`UPDATE sessions SET title = ? WHERE id = ?`, normalizeTitle(title), id)
	if err != nil {
		slog.Error("SQLiteStore.UpdateTitle failed", "error", err, "sessionID", id)
		return fmt.Errorf("failed to update title for %s: %w", id, err)
	}
	return nil
}

// AutoTitle implements Store.
func (s *SQLiteStore) AutoTitle(id, content string) error {
	_, err := s.db.Exec(
		`UPDATE sessions SET title = ? WHERE id = ? AND title = ?`,
		DeriveTitle(content), id, DefaultTitle,
	)
	if err != nil {
		slog.Error("SQLiteStore.AutoTitle failed", "error", err, "sessionID", id)
		return fmt.Errorf("failed to auto-title session %s: %w", id, err)
	}
	return nil
}

// DeleteSession implements Store.
func (s *SQLiteStore) DeleteSession(id string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM messages WHERE session_id = ?`, id); err != nil {
		slog.Error("SQLiteStore.DeleteSession messages failed", "error", err, "sessionID", id)
		return fmt.Errorf("failed to delete messages for %s: %w", id, err)
	}
	if _, err := tx.Exec(`DELETE FROM sessions WHERE id = ?`, id); err != nil {
		slog.Error("SQLiteStore.DeleteSession failed", "error", err, "sessionID", id)
		return fmt.Errorf("failed to delete session %s: %w", id, err)
	}
	return tx.Commit()
}

// Close closes the SQLite database connection.
func (s *SQLiteStore) Close() error {
	err := s.db.Close()
	if err != nil {
		slog.Error("Failed to close SQLite database", "error", err)
	}
	return err
}

// scanMessage reads one message row, tolerating unparseable metadata.
func scanMessage(rows *sql.Rows) (models.SessionMessage, error) {
	var msg models.SessionMessage
	var metadataJSON sql.NullString
	err := rows.Scan(&msg.ID, &msg.SessionID, &msg.Role, &msg.Content, &metadataJSON, &msg.CreatedAt)
	if err != nil {
		return msg, fmt.Errorf("scan message failed: %w", err)
	}
	if metadataJSON.Valid && metadataJSON.String != "" {
		if err := json.Unmarshal([]byte(metadataJSON.String), &msg.Metadata); err != nil {
			slog.Warn("scanMessage metadata unmarshal failed", "error", err, "messageID", msg.ID)
			msg.Metadata = models.MessageMetadata{}
		}
	}
	return msg, nil
}
