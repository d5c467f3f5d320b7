// Package history persists chat sessions and messages in Postgres and
// aggregates usage analytics over them.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/bookmydarshan/ragserver/pkg/models"
)

// Store persists chat history. It shares the database handle used by the
// document store; migrations create its tables.
type Store struct {
	db *sql.DB
}

// NewStore creates a history store on db.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// CreateSession creates a session with the given title and returns it.
func (s *Store) CreateSession(ctx context.Context, title string) (*models.Session, error) {
	session := &models.Session{
		ID:        uuid.New().String(),
		Title:     title,
		CreatedAt: time.Now().UTC(),
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO chat_sessions (id, title, created_at) VALUES ($1, $2, $3)`,
		session.ID, session.Title, session.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	return session, nil
}

// EnsureSession returns a usable session ID. When id is empty or names a
// session that no longer exists, a fresh session is created with a
// timestamped title.
func (s *Store) EnsureSession(ctx context.Context, id string) (string, error) {
	if id != "" {
		var exists bool
		err := s.db.QueryRowContext(ctx,
			`SELECT EXISTS (SELECT 1 FROM chat_sessions WHERE id = $1)`, id).Scan(&exists)
		if err != nil {
			return "", fmt.Errorf("check session: %w", err)
		}
		if exists {
			return id, nil
		}
	}

	title := fmt.Sprintf("Chat - %s", time.Now().UTC().Format(time.RFC3339))
	session, err := s.CreateSession(ctx, title)
	if err != nil {
		return "", err
	}
	return session.ID, nil
}

// SaveMessage records one message in a session.
func (s *Store) SaveMessage(ctx context.Context, sessionID, role, content string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO chat_messages (session_id, role, content) VALUES ($1, $2, $3)`,
		sessionID, role, content)
	if err != nil {
		return fmt.Errorf("save message: %w", err)
	}
	return nil
}

// ListSessions lists non-archived sessions, newest first.
func (s *Store) ListSessions(ctx context.Context) ([]*models.Session, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, title, archived, created_at FROM chat_sessions WHERE archived = false ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	var sessions []*models.Session
	for rows.Next() {
		session := &models.Session{}
		if err := rows.Scan(&session.ID, &session.Title, &session.Archived, &session.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		sessions = append(sessions, session)
	}
	return sessions, rows.Err()
}

// ListMessages lists a session's messages, oldest first.
func (s *Store) ListMessages(ctx context.Context, sessionID string) ([]*models.StoredMessage, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, session_id, role, content, created_at FROM chat_messages WHERE session_id = $1 ORDER BY created_at ASC`,
		sessionID)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	defer rows.Close()

	var messages []*models.StoredMessage
	for rows.Next() {
		msg := &models.StoredMessage{}
		if err := rows.Scan(&msg.ID, &msg.SessionID, &msg.Role, &msg.Content, &msg.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		messages = append(messages, msg)
	}
	return messages, rows.Err()
}

// DeleteSession removes a session and its messages.
func (s *Store) DeleteSession(ctx context.Context, sessionID string) error {
	// Messages cascade via the foreign key.
	if _, err := s.db.ExecContext(ctx, `DELETE FROM chat_sessions WHERE id = $1`, sessionID); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// RenameSession updates a session's title.
func (s *Store) RenameSession(ctx context.Context, sessionID, title string) error {
	if _, err := s.db.ExecContext(ctx, `UPDATE chat_sessions SET title = $1 WHERE id = $2`, title, sessionID); err != nil {
		return fmt.Errorf("rename session: %w", err)
	}
	return nil
}

// ArchiveSession hides a session from listings without deleting it.
func (s *Store) ArchiveSession(ctx context.Context, sessionID string) error {
	if _, err := s.db.ExecContext(ctx, `UPDATE chat_sessions SET archived = true WHERE id = $1`, sessionID); err != nil {
		return fmt.Errorf("archive session: %w", err)
	}
	return nil
}

// Analytics aggregates chat volume: sessions per day over the last 7 days,
// messages per hour over the last 24 hours, role distribution, and totals.
func (s *Store) Analytics(ctx context.Context) (*models.Analytics, error) {
	analytics := &models.Analytics{
		SessionsByDate:      []models.DateCount{},
		MessagesByHour:      []models.HourCount{},
		MessageDistribution: []models.RoleCount{},
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT DATE(created_at) AS date, COUNT(*)::int AS count
		FROM chat_sessions
		WHERE created_at >= NOW() - INTERVAL '7 days' AND archived = false
		GROUP BY DATE(created_at)
		ORDER BY date ASC`)
	if err != nil {
		return nil, fmt.Errorf("sessions by date: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var dc models.DateCount
		if err := rows.Scan(&dc.Date, &dc.Count); err != nil {
			return nil, fmt.Errorf("scan date count: %w", err)
		}
		analytics.SessionsByDate = append(analytics.SessionsByDate, dc)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	rows, err = s.db.QueryContext(ctx, `
		SELECT EXTRACT(HOUR FROM created_at)::int AS hour, COUNT(*)::int AS count
		FROM chat_messages
		WHERE created_at >= NOW() - INTERVAL '24 hours'
		GROUP BY EXTRACT(HOUR FROM created_at)
		ORDER BY hour ASC`)
	if err != nil {
		return nil, fmt.Errorf("messages by hour: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var hc models.HourCount
		if err := rows.Scan(&hc.Hour, &hc.Count); err != nil {
			return nil, fmt.Errorf("scan hour count: %w", err)
		}
		analytics.MessagesByHour = append(analytics.MessagesByHour, hc)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	rows, err = s.db.QueryContext(ctx, `
		SELECT role, COUNT(*)::int AS count
		FROM chat_messages
		GROUP BY role`)
	if err != nil {
		return nil, fmt.Errorf("message distribution: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var rc models.RoleCount
		if err := rows.Scan(&rc.Role, &rc.Count); err != nil {
			return nil, fmt.Errorf("scan role count: %w", err)
		}
		analytics.MessageDistribution = append(analytics.MessageDistribution, rc)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	err = s.db.QueryRowContext(ctx, `
		SELECT
			(SELECT COUNT(*)::int FROM chat_sessions WHERE archived = false) AS total_sessions,
			(SELECT COUNT(*)::int FROM chat_messages) AS total_messages,
			(SELECT COUNT(*)::int FROM chat_messages WHERE role = 'user') AS user_messages,
			(SELECT COUNT(*)::int FROM chat_messages WHERE role = 'assistant') AS assistant_messages`).
		Scan(&analytics.Totals.TotalSessions,
			&analytics.Totals.TotalMessages,
			&analytics.Totals.UserMessages,
			&analytics.Totals.AssistantMessages)
	if err != nil {
		return nil, fmt.Errorf("total stats: %w", err)
	}

	return analytics, nil
}
