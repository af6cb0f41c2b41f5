package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Session is one conversation keyed by session id. Messages and Entities are
// opaque JSON owned by the agent layer.
type Session struct {
	SessionID    string
	UserID       string
	Messages     json.RawMessage
	Entities     json.RawMessage
	CreatedAt    time.Time
	LastActivity time.Time
}

// Store persists conversation sessions through database/sql. The dialect
// selects placeholder style: "postgres" or "sqlite3".
type Store struct {
	db      *sql.DB
	dialect string
}

// NewStore creates a Store for the given dialect.
func NewStore(db *sql.DB, dialect string) *Store {
	return &Store{db: db, dialect: dialect}
}

// CreateSession inserts an empty session for the user and returns its id.
func (s *Store) CreateSession(ctx context.Context, userID string) (string, error) {
	sessionID := uuid.NewString()
	now := time.Now().UTC()
	_, err := s.db.ExecContext(ctx, s.rebind(`
		INSERT INTO conversation_history (session_id, user_id, messages, entities, created_at, last_activity)
		VALUES (?, ?, '[]', '{}', ?, ?)`),
		sessionID, userID, now, now)
	if err != nil {
		return "", fmt.Errorf("create session: %w", err)
	}
	return sessionID, nil
}

// GetSession returns the session or sql.ErrNoRows.
func (s *Store) GetSession(ctx context.Context, sessionID string) (*Session, error) {
	row := s.db.QueryRowContext(ctx, s.rebind(`
		SELECT session_id, user_id, messages, entities, created_at, last_activity
		FROM conversation_history WHERE session_id = ?`), sessionID)

	var sess Session
	var messages, entities []byte
	if err := row.Scan(&sess.SessionID, &sess.UserID, &messages, &entities, &sess.CreatedAt, &sess.LastActivity); err != nil {
		return nil, err
	}
	sess.Messages = messages
	sess.Entities = entities
	return &sess, nil
}

// SaveConversation replaces the session's message and entity JSON and touches
// last_activity.
func (s *Store) SaveConversation(ctx context.Context, sessionID string, messages, entities json.RawMessage) error {
	res, err := s.db.ExecContext(ctx, s.rebind(`
		UPDATE conversation_history
		SET messages = ?, entities = ?, last_activity = ?
		WHERE session_id = ?`),
		string(messages), string(entities), time.Now().UTC(), sessionID)
	if err != nil {
		return fmt.Errorf("save conversation: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// ListSessionsByUser returns the user's sessions, most recent activity first.
func (s *Store) ListSessionsByUser(ctx context.Context, userID string, limit int) ([]Session, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, s.rebind(`
		SELECT session_id, user_id, messages, entities, created_at, last_activity
		FROM conversation_history
		WHERE user_id = ?
		ORDER BY last_activity DESC
		LIMIT `+strconv.Itoa(limit)), userID)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	var sessions []Session
	for rows.Next() {
		var sess Session
		var messages, entities []byte
		if err := rows.Scan(&sess.SessionID, &sess.UserID, &messages, &entities, &sess.CreatedAt, &sess.LastActivity); err != nil {
			return nil, err
		}
		sess.Messages = messages
		sess.Entities = entities
		sessions = append(sessions, sess)
	}
	return sessions, rows.Err()
}

// DeleteIdleSessions removes sessions whose last activity predates cutoff and
// returns the number deleted.
func (s *Store) DeleteIdleSessions(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		s.rebind(`DELETE FROM conversation_history WHERE last_activity < ?`), cutoff.UTC())
	if err != nil {
		return 0, fmt.Errorf("delete idle sessions: %w", err)
	}
	return res.RowsAffected()
}

// rebind converts ? placeholders to $n for postgres.
func (s *Store) rebind(query string) string {
	if s.dialect != "postgres" {
		return query
	}
	var sb strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			sb.WriteString("$" + strconv.Itoa(n))
			continue
		}
		sb.WriteRune(r)
	}
	return sb.String()
}
