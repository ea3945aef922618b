package chat

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/Encore7/codebase-explainer-agent/internal/db"
)

// Session is one chat connection's audit record.
type Session struct {
	ID        string     `json:"id"`
	RepoID    string     `json:"repo_id"`
	CreatedAt time.Time  `json:"created_at"`
	ClosedAt  *time.Time `json:"closed_at,omitempty"`
}

// SessionStore persists chat session audit rows.
type SessionStore struct {
	db *db.DB
}

// NewSessionStore creates a session store.
func NewSessionStore(database *db.DB) *SessionStore {
	return &SessionStore{db: database}
}

// Create records a new session for the repository.
func (s *SessionStore) Create(ctx context.Context, repoID string) (*Session, error) {
	sess := &Session{
		ID:        uuid.NewString(),
		RepoID:    repoID,
		CreatedAt: time.Now().UTC(),
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO chat_sessions (id, repo_id, created_at) VALUES (?, ?, ?)`,
		sess.ID, sess.RepoID, sess.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("inserting session: %w", err)
	}
	return sess, nil
}

// Close stamps the session's disconnect time.
func (s *SessionStore) Close(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE chat_sessions SET closed_at = ? WHERE id = ?`,
		time.Now().UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("closing session: %w", err)
	}
	return nil
}

// ListByRepo returns all sessions recorded for a repository, newest first.
func (s *SessionStore) ListByRepo(ctx context.Context, repoID string) ([]Session, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, repo_id, created_at, closed_at
		 FROM chat_sessions WHERE repo_id = ? ORDER BY created_at DESC`, repoID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing sessions: %w", err)
	}
	defer rows.Close()

	var sessions []Session
	for rows.Next() {
		var sess Session
		if err := rows.Scan(&sess.ID, &sess.RepoID, &sess.CreatedAt, &sess.ClosedAt); err != nil {
			return nil, fmt.Errorf("scanning session: %w", err)
		}
		sessions = append(sessions, sess)
	}
	return sessions, rows.Err()
}
