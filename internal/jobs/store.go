package jobs

import (
	"context"
	"crypto/sha1"
	"database/sql"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/Encore7/codebase-explainer-agent/internal/db"
)

// Store manages persistence of ingestion job records.
type Store struct {
	db *db.DB
}

// NewStore creates a new job store.
func NewStore(database *db.DB) *Store {
	return &Store{db: database}
}

// MakeID derives the deterministic job id for a repository URL: the SHA-1
// of the normalized URL truncated to 8 hex characters. Re-submitting the
// same URL always yields the same id.
func MakeID(sourceURL string) string {
	sum := sha1.Sum([]byte(NormalizeURL(sourceURL)))
	return hex.EncodeToString(sum[:])[:8]
}

// NormalizeURL canonicalizes a repository URL for id derivation.
func NormalizeURL(sourceURL string) string {
	u := strings.TrimSpace(sourceURL)
	u = strings.TrimSuffix(u, "/")
	u = strings.TrimSuffix(u, ".git")
	return u
}

// Create inserts a new job in status scheduled. If a job already exists for
// the same URL it is returned as-is: job ids are idempotent per source URL.
func (s *Store) Create(ctx context.Context, sourceURL string) (*Job, error) {
	id := MakeID(sourceURL)

	existing, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}

	now := time.Now().UTC()
	job := &Job{
		ID:        id,
		SourceURL: sourceURL,
		Status:    StatusScheduled,
		CreatedAt: now,
		UpdatedAt: now,
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO ingest_jobs (id, source_url, status, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?)`,
		job.ID, job.SourceURL, job.Status, job.CreatedAt, job.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("inserting job: %w", err)
	}
	return job, nil
}

// Get retrieves a job by its id. Returns nil if no such job exists.
func (s *Store) Get(ctx context.Context, id string) (*Job, error) {
	var job Job
	var errMsg sql.NullString

	err := s.db.QueryRowContext(ctx,
		`SELECT id, source_url, status, error, created_at, updated_at
		 FROM ingest_jobs WHERE id = ?`, id,
	).Scan(&job.ID, &job.SourceURL, &job.Status, &errMsg, &job.CreatedAt, &job.UpdatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting job: %w", err)
	}
	job.Error = errMsg.String
	return &job, nil
}

// SetStatus transitions a job to the given status. Backward transitions are
// rejected: a job never leaves a terminal state and never returns to
// scheduled. The error message is stored only for failed.
func (s *Store) SetStatus(ctx context.Context, id string, status Status, errMsg string) error {
	job, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if job == nil {
		return fmt.Errorf("job %s not found", id)
	}

	if statusRank[status] <= statusRank[job.Status] && status != job.Status {
		return fmt.Errorf("invalid transition %s -> %s for job %s", job.Status, status, id)
	}
	if job.Status.Terminal() {
		return fmt.Errorf("job %s already %s", id, job.Status)
	}

	var stored any
	if status == StatusFailed && errMsg != "" {
		stored = errMsg
	}

	_, err = s.db.ExecContext(ctx,
		`UPDATE ingest_jobs SET status = ?, error = ?, updated_at = ? WHERE id = ?`,
		status, stored, time.Now().UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("updating job status: %w", err)
	}
	return nil
}

// Retry returns a failed job to scheduled, clearing the recorded error.
// This starts a new lifecycle for the job id; any other state is rejected,
// so forward-only transitions still hold within a lifecycle.
func (s *Store) Retry(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE ingest_jobs SET status = ?, error = NULL, updated_at = ? WHERE id = ? AND status = ?`,
		StatusScheduled, time.Now().UTC(), id, StatusFailed,
	)
	if err != nil {
		return fmt.Errorf("retrying job: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("retrying job: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("job %s is not failed, nothing to retry", id)
	}
	return nil
}

// List returns all jobs, most recently created first.
func (s *Store) List(ctx context.Context) ([]Job, error) {
	return s.list(ctx, "")
}

// ListByStatus returns all jobs currently in the given status. Useful for
// spotting jobs left in_progress by a crashed process.
func (s *Store) ListByStatus(ctx context.Context, status Status) ([]Job, error) {
	return s.list(ctx, status)
}

func (s *Store) list(ctx context.Context, status Status) ([]Job, error) {
	query := `SELECT id, source_url, status, error, created_at, updated_at FROM ingest_jobs`
	args := []any{}
	if status != "" {
		query += ` WHERE status = ?`
		args = append(args, status)
	}
	query += ` ORDER BY created_at DESC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing jobs: %w", err)
	}
	defer rows.Close()

	var out []Job
	for rows.Next() {
		var job Job
		var errMsg sql.NullString
		if err := rows.Scan(&job.ID, &job.SourceURL, &job.Status, &errMsg, &job.CreatedAt, &job.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scanning job: %w", err)
		}
		job.Error = errMsg.String
		out = append(out, job)
	}
	return out, rows.Err()
}
