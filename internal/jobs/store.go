// Package jobs retries certificate issuance that failed inline after a
// passing quiz submission.
package jobs

import (
	"context"
	"database/sql"
)

type Status string

const (
	StatusPending Status = "pending"
	StatusDone    Status = "done"
	StatusFailed  Status = "failed"
)

type Job struct {
	ID        int64
	UserID    string
	CourseID  string
	Status    Status
	Attempts  int
	LastError string
	CreatedAt int64
	UpdatedAt int64
}

type Store interface {
	// Enqueue is a no-op when the pair already has a pending job.
	Enqueue(ctx context.Context, userID, courseID string, at int64) error
	Pending(ctx context.Context, limit int) ([]Job, error)
	MarkDone(ctx context.Context, id int64, at int64) error
	// MarkFailed counts an attempt; the job stops being pending once
	// attempts reaches maxAttempts.
	MarkFailed(ctx context.Context, id int64, lastErr string, maxAttempts int, at int64) error
}

type SQLStore struct{ db *sql.DB }

func NewSQLStore(db *sql.DB) *SQLStore { return &SQLStore{db: db} }

func (s *SQLStore) Enqueue(ctx context.Context, userID, courseID string, at int64) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO issuance_jobs (user_id, course_id, status, attempts, last_error, created_at, updated_at)
		 VALUES ($1,$2,'pending',0,'',$3,$4)
		 ON CONFLICT DO NOTHING`,
		userID, courseID, at, at)
	return err
}

func (s *SQLStore) Pending(ctx context.Context, limit int) ([]Job, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, user_id, course_id, status, attempts, last_error, created_at, updated_at
		 FROM issuance_jobs WHERE status='pending' ORDER BY id LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Job
	for rows.Next() {
		var j Job
		if err := rows.Scan(&j.ID, &j.UserID, &j.CourseID, &j.Status, &j.Attempts, &j.LastError, &j.CreatedAt, &j.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, j)
	}
	return out, rows.Err()
}

func (s *SQLStore) MarkDone(ctx context.Context, id int64, at int64) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE issuance_jobs SET status='done', last_error='', updated_at=$1 WHERE id=$2`, at, id)
	return err
}

func (s *SQLStore) MarkFailed(ctx context.Context, id int64, lastErr string, maxAttempts int, at int64) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE issuance_jobs
		 SET attempts = attempts + 1,
		     last_error = $1,
		     status = CASE WHEN attempts + 1 >= $2 THEN 'failed' ELSE 'pending' END,
		     updated_at = $3
		 WHERE id = $4`,
		lastErr, maxAttempts, at, id)
	return err
}
