// Package sqlite provides a JobStore backed by a local SQLite file so job
// status survives service restarts.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pfalabs/finance-assistant/internal/jobs"
)

const schema = `
CREATE TABLE IF NOT EXISTS parse_receipt_jobs (
	job_id       TEXT PRIMARY KEY,
	receipt_id   TEXT NOT NULL,
	user_id      TEXT NOT NULL,
	gcs_uri      TEXT NOT NULL,
	status       TEXT NOT NULL,
	created_at   TIMESTAMP NOT NULL,
	started_at   TIMESTAMP,
	completed_at TIMESTAMP,
	error        TEXT NOT NULL DEFAULT '',
	retry_count  INTEGER NOT NULL DEFAULT 0,
	max_retries  INTEGER NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS idx_jobs_receipt ON parse_receipt_jobs(receipt_id);
CREATE INDEX IF NOT EXISTS idx_jobs_status ON parse_receipt_jobs(status);
`

// Store is a SQLite-backed implementation of JobStore.
type Store struct {
	db *sql.DB
}

// Open opens or creates the job database at the given path and ensures the
// schema exists.
func Open(dbPath string) (*Store, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("Open: create db directory: %w", err)
	}

	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("Open: open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("Open: ping database: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("Open: execute schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// SaveJob inserts or replaces a job row.
func (s *Store) SaveJob(ctx context.Context, job *jobs.ParseReceiptJob) error {
	if job.JobID == "" {
		return fmt.Errorf("SaveJob: job ID is required")
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO parse_receipt_jobs
			(job_id, receipt_id, user_id, gcs_uri, status, created_at,
			 started_at, completed_at, error, retry_count, max_retries)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		job.JobID, job.ReceiptID, job.UserID, job.GCSURI, string(job.Status),
		job.CreatedAt, nullableTime(job.StartedAt), nullableTime(job.CompletedAt),
		job.Error, job.RetryCount, job.MaxRetries,
	)
	if err != nil {
		return fmt.Errorf("SaveJob: %w", err)
	}
	return nil
}

// GetJob retrieves a job by ID.
func (s *Store) GetJob(ctx context.Context, jobID string) (*jobs.ParseReceiptJob, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT job_id, receipt_id, user_id, gcs_uri, status, created_at,
		       started_at, completed_at, error, retry_count, max_retries
		FROM parse_receipt_jobs
		WHERE job_id = ?`, jobID)

	job, err := scanJob(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("GetJob: job not found: %s", jobID)
	}
	if err != nil {
		return nil, fmt.Errorf("GetJob: %w", err)
	}
	return job, nil
}

// ListJobs retrieves jobs with optional filtering, newest first.
func (s *Store) ListJobs(ctx context.Context, filter jobs.JobFilter) ([]*jobs.ParseReceiptJob, error) {
	var b strings.Builder
	b.WriteString(`
		SELECT job_id, receipt_id, user_id, gcs_uri, status, created_at,
		       started_at, completed_at, error, retry_count, max_retries
		FROM parse_receipt_jobs
		WHERE 1=1`)

	var args []interface{}
	if filter.ReceiptID != "" {
		b.WriteString(" AND receipt_id = ?")
		args = append(args, filter.ReceiptID)
	}
	if filter.Status != "" {
		b.WriteString(" AND status = ?")
		args = append(args, string(filter.Status))
	}
	b.WriteString(" ORDER BY created_at DESC")
	if filter.Limit > 0 {
		b.WriteString(" LIMIT ?")
		args = append(args, filter.Limit)
		if filter.Offset > 0 {
			b.WriteString(" OFFSET ?")
			args = append(args, filter.Offset)
		}
	}

	rows, err := s.db.QueryContext(ctx, b.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("ListJobs: %w", err)
	}
	defer rows.Close()

	var result []*jobs.ParseReceiptJob
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, fmt.Errorf("ListJobs: scan: %w", err)
		}
		result = append(result, job)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ListJobs: rows: %w", err)
	}

	return result, nil
}

// UpdateJobStatus updates the status of a job.
func (s *Store) UpdateJobStatus(ctx context.Context, jobID string, status jobs.JobStatus, errorMsg string) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE parse_receipt_jobs
		SET status = ?, error = CASE WHEN ? != '' THEN ? ELSE error END
		WHERE job_id = ?`,
		string(status), errorMsg, errorMsg, jobID)
	if err != nil {
		return fmt.Errorf("UpdateJobStatus: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("UpdateJobStatus: rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("UpdateJobStatus: job not found: %s", jobID)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanJob(r rowScanner) (*jobs.ParseReceiptJob, error) {
	var (
		job       jobs.ParseReceiptJob
		status    string
		started   sql.NullTime
		completed sql.NullTime
	)
	err := r.Scan(&job.JobID, &job.ReceiptID, &job.UserID, &job.GCSURI, &status,
		&job.CreatedAt, &started, &completed, &job.Error, &job.RetryCount, &job.MaxRetries)
	if err != nil {
		return nil, err
	}
	job.Status = jobs.JobStatus(status)
	if started.Valid {
		t := started.Time
		job.StartedAt = &t
	}
	if completed.Valid {
		t := completed.Time
		job.CompletedAt = &t
	}
	return &job, nil
}

func nullableTime(t *time.Time) interface{} {
	if t == nil {
		return nil
	}
	return *t
}

var _ jobs.JobStore = (*Store)(nil)
