package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/cuongbtq/scanhub/internal/worker/domain"
)

// Storage handles the job table updates made by workers
type Storage struct {
	db     *sqlx.DB
	logger *slog.Logger
	now    func() time.Time
}

// NewStorage creates a new Storage instance
func NewStorage(db *sqlx.DB, logger *slog.Logger) *Storage {
	return &Storage{
		db:     db,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// GetJobByID retrieves a job from the database by its ID
func (s *Storage) GetJobByID(ctx context.Context, jobID string) (*domain.Job, error) {
	query := s.db.Rebind(`
		SELECT job_id, kind, status, COALESCE(worker_id, '') AS worker_id
		FROM jobs
		WHERE job_id = ?
	`)

	var job domain.Job
	if err := s.db.GetContext(ctx, &job, query, jobID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrJobNotFound
		}
		return nil, fmt.Errorf("failed to get job: %w", err)
	}

	return &job, nil
}

// ClaimJob moves a PENDING job to RUNNING for workerID. A job that is not
// PENDING (or does not exist) yields ErrJobAlreadyClaimed.
func (s *Storage) ClaimJob(ctx context.Context, jobID, workerID string) (*domain.Job, error) {
	now := s.now()
	query := s.db.Rebind(`
		UPDATE jobs
		SET status = ?,
		    worker_id = ?,
		    started_at = ?,
		    last_heartbeat_at = ?,
		    updated_at = ?
		WHERE job_id = ?
		  AND status = ?
	`)

	result, err := s.db.ExecContext(ctx, query,
		domain.JobStatusRunning, workerID, now, now, now,
		jobID, domain.JobStatusPending,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to claim job: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		s.logger.Warn("Failed to claim job - already claimed or not found",
			slog.String("job_id", jobID),
			slog.String("worker_id", workerID),
		)
		return nil, domain.ErrJobAlreadyClaimed
	}

	job, err := s.GetJobByID(ctx, jobID)
	if err != nil {
		return nil, err
	}
	job.StartedAt = now

	return job, nil
}

// UpdateJobStatus records a terminal status and the failure text, if any
func (s *Storage) UpdateJobStatus(ctx context.Context, jobID, status, errorMsg string) error {
	now := s.now()

	var completedAt any
	if status == domain.JobStatusCompleted || status == domain.JobStatusFailed {
		completedAt = now
	}

	var message any
	if errorMsg != "" {
		message = errorMsg
	}

	query := s.db.Rebind(`
		UPDATE jobs
		SET status = ?,
		    error_message = ?,
		    completed_at = ?,
		    updated_at = ?
		WHERE job_id = ?
	`)

	if _, err := s.db.ExecContext(ctx, query, status, message, completedAt, now, jobID); err != nil {
		return fmt.Errorf("failed to update job status: %w", err)
	}

	s.logger.Debug("Job status updated",
		slog.String("job_id", jobID),
		slog.String("status", status),
	)

	return nil
}

// UpdateJobHeartbeat updates the last_heartbeat_at timestamp for a running job
func (s *Storage) UpdateJobHeartbeat(ctx context.Context, jobID string) error {
	now := s.now()
	query := s.db.Rebind(`
		UPDATE jobs
		SET last_heartbeat_at = ?,
		    updated_at = ?
		WHERE job_id = ? AND status = ?
	`)

	result, err := s.db.ExecContext(ctx, query, now, now, jobID, domain.JobStatusRunning)
	if err != nil {
		return fmt.Errorf("failed to update job heartbeat: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rows == 0 {
		s.logger.Warn("Job heartbeat update - no rows affected (job may not be running)",
			slog.String("job_id", jobID),
		)
	}

	return nil
}
