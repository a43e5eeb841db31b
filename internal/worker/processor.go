package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/cuongbtq/scanhub/internal/worker/domain"
)

// processJob claims the job, runs it and records the outcome. A non-nil
// return means the message must not be acknowledged as successful.
func (w *Worker) processJob(ctx context.Context, msg *domain.JobMessage) error {
	logger := w.logger.With(
		slog.String("job_id", msg.JobID),
		slog.String("kind", msg.Kind),
		slog.String("worker_id", w.workerID),
	)

	// Step 1: Claim job from database (PENDING -> RUNNING)
	job, err := w.storage.ClaimJob(ctx, msg.JobID, w.workerID)
	if err != nil {
		logger.Warn("Failed to claim job", slog.Any("error", err))
		return fmt.Errorf("failed to claim job: %w", err)
	}

	// status updates must land even when shutdown cancelled the job
	statusCtx := context.WithoutCancel(ctx)

	// Step 2: Decode params; the executor re-validates them
	input, err := msg.DecodeParams()
	if err != nil {
		w.fail(statusCtx, logger, job.JobID, err)
		return err
	}

	jobCtx, cancel := w.jobContext(ctx)
	defer cancel()

	// Step 3: Heartbeat while the job runs
	heartbeatDone := make(chan struct{})
	go w.sendJobHeartbeat(jobCtx, job.JobID, heartbeatDone)
	defer close(heartbeatDone)

	// Step 4: Execute
	start := time.Now()
	if err := w.runner.Execute(jobCtx, msg.Kind, input); err != nil {
		w.fail(statusCtx, logger, job.JobID, err)
		return err
	}

	logger.Info("Job completed successfully", slog.Duration("duration", time.Since(start)))

	if err := w.storage.UpdateJobStatus(statusCtx, job.JobID, domain.JobStatusCompleted, ""); err != nil {
		// the work is done; the message is still acknowledged
		logger.Error("Failed to update job status to COMPLETED", slog.Any("error", err))
	}

	return nil
}

// jobContext applies the optional per-job timeout
func (w *Worker) jobContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if w.jobTimeout > 0 {
		return context.WithTimeout(ctx, w.jobTimeout)
	}
	return context.WithCancel(ctx)
}

// fail records the job as FAILED with the error text
func (w *Worker) fail(ctx context.Context, logger *slog.Logger, jobID string, jobErr error) {
	logger.Error("Job execution failed", slog.Any("error", jobErr))

	if err := w.storage.UpdateJobStatus(ctx, jobID, domain.JobStatusFailed, jobErr.Error()); err != nil {
		logger.Error("Failed to update job status to FAILED", slog.Any("error", err))
	}
}

// sendJobHeartbeat periodically updates the job's heartbeat timestamp
func (w *Worker) sendJobHeartbeat(ctx context.Context, jobID string, done <-chan struct{}) {
	ticker := time.NewTicker(w.heartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := w.storage.UpdateJobHeartbeat(ctx, jobID); err != nil {
				w.logger.Warn("Failed to update job heartbeat",
					slog.String("job_id", jobID),
					slog.Any("error", err),
				)
			}
		}
	}
}
