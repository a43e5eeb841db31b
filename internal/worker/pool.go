package worker

import (
	"context"
	"fmt"
	"log/slog"
)

// spawnWorkerPool spawns N worker goroutines based on concurrency configuration
func (w *Worker) spawnWorkerPool(ctx context.Context) {
	w.logger.Info("Spawning worker pool",
		slog.Int("concurrency", w.concurrency),
		slog.String("worker_id", w.workerID),
	)

	for i := 0; i < w.concurrency; i++ {
		w.wg.Add(1)
		go w.workerLoop(ctx, i)
	}
}

// workerLoop is the main processing loop for each worker goroutine. It runs
// until the jobs channel is closed and drained.
func (w *Worker) workerLoop(ctx context.Context, workerNum int) {
	defer w.wg.Done()

	workerName := fmt.Sprintf("%s-%d", w.workerID, workerNum)
	logger := w.logger.With(slog.String("worker_name", workerName))
	logger.Debug("Worker goroutine started")

	for msg := range w.jobsChan {
		if ctx.Err() != nil {
			// shutting down before this job started
			w.requeue(msg)
			continue
		}

		logger.Info("Worker received job",
			slog.String("job_id", msg.JobID),
			slog.String("kind", msg.Kind),
		)

		if err := w.processJob(ctx, msg); err != nil {
			// no automatic retry: failed jobs are dead-lettered
			if nackErr := msg.Delivery.Nack(false, false); nackErr != nil {
				logger.Error("Failed to NACK message",
					slog.String("job_id", msg.JobID),
					slog.Any("error", nackErr),
				)
			}
			continue
		}

		if ackErr := msg.Delivery.Ack(false); ackErr != nil {
			logger.Error("Failed to ACK message",
				slog.String("job_id", msg.JobID),
				slog.Any("error", ackErr),
			)
		}
	}

	logger.Debug("Worker goroutine stopping - jobsChan closed")
}
