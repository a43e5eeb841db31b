package worker

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/cuongbtq/scanhub/internal/worker/domain"
)

// JobStore records job state transitions
type JobStore interface {
	ClaimJob(ctx context.Context, jobID, workerID string) (*domain.Job, error)
	UpdateJobStatus(ctx context.Context, jobID, status, errorMsg string) error
	UpdateJobHeartbeat(ctx context.Context, jobID string) error
}

// Consumer delivers job messages from the queue
type Consumer interface {
	Consume(tag string) (<-chan amqp.Delivery, error)
	Cancel(tag string) error
}

// Runner executes a job of the given kind with its raw params
type Runner interface {
	Execute(ctx context.Context, kind string, input map[string]any) error
}

// Config holds worker configuration
type Config struct {
	Logger            *slog.Logger
	Storage           JobStore
	Consumer          Consumer
	Runner            Runner
	WorkerID          string
	Concurrency       int
	MaxJobs           int
	JobTimeout        time.Duration
	HeartbeatInterval time.Duration
}

// Worker consumes job messages and runs them on a fixed size pool
type Worker struct {
	logger            *slog.Logger
	storage           JobStore
	consumer          Consumer
	runner            Runner
	workerID          string
	concurrency       int
	jobTimeout        time.Duration
	heartbeatInterval time.Duration

	jobsChan chan *domain.JobMessage
	wg       sync.WaitGroup
	cancel   context.CancelFunc
	started  bool
}

// NewWorker creates a new worker instance
func NewWorker(cfg *Config) *Worker {
	concurrency := max(cfg.Concurrency, 1)
	heartbeat := cfg.HeartbeatInterval
	if heartbeat <= 0 {
		heartbeat = 30 * time.Second
	}

	return &Worker{
		logger:            cfg.Logger,
		storage:           cfg.Storage,
		consumer:          cfg.Consumer,
		runner:            cfg.Runner,
		workerID:          cfg.WorkerID,
		concurrency:       concurrency,
		jobTimeout:        cfg.JobTimeout,
		heartbeatInterval: heartbeat,
		jobsChan:          make(chan *domain.JobMessage, max(cfg.MaxJobs, 0)),
	}
}

// Start subscribes to the queue and starts the dispatcher and pool
// goroutines. It returns once consumption has started.
func (w *Worker) Start(ctx context.Context) error {
	if w.started {
		return errors.New("worker already started")
	}

	w.logger.Info("Starting worker",
		slog.String("worker_id", w.workerID),
		slog.Int("concurrency", w.concurrency),
		slog.Duration("job_timeout", w.jobTimeout),
	)

	deliveries, err := w.setupConsumer()
	if err != nil {
		return err
	}

	ctx, w.cancel = context.WithCancel(ctx)
	w.started = true

	w.spawnWorkerPool(ctx)

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		defer close(w.jobsChan)
		w.startMessageDispatcher(ctx, deliveries)
	}()

	return nil
}

// Stop stops consuming, lets the jobs already handed to the pool finish and
// waits for every goroutine to exit. When ctx expires first, running jobs are
// cancelled, which kills their tool processes.
func (w *Worker) Stop(ctx context.Context) error {
	if !w.started {
		return nil
	}

	w.logger.Info("Stopping worker...", slog.String("worker_id", w.workerID))

	if err := w.consumer.Cancel(w.workerID); err != nil {
		w.logger.Warn("Failed to cancel consumer", slog.Any("error", err))
	}

	done := make(chan struct{})
	go func() {
		w.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		w.cancel()
		w.logger.Info("Worker stopped")
		return nil
	case <-ctx.Done():
		w.logger.Warn("Shutdown timeout exceeded, cancelling running jobs")
		w.cancel()
		<-done
		return ctx.Err()
	}
}
