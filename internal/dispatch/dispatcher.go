// Package dispatch validates job submissions, records them and enqueues them
// on the broker.
package dispatch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/cuongbtq/scanhub/internal/api/domain"
	"github.com/cuongbtq/scanhub/internal/api/model"
	"github.com/cuongbtq/scanhub/internal/jobs"
	"github.com/cuongbtq/scanhub/shared/rabbitmq"
)

// ErrEnqueueFailed is returned when the job could not be handed to the broker
var ErrEnqueueFailed = errors.New("failed to enqueue job")

// JobStore records dispatched jobs
type JobStore interface {
	CreateJob(ctx context.Context, job *model.Job) error
	DeleteJob(ctx context.Context, jobID string) error
}

// Publisher sends job messages to the broker
type Publisher interface {
	Publish(ctx context.Context, msg rabbitmq.Message) error
}

// message is the queue body consumed by the worker service
type message struct {
	JobID  string          `json:"job_id"`
	Kind   jobs.Kind       `json:"kind"`
	Params json.RawMessage `json:"params"`
}

// Dispatcher turns validated submissions into queued jobs
type Dispatcher struct {
	store     JobStore
	publisher Publisher
	logger    *slog.Logger
}

// NewDispatcher creates a new Dispatcher
func NewDispatcher(store JobStore, publisher Publisher, logger *slog.Logger) *Dispatcher {
	return &Dispatcher{
		store:     store,
		publisher: publisher,
		logger:    logger,
	}
}

// Dispatch validates input against the schema of kind and enqueues the job.
// Validation failures are returned as params.Errors and nothing is recorded.
// When publishing fails the job row is removed again and the returned error
// wraps ErrEnqueueFailed.
func (d *Dispatcher) Dispatch(ctx context.Context, kind jobs.Kind, input map[string]any) (*model.Job, error) {
	values, err := jobs.Validate(kind, input)
	if err != nil {
		return nil, err
	}

	encodedParams, err := json.Marshal(values)
	if err != nil {
		return nil, fmt.Errorf("failed to encode job params: %w", err)
	}

	jobID := uuid.New().String()
	body, err := json.Marshal(message{
		JobID:  jobID,
		Kind:   kind,
		Params: encodedParams,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode job message: %w", err)
	}

	now := time.Now().UTC()
	job := &model.Job{
		JobID:     jobID,
		Kind:      string(kind),
		Params:    string(encodedParams),
		Status:    domain.JobStatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}

	logger := d.logger.With(
		slog.String("job_id", job.JobID),
		slog.String("kind", job.Kind),
	)

	if err := d.store.CreateJob(ctx, job); err != nil {
		logger.Error("Failed to record job", slog.Any("error", err))
		return nil, err
	}

	err = d.publisher.Publish(ctx, rabbitmq.Message{
		ID:          job.JobID,
		Type:        job.Kind,
		ContentType: "application/json",
		Body:        body,
	})
	if err != nil {
		logger.Error("Failed to publish job", slog.Any("error", err))

		// the job never reached the queue, so it must not be listed
		if delErr := d.store.DeleteJob(context.WithoutCancel(ctx), job.JobID); delErr != nil {
			logger.Error("Failed to remove unpublished job", slog.Any("error", delErr))
		}
		return nil, fmt.Errorf("%w: %w", ErrEnqueueFailed, err)
	}

	logger.Info("Job dispatched")
	return job, nil
}
