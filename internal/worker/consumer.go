package worker

import (
	"context"
	"fmt"
	"log/slog"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/cuongbtq/scanhub/internal/worker/domain"
)

// setupConsumer starts consuming with the worker ID as consumer tag. QoS is
// applied by the RabbitMQ client from its prefetch setting.
func (w *Worker) setupConsumer() (<-chan amqp.Delivery, error) {
	deliveries, err := w.consumer.Consume(w.workerID)
	if err != nil {
		return nil, fmt.Errorf("failed to start consuming: %w", err)
	}

	w.logger.Info("RabbitMQ consumer started",
		slog.String("consumer_tag", w.workerID),
	)

	return deliveries, nil
}

// startMessageDispatcher decodes deliveries and hands them to the worker pool
// until the delivery channel closes or ctx is cancelled
func (w *Worker) startMessageDispatcher(ctx context.Context, deliveries <-chan amqp.Delivery) {
	w.logger.Info("Message dispatcher started", slog.String("worker_id", w.workerID))

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("Message dispatcher stopped - context canceled")
			return

		case delivery, ok := <-deliveries:
			if !ok {
				w.logger.Info("Message dispatcher stopped - delivery channel closed")
				return
			}

			msg, err := domain.DecodeJobMessage(delivery)
			if err != nil {
				w.logger.Error("Rejecting malformed message",
					slog.String("message_id", delivery.MessageId),
					slog.String("body", string(delivery.Body)),
					slog.Any("error", err),
				)
				// malformed messages go to the dead letter exchange
				if nackErr := delivery.Nack(false, false); nackErr != nil {
					w.logger.Error("Failed to NACK malformed message", slog.Any("error", nackErr))
				}
				continue
			}

			select {
			case w.jobsChan <- msg:
				w.logger.Debug("Job dispatched to worker pool",
					slog.String("job_id", msg.JobID),
					slog.Uint64("delivery_tag", delivery.DeliveryTag),
				)
			case <-ctx.Done():
				w.logger.Info("Message dispatcher stopped while dispatching job")
				w.requeue(msg)
				return
			}
		}
	}
}

// requeue returns a job that never started to the queue
func (w *Worker) requeue(msg *domain.JobMessage) {
	if err := msg.Delivery.Nack(false, true); err != nil {
		w.logger.Error("Failed to requeue message",
			slog.String("job_id", msg.JobID),
			slog.Any("error", err),
		)
	}
}
