package domain

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
)

// Job represents a claimed job row
type Job struct {
	JobID     string    `db:"job_id"`
	Kind      string    `db:"kind"`
	Status    string    `db:"status"`
	WorkerID  string    `db:"worker_id"`
	StartedAt time.Time `db:"started_at"`
}

// JobMessage is the body published for every dispatched job
type JobMessage struct {
	JobID  string          `json:"job_id"`
	Kind   string          `json:"kind"`
	Params json.RawMessage `json:"params"`

	Delivery amqp.Delivery `json:"-"`
}

// DecodeJobMessage parses and checks a delivery body
func DecodeJobMessage(delivery amqp.Delivery) (*JobMessage, error) {
	var msg JobMessage
	if err := json.Unmarshal(delivery.Body, &msg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}

	if _, err := uuid.Parse(msg.JobID); err != nil {
		return nil, fmt.Errorf("%w: job_id %q is not a UUID", ErrInvalidPayload, msg.JobID)
	}

	if msg.Kind == "" {
		msg.Kind = delivery.Type
	}
	if msg.Kind == "" {
		return nil, fmt.Errorf("%w: missing kind", ErrInvalidPayload)
	}

	msg.Delivery = delivery
	return &msg, nil
}

// DecodeParams returns the raw params map for re-validation
func (m *JobMessage) DecodeParams() (map[string]any, error) {
	input := map[string]any{}
	if len(m.Params) == 0 || string(m.Params) == "null" {
		return input, nil
	}
	if err := json.Unmarshal(m.Params, &input); err != nil {
		return nil, fmt.Errorf("%w: params: %v", ErrInvalidPayload, err)
	}
	return input, nil
}
