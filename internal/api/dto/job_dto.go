package dto

import (
	"encoding/json"

	"github.com/cuongbtq/scanhub/internal/params"
)

type ListJobsRequest struct {
	Kind     string `form:"kind"`
	Status   string `form:"status" binding:"omitempty,oneof=PENDING RUNNING COMPLETED FAILED"`
	PageSize int    `form:"page_size" binding:"omitempty,min=1"`
	Cursor   string `form:"cursor"`
}

type ListJobsResponse struct {
	Jobs       []JobDTO `json:"jobs"`
	NextCursor string   `json:"next_cursor,omitempty"`
}

type JobDTO struct {
	JobID        string          `json:"job_id"`
	Kind         string          `json:"kind"`
	Params       json.RawMessage `json:"params"`
	Status       string          `json:"status"`
	WorkerID     string          `json:"worker_id,omitempty"`
	ErrorMessage string          `json:"error_message,omitempty"`
	CreatedAt    string          `json:"created_at"`
	UpdatedAt    string          `json:"updated_at"`
	StartedAt    string          `json:"started_at,omitempty"`
	CompletedAt  string          `json:"completed_at,omitempty"`
}

// JobAcceptedResponse is returned once a job has been enqueued
type JobAcceptedResponse struct {
	JobID   string `json:"job_id"`
	Kind    string `json:"kind"`
	Status  string `json:"status"`
	Message string `json:"message"`
}

// ValidationErrorResponse carries field level validation messages
type ValidationErrorResponse struct {
	Error  string        `json:"error"`
	Errors params.Errors `json:"errors"`
}
