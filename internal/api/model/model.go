package model

import (
	"database/sql"
	"time"
)

// Job is a row of the jobs table
type Job struct {
	JobID        string         `db:"job_id"`
	Kind         string         `db:"kind"`
	Params       string         `db:"params"`
	Status       string         `db:"status"`
	WorkerID     sql.NullString `db:"worker_id"`
	ErrorMessage sql.NullString `db:"error_message"`
	CreatedAt    time.Time      `db:"created_at"`
	UpdatedAt    time.Time      `db:"updated_at"`
	StartedAt    sql.NullTime   `db:"started_at"`
	CompletedAt  sql.NullTime   `db:"completed_at"`
}
