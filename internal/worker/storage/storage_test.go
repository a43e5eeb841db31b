package storage

import (
	"context"
	"database/sql"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cuongbtq/scanhub/internal/worker/domain"
	"github.com/cuongbtq/scanhub/shared/database"
)

func newTestStorage(t *testing.T) (*Storage, *database.Client) {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	client, err := database.NewClient(&database.Config{
		Driver: database.DriverSQLite,
		Path:   filepath.Join(t.TempDir(), "worker.db"),
	}, logger)
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })

	_, err = client.Migrate(context.Background())
	require.NoError(t, err)

	return NewStorage(client.GetDB(), logger), client
}

func insertJob(t *testing.T, client *database.Client, kind string) string {
	t.Helper()

	jobID := uuid.NewString()
	now := time.Now().UTC()
	_, err := client.GetDB().Exec(
		`INSERT INTO jobs (job_id, kind, params, status, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)`,
		jobID, kind, `{"targets":["10.0.0.1"]}`, domain.JobStatusPending, now, now,
	)
	require.NoError(t, err)
	return jobID
}

func TestStorage_ClaimJob(t *testing.T) {
	s, client := newTestStorage(t)
	ctx := context.Background()
	jobID := insertJob(t, client, "nmap")

	job, err := s.ClaimJob(ctx, jobID, "worker-a")
	require.NoError(t, err)
	assert.Equal(t, jobID, job.JobID)
	assert.Equal(t, "nmap", job.Kind)
	assert.Equal(t, domain.JobStatusRunning, job.Status)
	assert.Equal(t, "worker-a", job.WorkerID)

	t.Run("second claim is rejected", func(t *testing.T) {
		_, err := s.ClaimJob(ctx, jobID, "worker-b")
		assert.ErrorIs(t, err, domain.ErrJobAlreadyClaimed)
	})

	t.Run("unknown job is rejected", func(t *testing.T) {
		_, err := s.ClaimJob(ctx, uuid.NewString(), "worker-b")
		assert.ErrorIs(t, err, domain.ErrJobAlreadyClaimed)
	})
}

func TestStorage_UpdateJobStatus(t *testing.T) {
	s, client := newTestStorage(t)
	ctx := context.Background()
	jobID := insertJob(t, client, "masscan")

	_, err := s.ClaimJob(ctx, jobID, "worker-a")
	require.NoError(t, err)
	require.NoError(t, s.UpdateJobHeartbeat(ctx, jobID))
	require.NoError(t, s.UpdateJobStatus(ctx, jobID, domain.JobStatusFailed, "masscan exited with status 1"))

	var row struct {
		Status       string         `db:"status"`
		ErrorMessage sql.NullString `db:"error_message"`
		CompletedAt  sql.NullTime   `db:"completed_at"`
	}
	err = client.GetDB().Get(&row, `SELECT status, error_message, completed_at FROM jobs WHERE job_id = ?`, jobID)
	require.NoError(t, err)

	assert.Equal(t, domain.JobStatusFailed, row.Status)
	assert.Equal(t, "masscan exited with status 1", row.ErrorMessage.String)
	assert.True(t, row.CompletedAt.Valid)
}

func TestStorage_GetJobByID_NotFound(t *testing.T) {
	s, _ := newTestStorage(t)

	_, err := s.GetJobByID(context.Background(), uuid.NewString())
	assert.ErrorIs(t, err, domain.ErrJobNotFound)
}
