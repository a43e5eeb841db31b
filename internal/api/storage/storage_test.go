package storage

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cuongbtq/scanhub/internal/api/domain"
	"github.com/cuongbtq/scanhub/internal/api/model"
	"github.com/cuongbtq/scanhub/shared/database"
)

func newTestStorage(t *testing.T) *Storage {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	client, err := database.NewClient(&database.Config{
		Driver: database.DriverSQLite,
		Path:   filepath.Join(t.TempDir(), "api.db"),
	}, logger)
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })

	_, err = client.Migrate(context.Background())
	require.NoError(t, err)

	return NewStorage(client.GetDB())
}

func createJob(t *testing.T, s *Storage, kind, status string, createdAt time.Time) *model.Job {
	t.Helper()

	job := &model.Job{
		JobID:     uuid.NewString(),
		Kind:      kind,
		Params:    `{"targets":["10.0.0.1"]}`,
		Status:    status,
		CreatedAt: createdAt,
		UpdatedAt: createdAt,
	}
	require.NoError(t, s.CreateJob(context.Background(), job))
	return job
}

func TestStorage_CreateAndGetJob(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Second)

	job := createJob(t, s, "nmap", domain.JobStatusPending, now)

	got, err := s.GetJobByID(ctx, job.JobID)
	require.NoError(t, err)
	assert.Equal(t, job.JobID, got.JobID)
	assert.Equal(t, "nmap", got.Kind)
	assert.Equal(t, job.Params, got.Params)
	assert.Equal(t, domain.JobStatusPending, got.Status)
	assert.True(t, now.Equal(got.CreatedAt))
	assert.False(t, got.WorkerID.Valid)
	assert.False(t, got.StartedAt.Valid)
}

func TestStorage_GetJobByID_NotFound(t *testing.T) {
	s := newTestStorage(t)

	_, err := s.GetJobByID(context.Background(), uuid.NewString())
	assert.ErrorIs(t, err, domain.ErrJobNotFound)
}

func TestStorage_DeleteJob(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	job := createJob(t, s, "spider", domain.JobStatusPending, time.Now().UTC())
	require.NoError(t, s.DeleteJob(ctx, job.JobID))

	_, err := s.GetJobByID(ctx, job.JobID)
	assert.ErrorIs(t, err, domain.ErrJobNotFound)

	// deleting twice is harmless
	assert.NoError(t, s.DeleteJob(ctx, job.JobID))
}

func TestStorage_ListJobs(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()
	base := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

	oldest := createJob(t, s, "nmap", domain.JobStatusCompleted, base)
	middle := createJob(t, s, "masscan", domain.JobStatusFailed, base.Add(time.Minute))
	newest := createJob(t, s, "nmap", domain.JobStatusPending, base.Add(2*time.Minute))

	ids := func(jobs []model.Job) []string {
		out := make([]string, len(jobs))
		for i, job := range jobs {
			out[i] = job.JobID
		}
		return out
	}

	tests := []struct {
		name   string
		filter JobFilter
		want   []string
	}{
		{
			name:   "all newest first",
			filter: JobFilter{PageSize: 10},
			want:   []string{newest.JobID, middle.JobID, oldest.JobID},
		},
		{
			name:   "fetches one extra row",
			filter: JobFilter{PageSize: 1},
			want:   []string{newest.JobID, middle.JobID},
		},
		{
			name:   "by kind",
			filter: JobFilter{Kind: "nmap", PageSize: 10},
			want:   []string{newest.JobID, oldest.JobID},
		},
		{
			name:   "by status",
			filter: JobFilter{Status: domain.JobStatusFailed, PageSize: 10},
			want:   []string{middle.JobID},
		},
		{
			name: "after cursor",
			filter: JobFilter{
				PageSize: 10,
				Cursor:   &JobCursor{CreatedAt: newest.CreatedAt, JobID: newest.JobID},
			},
			want: []string{middle.JobID, oldest.JobID},
		},
		{
			name:   "no match",
			filter: JobFilter{Kind: "recon", PageSize: 10},
			want:   []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			jobs, err := s.ListJobs(ctx, tt.filter)
			require.NoError(t, err)
			assert.Equal(t, tt.want, ids(jobs))
		})
	}
}
