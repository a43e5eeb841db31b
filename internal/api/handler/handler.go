package handler

import (
	"context"
	"log/slog"

	"github.com/cuongbtq/scanhub/internal/api/model"
	"github.com/cuongbtq/scanhub/internal/api/storage"
	"github.com/cuongbtq/scanhub/internal/jobs"
	"github.com/cuongbtq/scanhub/internal/repos"
)

// JobReader reads recorded jobs
type JobReader interface {
	GetJobByID(ctx context.Context, jobID string) (*model.Job, error)
	ListJobs(ctx context.Context, filter storage.JobFilter) ([]model.Job, error)
}

// JobDispatcher validates and enqueues jobs
type JobDispatcher interface {
	Dispatch(ctx context.Context, kind jobs.Kind, input map[string]any) (*model.Job, error)
}

// RepoReader reads the installed module repositories
type RepoReader interface {
	List() ([]repos.Repository, error)
	Get(ctx context.Context, name string) (*repos.Repository, error)
}

// HealthChecker reports whether the datastore is reachable
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// BrokerStatus reports whether the broker connection is open
type BrokerStatus interface {
	IsConnected() bool
}

// Dependencies holds all dependencies needed by handlers
type Dependencies struct {
	Logger     *slog.Logger
	Storage    JobReader
	Records    RecordReader
	Dispatcher JobDispatcher
	Repos      RepoReader
	DB         HealthChecker
	Broker     BrokerStatus
}

// JobHandler handles job-related HTTP requests
type JobHandler struct {
	logger     *slog.Logger
	storage    JobReader
	dispatcher JobDispatcher
}

// NewJobHandler creates a new JobHandler instance
func NewJobHandler(deps *Dependencies) *JobHandler {
	return &JobHandler{
		logger:     deps.Logger,
		storage:    deps.Storage,
		dispatcher: deps.Dispatcher,
	}
}

// RepoHandler handles module repository requests. Reads are served from the
// cache directory, changes are queued as jobs.
type RepoHandler struct {
	*JobHandler
	repos RepoReader
}

// NewRepoHandler creates a new RepoHandler instance
func NewRepoHandler(deps *Dependencies) *RepoHandler {
	return &RepoHandler{
		JobHandler: NewJobHandler(deps),
		repos:      deps.Repos,
	}
}
