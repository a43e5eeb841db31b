package executor

import (
	"context"

	"github.com/cuongbtq/scanhub/internal/jobs"
	"github.com/cuongbtq/scanhub/internal/params"
	"github.com/cuongbtq/scanhub/internal/repos"
)

// RepoCache is the repository cache the repo jobs act on
type RepoCache interface {
	Install(ctx context.Context, uri, name string) (*repos.Repository, error)
	Update(ctx context.Context, name string) error
	UpdateAll(ctx context.Context) error
	Remove(name string) error
	Purge() error
}

// RepoExecutor performs one of the repository jobs
type RepoExecutor struct {
	kind  jobs.Kind
	cache RepoCache
}

// RepoExecutors returns an executor for every repository job kind
func RepoExecutors(cache RepoCache) []Executor {
	return []Executor{
		&RepoExecutor{kind: jobs.KindInstallRepo, cache: cache},
		&RepoExecutor{kind: jobs.KindUpdateRepo, cache: cache},
		&RepoExecutor{kind: jobs.KindUpdateRepos, cache: cache},
		&RepoExecutor{kind: jobs.KindRemoveRepo, cache: cache},
		&RepoExecutor{kind: jobs.KindPurgeRepos, cache: cache},
	}
}

func (e *RepoExecutor) Kind() jobs.Kind { return e.kind }

func (e *RepoExecutor) Perform(ctx context.Context, values params.Values) error {
	name, _ := values.String("name")

	switch e.kind {
	case jobs.KindInstallRepo:
		uri, _ := values.String("uri")
		_, err := e.cache.Install(ctx, uri, name)
		return err
	case jobs.KindUpdateRepo:
		return e.cache.Update(ctx, name)
	case jobs.KindUpdateRepos:
		return e.cache.UpdateAll(ctx)
	case jobs.KindRemoveRepo:
		return e.cache.Remove(name)
	case jobs.KindPurgeRepos:
		return e.cache.Purge()
	}
	return nil
}
