// Package executor runs the work behind each job kind: shelling out to the
// external scanners, crawling, importing files and managing repositories.
package executor

import (
	"context"
	"fmt"

	"github.com/cuongbtq/scanhub/internal/jobs"
	"github.com/cuongbtq/scanhub/internal/params"
	"github.com/cuongbtq/scanhub/internal/worker/domain"
)

// Executor performs one kind of job with already validated params
type Executor interface {
	Kind() jobs.Kind
	Perform(ctx context.Context, values params.Values) error
}

// FileImporter imports a tool output file
type FileImporter interface {
	ImportFile(ctx context.Context, path string) error
}

// Registry routes jobs to their executor
type Registry struct {
	executors map[jobs.Kind]Executor
}

// NewRegistry creates a Registry from executors
func NewRegistry(executors ...Executor) *Registry {
	r := &Registry{executors: make(map[jobs.Kind]Executor, len(executors))}
	for _, e := range executors {
		r.executors[e.Kind()] = e
	}
	return r
}

// Kinds returns the job kinds with a registered executor
func (r *Registry) Kinds() []jobs.Kind {
	kinds := make([]jobs.Kind, 0, len(r.executors))
	for _, kind := range jobs.Kinds() {
		if _, ok := r.executors[kind]; ok {
			kinds = append(kinds, kind)
		}
	}
	return kinds
}

// Execute re-validates the raw params of a job against its kind's schema and
// runs the kind's executor
func (r *Registry) Execute(ctx context.Context, kind string, input map[string]any) error {
	executor, ok := r.executors[jobs.Kind(kind)]
	if !ok {
		return fmt.Errorf("%w: %q", jobs.ErrUnknownKind, kind)
	}

	values, err := jobs.Validate(jobs.Kind(kind), input)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrInvalidParams, err)
	}

	return executor.Perform(ctx, values)
}
