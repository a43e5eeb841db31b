package executor

import (
	"context"
	"errors"
	"fmt"

	"github.com/cuongbtq/scanhub/internal/importer"
	"github.com/cuongbtq/scanhub/internal/jobs"
	"github.com/cuongbtq/scanhub/internal/params"
	"github.com/cuongbtq/scanhub/internal/worker/domain"
)

// ImportExecutor imports an existing scan output file
type ImportExecutor struct {
	importers map[string]FileImporter
}

// NewImportExecutor creates an ImportExecutor from a map of import type
// (nmap, masscan) to importer
func NewImportExecutor(importers map[string]FileImporter) *ImportExecutor {
	return &ImportExecutor{importers: importers}
}

func (e *ImportExecutor) Kind() jobs.Kind { return jobs.KindImport }

func (e *ImportExecutor) Perform(ctx context.Context, values params.Values) error {
	typ, _ := values.String("type")
	path, _ := values.String("path")

	fileImporter, ok := e.importers[typ]
	if !ok {
		return fmt.Errorf("%w: no importer for %q", domain.ErrInvalidParams, typ)
	}

	if err := fileImporter.ImportFile(ctx, path); err != nil {
		importErr := &domain.ImportError{Importer: typ, Path: path, Err: err}
		if errors.Is(err, importer.ErrToolNotInstalled) {
			return fmt.Errorf("%w: %w", domain.ErrToolNotInstalled, importErr)
		}
		return importErr
	}
	return nil
}
