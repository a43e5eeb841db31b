package executor

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/cuongbtq/scanhub/internal/worker/domain"
)

// stderrTail is how much of a failed tool's stderr is kept for the job record
const stderrTail = 2048

// ToolRunner runs an external tool that writes its results to a file, then
// hands the file to an importer
type ToolRunner struct {
	TempDir string
	logger  *slog.Logger
}

// NewToolRunner creates a ToolRunner writing output files under tempDir
// (the OS default when empty)
func NewToolRunner(tempDir string, logger *slog.Logger) *ToolRunner {
	return &ToolRunner{TempDir: tempDir, logger: logger}
}

// Run executes binary with the arguments returned by buildArgs for a fresh
// output file. The importer is called exactly once, and only if the tool
// exits with status 0. The output file is always removed.
func (r *ToolRunner) Run(ctx context.Context, binary, outputExt string, buildArgs func(output string) []string, importer FileImporter) error {
	bin, err := exec.LookPath(binary)
	if err != nil {
		return fmt.Errorf("%w: %s", domain.ErrToolNotInstalled, binary)
	}

	output, err := os.CreateTemp(r.TempDir, toolName(binary)+"-*"+outputExt)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	path := output.Name()
	output.Close()
	defer os.Remove(path)

	args := buildArgs(path)

	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, bin, args...)
	cmd.Stderr = &stderr

	r.logger.Info("Running tool",
		slog.String("tool", binary),
		slog.Any("args", args),
	)
	start := time.Now()

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return fmt.Errorf("%s interrupted: %w", binary, ctx.Err())
		}

		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return &domain.ToolFailedError{
				Tool:     binary,
				ExitCode: exitErr.ExitCode(),
				Stderr:   tail(stderr.Bytes(), stderrTail),
			}
		}
		return fmt.Errorf("failed to run %s: %w", binary, err)
	}

	r.logger.Info("Tool finished",
		slog.String("tool", binary),
		slog.Duration("duration", time.Since(start)),
	)

	if err := importer.ImportFile(ctx, path); err != nil {
		return &domain.ImportError{Importer: toolName(binary), Err: err}
	}
	return nil
}

func toolName(binary string) string {
	return filepath.Base(binary)
}

func tail(b []byte, n int) string {
	if len(b) > n {
		b = b[len(b)-n:]
	}
	return string(b)
}
