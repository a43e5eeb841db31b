package executor

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cuongbtq/scanhub/internal/worker/domain"
)

type fakeFileImporter struct {
	calls   []string
	existed []bool
	err     error
}

func (f *fakeFileImporter) ImportFile(_ context.Context, path string) error {
	f.calls = append(f.calls, path)
	_, err := os.Stat(path)
	f.existed = append(f.existed, err == nil)
	return f.err
}

func newTestRunner(t *testing.T) *ToolRunner {
	t.Helper()
	return NewToolRunner(t.TempDir(), slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func requireBinary(t *testing.T, name string) {
	t.Helper()
	if _, err := exec.LookPath(name); err != nil {
		t.Skipf("%s is not available", name)
	}
}

func assertTempDirEmpty(t *testing.T, dir string) {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestToolRunner_Run_NotInstalled(t *testing.T) {
	runner := newTestRunner(t)
	importer := &fakeFileImporter{}

	built := false
	err := runner.Run(context.Background(), "scanhub-no-such-tool", ".xml", func(string) []string {
		built = true
		return nil
	}, importer)

	assert.ErrorIs(t, err, domain.ErrToolNotInstalled)
	assert.ErrorContains(t, err, "scanhub-no-such-tool")
	assert.False(t, built)
	assert.Empty(t, importer.calls)
	assertTempDirEmpty(t, runner.TempDir)
}

func TestToolRunner_Run_Success(t *testing.T) {
	requireBinary(t, "true")
	runner := newTestRunner(t)
	importer := &fakeFileImporter{}

	var output string
	err := runner.Run(context.Background(), "true", ".xml", func(path string) []string {
		output = path
		return []string{"-oX", path}
	}, importer)
	require.NoError(t, err)

	require.Len(t, importer.calls, 1)
	assert.Equal(t, output, importer.calls[0])
	assert.True(t, importer.existed[0], "output file exists while importing")
	assert.Regexp(t, `true-\d+\.xml$`, output)
	assertTempDirEmpty(t, runner.TempDir)
}

func TestToolRunner_Run_ImportFails(t *testing.T) {
	requireBinary(t, "true")
	runner := newTestRunner(t)
	importErr := errors.New("disk full")
	importer := &fakeFileImporter{err: importErr}

	err := runner.Run(context.Background(), "true", ".bin", func(string) []string { return nil }, importer)

	var ie *domain.ImportError
	require.ErrorAs(t, err, &ie)
	assert.Equal(t, "true", ie.Importer)
	assert.ErrorIs(t, err, importErr)
	assert.Len(t, importer.calls, 1)
	assertTempDirEmpty(t, runner.TempDir)
}

func TestToolRunner_Run_NonZeroExit(t *testing.T) {
	requireBinary(t, "false")
	runner := newTestRunner(t)
	importer := &fakeFileImporter{}

	err := runner.Run(context.Background(), "false", ".xml", func(string) []string { return nil }, importer)

	var tf *domain.ToolFailedError
	require.ErrorAs(t, err, &tf)
	assert.Equal(t, "false", tf.Tool)
	assert.Equal(t, 1, tf.ExitCode)
	assert.Empty(t, importer.calls)
	assertTempDirEmpty(t, runner.TempDir)
}

func TestToolRunner_Run_Cancelled(t *testing.T) {
	requireBinary(t, "sleep")
	runner := newTestRunner(t)
	importer := &fakeFileImporter{}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	err := runner.Run(ctx, "sleep", ".xml", func(string) []string { return []string{"10"} }, importer)

	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Empty(t, importer.calls)
	assertTempDirEmpty(t, runner.TempDir)
}

func TestTail(t *testing.T) {
	assert.Equal(t, "abc", tail([]byte("abc"), 5))
	assert.Equal(t, "cde", tail([]byte("abcde"), 3))
}
