package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrJobNotFound is returned when a job cannot be found in the database
	ErrJobNotFound = errors.New("job not found")

	// ErrJobAlreadyClaimed is returned when attempting to claim a job that's already claimed
	ErrJobAlreadyClaimed = errors.New("job already claimed or not in PENDING status")

	// ErrInvalidPayload is returned when a queue message cannot be decoded
	ErrInvalidPayload = errors.New("invalid job payload")

	// ErrInvalidParams is returned when a job's params fail re-validation
	ErrInvalidParams = errors.New("invalid job params")

	// ErrToolNotInstalled is returned when an external tool is not on the PATH
	ErrToolNotInstalled = errors.New("tool is not installed")
)

// ToolFailedError is returned when an external tool ran and exited with a
// non-zero status
type ToolFailedError struct {
	Tool     string
	ExitCode int
	Stderr   string
}

func (e *ToolFailedError) Error() string {
	msg := fmt.Sprintf("%s exited with status %d", e.Tool, e.ExitCode)
	if stderr := strings.TrimSpace(e.Stderr); stderr != "" {
		msg += ": " + stderr
	}
	return msg
}

// ImportError wraps a failure reported by an importer
type ImportError struct {
	Importer string
	Path     string
	Err      error
}

func (e *ImportError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("%s import failed: %v", e.Importer, e.Err)
	}
	return fmt.Sprintf("%s import of %s failed: %v", e.Importer, e.Path, e.Err)
}

func (e *ImportError) Unwrap() error {
	return e.Err
}
