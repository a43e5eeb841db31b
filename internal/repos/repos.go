// Package repos manages the git repositories of third-party modules kept in
// a local cache directory, one sub-directory per repository.
package repos

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

var (
	// ErrRepositoryNotFound is returned when no repository has the given name
	ErrRepositoryNotFound = errors.New("repository not found")
	// ErrRepositoryExists is returned when installing over an existing repository
	ErrRepositoryExists = errors.New("repository already exists")
	// ErrInvalidName is returned for names that would escape the cache directory
	ErrInvalidName = errors.New("invalid repository name")
)

// Repository is an installed repository
type Repository struct {
	Name      string    `json:"name"`
	Path      string    `json:"path"`
	URI       string    `json:"uri,omitempty"`
	Commit    string    `json:"commit,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CacheDir is the directory repositories are installed into
type CacheDir struct {
	Path   string
	Git    string
	logger *slog.Logger
}

// NewCacheDir creates a CacheDir rooted at dir, using the git binary at gitPath
func NewCacheDir(dir, gitPath string, logger *slog.Logger) *CacheDir {
	if gitPath == "" {
		gitPath = "git"
	}
	return &CacheDir{Path: dir, Git: gitPath, logger: logger}
}

// NameFromURI derives a repository name from its URI:
// "https://github.com/org/my-repo.git" becomes "my-repo"
func NameFromURI(uri string) string {
	uri = strings.TrimRight(uri, "/")
	if i := strings.LastIndexAny(uri, "/:"); i >= 0 {
		uri = uri[i+1:]
	}
	return strings.TrimSuffix(path.Base(uri), ".git")
}

func (c *CacheDir) repoPath(name string) (string, error) {
	if name == "" || name == "." || name == ".." || strings.ContainsAny(name, `/\`) {
		return "", fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return filepath.Join(c.Path, name), nil
}

// List returns the installed repositories sorted by name
func (c *CacheDir) List() ([]Repository, error) {
	entries, err := os.ReadDir(c.Path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []Repository{}, nil
		}
		return nil, fmt.Errorf("failed to read cache dir: %w", err)
	}

	repos := make([]Repository, 0, len(entries))
	for _, entry := range entries {
		if !entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}

		repo := Repository{Name: entry.Name(), Path: filepath.Join(c.Path, entry.Name())}
		if info, err := entry.Info(); err == nil {
			repo.UpdatedAt = info.ModTime().UTC()
		}
		repos = append(repos, repo)
	}

	sort.Slice(repos, func(i, j int) bool { return repos[i].Name < repos[j].Name })
	return repos, nil
}

// Get returns the named repository along with its remote and HEAD commit
func (c *CacheDir) Get(ctx context.Context, name string) (*Repository, error) {
	dir, err := c.repoPath(name)
	if err != nil {
		return nil, err
	}

	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return nil, fmt.Errorf("%w: %s", ErrRepositoryNotFound, name)
	}

	repo := &Repository{Name: name, Path: dir, UpdatedAt: info.ModTime().UTC()}

	if out, err := c.git(ctx, dir, "config", "--get", "remote.origin.url"); err == nil {
		repo.URI = out
	}
	if out, err := c.git(ctx, dir, "rev-parse", "HEAD"); err == nil {
		repo.Commit = out
	}

	return repo, nil
}

// Install clones uri into the cache directory. name defaults to the URI's
// basename without the .git suffix.
func (c *CacheDir) Install(ctx context.Context, uri, name string) (*Repository, error) {
	if name == "" {
		name = NameFromURI(uri)
	}

	dir, err := c.repoPath(name)
	if err != nil {
		return nil, err
	}
	if _, err := os.Stat(dir); err == nil {
		return nil, fmt.Errorf("%w: %s", ErrRepositoryExists, name)
	}

	if err := os.MkdirAll(c.Path, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create cache dir: %w", err)
	}

	c.logger.Info("Installing repository",
		slog.String("name", name),
		slog.String("uri", uri),
	)

	if _, err := c.git(ctx, "", "clone", "--quiet", "--", uri, dir); err != nil {
		os.RemoveAll(dir)
		return nil, err
	}

	return c.Get(ctx, name)
}

// Update pulls the latest commits of the named repository
func (c *CacheDir) Update(ctx context.Context, name string) error {
	repo, err := c.Get(ctx, name)
	if err != nil {
		return err
	}

	c.logger.Info("Updating repository", slog.String("name", name))

	if _, err := c.git(ctx, repo.Path, "pull", "--quiet", "--ff-only"); err != nil {
		return err
	}

	now := time.Now()
	return os.Chtimes(repo.Path, now, now)
}

// UpdateAll updates every installed repository, continuing past failures
func (c *CacheDir) UpdateAll(ctx context.Context) error {
	repos, err := c.List()
	if err != nil {
		return err
	}

	var errs []error
	for _, repo := range repos {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := c.Update(ctx, repo.Name); err != nil {
			c.logger.Error("Failed to update repository",
				slog.String("name", repo.Name),
				slog.Any("error", err),
			)
			errs = append(errs, fmt.Errorf("%s: %w", repo.Name, err))
		}
	}

	return errors.Join(errs...)
}

// Remove deletes the named repository
func (c *CacheDir) Remove(name string) error {
	dir, err := c.repoPath(name)
	if err != nil {
		return err
	}
	if _, err := os.Stat(dir); err != nil {
		return fmt.Errorf("%w: %s", ErrRepositoryNotFound, name)
	}

	c.logger.Info("Removing repository", slog.String("name", name))

	return os.RemoveAll(dir)
}

// Purge deletes every installed repository
func (c *CacheDir) Purge() error {
	repos, err := c.List()
	if err != nil {
		return err
	}

	c.logger.Info("Purging repositories", slog.Int("count", len(repos)))

	for _, repo := range repos {
		if err := os.RemoveAll(repo.Path); err != nil {
			return fmt.Errorf("failed to remove %s: %w", repo.Name, err)
		}
	}
	return nil
}

// git runs a git sub-command, inside dir when it is set
func (c *CacheDir) git(ctx context.Context, dir string, args ...string) (string, error) {
	var stdout, stderr bytes.Buffer

	cmd := exec.CommandContext(ctx, c.Git, args...)
	cmd.Dir = dir
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	cmd.Env = append(os.Environ(), "GIT_TERMINAL_PROMPT=0")

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", fmt.Errorf("git %s failed: %w: %s", args[0], err, strings.TrimSpace(stderr.String()))
	}

	return strings.TrimSpace(stdout.String()), nil
}
