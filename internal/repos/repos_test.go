package repos

import (
	"context"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCacheDir(t *testing.T) *CacheDir {
	t.Helper()
	return NewCacheDir(filepath.Join(t.TempDir(), "repos"), "git", slog.New(slog.NewTextHandler(io.Discard, nil)))
}

// newUpstream creates a local git repository with a single commit
func newUpstream(t *testing.T) string {
	t.Helper()

	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git is not installed")
	}

	dir := filepath.Join(t.TempDir(), "upstream-repo")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "README.md"), []byte("# upstream\n"), 0o644))

	for _, args := range [][]string{
		{"init", "--quiet"},
		{"add", "README.md"},
		{"-c", "user.name=scanhub", "-c", "user.email=scanhub@example.com", "commit", "--quiet", "-m", "initial"},
	} {
		cmd := exec.Command("git", args...)
		cmd.Dir = dir
		out, err := cmd.CombinedOutput()
		require.NoError(t, err, string(out))
	}

	return dir
}

func TestNameFromURI(t *testing.T) {
	tests := []struct {
		uri  string
		want string
	}{
		{uri: "https://github.com/org/my-repo.git", want: "my-repo"},
		{uri: "https://github.com/org/my-repo", want: "my-repo"},
		{uri: "https://github.com/org/my-repo/", want: "my-repo"},
		{uri: "git@github.com:org/my_repo.git", want: "my_repo"},
		{uri: "git@github.com:repo.git", want: "repo"},
	}

	for _, tt := range tests {
		t.Run(tt.uri, func(t *testing.T) {
			assert.Equal(t, tt.want, NameFromURI(tt.uri))
		})
	}
}

func TestCacheDir_List_MissingDir(t *testing.T) {
	repos, err := newTestCacheDir(t).List()
	require.NoError(t, err)
	assert.Empty(t, repos)
}

func TestCacheDir_InvalidName(t *testing.T) {
	cache := newTestCacheDir(t)

	_, err := cache.Get(context.Background(), "../etc")
	assert.ErrorIs(t, err, ErrInvalidName)
	assert.ErrorIs(t, cache.Remove(".."), ErrInvalidName)
}

func TestCacheDir_NotFound(t *testing.T) {
	cache := newTestCacheDir(t)
	ctx := context.Background()

	_, err := cache.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrRepositoryNotFound)
	assert.ErrorIs(t, cache.Update(ctx, "missing"), ErrRepositoryNotFound)
	assert.ErrorIs(t, cache.Remove("missing"), ErrRepositoryNotFound)
}

func TestCacheDir_Lifecycle(t *testing.T) {
	upstream := newUpstream(t)
	cache := newTestCacheDir(t)
	ctx := context.Background()

	repo, err := cache.Install(ctx, upstream, "")
	require.NoError(t, err)
	assert.Equal(t, "upstream-repo", repo.Name)
	assert.Equal(t, upstream, repo.URI)
	assert.Len(t, repo.Commit, 40)
	assert.FileExists(t, filepath.Join(repo.Path, "README.md"))

	_, err = cache.Install(ctx, upstream, "")
	assert.ErrorIs(t, err, ErrRepositoryExists)

	_, err = cache.Install(ctx, upstream, "second")
	require.NoError(t, err)

	repos, err := cache.List()
	require.NoError(t, err)
	require.Len(t, repos, 2)
	assert.Equal(t, "second", repos[0].Name)
	assert.Equal(t, "upstream-repo", repos[1].Name)

	require.NoError(t, cache.Update(ctx, "second"))
	require.NoError(t, cache.UpdateAll(ctx))

	require.NoError(t, cache.Remove("second"))
	_, err = cache.Get(ctx, "second")
	assert.ErrorIs(t, err, ErrRepositoryNotFound)

	require.NoError(t, cache.Purge())
	repos, err = cache.List()
	require.NoError(t, err)
	assert.Empty(t, repos)
}

func TestCacheDir_Install_CloneFailure(t *testing.T) {
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git is not installed")
	}
	cache := newTestCacheDir(t)

	_, err := cache.Install(context.Background(), filepath.Join(t.TempDir(), "nope.git"), "")
	assert.ErrorContains(t, err, "git clone failed")

	_, err = cache.Get(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrRepositoryNotFound)
}
