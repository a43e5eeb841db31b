package jobs

import (
	"net/url"
	"regexp"

	"github.com/cuongbtq/scanhub/internal/params"
)

var (
	scpURIRegexp   = regexp.MustCompile(`\A[^@]+@[A-Za-z0-9._-]+(?::\d+)?:[A-Za-z0-9./_-]+\z`)
	repoNameRegexp = regexp.MustCompile(`\A[A-Za-z0-9_-]+\z`)
)

var gitSchemes = map[string]bool{"https": true, "http": true, "git": true, "ssh": true}

// IsGitURI reports whether s is an https://, http://, git://, ssh:// or
// scp-style user@host:path repository URI
func IsGitURI(s string) bool {
	if scpURIRegexp.MatchString(s) {
		return true
	}
	u, err := url.Parse(s)
	if err != nil {
		return false
	}
	return gitSchemes[u.Scheme] && u.Host != ""
}

// RepoName is a repository directory name
var RepoName = params.Format(repoNameRegexp, "repo name must only contain alpha-numeric, dashes, and underscores")

// InstallRepoParams is the schema for repository install jobs
var InstallRepoParams = params.NewSchema(
	params.Required("uri", params.Check(IsGitURI, "URI must be a https:// or a git@host:path/to/repo.git URI")),
	params.Optional("name", RepoName),
)

// RepoNameParams is the schema for jobs that act on one installed repository
var RepoNameParams = params.NewSchema(
	params.Required("name", RepoName),
)
