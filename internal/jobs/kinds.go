// Package jobs declares the closed set of background job kinds and the single
// parameter schema each kind is validated against, both when a job is
// submitted and again when a worker executes it.
package jobs

import (
	"errors"
	"fmt"

	"github.com/cuongbtq/scanhub/internal/params"
)

// Kind names a category of background work
type Kind string

const (
	KindNmap        Kind = "nmap"
	KindMasscan     Kind = "masscan"
	KindSpider      Kind = "spider"
	KindRecon       Kind = "recon"
	KindVulns       Kind = "vulns"
	KindImport      Kind = "import"
	KindInstallRepo Kind = "install_repo"
	KindUpdateRepo  Kind = "update_repo"
	KindUpdateRepos Kind = "update_repos"
	KindRemoveRepo  Kind = "remove_repo"
	KindPurgeRepos  Kind = "purge_repos"
)

// ErrUnknownKind is returned when a job kind is not registered
var ErrUnknownKind = errors.New("unknown job kind")

var schemas = map[Kind]*params.Schema{
	KindNmap:        NmapParams,
	KindMasscan:     MasscanParams,
	KindSpider:      SpiderParams,
	KindRecon:       ReconParams,
	KindVulns:       VulnsParams,
	KindImport:      ImportParams,
	KindInstallRepo: InstallRepoParams,
	KindUpdateRepo:  RepoNameParams,
	KindUpdateRepos: params.NewSchema(),
	KindRemoveRepo:  RepoNameParams,
	KindPurgeRepos:  params.NewSchema(),
}

// Kinds lists every registered job kind
func Kinds() []Kind {
	return []Kind{
		KindNmap, KindMasscan, KindSpider, KindRecon, KindVulns, KindImport,
		KindInstallRepo, KindUpdateRepo, KindUpdateRepos, KindRemoveRepo, KindPurgeRepos,
	}
}

// Lookup returns the schema for kind
func Lookup(kind Kind) (*params.Schema, error) {
	schema, ok := schemas[kind]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
	return schema, nil
}

// Validate validates input against the schema of kind
func Validate(kind Kind, input map[string]any) (params.Values, error) {
	schema, err := Lookup(kind)
	if err != nil {
		return nil, err
	}
	return schema.Validate(input)
}
