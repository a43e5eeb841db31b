package executor

import (
	"log/slog"

	"github.com/cuongbtq/scanhub/internal/config"
	"github.com/cuongbtq/scanhub/internal/importer"
	"github.com/cuongbtq/scanhub/internal/jobs"
)

// Deps are the collaborators of the built-in executors
type Deps struct {
	Logger *slog.Logger
	Store  *importer.Store
	Repos  RepoCache
	Tools  config.ToolsConfig
	Spider config.SpiderConfig
}

// NewDefaultRegistry registers an executor for every job kind
func NewDefaultRegistry(d Deps) *Registry {
	runner := NewToolRunner(d.Tools.TempDir, d.Logger)

	nmapImporter := importer.NewNmapImporter(d.Store)
	masscanImporter := importer.NewMasscanImporter(d.Store, d.Tools.Masscan, d.Tools.TempDir)

	executors := []Executor{
		NewNmapExecutor(runner, d.Tools.Nmap, d.Tools.Unprivileged, nmapImporter),
		NewMasscanExecutor(runner, d.Tools.Masscan, masscanImporter),
		NewReconExecutor(runner, d.Tools.RoninRecon, importer.NewReconImporter(d.Store)),
		NewVulnsExecutor(runner, d.Tools.RoninVulns, importer.NewVulnsImporter(d.Store)),
		NewSpiderExecutor(d.Logger, d.Spider.UserAgent, d.Spider.ImportBuffer, importer.NewURLImporter(d.Store)),
		NewImportExecutor(map[string]FileImporter{
			jobs.ImportNmap:    nmapImporter,
			jobs.ImportMasscan: masscanImporter,
		}),
	}
	executors = append(executors, RepoExecutors(d.Repos)...)

	return NewRegistry(executors...)
}
