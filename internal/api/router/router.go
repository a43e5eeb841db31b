package router

import (
	"github.com/gin-gonic/gin"

	"github.com/cuongbtq/scanhub/internal/api/handler"
	"github.com/cuongbtq/scanhub/internal/jobs"
)

// SetupRouter configures and returns the Gin router with all routes
func SetupRouter(deps *handler.Dependencies) *gin.Engine {
	r := gin.New()

	// Middleware
	r.Use(gin.Recovery())
	r.Use(RequestIDMiddleware())
	r.Use(LoggerMiddleware(deps.Logger))
	r.Use(CORSMiddleware())

	// Health check endpoint
	r.GET("/health", handler.NewHealthHandler("scanhub-api-service", deps).Health)

	jobHandler := handler.NewJobHandler(deps)
	repoHandler := handler.NewRepoHandler(deps)
	recordHandler := handler.NewRecordHandler(deps)

	// API v1 routes
	v1 := r.Group("/api/v1")
	{
		scans := v1.Group("/scans")
		{
			scans.POST("/nmap", jobHandler.SubmitJob(jobs.KindNmap))
			scans.POST("/masscan", jobHandler.SubmitJob(jobs.KindMasscan))
			scans.POST("/spider", jobHandler.SubmitJob(jobs.KindSpider))
			scans.POST("/recon", jobHandler.SubmitJob(jobs.KindRecon))
			scans.POST("/vulns", jobHandler.SubmitJob(jobs.KindVulns))
		}

		// POST /api/v1/imports - Import an existing nmap or masscan output file
		v1.POST("/imports", jobHandler.SubmitJob(jobs.KindImport))

		repos := v1.Group("/repos")
		{
			repos.GET("", repoHandler.ListRepos)
			repos.GET("/:name", repoHandler.GetRepo)

			// POST /api/v1/repos - Install a repository
			repos.POST("", jobHandler.SubmitJob(jobs.KindInstallRepo))

			// POST /api/v1/repos/update - Update every installed repository
			repos.POST("/update", jobHandler.SubmitJob(jobs.KindUpdateRepos))

			repos.POST("/:name/update", repoHandler.UpdateRepo)
			repos.DELETE("/:name", repoHandler.RemoveRepo)

			// DELETE /api/v1/repos - Remove every installed repository
			repos.DELETE("", jobHandler.SubmitJob(jobs.KindPurgeRepos))
		}

		// Imported records, read only
		db := v1.Group("/db")
		{
			db.GET("", recordHandler.Counts)
			db.GET("/hosts", recordHandler.ListHosts())
			db.GET("/hosts/:id", recordHandler.GetHost())
			db.GET("/host_names", recordHandler.ListHostNames())
			db.GET("/host_names/:id", recordHandler.GetHostName())
			db.GET("/ports", recordHandler.ListPorts())
			db.GET("/ports/:id", recordHandler.GetPort())
			db.GET("/open_ports", recordHandler.ListOpenPorts())
			db.GET("/open_ports/:id", recordHandler.GetOpenPort())
			db.GET("/urls", recordHandler.ListURLs())
			db.GET("/urls/:id", recordHandler.GetURL())
			db.GET("/recon_values", recordHandler.ListReconValues())
			db.GET("/recon_values/:id", recordHandler.GetReconValue())
			db.GET("/vulns", recordHandler.ListVulns())
			db.GET("/vulns/:id", recordHandler.GetVuln())
		}

		jobRoutes := v1.Group("/jobs")
		{
			// GET /api/v1/jobs - List jobs with filtering and pagination
			jobRoutes.GET("", jobHandler.ListJobs)

			// GET /api/v1/jobs/:job_id - Get job details
			jobRoutes.GET("/:job_id", jobHandler.GetJob)
		}
	}

	return r
}
