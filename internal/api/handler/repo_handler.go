package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/cuongbtq/scanhub/internal/jobs"
	"github.com/cuongbtq/scanhub/internal/repos"
)

// ListRepos handles GET /api/v1/repos
func (h *RepoHandler) ListRepos(c *gin.Context) {
	list, err := h.repos.List()
	if err != nil {
		h.logger.Error("Failed to list repositories", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to list repositories",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"repos": list,
	})
}

// GetRepo handles GET /api/v1/repos/:name
func (h *RepoHandler) GetRepo(c *gin.Context) {
	repo, ok := h.lookup(c)
	if !ok {
		return
	}

	c.JSON(http.StatusOK, repo)
}

// UpdateRepo handles POST /api/v1/repos/:name/update
func (h *RepoHandler) UpdateRepo(c *gin.Context) {
	h.dispatchForRepo(c, jobs.KindUpdateRepo)
}

// RemoveRepo handles DELETE /api/v1/repos/:name
func (h *RepoHandler) RemoveRepo(c *gin.Context) {
	h.dispatchForRepo(c, jobs.KindRemoveRepo)
}

// dispatchForRepo queues a job for an installed repository
func (h *RepoHandler) dispatchForRepo(c *gin.Context, kind jobs.Kind) {
	repo, ok := h.lookup(c)
	if !ok {
		return
	}

	h.dispatch(c, kind, map[string]any{"name": repo.Name})
}

// lookup writes the error response itself when the repository cannot be read
func (h *RepoHandler) lookup(c *gin.Context) (*repos.Repository, bool) {
	name := c.Param("name")

	repo, err := h.repos.Get(c.Request.Context(), name)
	switch {
	case err == nil:
		return repo, true
	case errors.Is(err, repos.ErrRepositoryNotFound):
		c.JSON(http.StatusNotFound, gin.H{
			"error": "Repository not found",
		})
	case errors.Is(err, repos.ErrInvalidName):
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid repository name",
		})
	default:
		h.logger.Error("Failed to get repository",
			slog.String("name", name),
			slog.String("error", err.Error()),
		)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to get repository",
		})
	}
	return nil, false
}
