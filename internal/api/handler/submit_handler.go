package handler

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"

	"github.com/cuongbtq/scanhub/internal/api/dto"
	"github.com/cuongbtq/scanhub/internal/dispatch"
	"github.com/cuongbtq/scanhub/internal/jobs"
	"github.com/cuongbtq/scanhub/internal/params"
)

// SubmitJob returns a handler that enqueues a job of the given kind with the
// request body as its params. Scans, imports and repository installs all go
// through it.
func (h *JobHandler) SubmitJob(kind jobs.Kind) gin.HandlerFunc {
	return func(c *gin.Context) {
		h.logger.Info("SubmitJob called",
			slog.String("method", c.Request.Method),
			slog.String("path", c.Request.URL.Path),
			slog.String("kind", string(kind)),
		)

		input, err := bindInput(c)
		if err != nil {
			h.logger.Error("Invalid request body", slog.String("error", err.Error()))
			c.JSON(http.StatusBadRequest, gin.H{
				"error": "Invalid request body",
			})
			return
		}

		h.dispatch(c, kind, input)
	}
}

// dispatch enqueues the job and writes the response
func (h *JobHandler) dispatch(c *gin.Context, kind jobs.Kind, input map[string]any) {
	job, err := h.dispatcher.Dispatch(c.Request.Context(), kind, input)
	if err != nil {
		var errs params.Errors
		switch {
		case errors.As(err, &errs):
			h.logger.Info("Rejected invalid params",
				slog.String("kind", string(kind)),
				slog.Any("fields", errs.Fields()),
			)
			c.JSON(http.StatusBadRequest, dto.ValidationErrorResponse{
				Error:  "Invalid params",
				Errors: errs,
			})
		case errors.Is(err, dispatch.ErrEnqueueFailed):
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"error": "Failed to enqueue job",
			})
		default:
			h.logger.Error("Failed to create job", slog.String("error", err.Error()))
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Failed to create job",
			})
		}
		return
	}

	c.JSON(http.StatusAccepted, dto.JobAcceptedResponse{
		JobID:   job.JobID,
		Kind:    job.Kind,
		Status:  job.Status,
		Message: fmt.Sprintf("%s job enqueued", job.Kind),
	})
}

// bindInput reads a JSON object body, or form and query fields otherwise.
// An empty JSON body is an empty input.
func bindInput(c *gin.Context) (map[string]any, error) {
	switch c.ContentType() {
	case binding.MIMEJSON:
		input := map[string]any{}
		if err := c.ShouldBindJSON(&input); err != nil && !errors.Is(err, io.EOF) {
			return nil, err
		}
		return input, nil
	case binding.MIMEMultipartPOSTForm:
		if _, err := c.MultipartForm(); err != nil {
			return nil, err
		}
	default:
		if err := c.Request.ParseForm(); err != nil {
			return nil, err
		}
	}
	return params.FormInput(c.Request.Form), nil
}
