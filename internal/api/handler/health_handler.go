package handler

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
)

// HealthHandler reports service health
type HealthHandler struct {
	logger  *slog.Logger
	service string
	db      HealthChecker
	broker  BrokerStatus
}

// NewHealthHandler creates a new HealthHandler instance
func NewHealthHandler(service string, deps *Dependencies) *HealthHandler {
	return &HealthHandler{
		logger:  deps.Logger,
		service: service,
		db:      deps.DB,
		broker:  deps.Broker,
	}
}

// Health handles GET /health
// Responds 503 when the datastore or the broker is unavailable
func (h *HealthHandler) Health(c *gin.Context) {
	status := http.StatusOK
	checks := gin.H{}

	if h.db != nil {
		checks["database"] = "ok"
		if err := h.db.HealthCheck(c.Request.Context()); err != nil {
			h.logger.Warn("Database health check failed", slog.Any("error", err))
			checks["database"] = "unavailable"
			status = http.StatusServiceUnavailable
		}
	}

	if h.broker != nil {
		checks["rabbitmq"] = "ok"
		if !h.broker.IsConnected() {
			checks["rabbitmq"] = "unavailable"
			status = http.StatusServiceUnavailable
		}
	}

	healthy := "healthy"
	if status != http.StatusOK {
		healthy = "unhealthy"
	}

	c.JSON(status, gin.H{
		"status":  healthy,
		"service": h.service,
		"checks":  checks,
	})
}
