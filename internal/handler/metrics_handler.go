package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/langufy-api/internal/dto"
	"github.com/noah-isme/langufy-api/internal/service"
)

// Pinger reports whether a backing store is reachable.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// PingFunc adapts a plain ping function to Pinger.
type PingFunc func(ctx context.Context) error

// PingContext calls f.
func (f PingFunc) PingContext(ctx context.Context) error {
	return f(ctx)
}

// MetricsHandler exposes observability endpoints.
type MetricsHandler struct {
	metrics  *service.MetricsService
	database Pinger
	cache    Pinger
}

// NewMetricsHandler constructs a metrics handler. cache may be nil when Redis
// is disabled.
func NewMetricsHandler(metrics *service.MetricsService, database, cache Pinger) *MetricsHandler {
	return &MetricsHandler{metrics: metrics, database: database, cache: cache}
}

// Prometheus serves the Prometheus metrics endpoint.
func (h *MetricsHandler) Prometheus(c *gin.Context) {
	if h.metrics == nil {
		c.Status(http.StatusServiceUnavailable)
		return
	}
	h.metrics.Handler().ServeHTTP(c.Writer, c.Request)
}

// Health godoc
// @Summary Liveness probe
// @Tags Operations
// @Produce json
// @Success 200 {object} dto.HealthStatus
// @Router /health [get]
func (h *MetricsHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, dto.HealthStatus{Status: "ok"})
}

// Ready godoc
// @Summary Readiness probe
// @Description Reports ready once the database answers a ping
// @Tags Operations
// @Produce json
// @Success 200 {object} dto.HealthStatus
// @Failure 503 {object} dto.HealthStatus
// @Router /ready [get]
func (h *MetricsHandler) Ready(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	checks := map[string]string{}
	status := http.StatusOK
	if h.database != nil {
		if err := h.database.PingContext(ctx); err != nil {
			checks["database"] = err.Error()
			status = http.StatusServiceUnavailable
		} else {
			checks["database"] = "ok"
		}
	}
	if h.cache != nil {
		// The cache is optional; a failing Redis only degrades the report.
		if err := h.cache.PingContext(ctx); err != nil {
			checks["cache"] = err.Error()
		} else {
			checks["cache"] = "ok"
		}
	}

	if status != http.StatusOK {
		c.JSON(status, dto.HealthStatus{Status: "unavailable", Checks: checks})
		return
	}
	c.JSON(http.StatusOK, dto.HealthStatus{Status: "ready", Checks: checks})
}
