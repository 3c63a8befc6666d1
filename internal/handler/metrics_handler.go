package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/gearguard/gearguard-api/internal/service"
)

// MetricsHandler serves the Prometheus scrape endpoint.
type MetricsHandler struct {
	metrics *service.MetricsService
}

// NewMetricsHandler constructs MetricsHandler.
func NewMetricsHandler(metrics *service.MetricsService) *MetricsHandler {
	return &MetricsHandler{metrics: metrics}
}

// Serve exposes the registry as a gin handler.
func (h *MetricsHandler) Serve(c *gin.Context) {
	h.metrics.Handler().ServeHTTP(c.Writer, c.Request)
}
