package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/gearguard/gearguard-api/internal/service"
	"github.com/gearguard/gearguard-api/pkg/response"
)

// DashboardHandler exposes the admin dashboard endpoint.
type DashboardHandler struct {
	dashboard *service.DashboardService
}

// NewDashboardHandler constructs DashboardHandler.
func NewDashboardHandler(dashboard *service.DashboardService) *DashboardHandler {
	return &DashboardHandler{dashboard: dashboard}
}

// Stats godoc
// @Summary Global dashboard counters
// @Tags Admin
// @Produce json
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /admin/stats [get]
func (h *DashboardHandler) Stats(c *gin.Context) {
	stats, err := h.dashboard.Stats(c.Request.Context(), actorFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, stats)
}
