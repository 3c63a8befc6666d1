package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/gearguard/gearguard-api/internal/models"
	"github.com/gearguard/gearguard-api/internal/service"
	appErrors "github.com/gearguard/gearguard-api/pkg/errors"
	"github.com/gearguard/gearguard-api/pkg/response"
)

// EquipmentHandler exposes equipment endpoints.
type EquipmentHandler struct {
	equipment *service.EquipmentService
}

// NewEquipmentHandler constructs EquipmentHandler.
func NewEquipmentHandler(equipment *service.EquipmentService) *EquipmentHandler {
	return &EquipmentHandler{equipment: equipment}
}

// List godoc
// @Summary List equipment
// @Tags Equipment
// @Produce json
// @Param search query string false "Search by name or serial number"
// @Param department query string false "Filter by department"
// @Param category query string false "Filter by category"
// @Param teamId query string false "Filter by team"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /equipment [get]
func (h *EquipmentHandler) List(c *gin.Context) {
	filter := models.EquipmentFilter{
		Search:     strings.TrimSpace(c.Query("search")),
		Department: c.Query("department"),
		Category:   c.Query("category"),
		TeamID:     c.Query("teamId"),
	}
	list, err := h.equipment.List(c.Request.Context(), actorFromContext(c), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, list)
}

// Get godoc
// @Summary Get equipment detail
// @Tags Equipment
// @Produce json
// @Param id path string true "Equipment ID"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /equipment/{id} [get]
func (h *EquipmentHandler) Get(c *gin.Context) {
	equipment, err := h.equipment.Get(c.Request.Context(), actorFromContext(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, equipment)
}

// Create godoc
// @Summary Register equipment
// @Tags Equipment
// @Accept json
// @Produce json
// @Param payload body models.CreateEquipmentRequest true "Equipment payload"
// @Success 201 {object} response.Envelope
// @Security BearerAuth
// @Router /equipment [post]
func (h *EquipmentHandler) Create(c *gin.Context) {
	var req models.CreateEquipmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	equipment, err := h.equipment.Create(c.Request.Context(), actorFromContext(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, equipment)
}

// Update godoc
// @Summary Update equipment
// @Tags Equipment
// @Accept json
// @Produce json
// @Param id path string true "Equipment ID"
// @Param payload body models.UpdateEquipmentRequest true "Equipment payload"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /equipment/{id} [put]
func (h *EquipmentHandler) Update(c *gin.Context) {
	var req models.UpdateEquipmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	equipment, err := h.equipment.Update(c.Request.Context(), actorFromContext(c), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, equipment)
}

// Delete godoc
// @Summary Delete equipment
// @Tags Equipment
// @Param id path string true "Equipment ID"
// @Success 204
// @Security BearerAuth
// @Router /equipment/{id} [delete]
func (h *EquipmentHandler) Delete(c *gin.Context) {
	if err := h.equipment.Delete(c.Request.Context(), actorFromContext(c), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
