package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/gearguard/gearguard-api/internal/models"
	"github.com/gearguard/gearguard-api/internal/service"
	appErrors "github.com/gearguard/gearguard-api/pkg/errors"
	"github.com/gearguard/gearguard-api/pkg/response"
)

// DepartmentHandler exposes department endpoints.
type DepartmentHandler struct {
	departments *service.DepartmentService
}

// NewDepartmentHandler constructs DepartmentHandler.
func NewDepartmentHandler(departments *service.DepartmentService) *DepartmentHandler {
	return &DepartmentHandler{departments: departments}
}

// List godoc
// @Summary List departments
// @Tags Departments
// @Produce json
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /departments [get]
func (h *DepartmentHandler) List(c *gin.Context) {
	departments, err := h.departments.List(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, departments)
}

// Get godoc
// @Summary Get department
// @Tags Departments
// @Produce json
// @Param id path string true "Department ID"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /departments/{id} [get]
func (h *DepartmentHandler) Get(c *gin.Context) {
	department, err := h.departments.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, department)
}

// Create godoc
// @Summary Create department
// @Tags Departments
// @Accept json
// @Produce json
// @Param payload body models.CreateDepartmentRequest true "Department payload"
// @Success 201 {object} response.Envelope
// @Security BearerAuth
// @Router /departments [post]
func (h *DepartmentHandler) Create(c *gin.Context) {
	var req models.CreateDepartmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	department, err := h.departments.Create(c.Request.Context(), actorFromContext(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, department)
}

// Update godoc
// @Summary Update department
// @Tags Departments
// @Accept json
// @Produce json
// @Param id path string true "Department ID"
// @Param payload body models.UpdateDepartmentRequest true "Department payload"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /departments/{id} [put]
func (h *DepartmentHandler) Update(c *gin.Context) {
	var req models.UpdateDepartmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	department, err := h.departments.Update(c.Request.Context(), actorFromContext(c), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, department)
}

// Delete godoc
// @Summary Delete department
// @Tags Departments
// @Param id path string true "Department ID"
// @Success 204
// @Security BearerAuth
// @Router /departments/{id} [delete]
func (h *DepartmentHandler) Delete(c *gin.Context) {
	if err := h.departments.Delete(c.Request.Context(), actorFromContext(c), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
