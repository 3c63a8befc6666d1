package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/gearguard/gearguard-api/internal/models"
	"github.com/gearguard/gearguard-api/internal/service"
	appErrors "github.com/gearguard/gearguard-api/pkg/errors"
	"github.com/gearguard/gearguard-api/pkg/response"
)

// TeamHandler exposes team endpoints.
type TeamHandler struct {
	teams *service.TeamService
}

// NewTeamHandler constructs TeamHandler.
func NewTeamHandler(teams *service.TeamService) *TeamHandler {
	return &TeamHandler{teams: teams}
}

// List godoc
// @Summary List teams
// @Tags Teams
// @Produce json
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /teams [get]
func (h *TeamHandler) List(c *gin.Context) {
	teams, err := h.teams.List(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, teams)
}

// Get godoc
// @Summary Get team with members
// @Tags Teams
// @Produce json
// @Param id path string true "Team ID"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /teams/{id} [get]
func (h *TeamHandler) Get(c *gin.Context) {
	team, err := h.teams.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, team)
}

// Create godoc
// @Summary Create team
// @Tags Teams
// @Accept json
// @Produce json
// @Param payload body models.CreateTeamRequest true "Team payload"
// @Success 201 {object} response.Envelope
// @Security BearerAuth
// @Router /teams [post]
func (h *TeamHandler) Create(c *gin.Context) {
	var req models.CreateTeamRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	team, err := h.teams.Create(c.Request.Context(), actorFromContext(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, team)
}

// Update godoc
// @Summary Rename team
// @Tags Teams
// @Accept json
// @Produce json
// @Param id path string true "Team ID"
// @Param payload body models.UpdateTeamRequest true "Team payload"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /teams/{id} [put]
func (h *TeamHandler) Update(c *gin.Context) {
	var req models.UpdateTeamRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	team, err := h.teams.Update(c.Request.Context(), actorFromContext(c), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, team)
}

// Delete godoc
// @Summary Delete team
// @Tags Teams
// @Param id path string true "Team ID"
// @Success 204
// @Security BearerAuth
// @Router /teams/{id} [delete]
func (h *TeamHandler) Delete(c *gin.Context) {
	if err := h.teams.Delete(c.Request.Context(), actorFromContext(c), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
