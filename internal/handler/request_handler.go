package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/gearguard/gearguard-api/internal/models"
	"github.com/gearguard/gearguard-api/internal/service"
	appErrors "github.com/gearguard/gearguard-api/pkg/errors"
	"github.com/gearguard/gearguard-api/pkg/response"
)

// RequestHandler exposes maintenance-request endpoints.
type RequestHandler struct {
	requests *service.RequestService
}

// NewRequestHandler constructs RequestHandler.
func NewRequestHandler(requests *service.RequestService) *RequestHandler {
	return &RequestHandler{requests: requests}
}

// Create godoc
// @Summary Open a maintenance request
// @Tags Requests
// @Accept json
// @Produce json
// @Param payload body models.CreateRequestInput true "Request payload"
// @Success 201 {object} response.Envelope
// @Security BearerAuth
// @Router /requests [post]
func (h *RequestHandler) Create(c *gin.Context) {
	var in models.CreateRequestInput
	if err := c.ShouldBindJSON(&in); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	request, err := h.requests.Create(c.Request.Context(), actorFromContext(c), in)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, request)
}

// ListMine godoc
// @Summary List the caller's own requests
// @Tags Requests
// @Produce json
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /requests/my [get]
func (h *RequestHandler) ListMine(c *gin.Context) {
	list, err := h.requests.ListMine(c.Request.Context(), actorFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, list)
}

// ListTeam godoc
// @Summary List the caller's team requests
// @Tags Requests
// @Produce json
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /requests/team [get]
func (h *RequestHandler) ListTeam(c *gin.Context) {
	list, err := h.requests.ListTeam(c.Request.Context(), actorFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, list)
}

// ListAll godoc
// @Summary List every request
// @Tags Requests
// @Produce json
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /requests [get]
func (h *RequestHandler) ListAll(c *gin.Context) {
	list, err := h.requests.ListAll(c.Request.Context(), actorFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, list)
}

// Get godoc
// @Summary Get one request with relations
// @Tags Requests
// @Produce json
// @Param id path string true "Request ID"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /requests/{id} [get]
func (h *RequestHandler) Get(c *gin.Context) {
	request, err := h.requests.Get(c.Request.Context(), actorFromContext(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, request)
}

// Update godoc
// @Summary Partially update a request
// @Tags Requests
// @Accept json
// @Produce json
// @Param id path string true "Request ID"
// @Param payload body models.UpdateRequestInput true "Fields to change"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /requests/{id} [patch]
func (h *RequestHandler) Update(c *gin.Context) {
	var in models.UpdateRequestInput
	if err := c.ShouldBindJSON(&in); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	request, err := h.requests.Update(c.Request.Context(), actorFromContext(c), c.Param("id"), in)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, request)
}

// Stats godoc
// @Summary Request stats for the caller's scope
// @Tags Requests
// @Produce json
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /requests/stats [get]
func (h *RequestHandler) Stats(c *gin.Context) {
	stats, err := h.requests.Stats(c.Request.Context(), actorFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, stats)
}

// Board godoc
// @Summary Kanban board of the caller's team requests with overdue and unassigned views
// @Tags Requests
// @Produce json
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /requests/board [get]
func (h *RequestHandler) Board(c *gin.Context) {
	snapshot, err := h.requests.Board(c.Request.Context(), actorFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, snapshot)
}
