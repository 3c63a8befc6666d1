package handler

import (
	"path/filepath"

	"github.com/gin-gonic/gin"

	"github.com/gearguard/gearguard-api/internal/service"
	appErrors "github.com/gearguard/gearguard-api/pkg/errors"
	"github.com/gearguard/gearguard-api/pkg/response"
)

// ReportHandler exposes request report downloads.
type ReportHandler struct {
	exports *service.ExportService
}

// NewReportHandler constructs ReportHandler.
func NewReportHandler(exports *service.ExportService) *ReportHandler {
	return &ReportHandler{exports: exports}
}

// TeamReport godoc
// @Summary Download the team request report
// @Tags Reports
// @Produce text/csv
// @Produce application/pdf
// @Param format query string false "csv or pdf" default(csv)
// @Success 200 {file} byte
// @Security BearerAuth
// @Router /requests/report [get]
func (h *ReportHandler) TeamReport(c *gin.Context) {
	format := service.ExportFormat(c.DefaultQuery("format", "csv"))

	report, err := h.exports.TeamReport(c.Request.Context(), actorFromContext(c), format)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="`+report.Filename+`"`)
	c.Data(200, report.ContentType, report.Content)
}

// EnqueueTeamReport godoc
// @Summary Queue a team request report for background rendering
// @Tags Reports
// @Produce json
// @Param format query string false "csv or pdf" default(csv)
// @Success 202 {object} response.Envelope
// @Security BearerAuth
// @Router /requests/report/jobs [post]
func (h *ReportHandler) EnqueueTeamReport(c *gin.Context) {
	format := service.ExportFormat(c.DefaultQuery("format", "csv"))

	job, err := h.exports.EnqueueTeamReport(c.Request.Context(), actorFromContext(c), format)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, 202, job)
}

// Download godoc
// @Summary Download a rendered report by signed token
// @Tags Reports
// @Param token query string true "Signed download token"
// @Success 200 {file} byte
// @Router /requests/report/download [get]
func (h *ReportHandler) Download(c *gin.Context) {
	file, contentType, err := h.exports.OpenReport(c.Query("token"))
	if err != nil {
		response.Error(c, err)
		return
	}
	defer file.Close() //nolint:errcheck

	info, err := file.Stat()
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to read report"))
		return
	}

	c.Header("Content-Disposition", `attachment; filename="`+filepath.Base(file.Name())+`"`)
	c.DataFromReader(200, info.Size(), contentType, file, nil)
}
