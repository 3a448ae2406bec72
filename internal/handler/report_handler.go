package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/leave-calendar-api/internal/middleware"
	"github.com/noah-isme/leave-calendar-api/internal/models"
	appErrors "github.com/noah-isme/leave-calendar-api/pkg/errors"
	"github.com/noah-isme/leave-calendar-api/pkg/response"
)

type reportService interface {
	Generate(ctx context.Context, req models.ReportRequest) (*models.ReportResult, bool, error)
	SuggestEmployees(ctx context.Context, search string) ([]models.Employee, error)
}

type reportExporter interface {
	ExportReport(ctx context.Context, req models.ReportExportRequest) (*models.ExportResult, error)
}

// ReportHandler exposes report endpoints.
type ReportHandler struct {
	service  reportService
	exporter reportExporter
}

// NewReportHandler constructs handler.
func NewReportHandler(svc reportService, exporter reportExporter) *ReportHandler {
	return &ReportHandler{service: svc, exporter: exporter}
}

// Generate godoc
// @Summary Leave report
// @Tags Reports
// @Produce json
// @Param mode query string true "day, range or week"
// @Param date query string false "Date for day mode"
// @Param start query string false "Range start"
// @Param end query string false "Range end"
// @Param employee_id query string false "Restrict to one employee"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /reports [get]
func (h *ReportHandler) Generate(c *gin.Context) {
	var req models.ReportRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid report query"))
		return
	}
	result, hit, err := h.service.Generate(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, hit)
	response.JSON(c, http.StatusOK, result, nil, middleware.ExtractMeta(c))
}

// Suggestions godoc
// @Summary Employees seen on the calendar
// @Tags Reports
// @Produce json
// @Param search query string false "Number or name fragment"
// @Success 200 {object} response.Envelope
// @Router /reports/suggestions [get]
func (h *ReportHandler) Suggestions(c *gin.Context) {
	list, err := h.service.SuggestEmployees(c.Request.Context(), c.Query("search"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, list, nil)
}

// Export godoc
// @Summary Export a report
// @Tags Reports
// @Accept json
// @Produce json
// @Param payload body models.ReportExportRequest true "Selection and format"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 500 {object} response.Envelope
// @Router /reports/export [post]
func (h *ReportHandler) Export(c *gin.Context) {
	var req models.ReportExportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid export payload"))
		return
	}
	result, err := h.exporter.ExportReport(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, result)
}
