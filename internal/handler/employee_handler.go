package handler

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/leave-calendar-api/internal/models"
	appErrors "github.com/noah-isme/leave-calendar-api/pkg/errors"
	"github.com/noah-isme/leave-calendar-api/pkg/response"
)

type employeeService interface {
	List(ctx context.Context, filter models.EmployeeFilter) ([]models.Employee, *models.Pagination, error)
	Get(ctx context.Context, id string) (*models.Employee, error)
	Create(ctx context.Context, req models.EmployeeRequest) (*models.Employee, error)
	Update(ctx context.Context, id string, req models.EmployeeRequest) (*models.Employee, error)
	Delete(ctx context.Context, id string) error
}

type employeeExporter interface {
	ExportEmployees(ctx context.Context, req models.ExportRequest) (*models.ExportResult, error)
	EmployeeCalendar(ctx context.Context, employeeID string) ([]byte, error)
}

// EmployeeHandler exposes the employee directory.
type EmployeeHandler struct {
	service  employeeService
	exporter employeeExporter
}

// NewEmployeeHandler constructs the handler.
func NewEmployeeHandler(svc employeeService, exporter employeeExporter) *EmployeeHandler {
	return &EmployeeHandler{service: svc, exporter: exporter}
}

// List godoc
// @Summary List employees
// @Tags Employees
// @Produce json
// @Param search query string false "Number or name fragment"
// @Param sort query string false "number, name or created_at"
// @Param order query string false "asc or desc"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /employees [get]
func (h *EmployeeHandler) List(c *gin.Context) {
	filter := models.EmployeeFilter{
		Search:    c.Query("search"),
		SortBy:    c.Query("sort"),
		SortOrder: c.Query("order"),
		Page:      queryInt(c, "page", 1),
		PageSize:  queryInt(c, "limit", 20),
	}
	employees, pagination, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, employees, pagination)
}

// Get godoc
// @Summary Get employee
// @Tags Employees
// @Produce json
// @Param id path string true "Employee ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /employees/{id} [get]
func (h *EmployeeHandler) Get(c *gin.Context) {
	employee, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, employee, nil)
}

// Create godoc
// @Summary Create employee
// @Tags Employees
// @Accept json
// @Produce json
// @Param payload body models.EmployeeRequest true "Employee"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /employees [post]
func (h *EmployeeHandler) Create(c *gin.Context) {
	var req models.EmployeeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid employee payload"))
		return
	}
	employee, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, employee)
}

// Update godoc
// @Summary Update employee
// @Tags Employees
// @Accept json
// @Produce json
// @Param id path string true "Employee ID"
// @Param payload body models.EmployeeRequest true "Employee"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /employees/{id} [put]
func (h *EmployeeHandler) Update(c *gin.Context) {
	var req models.EmployeeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid employee payload"))
		return
	}
	employee, err := h.service.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, employee, nil)
}

// Delete godoc
// @Summary Delete employee
// @Tags Employees
// @Param id path string true "Employee ID"
// @Success 204
// @Failure 404 {object} response.Envelope
// @Router /employees/{id} [delete]
func (h *EmployeeHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Calendar godoc
// @Summary Employee leave as iCalendar
// @Tags Employees
// @Produce text/calendar
// @Param id path string true "Employee ID"
// @Success 200 {string} string
// @Failure 404 {object} response.Envelope
// @Router /employees/{id}/calendar.ics [get]
func (h *EmployeeHandler) Calendar(c *gin.Context) {
	id := c.Param("id")
	payload, err := h.exporter.EmployeeCalendar(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", "leave-"+id+".ics"))
	c.Data(http.StatusOK, "text/calendar; charset=utf-8", payload)
}

// Export godoc
// @Summary Export the employee directory
// @Tags Employees
// @Accept json
// @Produce json
// @Param payload body models.ExportRequest false "Format (xlsx default)"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 500 {object} response.Envelope
// @Router /employees/export [post]
func (h *EmployeeHandler) Export(c *gin.Context) {
	var req models.ExportRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid export payload"))
			return
		}
	}
	result, err := h.exporter.ExportEmployees(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, result)
}
