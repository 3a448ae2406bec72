package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/noah-isme/leave-calendar-api/internal/models"
	"github.com/noah-isme/leave-calendar-api/internal/service"
	appErrors "github.com/noah-isme/leave-calendar-api/pkg/errors"
	"github.com/noah-isme/leave-calendar-api/pkg/response"
)

type calendarService interface {
	Assign(ctx context.Context, req models.AssignRequest) (*models.AssignResult, error)
	Unassign(ctx context.Context, date, employeeID string) error
	Day(ctx context.Context, date string) (*models.DayView, error)
	Occupancy(ctx context.Context, from, to string) ([]models.OccupancySummary, error)
	Candidates(ctx context.Context, date, search string) ([]models.Employee, error)
}

// OccupancyFeed streams full occupancy snapshots.
type OccupancyFeed = service.SnapshotFeed[[]models.OccupancySummary]

const streamHeartbeat = 25 * time.Second

// CalendarHandler exposes day assignment endpoints.
type CalendarHandler struct {
	service calendarService
	feed    *OccupancyFeed
	logger  *zap.Logger
}

// NewCalendarHandler constructs the handler. feed may be nil when streaming is unavailable.
func NewCalendarHandler(svc calendarService, feed *OccupancyFeed, logger *zap.Logger) *CalendarHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CalendarHandler{service: svc, feed: feed, logger: logger}
}

// Occupancy godoc
// @Summary Calendar occupancy markers
// @Tags Calendar
// @Produce json
// @Param from query string true "First date (YYYY-MM-DD)"
// @Param to query string true "Last date (YYYY-MM-DD)"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /calendar [get]
func (h *CalendarHandler) Occupancy(c *gin.Context) {
	markers, err := h.service.Occupancy(c.Request.Context(), c.Query("from"), c.Query("to"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, markers, nil)
}

// Stream godoc
// @Summary Live occupancy snapshots
// @Description Server-Sent Events; an "occupancy" event carries the full marker list after every calendar change.
// @Tags Calendar
// @Produce text/event-stream
// @Success 200 {array} models.OccupancySummary
// @Failure 503 {object} response.Envelope
// @Router /calendar/stream [get]
func (h *CalendarHandler) Stream(c *gin.Context) {
	if h.feed == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrPersistence, "live updates unavailable"))
		return
	}
	ctx := c.Request.Context()
	sub, err := h.feed.Subscribe(ctx)
	if err != nil {
		h.logger.Warn("calendar stream subscribe failed", zap.Error(err))
		response.Error(c, appErrors.Wrap(err, appErrors.ErrPersistence.Code, appErrors.ErrPersistence.Status, "live updates unavailable"))
		return
	}
	defer sub.Close()

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")
	c.Status(http.StatusOK)

	heartbeat := time.NewTicker(streamHeartbeat)
	defer heartbeat.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case snapshot, ok := <-sub.Updates():
			if !ok {
				return
			}
			c.SSEvent("occupancy", snapshot)
			c.Writer.Flush()
		case now := <-heartbeat.C:
			c.SSEvent("heartbeat", now.Unix())
			c.Writer.Flush()
		}
	}
}

// Day godoc
// @Summary Assignees of a day
// @Tags Calendar
// @Produce json
// @Param date path string true "Date (YYYY-MM-DD)"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /calendar/days/{date} [get]
func (h *CalendarHandler) Day(c *gin.Context) {
	view, err := h.service.Day(c.Request.Context(), c.Param("date"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, view, nil)
}

// Candidates godoc
// @Summary Employees available for a day
// @Tags Calendar
// @Produce json
// @Param date path string true "Date (YYYY-MM-DD)"
// @Param search query string false "Number or name fragment"
// @Success 200 {object} response.Envelope
// @Router /calendar/days/{date}/candidates [get]
func (h *CalendarHandler) Candidates(c *gin.Context) {
	list, err := h.service.Candidates(c.Request.Context(), c.Param("date"), c.Query("search"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, list, nil)
}

// Assign godoc
// @Summary Assign an employee to dates
// @Description Days already holding 4 employees require exception=true and an exception_reason.
// @Tags Calendar
// @Accept json
// @Produce json
// @Param payload body models.AssignRequest true "Assignment"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Failure 503 {object} response.Envelope
// @Router /calendar/assignments [post]
func (h *CalendarHandler) Assign(c *gin.Context) {
	var req models.AssignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid assignment payload"))
		return
	}
	result, err := h.service.Assign(c.Request.Context(), req)
	if err != nil {
		if result != nil {
			response.ErrorWithData(c, err, result)
			return
		}
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// Unassign godoc
// @Summary Remove an employee from a day
// @Tags Calendar
// @Param date path string true "Date (YYYY-MM-DD)"
// @Param employeeId path string true "Employee ID"
// @Success 204
// @Failure 400 {object} response.Envelope
// @Router /calendar/days/{date}/employees/{employeeId} [delete]
func (h *CalendarHandler) Unassign(c *gin.Context) {
	if err := h.service.Unassign(c.Request.Context(), c.Param("date"), c.Param("employeeId")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
