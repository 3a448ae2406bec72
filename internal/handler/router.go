package handler

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/noah-isme/leave-calendar-api/internal/middleware"
	"github.com/noah-isme/leave-calendar-api/internal/models"
)

// Handlers bundles every HTTP handler mounted by RegisterRoutes.
type Handlers struct {
	Auth      *AuthHandler
	Calendar  *CalendarHandler
	Employees *EmployeeHandler
	Reports   *ReportHandler
	Exports   *ExportHandler
	Metrics   *MetricsHandler
}

// RouteDeps carries the cross-cutting pieces the routes need.
type RouteDeps struct {
	Tokens    middleware.TokenValidator
	DevBypass bool
	Audit     middleware.AuditWriter
	Logger    *zap.Logger
}

// RegisterRoutes mounts probes at the root and the API under prefix.
func RegisterRoutes(r *gin.Engine, prefix string, h Handlers, deps RouteDeps) {
	r.GET("/health", h.Metrics.Health)
	r.GET("/ready", h.Metrics.Ready)
	r.GET("/metrics", h.Metrics.Prometheus)

	api := r.Group(prefix)
	api.Use(middleware.WithResponseMeta())

	auth := api.Group("/auth")
	auth.POST("/register", h.Auth.Register)
	auth.POST("/login", h.Auth.Login)
	auth.POST("/refresh", h.Auth.Refresh)

	// signed token is the credential
	api.GET("/export/:token", h.Exports.Download)

	secured := api.Group("")
	secured.Use(middleware.JWT(deps.Tokens, deps.DevBypass))
	secured.POST("/auth/logout", h.Auth.Logout)
	secured.GET("/auth/me", h.Auth.Me)

	audit := func(action, resource, idParam string) gin.HandlerFunc {
		return middleware.Audit(deps.Audit, deps.Logger, action, resource, idParam)
	}

	employees := secured.Group("/employees")
	employees.GET("", h.Employees.List)
	employees.POST("", audit(models.AuditActionEmployeeCreate, "employee", ""), h.Employees.Create)
	employees.POST("/export", h.Employees.Export)
	employees.GET("/:id", h.Employees.Get)
	employees.PUT("/:id", audit(models.AuditActionEmployeeUpdate, "employee", "id"), h.Employees.Update)
	employees.DELETE("/:id", audit(models.AuditActionEmployeeDelete, "employee", "id"), h.Employees.Delete)
	employees.GET("/:id/calendar.ics", h.Employees.Calendar)

	calendar := secured.Group("/calendar")
	calendar.GET("", h.Calendar.Occupancy)
	calendar.GET("/stream", h.Calendar.Stream)
	calendar.GET("/days/:date", h.Calendar.Day)
	calendar.GET("/days/:date/candidates", h.Calendar.Candidates)
	calendar.POST("/assignments", audit(models.AuditActionAssign, "calendar", ""), h.Calendar.Assign)
	calendar.DELETE("/days/:date/employees/:employeeId", audit(models.AuditActionUnassign, "calendar", "date"), h.Calendar.Unassign)

	reports := secured.Group("/reports")
	reports.GET("", h.Reports.Generate)
	reports.GET("/suggestions", h.Reports.Suggestions)
	reports.POST("/export", h.Reports.Export)
}
