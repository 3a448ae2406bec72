package service

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/leave-calendar-api/internal/models"
	appErrors "github.com/noah-isme/leave-calendar-api/pkg/errors"
	"github.com/noah-isme/leave-calendar-api/pkg/export"
	"github.com/noah-isme/leave-calendar-api/pkg/storage"
)

// Export dataset headers.
const (
	colIndex  = "#"
	colNumber = "Number"
	colName   = "Name"
	colDates  = "Dates"
	colDays   = "Days"
)

type fileStorage interface {
	Save(filename string, data []byte) (string, error)
	Open(filename string) (*os.File, error)
	Delete(filename string) error
	CleanupOlderThan(ttl time.Duration) ([]string, error)
}

type datasetRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type reportGenerator interface {
	Generate(ctx context.Context, req models.ReportRequest) (*models.ReportResult, bool, error)
}

type employeeLister interface {
	ListAll(ctx context.Context) ([]models.Employee, error)
	FindByID(ctx context.Context, id string) (*models.Employee, error)
}

type employeeDayReader interface {
	ListForEmployee(ctx context.Context, employeeID string) ([]models.DayAssignment, error)
}

// ExportConfig tunes export behaviour.
type ExportConfig struct {
	APIPrefix string
	ResultTTL time.Duration
}

// ExportService renders report and directory datasets and stores them behind signed URLs.
type ExportService struct {
	reports   reportGenerator
	employees employeeLister
	days      employeeDayReader
	storage   fileStorage
	signer    *storage.SignedURLSigner
	renderers map[export.Format]datasetRenderer
	ics       *export.ICSExporter
	metrics   *MetricsService
	logger    *zap.Logger
	cfg       ExportConfig
	now       func() time.Time
}

// NewExportService constructs an ExportService with the default renderers.
func NewExportService(reports reportGenerator, employees employeeLister, days employeeDayReader, files fileStorage, signer *storage.SignedURLSigner, metrics *MetricsService, cfg ExportConfig, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.ResultTTL <= 0 {
		cfg.ResultTTL = 24 * time.Hour
	}
	return &ExportService{
		reports:   reports,
		employees: employees,
		days:      days,
		storage:   files,
		signer:    signer,
		renderers: map[export.Format]datasetRenderer{
			export.FormatXLSX: export.NewXLSXExporter(),
			export.FormatPDF:  export.NewPDFExporter(),
			export.FormatCSV:  export.NewCSVExporter(),
			export.FormatHTML: export.NewHTMLExporter(),
		},
		ics:     export.NewICSExporter(),
		metrics: metrics,
		logger:  logger,
		cfg:     cfg,
		now:     time.Now,
	}
}

// ExportReport renders the report for the selection in the requested format.
func (s *ExportService) ExportReport(ctx context.Context, req models.ReportExportRequest) (*models.ExportResult, error) {
	format, err := export.ParseFormat(req.Format)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, err.Error())
	}
	report, _, err := s.reports.Generate(ctx, req.ReportRequest)
	if err != nil {
		return nil, err
	}
	return s.publish(ctx, "report", format, ReportDataset(report.Rows, s.now()))
}

// ExportEmployees renders the whole employee directory.
func (s *ExportService) ExportEmployees(ctx context.Context, req models.ExportRequest) (*models.ExportResult, error) {
	format, err := export.ParseFormat(req.Format)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, err.Error())
	}
	employees, err := s.employees.ListAll(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list employees")
	}
	return s.publish(ctx, "employees", format, EmployeeDataset(employees, s.now()))
}

// EmployeeCalendar renders an iCalendar feed of every stored day the employee is on.
func (s *ExportService) EmployeeCalendar(ctx context.Context, employeeID string) ([]byte, error) {
	employee, err := s.employees.FindByID(ctx, employeeID)
	if err != nil {
		return nil, employeeLookupError(err)
	}
	days, err := s.days.ListForEmployee(ctx, employeeID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load calendar")
	}
	entries := make([]export.CalendarEntry, 0, len(days))
	name := employee.Name
	for _, day := range days {
		date, ok := ParseDate(day.Date)
		if !ok {
			continue
		}
		for _, e := range day.Employees {
			if e.ID != employeeID {
				continue
			}
			entry := export.CalendarEntry{
				UID:     fmt.Sprintf("%s-%s@leave-calendar", e.ID, day.Date),
				Date:    date,
				Summary: fmt.Sprintf("Leave: %s (#%d)", e.Name, e.Number),
			}
			if e.Exception && e.ExceptionReason != nil {
				entry.Description = "Exception: " + *e.ExceptionReason
			}
			entries = append(entries, entry)
			break
		}
	}
	payload, err := s.ics.Render(name, entries, s.now())
	s.metrics.RecordExport("calendar", "ics", err)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrExport.Code, appErrors.ErrExport.Status, "failed to render calendar feed")
	}
	return payload, nil
}

// ParseToken validates a download token and returns the stored file path.
func (s *ExportService) ParseToken(token string) (string, error) {
	_, relPath, _, err := s.signer.Parse(token, false)
	if err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrNotFound.Code, appErrors.ErrNotFound.Status, "export link is invalid or expired")
	}
	return relPath, nil
}

// Open returns a handle to the stored file.
func (s *ExportService) Open(relPath string) (*os.File, error) {
	file, err := s.storage.Open(relPath)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrNotFound.Code, appErrors.ErrNotFound.Status, "export file not found")
	}
	return file, nil
}

// Cleanup removes files older than the configured result TTL.
func (s *ExportService) Cleanup() ([]string, error) {
	return s.storage.CleanupOlderThan(s.cfg.ResultTTL)
}

// RunCleanup removes expired files every interval until ctx ends.
func (s *ExportService) RunCleanup(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Hour
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			removed, err := s.Cleanup()
			if err != nil {
				s.logger.Warn("export cleanup failed", zap.Error(err))
				continue
			}
			if len(removed) > 0 {
				s.logger.Info("expired exports removed", zap.Int("count", len(removed)))
			}
		}
	}
}

func (s *ExportService) publish(ctx context.Context, kind string, format export.Format, data export.Dataset) (*models.ExportResult, error) {
	if data.Empty() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "nothing to export")
	}
	renderer, ok := s.renderers[format]
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported export format %q", format))
	}

	payload, err := renderer.Render(data)
	if err != nil {
		s.metrics.RecordExport(kind, string(format), err)
		return nil, appErrors.Wrap(err, appErrors.ErrExport.Code, appErrors.ErrExport.Status, fmt.Sprintf("failed to render %s export", format))
	}

	id := strings.ReplaceAll(uuid.NewString(), "-", "")
	filename := fmt.Sprintf("%s_%s_%s%s", kind, s.now().UTC().Format("20060102_150405"), id[:8], format.Extension())
	relPath, err := s.storage.Save(filename, payload)
	if err != nil {
		s.metrics.RecordExport(kind, string(format), err)
		return nil, appErrors.Wrap(err, appErrors.ErrExport.Code, appErrors.ErrExport.Status, "failed to store export")
	}

	token, expiresAt, err := s.signer.Generate(id, relPath)
	if err != nil {
		_ = s.storage.Delete(relPath)
		s.metrics.RecordExport(kind, string(format), err)
		return nil, appErrors.Wrap(err, appErrors.ErrExport.Code, appErrors.ErrExport.Status, "failed to sign export link")
	}
	s.metrics.RecordExport(kind, string(format), nil)

	prefix := strings.TrimRight(s.cfg.APIPrefix, "/")
	if prefix == "" {
		prefix = "/api/v1"
	}
	s.logger.Info("export rendered", zap.String("kind", kind), zap.String("format", string(format)), zap.Int("rows", len(data.Rows)))
	return &models.ExportResult{
		ID:        id,
		Format:    string(format),
		Filename:  filename,
		Rows:      len(data.Rows),
		URL:       fmt.Sprintf("%s/export/%s", prefix, token),
		ExpiresAt: expiresAt,
	}, nil
}

// ReportDataset tabulates report rows, newest date first, dates as DD/MM/YYYY.
func ReportDataset(rows []models.ReportRow, printedAt time.Time) export.Dataset {
	data := export.Dataset{
		Title:     "Leave report",
		Sheet:     "Report",
		Headers:   []string{colIndex, colNumber, colName, colDates, colDays},
		Rows:      make([]map[string]string, 0, len(rows)),
		PrintedAt: printedAt,
	}
	for i, row := range rows {
		dates := make([]string, 0, len(row.Dates))
		for _, d := range row.Dates {
			dates = append(dates, displayDate(d))
		}
		data.Rows = append(data.Rows, map[string]string{
			colIndex:  strconv.Itoa(i + 1),
			colNumber: strconv.Itoa(row.Number),
			colName:   row.Name,
			colDates:  strings.Join(dates, ", "),
			colDays:   strconv.Itoa(row.Count),
		})
	}
	return data
}

// EmployeeDataset tabulates the employee directory.
func EmployeeDataset(employees []models.Employee, printedAt time.Time) export.Dataset {
	data := export.Dataset{
		Title:     "Employees",
		Sheet:     "Employees",
		Headers:   []string{colIndex, colNumber, colName},
		Rows:      make([]map[string]string, 0, len(employees)),
		PrintedAt: printedAt,
	}
	for i, e := range employees {
		data.Rows = append(data.Rows, map[string]string{
			colIndex:  strconv.Itoa(i + 1),
			colNumber: strconv.Itoa(e.Number),
			colName:   e.Name,
		})
	}
	return data
}

func displayDate(date string) string {
	t, ok := ParseDate(date)
	if !ok {
		return date
	}
	return t.Format("02/01/2006")
}
