package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/leave-calendar-api/internal/models"
	"github.com/noah-isme/leave-calendar-api/internal/repository"
	appErrors "github.com/noah-isme/leave-calendar-api/pkg/errors"
)

type calendarStore interface {
	Get(ctx context.Context, date string) (*models.DayAssignment, error)
	Put(ctx context.Context, day *models.DayAssignment) error
	ListRange(ctx context.Context, from, to string) ([]models.DayAssignment, error)
}

type employeeLookup interface {
	FindByID(ctx context.Context, id string) (*models.Employee, error)
	ListAll(ctx context.Context) ([]models.Employee, error)
}

// AssignmentService applies the capacity rules to calendar writes.
type AssignmentService struct {
	calendar  calendarStore
	employees employeeLookup
	changes   *ChangeBroadcaster
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewAssignmentService constructs the service.
func NewAssignmentService(calendar calendarStore, employees employeeLookup, changes *ChangeBroadcaster, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger) *AssignmentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AssignmentService{calendar: calendar, employees: employees, changes: changes, metrics: metrics, validator: validate, logger: logger}
}

// Assign adds the employee to every requested date it is not already on.
// Each date is written independently; when a write fails the dates committed
// so far stay written and are returned alongside the persistence error.
func (s *AssignmentService) Assign(ctx context.Context, req models.AssignRequest) (*models.AssignResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid assignment payload")
	}
	reason := strings.TrimSpace(req.ExceptionReason)
	if req.Exception && reason == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "exception reason is required")
	}
	dates, err := uniqueDates(req.Dates)
	if err != nil {
		return nil, err
	}

	employee, err := s.employees.FindByID(ctx, req.EmployeeID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "employee not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load employee")
	}

	days := make([]*models.DayAssignment, 0, len(dates))
	var full []string
	for _, date := range dates {
		day, err := s.loadDay(ctx, date)
		if err != nil {
			return nil, err
		}
		days = append(days, day)
		if !day.Has(employee.ID) && !req.Exception && !CanAssign(len(day.Employees)).Allowed {
			full = append(full, date)
		}
	}
	if len(full) > 0 {
		return nil, appErrors.Clone(appErrors.ErrCapacityExceeded,
			fmt.Sprintf("day capacity of %d reached on %s; retry as an exception with a reason", models.DayCapacity, strings.Join(full, ", ")))
	}

	snapshot := NewAssignedEmployee(*employee, req.Exception, reason)
	result := &models.AssignResult{Assigned: []string{}, Skipped: []string{}, Occupancy: make([]models.OccupancySummary, 0, len(days))}
	for _, day := range days {
		if day.Has(employee.ID) {
			result.Skipped = append(result.Skipped, day.Date)
			result.Occupancy = append(result.Occupancy, DayOccupancySummary(*day))
			s.metrics.RecordAssignment("skipped")
			continue
		}
		day.Employees = append(day.Employees, snapshot)
		if err := s.putDay(ctx, day); err != nil {
			s.logger.Error("assignment write failed",
				zap.String("employee_id", employee.ID),
				zap.String("date", day.Date),
				zap.Strings("committed", result.Assigned),
				zap.Error(err))
			if len(result.Assigned) > 0 {
				s.changes.Changed(ctx, repository.CollectionCalendar)
			}
			return result, appErrors.Wrap(err, appErrors.ErrPersistence.Code, appErrors.ErrPersistence.Status, fmt.Sprintf("failed to save %s", day.Date))
		}
		result.Assigned = append(result.Assigned, day.Date)
		result.Occupancy = append(result.Occupancy, DayOccupancySummary(*day))
		if req.Exception {
			s.metrics.RecordAssignment("exception")
		} else {
			s.metrics.RecordAssignment("assigned")
		}
	}

	if len(result.Assigned) > 0 {
		s.changes.Changed(ctx, repository.CollectionCalendar)
		s.logger.Info("employee assigned",
			zap.String("employee_id", employee.ID),
			zap.Strings("dates", result.Assigned),
			zap.Bool("exception", req.Exception))
	}
	return result, nil
}

// Unassign removes the employee from date. Removing an absent employee is a no-op.
func (s *AssignmentService) Unassign(ctx context.Context, date, employeeID string) error {
	if _, ok := ParseDate(date); !ok {
		return invalidDate(date)
	}
	day, err := s.loadDay(ctx, date)
	if err != nil {
		return err
	}
	if !day.Has(employeeID) {
		return nil
	}
	remaining := make([]models.AssignedEmployee, 0, len(day.Employees))
	for _, e := range day.Employees {
		if e.ID != employeeID {
			remaining = append(remaining, e)
		}
	}
	day.Employees = remaining
	if err := s.putDay(ctx, day); err != nil {
		return appErrors.Wrap(err, appErrors.ErrPersistence.Code, appErrors.ErrPersistence.Status, fmt.Sprintf("failed to save %s", date))
	}
	s.metrics.RecordUnassignment()
	s.changes.Changed(ctx, repository.CollectionCalendar)
	return nil
}

// Day returns the assignees of date in stored order with the day marker.
func (s *AssignmentService) Day(ctx context.Context, date string) (*models.DayView, error) {
	if _, ok := ParseDate(date); !ok {
		return nil, invalidDate(date)
	}
	day, err := s.loadDay(ctx, date)
	if err != nil {
		return nil, err
	}
	return &models.DayView{Date: date, Employees: day.Employees, Summary: DayOccupancySummary(*day)}, nil
}

// Occupancy returns markers for every stored day within [from, to].
func (s *AssignmentService) Occupancy(ctx context.Context, from, to string) ([]models.OccupancySummary, error) {
	start, ok := ParseDate(from)
	if !ok {
		return nil, invalidDate(from)
	}
	end, ok := ParseDate(to)
	if !ok {
		return nil, invalidDate(to)
	}
	if end.Before(start) {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("range end %s is before start %s", to, from))
	}
	began := time.Now()
	days, err := s.calendar.ListRange(ctx, from, to)
	s.metrics.ObserveDBQuery("calendar_list_range", time.Since(began))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load calendar")
	}
	return OccupancyOf(days), nil
}

// Candidates lists employees not yet on date whose number or name matches search.
func (s *AssignmentService) Candidates(ctx context.Context, date, search string) ([]models.Employee, error) {
	if _, ok := ParseDate(date); !ok {
		return nil, invalidDate(date)
	}
	search = strings.TrimSpace(search)
	if search == "" {
		return []models.Employee{}, nil
	}
	day, err := s.loadDay(ctx, date)
	if err != nil {
		return nil, err
	}
	employees, err := s.employees.ListAll(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load employees")
	}
	candidates := make([]models.Employee, 0)
	for _, e := range employees {
		if day.Has(e.ID) {
			continue
		}
		if matchesEmployee(e.Number, e.Name, search) {
			candidates = append(candidates, e)
		}
	}
	return candidates, nil
}

// OccupancyOf maps stored days to their markers.
func OccupancyOf(days []models.DayAssignment) []models.OccupancySummary {
	summaries := make([]models.OccupancySummary, 0, len(days))
	for _, day := range days {
		summaries = append(summaries, DayOccupancySummary(day))
	}
	return summaries
}

func (s *AssignmentService) loadDay(ctx context.Context, date string) (*models.DayAssignment, error) {
	began := time.Now()
	day, err := s.calendar.Get(ctx, date)
	s.metrics.ObserveDBQuery("calendar_get", time.Since(began))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, fmt.Sprintf("failed to load %s", date))
	}
	if day.Employees == nil {
		day.Employees = []models.AssignedEmployee{}
	}
	return day, nil
}

func (s *AssignmentService) putDay(ctx context.Context, day *models.DayAssignment) error {
	began := time.Now()
	err := s.calendar.Put(ctx, day)
	s.metrics.ObserveDBQuery("calendar_put", time.Since(began))
	return err
}

// uniqueDates validates canonical dates and drops repeats, keeping request order.
func uniqueDates(raw []string) ([]string, error) {
	seen := make(map[string]struct{}, len(raw))
	dates := make([]string, 0, len(raw))
	for _, date := range raw {
		if _, ok := ParseDate(date); !ok {
			return nil, invalidDate(date)
		}
		if _, dup := seen[date]; dup {
			continue
		}
		seen[date] = struct{}{}
		dates = append(dates, date)
	}
	if len(dates) == 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "at least one date is required")
	}
	return dates, nil
}

// matchesEmployee reports whether search occurs in the number text or, case-insensitively, in the name.
func matchesEmployee(number int, name, search string) bool {
	if strings.Contains(strconv.Itoa(number), search) {
		return true
	}
	return strings.Contains(strings.ToLower(name), strings.ToLower(search))
}
