package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/leave-calendar-api/internal/models"
	"github.com/noah-isme/leave-calendar-api/internal/repository"
	appErrors "github.com/noah-isme/leave-calendar-api/pkg/errors"
)

type employeeStore interface {
	List(ctx context.Context, filter models.EmployeeFilter) ([]models.Employee, int, error)
	ListAll(ctx context.Context) ([]models.Employee, error)
	FindByID(ctx context.Context, id string) (*models.Employee, error)
	Create(ctx context.Context, employee *models.Employee) error
	Update(ctx context.Context, employee *models.Employee) error
	Delete(ctx context.Context, id string) error
}

// EmployeeService manages the employee directory.
type EmployeeService struct {
	repo      employeeStore
	changes   *ChangeBroadcaster
	validator *validator.Validate
	logger    *zap.Logger
}

// NewEmployeeService constructs the directory service.
func NewEmployeeService(repo employeeStore, changes *ChangeBroadcaster, validate *validator.Validate, logger *zap.Logger) *EmployeeService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EmployeeService{repo: repo, changes: changes, validator: validate, logger: logger}
}

// List returns a page of employees with pagination metadata.
func (s *EmployeeService) List(ctx context.Context, filter models.EmployeeFilter) ([]models.Employee, *models.Pagination, error) {
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = 20
	}
	filter.Search = strings.TrimSpace(filter.Search)
	employees, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list employees")
	}
	return employees, &models.Pagination{Page: filter.Page, PageSize: filter.PageSize, TotalCount: total}, nil
}

// All returns every employee in directory order.
func (s *EmployeeService) All(ctx context.Context) ([]models.Employee, error) {
	employees, err := s.repo.ListAll(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list employees")
	}
	return employees, nil
}

// Get returns one employee.
func (s *EmployeeService) Get(ctx context.Context, id string) (*models.Employee, error) {
	employee, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, employeeLookupError(err)
	}
	return employee, nil
}

// Create adds an employee. Numbers are not required to be unique.
func (s *EmployeeService) Create(ctx context.Context, req models.EmployeeRequest) (*models.Employee, error) {
	req, err := s.normalize(req)
	if err != nil {
		return nil, err
	}
	employee := &models.Employee{Number: req.Number, Name: req.Name}
	if err := s.repo.Create(ctx, employee); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrPersistence.Code, appErrors.ErrPersistence.Status, "failed to create employee")
	}
	s.changes.Changed(ctx, repository.CollectionEmployees)
	s.logger.Info("employee created", zap.String("employee_id", employee.ID), zap.Int("number", employee.Number))
	return employee, nil
}

// Update replaces number and name. Calendar snapshots keep the old values.
func (s *EmployeeService) Update(ctx context.Context, id string, req models.EmployeeRequest) (*models.Employee, error) {
	req, err := s.normalize(req)
	if err != nil {
		return nil, err
	}
	employee, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, employeeLookupError(err)
	}
	employee.Number = req.Number
	employee.Name = req.Name
	if err := s.repo.Update(ctx, employee); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "employee not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrPersistence.Code, appErrors.ErrPersistence.Status, "failed to update employee")
	}
	s.changes.Changed(ctx, repository.CollectionEmployees)
	return employee, nil
}

// Delete removes an employee. Historical assignments are untouched.
func (s *EmployeeService) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "employee not found")
		}
		return appErrors.Wrap(err, appErrors.ErrPersistence.Code, appErrors.ErrPersistence.Status, "failed to delete employee")
	}
	s.changes.Changed(ctx, repository.CollectionEmployees)
	s.logger.Info("employee deleted", zap.String("employee_id", id))
	return nil
}

func (s *EmployeeService) normalize(req models.EmployeeRequest) (models.EmployeeRequest, error) {
	req.Name = strings.TrimSpace(req.Name)
	if err := s.validator.Struct(req); err != nil {
		return req, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid employee payload")
	}
	return req, nil
}

func employeeLookupError(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return appErrors.Clone(appErrors.ErrNotFound, "employee not found")
	}
	return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load employee")
}
