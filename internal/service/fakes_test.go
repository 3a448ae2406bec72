package service

import (
	"context"
	"database/sql"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/noah-isme/leave-calendar-api/internal/models"
	appErrors "github.com/noah-isme/leave-calendar-api/pkg/errors"
)

type fakeCalendarStore struct {
	mu       sync.Mutex
	days     map[string][]models.AssignedEmployee
	failPut  map[string]error
	failGet  error
	puts     []string
	getCalls int
}

func newFakeCalendarStore() *fakeCalendarStore {
	return &fakeCalendarStore{days: map[string][]models.AssignedEmployee{}, failPut: map[string]error{}}
}

func (f *fakeCalendarStore) seed(date string, employees ...models.AssignedEmployee) {
	f.days[date] = append([]models.AssignedEmployee{}, employees...)
}

func (f *fakeCalendarStore) Get(_ context.Context, date string) (*models.DayAssignment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.getCalls++
	if f.failGet != nil {
		return nil, f.failGet
	}
	return &models.DayAssignment{Date: date, Employees: append([]models.AssignedEmployee{}, f.days[date]...)}, nil
}

func (f *fakeCalendarStore) Put(_ context.Context, day *models.DayAssignment) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.failPut[day.Date]; err != nil {
		return err
	}
	f.puts = append(f.puts, day.Date)
	f.days[day.Date] = append([]models.AssignedEmployee{}, day.Employees...)
	return nil
}

func (f *fakeCalendarStore) sortedDates() []string {
	dates := make([]string, 0, len(f.days))
	for date := range f.days {
		dates = append(dates, date)
	}
	sort.Strings(dates)
	return dates
}

func (f *fakeCalendarStore) ListRange(_ context.Context, from, to string) ([]models.DayAssignment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	days := []models.DayAssignment{}
	for _, date := range f.sortedDates() {
		if date >= from && date <= to {
			days = append(days, models.DayAssignment{Date: date, Employees: f.days[date]})
		}
	}
	return days, nil
}

func (f *fakeCalendarStore) ListAll(_ context.Context) ([]models.DayAssignment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	days := []models.DayAssignment{}
	for _, date := range f.sortedDates() {
		days = append(days, models.DayAssignment{Date: date, Employees: f.days[date]})
	}
	return days, nil
}

func (f *fakeCalendarStore) ListByDates(_ context.Context, dates []string) (map[string]models.DayAssignment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := map[string]models.DayAssignment{}
	for _, date := range dates {
		if employees, ok := f.days[date]; ok {
			out[date] = models.DayAssignment{Date: date, Employees: employees}
		}
	}
	return out, nil
}

func (f *fakeCalendarStore) ListForEmployee(_ context.Context, employeeID string) ([]models.DayAssignment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	days := []models.DayAssignment{}
	for _, date := range f.sortedDates() {
		for _, e := range f.days[date] {
			if e.ID == employeeID {
				days = append(days, models.DayAssignment{Date: date, Employees: f.days[date]})
				break
			}
		}
	}
	return days, nil
}

type fakeEmployeeStore struct {
	mu        sync.Mutex
	employees map[string]models.Employee
	order     []string
	failWrite error
}

func newFakeEmployeeStore(employees ...models.Employee) *fakeEmployeeStore {
	f := &fakeEmployeeStore{employees: map[string]models.Employee{}}
	for _, e := range employees {
		f.employees[e.ID] = e
		f.order = append(f.order, e.ID)
	}
	return f
}

func (f *fakeEmployeeStore) FindByID(_ context.Context, id string) (*models.Employee, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	e, ok := f.employees[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &e, nil
}

func (f *fakeEmployeeStore) ListAll(_ context.Context) ([]models.Employee, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]models.Employee, 0, len(f.order))
	for _, id := range f.order {
		if e, ok := f.employees[id]; ok {
			out = append(out, e)
		}
	}
	return out, nil
}

func (f *fakeEmployeeStore) List(ctx context.Context, filter models.EmployeeFilter) ([]models.Employee, int, error) {
	all, _ := f.ListAll(ctx)
	out := []models.Employee{}
	for _, e := range all {
		if filter.Search == "" || matchesEmployee(e.Number, e.Name, strings.TrimSpace(filter.Search)) {
			out = append(out, e)
		}
	}
	return out, len(out), nil
}

func (f *fakeEmployeeStore) Create(_ context.Context, e *models.Employee) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWrite != nil {
		return f.failWrite
	}
	if e.ID == "" {
		e.ID = "generated"
	}
	e.CreatedAt = time.Now()
	f.employees[e.ID] = *e
	f.order = append(f.order, e.ID)
	return nil
}

func (f *fakeEmployeeStore) Update(_ context.Context, e *models.Employee) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWrite != nil {
		return f.failWrite
	}
	if _, ok := f.employees[e.ID]; !ok {
		return sql.ErrNoRows
	}
	f.employees[e.ID] = *e
	return nil
}

func (f *fakeEmployeeStore) Delete(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.employees[id]; !ok {
		return sql.ErrNoRows
	}
	delete(f.employees, id)
	return nil
}

type fakeCacheRepo struct {
	mu          sync.Mutex
	values      map[string]interface{}
	invalidated []string
}

func newFakeCacheRepo() *fakeCacheRepo {
	return &fakeCacheRepo{values: map[string]interface{}{}}
}

func (f *fakeCacheRepo) Get(_ context.Context, key string, dest interface{}) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.values[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	result, ok := dest.(*models.ReportResult)
	if !ok {
		return errors.New("unexpected cache destination")
	}
	*result = v.(models.ReportResult)
	return nil
}

func (f *fakeCacheRepo) Set(_ context.Context, key string, value interface{}, _ time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.values[key] = *(value.(*models.ReportResult))
	return nil
}

func (f *fakeCacheRepo) DeleteByPattern(_ context.Context, pattern string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.invalidated = append(f.invalidated, pattern)
	f.values = map[string]interface{}{}
	return nil
}

type fakePublisher struct {
	mu        sync.Mutex
	published []string
}

func (f *fakePublisher) Publish(_ context.Context, collection string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.published = append(f.published, collection)
	return nil
}

func (f *fakePublisher) count(collection string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.published {
		if c == collection {
			n++
		}
	}
	return n
}

func assigned(id string, number int, name string) models.AssignedEmployee {
	return models.AssignedEmployee{ID: id, Number: number, Name: name}
}
