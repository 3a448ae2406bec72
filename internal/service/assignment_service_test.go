package service

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/leave-calendar-api/internal/models"
	appErrors "github.com/noah-isme/leave-calendar-api/pkg/errors"
)

type assignmentFixture struct {
	svc       *AssignmentService
	calendar  *fakeCalendarStore
	employees *fakeEmployeeStore
	publisher *fakePublisher
	cache     *fakeCacheRepo
}

func newAssignmentFixture() assignmentFixture {
	calendar := newFakeCalendarStore()
	employees := newFakeEmployeeStore(
		models.Employee{ID: "e1", Number: 7, Name: "Ana"},
		models.Employee{ID: "e2", Number: 17, Name: "Luis"},
		models.Employee{ID: "e3", Number: 23, Name: "Mariana"},
	)
	cacheRepo := newFakeCacheRepo()
	publisher := &fakePublisher{}
	changes := NewChangeBroadcaster(NewCacheService(cacheRepo, nil, "reports", 0, nil, true), publisher, nil)
	svc := NewAssignmentService(calendar, employees, changes, NewMetricsService(), nil, nil)
	return assignmentFixture{svc: svc, calendar: calendar, employees: employees, publisher: publisher, cache: cacheRepo}
}

func fullDay(f assignmentFixture, date string) {
	for i := 0; i < models.DayCapacity; i++ {
		f.calendar.days[date] = append(f.calendar.days[date], assigned(fmt.Sprintf("x%d", i), 100+i, "Other"))
	}
}

func TestAssignAppendsSnapshot(t *testing.T) {
	f := newAssignmentFixture()

	result, err := f.svc.Assign(context.Background(), models.AssignRequest{EmployeeID: "e1", Dates: []string{"2024-03-01", "2024-03-02"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"2024-03-01", "2024-03-02"}, result.Assigned)
	assert.Empty(t, result.Skipped)
	require.Len(t, result.Occupancy, 2)
	assert.Equal(t, models.OccupancySummary{Date: "2024-03-01", Count: 1, ColorClass: models.ColorUnderCapacity}, result.Occupancy[0])

	stored := f.calendar.days["2024-03-01"]
	require.Len(t, stored, 1)
	assert.Equal(t, models.AssignedEmployee{ID: "e1", Number: 7, Name: "Ana"}, stored[0])
	assert.Equal(t, 1, f.publisher.count("calendar"))
	assert.Equal(t, []string{ReportCachePattern}, f.cache.invalidated)
}

func TestAssignIsIdempotent(t *testing.T) {
	f := newAssignmentFixture()
	req := models.AssignRequest{EmployeeID: "e1", Dates: []string{"2024-03-01"}}

	_, err := f.svc.Assign(context.Background(), req)
	require.NoError(t, err)
	result, err := f.svc.Assign(context.Background(), req)
	require.NoError(t, err)

	assert.Empty(t, result.Assigned)
	assert.Equal(t, []string{"2024-03-01"}, result.Skipped)
	assert.Len(t, f.calendar.days["2024-03-01"], 1)
	assert.Equal(t, []string{"2024-03-01"}, f.calendar.puts)
}

func TestAssignCollapsesDuplicateDates(t *testing.T) {
	f := newAssignmentFixture()

	result, err := f.svc.Assign(context.Background(), models.AssignRequest{EmployeeID: "e1", Dates: []string{"2024-03-01", "2024-03-01"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"2024-03-01"}, result.Assigned)
	assert.Len(t, f.calendar.days["2024-03-01"], 1)
}

func TestAssignRejectsFullDayWithoutException(t *testing.T) {
	f := newAssignmentFixture()
	fullDay(f, "2024-03-02")

	_, err := f.svc.Assign(context.Background(), models.AssignRequest{EmployeeID: "e1", Dates: []string{"2024-03-01", "2024-03-02"}})
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrCapacityExceeded))
	assert.Contains(t, err.Error(), "2024-03-02")
	assert.Empty(t, f.calendar.puts, "no date is written when any day is full")
	assert.Len(t, f.calendar.days["2024-03-02"], models.DayCapacity)
}

func TestAssignNeverExceedsCapacityWithoutException(t *testing.T) {
	f := newAssignmentFixture()
	date := "2024-03-05"
	for i := 0; i < 10; i++ {
		id := fmt.Sprintf("n%d", i)
		f.employees.employees[id] = models.Employee{ID: id, Number: i + 1, Name: id}
		_, _ = f.svc.Assign(context.Background(), models.AssignRequest{EmployeeID: id, Dates: []string{date}})
		assert.LessOrEqual(t, len(f.calendar.days[date]), models.DayCapacity)
	}
	assert.Len(t, f.calendar.days[date], models.DayCapacity)
}

func TestAssignExceptionRequiresReason(t *testing.T) {
	f := newAssignmentFixture()
	fullDay(f, "2024-03-01")

	_, err := f.svc.Assign(context.Background(), models.AssignRequest{EmployeeID: "e1", Dates: []string{"2024-03-01"}, Exception: true, ExceptionReason: "   "})
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrValidation))
	assert.Empty(t, f.calendar.puts)

	result, err := f.svc.Assign(context.Background(), models.AssignRequest{EmployeeID: "e1", Dates: []string{"2024-03-01"}, Exception: true, ExceptionReason: "surgery"})
	require.NoError(t, err)
	assert.Equal(t, []string{"2024-03-01"}, result.Assigned)
	assert.Equal(t, models.ColorAtOrOverCapacity, result.Occupancy[0].ColorClass)

	stored := f.calendar.days["2024-03-01"]
	require.Len(t, stored, models.DayCapacity+1)
	last := stored[len(stored)-1]
	assert.True(t, last.Exception)
	require.NotNil(t, last.ExceptionReason)
	assert.Equal(t, "surgery", *last.ExceptionReason)
}

func TestAssignValidation(t *testing.T) {
	f := newAssignmentFixture()

	_, err := f.svc.Assign(context.Background(), models.AssignRequest{EmployeeID: "e1"})
	assert.True(t, appErrors.Is(err, appErrors.ErrValidation))

	_, err = f.svc.Assign(context.Background(), models.AssignRequest{EmployeeID: "e1", Dates: []string{"2024-3-1"}})
	assert.True(t, appErrors.Is(err, appErrors.ErrValidation))

	_, err = f.svc.Assign(context.Background(), models.AssignRequest{EmployeeID: "ghost", Dates: []string{"2024-03-01"}})
	assert.True(t, appErrors.Is(err, appErrors.ErrNotFound))
}

func TestAssignStopsAtFirstFailedWrite(t *testing.T) {
	f := newAssignmentFixture()
	f.calendar.failPut["2024-03-02"] = errors.New("connection reset")

	result, err := f.svc.Assign(context.Background(), models.AssignRequest{EmployeeID: "e1", Dates: []string{"2024-03-01", "2024-03-02", "2024-03-03"}})
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrPersistence))
	assert.Contains(t, err.Error(), "2024-03-02")
	require.NotNil(t, result)
	assert.Equal(t, []string{"2024-03-01"}, result.Assigned)

	assert.Len(t, f.calendar.days["2024-03-01"], 1, "committed writes are not rolled back")
	assert.Empty(t, f.calendar.days["2024-03-03"])
	assert.Equal(t, 1, f.publisher.count("calendar"))
}

func TestUnassign(t *testing.T) {
	f := newAssignmentFixture()
	f.calendar.seed("2024-03-01", assigned("e1", 7, "Ana"), assigned("e2", 17, "Luis"))

	require.NoError(t, f.svc.Unassign(context.Background(), "2024-03-01", "e1"))
	assert.Equal(t, []models.AssignedEmployee{assigned("e2", 17, "Luis")}, f.calendar.days["2024-03-01"])

	require.NoError(t, f.svc.Unassign(context.Background(), "2024-03-01", "e1"))
	assert.Len(t, f.calendar.puts, 1, "removing an absent employee writes nothing")

	err := f.svc.Unassign(context.Background(), "bad", "e1")
	assert.True(t, appErrors.Is(err, appErrors.ErrValidation))
}

func TestUnassignPersistenceError(t *testing.T) {
	f := newAssignmentFixture()
	f.calendar.seed("2024-03-01", assigned("e1", 7, "Ana"))
	f.calendar.failPut["2024-03-01"] = errors.New("timeout")

	err := f.svc.Unassign(context.Background(), "2024-03-01", "e1")
	assert.True(t, appErrors.Is(err, appErrors.ErrPersistence))
}

func TestDayAndOccupancy(t *testing.T) {
	f := newAssignmentFixture()
	f.calendar.seed("2024-03-01", assigned("e2", 17, "Luis"), assigned("e1", 7, "Ana"))
	fullDay(f, "2024-03-04")
	fullDay(f, "2024-04-01")

	view, err := f.svc.Day(context.Background(), "2024-03-01")
	require.NoError(t, err)
	assert.Equal(t, "e2", view.Employees[0].ID)
	assert.Equal(t, 2, view.Summary.Count)

	empty, err := f.svc.Day(context.Background(), "2024-03-09")
	require.NoError(t, err)
	assert.NotNil(t, empty.Employees)
	assert.Equal(t, models.ColorUnderCapacity, empty.Summary.ColorClass)

	markers, err := f.svc.Occupancy(context.Background(), "2024-03-01", "2024-03-31")
	require.NoError(t, err)
	assert.Equal(t, []models.OccupancySummary{
		{Date: "2024-03-01", Count: 2, ColorClass: models.ColorUnderCapacity},
		{Date: "2024-03-04", Count: 4, ColorClass: models.ColorAtOrOverCapacity},
	}, markers)

	_, err = f.svc.Occupancy(context.Background(), "2024-03-31", "2024-03-01")
	assert.True(t, appErrors.Is(err, appErrors.ErrValidation))
}

func TestCandidates(t *testing.T) {
	f := newAssignmentFixture()
	f.calendar.seed("2024-03-01", assigned("e1", 7, "Ana"))

	list, err := f.svc.Candidates(context.Background(), "2024-03-01", "ana")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "e3", list[0].ID, "already assigned employees are excluded")

	list, err = f.svc.Candidates(context.Background(), "2024-03-01", "7")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "e2", list[0].ID)

	list, err = f.svc.Candidates(context.Background(), "2024-03-01", "  ")
	require.NoError(t, err)
	assert.Empty(t, list)
}
