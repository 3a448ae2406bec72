package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/leave-calendar-api/internal/models"
)

var employeeRowColumns = []string{"id", "number", "name", "created_at", "updated_at"}

func TestEmployeeRepositoryListDefaults(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewEmployeeRepository(db)

	now := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, number, name, created_at, updated_at FROM employees WHERE 1=1 ORDER BY number ASC, id ASC LIMIT 20 OFFSET 0")).
		WillReturnRows(sqlmock.NewRows(employeeRowColumns).AddRow("e1", 7, "Ana", now, now))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM employees WHERE 1=1")).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	list, total, err := repo.List(context.Background(), models.EmployeeFilter{})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, 7, list[0].Number)
	assert.Equal(t, 1, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEmployeeRepositoryListSearchAndSort(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewEmployeeRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, number, name, created_at, updated_at FROM employees WHERE 1=1 AND (CAST(number AS TEXT) LIKE $1 ESCAPE '\\' OR LOWER(name) LIKE $1 ESCAPE '\\') ORDER BY LOWER(name) DESC, id ASC LIMIT 6 OFFSET 6")).
		WithArgs("%ana%").
		WillReturnRows(sqlmock.NewRows(employeeRowColumns))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM employees WHERE 1=1 AND (CAST(number AS TEXT) LIKE $1 ESCAPE '\\' OR LOWER(name) LIKE $1 ESCAPE '\\')")).
		WithArgs("%ana%").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(7))

	_, total, err := repo.List(context.Background(), models.EmployeeFilter{Search: " Ana ", SortBy: "name", SortOrder: "desc", Page: 2, PageSize: 6})
	require.NoError(t, err)
	assert.Equal(t, 7, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEmployeeRepositoryListSearchEscapesWildcards(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewEmployeeRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, number, name, created_at, updated_at FROM employees WHERE 1=1 AND (CAST(number AS TEXT) LIKE $1 ESCAPE '\\' OR LOWER(name) LIKE $1 ESCAPE '\\')")).
		WithArgs(`%50\%\_a\\b%`).
		WillReturnRows(sqlmock.NewRows(employeeRowColumns))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM employees WHERE 1=1 AND (CAST(number AS TEXT) LIKE $1 ESCAPE '\\' OR LOWER(name) LIKE $1 ESCAPE '\\')")).
		WithArgs(`%50\%\_a\\b%`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

	list, total, err := repo.List(context.Background(), models.EmployeeFilter{Search: `50%_A\b`})
	require.NoError(t, err)
	assert.Empty(t, list)
	assert.Zero(t, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEmployeeRepositoryCreateUpdateDelete(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewEmployeeRepository(db)

	mock.ExpectExec("INSERT INTO employees").
		WithArgs(sqlmock.AnyArg(), 7, "Ana", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	employee := &models.Employee{Number: 7, Name: "Ana"}
	require.NoError(t, repo.Create(context.Background(), employee))
	assert.NotEmpty(t, employee.ID)

	mock.ExpectExec("UPDATE employees SET number").
		WithArgs(8, "Ana B", sqlmock.AnyArg(), employee.ID).
		WillReturnResult(sqlmock.NewResult(0, 1))
	employee.Number, employee.Name = 8, "Ana B"
	require.NoError(t, repo.Update(context.Background(), employee))

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM employees WHERE id = $1")).
		WithArgs("missing").
		WillReturnResult(sqlmock.NewResult(0, 0))
	assert.ErrorIs(t, repo.Delete(context.Background(), "missing"), sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEmployeeRepositoryFindByIDNotFound(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewEmployeeRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, number, name, created_at, updated_at FROM employees WHERE id = $1")).
		WithArgs("nope").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.FindByID(context.Background(), "nope")
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}
