package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/jmoiron/sqlx/types"
	"github.com/lib/pq"

	"github.com/noah-isme/leave-calendar-api/internal/models"
)

// calendarDayRow is the storage shape of a day document.
type calendarDayRow struct {
	Date      string         `db:"date"`
	Employees types.JSONText `db:"employees"`
	UpdatedAt time.Time      `db:"updated_at"`
}

func (r calendarDayRow) toModel() (models.DayAssignment, error) {
	day := models.DayAssignment{Date: r.Date, UpdatedAt: r.UpdatedAt, Employees: []models.AssignedEmployee{}}
	if len(r.Employees) > 0 {
		if err := r.Employees.Unmarshal(&day.Employees); err != nil {
			return models.DayAssignment{}, fmt.Errorf("decode day %s: %w", r.Date, err)
		}
	}
	if day.Employees == nil {
		day.Employees = []models.AssignedEmployee{}
	}
	return day, nil
}

// CalendarRepository stores one JSONB document per calendar date.
type CalendarRepository struct {
	db *sqlx.DB
}

// NewCalendarRepository constructs the repository.
func NewCalendarRepository(db *sqlx.DB) *CalendarRepository {
	return &CalendarRepository{db: db}
}

// Get returns the document for date, or an empty day when none is stored.
func (r *CalendarRepository) Get(ctx context.Context, date string) (*models.DayAssignment, error) {
	var row calendarDayRow
	err := r.db.GetContext(ctx, &row, `SELECT date, employees, updated_at FROM calendar_days WHERE date = $1`, date)
	if err != nil {
		if err == sql.ErrNoRows {
			return &models.DayAssignment{Date: date, Employees: []models.AssignedEmployee{}}, nil
		}
		return nil, fmt.Errorf("get calendar day: %w", err)
	}
	day, err := row.toModel()
	if err != nil {
		return nil, err
	}
	return &day, nil
}

// ListByDates returns stored documents for the given dates keyed by date. Missing dates are absent.
func (r *CalendarRepository) ListByDates(ctx context.Context, dates []string) (map[string]models.DayAssignment, error) {
	result := make(map[string]models.DayAssignment, len(dates))
	if len(dates) == 0 {
		return result, nil
	}
	var rows []calendarDayRow
	if err := r.db.SelectContext(ctx, &rows, `SELECT date, employees, updated_at FROM calendar_days WHERE date = ANY($1)`, pq.Array(dates)); err != nil {
		return nil, fmt.Errorf("list calendar days: %w", err)
	}
	return collectDays(rows, result)
}

// ListRange returns stored documents in [from, to] ordered by date.
func (r *CalendarRepository) ListRange(ctx context.Context, from, to string) ([]models.DayAssignment, error) {
	var rows []calendarDayRow
	if err := r.db.SelectContext(ctx, &rows, `SELECT date, employees, updated_at FROM calendar_days WHERE date >= $1 AND date <= $2 ORDER BY date ASC`, from, to); err != nil {
		return nil, fmt.Errorf("list calendar range: %w", err)
	}
	return toDays(rows)
}

// ListAll returns every stored document ordered by date.
func (r *CalendarRepository) ListAll(ctx context.Context) ([]models.DayAssignment, error) {
	var rows []calendarDayRow
	if err := r.db.SelectContext(ctx, &rows, `SELECT date, employees, updated_at FROM calendar_days ORDER BY date ASC`); err != nil {
		return nil, fmt.Errorf("list calendar days: %w", err)
	}
	return toDays(rows)
}

// ListForEmployee returns the documents that contain the employee id, ordered by date.
func (r *CalendarRepository) ListForEmployee(ctx context.Context, employeeID string) ([]models.DayAssignment, error) {
	filter, err := json.Marshal([]map[string]string{{"id": employeeID}})
	if err != nil {
		return nil, fmt.Errorf("encode employee filter: %w", err)
	}
	var rows []calendarDayRow
	if err := r.db.SelectContext(ctx, &rows, `SELECT date, employees, updated_at FROM calendar_days WHERE employees @> $1::jsonb ORDER BY date ASC`, string(filter)); err != nil {
		return nil, fmt.Errorf("list employee calendar: %w", err)
	}
	return toDays(rows)
}

// Put replaces the full document for the day.
func (r *CalendarRepository) Put(ctx context.Context, day *models.DayAssignment) error {
	employees := day.Employees
	if employees == nil {
		employees = []models.AssignedEmployee{}
	}
	payload, err := json.Marshal(employees)
	if err != nil {
		return fmt.Errorf("encode day %s: %w", day.Date, err)
	}
	day.UpdatedAt = time.Now().UTC()
	const query = `INSERT INTO calendar_days (date, employees, updated_at) VALUES ($1, $2, $3)
ON CONFLICT (date) DO UPDATE SET employees = EXCLUDED.employees, updated_at = EXCLUDED.updated_at`
	if _, err := r.db.ExecContext(ctx, query, day.Date, types.JSONText(payload), day.UpdatedAt); err != nil {
		return fmt.Errorf("put calendar day %s: %w", day.Date, err)
	}
	return nil
}

func toDays(rows []calendarDayRow) ([]models.DayAssignment, error) {
	days := make([]models.DayAssignment, 0, len(rows))
	for _, row := range rows {
		day, err := row.toModel()
		if err != nil {
			return nil, err
		}
		days = append(days, day)
	}
	return days, nil
}

func collectDays(rows []calendarDayRow, into map[string]models.DayAssignment) (map[string]models.DayAssignment, error) {
	for _, row := range rows {
		day, err := row.toModel()
		if err != nil {
			return nil, err
		}
		into[day.Date] = day
	}
	return into, nil
}
