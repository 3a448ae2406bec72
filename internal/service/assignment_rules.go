package service

import (
	"strings"
	"time"

	"github.com/noah-isme/leave-calendar-api/internal/models"
)

// DateLayout is the canonical zero-padded day key.
const DateLayout = "2006-01-02"

// CanAssign applies the day capacity rule to the current assignee count.
func CanAssign(currentCount int) models.AssignDecision {
	if currentCount < models.DayCapacity {
		return models.AssignDecision{Allowed: true}
	}
	return models.AssignDecision{Allowed: false, RequiresException: true}
}

// DayOccupancySummary derives the calendar marker for a day.
func DayOccupancySummary(day models.DayAssignment) models.OccupancySummary {
	count := len(day.Employees)
	color := models.ColorUnderCapacity
	if count >= models.DayCapacity {
		color = models.ColorAtOrOverCapacity
	}
	return models.OccupancySummary{Date: day.Date, Count: count, ColorClass: color}
}

// NewAssignedEmployee snapshots an employee for storage on a day. The reason is kept only for exceptions.
func NewAssignedEmployee(employee models.Employee, exception bool, reason string) models.AssignedEmployee {
	snapshot := models.AssignedEmployee{
		ID:        employee.ID,
		Number:    employee.Number,
		Name:      employee.Name,
		Exception: exception,
	}
	if exception {
		trimmed := strings.TrimSpace(reason)
		snapshot.ExceptionReason = &trimmed
	}
	return snapshot
}

// ParseDate validates a canonical YYYY-MM-DD key.
func ParseDate(raw string) (time.Time, bool) {
	if len(raw) != len(DateLayout) {
		return time.Time{}, false
	}
	t, err := time.Parse(DateLayout, raw)
	if err != nil || t.Format(DateLayout) != raw {
		return time.Time{}, false
	}
	return t, true
}
