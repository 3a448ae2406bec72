package models

import "time"

// DayCapacity is the number of employees a day accepts without an exception.
const DayCapacity = 4

// Occupancy marker classes.
const (
	ColorUnderCapacity    = "under-capacity"
	ColorAtOrOverCapacity = "at-or-over-capacity"
)

// AssignedEmployee is the employee snapshot stored on a day at assignment time.
// Later edits to the employee never rewrite it.
type AssignedEmployee struct {
	ID              string  `json:"id"`
	Number          int     `json:"number"`
	Name            string  `json:"name"`
	Exception       bool    `json:"exception"`
	ExceptionReason *string `json:"exception_reason"`
}

// DayAssignment is the full document stored for one calendar date.
type DayAssignment struct {
	Date      string             `json:"date"`
	Employees []AssignedEmployee `json:"employees"`
	UpdatedAt time.Time          `json:"updated_at"`
}

// Has reports whether the employee id is already on the day.
func (d *DayAssignment) Has(employeeID string) bool {
	for _, e := range d.Employees {
		if e.ID == employeeID {
			return true
		}
	}
	return false
}

// AssignDecision is the outcome of the capacity rule for one day.
type AssignDecision struct {
	Allowed           bool `json:"allowed"`
	RequiresException bool `json:"requires_exception"`
}

// OccupancySummary is the calendar marker for one day.
type OccupancySummary struct {
	Date       string `json:"date"`
	Count      int    `json:"count"`
	ColorClass string `json:"color_class"`
}

// DayView bundles a day's assignees with its marker.
type DayView struct {
	Date      string             `json:"date"`
	Employees []AssignedEmployee `json:"employees"`
	Summary   OccupancySummary   `json:"summary"`
}

// AssignRequest assigns one employee to one or more dates.
type AssignRequest struct {
	EmployeeID      string   `json:"employee_id" validate:"required"`
	Dates           []string `json:"dates" validate:"required,min=1,dive,required"`
	Exception       bool     `json:"exception"`
	ExceptionReason string   `json:"exception_reason"`
}

// AssignResult reports which dates received the employee and which already had it.
type AssignResult struct {
	Assigned  []string           `json:"assigned"`
	Skipped   []string           `json:"skipped"`
	Occupancy []OccupancySummary `json:"occupancy"`
}
