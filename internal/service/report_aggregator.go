package service

import (
	"fmt"
	"sort"
	"time"

	"github.com/noah-isme/leave-calendar-api/internal/models"
	appErrors "github.com/noah-isme/leave-calendar-api/pkg/errors"
)

// ResolveDates expands a report query into ordered canonical dates.
// Week mode uses now in its own location, Sunday through Saturday.
func ResolveDates(query models.ReportQuery, now time.Time) ([]string, error) {
	switch query.Mode {
	case models.ReportModeDay:
		if query.Date == "" {
			return []string{}, nil
		}
		if _, ok := ParseDate(query.Date); !ok {
			return nil, invalidDate(query.Date)
		}
		return []string{query.Date}, nil
	case models.ReportModeRange:
		if query.Start == "" || query.End == "" {
			return []string{}, nil
		}
		start, ok := ParseDate(query.Start)
		if !ok {
			return nil, invalidDate(query.Start)
		}
		end, ok := ParseDate(query.End)
		if !ok {
			return nil, invalidDate(query.End)
		}
		if end.Before(start) {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("range end %s is before start %s", query.End, query.Start))
		}
		return datesBetween(start, end), nil
	case models.ReportModeWeek:
		local := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
		sunday := local.AddDate(0, 0, -int(now.Weekday()))
		return datesBetween(sunday, sunday.AddDate(0, 0, 6)), nil
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown report mode %q", query.Mode))
	}
}

// Aggregate folds day assignments into one row per employee.
// Rows keep first-seen order; each row's dates are sorted newest first.
func Aggregate(resolvedDates []string, assignmentsByDate map[string][]models.AssignedEmployee, employeeFilter *string) []models.ReportRow {
	rows := make([]models.ReportRow, 0)
	index := make(map[string]int)
	for _, date := range resolvedDates {
		for _, assignee := range assignmentsByDate[date] {
			if employeeFilter != nil && *employeeFilter != "" && assignee.ID != *employeeFilter {
				continue
			}
			i, ok := index[assignee.ID]
			if !ok {
				i = len(rows)
				index[assignee.ID] = i
				rows = append(rows, models.ReportRow{ID: assignee.ID, Number: assignee.Number, Name: assignee.Name, Dates: []string{}})
			}
			rows[i].Dates = append(rows[i].Dates, date)
		}
	}
	for i := range rows {
		sort.Sort(sort.Reverse(sort.StringSlice(rows[i].Dates)))
		rows[i].Count = len(rows[i].Dates)
	}
	return rows
}

func datesBetween(start, end time.Time) []string {
	dates := make([]string, 0, int(end.Sub(start).Hours()/24)+1)
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		dates = append(dates, d.Format(DateLayout))
	}
	return dates
}

func invalidDate(raw string) error {
	return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("invalid date %q, expected YYYY-MM-DD", raw))
}
