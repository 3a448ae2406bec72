package models

// ReportMode selects how report dates are resolved.
type ReportMode string

const (
	ReportModeDay   ReportMode = "day"
	ReportModeRange ReportMode = "range"
	ReportModeWeek  ReportMode = "week"
)

// ReportQuery is the selection resolved into concrete dates.
type ReportQuery struct {
	Mode  ReportMode
	Date  string
	Start string
	End   string
}

// ReportRequest is the report endpoint input.
type ReportRequest struct {
	Mode       ReportMode `form:"mode" json:"mode" validate:"required,oneof=day range week"`
	Date       string     `form:"date" json:"date"`
	Start      string     `form:"start" json:"start"`
	End        string     `form:"end" json:"end"`
	EmployeeID string     `form:"employee_id" json:"employee_id"`
}

// Query returns the date selection of the request.
func (r ReportRequest) Query() ReportQuery {
	return ReportQuery{Mode: r.Mode, Date: r.Date, Start: r.Start, End: r.End}
}

// ReportRow aggregates one employee over the resolved dates.
type ReportRow struct {
	ID     string   `json:"id"`
	Number int      `json:"number"`
	Name   string   `json:"name"`
	Dates  []string `json:"dates"`
	Count  int      `json:"count"`
}

// ReportResult is a generated report.
type ReportResult struct {
	Mode  ReportMode  `json:"mode"`
	Dates []string    `json:"dates"`
	Rows  []ReportRow `json:"rows"`
}
