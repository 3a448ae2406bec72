package models

import "time"

// Employee is a directory entry that can be assigned to calendar days.
type Employee struct {
	ID        string    `db:"id" json:"id"`
	Number    int       `db:"number" json:"number"`
	Name      string    `db:"name" json:"name"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// EmployeeFilter captures filtering criteria for listing employees.
type EmployeeFilter struct {
	Search    string
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}

// EmployeeRequest is the create/update payload for an employee.
type EmployeeRequest struct {
	Number int    `json:"number" validate:"required,gt=0"`
	Name   string `json:"name" validate:"required,max=200"`
}

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}
