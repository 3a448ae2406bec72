package models

import "time"

// ExportRequest selects the rendered format of an export.
type ExportRequest struct {
	Format string `json:"format" validate:"omitempty,oneof=xlsx pdf csv html"`
}

// ReportExportRequest exports a report selection.
type ReportExportRequest struct {
	ReportRequest
	Format string `json:"format" validate:"omitempty,oneof=xlsx pdf csv html"`
}

// ExportResult points at a rendered, downloadable file.
type ExportResult struct {
	ID        string    `json:"id"`
	Format    string    `json:"format"`
	Filename  string    `json:"filename"`
	Rows      int       `json:"rows"`
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expires_at"`
}
