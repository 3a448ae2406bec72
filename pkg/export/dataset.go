package export

import (
	"fmt"
	"strings"
	"time"
)

// Format identifies a rendered export representation.
type Format string

const (
	FormatXLSX Format = "xlsx"
	FormatPDF  Format = "pdf"
	FormatCSV  Format = "csv"
	FormatHTML Format = "html"
)

// Dataset defines tabular export content.
type Dataset struct {
	Title     string
	Sheet     string
	Headers   []string
	Rows      []map[string]string
	PrintedAt time.Time
}

// Empty reports whether the dataset carries no rows.
func (d Dataset) Empty() bool {
	return len(d.Rows) == 0
}

// Record returns the row values ordered by header.
func (d Dataset) Record(row map[string]string) []string {
	record := make([]string, len(d.Headers))
	for i, header := range d.Headers {
		record[i] = row[header]
	}
	return record
}

// ParseFormat normalises a requested format name.
func ParseFormat(raw string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(raw))); f {
	case FormatXLSX, FormatPDF, FormatCSV, FormatHTML:
		return f, nil
	case "":
		return FormatXLSX, nil
	default:
		return "", fmt.Errorf("unsupported export format %q", raw)
	}
}

// Extension returns the file suffix for the format.
func (f Format) Extension() string {
	return "." + string(f)
}

// ContentType returns the MIME type served for the format.
func (f Format) ContentType() string {
	switch f {
	case FormatXLSX:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case FormatPDF:
		return "application/pdf"
	case FormatCSV:
		return "text/csv; charset=utf-8"
	case FormatHTML:
		return "text/html; charset=utf-8"
	default:
		return "application/octet-stream"
	}
}

// ContentTypeForFile resolves a MIME type from a stored file name.
func ContentTypeForFile(name string) string {
	idx := strings.LastIndex(name, ".")
	if idx < 0 {
		return Format("").ContentType()
	}
	return Format(strings.ToLower(name[idx+1:])).ContentType()
}

func printedAtLabel(t time.Time) string {
	if t.IsZero() {
		t = time.Now()
	}
	return "Printed at " + t.Format("02/01/2006 15:04")
}
