package export

import (
	"bytes"
	"strings"
	"testing"
	"time"

	ics "github.com/arran4/golang-ical"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func sampleDataset() Dataset {
	return Dataset{
		Title:   "Employee leave report",
		Sheet:   "Report",
		Headers: []string{"#", "Number", "Name", "Dates", "Days"},
		Rows: []map[string]string{
			{"#": "1", "Number": "7", "Name": "Ana <Díaz>", "Dates": "02/03/2024, 01/03/2024", "Days": "2"},
			{"#": "2", "Number": "9", "Name": "Luis", "Dates": "01/03/2024", "Days": "1"},
		},
		PrintedAt: time.Date(2024, 3, 4, 9, 30, 0, 0, time.UTC),
	}
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat(" PDF ")
	require.NoError(t, err)
	assert.Equal(t, FormatPDF, f)

	f, err = ParseFormat("")
	require.NoError(t, err)
	assert.Equal(t, FormatXLSX, f)

	_, err = ParseFormat("docx")
	assert.Error(t, err)

	assert.Equal(t, "text/csv; charset=utf-8", ContentTypeForFile("report_1.csv"))
	assert.Equal(t, "application/octet-stream", ContentTypeForFile("noext"))
}

func TestCSVExporterRender(t *testing.T) {
	out, err := NewCSVExporter().Render(sampleDataset())
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(out)), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "#,Number,Name,Dates,Days", lines[0])
	assert.Equal(t, `1,7,Ana <Díaz>,"02/03/2024, 01/03/2024",2`, lines[1])

	_, err = NewCSVExporter().Render(Dataset{})
	assert.Error(t, err)
}

func TestXLSXExporterRender(t *testing.T) {
	out, err := NewXLSXExporter().Render(sampleDataset())
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(out))
	require.NoError(t, err)
	defer f.Close() //nolint:errcheck

	rows, err := f.GetRows("Report")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"#", "Number", "Name", "Dates", "Days"}, rows[0])
	assert.Equal(t, "Luis", rows[2][2])
}

func TestPDFExporterRender(t *testing.T) {
	out, err := NewPDFExporter().Render(sampleDataset())
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF")))
}

func TestHTMLExporterEscapesValues(t *testing.T) {
	out, err := NewHTMLExporter().Render(sampleDataset())
	require.NoError(t, err)
	html := string(out)
	assert.Contains(t, html, "<h1>Employee leave report</h1>")
	assert.Contains(t, html, "Ana &lt;Díaz&gt;")
	assert.Contains(t, html, "Printed at 04/03/2024 09:30")
}

func TestICSExporterRender(t *testing.T) {
	entries := []CalendarEntry{
		{UID: "e1-2024-03-01", Date: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), Summary: "Leave: Ana"},
		{UID: "e1-2024-03-02", Date: time.Date(2024, 3, 2, 0, 0, 0, 0, time.UTC), Summary: "Leave: Ana", Description: "Exception: surgery"},
	}
	out, err := NewICSExporter().Render("Ana", entries, time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	cal, err := ics.ParseCalendar(bytes.NewReader(out))
	require.NoError(t, err)
	require.Len(t, cal.Events(), 2)
	assert.Contains(t, string(out), "DTSTART;VALUE=DATE:20240301")
	assert.Contains(t, string(out), "Exception: surgery")

	_, err = NewICSExporter().Render("Ana", []CalendarEntry{{Date: time.Now()}}, time.Time{})
	assert.Error(t, err)
}
