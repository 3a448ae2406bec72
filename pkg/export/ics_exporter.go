package export

import (
	"fmt"
	"time"

	ics "github.com/arran4/golang-ical"
)

// CalendarEntry is one all-day event in an iCalendar feed.
type CalendarEntry struct {
	UID         string
	Date        time.Time
	Summary     string
	Description string
}

// ICSExporter renders all-day events into an iCalendar document.
type ICSExporter struct {
	ProductID string
}

// NewICSExporter constructs an iCalendar exporter.
func NewICSExporter() *ICSExporter {
	return &ICSExporter{ProductID: "-//leave-calendar-api//EN"}
}

// Render serialises the entries as VEVENTs spanning a single day each.
func (e *ICSExporter) Render(name string, entries []CalendarEntry, stamp time.Time) ([]byte, error) {
	if stamp.IsZero() {
		stamp = time.Now()
	}
	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId(e.ProductID)
	if name != "" {
		cal.SetName(name)
	}
	for _, entry := range entries {
		if entry.UID == "" {
			return nil, fmt.Errorf("calendar entry for %s has no uid", entry.Date.Format("2006-01-02"))
		}
		day := time.Date(entry.Date.Year(), entry.Date.Month(), entry.Date.Day(), 0, 0, 0, 0, time.UTC)
		event := cal.AddEvent(entry.UID)
		event.SetDtStampTime(stamp.UTC())
		event.SetAllDayStartAt(day)
		event.SetAllDayEndAt(day.AddDate(0, 0, 1))
		event.SetSummary(entry.Summary)
		if entry.Description != "" {
			event.SetDescription(entry.Description)
		}
	}
	return []byte(cal.Serialize()), nil
}
