package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/leave-calendar-api/internal/models"
	appErrors "github.com/noah-isme/leave-calendar-api/pkg/errors"
)

func TestResolveDatesDay(t *testing.T) {
	dates, err := ResolveDates(models.ReportQuery{Mode: models.ReportModeDay, Date: "2024-03-01"}, time.Now())
	require.NoError(t, err)
	assert.Equal(t, []string{"2024-03-01"}, dates)

	dates, err = ResolveDates(models.ReportQuery{Mode: models.ReportModeDay}, time.Now())
	require.NoError(t, err)
	assert.Empty(t, dates)
}

func TestResolveDatesRange(t *testing.T) {
	dates, err := ResolveDates(models.ReportQuery{Mode: models.ReportModeRange, Start: "2024-03-01", End: "2024-03-03"}, time.Now())
	require.NoError(t, err)
	assert.Equal(t, []string{"2024-03-01", "2024-03-02", "2024-03-03"}, dates)

	dates, err = ResolveDates(models.ReportQuery{Mode: models.ReportModeRange, Start: "2024-02-28", End: "2024-03-01"}, time.Now())
	require.NoError(t, err)
	assert.Equal(t, []string{"2024-02-28", "2024-02-29", "2024-03-01"}, dates)

	dates, err = ResolveDates(models.ReportQuery{Mode: models.ReportModeRange, Start: "2024-03-01"}, time.Now())
	require.NoError(t, err)
	assert.Empty(t, dates)
}

func TestResolveDatesRangeEndBeforeStart(t *testing.T) {
	_, err := ResolveDates(models.ReportQuery{Mode: models.ReportModeRange, Start: "2024-03-03", End: "2024-03-01"}, time.Now())
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrValidation))
}

func TestResolveDatesWeek(t *testing.T) {
	// Wednesday
	now := time.Date(2024, 3, 6, 22, 0, 0, 0, time.UTC)
	dates, err := ResolveDates(models.ReportQuery{Mode: models.ReportModeWeek}, now)
	require.NoError(t, err)
	assert.Equal(t, []string{"2024-03-03", "2024-03-04", "2024-03-05", "2024-03-06", "2024-03-07", "2024-03-08", "2024-03-09"}, dates)

	sunday := time.Date(2024, 3, 3, 0, 30, 0, 0, time.UTC)
	dates, err = ResolveDates(models.ReportQuery{Mode: models.ReportModeWeek}, sunday)
	require.NoError(t, err)
	require.Len(t, dates, 7)
	assert.Equal(t, "2024-03-03", dates[0])
	first, _ := ParseDate(dates[0])
	assert.Equal(t, time.Sunday, first.Weekday())
}

func TestResolveDatesWeekUsesLocalCalendarDay(t *testing.T) {
	loc := time.FixedZone("UTC-5", -5*3600)
	// Sunday 02:00 UTC is still Saturday evening at UTC-5
	now := time.Date(2024, 3, 10, 2, 0, 0, 0, time.UTC).In(loc)
	dates, err := ResolveDates(models.ReportQuery{Mode: models.ReportModeWeek}, now)
	require.NoError(t, err)
	assert.Equal(t, "2024-03-03", dates[0])
	assert.Equal(t, "2024-03-09", dates[6])
}

func TestResolveDatesInvalid(t *testing.T) {
	_, err := ResolveDates(models.ReportQuery{Mode: "month"}, time.Now())
	assert.True(t, appErrors.Is(err, appErrors.ErrValidation))

	_, err = ResolveDates(models.ReportQuery{Mode: models.ReportModeDay, Date: "2024-3-1"}, time.Now())
	assert.True(t, appErrors.Is(err, appErrors.ErrValidation))
}

func aggregateFixture() map[string][]models.AssignedEmployee {
	a := models.AssignedEmployee{ID: "A", Number: 1, Name: "Alice"}
	b := models.AssignedEmployee{ID: "B", Number: 2, Name: "Bob"}
	return map[string][]models.AssignedEmployee{
		"2024-03-01": {a, b},
		"2024-03-02": {a},
	}
}

func TestAggregate(t *testing.T) {
	rows := Aggregate([]string{"2024-03-01", "2024-03-02"}, aggregateFixture(), nil)
	require.Len(t, rows, 2)
	assert.Equal(t, "A", rows[0].ID)
	assert.Equal(t, []string{"2024-03-02", "2024-03-01"}, rows[0].Dates)
	assert.Equal(t, 2, rows[0].Count)
	assert.Equal(t, "B", rows[1].ID)
	assert.Equal(t, []string{"2024-03-01"}, rows[1].Dates)
	assert.Equal(t, 1, rows[1].Count)
}

func TestAggregateFilter(t *testing.T) {
	filter := "B"
	rows := Aggregate([]string{"2024-03-01", "2024-03-02"}, aggregateFixture(), &filter)
	require.Len(t, rows, 1)
	assert.Equal(t, models.ReportRow{ID: "B", Number: 2, Name: "Bob", Dates: []string{"2024-03-01"}, Count: 1}, rows[0])
}

func TestAggregateEmpty(t *testing.T) {
	rows := Aggregate(nil, aggregateFixture(), nil)
	assert.NotNil(t, rows)
	assert.Empty(t, rows)
}

func TestAggregateKeepsFirstSnapshot(t *testing.T) {
	byDate := map[string][]models.AssignedEmployee{
		"2024-03-01": {{ID: "A", Number: 1, Name: "Alice"}},
		"2024-03-02": {{ID: "A", Number: 9, Name: "Alice Renamed"}},
	}
	rows := Aggregate([]string{"2024-03-01", "2024-03-02"}, byDate, nil)
	require.Len(t, rows, 1)
	assert.Equal(t, "Alice", rows[0].Name)
	assert.Equal(t, 1, rows[0].Number)
}

func TestAggregateRowsFollowFirstSeenOrder(t *testing.T) {
	late := models.AssignedEmployee{ID: "Z", Number: 9, Name: "Zed"}
	early := models.AssignedEmployee{ID: "A", Number: 1, Name: "Alice"}
	assignments := map[string][]models.AssignedEmployee{
		"2024-03-01": {late},
		"2024-03-02": {early, late},
	}
	rows := Aggregate([]string{"2024-03-01", "2024-03-02"}, assignments, nil)
	require.Len(t, rows, 2)
	assert.Equal(t, "Z", rows[0].ID)
	assert.Equal(t, []string{"2024-03-02", "2024-03-01"}, rows[0].Dates)
	assert.Equal(t, "A", rows[1].ID)
}
