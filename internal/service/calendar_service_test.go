package service

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edusfera/journal-backend/internal/model"
)

func TestProjectMonthGrid(t *testing.T) {
	// February 2024 starts on a Thursday and has 29 days: the grid runs
	// Mon Jan 29 through Sun Mar 3, five whole weeks.
	now := time.Date(2024, time.February, 15, 12, 0, 0, 0, time.UTC)
	cells := ProjectMonth(2024, time.February, nil, now, zerolog.Nop())

	require.Len(t, cells, 35)
	assert.Equal(t, "2024-01-29", cells[0].Date)
	assert.Equal(t, 29, cells[0].Day)
	assert.False(t, cells[0].IsCurrentMonth)
	assert.Equal(t, "2024-02-01", cells[3].Date)
	assert.True(t, cells[3].IsCurrentMonth)
	assert.Equal(t, "2024-02-29", cells[31].Date)
	assert.True(t, cells[31].IsCurrentMonth)
	assert.Equal(t, "2024-03-03", cells[34].Date)
	assert.False(t, cells[34].IsCurrentMonth)
}

func TestProjectMonthMarksToday(t *testing.T) {
	now := time.Date(2024, time.February, 15, 23, 59, 0, 0, time.UTC)
	cells := ProjectMonth(2024, time.February, nil, now, zerolog.Nop())

	var todays []string
	for _, c := range cells {
		if c.IsToday {
			todays = append(todays, c.Date)
		}
	}
	assert.Equal(t, []string{"2024-02-15"}, todays)
}

func TestProjectMonthPlacesGrades(t *testing.T) {
	grades := map[string]model.GradeValue{
		"2024-02-05": model.GradeExcellent,
		"2024-02-06": model.GradeAbsent,
		"2024-03-01": model.GradeGood, // trail-out cell still renders
	}
	now := time.Date(2024, time.February, 1, 0, 0, 0, 0, time.UTC)
	cells := ProjectMonth(2024, time.February, grades, now, zerolog.Nop())

	byDate := make(map[string]model.DayCell, len(cells))
	for _, c := range cells {
		byDate[c.Date] = c
	}
	assert.Equal(t, model.GradeExcellent, byDate["2024-02-05"].Value)
	assert.Equal(t, model.GradeAbsent, byDate["2024-02-06"].Value)
	assert.Equal(t, model.GradeGood, byDate["2024-03-01"].Value)
	assert.Equal(t, model.GradeValue(""), byDate["2024-02-07"].Value)
}

func TestProjectMonthDropsMalformedKeys(t *testing.T) {
	grades := map[string]model.GradeValue{
		"not-a-date": model.GradeExcellent,
		"2024-02-05": model.GradeGood,
	}
	now := time.Date(2024, time.February, 1, 0, 0, 0, 0, time.UTC)
	cells := ProjectMonth(2024, time.February, grades, now, zerolog.Nop())

	require.Len(t, cells, 35)
	found := false
	for _, c := range cells {
		if c.Date == "2024-02-05" {
			found = true
			assert.Equal(t, model.GradeGood, c.Value)
		}
	}
	assert.True(t, found)
}

func TestMondayOffset(t *testing.T) {
	assert.Equal(t, 0, mondayOffset(time.Monday))
	assert.Equal(t, 3, mondayOffset(time.Thursday))
	assert.Equal(t, 5, mondayOffset(time.Saturday))
	assert.Equal(t, 6, mondayOffset(time.Sunday))
}
