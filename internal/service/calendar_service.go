package service

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/edusfera/journal-backend/internal/model"
)

// ProjectMonth lays a month's grades onto a Monday-first calendar grid. The
// grid always spans whole weeks, so it starts on the Monday at or before the
// 1st and ends on the Sunday at or after the last day; lead-in and trail-out
// cells belong to the neighboring months and are marked accordingly.
//
// Grade keys that do not parse as dates are dropped, not surfaced as errors:
// a stray key must never blank the whole calendar.
func ProjectMonth(year int, month time.Month, grades map[string]model.GradeValue, now time.Time, log zerolog.Logger) []model.DayCell {
	valid := make(map[string]model.GradeValue, len(grades))
	for key, v := range grades {
		if _, err := time.Parse(model.DateLayout, key); err != nil {
			log.Debug().Str("key", key).Msg("Dropping malformed grade date")
			continue
		}
		valid[key] = v
	}

	first := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	start := first.AddDate(0, 0, -mondayOffset(first.Weekday()))
	last := first.AddDate(0, 1, -1)
	end := last.AddDate(0, 0, 6-mondayOffset(last.Weekday()))

	today := now.Format(model.DateLayout)

	var cells []model.DayCell
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		key := d.Format(model.DateLayout)
		cells = append(cells, model.DayCell{
			Date:           key,
			Day:            d.Day(),
			IsCurrentMonth: d.Month() == month && d.Year() == year,
			IsToday:        key == today,
			Value:          valid[key],
		})
	}
	return cells
}

// mondayOffset is the number of days since the most recent Monday.
func mondayOffset(w time.Weekday) int {
	return (int(w) + 6) % 7
}
