package model

// DayCell is one cell of a projected month grid, including the leading and
// trailing days of adjacent months needed to complete the week rows.
type DayCell struct {
	Date           string     `json:"date"`
	Day            int        `json:"day"`
	IsCurrentMonth bool       `json:"is_current_month"`
	IsToday        bool       `json:"is_today"`
	Value          GradeValue `json:"value,omitempty"`
}
