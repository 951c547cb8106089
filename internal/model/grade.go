package model

import "time"

// DateLayout is the canonical calendar-day key used in storage and over the
// wire. Grade records carry no time component.
const DateLayout = "2006-01-02"

// GradeValue is the closed set of values a teacher can put into a journal
// cell: the numeric tiers "5".."2" (highest to lowest) plus the absence
// markers "Н" (absent) and "УП" (excused absence).
type GradeValue string

const (
	GradeExcellent GradeValue = "5"
	GradeGood      GradeValue = "4"
	GradeFair      GradeValue = "3"
	GradePoor      GradeValue = "2"
	GradeAbsent    GradeValue = "Н"
	GradeExcused   GradeValue = "УП"
)

// ParseGradeValue validates raw input against the closed enumeration.
func ParseGradeValue(raw string) (GradeValue, bool) {
	switch v := GradeValue(raw); v {
	case GradeExcellent, GradeGood, GradeFair, GradePoor, GradeAbsent, GradeExcused:
		return v, true
	}
	return "", false
}

// Numeric returns the integer worth of the value and whether it counts
// toward averages. Absence markers carry no numeric worth.
func (v GradeValue) Numeric() (int, bool) {
	switch v {
	case GradeExcellent:
		return 5, true
	case GradeGood:
		return 4, true
	case GradeFair:
		return 3, true
	case GradePoor:
		return 2, true
	}
	return 0, false
}

// GradeRecord is one journal cell. At most one record exists per
// (student, subject, calendar day); writes overwrite, never append.
type GradeRecord struct {
	StudentID string     `json:"student_id"`
	SubjectID string     `json:"subject_id"`
	Date      time.Time  `json:"date"`
	Value     GradeValue `json:"value"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// Tier buckets a numeric average for presentation.
type Tier string

const (
	TierLow    Tier = "low"
	TierMedium Tier = "medium"
	TierHigh   Tier = "high"
)

// SubjectAverage is derived from the raw grade mapping and never persisted.
// SampleCount of zero means no numeric grades yet; Average is then 0.
type SubjectAverage struct {
	StudentID   string  `json:"student_id"`
	SubjectID   string  `json:"subject_id"`
	Average     float64 `json:"average"`
	SampleCount int     `json:"sample_count"`
}
