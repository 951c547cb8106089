package service

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/edusfera/journal-backend/internal/model"
)

func TestSubjectAverage(t *testing.T) {
	avg, count := SubjectAverage(map[string]model.GradeValue{
		"2026-02-02": model.GradeExcellent,
		"2026-02-03": model.GradeGood,
		"2026-02-04": model.GradeGood,
	})
	assert.Equal(t, 4.3, avg)
	assert.Equal(t, 3, count)
}

func TestSubjectAverageIgnoresMarkers(t *testing.T) {
	avg, count := SubjectAverage(map[string]model.GradeValue{
		"2026-02-02": model.GradeExcellent,
		"2026-02-03": model.GradeAbsent,
		"2026-02-04": model.GradeExcused,
		"2026-02-05": model.GradeFair,
	})
	assert.Equal(t, 4.0, avg)
	assert.Equal(t, 2, count)
}

func TestSubjectAverageNoNumericGrades(t *testing.T) {
	avg, count := SubjectAverage(map[string]model.GradeValue{
		"2026-02-02": model.GradeAbsent,
		"2026-02-03": model.GradeExcused,
	})
	assert.Equal(t, 0.0, avg)
	assert.Equal(t, 0, count)

	avg, count = SubjectAverage(nil)
	assert.Equal(t, 0.0, avg)
	assert.Equal(t, 0, count)
}

func TestSubjectAverageRoundsHalfUp(t *testing.T) {
	// (5+4)/2 = 4.5 stays, (5+4+4)/3 = 4.333... rounds down,
	// (4+3)/2 = 3.5 stays, (5+5+4+4)/4 = 4.5 stays.
	avg, _ := SubjectAverage(map[string]model.GradeValue{
		"a": model.GradeExcellent, "b": model.GradeGood,
	})
	assert.Equal(t, 4.5, avg)

	// (2+2+5)/3 = 3.0
	avg, _ = SubjectAverage(map[string]model.GradeValue{
		"a": model.GradePoor, "b": model.GradePoor, "c": model.GradeExcellent,
	})
	assert.Equal(t, 3.0, avg)

	// (5+4+4+4+4+4)/6 = 4.1666... rounds to 4.2
	avg, _ = SubjectAverage(map[string]model.GradeValue{
		"a": model.GradeExcellent, "b": model.GradeGood, "c": model.GradeGood,
		"d": model.GradeGood, "e": model.GradeGood, "f": model.GradeGood,
	})
	assert.Equal(t, 4.2, avg)
}

func TestOverallAverageSkipsEmptySubjects(t *testing.T) {
	assert.Equal(t, 4.0, OverallAverage([]float64{5, 3, 0, 0}))
	assert.Equal(t, 0.0, OverallAverage([]float64{0, 0}))
	assert.Equal(t, 0.0, OverallAverage(nil))
}

func TestClassifyAverage(t *testing.T) {
	assert.Equal(t, model.TierLow, ClassifyAverage(0))
	assert.Equal(t, model.TierLow, ClassifyAverage(2.0))
	assert.Equal(t, model.TierLow, ClassifyAverage(3.59))
	assert.Equal(t, model.TierMedium, ClassifyAverage(3.6))
	assert.Equal(t, model.TierMedium, ClassifyAverage(4.5))
	assert.Equal(t, model.TierHigh, ClassifyAverage(4.51))
	assert.Equal(t, model.TierHigh, ClassifyAverage(5.0))
}
