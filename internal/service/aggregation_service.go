package service

import (
	"math"

	"github.com/edusfera/journal-backend/internal/model"
)

// SubjectAverage computes the mean of a subject's numeric grades, rounded to
// one decimal place. Attendance markers carry no numeric weight and are
// excluded from both the sum and the count. No numeric grades yields (0, 0);
// the zero average is a sentinel for "no data", never a computed result.
func SubjectAverage(grades map[string]model.GradeValue) (float64, int) {
	sum, count := 0, 0
	for _, v := range grades {
		n, ok := v.Numeric()
		if !ok {
			continue
		}
		sum += n
		count++
	}
	if count == 0 {
		return 0, 0
	}
	return round1(float64(sum) / float64(count)), count
}

// OverallAverage computes the mean of per-subject averages, rounded to one
// decimal place. Subjects with the no-data sentinel are excluded so an empty
// subject cannot drag the overall figure down.
func OverallAverage(averages []float64) float64 {
	sum, count := 0.0, 0
	for _, a := range averages {
		if a <= 0 {
			continue
		}
		sum += a
		count++
	}
	if count == 0 {
		return 0
	}
	return round1(sum / float64(count))
}

// ClassifyAverage maps an average onto a performance tier: below 3.6 is low,
// up to and including 4.5 is medium, above is high. The no-data sentinel
// lands in the low tier.
func ClassifyAverage(avg float64) model.Tier {
	switch {
	case avg < 3.6:
		return model.TierLow
	case avg <= 4.5:
		return model.TierMedium
	default:
		return model.TierHigh
	}
}

// round1 rounds half-up to one decimal place. All inputs here are
// non-negative.
func round1(x float64) float64 {
	return math.Floor(x*10+0.5) / 10
}
