package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseGradeValue(t *testing.T) {
	for _, raw := range []string{"5", "4", "3", "2", "Н", "УП"} {
		v, ok := ParseGradeValue(raw)
		assert.True(t, ok, raw)
		assert.Equal(t, GradeValue(raw), v)
	}

	for _, raw := range []string{"", "1", "6", "A", "н", "5 "} {
		_, ok := ParseGradeValue(raw)
		assert.False(t, ok, raw)
	}
}

func TestGradeValueNumeric(t *testing.T) {
	cases := map[GradeValue]int{
		GradeExcellent: 5,
		GradeGood:      4,
		GradeFair:      3,
		GradePoor:      2,
	}
	for v, want := range cases {
		n, ok := v.Numeric()
		assert.True(t, ok)
		assert.Equal(t, want, n)
	}

	for _, v := range []GradeValue{GradeAbsent, GradeExcused, GradeValue("")} {
		_, ok := v.Numeric()
		assert.False(t, ok, string(v))
	}
}
