package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGradeScale(t *testing.T) {
	expected := map[Grade]float64{GradeS: 10, GradeA: 9, GradeB: 8, GradeC: 7, GradeD: 6, GradeE: 5, GradeF: 0}
	for g, points := range expected {
		assert.Equal(t, points, g.Points(), g)
		assert.NotEmpty(t, g.Description())
	}
	assert.Equal(t, []Grade{GradeS, GradeA, GradeB, GradeC, GradeD, GradeE, GradeF}, AllGrades())
}

func TestOnlyFFails(t *testing.T) {
	for _, g := range AllGrades() {
		assert.Equal(t, g != GradeF, g.Passing(), g)
	}
}

func TestParseGrade(t *testing.T) {
	g, err := ParseGrade(" b ")
	require.NoError(t, err)
	assert.Equal(t, GradeB, g)

	_, err = ParseGrade("Z")
	assert.Error(t, err)
}

func TestGradeFromPoints(t *testing.T) {
	g, err := GradeFromPoints(8.95)
	require.NoError(t, err)
	assert.Equal(t, GradeA, g)

	_, err = GradeFromPoints(3)
	assert.Error(t, err)
}

func TestParseSemester(t *testing.T) {
	for _, in := range []string{"FALL", "fall", "Fall", " fAlL "} {
		s, err := ParseSemester(in)
		require.NoError(t, err)
		assert.Equal(t, SemesterFall, s)
	}
	_, err := ParseSemester("Autumn")
	assert.Error(t, err)

	assert.Equal(t, 1, SemesterSpring.Order())
	assert.Equal(t, 4, SemesterWinter.Order())
	assert.Equal(t, "Summer", SemesterSummer.DisplayName())
}
