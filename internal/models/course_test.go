package models

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/noah-isme/ccrm-api/pkg/errors"
)

func validParams() CourseParams {
	return CourseParams{Code: "CS101-A", Title: "Intro to Programming", Credits: 4, Instructor: "Dr. Rao", Semester: SemesterFall, Department: "CS"}
}

func TestNewCourse(t *testing.T) {
	c, err := NewCourse(validParams())
	require.NoError(t, err)
	assert.True(t, c.Active)
	assert.Equal(t, 4, c.Credits)
	assert.False(t, c.CreatedAt.IsZero())
}

func TestNewCourseRejectsInvalidInput(t *testing.T) {
	cases := map[string]func(p *CourseParams){
		"missing code":     func(p *CourseParams) { p.Code = "" },
		"missing title":    func(p *CourseParams) { p.Title = "  " },
		"missing semester": func(p *CourseParams) { p.Semester = "" },
		"unknown semester": func(p *CourseParams) { p.Semester = "AUTUMN" },
		"zero credits":     func(p *CourseParams) { p.Credits = 0 },
		"negative credits": func(p *CourseParams) { p.Credits = -2 },
		"too many credits": func(p *CourseParams) { p.Credits = 7 },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			p := validParams()
			mutate(&p)
			_, err := NewCourse(p)
			require.Error(t, err)
			assert.True(t, errors.Is(err, appErrors.ErrValidation))
		})
	}
}

func TestNewCourseCreditBounds(t *testing.T) {
	for _, credits := range []int{MinCredits, MaxCredits} {
		p := validParams()
		p.Credits = credits
		_, err := NewCourse(p)
		assert.NoError(t, err)
	}
}

func TestParseCourseCode(t *testing.T) {
	code, err := ParseCourseCode("cs101-a")
	require.NoError(t, err)
	assert.Equal(t, CourseCode{Department: "CS", Number: 101, Section: "A"}, code)
	assert.Equal(t, "CS101-A", code.String())

	for _, bad := range []string{"CS101", "101-A", "C101-A", "CSXYZ101-A", "CS99-A", "CS1000-A", "CS101-A-B"} {
		_, err := ParseCourseCode(bad)
		assert.Error(t, err, bad)
	}
}
