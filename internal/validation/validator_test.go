package validation

import (
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/ccrm-api/internal/models"
)

func TestRegNo(t *testing.T) {
	for _, ok := range []string{"2023-CS-0001", "2024-MATH-1200", "2019-ee-0420"} {
		assert.True(t, IsRegNo(ok), ok)
	}
	for _, bad := range []string{"", "23-CS-0001", "2023-C-0001", "2023-CS-1", "2023-CS-0000", "2023_CS_0001"} {
		assert.False(t, IsRegNo(bad), bad)
	}
}

func TestRegNoIntakeYearRange(t *testing.T) {
	for _, ok := range []string{"2000-CS-0001", "2030-CS-0001"} {
		assert.True(t, IsRegNo(ok), ok)
	}
	for _, bad := range []string{"1999-CS-0001", "2031-CS-0001", "0000-CS-0001", "9999-CS-0001"} {
		assert.False(t, IsRegNo(bad), bad)
	}
}

func TestCourseCode(t *testing.T) {
	for _, ok := range []string{"CS101-A", "MATH201-1", "ee300-b"} {
		assert.True(t, IsCourseCode(ok), ok)
	}
	for _, bad := range []string{"CS101", "CS10-A", "C101-A", "CS101-AB"} {
		assert.False(t, IsCourseCode(bad), bad)
	}
}

func TestStudentStructValidation(t *testing.T) {
	v := New()
	require.NoError(t, v.Struct(models.NewStudent("S001", "2023-CS-0001", "Asha", "asha@campus.edu")))

	err := v.Struct(models.NewStudent("S001", "bad", "Asha", "not-an-email"))
	require.Error(t, err)
	fields := map[string]bool{}
	for _, fe := range err.(validator.ValidationErrors) {
		fields[fe.Field()] = true
	}
	assert.True(t, fields["reg_no"])
	assert.True(t, fields["email"])
}

func TestCourseStructValidation(t *testing.T) {
	v := New()
	course := &models.Course{Code: "CS101-A", Title: "Intro", Credits: 3, Semester: models.SemesterFall}
	require.NoError(t, v.Struct(course))

	course.Code = "CS1-A"
	course.Credits = 9
	assert.Error(t, v.Struct(course))
}
