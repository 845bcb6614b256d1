package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStudentGPA(t *testing.T) {
	s := NewStudent("S001", "2023-CS-0001", "Asha Verma", "asha@campus.edu")
	assert.Equal(t, 0.0, s.GPA())

	s.Enroll("CS101-A")
	s.Enroll("MA201-B")
	s.AssignGrade("CS101-A", GradeA)
	s.AssignGrade("MA201-B", GradeB)
	assert.InDelta(t, 8.5, s.GPA(), 1e-9)
}

func TestStudentIgnoresGradeForUnenrolledCourse(t *testing.T) {
	s := NewStudent("S001", "2023-CS-0001", "Asha Verma", "asha@campus.edu")
	assert.False(t, s.AssignGrade("CS101-A", GradeS))
	assert.Empty(t, s.Grades())
}

func TestStudentUnenrollDropsGrade(t *testing.T) {
	s := NewStudent("S001", "2023-CS-0001", "Asha Verma", "asha@campus.edu")
	s.Enroll("CS101-A")
	s.AssignGrade("CS101-A", GradeC)
	s.Unenroll("CS101-A")

	assert.False(t, s.IsEnrolled("CS101-A"))
	_, graded := s.Grade("CS101-A")
	assert.False(t, graded)
	assert.Equal(t, 0.0, s.GPA())
}

func TestStudentSnapshotsAreIndependent(t *testing.T) {
	s := NewStudent("S001", "2023-CS-0001", "Asha Verma", "asha@campus.edu")
	s.Enroll("CS101-A")
	s.AssignGrade("CS101-A", GradeA)

	courses := s.EnrolledCourses()
	grades := s.Grades()
	courses[0] = "HACK"
	grades["CS101-A"] = GradeF
	assert.Equal(t, []string{"CS101-A"}, s.EnrolledCourses())
	assert.Equal(t, GradeA, s.Grades()["CS101-A"])

	clone := s.Clone()
	clone.Enroll("MA201-B")
	assert.False(t, s.IsEnrolled("MA201-B"))
}

func TestStudentJSON(t *testing.T) {
	s := NewStudent("S001", "2023-CS-0001", "Asha Verma", "asha@campus.edu")
	s.Enroll("CS101-A")
	s.AssignGrade("CS101-A", GradeS)

	raw, err := json.Marshal(s)
	require.NoError(t, err)
	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Equal(t, "S001", decoded["id"])
	assert.Equal(t, "2023-CS-0001", decoded["reg_no"])
	assert.Equal(t, 10.0, decoded["gpa"])
	assert.Equal(t, []interface{}{"CS101-A"}, decoded["enrolled_courses"])
}

func TestPersonVariants(t *testing.T) {
	people := []Person{
		NewStudent("S001", "2023-CS-0001", "Asha Verma", "asha@campus.edu"),
		NewInstructor("I001", "EMP-7", "Dr. Rao", "rao@campus.edu", "CS"),
	}
	assert.Equal(t, RoleStudent, people[0].Role())
	assert.Equal(t, RoleInstructor, people[1].Role())
	assert.Equal(t, "Dr. Rao", people[1].DisplayName())
	assert.True(t, people[0].IsActive())
}

func TestEnrollmentStatus(t *testing.T) {
	e := NewEnrollment("S001", "CS101-A")
	assert.Equal(t, EnrollmentStatusEnrolled, e.Status())
	e.AssignGrade(GradeB)
	assert.Equal(t, EnrollmentStatusCompleted, e.Status())
	e.Deactivate()
	assert.Equal(t, EnrollmentStatusDropped, e.Status())
	assert.Nil(t, e.Grade)
}

func TestPaginate(t *testing.T) {
	items := []int{1, 2, 3, 4, 5}
	page, meta := Paginate(items, 2, 2)
	assert.Equal(t, []int{3, 4}, page)
	assert.Equal(t, 5, meta.TotalCount)

	page, _ = Paginate(items, 9, 2)
	assert.Empty(t, page)
}
