package models

import "time"

// EnrollmentStatus is derived from an enrollment's active flag and grade.
type EnrollmentStatus string

const (
	EnrollmentStatusEnrolled  EnrollmentStatus = "ENROLLED"
	EnrollmentStatusCompleted EnrollmentStatus = "COMPLETED"
	EnrollmentStatusDropped   EnrollmentStatus = "DROPPED"
)

// EnrollmentKey identifies an enrollment.
type EnrollmentKey struct {
	StudentID  string
	CourseCode string
}

// Enrollment links one student to one course.
type Enrollment struct {
	StudentID  string    `json:"student_id"`
	CourseCode string    `json:"course_code"`
	EnrolledAt time.Time `json:"enrolled_at"`
	Grade      *Grade    `json:"grade,omitempty"`
	Active     bool      `json:"active"`
}

// NewEnrollment returns an active, ungraded enrollment stamped now.
func NewEnrollment(studentID, courseCode string) *Enrollment {
	return &Enrollment{StudentID: studentID, CourseCode: courseCode, EnrolledAt: time.Now(), Active: true}
}

func (e *Enrollment) Key() EnrollmentKey {
	return EnrollmentKey{StudentID: e.StudentID, CourseCode: e.CourseCode}
}

// Status reports DROPPED when inactive, COMPLETED when graded, ENROLLED otherwise.
func (e *Enrollment) Status() EnrollmentStatus {
	if !e.Active {
		return EnrollmentStatusDropped
	}
	if e.Grade != nil {
		return EnrollmentStatusCompleted
	}
	return EnrollmentStatusEnrolled
}

func (e *Enrollment) AssignGrade(g Grade) {
	e.Grade = &g
}

// Deactivate drops the enrollment and discards its grade.
func (e *Enrollment) Deactivate() {
	e.Active = false
	e.Grade = nil
}

func (e *Enrollment) Clone() *Enrollment {
	if e == nil {
		return nil
	}
	cp := *e
	if e.Grade != nil {
		g := *e.Grade
		cp.Grade = &g
	}
	return &cp
}

// EnrollmentFilter narrows enrollment listings.
type EnrollmentFilter struct {
	StudentID  string
	CourseCode string
	Status     EnrollmentStatus
	Page       int
	PageSize   int
}

// Matches reports whether e satisfies every non-empty criterion.
func (f EnrollmentFilter) Matches(e *Enrollment) bool {
	if f.StudentID != "" && e.StudentID != f.StudentID {
		return false
	}
	if f.CourseCode != "" && e.CourseCode != f.CourseCode {
		return false
	}
	if f.Status != "" && e.Status() != f.Status {
		return false
	}
	return true
}
