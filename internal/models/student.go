package models

import (
	"encoding/json"
	"sort"
	"strings"
	"time"
)

// Student is a learner registered under an immutable registration number (YYYY-DEPT-NNNN).
type Student struct {
	Profile
	RegNo string `json:"reg_no" validate:"required,regno"`

	enrolled map[string]struct{}
	grades   map[string]Grade
}

// NewStudent returns an active student with no enrollments.
func NewStudent(id, regNo, fullName, email string) *Student {
	return &Student{
		Profile:  newProfile(strings.TrimSpace(id), strings.TrimSpace(fullName), strings.TrimSpace(email)),
		RegNo:    strings.TrimSpace(regNo),
		enrolled: make(map[string]struct{}),
		grades:   make(map[string]Grade),
	}
}

func (s *Student) Role() Role { return RoleStudent }

// Enroll adds the course to the enrolled set.
func (s *Student) Enroll(courseCode string) {
	if s.enrolled == nil {
		s.enrolled = make(map[string]struct{})
	}
	s.enrolled[courseCode] = struct{}{}
}

// Unenroll removes the course and any grade recorded for it.
func (s *Student) Unenroll(courseCode string) {
	delete(s.enrolled, courseCode)
	delete(s.grades, courseCode)
}

func (s *Student) IsEnrolled(courseCode string) bool {
	_, ok := s.enrolled[courseCode]
	return ok
}

// AssignGrade records g for a course the student is enrolled in; other courses are ignored.
func (s *Student) AssignGrade(courseCode string, g Grade) bool {
	if !s.IsEnrolled(courseCode) {
		return false
	}
	if s.grades == nil {
		s.grades = make(map[string]Grade)
	}
	s.grades[courseCode] = g
	return true
}

// EnrolledCourses returns the enrolled course codes sorted.
func (s *Student) EnrolledCourses() []string {
	out := make([]string, 0, len(s.enrolled))
	for code := range s.enrolled {
		out = append(out, code)
	}
	sort.Strings(out)
	return out
}

// Grades returns a copy of the course-to-grade mapping.
func (s *Student) Grades() map[string]Grade {
	out := make(map[string]Grade, len(s.grades))
	for code, g := range s.grades {
		out[code] = g
	}
	return out
}

// Grade returns the grade recorded for courseCode, if any.
func (s *Student) Grade(courseCode string) (Grade, bool) {
	g, ok := s.grades[courseCode]
	return g, ok
}

// GPA is the unweighted mean of recorded grade points, 0 when nothing is graded.
func (s *Student) GPA() float64 {
	if len(s.grades) == 0 {
		return 0
	}
	var total float64
	for _, g := range s.grades {
		total += g.Points()
	}
	return total / float64(len(s.grades))
}

// KeepRecordsOf copies prior's enrollments, grades and creation time onto s.
// Re-importing a known student refreshes the profile without losing its history.
func (s *Student) KeepRecordsOf(prior *Student) {
	if prior == nil {
		return
	}
	c := prior.Clone()
	s.enrolled = c.enrolled
	s.grades = c.grades
	s.CreatedAt = prior.CreatedAt
}

// Clone returns a deep copy.
func (s *Student) Clone() *Student {
	if s == nil {
		return nil
	}
	cp := *s
	cp.enrolled = make(map[string]struct{}, len(s.enrolled))
	for code := range s.enrolled {
		cp.enrolled[code] = struct{}{}
	}
	cp.grades = s.Grades()
	return &cp
}

type studentJSON struct {
	ID              string           `json:"id"`
	RegNo           string           `json:"reg_no"`
	FullName        string           `json:"full_name"`
	Email           string           `json:"email"`
	Active          bool             `json:"active"`
	CreatedAt       time.Time        `json:"created_at"`
	EnrolledCourses []string         `json:"enrolled_courses"`
	Grades          map[string]Grade `json:"grades"`
	GPA             float64          `json:"gpa"`
}

func (s *Student) MarshalJSON() ([]byte, error) {
	return json.Marshal(studentJSON{
		ID:              s.ID,
		RegNo:           s.RegNo,
		FullName:        s.FullName,
		Email:           s.Email,
		Active:          s.Active,
		CreatedAt:       s.CreatedAt,
		EnrolledCourses: s.EnrolledCourses(),
		Grades:          s.Grades(),
		GPA:             s.GPA(),
	})
}

// StudentFilter encapsulates allowed search parameters for listing students.
type StudentFilter struct {
	Search   string
	Active   *bool
	Page     int
	PageSize int
}

// Matches applies the search and active criteria.
func (f StudentFilter) Matches(s *Student) bool {
	if f.Active != nil && s.Active != *f.Active {
		return false
	}
	if f.Search == "" {
		return true
	}
	q := strings.ToLower(f.Search)
	return strings.Contains(strings.ToLower(s.FullName), q) ||
		strings.Contains(strings.ToLower(s.RegNo), q) ||
		strings.Contains(strings.ToLower(s.Email), q)
}
