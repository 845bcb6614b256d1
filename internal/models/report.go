package models

import "time"

// EnrollmentDetail enriches an enrollment with course data and its derived status.
type EnrollmentDetail struct {
	Enrollment
	Status      EnrollmentStatus `json:"status"`
	CourseTitle string           `json:"course_title,omitempty"`
	Credits     int              `json:"credits,omitempty"`
	Semester    Semester         `json:"semester,omitempty"`
}

// GradeCount is one bucket of a grade distribution.
type GradeCount struct {
	Grade       Grade  `json:"grade"`
	Description string `json:"description"`
	Count       int    `json:"count"`
}

// StudentRanking is a row in the top-students report.
type StudentRanking struct {
	Rank      int     `json:"rank"`
	StudentID string  `json:"student_id"`
	RegNo     string  `json:"reg_no"`
	FullName  string  `json:"full_name"`
	GPA       float64 `json:"gpa"`
}

// TranscriptLine is one course on a student's transcript.
type TranscriptLine struct {
	CourseCode string           `json:"course_code"`
	Title      string           `json:"title"`
	Credits    int              `json:"credits"`
	Semester   Semester         `json:"semester"`
	Grade      *Grade           `json:"grade,omitempty"`
	Points     *float64         `json:"points,omitempty"`
	Status     EnrollmentStatus `json:"status"`
}

// Transcript summarises a student's enrollments and standing.
type Transcript struct {
	StudentID   string           `json:"student_id"`
	RegNo       string           `json:"reg_no"`
	FullName    string           `json:"full_name"`
	Lines       []TranscriptLine `json:"lines"`
	CreditLoad  int              `json:"credit_load"`
	GPA         float64          `json:"gpa"`
	GeneratedAt time.Time        `json:"generated_at"`
}

// SemesterCourses groups active courses offered in one semester.
type SemesterCourses struct {
	Semester    Semester `json:"semester"`
	DisplayName string   `json:"display_name"`
	Courses     []Course `json:"courses"`
}

// CourseStats aggregates the active course catalogue.
type CourseStats struct {
	ByDepartment   map[string]int    `json:"by_department"`
	BySemester     []SemesterCourses `json:"by_semester"`
	AverageCredits float64           `json:"average_credits"`
}

// CourseFilter narrows course searches; empty fields are ignored.
type CourseFilter struct {
	Instructor string
	Department string
	Semester   Semester
	MinCredits int
	MaxCredits int
	ActiveOnly bool
}

// Matches applies every non-empty criterion.
func (f CourseFilter) Matches(c *Course) bool {
	if f.Instructor != "" && c.Instructor != f.Instructor {
		return false
	}
	if f.Department != "" && c.Department != f.Department {
		return false
	}
	if f.Semester != "" && c.Semester != f.Semester {
		return false
	}
	if f.MinCredits > 0 && c.Credits < f.MinCredits {
		return false
	}
	if f.MaxCredits > 0 && c.Credits > f.MaxCredits {
		return false
	}
	if f.ActiveOnly && !c.Active {
		return false
	}
	return true
}

// SystemMetrics is a point-in-time summary of service counters.
type SystemMetrics struct {
	RequestsTotal            uint64    `json:"requests_total"`
	AverageRequestDurationMs float64   `json:"average_request_duration_ms"`
	CacheHits                uint64    `json:"cache_hits"`
	CacheMisses              uint64    `json:"cache_misses"`
	CacheHitRatio            float64   `json:"cache_hit_ratio"`
	EnrollmentsAccepted      uint64    `json:"enrollments_accepted"`
	EnrollmentsRejected      uint64    `json:"enrollments_rejected"`
	GradesAssigned           uint64    `json:"grades_assigned"`
	Goroutines               int       `json:"goroutines"`
	GeneratedAt              time.Time `json:"generated_at"`
}
