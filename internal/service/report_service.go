package service

import (
	"context"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/noah-isme/ccrm-api/internal/models"
	appErrors "github.com/noah-isme/ccrm-api/pkg/errors"
)

type reportStudentReader interface {
	FindAll(ctx context.Context) ([]*models.Student, error)
}

type reportCourseReader interface {
	FindAll(ctx context.Context) ([]*models.Course, error)
}

type reportEnrollmentReader interface {
	ListAll(ctx context.Context, filter models.EnrollmentFilter) ([]*models.Enrollment, error)
}

// ReportService computes read-only aggregates over the registry and caches them.
// The bool returned by each method reports whether the result came from cache.
type ReportService struct {
	students    reportStudentReader
	courses     reportCourseReader
	enrollments reportEnrollmentReader
	cache       *CacheService
	logger      *zap.Logger
}

// NewReportService constructs a report service; cache may be nil.
func NewReportService(students reportStudentReader, courses reportCourseReader, enrollments reportEnrollmentReader, cache *CacheService, logger *zap.Logger) *ReportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReportService{students: students, courses: courses, enrollments: enrollments, cache: cache, logger: logger}
}

// GradeDistribution counts graded enrollments per letter, best grade first.
func (s *ReportService) GradeDistribution(ctx context.Context) ([]models.GradeCount, bool, error) {
	return cachedReport(ctx, s, "reports:grade-distribution", func() ([]models.GradeCount, error) {
		enrollments, err := s.enrollments.ListAll(ctx, models.EnrollmentFilter{})
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list enrollments")
		}
		counts := make(map[models.Grade]int)
		for _, e := range enrollments {
			if e.Grade != nil {
				counts[*e.Grade]++
			}
		}
		out := make([]models.GradeCount, 0, len(models.AllGrades()))
		for _, g := range models.AllGrades() {
			out = append(out, models.GradeCount{Grade: g, Description: g.Description(), Count: counts[g]})
		}
		return out, nil
	})
}

// TopStudents ranks active students by GPA, highest first. Equal GPAs keep ID order.
func (s *ReportService) TopStudents(ctx context.Context, n int) ([]models.StudentRanking, bool, error) {
	if n <= 0 {
		return nil, false, appErrors.Clone(appErrors.ErrValidation, "n must be positive")
	}
	return cachedReport(ctx, s, fmt.Sprintf("reports:top:%d", n), func() ([]models.StudentRanking, error) {
		active, err := s.activeStudents(ctx)
		if err != nil {
			return nil, err
		}
		sort.SliceStable(active, func(i, j int) bool { return active[i].GPA() > active[j].GPA() })
		if len(active) > n {
			active = active[:n]
		}
		out := make([]models.StudentRanking, 0, len(active))
		for i, st := range active {
			out = append(out, models.StudentRanking{Rank: i + 1, StudentID: st.ID, RegNo: st.RegNo, FullName: st.FullName, GPA: st.GPA()})
		}
		return out, nil
	})
}

// AverageGPA is the mean GPA of active students, 0 when there are none.
func (s *ReportService) AverageGPA(ctx context.Context) (float64, bool, error) {
	return cachedReport(ctx, s, "reports:average-gpa", func() (float64, error) {
		active, err := s.activeStudents(ctx)
		if err != nil {
			return 0, err
		}
		if len(active) == 0 {
			return 0, nil
		}
		var total float64
		for _, st := range active {
			total += st.GPA()
		}
		return total / float64(len(active)), nil
	})
}

// CourseStats summarises active courses by department and semester.
func (s *ReportService) CourseStats(ctx context.Context) (*models.CourseStats, bool, error) {
	return cachedReport(ctx, s, "reports:course-stats", func() (*models.CourseStats, error) {
		courses, err := s.courses.FindAll(ctx)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list courses")
		}
		stats := &models.CourseStats{ByDepartment: make(map[string]int), BySemester: []models.SemesterCourses{}}
		bySemester := make(map[models.Semester][]models.Course)
		credits := 0
		active := 0
		for _, c := range courses {
			if !c.Active {
				continue
			}
			active++
			credits += c.Credits
			stats.ByDepartment[c.Department]++
			bySemester[c.Semester] = append(bySemester[c.Semester], *c)
		}
		for _, sem := range models.Semesters() {
			if list, ok := bySemester[sem]; ok {
				stats.BySemester = append(stats.BySemester, models.SemesterCourses{Semester: sem, DisplayName: sem.DisplayName(), Courses: list})
			}
		}
		if active > 0 {
			stats.AverageCredits = float64(credits) / float64(active)
		}
		return stats, nil
	})
}

func (s *ReportService) activeStudents(ctx context.Context) ([]*models.Student, error) {
	students, err := s.students.FindAll(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list students")
	}
	active := students[:0]
	for _, st := range students {
		if st.Active {
			active = append(active, st)
		}
	}
	return active, nil
}

// cachedReport serves key from cache or computes it with load and stores the result.
// Cache failures degrade to a fresh computation.
func cachedReport[T any](ctx context.Context, s *ReportService, key string, load func() (T, error)) (T, bool, error) {
	var cached T
	if hit, err := s.cache.Get(ctx, key, &cached); err == nil && hit {
		return cached, true, nil
	}
	result, err := load()
	if err != nil {
		var zero T
		return zero, false, err
	}
	if err := s.cache.Set(ctx, key, result, 0); err != nil {
		s.logger.Warn("cache report", zap.String("key", key), zap.Error(err))
	}
	return result, false, nil
}
