package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/ccrm-api/internal/models"
	"github.com/noah-isme/ccrm-api/internal/repository"
	"github.com/noah-isme/ccrm-api/pkg/config"
	appErrors "github.com/noah-isme/ccrm-api/pkg/errors"
)

type studentStore interface {
	FindByID(ctx context.Context, id string) (*models.Student, error)
	Mutate(ctx context.Context, id string, fn func(*models.Student) error) (*models.Student, error)
}

type courseReader interface {
	FindByID(ctx context.Context, code string) (*models.Course, error)
}

type enrollmentStore interface {
	Find(ctx context.Context, studentID, courseCode string) (*models.Enrollment, error)
	Save(ctx context.Context, enrollment *models.Enrollment) error
	ListByStudent(ctx context.Context, studentID string) ([]*models.Enrollment, error)
	ListAll(ctx context.Context, filter models.EnrollmentFilter) ([]*models.Enrollment, error)
}

// EnrollRequest is the payload for enrolling a student in a course.
type EnrollRequest struct {
	StudentID  string `json:"student_id" validate:"required"`
	CourseCode string `json:"course_code" validate:"required"`
}

// AssignGradeRequest is the payload for recording a grade.
type AssignGradeRequest struct {
	StudentID  string `json:"student_id" validate:"required"`
	CourseCode string `json:"course_code" validate:"required"`
	Grade      string `json:"grade" validate:"required"`
}

// EnrollmentService is the only writer of enrollment and grade state. Each
// compound operation holds mu so the enrollment row and the student's
// course set change together.
type EnrollmentService struct {
	mu          sync.Mutex
	students    studentStore
	courses     courseReader
	enrollments enrollmentStore
	cache       *CacheService
	metrics     *MetricsService
	maxCredits  int
	logger      *zap.Logger
}

// NewEnrollmentService constructs the engine. A non-positive maxCredits uses the default of 24.
func NewEnrollmentService(students studentStore, courses courseReader, enrollments enrollmentStore, cache *CacheService, metrics *MetricsService, maxCredits int, logger *zap.Logger) *EnrollmentService {
	if maxCredits <= 0 {
		maxCredits = config.DefaultMaxCreditsPerSemester
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EnrollmentService{
		students:    students,
		courses:     courses,
		enrollments: enrollments,
		cache:       cache,
		metrics:     metrics,
		maxCredits:  maxCredits,
		logger:      logger,
	}
}

// MaxCredits returns the credit ceiling enforced by Enroll.
func (s *EnrollmentService) MaxCredits() int {
	return s.maxCredits
}

// Enroll registers the student in the course. The credit limit applies to the
// load carried before this course is added, so a student at 22 of 24 credits
// may still take a 3-credit course.
func (s *EnrollmentService) Enroll(ctx context.Context, studentID, courseCode string) (*models.Enrollment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	student, err := s.students.FindByID(ctx, studentID)
	if err != nil {
		s.metrics.RecordEnrollment(lookupOutcome(err))
		return nil, lookupError(err, "student", studentID)
	}
	course, err := s.courses.FindByID(ctx, courseCode)
	if err != nil {
		s.metrics.RecordEnrollment(lookupOutcome(err))
		return nil, lookupError(err, "course", courseCode)
	}

	load, err := s.creditLoad(ctx, student)
	if err != nil {
		s.metrics.RecordEnrollment(OutcomeInternalError)
		return nil, err
	}
	if load >= s.maxCredits {
		s.metrics.RecordEnrollment(OutcomeCreditLimit)
		return nil, appErrors.Clone(appErrors.ErrCreditLimitExceeded,
			fmt.Sprintf("student %s already carries %d of %d credits", studentID, load, s.maxCredits))
	}

	existing, err := s.enrollments.Find(ctx, studentID, course.Code)
	switch {
	case err == nil && existing.Active:
		s.metrics.RecordEnrollment(OutcomeDuplicate)
		return nil, appErrors.Clone(appErrors.ErrDuplicateEnrollment,
			fmt.Sprintf("student %s is already enrolled in %s", studentID, course.Code))
	case err != nil && !errors.Is(err, repository.ErrNotFound):
		s.metrics.RecordEnrollment(OutcomeInternalError)
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enrollment")
	}

	enrollment := models.NewEnrollment(studentID, course.Code)
	if _, err := s.students.Mutate(ctx, studentID, func(st *models.Student) error {
		st.Enroll(course.Code)
		return nil
	}); err != nil {
		s.metrics.RecordEnrollment(OutcomeInternalError)
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update student")
	}
	if err := s.enrollments.Save(ctx, enrollment); err != nil {
		s.rollbackEnroll(ctx, studentID, course.Code)
		s.metrics.RecordEnrollment(OutcomeInternalError)
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save enrollment")
	}

	s.metrics.RecordEnrollment(OutcomeEnrolled)
	s.cache.InvalidateReports(ctx)
	s.logger.Info("student enrolled",
		zap.String("student_id", studentID),
		zap.String("course_code", course.Code),
		zap.Int("credits", course.Credits),
		zap.Int("prior_load", load),
	)
	return enrollment, nil
}

func (s *EnrollmentService) rollbackEnroll(ctx context.Context, studentID, courseCode string) {
	if _, err := s.students.Mutate(ctx, studentID, func(st *models.Student) error {
		st.Unenroll(courseCode)
		return nil
	}); err != nil {
		s.logger.Error("enrollment rollback failed", zap.String("student_id", studentID), zap.String("course_code", courseCode), zap.Error(err))
	}
}

// Unenroll drops an active enrollment along with any grade recorded for it.
// It reports false, without error, when there is nothing to drop.
func (s *EnrollmentService) Unenroll(ctx context.Context, studentID, courseCode string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	enrollment, ok, err := s.activeEnrollment(ctx, studentID, courseCode)
	if err != nil {
		return false, err
	}
	if !ok {
		s.metrics.RecordEnrollment(OutcomeNoEnrollment)
		return false, nil
	}

	enrollment.Deactivate()
	if err := s.enrollments.Save(ctx, enrollment); err != nil {
		return false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save enrollment")
	}
	if _, err := s.students.Mutate(ctx, studentID, func(st *models.Student) error {
		st.Unenroll(courseCode)
		return nil
	}); err != nil && !errors.Is(err, repository.ErrNotFound) {
		return false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update student")
	}

	s.metrics.RecordEnrollment(OutcomeUnenrolled)
	s.cache.InvalidateReports(ctx)
	s.logger.Info("student unenrolled", zap.String("student_id", studentID), zap.String("course_code", courseCode))
	return true, nil
}

// AssignGrade records the grade on the enrollment and on the student. An
// unknown letter is a validation error; a missing or dropped enrollment is
// ignored and reported as false.
func (s *EnrollmentService) AssignGrade(ctx context.Context, studentID, courseCode, letter string) (bool, error) {
	grade, err := models.ParseGrade(letter)
	if err != nil {
		return false, appErrors.Validation(err, fmt.Sprintf("invalid grade %q", letter))
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	enrollment, ok, err := s.activeEnrollment(ctx, studentID, courseCode)
	if err != nil {
		return false, err
	}
	if !ok {
		s.logger.Debug("grade ignored without active enrollment", zap.String("student_id", studentID), zap.String("course_code", courseCode))
		return false, nil
	}

	enrollment.AssignGrade(grade)
	if err := s.enrollments.Save(ctx, enrollment); err != nil {
		return false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save enrollment")
	}
	if _, err := s.students.Mutate(ctx, studentID, func(st *models.Student) error {
		st.AssignGrade(courseCode, grade)
		return nil
	}); err != nil && !errors.Is(err, repository.ErrNotFound) {
		return false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update student")
	}

	s.metrics.RecordGrade(grade)
	s.cache.InvalidateReports(ctx)
	s.logger.Info("grade assigned", zap.String("student_id", studentID), zap.String("course_code", courseCode), zap.String("grade", string(grade)))
	return true, nil
}

// activeEnrollment returns the enrollment for the pair when it exists and is active.
func (s *EnrollmentService) activeEnrollment(ctx context.Context, studentID, courseCode string) (*models.Enrollment, bool, error) {
	enrollment, err := s.enrollments.Find(ctx, studentID, courseCode)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, false, nil
		}
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enrollment")
	}
	if !enrollment.Active {
		return nil, false, nil
	}
	return enrollment, true, nil
}

// CalculateGPA returns the unweighted mean of the student's recorded grade points.
func (s *EnrollmentService) CalculateGPA(ctx context.Context, studentID string) (float64, error) {
	student, err := s.students.FindByID(ctx, studentID)
	if err != nil {
		return 0, lookupError(err, "student", studentID)
	}
	return student.GPA(), nil
}

// CreditLoad returns the credits of every course the student is enrolled in.
func (s *EnrollmentService) CreditLoad(ctx context.Context, studentID string) (int, error) {
	student, err := s.students.FindByID(ctx, studentID)
	if err != nil {
		return 0, lookupError(err, "student", studentID)
	}
	return s.creditLoad(ctx, student)
}

// creditLoad sums credits of enrolled courses; codes missing from the catalogue count as zero.
func (s *EnrollmentService) creditLoad(ctx context.Context, student *models.Student) (int, error) {
	total := 0
	for _, code := range student.EnrolledCourses() {
		course, err := s.courses.FindByID(ctx, code)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				continue
			}
			return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
		}
		total += course.Credits
	}
	return total, nil
}

// ListEnrollments returns enrollments matching the filter enriched with course data.
func (s *EnrollmentService) ListEnrollments(ctx context.Context, filter models.EnrollmentFilter) ([]models.EnrollmentDetail, *models.Pagination, error) {
	enrollments, err := s.enrollments.ListAll(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list enrollments")
	}
	page, pagination := models.Paginate(enrollments, filter.Page, filter.PageSize)

	details := make([]models.EnrollmentDetail, 0, len(page))
	for _, e := range page {
		detail := models.EnrollmentDetail{Enrollment: *e, Status: e.Status()}
		if course, err := s.courses.FindByID(ctx, e.CourseCode); err == nil {
			detail.CourseTitle = course.Title
			detail.Credits = course.Credits
			detail.Semester = course.Semester
		}
		details = append(details, detail)
	}
	return details, pagination, nil
}

// Transcript lists every enrollment the student has held with grades, current load and GPA.
func (s *EnrollmentService) Transcript(ctx context.Context, studentID string) (*models.Transcript, error) {
	student, err := s.students.FindByID(ctx, studentID)
	if err != nil {
		return nil, lookupError(err, "student", studentID)
	}
	enrollments, err := s.enrollments.ListByStudent(ctx, studentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list enrollments")
	}

	lines := make([]models.TranscriptLine, 0, len(enrollments))
	for _, e := range enrollments {
		line := models.TranscriptLine{CourseCode: e.CourseCode, Grade: e.Grade, Status: e.Status()}
		if course, err := s.courses.FindByID(ctx, e.CourseCode); err == nil {
			line.Title = course.Title
			line.Credits = course.Credits
			line.Semester = course.Semester
		}
		if e.Grade != nil {
			points := e.Grade.Points()
			line.Points = &points
		}
		lines = append(lines, line)
	}

	load, err := s.creditLoad(ctx, student)
	if err != nil {
		return nil, err
	}
	return &models.Transcript{
		StudentID:   student.ID,
		RegNo:       student.RegNo,
		FullName:    student.FullName,
		Lines:       lines,
		CreditLoad:  load,
		GPA:         student.GPA(),
		GeneratedAt: time.Now().UTC(),
	}, nil
}

func lookupOutcome(err error) string {
	if errors.Is(err, repository.ErrNotFound) {
		return OutcomeNotFound
	}
	return OutcomeInternalError
}

// lookupError maps a repository miss to NotFound and anything else to an internal error.
func lookupError(err error, entity, id string) error {
	if errors.Is(err, repository.ErrNotFound) {
		return appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("%s %s not found", entity, id))
	}
	return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, fmt.Sprintf("failed to load %s", entity))
}
