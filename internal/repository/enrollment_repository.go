package repository

import (
	"context"

	"github.com/noah-isme/ccrm-api/internal/models"
	appErrors "github.com/noah-isme/ccrm-api/pkg/errors"
)

// EnrollmentRepository stores enrollments keyed by (student, course).
type EnrollmentRepository struct {
	rows *table[*models.Enrollment]
}

func NewEnrollmentRepository() *EnrollmentRepository {
	return &EnrollmentRepository{rows: newTable((*models.Enrollment).Clone)}
}

// The NUL separator sorts before any printable byte, so key order is
// student ID first, then course code.
func enrollmentKey(studentID, courseCode string) string {
	return studentID + "\x00" + courseCode
}

// Save inserts or replaces the enrollment for its key.
func (r *EnrollmentRepository) Save(ctx context.Context, enrollment *models.Enrollment) error {
	if enrollment == nil || enrollment.StudentID == "" || enrollment.CourseCode == "" {
		return appErrors.Clone(appErrors.ErrValidation, "enrollment requires student and course")
	}
	r.rows.put(enrollmentKey(enrollment.StudentID, enrollment.CourseCode), enrollment)
	return nil
}

// Find returns the enrollment for the pair or ErrNotFound.
func (r *EnrollmentRepository) Find(ctx context.Context, studentID, courseCode string) (*models.Enrollment, error) {
	enrollment, ok := r.rows.get(enrollmentKey(studentID, courseCode))
	if !ok {
		return nil, ErrNotFound
	}
	return enrollment, nil
}

// ListByStudent returns the student's enrollments, active or not, ordered by course code.
func (r *EnrollmentRepository) ListByStudent(ctx context.Context, studentID string) ([]*models.Enrollment, error) {
	return r.rows.filter(func(e *models.Enrollment) bool { return e.StudentID == studentID }), nil
}

// ListAll returns enrollments accepted by filter ordered by student then course.
func (r *EnrollmentRepository) ListAll(ctx context.Context, filter models.EnrollmentFilter) ([]*models.Enrollment, error) {
	return r.rows.filter(filter.Matches), nil
}

func (r *EnrollmentRepository) Count(ctx context.Context) (int, error) {
	return r.rows.len(), nil
}
