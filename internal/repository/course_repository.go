package repository

import (
	"context"

	"github.com/go-playground/validator/v10"

	"github.com/noah-isme/ccrm-api/internal/models"
	"github.com/noah-isme/ccrm-api/internal/validation"
	appErrors "github.com/noah-isme/ccrm-api/pkg/errors"
)

// CourseRepository stores courses keyed by course code.
type CourseRepository struct {
	rows     *table[*models.Course]
	validate *validator.Validate
}

// NewCourseRepository constructs an empty CourseRepository.
func NewCourseRepository(validate *validator.Validate) *CourseRepository {
	if validate == nil {
		validate = validation.New()
	}
	return &CourseRepository{rows: newTable((*models.Course).Clone), validate: validate}
}

// Add validates the course and inserts it, replacing any row with the same code.
func (r *CourseRepository) Add(ctx context.Context, course *models.Course) error {
	if course == nil {
		return appErrors.Clone(appErrors.ErrValidation, "course is required")
	}
	if err := r.validate.StructCtx(ctx, course); err != nil {
		return appErrors.Validation(err, "invalid course")
	}
	r.rows.put(course.Code, course)
	return nil
}

// FindByID returns a copy of the course with the given code or ErrNotFound.
func (r *CourseRepository) FindByID(ctx context.Context, code string) (*models.Course, error) {
	course, ok := r.rows.get(code)
	if !ok {
		return nil, ErrNotFound
	}
	return course, nil
}

// FindAll returns every course ordered by code.
func (r *CourseRepository) FindAll(ctx context.Context) ([]*models.Course, error) {
	return r.rows.filter(nil), nil
}

// FindBy returns the courses accepted by match, ordered by code.
func (r *CourseRepository) FindBy(ctx context.Context, match func(*models.Course) bool) ([]*models.Course, error) {
	return r.rows.filter(match), nil
}

func (r *CourseRepository) Exists(ctx context.Context, code string) (bool, error) {
	return r.rows.has(code), nil
}

// Mutate applies fn to the stored course under the table write lock.
func (r *CourseRepository) Mutate(ctx context.Context, code string, fn func(*models.Course) error) (*models.Course, error) {
	return r.rows.mutate(code, fn)
}

func (r *CourseRepository) Count(ctx context.Context) (int, error) {
	return r.rows.len(), nil
}
