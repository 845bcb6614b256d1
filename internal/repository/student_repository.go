package repository

import (
	"context"

	"github.com/go-playground/validator/v10"

	"github.com/noah-isme/ccrm-api/internal/models"
	"github.com/noah-isme/ccrm-api/internal/validation"
	appErrors "github.com/noah-isme/ccrm-api/pkg/errors"
)

// StudentRepository stores students keyed by ID.
type StudentRepository struct {
	rows     *table[*models.Student]
	validate *validator.Validate
}

// NewStudentRepository constructs an empty StudentRepository.
func NewStudentRepository(validate *validator.Validate) *StudentRepository {
	if validate == nil {
		validate = validation.New()
	}
	return &StudentRepository{rows: newTable((*models.Student).Clone), validate: validate}
}

// Add validates the student and inserts it, replacing any row with the same ID.
func (r *StudentRepository) Add(ctx context.Context, student *models.Student) error {
	if student == nil {
		return appErrors.Clone(appErrors.ErrValidation, "student is required")
	}
	if err := r.validate.StructCtx(ctx, student); err != nil {
		return appErrors.Validation(err, "invalid student")
	}
	r.rows.put(student.ID, student)
	return nil
}

// Merge validates the student and stores it. When the ID is already known the
// stored enrollments and grades are kept and only the profile is replaced.
// It reports whether an existing row was updated.
func (r *StudentRepository) Merge(ctx context.Context, student *models.Student) (bool, error) {
	if student == nil {
		return false, appErrors.Clone(appErrors.ErrValidation, "student is required")
	}
	if err := r.validate.StructCtx(ctx, student); err != nil {
		return false, appErrors.Validation(err, "invalid student")
	}
	updated := false
	r.rows.upsert(student.ID, func(existing *models.Student, found bool) *models.Student {
		updated = found
		if !found {
			return student
		}
		next := student.Clone()
		next.KeepRecordsOf(existing)
		return next
	})
	return updated, nil
}

// FindByID returns a copy of the student or ErrNotFound.
func (r *StudentRepository) FindByID(ctx context.Context, id string) (*models.Student, error) {
	student, ok := r.rows.get(id)
	if !ok {
		return nil, ErrNotFound
	}
	return student, nil
}

// FindAll returns every student ordered by ID.
func (r *StudentRepository) FindAll(ctx context.Context) ([]*models.Student, error) {
	return r.rows.filter(nil), nil
}

// FindBy returns the students accepted by match, ordered by ID.
func (r *StudentRepository) FindBy(ctx context.Context, match func(*models.Student) bool) ([]*models.Student, error) {
	return r.rows.filter(match), nil
}

func (r *StudentRepository) Exists(ctx context.Context, id string) (bool, error) {
	return r.rows.has(id), nil
}

// Mutate applies fn to the stored student under the table write lock.
func (r *StudentRepository) Mutate(ctx context.Context, id string, fn func(*models.Student) error) (*models.Student, error) {
	return r.rows.mutate(id, fn)
}

func (r *StudentRepository) Count(ctx context.Context) (int, error) {
	return r.rows.len(), nil
}
