package repository

import (
	"context"

	"github.com/go-playground/validator/v10"

	"github.com/noah-isme/ccrm-api/internal/models"
	"github.com/noah-isme/ccrm-api/internal/validation"
	appErrors "github.com/noah-isme/ccrm-api/pkg/errors"
)

// InstructorRepository stores instructors keyed by ID.
type InstructorRepository struct {
	rows     *table[*models.Instructor]
	validate *validator.Validate
}

func NewInstructorRepository(validate *validator.Validate) *InstructorRepository {
	if validate == nil {
		validate = validation.New()
	}
	return &InstructorRepository{rows: newTable((*models.Instructor).Clone), validate: validate}
}

func (r *InstructorRepository) Add(ctx context.Context, instructor *models.Instructor) error {
	if instructor == nil {
		return appErrors.Clone(appErrors.ErrValidation, "instructor is required")
	}
	if err := r.validate.StructCtx(ctx, instructor); err != nil {
		return appErrors.Validation(err, "invalid instructor")
	}
	r.rows.put(instructor.ID, instructor)
	return nil
}

func (r *InstructorRepository) FindByID(ctx context.Context, id string) (*models.Instructor, error) {
	instructor, ok := r.rows.get(id)
	if !ok {
		return nil, ErrNotFound
	}
	return instructor, nil
}

func (r *InstructorRepository) FindAll(ctx context.Context) ([]*models.Instructor, error) {
	return r.rows.filter(nil), nil
}

func (r *InstructorRepository) FindBy(ctx context.Context, match func(*models.Instructor) bool) ([]*models.Instructor, error) {
	return r.rows.filter(match), nil
}

func (r *InstructorRepository) Exists(ctx context.Context, id string) (bool, error) {
	return r.rows.has(id), nil
}

func (r *InstructorRepository) Mutate(ctx context.Context, id string, fn func(*models.Instructor) error) (*models.Instructor, error) {
	return r.rows.mutate(id, fn)
}

func (r *InstructorRepository) Count(ctx context.Context) (int, error) {
	return r.rows.len(), nil
}
