package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/ccrm-api/internal/models"
	"github.com/noah-isme/ccrm-api/internal/repository"
	"github.com/noah-isme/ccrm-api/internal/validation"
	appErrors "github.com/noah-isme/ccrm-api/pkg/errors"
)

type studentRepository interface {
	Add(ctx context.Context, student *models.Student) error
	FindByID(ctx context.Context, id string) (*models.Student, error)
	FindBy(ctx context.Context, match func(*models.Student) bool) ([]*models.Student, error)
	Exists(ctx context.Context, id string) (bool, error)
	Mutate(ctx context.Context, id string, fn func(*models.Student) error) (*models.Student, error)
}

// CreateStudentRequest holds payload for creating students.
type CreateStudentRequest struct {
	ID       string `json:"id" validate:"required"`
	RegNo    string `json:"reg_no" validate:"required,regno"`
	FullName string `json:"full_name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
}

// UpdateStudentRequest holds the mutable profile fields. The registration number is fixed at creation.
type UpdateStudentRequest struct {
	FullName string `json:"full_name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Active   *bool  `json:"active"`
}

// StudentService handles student use-cases.
type StudentService struct {
	repo      studentRepository
	cache     *CacheService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewStudentService constructs the student service.
func NewStudentService(repo studentRepository, cache *CacheService, validate *validator.Validate, logger *zap.Logger) *StudentService {
	if validate == nil {
		validate = validation.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StudentService{repo: repo, cache: cache, validator: validate, logger: logger}
}

// List returns the requested page of students matching the filter, ordered by ID.
func (s *StudentService) List(ctx context.Context, filter models.StudentFilter) ([]*models.Student, *models.Pagination, error) {
	students, err := s.repo.FindBy(ctx, filter.Matches)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list students")
	}
	page, pagination := models.Paginate(students, filter.Page, filter.PageSize)
	return page, pagination, nil
}

// Get returns a single student.
func (s *StudentService) Get(ctx context.Context, id string) (*models.Student, error) {
	student, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, lookupError(err, "student", id)
	}
	return student, nil
}

// Create registers a new student. IDs and registration numbers must be unique.
func (s *StudentService) Create(ctx context.Context, req CreateStudentRequest) (*models.Student, error) {
	if err := s.validator.StructCtx(ctx, req); err != nil {
		return nil, appErrors.Validation(err, "invalid student payload")
	}
	exists, err := s.repo.Exists(ctx, req.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check student id")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, fmt.Sprintf("student %s already exists", req.ID))
	}
	taken, err := s.repo.FindBy(ctx, func(st *models.Student) bool { return strings.EqualFold(st.RegNo, req.RegNo) })
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check registration number")
	}
	if len(taken) > 0 {
		return nil, appErrors.Clone(appErrors.ErrConflict, "registration number already used")
	}

	student := models.NewStudent(req.ID, req.RegNo, req.FullName, req.Email)
	if err := s.repo.Add(ctx, student); err != nil {
		return nil, err
	}
	s.cache.InvalidateReports(ctx)
	s.logger.Info("student created", zap.String("student_id", student.ID), zap.String("reg_no", student.RegNo))
	return student.Clone(), nil
}

// Update replaces the student's name, email and optionally the active flag.
func (s *StudentService) Update(ctx context.Context, id string, req UpdateStudentRequest) (*models.Student, error) {
	if err := s.validator.StructCtx(ctx, req); err != nil {
		return nil, appErrors.Validation(err, "invalid student payload")
	}
	student, err := s.repo.Mutate(ctx, id, func(st *models.Student) error {
		st.FullName = strings.TrimSpace(req.FullName)
		st.Email = strings.TrimSpace(req.Email)
		if req.Active != nil {
			st.Active = *req.Active
		}
		return nil
	})
	if err != nil {
		return nil, lookupError(err, "student", id)
	}
	s.cache.InvalidateReports(ctx)
	return student, nil
}

// Deactivate marks the student inactive. Students are never removed.
func (s *StudentService) Deactivate(ctx context.Context, id string) error {
	if _, err := s.repo.Mutate(ctx, id, func(st *models.Student) error {
		st.Active = false
		return nil
	}); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to deactivate student")
	}
	s.cache.InvalidateReports(ctx)
	s.logger.Info("student deactivated", zap.String("student_id", id))
	return nil
}
