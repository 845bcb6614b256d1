package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/ccrm-api/internal/models"
	"github.com/noah-isme/ccrm-api/internal/validation"
	appErrors "github.com/noah-isme/ccrm-api/pkg/errors"
)

type instructorRepository interface {
	Add(ctx context.Context, instructor *models.Instructor) error
	FindByID(ctx context.Context, id string) (*models.Instructor, error)
	FindBy(ctx context.Context, match func(*models.Instructor) bool) ([]*models.Instructor, error)
	Exists(ctx context.Context, id string) (bool, error)
	Mutate(ctx context.Context, id string, fn func(*models.Instructor) error) (*models.Instructor, error)
}

type courseAssigner interface {
	Mutate(ctx context.Context, code string, fn func(*models.Course) error) (*models.Course, error)
}

// CreateInstructorRequest represents payload for creating instructors.
type CreateInstructorRequest struct {
	ID         string `json:"id" validate:"required"`
	EmployeeID string `json:"employee_id" validate:"omitempty,max=50"`
	FullName   string `json:"full_name" validate:"required"`
	Email      string `json:"email" validate:"required,email"`
	Department string `json:"department" validate:"omitempty,max=50"`
}

// AssignCourseRequest names the course handed to an instructor.
type AssignCourseRequest struct {
	CourseCode string `json:"course_code" validate:"required"`
}

// InstructorService orchestrates instructor operations.
type InstructorService struct {
	repo      instructorRepository
	courses   courseAssigner
	validator *validator.Validate
	logger    *zap.Logger
}

func NewInstructorService(repo instructorRepository, courses courseAssigner, validate *validator.Validate, logger *zap.Logger) *InstructorService {
	if validate == nil {
		validate = validation.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &InstructorService{repo: repo, courses: courses, validator: validate, logger: logger}
}

// Create registers an instructor with a unique ID and email.
func (s *InstructorService) Create(ctx context.Context, req CreateInstructorRequest) (*models.Instructor, error) {
	if err := s.validator.StructCtx(ctx, req); err != nil {
		return nil, appErrors.Validation(err, "invalid instructor payload")
	}
	exists, err := s.repo.Exists(ctx, req.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check instructor id")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, fmt.Sprintf("instructor %s already exists", req.ID))
	}
	sameEmail, err := s.repo.FindBy(ctx, func(i *models.Instructor) bool { return strings.EqualFold(i.Email, req.Email) })
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check instructor email")
	}
	if len(sameEmail) > 0 {
		return nil, appErrors.Clone(appErrors.ErrConflict, "email already used")
	}

	instructor := models.NewInstructor(req.ID, req.EmployeeID, req.FullName, req.Email, req.Department)
	if err := s.repo.Add(ctx, instructor); err != nil {
		return nil, err
	}
	return instructor.Clone(), nil
}

func (s *InstructorService) Get(ctx context.Context, id string) (*models.Instructor, error) {
	instructor, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, lookupError(err, "instructor", id)
	}
	return instructor, nil
}

// List returns instructors, optionally restricted to one department.
func (s *InstructorService) List(ctx context.Context, department string) ([]*models.Instructor, error) {
	instructors, err := s.repo.FindBy(ctx, func(i *models.Instructor) bool {
		return department == "" || strings.EqualFold(i.Department, department)
	})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list instructors")
	}
	return instructors, nil
}

// AssignCourse records the course against the instructor and names the instructor on the course.
func (s *InstructorService) AssignCourse(ctx context.Context, id string, req AssignCourseRequest) (*models.Instructor, error) {
	if err := s.validator.StructCtx(ctx, req); err != nil {
		return nil, appErrors.Validation(err, "invalid assignment payload")
	}
	instructor, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, lookupError(err, "instructor", id)
	}
	if _, err := s.courses.Mutate(ctx, req.CourseCode, func(c *models.Course) error {
		c.Instructor = instructor.FullName
		return nil
	}); err != nil {
		return nil, lookupError(err, "course", req.CourseCode)
	}
	previous, err := s.repo.FindBy(ctx, func(i *models.Instructor) bool {
		return i.ID != id && i.Teaches(req.CourseCode)
	})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list instructors")
	}
	// a course has a single instructor
	for _, other := range previous {
		if _, err := s.repo.Mutate(ctx, other.ID, func(i *models.Instructor) error {
			i.UnassignCourse(req.CourseCode)
			return nil
		}); err != nil {
			return nil, lookupError(err, "instructor", other.ID)
		}
	}
	updated, err := s.repo.Mutate(ctx, id, func(i *models.Instructor) error {
		i.AssignCourse(req.CourseCode)
		return nil
	})
	if err != nil {
		return nil, lookupError(err, "instructor", id)
	}
	s.logger.Info("course assigned", zap.String("instructor_id", id), zap.String("course_code", req.CourseCode))
	return updated, nil
}
